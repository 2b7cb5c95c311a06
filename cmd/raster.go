package main

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/kass/go-insar-gps/internal/logging"
	"github.com/kass/go-insar-gps/pkg/gapfill"
	"github.com/kass/go-insar-gps/pkg/pairing"
	"github.com/kass/go-insar-gps/pkg/raster"
	"github.com/kass/go-insar-gps/pkg/velio"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Mask low-coherence cells of a raster and fill the gaps",
	Long: `Read a whitespace matrix raster, optionally mask it where coherence falls
below the profile's threshold, and fill NaN cells by linear interpolation over
the valid ones. Cells outside their hull get the fallback value 1.

With --phase the raster is the real part of a complex interferogram and --imag
its imaginary part. Missing cells are filled with unit amplitude and the
interpolated phase, and the parts are written to --out and --imag-out.`,
	RunE: runFill,
}

var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Pair LOS station velocities with a LOS raster",
	Long: `Read a LOS raster with its axes and LOS station records, and write every
station on the raster next to the NaN-ignoring mean of the window around its
nearest cell.`,
	RunE: runPair,
}

var (
	rasterFile    string
	coherenceFile string
	threshold     float64
	float32Output bool
	cutBounds     []float64
	cutBuffer     int
	outFile       string
	phaseMode     bool
	imagFile      string
	imagOutFile   string

	losFile      string
	x0, dx       float64
	y0, dy       float64
	windowRadius int
)

func init() {
	for _, c := range []*cobra.Command{fillCmd, pairCmd} {
		c.Flags().StringVarP(&rasterFile, "raster", "r", "", "Raster matrix file")
		c.Flags().StringVarP(&outFile, "out", "o", "-", "Output file (- for stdout)")
		_ = c.MarkFlagRequired("raster")
	}

	fillCmd.Flags().StringVar(&coherenceFile, "coherence", "", "Coherence matrix of the same shape")
	fillCmd.Flags().Float64Var(&threshold, "threshold", math.NaN(), "Coherence threshold (profile threshold when unset)")
	fillCmd.Flags().BoolVar(&float32Output, "float32", false, "Round values to 32-bit precision")
	fillCmd.Flags().Float64SliceVar(&cutBounds, "cut", nil, "Keep columns and rows xmin,xmax,ymin,ymax as fractions of each axis")
	fillCmd.Flags().IntVar(&cutBuffer, "buffer", 0, "Cells kept clear of every edge when cutting")
	fillCmd.Flags().BoolVar(&phaseMode, "phase", false, "Fill a complex raster given as real (--raster) and imaginary (--imag) parts")
	fillCmd.Flags().StringVar(&imagFile, "imag", "", "Imaginary part matrix (with --phase)")
	fillCmd.Flags().StringVar(&imagOutFile, "imag-out", "", "Output file for the filled imaginary part (with --phase)")

	pairCmd.Flags().StringVarP(&losFile, "los", "l", "", "LOS station file")
	pairCmd.Flags().Float64Var(&x0, "x0", 0, "Longitude of the first column")
	pairCmd.Flags().Float64Var(&dx, "dx", 0, "Longitude step between columns")
	pairCmd.Flags().Float64Var(&y0, "y0", 0, "Latitude of the first row")
	pairCmd.Flags().Float64Var(&dy, "dy", 0, "Latitude step between rows")
	pairCmd.Flags().IntVarP(&windowRadius, "window", "w", -1, "Window radius in cells (profile radius when negative)")
	_ = pairCmd.MarkFlagRequired("los")
}

func readField(path string) (*raster.Field, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster: %w", err)
	}
	defer f.Close()

	field, err := velio.ReadField(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return field, nil
}

// fillOptions are the steps applied to a raster before its gaps are filled
type fillOptions struct {
	coherence *raster.Field
	threshold float64
	precision raster.Precision
	cut       []float64
	buffer    int
}

func (o fillOptions) cutField(f *raster.Field) (*raster.Field, error) {
	if o.cut == nil {
		return f, nil
	}
	if len(o.cut) != 4 {
		return nil, fmt.Errorf("--cut wants xmin,xmax,ymin,ymax, got %v", o.cut)
	}
	return gapfill.CutGrid(f, [2]float64{o.cut[0], o.cut[1]}, [2]float64{o.cut[2], o.cut[3]}, true, o.buffer)
}

// fillReal masks, cuts and fills a real raster. An OutOfBoundsWarning is
// returned with the filled field.
func fillReal(data *raster.Field, o fillOptions, rep *report) (*raster.Field, error) {
	data.Precision = o.precision
	var err error
	if o.coherence != nil {
		if data, err = gapfill.ApplyMask(data, gapfill.BuildMask(o.coherence, o.threshold), o.precision); err != nil {
			return nil, err
		}
		rep.add("Masked", "%d cells below %g", data.CountNaN(), o.threshold)
	}
	if data, err = o.cutField(data); err != nil {
		return nil, err
	}
	if o.cut != nil {
		rep.add("Cut", "%dx%d", data.Rows, data.Cols)
	}
	return gapfill.FillGaps(data)
}

// fillPhase does the same for a complex raster given as real and imaginary
// parts, filling missing cells with unit amplitude and interpolated phase.
func fillPhase(re, im *raster.Field, o fillOptions, rep *report) (*raster.ComplexField, error) {
	data, err := raster.Combine(re, im)
	if err != nil {
		return nil, err
	}
	data.Precision = o.precision
	if o.coherence != nil {
		if data, err = gapfill.ApplyMaskComplex(data, gapfill.BuildMask(o.coherence, o.threshold), o.precision); err != nil {
			return nil, err
		}
		rep.add("Masked", "%d cells below %g", data.Phase().CountNaN(), o.threshold)
	}
	if o.cut != nil {
		re, im = data.Parts()
		if re, err = o.cutField(re); err != nil {
			return nil, err
		}
		if im, err = o.cutField(im); err != nil {
			return nil, err
		}
		if data, err = raster.Combine(re, im); err != nil {
			return nil, err
		}
		data.Precision = o.precision
		rep.add("Cut", "%dx%d", data.Rows, data.Cols)
	}
	return gapfill.FillPhaseGaps(data)
}

func writeFieldFile(path string, f *raster.Field) error {
	out, closeFn, err := createOutput(path)
	if err != nil {
		return err
	}
	if err := velio.WriteField(out, f); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func runFill(cmd *cobra.Command, args []string) error {
	if phaseMode && (imagFile == "" || imagOutFile == "") {
		return errors.New("--phase needs --imag and --imag-out")
	}
	data, err := readField(rasterFile)
	if err != nil {
		return err
	}

	opts := fillOptions{threshold: profile.CoherenceThreshold, cut: cutBounds, buffer: cutBuffer}
	if !math.IsNaN(threshold) {
		opts.threshold = threshold
	}
	if float32Output {
		opts.precision = raster.Float32
	}
	if coherenceFile != "" {
		if opts.coherence, err = readField(coherenceFile); err != nil {
			return err
		}
	}

	rep := newReport("Gap fill: " + rasterFile)
	rep.add("Shape", "%dx%d", data.Rows, data.Cols)
	rep.add("Missing", "%d cells", data.CountNaN())

	if phaseMode {
		im, err := readField(imagFile)
		if err != nil {
			return err
		}
		filled, err := fillPhase(data, im, opts, rep)
		if err != nil && !isWarning(err) {
			return err
		}
		if err != nil {
			rep.warn("%v", err)
			logger.Warn("phase cells outside the valid hull", logging.Err(err))
		}
		re, im := filled.Parts()
		if err := writeFieldFile(outFile, re); err != nil {
			return err
		}
		if err := writeFieldFile(imagOutFile, im); err != nil {
			return err
		}
		rep.add("Output", "%s, %s", outFile, imagOutFile)
		rep.print(outFile, imagOutFile)
		return nil
	}

	filled, err := fillReal(data, opts, rep)
	if err != nil && !isWarning(err) {
		return err
	}
	if err != nil {
		rep.warn("%v", err)
		logger.Warn("cells outside the valid hull", logging.Err(err))
	}
	if err := writeFieldFile(outFile, filled); err != nil {
		return err
	}
	rep.add("Output", "%s", outFile)
	rep.print(outFile)
	return nil
}

func runPair(cmd *cobra.Command, args []string) error {
	if dx == 0 || dy == 0 {
		return fmt.Errorf("--dx and --dy must be non-zero")
	}
	r, err := readField(rasterFile)
	if err != nil {
		return err
	}
	r.X = velio.Axis(x0, dx, r.Cols)
	r.Y = velio.Axis(y0, dy, r.Rows)

	f, err := os.Open(losFile)
	if err != nil {
		return fmt.Errorf("failed to open LOS records: %w", err)
	}
	records, err := velio.ReadLOS(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", losFile, err)
	}

	opts := pairing.Options{
		WindowRadius:      profile.WindowRadius,
		DistanceTolerance: profile.DistanceToleranceDeg,
		Logger:            logger,
	}
	if windowRadius >= 0 {
		opts.WindowRadius = windowRadius
	}
	pairs, err := pairing.Match(records, r, opts)
	if err != nil {
		return err
	}

	out, closeFn, err := createOutput(outFile)
	if err != nil {
		return err
	}
	if err := velio.WritePairs(out, pairs); err != nil {
		closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}

	rep := newReport("Station pairing: " + rasterFile)
	rep.add("Raster", "%dx%d", r.Rows, r.Cols)
	rep.add("Stations", "%d", len(records))
	rep.add("Paired", "%d", len(pairs))
	if len(pairs) > 0 {
		mean, std := residualStats(pairs)
		rep.add("Residual", "%.3f ± %.3f mm/yr", mean, std)
	}
	rep.add("Output", "%s", outFile)
	rep.print(outFile)
	logger.Debug("pairing done", logging.Int("paired", len(pairs)), logging.Int("window", opts.WindowRadius))
	return nil
}

// residualStats is the mean and standard deviation of station minus raster
func residualStats(pairs []pairing.Pair) (float64, float64) {
	residuals := make([]float64, len(pairs))
	for i, p := range pairs {
		residuals[i] = p.Station.LOS - p.Raster
	}
	if len(residuals) == 1 {
		return residuals[0], 0
	}
	return stat.MeanStdDev(residuals, nil)
}

