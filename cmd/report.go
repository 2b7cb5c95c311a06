package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF79C6")).
			Background(lipgloss.Color("#282A36")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8BE9FD"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F1FA8C"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#BD93F9")).
			Padding(0, 1)
)

// report is the summary printed after each command
type report struct {
	title    string
	rows     [][2]string
	warnings []string
}

func newReport(title string) *report {
	return &report{title: title}
}

func (r *report) add(label, format string, args ...any) {
	r.rows = append(r.rows, [2]string{label, fmt.Sprintf(format, args...)})
}

func (r *report) warn(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func (r *report) render(styled bool) string {
	width := 0
	for _, row := range r.rows {
		width = max(width, len(row[0]))
	}

	var b strings.Builder
	for i, row := range r.rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		label := row[0] + ":" + strings.Repeat(" ", width-len(row[0])+1)
		if styled {
			b.WriteString(labelStyle.Render(label) + valueStyle.Render(row[1]))
		} else {
			b.WriteString(label + row[1])
		}
	}
	for _, w := range r.warnings {
		b.WriteByte('\n')
		if styled {
			b.WriteString(warnStyle.Render("! " + w))
		} else {
			b.WriteString("warning: " + w)
		}
	}

	if !styled {
		return r.title + "\n" + b.String() + "\n"
	}
	return titleStyle.Render(r.title) + "\n" + boxStyle.Render(b.String()) + "\n"
}

// print writes the report to stdout, or stderr when stdout carries data
func (r *report) print(outputs ...string) {
	out := os.Stdout
	if slices.Contains(outputs, "-") {
		out = os.Stderr
	}
	r.write(out, isTerminal(out))
}

func (r *report) write(w io.Writer, styled bool) {
	fmt.Fprint(w, r.render(styled && !noColor))
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
