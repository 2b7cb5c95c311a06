package rtree

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/kass/go-insar-gps/pkg/models"
)

// IndexData represents the serializable form of the station index
type IndexData struct {
	Stations []models.StationVelocity `json:"stations"`
	Count    int64                    `json:"count"`
}

// Stations returns every indexed station ordered by name
func (s *StationIndex) Stations() []models.StationVelocity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// rtreego has no iterator, so collect with a box covering the globe
	stations, err := s.queryBox(models.BoundingBox{
		BottomLeft: models.Location{Lat: -90, Lon: -180},
		TopRight:   models.Location{Lat: 90, Lon: 180},
	})
	if err != nil {
		return nil
	}
	return stations
}

// SaveToFile saves the index to a binary file
func (s *StationIndex) SaveToFile(filename string) error {
	data := IndexData{
		Stations: s.Stations(),
		Count:    s.itemCount.Load(),
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	return nil
}

// LoadFromFile loads the index from a binary file
func (s *StationIndex) LoadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var data IndexData
	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&data); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}

	// Clear existing index and rebuild
	s.Clear()
	if err := s.IndexStations(data.Stations); err != nil {
		return fmt.Errorf("failed to index stations: %w", err)
	}

	return nil
}
