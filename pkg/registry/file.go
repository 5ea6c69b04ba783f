package registry

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hervehildenbrand/saferoute/pkg/models"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor YAML.
var ErrUnsupportedFormat = errors.New("registry: unsupported file format")

// FileSource loads location records from a CSV or YAML file.
//
// CSV files need a header row naming the columns, e.g.
// "name,safety_level,crime_density,lighting_quality,...". Columns may
// appear in any order and unknown columns are ignored. YAML files use the
// same layout as the embedded dataset.
type FileSource struct {
	filePath string
}

// NewFileSource creates a source for the given path. The format is picked
// from the extension when Load runs.
func NewFileSource(filePath string) *FileSource {
	return &FileSource{filePath: filePath}
}

func (s *FileSource) Describe() string { return "file " + s.filePath }

func (s *FileSource) Load(context.Context) ([]models.LocationRecord, error) {
	switch strings.ToLower(filepath.Ext(s.filePath)) {
	case ".csv":
		file, err := os.Open(s.filePath)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return readCSV(bufio.NewReader(file))
	case ".yaml", ".yml":
		data, err := os.ReadFile(s.filePath)
		if err != nil {
			return nil, err
		}
		return decodeYAML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, s.filePath)
	}
}

func readCSV(r io.Reader) ([]models.LocationRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := columns["name"]; !ok {
		return nil, errors.New("csv header has no name column")
	}

	var records []models.LocationRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec, err := parseRow(columns, row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(columns map[string]int, row []string) (models.LocationRecord, error) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var err error
	rec := models.LocationRecord{
		Name:          field("name"),
		SafetyLevel:   models.SafetyLevel(strings.ToLower(field("safety_level"))),
		CrowdDensity:  models.CrowdDensity(strings.ToLower(field("crowd_density"))),
		PoliceStation: field("police_station"),
	}
	floats := []struct {
		column string
		dst    *float64
	}{
		{"crime_density", &rec.CrimeDensity},
		{"latitude", &rec.Latitude},
		{"longitude", &rec.Longitude},
	}
	for _, f := range floats {
		if v := field(f.column); v != "" {
			if *f.dst, err = strconv.ParseFloat(v, 64); err != nil {
				return rec, fmt.Errorf("%s: %w", f.column, err)
			}
		}
	}
	ints := []struct {
		column string
		dst    *int
	}{
		{"lighting_quality", &rec.LightingQuality},
		{"surveillance_coverage", &rec.SurveillanceCoverage},
		{"incidents_last_month", &rec.IncidentsLastMonth},
	}
	for _, f := range ints {
		if v := field(f.column); v != "" {
			if *f.dst, err = strconv.Atoi(v); err != nil {
				return rec, fmt.Errorf("%s: %w", f.column, err)
			}
		}
	}
	return rec, nil
}
