package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hervehildenbrand/saferoute/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedSource(t *testing.T) {
	r, err := Load(context.Background(), NewEmbeddedSource())
	require.NoError(t, err)

	assert.Equal(t, 12, r.Len())

	names := r.Names()
	assert.Equal(t, "Connaught Place", names[0])
	assert.Equal(t, "Noida City Center", names[len(names)-1])

	rec, ok := r.Lookup("Vivek Vihar")
	require.True(t, ok)
	assert.Equal(t, models.SafetyLow, rec.SafetyLevel)
	assert.Equal(t, 2.1, rec.CrimeDensity)
	assert.Equal(t, 12, rec.IncidentsLastMonth)
	assert.Equal(t, "Vivek Vihar PS", rec.PoliceStation)
	assert.Equal(t, models.CrowdHigh, rec.CrowdDensity)
}

func TestLookup_ExactNameOnly(t *testing.T) {
	r, err := Load(context.Background(), NewEmbeddedSource())
	require.NoError(t, err)

	tests := []struct {
		name  string
		found bool
	}{
		{"IIT Delhi", true},
		{"iit delhi", false},
		{"IIT Delhi ", false},
		{"Nowhere", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := r.Lookup(tt.name)
			assert.Equal(t, tt.found, ok)
		})
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name    string
		records []models.LocationRecord
		wantErr error
	}{
		{
			name:    "empty",
			records: nil,
			wantErr: ErrEmptyRegistry,
		},
		{
			name: "duplicate",
			records: []models.LocationRecord{
				{Name: "A", SafetyLevel: models.SafetyHigh},
				{Name: "A", SafetyLevel: models.SafetyLow},
			},
			wantErr: ErrDuplicateName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.records)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		record models.LocationRecord
	}{
		{"missing name", models.LocationRecord{SafetyLevel: models.SafetyMid}},
		{"bad safety level", models.LocationRecord{Name: "A", SafetyLevel: "medium"}},
		{"bad crowd density", models.LocationRecord{Name: "A", CrowdDensity: "mid"}},
		{"negative crime density", models.LocationRecord{Name: "A", CrimeDensity: -1}},
		{"lighting over 100", models.LocationRecord{Name: "A", LightingQuality: 101}},
		{"surveillance under 0", models.LocationRecord{Name: "A", SurveillanceCoverage: -5}},
		{"latitude out of range", models.LocationRecord{Name: "A", Latitude: 91}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New([]models.LocationRecord{tt.record})
			assert.Error(t, err)
		})
	}
}

func TestNew_MissingSafetyLevelAllowed(t *testing.T) {
	r, err := New([]models.LocationRecord{{Name: "Unrated"}})
	require.NoError(t, err)

	rec, ok := r.Lookup("Unrated")
	require.True(t, ok)
	assert.Equal(t, models.SafetyLevel(""), rec.SafetyLevel)
	assert.Equal(t, models.SafetyMid, rec.SafetyLevel.OrDefault())
}

func TestRecordsIsACopy(t *testing.T) {
	r, err := New([]models.LocationRecord{{Name: "A", SafetyLevel: models.SafetyHigh}})
	require.NoError(t, err)

	recs := r.Records()
	recs[0].SafetyLevel = models.SafetyLow

	rec, _ := r.Lookup("A")
	assert.Equal(t, models.SafetyHigh, rec.SafetyLevel)
}

func TestSummary(t *testing.T) {
	r, err := Load(context.Background(), NewEmbeddedSource())
	require.NoError(t, err)

	s := r.Summary()
	assert.Equal(t, 12, s.Total)
	require.Len(t, s.Locations, 12)
	assert.Equal(t, "Connaught Place", s.Locations[0].Name)
	assert.Equal(t, models.SafetyMid, s.Locations[0].SafetyLevel)
	assert.Equal(t, 8, s.Locations[0].IncidentsLastMonth)
}

func TestFileSource_CSV(t *testing.T) {
	tmpDir := t.TempDir()
	csvPath := filepath.Join(tmpDir, "locations.csv")

	csvContent := `name,safety_level,crime_density,lighting_quality,surveillance_coverage,crowd_density,incidents_last_month,police_station,latitude,longitude
Old Town,LOW,2.4,55,40,high,14,Old Town PS,51.5,-0.1
Harbour,high,0.4,90,88,low,1,Harbour PS,51.6,-0.2
Market,,1.1,80,70,medium,5,Market PS,51.7,-0.3
`
	require.NoError(t, os.WriteFile(csvPath, []byte(csvContent), 0644))

	r, err := Load(context.Background(), NewFileSource(csvPath))
	require.NoError(t, err)

	assert.Equal(t, []string{"Old Town", "Harbour", "Market"}, r.Names())

	rec, ok := r.Lookup("Old Town")
	require.True(t, ok)
	assert.Equal(t, models.SafetyLow, rec.SafetyLevel, "safety level should be lowercased")
	assert.Equal(t, 2.4, rec.CrimeDensity)
	assert.Equal(t, 14, rec.IncidentsLastMonth)
	assert.Equal(t, -0.1, rec.Longitude)

	market, _ := r.Lookup("Market")
	assert.Equal(t, models.SafetyLevel(""), market.SafetyLevel)
}

func TestFileSource_CSVColumnOrder(t *testing.T) {
	tmpDir := t.TempDir()
	csvPath := filepath.Join(tmpDir, "locations.csv")

	csvContent := `safety_level,name,notes
high,Harbour,ignored
`
	require.NoError(t, os.WriteFile(csvPath, []byte(csvContent), 0644))

	r, err := Load(context.Background(), NewFileSource(csvPath))
	require.NoError(t, err)

	rec, ok := r.Lookup("Harbour")
	require.True(t, ok)
	assert.Equal(t, models.SafetyHigh, rec.SafetyLevel)
}

func TestFileSource_CSVBadNumber(t *testing.T) {
	tmpDir := t.TempDir()
	csvPath := filepath.Join(tmpDir, "locations.csv")

	csvContent := `name,crime_density
Harbour,lots
`
	require.NoError(t, os.WriteFile(csvPath, []byte(csvContent), 0644))

	_, err := Load(context.Background(), NewFileSource(csvPath))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestFileSource_CSVNoNameColumn(t *testing.T) {
	tmpDir := t.TempDir()
	csvPath := filepath.Join(tmpDir, "locations.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("place,safety_level\nA,high\n"), 0644))

	_, err := Load(context.Background(), NewFileSource(csvPath))
	assert.Error(t, err)
}

func TestFileSource_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "locations.yml")

	yamlContent := `locations:
  - name: Harbour
    safety_level: high
    lighting_quality: 90
  - name: Old Town
    safety_level: low
`
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlContent), 0644))

	r, err := Load(context.Background(), NewFileSource(yamlPath))
	require.NoError(t, err)
	assert.Equal(t, []string{"Harbour", "Old Town"}, r.Names())

	rec, _ := r.Lookup("Harbour")
	assert.Equal(t, 90, rec.LightingQuality)
}

func TestFileSource_InvalidFile(t *testing.T) {
	_, err := NewFileSource("/nonexistent/path/file.csv").Load(context.Background())
	assert.Error(t, err)
}

func TestFileSource_UnsupportedFormat(t *testing.T) {
	_, err := NewFileSource("locations.json").Load(context.Background())
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestDatabaseSource_Defaults(t *testing.T) {
	s := NewDatabaseSource(nil, "")
	assert.Equal(t, "database table locations", s.Describe())
	assert.Contains(t, s.query(), `FROM "locations" ORDER BY position, name`)
}

func TestQuoteTable(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"locations", `"locations"`},
		{"city.locations", `"city"."locations"`},
		{`loc"; DROP TABLE x; --`, `"loc""; DROP TABLE x; --"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quoteTable(tt.name))
		})
	}
}

func TestSourceInterface(t *testing.T) {
	var _ Source = (*EmbeddedSource)(nil)
	var _ Source = (*FileSource)(nil)
	var _ Source = (*DatabaseSource)(nil)
}
