package registry

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/hervehildenbrand/saferoute/pkg/models"
	"gopkg.in/yaml.v3"
)

// Source provides location records to a registry.
type Source interface {
	// Load returns every record in registry order.
	Load(ctx context.Context) ([]models.LocationRecord, error)
	// Describe names the source for logs and errors.
	Describe() string
}

//go:embed data/delhi.yaml
var delhiDataset []byte

// locationFile is the YAML layout shared by the embedded dataset and file sources.
// A list keeps the registry order stable.
type locationFile struct {
	Locations []models.LocationRecord `yaml:"locations"`
}

func decodeYAML(data []byte) ([]models.LocationRecord, error) {
	var f locationFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding locations: %w", err)
	}
	return f.Locations, nil
}

// EmbeddedSource serves the Delhi dataset compiled into the binary.
// Use this when no file or database is configured.
type EmbeddedSource struct{}

// NewEmbeddedSource creates a source over the built-in dataset.
func NewEmbeddedSource() *EmbeddedSource {
	return &EmbeddedSource{}
}

func (s *EmbeddedSource) Load(context.Context) ([]models.LocationRecord, error) {
	return decodeYAML(delhiDataset)
}

func (s *EmbeddedSource) Describe() string { return "embedded dataset" }
