package registry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hervehildenbrand/saferoute/pkg/models"
	"github.com/lib/pq"
)

// DefaultTable is the table read by DatabaseSource when none is given.
const DefaultTable = "locations"

// DatabaseSource loads location records from a PostgreSQL table.
//
// Expected schema:
//
//	CREATE TABLE locations (
//	    position              integer,
//	    name                  text PRIMARY KEY,
//	    safety_level          text,
//	    crime_density         double precision,
//	    lighting_quality      integer,
//	    surveillance_coverage integer,
//	    crowd_density         text,
//	    incidents_last_month  integer,
//	    police_station        text,
//	    latitude              double precision,
//	    longitude             double precision
//	);
//
// Rows are returned ordered by position, then name.
type DatabaseSource struct {
	db        *sql.DB
	tableName string
}

// NewDatabaseSource creates a source over an open database handle.
// tableName defaults to "locations" if empty.
func NewDatabaseSource(db *sql.DB, tableName string) *DatabaseSource {
	if tableName == "" {
		tableName = DefaultTable
	}
	return &DatabaseSource{db: db, tableName: tableName}
}

// OpenDatabaseSource connects to PostgreSQL and returns a source and the
// handle, which the caller closes once the registry is loaded.
func OpenDatabaseSource(ctx context.Context, databaseURL, tableName string) (*DatabaseSource, *sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, err
	}

	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return NewDatabaseSource(db, tableName), db, nil
}

func (s *DatabaseSource) Describe() string { return "database table " + s.tableName }

func (s *DatabaseSource) query() string {
	return "SELECT name, COALESCE(safety_level, ''), COALESCE(crime_density, 0), " +
		"COALESCE(lighting_quality, 0), COALESCE(surveillance_coverage, 0), " +
		"COALESCE(crowd_density, ''), COALESCE(incidents_last_month, 0), " +
		"COALESCE(police_station, ''), COALESCE(latitude, 0), COALESCE(longitude, 0) " +
		"FROM " + quoteTable(s.tableName) + " ORDER BY position, name"
}

// quoteTable quotes each part of a possibly schema-qualified table name.
func quoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func (s *DatabaseSource) Load(ctx context.Context) ([]models.LocationRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.query())
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.tableName, err)
	}
	defer rows.Close()

	var records []models.LocationRecord
	for rows.Next() {
		var rec models.LocationRecord
		var safety, crowd string
		if err := rows.Scan(
			&rec.Name,
			&safety,
			&rec.CrimeDensity,
			&rec.LightingQuality,
			&rec.SurveillanceCoverage,
			&crowd,
			&rec.IncidentsLastMonth,
			&rec.PoliceStation,
			&rec.Latitude,
			&rec.Longitude,
		); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", s.tableName, err)
		}
		rec.SafetyLevel = models.SafetyLevel(safety)
		rec.CrowdDensity = models.CrowdDensity(crowd)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration over %s: %w", s.tableName, err)
	}
	return records, nil
}
