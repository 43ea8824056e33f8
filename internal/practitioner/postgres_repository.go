package practitioner

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caremap/caremap/pkg/geo"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL practitioner repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// List returns every practitioner in the directory, ordered by ID.
func (r *PostgresRepository) List(ctx context.Context) ([]Practitioner, error) {
	query := `
		SELECT
			id, name, specialty, city, experience_years,
			languages, verified, location_lat, location_lon
		FROM practitioners
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying practitioners: %w", err)
	}
	defer rows.Close()

	var practitioners []Practitioner
	for rows.Next() {
		var (
			p        Practitioner
			lat, lon *float64
		)

		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Specialty,
			&p.City,
			&p.ExperienceYears,
			&p.Languages,
			&p.Verified,
			&lat,
			&lon,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning practitioner: %w", err)
		}

		if lat != nil && lon != nil {
			p.Location = &geo.Coordinate{Lat: *lat, Lon: *lon}
		}

		practitioners = append(practitioners, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading practitioners: %w", err)
	}

	return practitioners, nil
}
