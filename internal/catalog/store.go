// Package catalog is the mock persistence layer behind the storefront's
// product listing: a sqlite file seeded from an embedded scrape snapshot,
// exposed through the list/get/reload/clear contract the try-on core
// consumes.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"vton/internal/domain"
)

// Open opens (creating if needed) the catalog database at path. WAL mode
// keeps concurrent reads cheap while reload rewrites the table.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Store serves Garment records from sqlite.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewStore initializes the schema and seeds the table when empty.
func NewStore(db *sql.DB, logger zerolog.Logger) (*Store, error) {
	s := &Store{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM garments`).Scan(&count); err != nil {
		return nil, fmt.Errorf("count garments: %w", err)
	}
	if count == 0 {
		if err := s.Reload(context.Background()); err != nil {
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS garments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price REAL NOT NULL,
		category TEXT NOT NULL,
		sub_category TEXT,
		image TEXT NOT NULL,
		images_json TEXT,
		description TEXT NOT NULL,
		rating REAL,
		reviews INTEGER,
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_garments_category ON garments(category);
	`
	_, err := s.db.Exec(query)
	return err
}

// ListAll returns every garment in catalog order.
func (s *Store) ListAll(ctx context.Context) ([]domain.Garment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price, category, sub_category, image, images_json, description, rating, reviews
		FROM garments ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list garments: %w", err)
	}
	defer rows.Close()

	var out []domain.Garment
	for rows.Next() {
		g, err := scanGarment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetByID returns one garment, or domain.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Garment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, price, category, sub_category, image, images_json, description, rating, reviews
		FROM garments WHERE id = ?`, id)
	g, err := scanGarment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: garment %q", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Reload drops all rows and reseeds from the embedded snapshot.
func (s *Store) Reload(ctx context.Context) error {
	garments, err := seedGarments()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reload: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM garments`); err != nil {
		return fmt.Errorf("clear garments: %w", err)
	}
	for i, g := range garments {
		images, err := json.Marshal(g.Images)
		if err != nil {
			return fmt.Errorf("marshal images for %s: %w", g.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO garments (id, name, price, category, sub_category, image, images_json, description, rating, reviews, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.Name, g.Price, g.Category, g.SubCategory, g.Image, string(images), g.Description, g.Rating, g.Reviews, i)
		if err != nil {
			return fmt.Errorf("insert garment %s: %w", g.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reload: %w", err)
	}

	s.logger.Info().Int("garments", len(garments)).Msg("catalog: reseeded")
	return nil
}

// Clear empties the catalog.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM garments`); err != nil {
		return fmt.Errorf("clear garments: %w", err)
	}
	return nil
}

func scanGarment(scan func(dest ...any) error) (domain.Garment, error) {
	var (
		g          domain.Garment
		sub        sql.NullString
		imagesJSON sql.NullString
		rating     sql.NullFloat64
		reviews    sql.NullInt64
	)
	if err := scan(&g.ID, &g.Name, &g.Price, &g.Category, &sub, &g.Image, &imagesJSON, &g.Description, &rating, &reviews); err != nil {
		return domain.Garment{}, err
	}
	g.SubCategory = sub.String
	g.Rating = rating.Float64
	g.Reviews = int(reviews.Int64)
	if imagesJSON.Valid && imagesJSON.String != "" {
		if err := json.Unmarshal([]byte(imagesJSON.String), &g.Images); err != nil {
			return domain.Garment{}, fmt.Errorf("decode images for %s: %w", g.ID, err)
		}
	}
	return g, nil
}
