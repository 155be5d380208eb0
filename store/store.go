// Package store checkpoints extracted exhibitor records in SQLite so an
// interrupted run can resume and its rows can be re-exported.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/use-agent/fairscrape/models"
)

// Store is a SQLite-backed record checkpoint.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the store at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, path: path}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS exhibitors (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		contact_person TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		hall_stand TEXT NOT NULL DEFAULT '',
		scraped_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveRecord inserts rec, or replaces the fields of the row with the same
// URL. A replaced row keeps its original position.
func (s *Store) SaveRecord(ctx context.Context, rec *models.ExhibitorRecord) error {
	const q = `
	INSERT INTO exhibitors (url, name, country, contact_person, email, phone, website, address, hall_stand, scraped_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(url) DO UPDATE SET
		name = excluded.name,
		country = excluded.country,
		contact_person = excluded.contact_person,
		email = excluded.email,
		phone = excluded.phone,
		website = excluded.website,
		address = excluded.address,
		hall_stand = excluded.hall_stand,
		scraped_at = excluded.scraped_at`

	if _, err := s.db.ExecContext(ctx, q,
		rec.URL, rec.Name, rec.Country, rec.ContactPerson, rec.Email,
		rec.Phone, rec.Website, rec.Address, rec.HallStand,
	); err != nil {
		return models.NewScrapeError(models.ErrCodeStore, "failed to save record "+rec.URL, err)
	}
	return nil
}

// HasRecord reports whether a record for url is stored.
func (s *Store) HasRecord(ctx context.Context, url string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM exhibitors WHERE url = ?`, url).Scan(&n)
	if err != nil {
		return false, models.NewScrapeError(models.ErrCodeStore, "failed to look up "+url, err)
	}
	return n > 0, nil
}

// Records returns every stored record in first-saved order.
func (s *Store) Records(ctx context.Context) ([]models.ExhibitorRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT url, name, country, contact_person, email, phone, website, address, hall_stand
	FROM exhibitors ORDER BY seq`)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeStore, "failed to read records", err)
	}
	defer rows.Close()

	var records []models.ExhibitorRecord
	for rows.Next() {
		var r models.ExhibitorRecord
		if err := rows.Scan(&r.URL, &r.Name, &r.Country, &r.ContactPerson, &r.Email,
			&r.Phone, &r.Website, &r.Address, &r.HallStand); err != nil {
			return nil, models.NewScrapeError(models.ErrCodeStore, "failed to scan record", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeStore, "failed to read records", err)
	}
	return records, nil
}
