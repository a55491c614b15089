package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/xyzmos/hass-weather-baidu/internal/common"
	"github.com/xyzmos/hass-weather-baidu/internal/entry"
)

// SQLiteStore persists config entries in a local sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and applies the schema.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL for better concurrency on small writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		logrus.WithError(err).Warn("could not set WAL mode")
	}

	schema := `CREATE TABLE IF NOT EXISTS entries (
        id TEXT PRIMARY KEY,
        unique_key TEXT NOT NULL UNIQUE,
        title TEXT,
        ak TEXT NOT NULL,
        mode TEXT NOT NULL,
        province TEXT,
        city TEXT,
        district TEXT,
        district_id TEXT,
        latitude REAL,
        longitude REAL,
        location_name TEXT,
        interval_seconds INTEGER NOT NULL,
        created_at TEXT NOT NULL
    );`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// Save inserts a new entry. An entry for the same resolved location is
// rejected with entry.ErrDuplicate.
func (s *SQLiteStore) Save(e entry.Entry) error {
	_, err := s.db.Exec(
		`INSERT INTO entries(id, unique_key, title, ak, mode, province, city, district, district_id,
            latitude, longitude, location_name, interval_seconds, created_at)
         VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.UniqueKey(), e.Title, e.APIKey, string(e.Mode),
		e.Province, e.City, e.District, e.DistrictID,
		e.Latitude, e.Longitude, e.LocationName, e.IntervalSeconds,
		e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil && common.HasAny(err.Error(), "UNIQUE constraint failed", "constraint failed: entries.unique_key") {
		return entry.ErrDuplicate
	}
	return err
}

// Get returns the entry with the given ID.
func (s *SQLiteStore) Get(id string) (entry.Entry, error) {
	row := s.db.QueryRow(
		`SELECT id, title, ak, mode, province, city, district, district_id,
            latitude, longitude, location_name, interval_seconds, created_at
         FROM entries WHERE id = ?`, id)
	return scanEntry(row)
}

// List returns all configured entries ordered by creation time.
func (s *SQLiteStore) List() ([]entry.Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, title, ak, mode, province, city, district, district_id,
            latitude, longitude, location_name, interval_seconds, created_at
         FROM entries ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entry.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateInterval changes the poll interval override of an entry.
func (s *SQLiteStore) UpdateInterval(id string, seconds int) error {
	res, err := s.db.Exec(`UPDATE entries SET interval_seconds = ? WHERE id = ?`, seconds, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entry.ErrNotFound
	}
	return nil
}

// Delete removes an entry.
func (s *SQLiteStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entry.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (entry.Entry, error) {
	var e entry.Entry
	var mode, createdAt string
	err := row.Scan(&e.ID, &e.Title, &e.APIKey, &mode, &e.Province, &e.City,
		&e.District, &e.DistrictID, &e.Latitude, &e.Longitude,
		&e.LocationName, &e.IntervalSeconds, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return entry.Entry{}, entry.ErrNotFound
	}
	if err != nil {
		return entry.Entry{}, err
	}
	e.Mode = entry.Mode(mode)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		e.CreatedAt = t
	}
	return e, nil
}
