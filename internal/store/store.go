// Package store persists verse records in SQLite for lookup, listing,
// and search. It sits behind the core/sqlite facade so the driver can be
// swapped between the pure Go and CGO implementations at build time.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vedakosh/rigveda/core/errors"
	"github.com/vedakosh/rigveda/core/record"
	"github.com/vedakosh/rigveda/core/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id              TEXT PRIMARY KEY,
	mandala         INTEGER NOT NULL,
	sukta           INTEGER NOT NULL,
	verse_index     INTEGER NOT NULL,
	verse_id        TEXT NOT NULL,
	deity           TEXT,
	rishi           TEXT,
	sanskrit        TEXT NOT NULL,
	transliteration TEXT,
	translation     TEXT,
	metre           TEXT,
	padas           TEXT NOT NULL DEFAULT '[]',
	source_file     TEXT NOT NULL,
	page_number     INTEGER,
	notes           TEXT,
	UNIQUE(mandala, sukta, verse_index, source_file)
);
CREATE INDEX IF NOT EXISTS idx_records_coords ON records(mandala, sukta, verse_index);
CREATE INDEX IF NOT EXISTS idx_records_deity  ON records(deity);
`

const recordColumns = `id, mandala, sukta, verse_index, verse_id, deity, rishi,
	sanskrit, transliteration, translation, metre, padas, source_file,
	page_number, notes`

// Store is a SQLite-backed verse record repository.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) a record store at path and ensures
// the schema exists.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, &errors.IOError{Operation: "open", Path: path, Err: err}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &errors.IOError{Operation: "migrate", Path: path, Err: err}
	}
	return &Store{db: db, path: path}, nil
}

// OpenReadOnly opens an existing store without write access.
func OpenReadOnly(path string) (*Store, error) {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, &errors.IOError{Operation: "open", Path: path, Err: err}
	}
	return &Store{db: db, path: path}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Load inserts records in a single transaction. A unique constraint hit
// maps to ErrDuplicate; the transaction rolls back as a whole.
func (s *Store) Load(records []*record.Record) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, errors.Wrap(err, "preparing insert")
	}
	defer stmt.Close()

	for _, r := range records {
		padas, err := json.Marshal(r.Padas)
		if err != nil {
			return 0, errors.Wrapf(err, "encoding padas for %s", r.ID)
		}
		_, err = stmt.Exec(
			r.ID, r.Mandala, r.Sukta, r.VerseIndex, r.VerseID,
			r.Deity, r.Rishi, r.Sanskrit, r.Transliteration,
			r.Translation, r.Metre, string(padas), r.SourceFile,
			r.PageNumber, r.Notes,
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE") {
				return 0, errors.Wrapf(errors.ErrDuplicate, "record %s already stored", r.ID)
			}
			return 0, errors.Wrapf(err, "inserting %s", r.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing load")
	}
	return len(records), nil
}

// Reset deletes all stored records.
func (s *Store) Reset() error {
	if _, err := s.db.Exec(`DELETE FROM records`); err != nil {
		return errors.Wrap(err, "clearing records")
	}
	return nil
}

// Get looks up a record by canonical identifier.
func (s *Store) Get(id string) (*record.Record, error) {
	row := s.db.QueryRow(`SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, &errors.NotFoundError{Resource: "record", ID: id}
	}
	return rec, err
}

// GetRef looks up a record by coordinate triple.
func (s *Store) GetRef(ref record.Ref) (*record.Record, error) {
	return s.Get(ref.ID())
}

// Filter narrows a listing. Zero values mean no constraint; Limit 0
// means no limit.
type Filter struct {
	Mandala int
	Sukta   int
	Deity   string
	Limit   int
	Offset  int
}

// List returns records matching the filter, ordered by coordinates.
func (s *Store) List(f Filter) ([]*record.Record, error) {
	var (
		where []string
		args  []any
	)
	if f.Mandala > 0 {
		where = append(where, "mandala = ?")
		args = append(args, f.Mandala)
	}
	if f.Sukta > 0 {
		where = append(where, "sukta = ?")
		args = append(args, f.Sukta)
	}
	if f.Deity != "" {
		where = append(where, "deity = ?")
		args = append(args, f.Deity)
	}

	query := `SELECT ` + recordColumns + ` FROM records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY mandala, sukta, verse_index"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, f.Offset)
		}
	}

	return s.queryRecords(query, args...)
}

// Search finds records whose sanskrit or translation contains the
// query substring, ordered by coordinates.
func (s *Store) Search(q string, limit int) ([]*record.Record, error) {
	if strings.TrimSpace(q) == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "empty search query")
	}
	pattern := "%" + escapeLike(q) + "%"
	query := `SELECT ` + recordColumns + ` FROM records
		WHERE sanskrit LIKE ? ESCAPE '\' OR translation LIKE ? ESCAPE '\'
		ORDER BY mandala, sukta, verse_index`
	args := []any{pattern, pattern}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryRecords(query, args...)
}

// MandalaStats summarizes one mandala's stored records.
type MandalaStats struct {
	Mandala    int `json:"mandala"`
	Verses     int `json:"verses"`
	Suktas     int `json:"suktas"`
	Translated int `json:"translated"`
}

// Stats describes the whole store.
type Stats struct {
	Records    int            `json:"records"`
	Translated int            `json:"translated"`
	ByMandala  []MandalaStats `json:"by_mandala"`
	Driver     sqlite.Info    `json:"driver"`
}

// Stats computes per-mandala counts and translation coverage.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{Driver: sqlite.GetInfo()}

	rows, err := s.db.Query(`SELECT mandala, COUNT(*), COUNT(DISTINCT sukta),
			COUNT(translation)
		FROM records GROUP BY mandala ORDER BY mandala`)
	if err != nil {
		return nil, errors.Wrap(err, "querying stats")
	}
	defer rows.Close()

	for rows.Next() {
		var m MandalaStats
		if err := rows.Scan(&m.Mandala, &m.Verses, &m.Suktas, &m.Translated); err != nil {
			return nil, errors.Wrap(err, "scanning stats row")
		}
		stats.ByMandala = append(stats.ByMandala, m)
		stats.Records += m.Verses
		stats.Translated += m.Translated
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "reading stats rows")
	}
	return stats, nil
}

func (s *Store) queryRecords(query string, args ...any) ([]*record.Record, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	defer rows.Close()

	var records []*record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "reading record rows")
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*record.Record, error) {
	var (
		rec   record.Record
		padas string
	)
	err := row.Scan(
		&rec.ID, &rec.Mandala, &rec.Sukta, &rec.VerseIndex, &rec.VerseID,
		&rec.Deity, &rec.Rishi, &rec.Sanskrit, &rec.Transliteration,
		&rec.Translation, &rec.Metre, &padas, &rec.SourceFile,
		&rec.PageNumber, &rec.Notes,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(padas), &rec.Padas); err != nil {
		return nil, fmt.Errorf("decoding padas for %s: %w", rec.ID, err)
	}
	return &rec, nil
}

// escapeLike quotes LIKE metacharacters in user queries.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
