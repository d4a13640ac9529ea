package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"cetpredict/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS sources (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  course TEXT NOT NULL,
  shape TEXT NOT NULL,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'ingested',
  pathRef TEXT NOT NULL,
  recordedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(name)
);

CREATE TABLE IF NOT EXISTS cutoffs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sourceId INTEGER NOT NULL,
  course TEXT NOT NULL,
  collegeCode TEXT NOT NULL DEFAULT '',
  collegeName TEXT NOT NULL DEFAULT '',
  branch TEXT NOT NULL,
  category TEXT NOT NULL,
  cutoffRank INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(sourceId, collegeCode, branch, category),
  FOREIGN KEY(sourceId) REFERENCES sources(id)
);
CREATE INDEX IF NOT EXISTS idx_cutoffs_category ON cutoffs(category);
CREATE INDEX IF NOT EXISTS idx_cutoffs_course ON cutoffs(course);

CREATE TABLE IF NOT EXISTS branch_names (
  code TEXT PRIMARY KEY,
  fullName TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS circulars (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  sourceId INTEGER,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(sourceId) REFERENCES sources(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertSource(name, course, shape, hash, pathRef, status string) (internal.SourceRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO sources (name, course, shape, hash, status, pathRef)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
  course=excluded.course,
  shape=excluded.shape,
  hash=excluded.hash,
  status=excluded.status,
  pathRef=excluded.pathRef,
  updatedAt=CURRENT_TIMESTAMP
`, name, course, shape, hash, status, pathRef)
	if err != nil {
		return internal.SourceRow{}, err
	}

	row, err := d.GetSourceByName(name)
	if err != nil {
		return internal.SourceRow{}, err
	}
	if row == nil {
		return internal.SourceRow{}, errors.New("failed to upsert source")
	}
	return *row, nil
}

func (d *DB) GetSourceByName(name string) (*internal.SourceRow, error) {
	var row internal.SourceRow
	err := d.conn.QueryRow(`
SELECT id, name, course, shape, hash, status, pathRef, recordedAt
FROM sources WHERE name = ?
`, name).Scan(&row.ID, &row.Name, &row.Course, &row.Shape, &row.Hash, &row.Status, &row.PathRef, &row.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListSources() ([]internal.SourceRow, error) {
	rows, err := d.conn.Query(`
SELECT id, name, course, shape, hash, status, pathRef, recordedAt
FROM sources ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.SourceRow
	for rows.Next() {
		var row internal.SourceRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Course, &row.Shape, &row.Hash, &row.Status, &row.PathRef, &row.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateSourceStatus(sourceID int, status string) error {
	_, err := d.conn.Exec(`UPDATE sources SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, sourceID)
	return err
}

// ReplaceCutoffs swaps the full record set of one source inside a single
// transaction, so re-ingesting the same source never double-counts.
func (d *DB) ReplaceCutoffs(sourceID int, records []internal.CutoffRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM cutoffs WHERE sourceId = ?`, sourceID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO cutoffs (sourceId, course, collegeCode, collegeName, branch, category, cutoffRank)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(sourceId, collegeCode, branch, category) DO UPDATE SET
  course=excluded.course,
  collegeName=excluded.collegeName,
  cutoffRank=excluded.cutoffRank
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(sourceID, r.Course, r.CollegeCode, r.CollegeName, r.Branch, r.Category, r.CutoffRank); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListCutoffs() ([]internal.CutoffRecord, error) {
	rows, err := d.conn.Query(`
SELECT course, collegeCode, collegeName, branch, category, cutoffRank
FROM cutoffs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CutoffRecord
	for rows.Next() {
		var r internal.CutoffRecord
		if err := rows.Scan(&r.Course, &r.CollegeCode, &r.CollegeName, &r.Branch, &r.Category, &r.CutoffRank); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) UpsertBranchNames(names map[string]string) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO branch_names (code, fullName) VALUES (?, ?)
ON CONFLICT(code) DO UPDATE SET fullName = excluded.fullName, updatedAt = CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for code, full := range names {
		if _, err := stmt.Exec(code, full); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListBranchNames() (map[string]string, error) {
	rows, err := d.conn.Query(`SELECT code, fullName FROM branch_names`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var code, full string
		if err := rows.Scan(&code, &full); err != nil {
			return nil, err
		}
		out[code] = full
	}
	return out, rows.Err()
}

func (d *DB) UpsertCircular(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.CircularRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO circulars (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.CircularRow{}, err
	}

	row, err := d.GetCircularByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.CircularRow{}, err
	}
	if row == nil {
		return internal.CircularRow{}, errors.New("failed to upsert circular")
	}
	return *row, nil
}

func (d *DB) GetCircularByProviderMessageID(provider, messageID string) (*internal.CircularRow, error) {
	var row internal.CircularRow
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM circulars WHERE provider = ? AND messageId = ?
`, provider, messageID).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) MustCircularByProviderMessageID(provider, messageID string) (internal.CircularRow, error) {
	row, err := d.GetCircularByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.CircularRow{}, err
	}
	if row == nil {
		return internal.CircularRow{}, fmt.Errorf("circular not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}

func (d *DB) ListCircularsByStatus(status string, limit int) ([]internal.CircularRow, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM circulars WHERE status = ? ORDER BY receivedAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CircularRow
	for rows.Next() {
		var row internal.CircularRow
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateCircularStatus(circularID int, status string) error {
	_, err := d.conn.Exec(`UPDATE circulars SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, circularID)
	return err
}

func (d *DB) InsertRun(traceID string, sourceID int, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, sourceId, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, sourceID, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
