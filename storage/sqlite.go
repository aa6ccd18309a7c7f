package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"bike-rental/rental"
)

// SQLite keeps the store in a SQLite file: one row per bike and per loan plus
// a meta table for the allocator and preferences.
type SQLite struct {
	db *sql.DB

	insertBikeStmt *sql.Stmt
	insertLoanStmt *sql.Stmt
	upsertMetaStmt *sql.Stmt
}

// NewSQLite opens (or creates) the database at dbPath, applies schema
// migrations and prepares common statements.
func NewSQLite(dbPath string) (*SQLite, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}
	if err := s.prepareStatements(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases prepared statements and closes the DB.
func (s *SQLite) Close() error {
	for _, st := range []*sql.Stmt{s.insertBikeStmt, s.insertLoanStmt, s.upsertMetaStmt} {
		if st != nil {
			st.Close()
		}
	}
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

const (
	metaSchemaVersion  = "schema_version"
	metaSavedAt        = "saved_at"
	metaLastLoanID     = "last_loan_id"
	metaPasswordDigest = "password_digest"
	metaSalt           = "salt"
	metaEmail          = "email"
)

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bikes (
            position INTEGER PRIMARY KEY,
            name TEXT NOT NULL UNIQUE
        );`,
		`CREATE TABLE IF NOT EXISTS loans (
            position INTEGER PRIMARY KEY,
            id INTEGER NOT NULL,
            name TEXT NOT NULL,
            nric TEXT NOT NULL,
            phone TEXT NOT NULL,
            email TEXT NOT NULL,
            bike TEXT NOT NULL,
            rate REAL NOT NULL,
            start_time TEXT NOT NULL,
            end_time TEXT,
            status TEXT NOT NULL,
            tags TEXT NOT NULL DEFAULT '[]'
        );`,
		`CREATE INDEX IF NOT EXISTS idx_loans_id ON loans(id);`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES(?,?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, metaSchemaVersion, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (s *SQLite) prepareStatements() error {
	var err error
	if s.insertBikeStmt, err = s.db.Prepare(`INSERT INTO bikes(position,name) VALUES(?,?)`); err != nil {
		return err
	}
	if s.insertLoanStmt, err = s.db.Prepare(`INSERT INTO loans(position,id,name,nric,phone,email,bike,rate,start_time,end_time,status,tags)
        VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	if s.upsertMetaStmt, err = s.db.Prepare(`INSERT INTO meta(key,value) VALUES(?,?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Save / Load
// ---------------------------------------------------------------------------

// Save rewrites both tables and the meta keys in one transaction.
func (s *SQLite) Save(ctx context.Context, snap rental.Snapshot, prefs rental.Prefs) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM loans`); err != nil {
		return fmt.Errorf("clear loans: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bikes`); err != nil {
		return fmt.Errorf("clear bikes: %w", err)
	}

	insertBike := tx.StmtContext(ctx, s.insertBikeStmt)
	for i, b := range snap.Bikes {
		if _, err := insertBike.ExecContext(ctx, i, b.Name); err != nil {
			return fmt.Errorf("insert bike %s: %w", b.Name, err)
		}
	}

	insertLoan := tx.StmtContext(ctx, s.insertLoanStmt)
	for i, l := range snap.Loans {
		tags, err := json.Marshal(l.Tags)
		if err != nil {
			return err
		}
		var end sql.NullString
		if l.EndTime != nil {
			end = sql.NullString{String: l.EndTime.UTC().Format(time.RFC3339Nano), Valid: true}
		}
		if _, err := insertLoan.ExecContext(ctx, i, l.ID, l.Name, l.NRIC, l.Phone, l.Email, l.Bike, l.Rate,
			l.StartTime.UTC().Format(time.RFC3339Nano), end, string(l.Status), string(tags)); err != nil {
			return fmt.Errorf("insert loan %d: %w", l.ID, err)
		}
	}

	lastID := ""
	if snap.LastLoanID != nil {
		lastID = strconv.Itoa(*snap.LastLoanID)
	}
	upsert := tx.StmtContext(ctx, s.upsertMetaStmt)
	for _, kv := range [][2]string{
		{metaLastLoanID, lastID},
		{metaPasswordDigest, prefs.PasswordDigest},
		{metaSalt, prefs.Salt},
		{metaEmail, prefs.Email},
		{metaSavedAt, time.Now().UTC().Format(time.RFC3339Nano)},
	} {
		if _, err := upsert.ExecContext(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("upsert %s: %w", kv[0], err)
		}
	}
	return tx.Commit()
}

// Load reads the last saved state.
func (s *SQLite) Load(ctx context.Context) (rental.Snapshot, rental.Prefs, bool, error) {
	meta, err := s.readMeta(ctx)
	if err != nil {
		return rental.Snapshot{}, rental.Prefs{}, false, err
	}
	if _, saved := meta[metaSavedAt]; !saved {
		return rental.Snapshot{}, rental.Prefs{}, false, nil
	}

	var snap rental.Snapshot
	if v := meta[metaLastLoanID]; v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return rental.Snapshot{}, rental.Prefs{}, false, fmt.Errorf("%w: last loan id %q", ErrCorrupt, v)
		}
		snap.LastLoanID = &id
	}
	if snap.Bikes, err = s.loadBikes(ctx); err != nil {
		return rental.Snapshot{}, rental.Prefs{}, false, err
	}
	if snap.Loans, err = s.loadLoans(ctx); err != nil {
		return rental.Snapshot{}, rental.Prefs{}, false, err
	}
	prefs := rental.Prefs{
		PasswordDigest: meta[metaPasswordDigest],
		Salt:           meta[metaSalt],
		Email:          meta[metaEmail],
	}
	return snap, prefs, true, nil
}

func (s *SQLite) readMeta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, COALESCE(value,'') FROM meta`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

func (s *SQLite) loadBikes(ctx context.Context) ([]rental.Bike, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM bikes ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bikes []rental.Bike
	for rows.Next() {
		var b rental.Bike
		if err := rows.Scan(&b.Name); err != nil {
			return nil, err
		}
		bikes = append(bikes, b)
	}
	return bikes, rows.Err()
}

func (s *SQLite) loadLoans(ctx context.Context) ([]rental.Loan, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,nric,phone,email,bike,rate,start_time,end_time,status,tags
        FROM loans ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []rental.Loan
	for rows.Next() {
		var (
			l         rental.Loan
			start     string
			end       sql.NullString
			status    string
			tagsBytes string
		)
		if err := rows.Scan(&l.ID, &l.Name, &l.NRIC, &l.Phone, &l.Email, &l.Bike, &l.Rate, &start, &end, &status, &tagsBytes); err != nil {
			return nil, err
		}
		if l.StartTime, err = time.Parse(time.RFC3339Nano, start); err != nil {
			return nil, fmt.Errorf("%w: loan %d start time: %v", ErrCorrupt, l.ID, err)
		}
		if end.Valid {
			t, err := time.Parse(time.RFC3339Nano, end.String)
			if err != nil {
				return nil, fmt.Errorf("%w: loan %d end time: %v", ErrCorrupt, l.ID, err)
			}
			l.EndTime = &t
		}
		l.Status = rental.LoanStatus(status)
		if err := json.Unmarshal([]byte(tagsBytes), &l.Tags); err != nil {
			return nil, fmt.Errorf("%w: loan %d tags: %v", ErrCorrupt, l.ID, err)
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}
