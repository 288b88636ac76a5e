package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"school_points_bot/internal/domain/ledger"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/sirupsen/logrus"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute

	// Advisory lock key shared by every process using this backend, so bot
	// and dashboard serialize their update cycles instead of racing.
	ledgerAdvisoryLockID = 7231001
)

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS students (
    id TEXT PRIMARY KEY,
    full_name TEXT NOT NULL DEFAULT '',
    pin TEXT NOT NULL DEFAULT '',
    class TEXT NOT NULL DEFAULT '',
    age INTEGER NOT NULL DEFAULT 0,
    year INTEGER NOT NULL DEFAULT 0,
    points INTEGER NOT NULL DEFAULT 0,
    CONSTRAINT valid_age CHECK (age >= 0)
);

CREATE TABLE IF NOT EXISTS tg_links (
    chat_id TEXT PRIMARY KEY,
    student_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS admins (
    chat_id TEXT PRIMARY KEY
);
`

// NewPostgresConnection opens and pings a PostgreSQL connection pool.
func NewPostgresConnection(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// PostgresStore is the alternative backend behind the same document
// contract: Load materializes the three tables into a State, Save replaces
// them wholesale in one transaction. Substituting it for the file store
// touches nothing above the Store interface.
type PostgresStore struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *logrus.Entry
}

func NewPostgresStore(db *sql.DB, logger *logrus.Entry) (*PostgresStore, error) {
	if _, err := db.Exec(ledgerSchema); err != nil {
		return nil, fmt.Errorf("error creating ledger schema: %w", err)
	}
	return &PostgresStore{db: db, logger: logger.WithField("component", "postgres_store")}, nil
}

func (s *PostgresStore) Load(ctx context.Context) (*ledger.State, error) {
	return s.loadTx(ctx, s.db)
}

// queryer covers both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) loadTx(ctx context.Context, q queryer) (*ledger.State, error) {
	st := ledger.NewState()

	rows, err := q.QueryContext(ctx, `SELECT id, full_name, pin, class, age, year, points FROM students`)
	if err != nil {
		return nil, fmt.Errorf("error loading students: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		stu := &ledger.Student{}
		if err := rows.Scan(&stu.ID, &stu.FullName, &stu.PIN, &stu.Class, &stu.Age, &stu.Year, &stu.Points); err != nil {
			return nil, fmt.Errorf("error scanning student: %w", err)
		}
		st.Students[stu.ID] = stu
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating students: %w", err)
	}

	linkRows, err := q.QueryContext(ctx, `SELECT chat_id, student_id FROM tg_links`)
	if err != nil {
		return nil, fmt.Errorf("error loading tg links: %w", err)
	}
	defer linkRows.Close()
	for linkRows.Next() {
		var chatID, studentID string
		if err := linkRows.Scan(&chatID, &studentID); err != nil {
			return nil, fmt.Errorf("error scanning tg link: %w", err)
		}
		st.TGLinks[chatID] = studentID
	}
	if err := linkRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tg links: %w", err)
	}

	adminRows, err := q.QueryContext(ctx, `SELECT chat_id FROM admins`)
	if err != nil {
		return nil, fmt.Errorf("error loading admins: %w", err)
	}
	defer adminRows.Close()
	for adminRows.Next() {
		var chatID string
		if err := adminRows.Scan(&chatID); err != nil {
			return nil, fmt.Errorf("error scanning admin: %w", err)
		}
		st.Admins = append(st.Admins, chatID)
	}
	if err := adminRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admins: %w", err)
	}

	return st, nil
}

func (s *PostgresStore) Save(ctx context.Context, st *ledger.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning save transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.replaceTx(ctx, tx, st); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) replaceTx(ctx context.Context, tx *sql.Tx, st *ledger.State) error {
	for _, table := range []string{"students", "tg_links", "admins"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("error clearing %s: %w", table, err)
		}
	}
	for _, id := range st.SortedStudentIDs() {
		stu := st.Students[id]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO students (id, full_name, pin, class, age, year, points) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			stu.ID, stu.FullName, stu.PIN, stu.Class, stu.Age, stu.Year, stu.Points)
		if err != nil {
			return fmt.Errorf("error inserting student %s: %w", stu.ID, err)
		}
	}
	for chatID, studentID := range st.TGLinks {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tg_links (chat_id, student_id) VALUES ($1, $2)`, chatID, studentID)
		if err != nil {
			return fmt.Errorf("error inserting tg link %s: %w", chatID, err)
		}
	}
	for _, chatID := range st.Admins {
		_, err := tx.ExecContext(ctx, `INSERT INTO admins (chat_id) VALUES ($1)`, chatID)
		if err != nil {
			return fmt.Errorf("error inserting admin %s: %w", chatID, err)
		}
	}
	return nil
}

// Update runs load-mutate-save inside one transaction holding the shared
// advisory lock, so concurrent updates from any process using this backend
// apply one at a time.
func (s *PostgresStore) Update(ctx context.Context, mutate func(*ledger.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning update transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerAdvisoryLockID); err != nil {
		return fmt.Errorf("error taking ledger advisory lock: %w", err)
	}

	st, err := s.loadTx(ctx, tx)
	if err != nil {
		return err
	}
	if err := mutate(st); err != nil {
		return err
	}
	if err := s.replaceTx(ctx, tx, st); err != nil {
		return err
	}
	return tx.Commit()
}
