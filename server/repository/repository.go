package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/ponyo877/roomwatch/server/domain"
	"github.com/ponyo877/roomwatch/server/usecase"
)

// DriverName is the sqlite driver with the regexp() function registered.
const DriverName = "sqlite3_with_go_func"

const defaultLimit = 100

// ErrNotFound はリソースが見つからない場合のエラーです。
var ErrNotFound = errors.New("not found")

var registerOnce sync.Once

func regex(re, s string) (bool, error) {
	return regexp.MatchString(re, s)
}

// Open opens (and migrates) the journal database at path.
func Open(path string) (*sql.DB, error) {
	registerOnce.Do(func() {
		sql.Register(DriverName,
			&sqlite3.SQLiteDriver{
				ConnectHook: func(conn *sqlite3.SQLiteConn) error {
					return conn.RegisterFunc("regexp", regex, true)
				},
			})
	})
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func Migrate(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS journal (
			id         TEXT PRIMARY KEY,
			kiosk      TEXT NOT NULL,
			kind       TEXT NOT NULL,
			room_id    INTEGER NOT NULL DEFAULT 0,
			body       TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS journal_kiosk_idx ON journal (kiosk, created_at);
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to migrate journal: %w", err)
	}
	return nil
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) usecase.Repository {
	return &Repository{db: db}
}

// CreateEntry stores entry, assigning a ULID when it has no id.
func (r *Repository) CreateEntry(entry domain.JournalEntry) (domain.JournalEntry, error) {
	if entry.ID == "" {
		entry.ID = ulid.Make().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	query := "INSERT INTO journal (id, kiosk, kind, room_id, body, created_at) VALUES (?, ?, ?, ?, ?, ?)"
	if _, err := r.db.Exec(query, entry.ID, entry.Kiosk, string(entry.Kind), entry.RoomID, entry.Body, entry.CreatedAt.UTC()); err != nil {
		return domain.JournalEntry{}, fmt.Errorf("failed to insert %s entry for '%s': %w", entry.Kind, entry.Kiosk, err)
	}
	return entry, nil
}

func (r *Repository) GetEntry(id string) (domain.JournalEntry, error) {
	query := "SELECT id, kiosk, kind, room_id, body, created_at FROM journal WHERE id = ?"
	entry, err := scanEntry(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.JournalEntry{}, ErrNotFound
		}
		return domain.JournalEntry{}, fmt.Errorf("error querying entry: %w", err)
	}
	return entry, nil
}

// ListEntries returns the newest entries first; an empty kiosk lists all.
func (r *Repository) ListEntries(kiosk string, limit int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	query := "SELECT id, kiosk, kind, room_id, body, created_at FROM journal WHERE (? = '' OR kiosk = ?) ORDER BY id DESC LIMIT ?"
	rows, err := r.db.Query(query, kiosk, kiosk, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal for '%s': %w", kiosk, err)
	}
	defer rows.Close()
	return collect(rows)
}

// SearchEntries matches pattern against entry bodies with the registered
// regexp function.
func (r *Repository) SearchEntries(pattern string, limit int) ([]domain.JournalEntry, error) {
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	query := "SELECT id, kiosk, kind, room_id, body, created_at FROM journal WHERE body REGEXP ? ORDER BY id DESC LIMIT ?"
	rows, err := r.db.Query(query, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search for query '%s': %w", pattern, err)
	}
	defer rows.Close()
	return collect(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (domain.JournalEntry, error) {
	var id, kiosk, kind, body string
	var roomID int
	var createdAt time.Time
	if err := s.Scan(&id, &kiosk, &kind, &roomID, &body, &createdAt); err != nil {
		return domain.JournalEntry{}, err
	}
	return domain.NewJournalEntry(id, kiosk, domain.EntryKind(kind), roomID, body, createdAt), nil
}

func collect(rows *sql.Rows) ([]domain.JournalEntry, error) {
	entries := []domain.JournalEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over journal: %w", err)
	}
	return entries, nil
}
