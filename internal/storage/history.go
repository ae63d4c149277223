package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pagelens/pagelens/internal/domain"
)

// HistoryRecord is one processed file persisted for later retrieval.
type HistoryRecord struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Text      string    `json:"text"`
	Summary   string    `json:"summary"`
	ImageKey  string    `json:"image_key,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// History records processing results. Implementations may be absent when
// history is disabled, callers must handle a nil History.
type History interface {
	Record(ctx context.Context, rec HistoryRecord) (string, error)
	List(ctx context.Context, limit int) ([]HistoryRecord, error)
	Get(ctx context.Context, id string) (*HistoryRecord, error)
	Close() error
}

const historySchema = `
create table if not exists ocr_results (
	id         text primary key,
	filename   text not null,
	text       text not null,
	summary    text not null,
	image_key  text not null default '',
	error      text not null default '',
	created_at timestamp not null
)`

// SQLHistory stores records in a relational database. Both sqlite3 and
// postgres drivers are supported.
type SQLHistory struct {
	db       *sql.DB
	postgres bool
}

// OpenHistory opens the database for the given driver and dsn and ensures
// the schema exists.
func OpenHistory(ctx context.Context, driver, dsn string) (*SQLHistory, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, domain.StorageError("open history database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, domain.StorageError("ping history database", err)
	}
	if _, err := db.ExecContext(ctx, historySchema); err != nil {
		db.Close()
		return nil, domain.StorageError("create history schema", err)
	}
	return &SQLHistory{db: db, postgres: driver == "postgres"}, nil
}

// rebind rewrites ? placeholders to $n for the postgres driver.
func (h *SQLHistory) rebind(query string) string {
	if !h.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (h *SQLHistory) Record(ctx context.Context, rec HistoryRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := h.db.ExecContext(ctx, h.rebind(`
		insert into ocr_results (id, filename, text, summary, image_key, error, created_at)
		values (?, ?, ?, ?, ?, ?, ?)
	`), rec.ID, rec.Filename, rec.Text, rec.Summary, rec.ImageKey, rec.Error, rec.CreatedAt)
	if err != nil {
		return "", domain.StorageError("insert history record", err)
	}
	return rec.ID, nil
}

func (h *SQLHistory) List(ctx context.Context, limit int) ([]HistoryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx, h.rebind(`
		select id, filename, text, summary, image_key, error, created_at
		from ocr_results
		order by created_at desc
		limit ?
	`), limit)
	if err != nil {
		return nil, domain.StorageError("list history records", err)
	}
	defer rows.Close()

	var out []HistoryRecord
	for rows.Next() {
		var rec HistoryRecord
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.Text, &rec.Summary,
			&rec.ImageKey, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, domain.StorageError("scan history record", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (h *SQLHistory) Get(ctx context.Context, id string) (*HistoryRecord, error) {
	row := h.db.QueryRowContext(ctx, h.rebind(`
		select id, filename, text, summary, image_key, error, created_at
		from ocr_results
		where id = ?
	`), id)

	var rec HistoryRecord
	err := row.Scan(&rec.ID, &rec.Filename, &rec.Text, &rec.Summary,
		&rec.ImageKey, &rec.Error, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, domain.StorageError("scan history record", err)
	}
	return &rec, nil
}

func (h *SQLHistory) Close() error {
	return h.db.Close()
}
