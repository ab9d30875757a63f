// Package ledger keeps a durable record of every pipeline run and what it
// spent, backed by GORM on SQLite.
package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/cost"
	"github.com/hyperifyio/postforge/internal/pipeline"
)

// Record is one pipeline run. Cache hits are recorded with zero spend.
type Record struct {
	ID            string    `gorm:"type:TEXT NOT NULL;primaryKey" json:"id"`
	CreatedAt     time.Time `gorm:"type:DATETIME NOT NULL;index" json:"created_at"`
	Operation     string    `gorm:"type:TEXT NOT NULL;index" json:"operation"`
	SourceKind    string    `gorm:"type:TEXT NOT NULL" json:"source_kind"`
	Identifier    string    `gorm:"type:TEXT" json:"identifier,omitempty"`
	ContentType   string    `gorm:"type:TEXT" json:"content_type"`
	NumUnits      int       `gorm:"type:INTEGER" json:"num_tweets"`
	Premium       bool      `json:"is_premium"`
	GenerateImage bool      `json:"generate_image"`
	CacheHit      bool      `json:"cache_hit"`
	ErrorKind     string    `gorm:"type:TEXT" json:"error_kind,omitempty"`
	Posts         int       `gorm:"type:INTEGER" json:"posts"`
	InputTokens   int       `gorm:"type:INTEGER" json:"input_tokens"`
	OutputTokens  int       `gorm:"type:INTEGER" json:"output_tokens"`
	Images        int       `gorm:"type:INTEGER" json:"images"`
	TotalCost     float64   `gorm:"type:REAL" json:"total_cost"`
	Estimated     bool      `json:"cost_estimated"`
	DurationMS    int64     `gorm:"type:INTEGER" json:"duration_ms"`
}

// TableName implements the GORM tabler interface.
func (Record) TableName() string { return "runs" }

// Ledger writes and aggregates run records.
type Ledger struct {
	DB *gorm.DB
}

// Open opens (or creates) the SQLite ledger at path and migrates the schema.
// The parent directory is created when missing.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ledger dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA busy_timeout=5000;")
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(4)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}
	return New(db)
}

// New wraps an open database and migrates the schema.
func New(db *gorm.DB) (*Ledger, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return &Ledger{DB: db}, nil
}

// Close releases the underlying connection pool.
func (l *Ledger) Close() error {
	sqlDB, err := l.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Add stores rec, assigning an ID when empty.
func (l *Ledger) Add(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return l.DB.WithContext(ctx).Create(rec).Error
}

// Observe records a finished run. Write errors are logged; the ledger never
// fails a request.
func (l *Ledger) Observe(ctx context.Context, ev pipeline.Event) {
	rec := FromEvent(ev)
	if err := l.Add(ctx, &rec); err != nil {
		log.Warn().Err(err).Str("operation", ev.Operation).Msg("ledger write failed")
	}
}

// FromEvent converts a pipeline event into a record.
func FromEvent(ev pipeline.Event) Record {
	rec := Record{
		CreatedAt:     ev.At.UTC(),
		Operation:     ev.Operation,
		SourceKind:    string(ev.Kind),
		ContentType:   string(ev.Request.ContentType),
		NumUnits:      ev.Request.NumUnits,
		Premium:       ev.Request.Premium,
		GenerateImage: ev.Request.GenerateImage,
		CacheHit:      ev.CacheHit,
		DurationMS:    ev.Duration.Milliseconds(),
	}
	if ev.Err != nil {
		rec.ErrorKind = content.KindOf(ev.Err).String()
	}
	if resp := ev.Response; resp != nil {
		rec.Identifier = resp.Source.Identifier
		rec.Posts = len(resp.Posts)
		if !ev.CacheHit {
			rec.TotalCost = resp.Cost.TotalCost
			rec.Estimated = resp.Estimated
			if t := resp.Cost.Tokens; t != nil {
				rec.InputTokens = t.InputTokens
				rec.OutputTokens = t.OutputTokens
			}
			if im := resp.Cost.Images; im != nil {
				rec.Images = im.Generated
			}
		}
	}
	return rec
}

// OperationTotals aggregates the runs of one operation.
type OperationTotals struct {
	Operation    string  `json:"operation"`
	Requests     int64   `json:"requests"`
	CacheHits    int64   `json:"cache_hits"`
	Failures     int64   `json:"failures"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Images       int64   `json:"images"`
	TotalCost    float64 `json:"total_cost"`
}

// Summary is spend and volume since a point in time.
type Summary struct {
	Since      time.Time         `json:"since"`
	Requests   int64             `json:"requests"`
	CacheHits  int64             `json:"cache_hits"`
	Failures   int64             `json:"failures"`
	TotalCost  float64           `json:"total_cost"`
	Operations []OperationTotals `json:"operations"`
}

// Summarize aggregates every run at or after since, grouped by operation.
func (l *Ledger) Summarize(ctx context.Context, since time.Time) (Summary, error) {
	var rows []OperationTotals
	err := l.DB.WithContext(ctx).Model(&Record{}).
		Select(`operation,
			COUNT(*) AS requests,
			SUM(CASE WHEN cache_hit THEN 1 ELSE 0 END) AS cache_hits,
			SUM(CASE WHEN error_kind <> '' THEN 1 ELSE 0 END) AS failures,
			COALESCE(SUM(input_tokens), 0) AS input_tokens,
			COALESCE(SUM(output_tokens), 0) AS output_tokens,
			COALESCE(SUM(images), 0) AS images,
			COALESCE(SUM(total_cost), 0) AS total_cost`).
		Where("created_at >= ?", since.UTC()).
		Group("operation").
		Order("operation").
		Scan(&rows).Error
	if err != nil {
		return Summary{}, fmt.Errorf("summarize ledger: %w", err)
	}
	s := Summary{Since: since.UTC(), Operations: rows}
	for _, r := range rows {
		s.Requests += r.Requests
		s.CacheHits += r.CacheHits
		s.Failures += r.Failures
		s.TotalCost += r.TotalCost
	}
	s.TotalCost = cost.Round(s.TotalCost)
	return s, nil
}

// Recent returns the newest records, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var out []Record
	err := l.DB.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// Purge deletes records older than before and returns how many went.
func (l *Ledger) Purge(ctx context.Context, before time.Time) (int64, error) {
	res := l.DB.WithContext(ctx).Where("created_at < ?", before.UTC()).Delete(&Record{})
	return res.RowsAffected, res.Error
}
