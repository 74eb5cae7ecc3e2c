package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Record is one session row.
type Record struct {
	ID        string `gorm:"column:id;primaryKey;type:varchar(128)"`
	Data      []byte `gorm:"column:data"`
	Timestamp int64  `gorm:"column:timestamp"`
}

// TableName is used when the model is queried without an explicit table.
func (Record) TableName() string {
	return DefaultTable
}

// Store implements ports.StorageDriver on a SQL table through GORM.
// It supports both SQLite and PostgreSQL via the same codebase.
type Store struct {
	db    *gorm.DB
	table string
	now   func() time.Time
	owned bool
}

type Option func(*Store)

// WithTable overrides the session table name.
func WithTable(table string) Option {
	return func(s *Store) {
		if table != "" {
			s.table = table
		}
	}
}

// WithClock overrides the time source used for row timestamps and GC.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewFromDB creates a Store over a ready-made GORM handle.
func NewFromDB(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:    db,
		table: DefaultTable,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// New validates the configuration and connects.
// Missing keys are reported as a domain.ConfigError before any connection attempt.
func New(cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dialect, err := cfg.ResolveDialect()
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch dialect {
	case DialectSQLite:
		dialector = sqlite.Open(cfg.connString(dialect))
	case DialectPostgres:
		dialector = postgres.Open(cfg.connString(dialect))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Table != "" {
		opts = append([]Option{WithTable(cfg.Table)}, opts...)
	}
	s := NewFromDB(db, opts...)
	s.owned = true
	return s, nil
}

// DB returns the underlying GORM handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Table returns the session table name.
func (s *Store) Table() string {
	return s.table
}

func (s *Store) rows(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.table)
}

// Setup creates the session table if it does not exist. An existing table is left as it is.
func (s *Store) Setup(ctx context.Context) error {
	m := s.rows(ctx).Migrator()
	if m.HasTable(&Record{}) {
		return nil
	}
	if err := m.CreateTable(&Record{}); err != nil {
		return fmt.Errorf("failed to create session table: %w", err)
	}
	return nil
}

func (s *Store) Open(ctx context.Context, savePath, name string) error { return nil }

func (s *Store) Close(ctx context.Context) error { return nil }

// Read returns the stored payload, or an empty payload when the row does not exist.
func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	var rec Record
	err := s.rows(ctx).Select("data").Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id}).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return rec.Data, nil
}

// Write upserts the row for id, stamping it with the current epoch time.
func (s *Store) Write(ctx context.Context, id string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	rec := Record{ID: id, Data: data, Timestamp: s.now().Unix()}

	err := s.rows(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "timestamp"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Destroy deletes the row for id.
func (s *Store) Destroy(ctx context.Context, id string) error {
	err := s.rows(ctx).Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id}).Delete(&Record{}).Error
	if err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// GC deletes rows whose timestamp is older than now-maxLifetime and returns the affected row count.
func (s *Store) GC(ctx context.Context, maxLifetime time.Duration) (int, error) {
	cutoff := s.now().Add(-maxLifetime).Unix()

	res := s.rows(ctx).Where(clause.Lt{Column: clause.Column{Name: "timestamp"}, Value: cutoff}).Delete(&Record{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to collect expired sessions: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// List returns the IDs of every stored session.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := s.rows(ctx).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Shutdown closes the connection pool if this Store opened it.
// Stores built with NewFromDB leave the caller's handle open.
func (s *Store) Shutdown() error {
	if !s.owned {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}
