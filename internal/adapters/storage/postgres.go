package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jsamuelsen/quotegen/internal/platform/config"
)

// kvEntry is one row of the key-value table.
type kvEntry struct {
	Key       string    `gorm:"primaryKey;type:text"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// PostgresStore keeps each key as a row in a PostgreSQL table.
// Set is a single-statement upsert.
type PostgresStore struct {
	db    *gorm.DB
	table string
}

// NewPostgresStore connects with cfg.DSN, sizes the pool, and creates the
// table when cfg.AutoMigrate is set.
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is required")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: newGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	return newPostgresStore(ctx, db, cfg)
}

func newPostgresStore(ctx context.Context, db *gorm.DB, cfg config.PostgresConfig) (*PostgresStore, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("retrieving sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	table := cfg.Table
	if table == "" {
		table = "kv_entries"
	}

	s := &PostgresStore{db: db, table: table}

	if cfg.AutoMigrate {
		if err := s.db.WithContext(ctx).Table(table).AutoMigrate(&kvEntry{}); err != nil {
			return nil, fmt.Errorf("migrating %s: %w", table, err)
		}
	}

	return s, nil
}

// Get implements ports.KeyValueStore.
func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry kvEntry

	err := s.db.WithContext(ctx).Table(s.table).Where("key = ?", key).Take(&entry).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("selecting %q: %w", key, err)
	}

	return entry.Value, true, nil
}

// Set implements ports.KeyValueStore.
func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	entry := kvEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}

	err := s.db.WithContext(ctx).Table(s.table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("upserting %q: %w", key, err)
	}

	return nil
}

// Name implements ports.HealthChecker.
func (s *PostgresStore) Name() string { return "storage-postgres" }

// Check implements ports.HealthChecker.
func (s *PostgresStore) Check(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("retrieving sql.DB: %w", err)
	}

	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("retrieving sql.DB: %w", err)
	}

	return sqlDB.Close()
}

// gormLogger routes GORM logs through slog.
type gormLogger struct {
	logger        *slog.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

const gormSlowQueryThreshold = 200 * time.Millisecond

func newGormLogger(logger *slog.Logger) gormlogger.Interface {
	if logger == nil {
		logger = slog.Default()
	}

	return &gormLogger{
		logger:        logger.With(slog.String("component", "storage.postgres")),
		level:         gormlogger.Warn,
		slowThreshold: gormSlowQueryThreshold,
	}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level

	return &clone
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.logger.ErrorContext(ctx, "query failed",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err),
		)
	case elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logger.WarnContext(ctx, "slow query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.logger.DebugContext(ctx, "query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	}
}
