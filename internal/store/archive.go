// Package store archives completed laps. The archive is write-behind
// history for the HTTP API; the live leaderboard never reads from it.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

var ErrUnsupportedDSN = errors.New("unsupported archive dsn")

const (
	DefaultQueueSize = 256
	DefaultListLimit = 50
	MaxListLimit     = 1000
)

type LapRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PlayerUUID string    `gorm:"size:36;index" json:"uuid"`
	Name       string    `json:"name"`
	LapTime    float64   `json:"lapTime"`
	Track      string    `gorm:"size:32;index" json:"trackType"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Open connects to the archive database. postgres:// and postgresql:// DSNs
// use Postgres, sqlite:<path> uses SQLite; "sqlite::memory:" is in-memory.
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), cfg)
	case strings.HasPrefix(dsn, "sqlite:"):
		path := strings.TrimPrefix(dsn, "sqlite:")
		if path == "" || path == ":memory:" {
			path = "file::memory:?cache=shared"
		}
		return gorm.Open(sqlite.Open(path), cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDSN, dsn)
	}
}

type Archive struct {
	db    *gorm.DB
	track types.TrackType
	queue chan LapRecord
	log   *zap.Logger
}

func NewArchive(db *gorm.DB, track types.TrackType, log *zap.Logger, queueSize int) (*Archive, error) {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if err := db.AutoMigrate(&LapRecord{}); err != nil {
		return nil, fmt.Errorf("migrate lap archive: %w", err)
	}
	return &Archive{
		db:    db,
		track: track,
		queue: make(chan LapRecord, queueSize),
		log:   log.Named("archive"),
	}, nil
}

// Record queues a lap for writing. It never blocks; a full queue drops the lap.
func (a *Archive) Record(playerUUID, name string, lapTime float64) {
	rec := LapRecord{
		PlayerUUID: playerUUID,
		Name:       name,
		LapTime:    lapTime,
		Track:      string(a.track),
		CreatedAt:  time.Now().UTC(),
	}
	select {
	case a.queue <- rec:
	default:
		a.log.Warn("archive queue full, lap dropped",
			zap.String("uuid", playerUUID),
			zap.Float64("lapTime", lapTime))
	}
}

// Run writes queued laps until ctx is done, then flushes what is still queued.
func (a *Archive) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return a.flush()
		case rec := <-a.queue:
			if err := a.db.WithContext(ctx).Create(&rec).Error; err != nil {
				a.log.Error("write lap", zap.String("uuid", rec.PlayerUUID), zap.Error(err))
			}
		}
	}
}

func (a *Archive) flush() error {
	var errs error
	for {
		select {
		case rec := <-a.queue:
			errs = multierr.Append(errs, a.db.Create(&rec).Error)
		default:
			return errs
		}
	}
}

// List returns the most recent laps, newest first.
func (a *Archive) List(ctx context.Context, limit int) ([]LapRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	var out []LapRecord
	err := a.db.WithContext(ctx).
		Order("created_at desc").Order("id desc").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list laps: %w", err)
	}
	return out, nil
}

func (a *Archive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
