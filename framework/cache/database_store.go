package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is the row model of DatabaseStore.
type Entry struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     []byte
	ExpiresAt int64 `gorm:"index"` // unix milliseconds, 0 = forever
	CreatedAt int64 `gorm:"index"`
}

func (Entry) TableName() string { return "cache_entries" }

// DatabaseStore persists entries through gorm, so it works on every driver
// the database package supports.
type DatabaseStore struct {
	db   *gorm.DB
	opts Options
}

// NewDatabaseStore migrates the cache table and returns the store.
func NewDatabaseStore(db *gorm.DB, opts ...Option) (*DatabaseStore, error) {
	if db == nil {
		return nil, errors.New("cache: nil database")
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &DatabaseStore{db: db, opts: applyOptions(opts...)}, nil
}

func (s *DatabaseStore) Name() string { return "database" }

func (s *DatabaseStore) live(ctx context.Context) *gorm.DB {
	now := time.Now().UnixMilli()
	return s.db.WithContext(ctx).Model(&Entry{}).Where("expires_at = 0 OR expires_at > ?", now)
}

func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool) {
	var e Entry
	if err := s.live(ctx).Where("key = ?", key).First(&e).Error; err != nil {
		return nil, false
	}
	return e.Value, true
}

func (s *DatabaseStore) Put(ctx context.Context, key string, value []byte) error {
	return s.PutFor(ctx, key, value, s.opts.TTL)
}

func (s *DatabaseStore) PutFor(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	e := Entry{Key: key, Value: value, CreatedAt: now.UnixMilli()}
	if exp := expiry(now, ttl); !exp.IsZero() {
		e.ExpiresAt = exp.UnixMilli()
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
	}).Create(&e).Error
	if err != nil {
		return err
	}
	return s.evict(ctx)
}

func (s *DatabaseStore) Has(ctx context.Context, key string) bool {
	var n int64
	s.live(ctx).Where("key = ?", key).Count(&n)
	return n > 0
}

func (s *DatabaseStore) Forget(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&Entry{}).Error
}

func (s *DatabaseStore) Flush(ctx context.Context) error {
	return s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Entry{}).Error
}

// Purge removes expired rows and reports how many went.
func (s *DatabaseStore) Purge(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at > 0 AND expires_at <= ?", time.Now().UnixMilli()).
		Delete(&Entry{})
	return res.RowsAffected, res.Error
}

func (s *DatabaseStore) evict(ctx context.Context) error {
	if s.opts.MaxEntries <= 0 {
		return nil
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&Entry{}).Count(&n).Error; err != nil {
		return err
	}
	excess := n - int64(s.opts.MaxEntries)
	if excess <= 0 {
		return nil
	}
	oldest := s.db.Model(&Entry{}).Select("key").Order("created_at ASC").Limit(int(excess))
	return s.db.WithContext(ctx).Where("key IN (?)", oldest).Delete(&Entry{}).Error
}

var _ Store = (*DatabaseStore)(nil)
