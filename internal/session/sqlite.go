package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

type entry struct {
	Name      string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

// SQLite persists the session in a key/value table, the way browsers back
// local storage.
type SQLite struct {
	db  *gorm.DB
	log zerolog.Logger
}

// OpenSQLite opens (creating if needed) the session database at path. Read
// failures other than a missing key are reported through log.
func OpenSQLite(path string, log zerolog.Logger) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("session database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Discard,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   "guacplayer_",
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("migrate session database: %w", err)
	}
	return &SQLite{db: db, log: log}, nil
}

func (s *SQLite) Get(key string) (string, bool) {
	var e entry
	err := s.db.Where("name = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false
	}
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("read session key")
		return "", false
	}
	return e.Value, true
}

func (s *SQLite) Set(key, value string) error {
	e := entry{Name: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Remove(key string) error {
	err := s.db.Where("name = ?", key).Delete(&entry{}).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
