package store

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/reckon/utils"
	"github.com/oomph-ac/reckon/validator"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Vec is a position or velocity as stored in the database.
type Vec struct {
	X, Y, Z float32
}

func vec(v mgl32.Vec3) Vec {
	return Vec{X: v[0], Y: v[1], Z: v[2]}
}

// Vec3 ...
func (v Vec) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{v.X, v.Y, v.Z}
}

// ViolationRecord is a report that failed validation.
type ViolationRecord struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index:idx_created_at"`

	Player string `gorm:"size:64;index:idx_player"`
	Kinds  string `gorm:"size:64"`
	// KindBits holds validator.Kind as stored.
	KindBits uint8
	Sector   string `gorm:"size:255"`

	Previous Vec `gorm:"embedded;embeddedPrefix:prev_"`
	Reported Vec `gorm:"embedded;embeddedPrefix:pos_"`
	Velocity Vec `gorm:"embedded;embeddedPrefix:vel_"`

	Lag   float32
	Count int
}

// Kind returns the checks the report failed.
func (r ViolationRecord) Kind() validator.Kind {
	return validator.Kind(r.KindBits)
}

// Store writes violation records to a sqlite database.
type Store struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// Open opens the sqlite database at path, creating it if needed. An empty path opens an in-memory database.
func Open(path string, log logrus.FieldLogger) (*Store, error) {
	log = utils.LoggerOrNop(log)

	dsn := path
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open violation store: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %s", err)
		}
	}
	if err := db.AutoMigrate(&ViolationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate violation records: %s", err)
	}

	if path != "" {
		log.Infof("writing violation records to %s", path)
	}
	return &Store{db: db, log: log}, nil
}

// Record implements validator.Recorder.
func (s *Store) Record(rec validator.Record) error {
	return s.db.Create(&ViolationRecord{
		CreatedAt: rec.Time,
		Player:    rec.Player,
		Kinds:     rec.Kinds.String(),
		KindBits:  uint8(rec.Kinds),
		Sector:    rec.SectorName,
		Previous:  vec(rec.Previous),
		Reported:  vec(rec.Position),
		Velocity:  vec(rec.Velocity),
		Lag:       rec.Lag,
		Count:     rec.Count,
	}).Error
}

// ByPlayer returns every violation record of a player, oldest first.
func (s *Store) ByPlayer(player string) ([]ViolationRecord, error) {
	var records []ViolationRecord
	err := s.db.Where("player = ?", player).Order("created_at, id").Find(&records).Error
	return records, err
}

// Since returns every violation record created at or after t, oldest first.
func (s *Store) Since(t time.Time) ([]ViolationRecord, error) {
	var records []ViolationRecord
	err := s.db.Where("created_at >= ?", t).Order("created_at, id").Find(&records).Error
	return records, err
}

// Close closes the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
