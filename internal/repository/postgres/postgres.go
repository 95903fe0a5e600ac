// Package postgres implements the repository interfaces on PostgreSQL
// through GORM.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sakif/carbon-tracker/internal/apperror"
	"github.com/sakif/carbon-tracker/internal/repository"
)

var (
	_ repository.Provider = (*DB)(nil)
	_ repository.Handle   = (*session)(nil)
	_ repository.Store    = (*DB)(nil)
)

type userRow struct {
	ID          string    `gorm:"column:id;type:text;primaryKey"`
	Username    string    `gorm:"column:username;type:text;not null;uniqueIndex"`
	DisplayName string    `gorm:"column:display_name;type:text;not null;default:''"`
	Bio         string    `gorm:"column:bio;type:text;not null;default:''"`
	Avatar      string    `gorm:"column:avatar;type:text;not null;default:''"`
	Points      int       `gorm:"column:points;type:integer;not null;default:0;index:idx_users_points,sort:desc"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
}

func (userRow) TableName() string { return "users" }

type activityRow struct {
	ID          string    `gorm:"column:id;type:text;primaryKey"`
	UserID      string    `gorm:"column:user_id;type:text;not null;index:idx_activities_user_created"`
	User        *userRow  `gorm:"foreignKey:UserID"`
	Category    string    `gorm:"column:category;type:text;not null"`
	Details     string    `gorm:"column:details;type:jsonb;not null;default:'{}'"`
	EmissionsKg float64   `gorm:"column:emissions_kg;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;index:idx_activities_user_created"`
}

func (activityRow) TableName() string { return "activities" }

type achievementRow struct {
	ID       string    `gorm:"column:id;type:text;primaryKey"`
	UserID   string    `gorm:"column:user_id;type:text;not null;uniqueIndex:idx_achievements_user_name"`
	User     *userRow  `gorm:"foreignKey:UserID"`
	Name     string    `gorm:"column:name;type:text;not null;uniqueIndex:idx_achievements_user_name"`
	EarnedAt time.Time `gorm:"column:earned_at;not null"`
}

func (achievementRow) TableName() string { return "achievements" }

type busRideRow struct {
	ID            string    `gorm:"column:id;type:text;primaryKey"`
	UserID        string    `gorm:"column:user_id;type:text;not null;index:idx_bus_rides_user_created"`
	User          *userRow  `gorm:"foreignKey:UserID"`
	RouteName     string    `gorm:"column:route_name;type:text;not null"`
	DistanceMiles float64   `gorm:"column:distance_miles;not null;default:0"`
	PointsEarned  int       `gorm:"column:points_earned;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;not null;index:idx_bus_rides_user_created"`
}

func (busRideRow) TableName() string { return "bus_rides" }

// store runs every repository query against db, which may be a transaction.
type store struct {
	db *gorm.DB
}

// DB owns the GORM connection pool.
type DB struct {
	store
}

// New connects to dsn and migrates the schema.
func New(dsn string) (*DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: connecting: %w", err)
	}

	if err := gdb.AutoMigrate(&userRow{}, &activityRow{}, &achievementRow{}, &busRideRow{}); err != nil {
		closeGorm(gdb)
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return &DB{store: store{db: gdb}}, nil
}

// Open returns a request-scoped handle. Postgres handles concurrent
// statements itself, so the handle shares the pool.
func (db *DB) Open(ctx context.Context) (repository.Handle, error) {
	return &session{store: store{db: db.db.WithContext(ctx)}}, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return closeGorm(db.db)
}

// reset empties every table. Used by tests.
func (db *DB) reset() error {
	return db.db.Exec(`TRUNCATE TABLE bus_rides, achievements, activities, users CASCADE`).Error
}

type session struct {
	store
}

func (s *session) Close() error { return nil }

func (s *session) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&store{db: tx})
	})
}

func closeGorm(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("postgres: getting pool: %w", err)
	}
	return sqlDB.Close()
}

func storageErr(op string, err error) error {
	return apperror.Storage(op, fmt.Errorf("postgres: %s: %w", op, err))
}

func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
