package database

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Options struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
	// Debug logs every SQL statement.
	Debug bool
}

var (
	DB      *gorm.DB
	once    sync.Once
	connErr error
)

func (o Options) DSN() string {
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		o.Host, o.User, o.Password, o.Name, o.Port, sslMode,
	)
}

// Connect opens the shared connection pool. Later calls return the first result.
func Connect(opts Options) (*gorm.DB, error) {
	once.Do(func() {
		level := gormlogger.Warn
		if opts.Debug {
			level = gormlogger.Info
		}

		db, err := gorm.Open(postgres.Open(opts.DSN()), &gorm.Config{
			Logger:         gormlogger.Default.LogMode(level),
			TranslateError: true,
		})
		if err != nil {
			connErr = fmt.Errorf("failed to connect database: %w", err)
			return
		}

		sqlDB, err := db.DB()
		if err != nil {
			connErr = fmt.Errorf("failed to get sql.DB: %w", err)
			return
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)

		DB = db
	})

	return DB, connErr
}
