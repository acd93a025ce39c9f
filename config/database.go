package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/inkpress/inkpress/models"
)

// InitDatabase opens the MySQL connection pool, migrates the schema, and
// seeds the default categories. The returned handle is injected into the
// router/controllers at startup; callers own its lifecycle and should close
// the underlying pool at shutdown.
func InitDatabase(cfg AppConfig) (*gorm.DB, error) {
	var dsn string
	if cfg.DatabaseURI != "" {
		dsn = cfg.DatabaseURI
	} else {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
		)
	}

	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  toGormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gLogger})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(cfg.DBPoolSize)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	// Recycle idle connections before the server-side wait_timeout reclaims them
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	// Ping at boot so network/auth problems surface before the first query
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping: %w", err)
	}

	// Referential integrity lives in the schema: author/post/user cascades
	// and the category SET NULL rule come from the model constraint tags.
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Post{},
		&models.Comment{},
		&models.Tag{},
		&models.PostTag{},
		&models.PasswordReset{},
	); err != nil {
		return nil, fmt.Errorf("auto migration: %w", err)
	}

	if err := seedCategories(db); err != nil {
		return nil, fmt.Errorf("seed categories: %w", err)
	}

	return db, nil
}

// seedCategories inserts the default category set on first boot; existing
// rows are left untouched.
func seedCategories(db *gorm.DB) error {
	defaults := []models.Category{
		{Name: "Technology", Slug: "technology", Description: "Technology related posts"},
		{Name: "Lifestyle", Slug: "lifestyle", Description: "Lifestyle and personal posts"},
		{Name: "Travel", Slug: "travel", Description: "Travel experiences and tips"},
		{Name: "Food", Slug: "food", Description: "Food and cooking posts"},
		{Name: "Health", Slug: "health", Description: "Health and wellness posts"},
	}
	for _, c := range defaults {
		if err := db.Where(models.Category{Slug: c.Slug}).FirstOrCreate(&c).Error; err != nil {
			return err
		}
	}
	return nil
}

// toGormLogLevel maps application LogLevel to GORM's logger level.
func toGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		// GORM 'Info' shows SQL; use with caution
		return logger.Info
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		// Suppress per-statement logs; keep warnings (including slow SQL)
		return logger.Warn
	}
}
