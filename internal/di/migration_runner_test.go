package di

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/photoshare/photoshare-api/internal/domain"
)

func TestMigrationRunnerCreatesSchema(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	// A second pooled connection would see a fresh in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := NewMigrationRunner(db).Run(); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	for _, model := range []any{&domain.User{}, &domain.Photo{}} {
		if !db.Migrator().HasTable(model) {
			t.Fatalf("expected table for %T", model)
		}
	}

	// Running again is a no-op, not an error.
	if err := NewMigrationRunner(db).Run(); err != nil {
		t.Fatalf("second run: %v", err)
	}
}
