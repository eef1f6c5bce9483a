// Package testutil builds throwaway backing stores for package tests.
package testutil

import (
	"TaskChatAPI/internal/adapter"
	"TaskChatAPI/internal/config"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const TestJWTSecret = "test-secret"

// NewTestDB opens a private in-memory SQLite database with the schema applied.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed creating schema resources: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// NewTestRedis starts an in-process Redis and returns an adapter bound to it.
func NewTestRedis(t *testing.T) (*adapter.RedisAdapter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
	})

	return adapter.NewRedisAdapterFromClient(client), mr
}

func NewTestConfig() *config.AppConfig {
	return &config.AppConfig{
		AppPort:               "0",
		AppEnv:                "test",
		AppCorsAllowedOrigins: []string{"*"},
		DBDriver:              "sqlite",
		JWTSecret:             TestJWTSecret,
		JWTExp:                1,
		JWTIssuer:             "TaskChatAPI",
		WSMaxMessageSize:      16384,
		WSPongWait:            60e9,
		WSWriteWait:           10e9,
		WSEventRate:           1000,
		WSEventBurst:          1000,
		ConversationRateLimit: 1000,
		WSHandshakeRateLimit:  1000,
		ConversationIdleDays:  90,
		ConversationIdleCron:  "0 3 * * *",
	}
}
