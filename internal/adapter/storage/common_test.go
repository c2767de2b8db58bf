package storage

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/marketplace/internal/core/domain"
)

func testIdentity(b byte) domain.Identity {
	var id domain.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

func testItem(id uint64, authority domain.Identity) domain.Item {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return domain.Item{
		ID:        id,
		Name:      "Widget",
		Quantity:  10,
		Price:     100,
		Authority: authority,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newTestSQLite(t *testing.T) *SQLAdapter {
	t.Helper()

	ctx := context.Background()
	db, err := OpenSQL(ctx, DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	adapter := NewSQLAdapter(db, DialectSQLite)
	require.NoError(t, adapter.Migrate(ctx))
	return adapter
}

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/marketplace?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	return db
}

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}
