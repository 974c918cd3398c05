package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tradebook/internal/config"
)

func TestConfigFromApp(t *testing.T) {
	cfg := NewConfig(&config.Config{
		DBHost:     "db",
		DBPort:     "5433",
		DBUser:     "trader",
		DBPassword: "p@ss word",
		DBName:     "book",
		DBSSLMode:  "require",
	})

	assert.Equal(t, "host=db port=5433 user=trader password=p@ss word dbname=book sslmode=require", cfg.DSN())
	assert.Equal(t, "postgres://trader:p%40ss%20word@db:5433/book?sslmode=require", cfg.URL())
}
