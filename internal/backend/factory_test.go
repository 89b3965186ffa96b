package backend

import (
	"context"
	"path/filepath"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/storage/memory"
	"fintrack/internal/storage/sqlite"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "postgres", PostgresDSN: "postgres://x"})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != PostgresBackend || cfg.PostgresDSN != "postgres://x" {
		t.Errorf("config = %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"mongodb without database", Config{Type: MongoDBBackend, MongoURI: "mongodb://localhost"}, true},
		{"postgres without dsn", Config{Type: PostgresBackend}, true},
		{"postgres", Config{Type: PostgresBackend, PostgresDSN: "postgres://localhost/db"}, false},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := res.Store.(*memory.Store); !ok {
		t.Errorf("memory backend store = %T", res.Store)
	}

	res, err = f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "db", "fintrack.db")})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if _, ok := res.Store.(*sqlite.Store); !ok {
		t.Errorf("sqlite backend store = %T", res.Store)
	}
	if err := res.Store.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("Cleanup() error = %v", err)
	}

	if _, err := f.CreateBackend(ctx, Config{Type: PostgresBackend}); err == nil {
		t.Error("expected validation error")
	}
}
