package backend

import (
	"context"
	"path/filepath"
	"testing"

	"tally/internal/config"
	"tally/internal/core"
)

func TestBackendTypeIsValid(t *testing.T) {
	tests := []struct {
		name string
		bt   BackendType
		want bool
	}{
		{"sqlite", SQLiteBackend, true},
		{"mongo", MongoBackend, true},
		{"local", LocalBackend, true},
		{"empty", BackendType(""), false},
		{"unknown", BackendType("redis"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bt.IsValid(); got != tt.want {
				t.Errorf("BackendType(%q).IsValid() = %v, want %v", tt.bt, got, tt.want)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	appCfg := &config.Config{
		DataBackend:     "mongo",
		SQLitePath:      "tally.db",
		MongoURI:        "mongodb://localhost:27017",
		MongoDatabase:   "tally",
		MongoCollection: "records",
		LocalFile:       "tally.local.json",
	}

	cfg, err := FromAppConfig(appCfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != MongoBackend {
		t.Errorf("FromAppConfig() Type = %v, want mongo", cfg.Type)
	}
	if cfg.MongoURI != appCfg.MongoURI {
		t.Errorf("FromAppConfig() MongoURI = %v, want %v", cfg.MongoURI, appCfg.MongoURI)
	}
	if cfg.LocalFile != appCfg.LocalFile {
		t.Errorf("FromAppConfig() LocalFile = %v, want %v", cfg.LocalFile, appCfg.LocalFile)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("FromAppConfig(nil) error = nil, want error")
	}

	appCfg.DataBackend = "sheets"
	if _, err := FromAppConfig(appCfg); err == nil {
		t.Error("FromAppConfig() with invalid backend type error = nil, want error")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid sqlite",
			config: Config{Type: SQLiteBackend, SQLitePath: "tally.db"},
		},
		{
			name:    "sqlite without path",
			config:  Config{Type: SQLiteBackend},
			wantErr: true,
		},
		{
			name: "valid mongo",
			config: Config{
				Type:            MongoBackend,
				MongoURI:        "mongodb://localhost:27017",
				MongoDatabase:   "tally",
				MongoCollection: "records",
			},
		},
		{
			name:    "mongo without URI",
			config:  Config{Type: MongoBackend, MongoDatabase: "tally", MongoCollection: "records"},
			wantErr: true,
		},
		{
			name:    "mongo without collection",
			config:  Config{Type: MongoBackend, MongoURI: "mongodb://localhost:27017", MongoDatabase: "tally"},
			wantErr: true,
		},
		{
			name:   "valid local",
			config: Config{Type: LocalBackend, LocalFile: "tally.local.json"},
		},
		{
			name:    "local without file",
			config:  Config{Type: LocalBackend},
			wantErr: true,
		},
		{
			name:    "invalid type",
			config:  Config{Type: BackendType("sheets")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackendLocal(t *testing.T) {
	ctx := context.Background()
	factory := NewFactory(nil)

	result, err := factory.CreateBackend(ctx, Config{
		Type:      LocalBackend,
		LocalFile: filepath.Join(t.TempDir(), "ledger.json"),
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if result.Cleanup != nil {
		t.Error("CreateBackend() local Cleanup != nil, want nil")
	}

	if err := result.Backend.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v, want nil", err)
	}

	created, err := result.Backend.Create(ctx, core.Transaction{
		Type:     core.Expense,
		Amount:   12.50,
		Category: "food",
		Date:     "2024-01-10",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Error("Create() assigned no id")
	}

	list, err := result.Backend.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List() returned %d transactions, want 1", len(list))
	}
}

func TestCreateBackendSQLite(t *testing.T) {
	ctx := context.Background()
	factory := NewFactory(nil)

	result, err := factory.CreateBackend(ctx, Config{
		Type:       SQLiteBackend,
		SQLitePath: filepath.Join(t.TempDir(), "tally.db"),
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			t.Errorf("Cleanup() error = %v", err)
		}
	}()

	if err := result.Backend.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v, want nil", err)
	}

	created, err := result.Backend.Create(ctx, core.Transaction{
		Type:     core.Income,
		Amount:   1000,
		Category: "salary",
		Date:     "2024-01-05",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := result.Backend.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Category != "salary" {
		t.Errorf("Get() Category = %v, want salary", got.Category)
	}
}

func TestCreateBackendInvalidType(t *testing.T) {
	factory := NewFactory(nil)

	if _, err := factory.CreateBackend(context.Background(), Config{Type: "sheets"}); err == nil {
		t.Error("CreateBackend() with invalid type error = nil, want error")
	}
}
