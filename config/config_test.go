package config

import (
	"os"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()

	return tmpFile.Name()
}

func TestLoad(t *testing.T) {
	configContent := `
server:
  port: 9090
auth:
  jwt_secret: "test-secret"
  token_expire_hours: 48
fees:
  doc_fee: 599
  title_fee: 125
terms:
  default_months: 60
  menu:
    - months: 36
      apr: 4.99
    - months: 60
      apr: 5.49
store:
  backend: "redis"
  redis_addr: "localhost:6379"
  max_worksheets: 50
log:
  level: "debug"
  format: "json"
managers:
  - username: "mgr1"
    password: "secret"
    name: "Pat Doyle"
`
	cfg, err := Load(writeTempConfig(t, configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Auth.TokenExpireHours != 48 {
		t.Errorf("Expected token_expire_hours 48, got %d", cfg.Auth.TokenExpireHours)
	}
	if cfg.Fees.DocFee != 599 || cfg.Fees.TitleFee != 125 {
		t.Errorf("Expected fees 599/125, got %v/%v", cfg.Fees.DocFee, cfg.Fees.TitleFee)
	}
	if len(cfg.Terms.Menu) != 2 {
		t.Fatalf("Expected 2 term menu entries, got %d", len(cfg.Terms.Menu))
	}
	if cfg.Terms.Menu[0].Months != 36 || cfg.Terms.Menu[0].APR != 4.99 {
		t.Errorf("Unexpected first term entry: %+v", cfg.Terms.Menu[0])
	}
	if cfg.Terms.DefaultMonths != 60 {
		t.Errorf("Expected default term 60, got %d", cfg.Terms.DefaultMonths)
	}
	if cfg.Store.Backend != "redis" || cfg.Store.RedisAddr != "localhost:6379" {
		t.Errorf("Unexpected store config: %+v", cfg.Store)
	}
	if cfg.Store.MaxWorksheets != 50 {
		t.Errorf("Expected max_worksheets 50, got %d", cfg.Store.MaxWorksheets)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Unexpected log config: %+v", cfg.Log)
	}
	if len(cfg.Managers) != 1 || cfg.Managers[0].Username != "mgr1" {
		t.Errorf("Unexpected managers: %+v", cfg.Managers)
	}
}

func TestLoadDefaults(t *testing.T) {
	configContent := `
auth:
  jwt_secret: "test-secret"
`
	cfg, err := Load(writeTempConfig(t, configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Auth.TokenExpireHours != 12 {
		t.Errorf("Expected default token_expire_hours 12, got %d", cfg.Auth.TokenExpireHours)
	}
	if cfg.Fees.DocFee != 499 || cfg.Fees.TitleFee != 100 {
		t.Errorf("Expected default fees 499/100, got %v/%v", cfg.Fees.DocFee, cfg.Fees.TitleFee)
	}
	if len(cfg.Terms.Menu) != 3 {
		t.Fatalf("Expected default 3-entry term menu, got %d", len(cfg.Terms.Menu))
	}
	// Default selected term is the longest in the menu
	if cfg.Terms.DefaultMonths != 72 {
		t.Errorf("Expected default term 72, got %d", cfg.Terms.DefaultMonths)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Expected default backend memory, got %s", cfg.Store.Backend)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestFindManager(t *testing.T) {
	cfg := &Config{
		Managers: []Manager{
			{Username: "mgr1", Password: "a", Name: "Pat Doyle"},
			{Username: "mgr2", Password: "b", Name: "Sam Reyes"},
		},
	}

	mgr := cfg.FindManager("mgr2")
	if mgr == nil {
		t.Fatal("Expected to find mgr2")
	}
	if mgr.Name != "Sam Reyes" {
		t.Errorf("Expected Sam Reyes, got %s", mgr.Name)
	}

	if cfg.FindManager("nobody") != nil {
		t.Error("Expected nil for unknown manager")
	}
}
