package postgres

import (
	"testing"
	"time"

	"github.com/ogurasousui/staffing-clean-arch/internal/platform/config"
)

func TestBuildPoolConfig(t *testing.T) {
	t.Parallel()

	dbCfg := config.DatabaseConfig{
		Host:            "localhost",
		Port:            15432,
		User:            "user",
		Password:        "pass",
		Name:            "db",
		SSLMode:         "disable",
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}

	poolCfg, err := BuildPoolConfig(dbCfg)
	if err != nil {
		t.Fatalf("BuildPoolConfig returned error: %v", err)
	}

	if poolCfg.MaxConns != 20 {
		t.Errorf("expected MaxConns 20, got %d", poolCfg.MaxConns)
	}

	if poolCfg.MinConns != 5 {
		t.Errorf("expected MinConns 5, got %d", poolCfg.MinConns)
	}

	if poolCfg.MaxConnLifetime != 30*time.Minute {
		t.Errorf("unexpected MaxConnLifetime: %v", poolCfg.MaxConnLifetime)
	}

	if poolCfg.MaxConnIdleTime != 10*time.Minute {
		t.Errorf("unexpected MaxConnIdleTime: %v", poolCfg.MaxConnIdleTime)
	}

	if poolCfg.ConnConfig.Database != "db" {
		t.Errorf("expected database db, got %s", poolCfg.ConnConfig.Database)
	}

	if poolCfg.HealthCheckPeriod != 30*time.Second {
		t.Errorf("unexpected HealthCheckPeriod: %v", poolCfg.HealthCheckPeriod)
	}
}

func TestBuildPoolConfig_Defaults(t *testing.T) {
	t.Parallel()

	dbCfg := config.DatabaseConfig{
		Host:     "localhost",
		Port:     15432,
		User:     "user",
		Password: "pass",
		Name:     "db",
		SSLMode:  "disable",
	}

	poolCfg, err := BuildPoolConfig(dbCfg)
	if err != nil {
		t.Fatalf("BuildPoolConfig returned error: %v", err)
	}

	if poolCfg.MaxConns != 10 {
		t.Errorf("expected default MaxConns 10, got %d", poolCfg.MaxConns)
	}

	if poolCfg.MinConns != 2 {
		t.Errorf("expected default MinConns 2, got %d", poolCfg.MinConns)
	}

	if poolCfg.MaxConnLifetime != time.Hour {
		t.Errorf("unexpected default MaxConnLifetime: %v", poolCfg.MaxConnLifetime)
	}

	if poolCfg.MaxConnIdleTime != 15*time.Minute {
		t.Errorf("unexpected default MaxConnIdleTime: %v", poolCfg.MaxConnIdleTime)
	}
}

func TestBuildPoolConfig_MinCappedToMax(t *testing.T) {
	t.Parallel()

	dbCfg := config.DatabaseConfig{
		Host:         "localhost",
		Port:         15432,
		User:         "user",
		Password:     "pass",
		Name:         "db",
		SSLMode:      "disable",
		MaxOpenConns: 1,
	}

	poolCfg, err := BuildPoolConfig(dbCfg)
	if err != nil {
		t.Fatalf("BuildPoolConfig returned error: %v", err)
	}

	if poolCfg.MinConns != poolCfg.MaxConns {
		t.Errorf("expected MinConns capped to MaxConns, got min=%d max=%d", poolCfg.MinConns, poolCfg.MaxConns)
	}
}
