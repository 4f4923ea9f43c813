package config

import (
	"os"
	"testing"
)

func TestExpirySweepSchedule(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/placement")

	t.Run("unset uses the default cadence", func(t *testing.T) {
		t.Setenv("EXPIRY_SWEEP_SCHEDULE", "")
		os.Unsetenv("EXPIRY_SWEEP_SCHEDULE")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.ExpirySweepSchedule != "@every 1m" {
			t.Errorf("schedule = %q, want the default", cfg.ExpirySweepSchedule)
		}
	})

	t.Run("explicit value is honored", func(t *testing.T) {
		t.Setenv("EXPIRY_SWEEP_SCHEDULE", "@every 5m")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.ExpirySweepSchedule != "@every 5m" {
			t.Errorf("schedule = %q, want @every 5m", cfg.ExpirySweepSchedule)
		}
	})

	t.Run("set empty disables the sweep", func(t *testing.T) {
		t.Setenv("EXPIRY_SWEEP_SCHEDULE", "")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.ExpirySweepSchedule != "" {
			t.Errorf("schedule = %q, want empty (disabled)", cfg.ExpirySweepSchedule)
		}
	})
}
