package admin

import (
	"testing"

	"github.com/playmatatu/tablephysics/internal/config"
	"github.com/playmatatu/tablephysics/internal/models"
)

func TestAdminKeyRoundTrip(t *testing.T) {
	hash, err := HashAdminKey("s3cret")
	if err != nil {
		t.Fatalf("HashAdminKey: %v", err)
	}
	if !VerifyAdminKey(hash, "s3cret") {
		t.Errorf("correct key rejected")
	}
	if VerifyAdminKey(hash, "guess") {
		t.Errorf("wrong key accepted")
	}
	if VerifyAdminKey("", "s3cret") {
		t.Errorf("empty hash should reject")
	}
}

func TestValidateValue(t *testing.T) {
	tests := []struct {
		valueType, value string
		ok               bool
	}{
		{"int", "4", true},
		{"int", "four", false},
		{"float", "0.75", true},
		{"float", "x", false},
		{"bool", "true", true},
		{"bool", "yes", false},
		{"string", "anything", true},
	}
	for _, tt := range tests {
		t.Run(tt.valueType+"/"+tt.value, func(t *testing.T) {
			err := ValidateValue(tt.valueType, tt.value)
			if (err == nil) != tt.ok {
				t.Errorf("err = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestApplyRuntimeConfig(t *testing.T) {
	cfg := &config.Config{MotionIterations: 4, PoolIterations: 2}
	n := ApplyRuntimeConfig(cfg, []models.RuntimeConfig{
		{Key: "motion_iterations", Value: "8"},
		{Key: "pool_iterations", Value: "bad"},
		{Key: "show_impacts", Value: "true"},
		{Key: "unknown", Value: "1"},
	})
	if n != 2 {
		t.Errorf("applied = %d, want 2", n)
	}
	if cfg.MotionIterations != 8 || cfg.PoolIterations != 2 || !cfg.ShowImpacts {
		t.Errorf("cfg = %+v", cfg)
	}
}
