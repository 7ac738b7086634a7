package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.FrameRate != 60 {
		t.Errorf("FrameRate = %d", cfg.FrameRate)
	}
	if cfg.BallScale != 0.75 || cfg.BallRadius != 32 {
		t.Errorf("ball = %v x %v", cfg.BallRadius, cfg.BallScale)
	}
	if cfg.ReticleLifeMS != 2000 {
		t.Errorf("ReticleLifeMS = %d", cfg.ReticleLifeMS)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MOTION_ITERATIONS", "8")
	t.Setenv("BALL_SCALE", "0.5")
	t.Setenv("SHOW_IMPACTS", "true")
	t.Setenv("POOL_ITERATIONS", "lots")

	cfg := Load()
	if cfg.MotionIterations != 8 {
		t.Errorf("MotionIterations = %d", cfg.MotionIterations)
	}
	if cfg.BallScale != 0.5 {
		t.Errorf("BallScale = %v", cfg.BallScale)
	}
	if !cfg.ShowImpacts {
		t.Errorf("ShowImpacts not set")
	}
	if cfg.PoolIterations != 2 {
		t.Errorf("bad value should fall back to default, got %d", cfg.PoolIterations)
	}
}
