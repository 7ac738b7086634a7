// Command simulate runs a table headless and logs what happens each
// simulated second.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/playmatatu/tablephysics/internal/config"
	"github.com/playmatatu/tablephysics/internal/layout"
	"github.com/playmatatu/tablephysics/internal/pinball"
	"github.com/playmatatu/tablephysics/internal/pool"
	"github.com/playmatatu/tablephysics/internal/sound"
)

func main() {
	cfg := config.Load()

	kind := flag.String("kind", "pinball", "table to run: pinball or pool")
	seconds := flag.Int("seconds", 10, "simulated seconds to run")
	balls := flag.Int("balls", 8, "pinballs to launch, one every half second")
	angle := flag.Float64("aim", 0, "pool: extra aim in radians added to the initial aim")
	layoutFile := flag.String("layout", cfg.LayoutFile, "pinball layout TOML file")
	flag.Parse()

	frameRate := cfg.FrameRate
	if frameRate <= 0 {
		frameRate = 60
	}
	frames := *seconds * frameRate
	frameMS := int64(1000 / frameRate)

	start := time.Now()
	switch *kind {
	case "pinball":
		runPinball(cfg, *layoutFile, frames, frameRate, frameMS, *balls)
	case "pool":
		runPool(cfg, frames, frameRate, frameMS, *angle)
	default:
		log.Fatalf("unknown table kind %q", *kind)
	}
	log.Printf("[SIM] %d frames in %v", frames, time.Since(start))
}

func runPinball(cfg *config.Config, layoutFile string, frames, frameRate int, frameMS int64, launches int) {
	l := layout.Default()
	if layoutFile != "" {
		var err error
		if l, err = layout.Load(layoutFile); err != nil {
			log.Fatalf("Failed to load layout: %v", err)
		}
	}

	rec := &sound.Recorder{}
	opts := pinball.DefaultOptions()
	opts.MotionIterations = cfg.MotionIterations
	opts.CollisionIterations = cfg.CollisionIterations
	opts.ReticleLife = int64(cfg.ReticleLifeMS)
	opts.RecordImpacts = cfg.ShowImpacts
	if cfg.BallRadius > 0 {
		opts.BallRadius = cfg.BallRadius
	}
	if cfg.BallScale > 0 {
		opts.BallScale = cfg.BallScale
	}
	w := pinball.NewWorld(opts, rec)
	if err := l.Build(w); err != nil {
		log.Fatalf("Failed to build layout: %v", err)
	}
	log.Printf("[SIM] Pinball: %d shapes, %d balls to launch", len(w.Shapes()), launches)

	launchEvery := frameRate / 2
	if launchEvery == 0 {
		launchEvery = 1
	}
	for f := 1; f <= frames; f++ {
		now := int64(f) * frameMS
		if launches > 0 && f%launchEvery == 1 {
			w.Launch()
			launches--
		}
		w.Move(now)

		if f%frameRate == 0 {
			sounds := rec.Drain()
			log.Printf("[SIM] t=%ds balls=%d lost=%d collisions=%d tests=%d aabb=%d reticles=%d sounds=%d",
				f/frameRate, w.Size(), w.LostBallCount(),
				w.CollisionCount(), w.CollisionTestCount(), w.AABBTestCount(),
				len(w.Reticles(now)), len(sounds))
		}
	}
}

func runPool(cfg *config.Config, frames, frameRate int, frameMS int64, aim float64) {
	rec := &sound.Recorder{}
	g := pool.NewGame(cfg.PoolIterations, cfg.PoolBallSize, rec)

	if aim != 0 {
		if err := g.AdjustAim(aim); err != nil {
			log.Fatalf("Failed to aim: %v", err)
		}
	}
	if p, ok := g.AimPreview(); ok {
		log.Printf("[SIM] Pool: aim %.3f, contact at (%.1f, %.1f), 8-ball leaves at %.3f",
			g.CueAngle(), p.Ghost.X, p.Ghost.Y, p.EightAngle)
	} else {
		log.Printf("[SIM] Pool: aim %.3f misses the 8-ball", g.CueAngle())
	}
	if err := g.Shoot(); err != nil {
		log.Fatalf("Failed to shoot: %v", err)
	}

	counts := map[sound.Sound]int{}
	for f := 1; f <= frames; f++ {
		g.Step(int64(f) * frameMS)
		for _, e := range rec.Drain() {
			counts[e.Sound]++
		}

		if f%frameRate == 0 || g.State() != pool.StateBallsMoving {
			cue, eight := g.CueBall(), g.EightBall()
			log.Printf("[SIM] t=%.2fs state=%s cue=(%.1f, %.1f) eight=(%.1f, %.1f) clicks=%d thumps=%d pockets=%d",
				float64(f)/float64(frameRate), g.State(),
				cue.Pos.X, cue.Pos.Y, eight.Pos.X, eight.Pos.Y,
				counts[sound.BallClick], counts[sound.Thump], counts[sound.Pocket])
		}
		if g.State() != pool.StateBallsMoving {
			return
		}
	}
	log.Printf("[SIM] Balls still moving after %d frames", frames)
}
