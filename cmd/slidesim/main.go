// slidesim walks every slide forward and back on a manual clock, printing
// how long each transition takes to settle and saving one PNG per slide.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/coreman2200/nightdrive/internal/choreo"
	"github.com/coreman2200/nightdrive/internal/config"
	"github.com/coreman2200/nightdrive/internal/keyframe"
	"github.com/coreman2200/nightdrive/internal/render"
)

// maxSettle bounds one transition in simulated seconds.
const maxSettle = 30.0

type step struct {
	slide   int
	dir     choreo.Direction
	mult    float64
	seconds float64
	frames  int
	shot    *image.RGBA
}

func main() {
	var (
		configPath = flag.String("config", "", "optional config.yaml")
		out        = flag.String("out", "slides", "directory for slide snapshots")
		fps        = flag.Int("fps", 60, "simulation frames per second")
		width      = flag.Int("width", 640, "viewport width")
		height     = flag.Int("height", 360, "viewport height")
		assets     = flag.String("assets", "", "assets directory (flat colors when empty)")
		keyframes  = flag.String("keyframes", "", "keyframes.v1 YAML file")
		backward   = flag.Float64("backward", 0, "backward multiplier (config value when 0)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("config")
		}
		cfg = c
	}
	if *keyframes != "" {
		cfg.Keyframes = *keyframes
	}
	if *backward > 0 {
		cfg.BackwardMultiplier = *backward
	}
	keys, err := cfg.LoadKeyframes()
	if err != nil {
		log.Fatal().Err(err).Msg("keyframes")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatal().Err(err).Msg("output dir")
	}

	opts := choreo.Options{
		Keyframes: keys,
		Policy:    cfg.Policy(),
		FPS:       *fps,
		MaxDelta:  cfg.MaxDeltaS,
		Manual:    true,
		Host:      choreo.NewStaticHost(render.Viewport{Width: *width, Height: *height, PixelRatio: 1}),
		Post:      cfg.Post,
		Camera:    cfg.Camera,
		Marker:    cfg.Marker,
		Seed:      cfg.Seed,
		Log:       &log.Logger,
	}
	if *assets != "" {
		opts.Assets = os.DirFS(*assets)
		opts.Models = cfg.Models.ByTarget()
	}
	e, err := choreo.New(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("engine")
	}
	defer e.Dispose()

	// let asset loads land before the first frame
	e.Wait()
	dt := 1.0 / float64(*fps)
	e.Advance(dt)

	var steps []step
	run := func(i int) {
		if err := e.OnSlideChanged(i); err != nil {
			log.Error().Err(err).Int("slide", i).Msg("slide")
			return
		}
		frames := 0
		for !e.Transition().Settled && float64(frames)*dt < maxSettle {
			e.Advance(dt)
			frames++
		}
		tr := e.Transition()
		if !tr.Settled {
			log.Warn().Int("slide", i).Msg("did not settle")
		}
		steps = append(steps, step{
			slide:   i,
			dir:     tr.Direction,
			mult:    tr.Multiplier,
			seconds: tr.Elapsed,
			frames:  frames,
			shot:    snapshot(e.Renderer().Frame()),
		})
	}
	n := keys.Len()
	for i := 1; i < n; i++ {
		run(i)
	}
	for i := n - 2; i >= 0; i-- {
		run(i)
	}

	var g errgroup.Group
	g.SetLimit(4)
	for k, s := range steps {
		path := filepath.Join(*out, fmt.Sprintf("%02d_slide%d_%s.png", k, s.slide, s.dir))
		shot := s.shot
		g.Go(func() error { return render.WritePNG(path, shot) })
	}
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("write snapshots")
	}

	fmt.Printf("%-6s %-9s %-6s %-9s %-7s %s\n", "slide", "direction", "mult", "settle_s", "frames", "camera")
	for _, s := range steps {
		k, _ := keys.At(keyframe.Camera, s.slide)
		fmt.Printf("%-6d %-9s %-6.2f %-9.3f %-7d %v\n", s.slide, s.dir, s.mult, s.seconds, s.frames, k.Position)
	}
	log.Info().Int("snapshots", len(steps)).Str("dir", *out).Msg("done")
}

// snapshot copies the renderer's reused frame.
func snapshot(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}
