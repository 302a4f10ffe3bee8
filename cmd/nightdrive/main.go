package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/coreman2200/nightdrive/internal/choreo"
	"github.com/coreman2200/nightdrive/internal/config"
	"github.com/coreman2200/nightdrive/internal/render"
	"github.com/coreman2200/nightdrive/internal/ws"
)

func main() {
	// ---- Flags (explicitly set flags win over config.yaml) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		fps        = flag.Int("fps", 60, "target frames per second")
		assets     = flag.String("assets", "public", "directory holding img/ and models/")
		keyframes  = flag.String("keyframes", "", "keyframes.v1 YAML file (built-in tables when empty)")
		pngDir     = flag.String("png-dir", "", "write every Nth frame as PNG into this directory")
		strip      = flag.Bool("strip", false, "mirror frames onto an SPI LED strip")
		logLevel   = flag.String("log-level", "info", "log level: debug | info | warn | error")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Config ----
	cfg := config.Default()
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with defaults and flags")
	} else {
		cfg = c
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Listen = *addr
		case "fps":
			cfg.FPS = *fps
		case "assets":
			cfg.AssetsDir = *assets
		case "keyframes":
			cfg.Keyframes = *keyframes
		case "png-dir":
			cfg.Sinks.PNGDir = *pngDir
		case "strip":
			cfg.Sinks.Strip = *strip
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("bad configuration")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	keys, err := cfg.LoadKeyframes()
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Keyframes).Msg("keyframes")
	}

	// ---- Sinks ----
	hub := ws.NewHub(cfg.Viewport, time.Duration(cfg.Sinks.FrameEveryMS)*time.Millisecond, log.Logger)
	sinks := render.Multi{hub}
	if cfg.Sinks.PNGDir != "" {
		p, err := render.NewPNGSink(cfg.Sinks.PNGDir, cfg.Sinks.PNGEvery)
		if err != nil {
			log.Fatal().Err(err).Msg("png sink")
		}
		sinks = append(sinks, p)
	}
	if cfg.Sinks.Strip {
		s, err := render.OpenStrip(render.StripOpts{Port: cfg.Sinks.StripPort, Pixels: cfg.Sinks.StripPixels}, log.Logger)
		if err != nil {
			log.Warn().Err(err).Msg("LED strip unavailable; continuing without it")
		} else {
			sinks = append(sinks, s)
		}
	}

	// ---- Engine ----
	fsys := os.DirFS(cfg.AssetsDir)
	if _, err := os.Stat(cfg.AssetsDir); err != nil {
		log.Warn().Err(err).Str("dir", cfg.AssetsDir).Msg("assets missing; objects keep flat colors and placeholders")
	}
	engine, err := choreo.New(choreo.Options{
		Keyframes:   keys,
		Policy:      cfg.Policy(),
		FPS:         cfg.FPS,
		MaxDelta:    cfg.MaxDeltaS,
		Host:        hub,
		Sink:        sinks,
		Post:        cfg.Post,
		Camera:      cfg.Camera,
		Assets:      fsys,
		Models:      cfg.Models.ByTarget(),
		Marker:      cfg.Marker,
		Seed:        cfg.Seed,
		Log:         &log.Logger,
		Diagnostics: hub,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("engine")
	}
	hub.Attach(engine)

	// ---- HTTP routes ----
	mux := http.NewServeMux()
	hub.Routes(mux)

	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ---- Run server until a signal ----
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Listen).Int("fps", cfg.FPS).Int("slides", keys.Len()).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("http server")
	}

	if err := engine.Dispose(); err != nil {
		log.Warn().Err(err).Msg("dispose")
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
