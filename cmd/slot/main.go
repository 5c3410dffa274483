// Package main is the entry point for the slot machine.
package main

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"slot-machine/internal/assets"
	"slot-machine/internal/audio"
	"slot-machine/internal/bot"
	"slot-machine/internal/config"
	"slot-machine/internal/driver"
	"slot-machine/internal/effects"
	"slot-machine/internal/game/slot"
	"slot-machine/internal/input"
	"slot-machine/internal/metrics"
	"slot-machine/internal/pkg/db"
	"slot-machine/internal/render"
	"slot-machine/internal/repository"
	"slot-machine/internal/server"
	"slot-machine/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		setupLogger(&config.LogConfig{Level: "info"})
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogger(&cfg.Log)

	log.Info().
		Str("store", cfg.Store.Driver).
		Int64("bet", cfg.Game.BetAmount).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// High score store
	repo, health, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open high score store")
	}
	defer closeStore()

	scores := service.NewHighScoreService(repo, cfg.Store.Key)
	initialHigh := scores.Load(ctx)

	// Collaborators
	rng := newRand(cfg.Game.Seed)
	particles := effects.NewSystem(newRand(particleSeed(cfg.Game.Seed)))

	player, err := audio.NewPlayer(audio.DefaultBank(), audio.NewTerminalSink(os.Stdout, cfg.Audio.Bell), cfg.Audio.Workers)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create audio player")
	}
	defer player.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observer := metrics.New(reg)

	machine := slot.NewMachine(&slot.Config{
		InitialCoins:  cfg.Game.InitialCoins,
		BetAmount:     cfg.Game.BetAmount,
		ClearCoins:    cfg.Game.ClearCoins,
		FeverTurns:    cfg.Game.FeverTurns,
		FlashDuration: cfg.Game.FlashDuration,
		StripLength:   cfg.Game.StripLength,
		SymbolSize:    cfg.Layout.SymbolSize,
		Layout: slot.Layout{
			CanvasWidth:  cfg.Layout.CanvasWidth,
			CanvasHeight: cfg.Layout.CanvasHeight,
			ReelWidth:    cfg.Layout.ReelWidth,
			ReelHeight:   cfg.Layout.ReelHeight,
			ReelGap:      cfg.Layout.ReelGap,
		},
		Preload: cfg.Game.Preload,
	}, &slot.Dependencies{
		Audio:            player,
		Particles:        particles,
		HighScore:        scores,
		Observer:         observer,
		RNG:              rng,
		InitialHighScore: initialHigh,
	})

	art := assets.NewSet()
	renderers := []driver.Renderer{render.NewConsole(os.Stdout, art)}

	var drv *driver.Driver

	// Optional Telegram front end. Handlers fire only after Start, by which
	// time drv is set.
	var telegram *bot.Bot
	if cfg.Bot.Token != "" {
		telegram, err = bot.New(cfg, activateFunc(func() { drv.Activate() }))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create bot")
		}
	}

	var notifier *bot.Notifier
	if telegram != nil {
		notifier = bot.NewNotifier(telegram.Sender(), telegram.Chats, telegram.Markup())
		renderers = append(renderers, notifier)
	}

	drvCfg := &driver.Config{TickRate: cfg.Driver.TickRate, InputBuffer: cfg.Driver.InputBuffer}
	drv = driver.New(machine, drvCfg, &driver.Dependencies{
		Particles: particles,
		Renderers: renderers,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		assets.NewLoader(cfg.Assets.Dir).Load(gctx, art, drv.AssetsLoaded)
		log.Info().Int("loaded", art.Loaded()).Int("failed", art.Failed()).Msg("Assets ready")
		return nil
	})

	g.Go(func() error {
		scores.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.Info().Dur("frame", drvCfg.Interval()).Msg("Slot machine is running")
		return ignoreCanceled(drv.Run(gctx))
	})

	if cfg.Input.Enabled {
		term := input.NewTerminal(os.Stdin, drv, cfg.Input.Debounce)
		g.Go(func() error {
			return ignoreCanceled(term.Run(gctx))
		})
	}

	if cfg.HTTP.Enabled {
		srv := server.New(drv, server.Options{
			Addr:        cfg.HTTP.Addr,
			CORSOrigins: cfg.HTTP.CORSOrigins,
			Gatherer:    reg,
			Health:      health,
		})
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	if telegram != nil {
		g.Go(func() error {
			notifier.Run(gctx)
			return nil
		})
		go telegram.Start()
		g.Go(func() error {
			<-gctx.Done()
			telegram.Stop()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Slot machine stopped with error")
	}

	// Final write with a fresh context; the run context is already done.
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := scores.Flush(flushCtx); err != nil {
		log.Warn().Err(err).Msg("Failed to flush high score")
	}

	log.Info().Msg("Slot machine stopped gracefully")
}

// setupLogger configures the global zerolog logger. Console output always
// goes to stderr; a rotating file is added when cfg.File is set.
func setupLogger(cfg *config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, file)
	}
	log.Logger = log.Output(out)
}

// openStore builds the high score repository selected by cfg.Store.Driver.
// The returned checker is nil for the in-memory store.
func openStore(ctx context.Context, cfg *config.Config) (repository.HighScoreRepository, server.HealthChecker, func(), error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		repo := repository.NewPostgresHighScoreRepository(pool.Pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return repo, pool, pool.Close, nil

	case config.StoreRedis:
		rdb, err := db.NewRedis(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close Redis")
			}
		}
		return repository.NewRedisHighScoreRepository(rdb.UniversalClient), rdb, closeFn, nil

	default:
		log.Info().Msg("Using in-memory high score store")
		return repository.NewMemoryHighScoreRepository(), nil, func() {}, nil
	}
}

// newRand returns a seeded generator, or a randomly seeded one for seed 0.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// particleSeed keeps particle draws off the reel stream for fixed seeds.
func particleSeed(seed uint64) uint64 {
	if seed == 0 {
		return 0
	}
	return seed + 1
}

type activateFunc func()

func (fn activateFunc) Activate() { fn() }

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
