package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/DoyleJ11/dbd-character-picker/internal/config"
	"github.com/DoyleJ11/dbd-character-picker/internal/console"
	"github.com/DoyleJ11/dbd-character-picker/internal/engine"
	"github.com/DoyleJ11/dbd-character-picker/internal/logging"
)

type cli struct {
	Play playCmd `cmd:"" default:"1" help:"Pick characters interactively."`
}

type playCmd struct {
	Settings string `help:"Path to the settings file (created with defaults if missing)." default:"${settings}" type:"path"`
	LogLevel string `help:"Log level." default:"warn" enum:"debug,info,warn,error"`
	Seed     uint64 `help:"Seed for reproducible picks. 0 uses a random seed."`
}

func (p *playCmd) Run(ctx context.Context) error {
	logger, err := logging.New(p.LogLevel, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	settings, err := config.Load(p.Settings, logger)
	if err != nil {
		return err
	}

	var opts []engine.Option
	if p.Seed != 0 {
		opts = append(opts, engine.WithSource(rand.New(rand.NewPCG(p.Seed, p.Seed))))
	}
	eng, err := engine.New(settings.EngineConfig(), opts...)
	if err != nil {
		return fmt.Errorf("invalid settings in %s: %w", p.Settings, err)
	}
	logger.Debug("engine ready",
		zap.String("team", string(eng.ActiveTeam())),
		zap.String("strategy", string(eng.Strategy())))

	return console.New(eng, os.Stdin, os.Stdout, logger).Run(ctx)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()

	parser, err := kong.New(&cli{},
		kong.Name("picker"),
		kong.Description("Pick a killer or survivor to play, without immediate repeats."),
		kong.Vars{"settings": config.DefaultSettingsFile},
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.UsageOnError(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	parser.FatalIfErrorf(kctx.Run())
}
