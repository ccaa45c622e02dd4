package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/driftsync/pkg/config"
	"github.com/xaionaro-go/driftsync/pkg/mediaio"
	"github.com/xaionaro-go/driftsync/pkg/mediaio/implementations/ffmpeg"
	"github.com/xaionaro-go/observability"
	_ "github.com/xaionaro-go/driftsync/pkg/mediaio/implementations/oggvorbis"
	_ "github.com/xaionaro-go/driftsync/pkg/mediaio/implementations/wav"
)

// cliApp is the state shared by the commands.
type cliApp struct {
	configPath   string
	loggerLevel  logger.Level
	netPprofAddr string

	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config
}

func newRootCommand(app *cliApp) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "driftsync",
		Short:         "Align an audio track to a reference whose timing drifts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	app.registerFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newSyncCommand(app))
	rootCmd.AddCommand(newSegmentsCommand(app))
	rootCmd.AddCommand(newOffsetCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))
	return rootCmd
}

func (app *cliApp) registerFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&app.configPath, "config", "c", "", "Configuration file path (TOML)")
	flags.Var(&app.loggerLevel, "log-level", "Log level (overrides log.level of the configuration)")
	flags.StringVar(&app.netPprofAddr, "net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
}

func (app *cliApp) init(cmd *cobra.Command) error {
	cfg := config.Default()
	if app.configPath != "" {
		loaded, err := config.Load(app.configPath, false)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	app.config = &cfg

	level := app.loggerLevel
	if level == logger.LevelUndefined {
		var err error
		level, err = cfg.LogLevel()
		if err != nil {
			return err
		}
	}

	l := logrus.Default().WithLevel(level)
	ctx := logger.CtxWithLogger(cmd.Context(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	ctx, app.cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	app.ctx = ctx
	cmd.SetContext(ctx)
	logger.Debugf(ctx, "config: %#+v", cfg)

	if app.netPprofAddr != "" {
		observability.Go(ctx, func() { l.Error(http.ListenAndServe(app.netPprofAddr, nil)) })
	}
	return nil
}

// media returns the registered backends configured according to
// the media section of the configuration.
func (app *cliApp) media() *mediaio.Auto {
	backends := mediaio.Backends()
	for _, backend := range backends {
		if b, ok := backend.(*ffmpeg.Backend); ok {
			b.FFmpegPath = app.config.Media.FFmpegPath
			b.FFprobePath = app.config.Media.FFprobePath
		}
	}
	return mediaio.NewAuto(backends...)
}

func exactArgs(n int, names string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("expected %d arguments (%s), got %d", n, names, len(args))
		}
		return nil
	}
}
