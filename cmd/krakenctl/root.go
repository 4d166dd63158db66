package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"krakenkit/pkg/auth"
	"krakenkit/pkg/core"
	"krakenkit/pkg/rest"
)

var RootCmd = &cobra.Command{
	Use:   "krakenctl",
	Short: "Query the Kraken REST and WebSocket APIs",

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		viper.SetEnvPrefix("krakenctl")
		viper.AutomaticEnv()
		return viper.BindPFlags(cmd.Flags())
	},
}

func init() {
	persistentFlags(RootCmd.PersistentFlags())
}

func persistentFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (default: kraken.yaml in . or ./configs)")
	flags.String("log-level", "", "log level: trace, debug, info, warn or error")
	flags.String("base-url", "", "REST base URL")
	flags.String("tier", "", "verification tier: starter, intermediate or pro")
	flags.Duration("timeout", 0, "per command timeout")
	flags.Bool("dotenv", true, "load credentials from .env")
}

// loadConfig reads core.Config and applies command line overrides.
func loadConfig() (*core.Config, error) {
	cfg, err := core.LoadConfig(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	if s := viper.GetString("base-url"); s != "" {
		cfg.WithBaseURL(s)
	}
	if s := viper.GetString("tier"); s != "" {
		tier, err := core.ParseTier(s)
		if err != nil {
			return nil, err
		}
		cfg.WithTier(tier)
	}
	if s := viper.GetString("log-level"); s != "" {
		cfg.LogLevel = s
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *core.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

// commandContext bounds a command by --timeout when it is set.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	if d := viper.GetDuration("timeout"); d > 0 {
		return context.WithTimeout(cmd.Context(), d)
	}
	return context.WithCancel(cmd.Context())
}

type environment struct {
	config *core.Config
	logger zerolog.Logger
	client *rest.RateLimitedClient
}

func newEnvironment() (*environment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	var envOpts []auth.EnvOption
	envOpts = append(envOpts, auth.WithLogger(logger))
	if viper.GetBool("dotenv") {
		envOpts = append(envOpts, auth.WithDotEnv())
	}

	client, err := rest.NewRateLimitedClient(cfg,
		rest.WithLogger(logger),
		rest.WithSecrets(auth.NewEnvProvider(cfg.KeyEnv, cfg.SecretEnv, envOpts...)),
	)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &environment{config: cfg, logger: logger, client: client}, nil
}

func (e *environment) Close() {
	_ = e.client.Close()
}
