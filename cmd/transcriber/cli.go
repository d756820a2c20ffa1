package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/transcriber/bootstrap"
	"github.com/kbukum/transcriber/config"
	"github.com/kbukum/transcriber/logger"
	"github.com/kbukum/transcriber/process"
	"github.com/kbukum/transcriber/version"
)

// configFiles holds the persistent --config and --env-file flags.
type configFiles struct {
	config string
	env    string
}

func (f *configFiles) load() (*AppConfig, error) {
	opts := loaderOptions()
	if f.config != "" {
		opts = append(opts, config.WithConfigFile(f.config))
	}
	if f.env != "" {
		opts = append(opts, config.WithEnvFile(f.env))
	}
	var cfg AppConfig
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// newRootCmd serves when run without a subcommand.
func newRootCmd() *cobra.Command {
	files := &configFiles{}
	serve := func(cmd *cobra.Command, _ []string) error { return runServer(cmd.Context(), files) }

	root := &cobra.Command{
		Use:          serviceName,
		Short:        "Asynchronous audio transcription service",
		SilenceUsage: true,
		RunE:         serve,
		Version:      version.Get().String(),
	}
	root.PersistentFlags().StringVar(&files.config, "config", "", "config file (searched in ./cmd/transcriber, ./config and . when empty)")
	root.PersistentFlags().StringVar(&files.env, "env-file", "", ".env file loaded before environment variables are bound")

	root.AddCommand(
		&cobra.Command{Use: "serve", Short: "Run the HTTP service", RunE: serve},
		newDoctorCmd(files),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Run: func(cmd *cobra.Command, _ []string) {
				v := version.Get()
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", serviceName, v.String(), v.GoVersion)
			},
		},
	)
	return root
}

func runServer(ctx context.Context, files *configFiles) error {
	cfg, err := files.load()
	if err != nil {
		return err
	}
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	if err := wire(app); err != nil {
		app.Logger.Error("wiring failed", logger.Fields(logger.FieldError, err.Error()))
		return err
	}
	return app.Run(ctx)
}

var errPrerequisites = errors.New("some prerequisites are missing")

// newDoctorCmd checks what the pipeline needs at runtime without starting
// the server.
func newDoctorCmd(files *configFiles) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check ffmpeg and speech backend prerequisites",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := files.load()
			if err != nil {
				return err
			}
			cfg.ApplyDefaults()
			if !doctor(cmd.OutOrStdout(), cfg) {
				return errPrerequisites
			}
			return nil
		},
	}
}

func doctor(w io.Writer, cfg *AppConfig) bool {
	ok := true
	check := func(name string, passed bool, detail string) {
		mark := "ok  "
		if !passed {
			mark, ok = "FAIL", false
		}
		fmt.Fprintf(w, "%s %-12s %s\n", mark, name, detail)
	}

	if process.Available(cfg.Audio.Binary) {
		check("ffmpeg", true, cfg.Audio.Binary+" found")
	} else {
		check("ffmpeg", false, cfg.Audio.Binary+" not found on PATH, non-wav uploads will not be converted")
	}

	backend, err := newBackends(cfg.Recognition, logger.Nop()).Resolve(cfg.Recognition.Backend)
	switch {
	case err != nil:
		check("speech", false, err.Error())
	case backend.Configured() != nil:
		check("speech", false, backend.Name()+": "+backend.Configured().Error())
	default:
		check("speech", true, backend.Name()+" configured")
	}

	check("storage", cfg.Storage.BasePath != "", "uploads under "+cfg.Storage.BasePath)
	return ok
}
