// Package main is the entry point for the mailxml command.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shineum/mailxml/internal/app"
	"github.com/shineum/mailxml/internal/config"
	"github.com/shineum/mailxml/internal/provider"
	"github.com/shineum/mailxml/internal/provider/ses"
	"github.com/shineum/mailxml/internal/provider/stdout"
	"github.com/shineum/mailxml/internal/store"
	"github.com/shineum/mailxml/internal/xmlfile"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("mailxml failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mailxml",
		Short: "Create the email XML document if absent, then read and show it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}
			_, err = a.Run(cmd.Context())
			return err
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "path to YAML configuration file (optional)")
	flags.String("dir", "", "directory holding the document (overrides storage.dir)")
	flags.String("file", "", "document file name (overrides storage.file)")
	flags.String("reader-policy", "", "handling of unknown tags: reset or keep (overrides reader.unknown_tags)")

	writeCmd := &cobra.Command{
		Use:   "write",
		Short: "Write the sample email document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}
			return a.Write(force)
		},
	}
	writeCmd.Flags().Bool("force", false, "replace an existing document")

	readCmd := &cobra.Command{
		Use:   "read",
		Short: "Read and show the email document without creating it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}
			_, err = a.Show(cmd.Context())
			return err
		},
	}

	root.AddCommand(writeCmd, readCmd)
	return root
}

// buildApp resolves configuration, sets up logging and wires the app.
func buildApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}

	setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	policy, err := cfg.UnknownTagPolicy()
	if err != nil {
		return nil, err
	}

	prov, err := selectProvider(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}

	slog.Debug("configuration resolved",
		"dir", cfg.Storage.Dir,
		"file", cfg.Storage.File,
		"unknown_tags", policy.String(),
		"provider", prov.Name(),
	)

	return app.New(app.Config{
		Store:    store.NewOS(cfg.Storage.Dir),
		File:     cfg.Storage.File,
		Parser:   xmlfile.NewParser(xmlfile.WithUnknownTags(policy)),
		Provider: prov,
	}), nil
}

// resolveConfig loads configuration (YAML + env, or env only) and applies
// flag overrides.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}

	overrides := map[string]*string{
		"dir":           &cfg.Storage.Dir,
		"file":          &cfg.Storage.File,
		"reader-policy": &cfg.Reader.UnknownTags,
	}
	for name, dst := range overrides {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return nil, err
		}
		*dst = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with the specified level
// and output format.
func setupLogger(level, format string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	// Logs go to stderr; stdout carries the printed record.
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// selectProvider chooses where the loaded record is delivered.
func selectProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case "ses":
		slog.Info("using AWS SES provider",
			"region", cfg.SES.Region,
			"sender", cfg.SES.Sender,
		)
		p, err := ses.New(ctx, ses.SESProviderConfig{
			Region:          cfg.SES.Region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
			Sender:          cfg.SES.Sender,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create SES provider: %w", err)
		}
		return p, nil

	case "none":
		return provider.Nop{}, nil

	case "stdout", "":
		return stdout.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
