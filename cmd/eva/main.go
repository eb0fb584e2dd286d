// Package main is the entry point for the Eva terminal client.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eva-wellness/eva/internal/client"
	"github.com/eva-wellness/eva/internal/service"
	"github.com/eva-wellness/eva/internal/store"
	"github.com/eva-wellness/eva/internal/tui"
	"github.com/eva-wellness/eva/pkg/logger"
)

type options struct {
	server     string
	timeout    time.Duration
	configPath string
	logFile    string
	logLevel   string
	plain      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "eva",
		Short:         "Chat with Eva, an emotional support assistant",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.configPath != "" {
				if err := applyFileConfig(cmd, opts); err != nil {
					return err
				}
			}
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.server, "server", client.DefaultServerURL, "Eva API server URL")
	flags.DurationVar(&opts.timeout, "timeout", 0, "per-message timeout (0 uses the server's limit plus a margin)")
	flags.StringVar(&opts.configPath, "config", "", "optional TOML config file")
	flags.StringVar(&opts.logFile, "log-file", filepath.Join(os.TempDir(), "eva.log"), "file to write logs to")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level")
	flags.BoolVar(&opts.plain, "plain", false, "show replies as plain text instead of markdown")

	return cmd
}

// applyFileConfig fills options from the config file. Flags set on the
// command line win.
func applyFileConfig(cmd *cobra.Command, opts *options) error {
	fc, err := client.LoadFileConfig(opts.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if fc.Server != "" && !flags.Changed("server") {
		opts.server = fc.Server
	}
	if fc.Timeout > 0 && !flags.Changed("timeout") {
		opts.timeout = fc.Timeout
	}
	if fc.LogFile != "" && !flags.Changed("log-file") {
		opts.logFile = fc.LogFile
	}
	return nil
}

func run(ctx context.Context, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log, err := logger.NewFile(opts.logFile, opts.logLevel)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = log.Sync() }()

	sess := store.NewSession(uuid.Must(uuid.NewV7()).String(), "")
	log.Info("starting terminal client",
		zap.String("server", opts.server),
		zap.String("session_id", sess.ID()),
	)

	broker := service.NewBroker()
	defer broker.Close()
	events, unsubscribe := broker.Subscribe(sess.ID())
	defer unsubscribe()

	svc := service.NewChatService(
		client.New(opts.server, opts.timeout),
		log,
		service.WithBroker(broker),
	)

	m := tui.New(ctx, sess, svc, events, tui.Options{
		ServerURL: opts.server,
		Markdown:  !opts.plain,
		Logger:    log,
	})

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Error("terminal client exited with error", zap.Error(err))
		return err
	}
	return nil
}
