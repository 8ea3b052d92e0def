package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/milespries/script-studio-ai/internal/config"
	"github.com/milespries/script-studio-ai/internal/llm"
	"github.com/milespries/script-studio-ai/internal/logging"
	"github.com/milespries/script-studio-ai/internal/script"
	"github.com/milespries/script-studio-ai/internal/server"
	"github.com/milespries/script-studio-ai/internal/session"
	"github.com/milespries/script-studio-ai/internal/studio"
	"github.com/milespries/script-studio-ai/internal/tui"
)

const healthCheckTimeout = 2 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "scriptstudio",
		Short:         "Generate short-form video scripts and rewrite parts of them with AI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default ~/.config/scriptstudio/config.yaml)")

	loadConfig := func() (*config.Config, error) {
		if configPath != "" {
			return config.LoadFrom(configPath)
		}
		return config.Load()
	}
	root.AddCommand(newServeCmd(loadConfig), newStudioCmd(loadConfig))
	return root
}

func newServeCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var (
		addr     string
		provider string
		model    string
		logLevel string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the script HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("provider") {
				cfg.LLM.Provider = provider
			}
			if cmd.Flags().Changed("model") {
				cfg.LLM.Model = model
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = logLevel
			}

			logger, err := logging.New(logging.Config{Level: cfg.Log.Level})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			gateway, err := llm.New(llm.Config{
				Provider: cfg.LLM.Provider,
				Model:    cfg.LLM.Model,
				Endpoint: cfg.LLM.BaseURL,
				APIKey:   cfg.LLM.APIKey,
				Logger:   logger,
			})
			if err != nil {
				if !errors.Is(err, llm.ErrNotConfigured) {
					return err
				}
				logger.Warn("language model disabled; script requests will fail until it is configured", zap.Error(err))
				gateway = nil
			} else {
				logger.Info("language model ready", zap.String("gateway", gateway.Name()))
			}

			service := script.NewService(gateway, script.Options{
				Logger:          logger,
				MaxPromptTokens: cfg.LLM.MaxPromptTokens,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(service, logger).Run(ctx, cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides PORT)")
	cmd.Flags().StringVar(&provider, "provider", "", "language model provider: openai or ollama")
	cmd.Flags().StringVar(&model, "model", "", "model name")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	return cmd
}

func newStudioCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var (
		apiURL      string
		store       string
		storePath   string
		logFile     string
		undoDepth   int
		noAltScreen bool
	)
	cmd := &cobra.Command{
		Use:   "studio",
		Short: "Open the terminal script studio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("api-url") {
				cfg.Studio.APIURL = apiURL
			}
			if cmd.Flags().Changed("store") {
				cfg.Studio.Store = store
				if !cmd.Flags().Changed("store-path") {
					cfg.Studio.StorePath = defaultStorePath(cfg.Studio.StorePath, store)
				}
			}
			if cmd.Flags().Changed("store-path") {
				cfg.Studio.StorePath = storePath
			}
			if cmd.Flags().Changed("log-file") {
				cfg.Studio.LogFile = logFile
			}

			logger, err := logging.New(logging.Config{Level: cfg.Log.Level, File: cfg.Studio.LogFile})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			sessions, err := session.Open(cfg.Studio.Store, cfg.Studio.StorePath, logger)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			defer func() { _ = sessions.Close() }()

			api := studio.NewAPIClient(cfg.Studio.APIURL, &http.Client{Timeout: 2 * time.Minute}, logger)
			checkCtx, cancel := context.WithTimeout(cmd.Context(), healthCheckTimeout)
			if err := api.Health(checkCtx); err != nil {
				logger.Warn("script service not reachable", zap.String("url", api.BaseURL()), zap.Error(err))
			}
			cancel()

			opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
			if !noAltScreen {
				opts = append(opts, tea.WithAltScreen())
			}
			program := tea.NewProgram(tui.New(tui.Config{
				API:       api,
				Store:     sessions,
				Logger:    logger,
				UndoDepth: undoDepth,
			}), opts...)
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("program error: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&apiURL, "api-url", "", "base URL of the script service")
	cmd.Flags().StringVar(&store, "store", "", "session store: json or sqlite")
	cmd.Flags().StringVar(&storePath, "store-path", "", "session file location")
	cmd.Flags().StringVar(&logFile, "log-file", "", "log file location")
	cmd.Flags().IntVar(&undoDepth, "undo-depth", 1, "number of AI edits that can be undone")
	cmd.Flags().BoolVar(&noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")
	return cmd
}

// defaultStorePath keeps the configured directory but picks the file name
// that matches kind.
func defaultStorePath(current, kind string) string {
	name := "session.json"
	if kind == config.StoreSQLite {
		name = "session.db"
	}
	return filepath.Join(filepath.Dir(current), name)
}
