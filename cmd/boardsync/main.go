// boardsync keeps one board in sync from a terminal. Mutations are applied locally
// first, persisted over REST and announced to the board room; remote changes from
// other collaborators are merged as they arrive.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/afnanahmadtariq/collab-pm/internal/board"
	"github.com/afnanahmadtariq/collab-pm/internal/client"
)

type options struct {
	apiURL   string
	wsURL    string
	token    string
	boardID  string
	orgID    string
	timeout  time.Duration
	logLevel string
}

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "boardsync --board <id>",
		Short:        "Edit a board from the terminal with optimistic updates",
		Long:         helpText,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, in, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.apiURL, "api", envOr("COLLAB_PM_API_URL", "http://localhost:8000/api"), "REST base URL")
	flags.StringVar(&opts.wsURL, "ws", os.Getenv("COLLAB_PM_WS_URL"), "websocket URL (default: derived from --api)")
	flags.StringVar(&opts.token, "token", os.Getenv("COLLAB_PM_TOKEN"), "bearer token")
	flags.StringVar(&opts.boardID, "board", "", "board id")
	flags.StringVar(&opts.orgID, "org", "", "organization id to join for presence")
	flags.DurationVar(&opts.timeout, "timeout", board.DefaultTimeout, "per-request timeout")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "debug|info|warn|error")
	_ = cmd.MarkFlagRequired("board")

	return cmd
}

func run(ctx context.Context, opts *options, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.token == "" {
		return fmt.Errorf("--token (or COLLAB_PM_TOKEN) is required")
	}
	boardID, err := uuid.Parse(opts.boardID)
	if err != nil {
		return fmt.Errorf("invalid --board: %w", err)
	}
	var orgID uuid.UUID
	if opts.orgID != "" {
		if orgID, err = uuid.Parse(opts.orgID); err != nil {
			return fmt.Errorf("invalid --org: %w", err)
		}
	}
	wsURL := opts.wsURL
	if wsURL == "" {
		wsURL = deriveWebSocketURL(opts.apiURL)
	}

	logger, err := newLogger(opts.logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	api := client.NewBoardAPIClient(opts.apiURL, opts.token, opts.timeout, logger, nil)
	b, err := api.FetchBoard(ctx, boardID)
	if err != nil {
		return fmt.Errorf("failed to load board: %w", err)
	}

	sock := client.NewSocketClient(wsURL, opts.token, logger)
	sess := newSession(b, api, sock, opts.timeout, out, logger)
	sess.subscribe(sock.On)

	if err := sock.Connect(ctx); err != nil {
		// REST still works; the board just won't see other collaborators
		logger.Warn("Realtime unavailable, continuing offline", zap.Error(err))
	} else {
		defer sock.Close()
		if err := sock.JoinBoard(boardID); err != nil {
			logger.Warn("Failed to join board room", zap.Error(err))
		}
		if orgID != uuid.Nil {
			if err := sock.JoinOrganization(orgID); err != nil {
				logger.Warn("Failed to join organization room", zap.Error(err))
			}
		}
		go func() {
			select {
			case <-sock.Done():
				if ctx.Err() == nil {
					sess.printf("! realtime connection lost\n")
				}
			case <-ctx.Done():
			}
		}()
	}

	runErr := sess.run(ctx, in)

	drainCtx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()
	if err := sess.drain(drainCtx); err != nil {
		logger.Warn("Exited with unconfirmed changes", zap.Error(err))
	}
	return runErr
}

// deriveWebSocketURL maps http(s)://host/api to ws(s)://host/api/ws
func deriveWebSocketURL(apiURL string) string {
	u := strings.TrimRight(apiURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newLogger writes console logs to stderr so stdout stays readable
func newLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.OutputPaths = []string{"stderr"}
	config.DisableStacktrace = true
	return config.Build()
}
