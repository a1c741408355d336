package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"circulation/internal/client"
	"circulation/internal/errors"

	"github.com/spf13/cobra"
)

const defaultServerURL = "ws://localhost:8080/ws"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	serverURL   string
	timeout     time.Duration
	sessionFile string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "circulationctl",
		Short:         "Borrow, return and renew library books from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.serverURL, "server", envOr("CIRCULATION_SERVER", defaultServerURL), "server endpoint")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	flags.StringVar(&opts.sessionFile, "session-file", defaultSessionFile(), "where the session token is kept between commands")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log connection events")

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newBorrowCmd(opts),
		newReturnCmd(opts),
		newRenewCmd(opts),
		newRecordsCmd(opts),
		newSettingsCmd(opts),
		newWatchCmd(opts),
	)

	return root
}

func (o *globalOptions) logger() *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (o *globalOptions) dial(ctx context.Context) (*client.Session, error) {
	return client.Dial(ctx, o.serverURL, client.Options{
		RequestTimeout: o.timeout,
		Logger:         o.logger(),
	})
}

// resume dials and re-binds the session saved by login.
func (o *globalOptions) resume(ctx context.Context) (*client.Session, error) {
	token, err := loadToken(o.sessionFile)
	if err != nil {
		return nil, err
	}

	sess, err := o.dial(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := sess.ResumeSession(ctx, token); err != nil {
		_ = sess.Close()
		if client.IsCode(err, "SESSION_TOKEN_INVALID") {
			return nil, errors.New("saved session expired, run login again")
		}

		return nil, err
	}

	return sess, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".circulationctl-session"
	}

	return filepath.Join(dir, "circulationctl", "session")
}
