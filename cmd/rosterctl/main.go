// Package main запускает консольный клиент для просмотра и редактирования состава команды.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"team-roster-service/internal/client"
	"team-roster-service/internal/editor"
)

const programName = "rosterctl"

type globalFlags struct {
	url        string
	token      string
	collective string
	timeout    time.Duration
	debug      bool
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func newRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Inspect and edit collective team rosters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	rootCmd.PersistentFlags().
		StringVar(&flags.url, "url", envOr("ROSTERCTL_URL", "http://localhost:8080"), "roster service base URL")
	rootCmd.PersistentFlags().
		StringVar(&flags.token, "token", os.Getenv("ROSTERCTL_TOKEN"), "bearer token")
	rootCmd.PersistentFlags().
		StringVarP(&flags.collective, "collective", "c", os.Getenv("ROSTERCTL_COLLECTIVE"), "collective id")
	rootCmd.PersistentFlags().
		DurationVar(&flags.timeout, "timeout", 30*time.Second, "request timeout")
	rootCmd.PersistentFlags().
		BoolVarP(&flags.debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(showCommand(flags))
	rootCmd.AddCommand(addCommand(flags))
	rootCmd.AddCommand(setCommand(flags))
	rootCmd.AddCommand(removeCommand(flags))
	rootCmd.AddCommand(searchCommand(flags))
	rootCmd.AddCommand(tokenCommand())

	return rootCmd
}

// session: клиент и загруженный редактор для одной команды.
type session struct {
	client *client.Client
	editor *editor.Editor
}

func openSession(ctx context.Context, cmd *cobra.Command, flags *globalFlags, confirm editor.Confirmer) (*session, error) {
	if flags.collective == "" {
		return nil, errors.New("--collective is required")
	}

	level := slog.LevelWarn
	if flags.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	c := client.New(flags.url, client.WithToken(flags.token))
	ed := editor.New(flags.collective, c, confirm,
		editor.WithLogger(logger),
		editor.WithUserRefresher(c),
	)
	if err := ed.Load(ctx); err != nil {
		return nil, err
	}
	return &session{client: c, editor: ed}, nil
}

func main() {
	if err := newRootCommand(os.Stdin, os.Stdout).Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
