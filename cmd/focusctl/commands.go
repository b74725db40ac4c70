package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/focus-backend/internal/adapter/postgres"
	"github.com/heartmarshall/focus-backend/internal/app"
	"github.com/heartmarshall/focus-backend/internal/auth"
	"github.com/heartmarshall/focus-backend/internal/config"
	"github.com/heartmarshall/focus-backend/internal/domain"
)

const commandTimeout = 5 * time.Minute

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			results, err := postgres.Migrate(ctx, cfg.Database.DSN)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s (%s)\n", r.Source.Path, r.Duration)
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			statuses, err := postgres.MigrationStatus(ctx, cfg.Database.DSN)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tFILE")
			for _, s := range statuses {
				applied := "-"
				if !s.AppliedAt.IsZero() {
					applied = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
			}
			return w.Flush()
		},
	})

	return cmd
}

func newTimersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timers",
		Short: "Inspect and recover active timers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every active timer with its remaining time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				snaps, err := a.Engine().RecoverAll(ctx)
				if err != nil {
					return err
				}
				return printTimers(cmd.OutOrStdout(), snaps)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "recover",
		Short: "Complete every timer that expired while no driver was running",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				n, err := a.Driver().Sweep(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "completed %d expired timer(s)\n", n)
				return nil
			})
		},
	})

	return cmd
}

func newTokenCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := uuid.Parse(user)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL, nil)
			token, err := tokens.GenerateAccessToken(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user ID the token is issued for")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// withApp connects to the database, wires the application and runs fn.
func withApp(parent context.Context, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(parent, commandTimeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		return err
	}
	defer pool.Close()

	a, err := app.New(cfg, logger, pool, clockwork.NewRealClock())
	if err != nil {
		return err
	}
	return fn(ctx, a)
}

func printTimers(out io.Writer, snaps []domain.TimerSnapshot) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tMODE\tTARGET\tREMAINING\tSTATE")
	for _, s := range snaps {
		state := "running"
		switch {
		case s.Expired:
			state = "expired"
		case s.Timer.IsPaused:
			state = "paused"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.Timer.UserID, s.Timer.Mode, s.Timer.FocusTarget,
			time.Duration(s.RemainingSeconds)*time.Second, state)
	}
	return w.Flush()
}
