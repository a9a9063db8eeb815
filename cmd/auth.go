package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/services"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/shared"
)

// AuthLogin authenticates against the provider and stores the credentials
// when the provider accepts them.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	server := strings.TrimSpace(cmd.String("server"))
	username := strings.TrimSpace(cmd.String("username"))
	password := cmd.String("password")

	if err := r.openStore(); err != nil {
		return err
	}

	r.logger.Info("authenticating", "server", server, "username", username)

	account, err := r.provider.Authenticate(ctx, services.Credentials{
		ServerURL: server,
		Username:  username,
		Password:  password,
	})
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrInvalidCredentials):
			return fmt.Errorf("login rejected: %w", err)
		case errors.Is(err, shared.ErrNetwork):
			return fmt.Errorf("server unreachable: %w", err)
		default:
			return fmt.Errorf("login failed: %w", err)
		}
	}

	if err := r.prefs.SaveAccountInfo(server, username, password, account.ExpiryDisplay); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	if err := r.prefs.SetLoggedIn(true); err != nil {
		return fmt.Errorf("failed to store login state: %w", err)
	}

	r.writePlain("✓ Logged in as %s\n", account.Username)
	r.writePlain("Account expires: %s\n", account.ExpiryDisplay)
	return nil
}

// AuthLogout clears stored credentials and category selections.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	if err := r.prefs.Logout(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	r.writePlain("✓ Logged out\n")
	return nil
}

// AuthStatus shows the stored login state and the most recent sync per section.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	r.writePlainHeader("Account Status")

	if !r.prefs.LoggedIn() {
		r.writePlain("Not logged in. Run 'auth login' first.\n")
		return nil
	}

	account := r.prefs.AccountInfo()
	r.writePlain("Server:   %s\n", account.ServerURL)
	r.writePlain("Username: %s\n", account.Username)
	r.writePlain("Expires:  %s\n", r.prefs.ExpiryDisplay())

	r.writePlainln("Last syncs:")
	for _, section := range models.Sections {
		run, err := r.runs.Latest(section)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				r.writePlain("  %-7s never synced\n", section)
				continue
			}
			return err
		}
		r.writePlain("  %-7s %s at %s (%d records, %d/%d categories failed)\n",
			run.Section,
			run.Status,
			run.StartedAt.Format("2006-01-02 15:04"),
			run.RecordsUpserted,
			run.CategoriesFailed,
			run.CategoriesTotal,
		)
	}

	return nil
}
