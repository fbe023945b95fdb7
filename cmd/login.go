package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/api"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/config"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store an access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		username, password, err := promptCredentials()
		if err != nil {
			return err
		}

		client := api.New(cfg.ServerURL, func() string { return "" })
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		token, err := client.Login(ctx, username, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		db, err := session.Open(config.SessionPath())
		if err != nil {
			return fmt.Errorf("opening session store: %w", err)
		}
		defer db.Close()

		if err := db.SetToken(token); err != nil {
			return fmt.Errorf("storing token: %w", err)
		}
		// A new login starts a fresh assistant conversation.
		if err := db.Delete(session.KeySessionSeen); err != nil {
			return fmt.Errorf("resetting session: %w", err)
		}

		fmt.Printf("Logged in as %s.\n", username)
		return nil
	},
}

func promptCredentials() (username, password string, err error) {
	fmt.Print("Username: ")
	reader := bufio.NewReader(os.Stdin)
	username, err = reader.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("reading username: %w", err)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return "", "", fmt.Errorf("username is required")
	}

	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("reading password: %w", err)
	}
	if len(raw) == 0 {
		return "", "", fmt.Errorf("password is required")
	}

	return username, string(raw), nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := session.Open(config.SessionPath())
		if err != nil {
			return fmt.Errorf("opening session store: %w", err)
		}
		defer db.Close()

		if err := db.ClearToken(); err != nil {
			return fmt.Errorf("clearing token: %w", err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}
