package cmd

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/api"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/config"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/session"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Manage tracked categories from the command line",
}

func init() {
	categoriesCmd.AddCommand(categoriesListCmd)
	categoriesCmd.AddCommand(categoriesAddCmd)
	categoriesCmd.AddCommand(categoriesRmCmd)
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all categories, marking the selected ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cleanup, err := newAPIClient()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		cats, err := client.ListCategories(ctx)
		if err != nil {
			return fmt.Errorf("listing categories: %w", err)
		}
		prefs, err := client.LoadPreferences(ctx)
		if err != nil {
			return fmt.Errorf("loading preferences: %w", err)
		}

		if len(cats) == 0 {
			fmt.Println("No categories yet. Add one with `newspulse categories add <name>`.")
			return nil
		}

		for _, c := range cats {
			mark := " "
			if slices.Contains(prefs.SelectedCategories, c.Name) {
				mark = "x"
			}
			fmt.Printf("[%s] %s\n", mark, c.Name)
		}
		return nil
	},
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cleanup, err := newAPIClient()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		cat, err := client.CreateCategory(ctx, args[0])
		if err != nil {
			return fmt.Errorf("creating category: %w", err)
		}
		fmt.Printf("Added %q.\n", cat.Name)
		return nil
	},
}

var categoriesRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a category by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cleanup, err := newAPIClient()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		cats, err := client.ListCategories(ctx)
		if err != nil {
			return fmt.Errorf("listing categories: %w", err)
		}
		for _, c := range cats {
			if c.Name == args[0] {
				if err := client.DeleteCategory(ctx, c.ID); err != nil {
					return fmt.Errorf("deleting category: %w", err)
				}
				fmt.Printf("Removed %q.\n", c.Name)
				return nil
			}
		}
		return fmt.Errorf("no category named %q", args[0])
	},
}

func newAPIClient() (*api.Client, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := session.Open(config.SessionPath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening session store: %w", err)
	}
	if db.Token() == "" {
		db.Close()
		return nil, nil, fmt.Errorf("not logged in: run `newspulse login` first")
	}
	return api.New(cfg.ServerURL, db.Token), func() { db.Close() }, nil
}
