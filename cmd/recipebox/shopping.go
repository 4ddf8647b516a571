package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recipebox/internal/database"
	"recipebox/internal/linkmeta"
	"recipebox/internal/recipe"
	"recipebox/internal/shopping"
	"recipebox/internal/user"
)

var email string

var shoppingListCmd = &cobra.Command{
	Use:   "shopping-list",
	Short: "Inspect or reset a user's shopping list",
}

var shoppingListShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the recipes and ingredients on a user's shopping list",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withShopping(cmd.Context(), func(ctx context.Context, s *shoppingTools, userID string) error {
			items, err := s.recipes.ShoppingList(ctx, userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "Shopping list is empty.")
				return nil
			}
			for _, item := range items {
				fmt.Fprintf(out, "%s (%s)\n", item.Title, item.ID)
				for _, line := range item.Ingredients {
					fmt.Fprintf(out, "  - %s\n", line)
				}
			}
			return nil
		})
	},
}

var shoppingListClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty a user's shopping list",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withShopping(cmd.Context(), func(ctx context.Context, s *shoppingTools, userID string) error {
			if _, err := s.list.Clear(ctx, userID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shopping list of %s cleared.\n", email)
			return nil
		})
	},
}

func init() {
	shoppingListCmd.PersistentFlags().StringVar(&email, "email", "", "email of the account")
	_ = shoppingListCmd.MarkPersistentFlagRequired("email")
	shoppingListCmd.AddCommand(shoppingListShowCmd, shoppingListClearCmd)
}

type shoppingTools struct {
	list    *shopping.Service
	recipes *recipe.Service
}

func withShopping(ctx context.Context, fn func(context.Context, *shoppingTools, string) error) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	u, err := user.NewRepository(db.SQL).GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user %s: %w", email, err)
	}

	recipeRepo := recipe.NewRepository(db.SQL)
	lists := shopping.NewRepository(db.SQL)
	list := shopping.NewService(lists, recipeRepo, logger)
	tools := &shoppingTools{
		list:    list,
		recipes: recipe.NewService(recipeRepo, linkmeta.NewFetcher(cfg.LinkFetchTimeout), list, lists, logger),
	}
	logger.Debug("shopping list command", zap.String("user_id", u.ID))
	return fn(ctx, tools, u.ID)
}
