package shopping

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrRecipeNotFound is returned when a toggle would add a recipe the user
// does not own.
var ErrRecipeNotFound = errors.New("recipe not found")

// RecipeLookup reports whether a recipe exists for its owner.
type RecipeLookup interface {
	Exists(ctx context.Context, userID, recipeID string) (bool, error)
}

// Service applies shopping list operations on behalf of a signed-in user.
type Service struct {
	store   Store
	recipes RecipeLookup
	logger  *zap.Logger
}

// NewService creates a new Service.
func NewService(store Store, recipes RecipeLookup, logger *zap.Logger) *Service {
	return &Service{store: store, recipes: recipes, logger: logger}
}

// Current returns the parsed shopping list of a user.
func (s *Service) Current(ctx context.Context, userID string) (List, error) {
	raw, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Parse(raw), nil
}

// Toggle adds recipeID to the user's list or removes it if already there, and
// returns the new raw list. Only recipes the user owns can be added; an ID
// already on the list can always be taken off.
func (s *Service) Toggle(ctx context.Context, userID, recipeID string) (string, error) {
	if err := ValidID(recipeID); err != nil {
		return "", fmt.Errorf("toggle %q: %w", recipeID, err)
	}

	exists, err := s.recipes.Exists(ctx, userID, recipeID)
	if err != nil {
		return "", err
	}
	if !exists {
		list, err := s.Current(ctx, userID)
		if err != nil {
			return "", err
		}
		if !list.Contains(recipeID) {
			return "", fmt.Errorf("toggle %q: %w", recipeID, ErrRecipeNotFound)
		}
	}

	raw, err := s.store.Toggle(ctx, userID, recipeID)
	if err != nil {
		return "", err
	}

	s.logger.Debug("shopping list toggled",
		zap.String("user_id", userID),
		zap.String("recipe_id", recipeID),
		zap.Bool("included", Parse(raw).Contains(recipeID)))
	return raw, nil
}

// Clear empties the user's list.
func (s *Service) Clear(ctx context.Context, userID string) (string, error) {
	if err := s.store.Replace(ctx, userID, ""); err != nil {
		return "", err
	}
	s.logger.Debug("shopping list cleared", zap.String("user_id", userID))
	return "", nil
}
