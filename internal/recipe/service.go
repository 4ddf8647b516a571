package recipe

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recipebox/internal/linkmeta"
	"recipebox/internal/shopping"
)

// LinkFetcher scrapes metadata of a recipe link.
type LinkFetcher interface {
	Fetch(ctx context.Context, link string) (linkmeta.Metadata, error)
}

// ShoppingList is the part of the shopping list service the catalog needs.
type ShoppingList interface {
	Current(ctx context.Context, userID string) (shopping.List, error)
}

// ListCleaner takes a recipe off its owner's shopping list inside a
// transaction.
type ListCleaner interface {
	Remove(ctx context.Context, tx *sql.Tx, userID, recipeID string) (string, error)
}

// ShoppingItem is a recipe on the shopping list with its ingredient checklist.
type ShoppingItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
}

// Service implements the recipe catalog of a user.
type Service struct {
	repo     *Repository
	links    LinkFetcher
	shopping ShoppingList
	cleaner  ListCleaner
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new Service.
func NewService(repo *Repository, links LinkFetcher, list ShoppingList, cleaner ListCleaner, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		links:    links,
		shopping: list,
		cleaner:  cleaner,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create saves a new recipe for the user.
func (s *Service) Create(ctx context.Context, userID string, in Input) (*Recipe, error) {
	now := s.now()
	rec := Recipe{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	rec.apply(in)

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("recipe created", zap.String("user_id", userID), zap.String("recipe_id", rec.ID))
	return &rec, nil
}

// Get returns one recipe of the user.
func (s *Service) Get(ctx context.Context, userID, id string) (*Recipe, error) {
	return s.repo.Get(ctx, userID, id)
}

// List returns every recipe of the user, oldest first.
func (s *Service) List(ctx context.Context, userID string) ([]Recipe, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Update replaces the editable fields of a recipe. When the link changes, the
// image and favicon are scraped again from the new link.
func (s *Service) Update(ctx context.Context, userID, id string, in Input) (*Recipe, error) {
	rec, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Link != rec.Link {
		meta, err := s.links.Fetch(ctx, in.Link)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh metadata for recipe %s: %w", id, err)
		}
		in.Image = meta.Image
		in.Favicon = meta.Favicon
	}

	rec.apply(in)
	rec.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, *rec); err != nil {
		return nil, err
	}
	s.logger.Info("recipe updated", zap.String("user_id", userID), zap.String("recipe_id", id))
	return rec, nil
}

// Delete removes a recipe and takes it off the user's shopping list.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	err := s.repo.Delete(ctx, userID, id, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := s.cleaner.Remove(ctx, tx, userID, id); err != nil {
			return fmt.Errorf("failed to remove deleted recipe %s from shopping list: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("recipe deleted", zap.String("user_id", userID), zap.String("recipe_id", id))
	return nil
}

// ShoppingList returns the recipes on the user's shopping list together with
// their ingredient lines.
func (s *Service) ShoppingList(ctx context.Context, userID string) ([]ShoppingItem, error) {
	list, err := s.shopping.Current(ctx, userID)
	if err != nil {
		return nil, err
	}

	recipes, err := s.repo.ListByIDs(ctx, userID, list)
	if err != nil {
		return nil, err
	}

	items := make([]ShoppingItem, 0, len(recipes))
	for _, rec := range recipes {
		items = append(items, ShoppingItem{
			ID:          rec.ID,
			Title:       rec.Title,
			Ingredients: IngredientLines(rec.Ingredients),
		})
	}
	return items, nil
}
