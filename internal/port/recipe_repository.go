package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/quantum/stock-ledger/internal/core/domain"
)

type RecipeRepository interface {
	// IngredientsForMenuItem returns a menu item's recipe in the order
	// it was defined. An empty recipe is legal.
	IngredientsForMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]domain.Ingredient, error)
}
