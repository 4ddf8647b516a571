package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type shoppingListResponse struct {
	OK           bool   `json:"ok"`
	Message      string `json:"message"`
	ShoppingList string `json:"shoppingList"`
}

func (s *Server) handleShoppingList(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	items, err := s.recipes.ShoppingList(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipes": items})
}

func (s *Server) handleToggleShoppingList(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	raw, err := s.shopping.Toggle(r.Context(), userID, chi.URLParam(r, "recipeId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shoppingListResponse{
		OK:           true,
		Message:      "Shopping list updated successfully",
		ShoppingList: raw,
	})
}

func (s *Server) handleClearShoppingList(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	raw, err := s.shopping.Clear(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shoppingListResponse{
		OK:           true,
		Message:      "Shopping list cleared successfully",
		ShoppingList: raw,
	})
}
