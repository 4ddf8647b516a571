package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"recipebox/internal/recipe"
)

type recipesResponse struct {
	ShoppingList []string        `json:"shoppingList"`
	Recipes      []recipe.Recipe `json:"recipes"`
}

type formErrorResponse struct {
	LastResult struct {
		Errors recipe.FieldErrors `json:"errors"`
	} `json:"lastResult"`
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	list, err := s.shopping.Current(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	recipes, err := s.recipes.List(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recipesResponse{ShoppingList: list, Recipes: recipes})
}

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	in, ok := s.parseRecipeForm(w, r)
	if !ok {
		return
	}
	if _, err := s.recipes.Create(r.Context(), userID, in); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/recipes", http.StatusSeeOther)
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	rec, err := s.recipes.Get(r.Context(), userID, chi.URLParam(r, "recipeId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipe": rec})
}

func (s *Server) handleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	in, ok := s.parseRecipeForm(w, r)
	if !ok {
		return
	}
	if _, err := s.recipes.Update(r.Context(), userID, chi.URLParam(r, "recipeId"), in); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/recipes", http.StatusSeeOther)
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	if err := s.recipes.Delete(r.Context(), userID, chi.URLParam(r, "recipeId")); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/recipes", http.StatusSeeOther)
}

func (s *Server) handleAutofill(w http.ResponseWriter, r *http.Request) {
	meta, err := s.links.Fetch(r.Context(), r.URL.Query().Get("link"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": meta})
}

// parseRecipeForm validates the submitted form. On failure the field errors
// have already been written.
func (s *Server) parseRecipeForm(w http.ResponseWriter, r *http.Request) (recipe.Input, bool) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return recipe.Input{}, false
	}

	in, errs := recipe.Validate(r.PostForm)
	if len(errs) > 0 {
		var resp formErrorResponse
		resp.LastResult.Errors = errs
		writeJSON(w, http.StatusBadRequest, resp)
		return recipe.Input{}, false
	}
	return in, true
}
