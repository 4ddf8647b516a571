package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recipebox/internal/auth"
	"recipebox/internal/database"
	"recipebox/internal/linkmeta"
	"recipebox/internal/metrics"
	"recipebox/internal/recipe"
	"recipebox/internal/shopping"
	"recipebox/internal/user"
	"recipebox/internal/web"
)

// fakeProvider signs in whoever's email is passed as the authorization code.
type fakeProvider struct{}

func (fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (fakeProvider) Exchange(_ context.Context, code string) (user.Identity, error) {
	if code == "bad" {
		return user.Identity{}, errors.New("exchange refused")
	}
	return user.Identity{Email: code, Name: "Test Cook"}, nil
}

type env struct {
	app      *httptest.Server
	pages    *httptest.Server
	db       *database.DB
	shopping *shopping.Service
	users    *user.Repository
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "web.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pages := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head>
			<title>Lemon Pasta</title>
			<meta name="author" content="Nonna">
			<meta property="og:image" content="https://cdn.example.com/pasta.jpg">
		</head></html>`))
	}))
	t.Cleanup(pages.Close)

	users := user.NewRepository(db.SQL)
	links := linkmeta.NewFetcher(5 * time.Second)
	recipeRepo := recipe.NewRepository(db.SQL)
	lists := shopping.NewRepository(db.SQL)
	list := shopping.NewService(lists, recipeRepo, zap.NewNop())
	recipes := recipe.NewService(recipeRepo, links, list, lists, zap.NewNop())

	srv := web.NewServer(web.Deps{
		Recipes:  recipes,
		Shopping: list,
		Users:    users,
		Links:    links,
		Provider: fakeProvider{},
		Sessions: auth.NewSessions("test-secret", false),
		Health:   metrics.NewCollector(db, filepath.Join(t.TempDir(), "web.db")),
		Logger:   zap.NewNop(),
	})
	app := httptest.NewServer(srv.Routes())
	t.Cleanup(app.Close)

	return &env{app: app, pages: pages, db: db, shopping: list, users: users}
}

// client returns an HTTP client with its own cookie jar that does not follow
// redirects.
func (e *env) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// signIn runs the OAuth round trip for email and returns a signed-in client.
func (e *env) signIn(t *testing.T, email string) *http.Client {
	t.Helper()
	c := e.client(t)

	resp, err := c.Get(e.app.URL + "/api/auth/google")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	consent, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := consent.Query().Get("state")

	resp, err = c.Get(e.app.URL + "/api/auth/callback/google?state=" + url.QueryEscape(state) + "&code=" + url.QueryEscape(email))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/recipes", resp.Header.Get("Location"))
	return c
}

func (e *env) createRecipe(t *testing.T, c *http.Client, title string) string {
	t.Helper()
	resp, err := c.PostForm(e.app.URL+"/recipes/new", recipeForm(title))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var list struct {
		Recipes []recipe.Recipe `json:"recipes"`
	}
	getJSON(t, c, e.app.URL+"/recipes", &list)
	for _, r := range list.Recipes {
		if r.Title == title {
			return r.ID
		}
	}
	t.Fatalf("recipe %q not listed", title)
	return ""
}

func recipeForm(title string) url.Values {
	return url.Values{
		"link":           {"https://cooking.example.com/" + title},
		"title":          {title},
		"ingredients":    {"200g pasta\n1 lemon"},
		"servings":       {"2"},
		"cookingHours":   {"0"},
		"cookingMinutes": {"25"},
	}
}

func getJSON(t *testing.T, c *http.Client, u string, v any) int {
	t.Helper()
	resp, err := c.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func postJSON(t *testing.T, c *http.Client, u string, v any) int {
	t.Helper()
	resp, err := c.Post(u, "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

type toggleResponse struct {
	OK           bool   `json:"ok"`
	Message      string `json:"message"`
	ShoppingList string `json:"shoppingList"`
}

func TestUnauthenticatedRedirects(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/recipes"},
		{http.MethodPost, "/recipes/new"},
		{http.MethodGet, "/recipes/shopping-list"},
		{http.MethodPost, "/recipes/shopping-list/update/r1"},
		{http.MethodPost, "/recipes/shopping-list/clear"},
		{http.MethodPost, "/recipes/r1/destroy"},
	} {
		req, err := http.NewRequest(tc.method, e.app.URL+tc.path, nil)
		require.NoError(t, err)
		resp, err := c.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, "%s %s", tc.method, tc.path)
		assert.Equal(t, "/", resp.Header.Get("Location"), "%s %s", tc.method, tc.path)
	}
}

func TestSignIn(t *testing.T) {
	e := newEnv(t)

	t.Run("CreatesAccountAndRedirectsHome", func(t *testing.T) {
		c := e.signIn(t, "cook@example.com")

		u, err := e.users.GetByEmail(context.Background(), "cook@example.com")
		require.NoError(t, err)
		assert.Equal(t, "", u.ShoppingList)

		resp, err := c.Get(e.app.URL + "/")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/recipes", resp.Header.Get("Location"))
	})

	t.Run("ForgedState", func(t *testing.T) {
		c := e.client(t)
		resp, err := c.Get(e.app.URL + "/api/auth/google")
		require.NoError(t, err)
		resp.Body.Close()

		var body map[string]any
		status := getJSON(t, c, e.app.URL+"/api/auth/callback/google?state=forged&code=cook@example.com", &body)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, false, body["ok"])
	})

	t.Run("ExchangeFailure", func(t *testing.T) {
		c := e.client(t)
		resp, err := c.Get(e.app.URL + "/api/auth/google")
		require.NoError(t, err)
		resp.Body.Close()
		consent, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(t, err)

		var body map[string]any
		status := getJSON(t, c, e.app.URL+"/api/auth/callback/google?code=bad&state="+url.QueryEscape(consent.Query().Get("state")), &body)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("DeletedAccountIsSignedOut", func(t *testing.T) {
		c := e.signIn(t, "removed@example.com")
		_, err := e.db.SQL.Exec(`DELETE FROM users WHERE email = ?`, "removed@example.com")
		require.NoError(t, err)

		resp, err := c.Get(e.app.URL + "/recipes")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})

	t.Run("SignOut", func(t *testing.T) {
		c := e.signIn(t, "leaving@example.com")

		resp, err := c.Post(e.app.URL+"/api/auth/sign-out", "", nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

		resp, err = c.Get(e.app.URL + "/recipes")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})
}

func TestShoppingListToggle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.signIn(t, "cook@example.com")
	u, err := e.users.GetByEmail(ctx, "cook@example.com")
	require.NoError(t, err)

	a := e.createRecipe(t, c, "a")
	b := e.createRecipe(t, c, "b")
	d := e.createRecipe(t, c, "d")

	setList := func(t *testing.T, ids ...string) {
		t.Helper()
		_, err := e.shopping.Clear(ctx, u.ID)
		require.NoError(t, err)
		for _, id := range ids {
			_, err := e.shopping.Toggle(ctx, u.ID, id)
			require.NoError(t, err)
		}
	}
	current := func(t *testing.T) shopping.List {
		t.Helper()
		list, err := e.shopping.Current(ctx, u.ID)
		require.NoError(t, err)
		return list
	}

	t.Run("RemovesPresent", func(t *testing.T) {
		setList(t, a, b)

		var body toggleResponse
		status := postJSON(t, c, e.app.URL+"/recipes/shopping-list/update/"+a, &body)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, toggleResponse{OK: true, Message: "Shopping list updated successfully", ShoppingList: b}, body)
	})

	t.Run("AppendsAbsent", func(t *testing.T) {
		setList(t, a, b)

		var body toggleResponse
		postJSON(t, c, e.app.URL+"/recipes/shopping-list/update/"+d, &body)
		assert.Equal(t, a+","+b+","+d, body.ShoppingList)
	})

	t.Run("FromEmpty", func(t *testing.T) {
		setList(t)

		var body toggleResponse
		postJSON(t, c, e.app.URL+"/recipes/shopping-list/update/"+a, &body)
		assert.Equal(t, a, body.ShoppingList)
	})

	t.Run("InvalidID", func(t *testing.T) {
		setList(t, a)

		var body map[string]any
		status := postJSON(t, c, e.app.URL+"/recipes/shopping-list/update/a,b", &body)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, shopping.List{a}, current(t))
	})

	t.Run("UnknownRecipe", func(t *testing.T) {
		setList(t, a)

		var body map[string]any
		status := postJSON(t, c, e.app.URL+"/recipes/shopping-list/update/no-such-recipe", &body)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "No recipe found", body["error"])
		assert.Equal(t, shopping.List{a}, current(t))
	})

	t.Run("OtherUsersRecipe", func(t *testing.T) {
		other := e.signIn(t, "other@example.com")
		theirs := e.createRecipe(t, other, "theirs")
		setList(t, a)

		var body map[string]any
		status := postJSON(t, c, e.app.URL+"/recipes/shopping-list/update/"+theirs, &body)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, shopping.List{a}, current(t))
	})

	t.Run("DeletedRecipe", func(t *testing.T) {
		gone := e.createRecipe(t, c, "gone")
		setList(t, a)

		resp, err := c.Post(e.app.URL+"/recipes/"+gone+"/destroy", "", nil)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)

		var body map[string]any
		status := postJSON(t, c, e.app.URL+"/recipes/shopping-list/update/"+gone, &body)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, shopping.List{a}, current(t))
	})

	t.Run("Clear", func(t *testing.T) {
		setList(t, a, b)

		var body toggleResponse
		status := postJSON(t, c, e.app.URL+"/recipes/shopping-list/clear", &body)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, toggleResponse{OK: true, Message: "Shopping list cleared successfully", ShoppingList: ""}, body)
	})
}

func TestRecipesLifecycle(t *testing.T) {
	e := newEnv(t)
	c := e.signIn(t, "cook@example.com")

	pasta := e.createRecipe(t, c, "pasta")
	soup := e.createRecipe(t, c, "soup")

	var toggled toggleResponse
	postJSON(t, c, e.app.URL+"/recipes/shopping-list/update/"+pasta, &toggled)
	postJSON(t, c, e.app.URL+"/recipes/shopping-list/update/"+soup, &toggled)
	require.Equal(t, pasta+","+soup, toggled.ShoppingList)

	t.Run("ListShowsMembership", func(t *testing.T) {
		var body struct {
			ShoppingList []string        `json:"shoppingList"`
			Recipes      []recipe.Recipe `json:"recipes"`
		}
		status := getJSON(t, c, e.app.URL+"/recipes", &body)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, []string{pasta, soup}, body.ShoppingList)
		assert.Len(t, body.Recipes, 2)
	})

	t.Run("ListIncludesCookingTime", func(t *testing.T) {
		var body struct {
			Recipes []map[string]any `json:"recipes"`
		}
		getJSON(t, c, e.app.URL+"/recipes", &body)
		require.NotEmpty(t, body.Recipes)
		assert.Equal(t, "25m", body.Recipes[0]["cookingTime"])
	})

	t.Run("ShoppingListFormatsIngredients", func(t *testing.T) {
		var body struct {
			Recipes []recipe.ShoppingItem `json:"recipes"`
		}
		getJSON(t, c, e.app.URL+"/recipes/shopping-list", &body)
		require.Len(t, body.Recipes, 2)
		assert.Equal(t, []string{"200g pasta", "1 lemon"}, body.Recipes[0].Ingredients)
	})

	t.Run("OtherUsersCannotSee", func(t *testing.T) {
		other := e.signIn(t, "other@example.com")

		var body map[string]any
		status := getJSON(t, other, e.app.URL+"/recipes/"+pasta+"/edit", &body)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "No recipe found", body["error"])
	})

	t.Run("Edit", func(t *testing.T) {
		form := recipeForm("pasta")
		form.Set("title", "Lemon pasta")
		resp, err := c.PostForm(e.app.URL+"/recipes/"+pasta+"/edit", form)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

		var body struct {
			Recipe recipe.Recipe `json:"recipe"`
		}
		getJSON(t, c, e.app.URL+"/recipes/"+pasta+"/edit", &body)
		assert.Equal(t, "Lemon pasta", body.Recipe.Title)
	})

	t.Run("DeleteRemovesFromShoppingList", func(t *testing.T) {
		resp, err := c.Post(e.app.URL+"/recipes/"+pasta+"/destroy", "", nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

		var body struct {
			ShoppingList []string        `json:"shoppingList"`
			Recipes      []recipe.Recipe `json:"recipes"`
		}
		getJSON(t, c, e.app.URL+"/recipes", &body)
		assert.Equal(t, []string{soup}, body.ShoppingList)
		require.Len(t, body.Recipes, 1)
		assert.Equal(t, soup, body.Recipes[0].ID)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		var body map[string]any
		status := postJSON(t, c, e.app.URL+"/recipes/"+pasta+"/destroy", &body)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestCreateRecipeValidation(t *testing.T) {
	e := newEnv(t)
	c := e.signIn(t, "cook@example.com")

	form := recipeForm("pasta")
	form.Set("title", "  ")
	form.Set("servings", "13")

	resp, err := c.Post(e.app.URL+"/recipes/new", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		LastResult struct {
			Errors map[string][]string `json:"errors"`
		} `json:"lastResult"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"Title is too short"}, body.LastResult.Errors["title"])
	assert.Equal(t, []string{"Servings must be less than 12"}, body.LastResult.Errors["servings"])
}

func TestAutofill(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	t.Run("Success", func(t *testing.T) {
		var body struct {
			OK   bool              `json:"ok"`
			Data linkmeta.Metadata `json:"data"`
		}
		status := getJSON(t, c, e.app.URL+"/api/autofill?link="+url.QueryEscape(e.pages.URL+"/pasta"), &body)
		assert.Equal(t, http.StatusOK, status)
		assert.True(t, body.OK)
		assert.Equal(t, linkmeta.Metadata{
			Title:   "Lemon Pasta",
			Author:  "Nonna",
			Image:   "https://cdn.example.com/pasta.jpg",
			Favicon: e.pages.URL + "/favicon.ico",
		}, body.Data)
	})

	t.Run("InvalidLink", func(t *testing.T) {
		for _, link := range []string{"", "not a link", e.pages.URL + "/missing"} {
			var body map[string]any
			status := getJSON(t, c, e.app.URL+"/api/autofill?link="+url.QueryEscape(link), &body)
			assert.Equal(t, http.StatusBadRequest, status, link)
			assert.Equal(t, map[string]any{"ok": false, "error": "Invalid link"}, body, link)
		}
	})
}

func TestHealth(t *testing.T) {
	e := newEnv(t)

	var body metrics.SysHealth
	status := getJSON(t, e.client(t), e.app.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Healthy())
	assert.Equal(t, "ok", body.Database)
}
