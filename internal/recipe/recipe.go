package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a recipe does not exist or belongs to another user.
var ErrNotFound = errors.New("no recipe found")

// Recipe is a saved recipe of a user.
type Recipe struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Link           string    `json:"link"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Image          string    `json:"image"`
	Favicon        string    `json:"favicon"`
	Ingredients    string    `json:"ingredients"`
	Servings       int       `json:"servings"`
	CookingHours   int       `json:"cookingHours"`
	CookingMinutes int       `json:"cookingMinutes"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Input holds the user-editable fields of a recipe after validation.
type Input struct {
	Link           string `json:"link"`
	Title          string `json:"title"`
	Author         string `json:"author"`
	Image          string `json:"image"`
	Favicon        string `json:"favicon"`
	Ingredients    string `json:"ingredients"`
	Servings       int    `json:"servings"`
	CookingHours   int    `json:"cookingHours"`
	CookingMinutes int    `json:"cookingMinutes"`
}

// CookingTime renders the duration as "1h 30m", omitting zero parts.
func (r Recipe) CookingTime() string {
	var parts []string
	if r.CookingHours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", r.CookingHours))
	}
	if r.CookingMinutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", r.CookingMinutes))
	}
	return strings.Join(parts, " ")
}

// MarshalJSON adds the rendered cooking time to the stored fields.
func (r Recipe) MarshalJSON() ([]byte, error) {
	type plain Recipe
	return json.Marshal(struct {
		plain
		CookingTime string `json:"cookingTime"`
	}{plain(r), r.CookingTime()})
}

func (r *Recipe) apply(in Input) {
	r.Link = in.Link
	r.Title = in.Title
	r.Author = in.Author
	r.Image = in.Image
	r.Favicon = in.Favicon
	r.Ingredients = in.Ingredients
	r.Servings = in.Servings
	r.CookingHours = in.CookingHours
	r.CookingMinutes = in.CookingMinutes
}
