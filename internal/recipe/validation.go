package recipe

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FieldErrors maps a form field name to its validation messages.
type FieldErrors map[string][]string

func (fe FieldErrors) add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Rule describes how one form field is validated and where its value lands
// in Input. Empty submissions are treated as missing.
type Rule struct {
	Field    string
	Required bool
	Trim     bool

	// Tag is checked against the submitted value, after trimming when Trim is set.
	Tag string
	// IntTag, when set, parses the value as an integer and checks the number.
	IntTag string
	// Messages maps a failing validator tag ("required" for a missing value)
	// to the message shown next to the field.
	Messages map[string]string

	setString func(*Input, string)
	setInt    func(*Input, int)
}

// Rules is the rule set for recipe forms.
var Rules = []Rule{
	{
		Field: "link", Required: true, Tag: "url",
		Messages: map[string]string{
			"required": "Link is required",
			"url":      "Link is invalid",
		},
		setString: func(in *Input, v string) { in.Link = v },
	},
	{
		Field: "title", Required: true, Trim: true, Tag: "min=1",
		Messages: map[string]string{
			"required": "Title is required",
			"min":      "Title is too short",
		},
		setString: func(in *Input, v string) { in.Title = v },
	},
	{
		Field: "author", Trim: true,
		setString: func(in *Input, v string) { in.Author = v },
	},
	{
		Field: "image", Trim: true, Tag: "omitempty,url",
		Messages:  map[string]string{"url": "Image is invalid URL"},
		setString: func(in *Input, v string) { in.Image = v },
	},
	{
		Field: "favicon", Trim: true, Tag: "omitempty,url",
		Messages:  map[string]string{"url": "Favicon is invalid URL"},
		setString: func(in *Input, v string) { in.Favicon = v },
	},
	{
		Field: "ingredients", Required: true, Trim: true, Tag: "min=1",
		Messages: map[string]string{
			"required": "Ingredient list is required",
			"min":      "Ingredient list is too short",
		},
		setString: func(in *Input, v string) { in.Ingredients = v },
	},
	{
		Field: "servings", Required: true, Trim: true, Tag: "numeric", IntTag: "min=1,max=12",
		Messages: map[string]string{
			"required": "Servings is required",
			"numeric":  "Servings must be 0 or more",
			"min":      "Servings must be more than 1",
			"max":      "Servings must be less than 12",
		},
		setInt: func(in *Input, v int) { in.Servings = v },
	},
	{
		Field: "cookingHours", Required: true, Trim: true, Tag: "numeric", IntTag: "min=0,max=23",
		Messages: map[string]string{
			"required": "Cooking hours is required",
			"numeric":  "Cooking hours must be 0 or more",
			"min":      "Cooking hours must be greater than 0",
			"max":      "Cooking hours must be less than 23",
		},
		setInt: func(in *Input, v int) { in.CookingHours = v },
	},
	{
		Field: "cookingMinutes", Required: true, Trim: true, Tag: "numeric", IntTag: "min=0,max=59",
		Messages: map[string]string{
			"required": "Cooking minutes is required",
			"numeric":  "Cooking minutes must be 0 or more",
			"min":      "Cooking minutes must be greater than 0",
			"max":      "Cooking minutes must be less than 59",
		},
		setInt: func(in *Input, v int) { in.CookingMinutes = v },
	},
}

// Validate runs Rules over a submitted form. The Input is only meaningful
// when the returned FieldErrors is empty.
func Validate(form url.Values) (Input, FieldErrors) {
	var in Input
	errs := FieldErrors{}
	for _, rule := range Rules {
		rule.apply(form, &in, errs)
	}
	return in, errs
}

func (r Rule) apply(form url.Values, in *Input, errs FieldErrors) {
	raw := form.Get(r.Field)
	if raw == "" {
		if r.Required {
			errs.add(r.Field, r.Messages["required"])
		}
		return
	}

	value := raw
	if r.Trim {
		value = strings.TrimSpace(value)
	}
	if !r.check(value, r.Tag, errs) {
		return
	}

	if r.IntTag == "" {
		if r.setString != nil {
			r.setString(in, value)
		}
		return
	}

	// numeric also admits decimals, which are not valid here.
	n, err := strconv.Atoi(value)
	if err != nil {
		errs.add(r.Field, r.Messages["numeric"])
		return
	}
	if !r.check(n, r.IntTag, errs) {
		return
	}
	if r.setInt != nil {
		r.setInt(in, n)
	}
}

// check validates v against tag and records the message of the failing tag.
func (r Rule) check(v any, tag string, errs FieldErrors) bool {
	if tag == "" {
		return true
	}
	err := validate.Var(v, tag)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			errs.add(r.Field, r.Messages[fe.Tag()])
		}
		return false
	}
	errs.add(r.Field, err.Error())
	return false
}
