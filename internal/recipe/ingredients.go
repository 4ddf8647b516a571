package recipe

import (
	"iter"
	"slices"
	"strings"
)

// Ingredients yields the lines of an ingredient block, one checklist item per
// line, in input order. Lines are not trimmed and blank lines are kept, so an
// empty block yields a single empty item and a trailing newline yields a
// trailing empty item. The sequence can be ranged over any number of times.
func Ingredients(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for line := range strings.SplitSeq(text, "\n") {
			if !yield(line) {
				return
			}
		}
	}
}

// IngredientLines collects Ingredients into a slice.
func IngredientLines(text string) []string {
	return slices.Collect(Ingredients(text))
}
