package utils

import (
	"strings"

	"github.com/gosimple/slug"
)

// MaxSlugLen matches the width of the recipes.slug column.
const MaxSlugLen = 120

// Slugify turns a recipe name into its URL key. Non-ASCII letters are
// transliterated so names in other scripts still get a usable key.
func Slugify(name string) string {
	s := slug.Make(strings.TrimSpace(name))
	if len(s) > MaxSlugLen {
		s = strings.TrimRight(s[:MaxSlugLen], "-_")
	}
	return s
}
