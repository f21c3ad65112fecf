package versions

import "github.com/dalemusser/docuverse/internal/app/system/normalize"

func validSlug(s string) bool {
	return normalize.IsSlug(normalize.Slug(s))
}

func validName(s string) bool {
	return normalize.Name(s) != ""
}
