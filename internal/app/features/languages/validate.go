package languages

import "github.com/dalemusser/docuverse/internal/app/system/normalize"

const msgBadCode = "Code must be a language tag like en or pt-br"

// validCode accepts tags such as "en", "EN" or "pt-BR".
func validCode(s string) bool {
	return normalize.IsSlug(normalize.LanguageCode(s))
}

func validName(s string) bool {
	return normalize.Name(s) != ""
}
