// internal/app/system/docroute/resolve.go
//
// Package docroute maps public reader URLs onto an app's versions, languages
// and page tree, and builds the sidebar tree from the flat page list.
//
// Nothing here touches the database. Callers load the app's versions,
// languages and pages, then hand them to Resolve, BuildTree and SelectPage.
package docroute

import (
	"strings"

	"github.com/dalemusser/docuverse/internal/domain/models"
)

// Resolution is the result of matching URL segments against an app.
type Resolution struct {
	Version  *models.Version
	Language *models.Language

	// PagePath holds the segments left after the version and language were
	// consumed. Empty means the app's landing page.
	PagePath []string

	VersionMatched  bool // segment[0] named a version
	LanguageMatched bool // the segment after the version named a language
}

// SplitPath splits a URL path into segments, dropping empty ones so that
// leading, trailing and doubled slashes do not produce empty slugs.
func SplitPath(p string) []string {
	raw := strings.Split(p, "/")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// DefaultVersion returns the version flagged as default, the first version
// when none is flagged, or nil for an empty list.
func DefaultVersion(versions []models.Version) *models.Version {
	for i := range versions {
		if versions[i].IsDefault {
			return &versions[i]
		}
	}
	if len(versions) > 0 {
		return &versions[0]
	}
	return nil
}

// DefaultLanguage returns the language flagged as default, the first
// language when none is flagged, or nil for an empty list.
func DefaultLanguage(languages []models.Language) *models.Language {
	for i := range languages {
		if languages[i].IsDefault {
			return &languages[i]
		}
	}
	if len(languages) > 0 {
		return &languages[0]
	}
	return nil
}

func findVersion(versions []models.Version, slug string) *models.Version {
	for i := range versions {
		if versions[i].Slug == slug {
			return &versions[i]
		}
	}
	return nil
}

func findLanguage(languages []models.Language, code string) *models.Language {
	for i := range languages {
		if languages[i].Code == code {
			return &languages[i]
		}
	}
	return nil
}

// Resolve matches segments greedily: segment[0] against version slugs, then
// the next segment against language codes. Whatever is not consumed is the
// page path. Unmatched positions fall back to the app's defaults; a matched
// version is never replaced by the default.
//
// ok is false when the app has no versions or no languages.
func Resolve(segments []string, versions []models.Version, languages []models.Language) (res Resolution, ok bool) {
	rest := segments

	if len(rest) > 0 {
		if v := findVersion(versions, rest[0]); v != nil {
			res.Version = v
			res.VersionMatched = true
			rest = rest[1:]

			if len(rest) > 0 {
				if l := findLanguage(languages, rest[0]); l != nil {
					res.Language = l
					res.LanguageMatched = true
					rest = rest[1:]
				}
			}
		}
	}

	if res.Version == nil {
		res.Version = DefaultVersion(versions)
	}
	if res.Language == nil {
		res.Language = DefaultLanguage(languages)
	}
	if res.Version == nil || res.Language == nil {
		return Resolution{}, false
	}

	res.PagePath = append([]string(nil), rest...)
	return res, true
}

// BasePath returns the URL prefix shared by every page of one
// (app, version, language) combination.
func BasePath(appSlug string, v *models.Version, l *models.Language) string {
	return "/" + appSlug + "/" + v.Slug + "/" + l.Code
}
