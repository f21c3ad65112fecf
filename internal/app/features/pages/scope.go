package pages

import (
	"context"
	"errors"
	"net/http"

	appstore "github.com/dalemusser/docuverse/internal/app/store/apps"
	languagestore "github.com/dalemusser/docuverse/internal/app/store/languages"
	pagestore "github.com/dalemusser/docuverse/internal/app/store/pages"
	versionstore "github.com/dalemusser/docuverse/internal/app/store/versions"
	"github.com/dalemusser/docuverse/internal/app/system/docroute"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errScopeMismatch = errors.New("Version and language must belong to the app")

// scope is a loaded (app, version, language) triple.
type scope struct {
	app      *models.App
	version  *models.Version
	language *models.Language
}

func (s scope) ids() pagestore.Scope {
	return pagestore.Scope{AppID: s.app.ID, VersionID: s.version.ID, LanguageID: s.language.ID}
}

func (s scope) basePath() string {
	return docroute.BasePath(s.app.Slug, s.version, s.language)
}

// loadScope fetches the three documents and checks they belong together.
func (h *Handler) loadScope(ctx context.Context, appID, versionID, languageID primitive.ObjectID) (scope, error) {
	app, err := h.apps.GetByID(ctx, appID)
	if err != nil {
		return scope{}, err
	}
	v, err := h.versions.GetByID(ctx, versionID)
	if err != nil {
		return scope{}, err
	}
	l, err := h.languages.GetByID(ctx, languageID)
	if err != nil {
		return scope{}, err
	}
	if v.AppID != app.ID || l.AppID != app.ID {
		return scope{}, errScopeMismatch
	}
	return scope{app: app, version: v, language: l}, nil
}

// writeStoreError maps known store errors to responses and reports whether
// it wrote one.
func writeStoreError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, appstore.ErrNotFound),
		errors.Is(err, versionstore.ErrNotFound),
		errors.Is(err, languagestore.ErrNotFound),
		errors.Is(err, pagestore.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, pagestore.ErrDuplicateSlug):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, pagestore.ErrCycle),
		errors.Is(err, pagestore.ErrInvalidParent),
		errors.Is(err, errScopeMismatch):
		writeError(w, http.StatusBadRequest, err)
	default:
		return false
	}
	return true
}
