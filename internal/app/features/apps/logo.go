// internal/app/features/apps/logo.go
package apps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	appstore "github.com/dalemusser/docuverse/internal/app/store/apps"
	"github.com/dalemusser/docuverse/internal/app/system/formutil"
	"github.com/dalemusser/docuverse/internal/app/system/inputval"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxLogoBytes caps uploaded logo files.
const MaxLogoBytes = 2 << 20

// logoTypes maps sniffed content types to the stored file extension.
// SVG is not accepted since it can carry script.
var logoTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// sniffLogo reads the head of file and reports its detected type and
// extension. The returned reader yields the whole file.
func sniffLogo(file io.Reader) (io.Reader, string, string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", "", err
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	ext, ok := logoTypes[contentType]
	if !ok {
		return nil, contentType, "", nil
	}
	return io.MultiReader(bytes.NewReader(head), file), contentType, ext, nil
}

func isLogoURL(s string) bool {
	return inputval.IsValidHTTPURL(s)
}

// uploadLogo accepts a multipart "logo" file, stores it and points the
// app's logo_url at it. The previous upload is removed.
func (h *Handler) uploadLogo(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		jsonutil.Error(w, http.StatusServiceUnavailable, "File storage is not configured")
		return
	}
	id, ok := formutil.ObjectID(chi.URLParam(r, "id"))
	if !ok {
		jsonutil.BadRequest(w, formutil.MsgInvalidID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxLogoBytes+(64<<10))
	file, header, err := r.FormFile("logo")
	if err != nil {
		jsonutil.BadRequest(w, "A logo file is required")
		return
	}
	defer file.Close()

	if header.Size > MaxLogoBytes {
		jsonutil.BadRequest(w, "Logo must be 2 MB or smaller")
		return
	}
	// The declared type and filename are ignored; only the bytes count.
	body, contentType, ext, err := sniffLogo(file)
	if err != nil {
		jsonutil.BadRequest(w, "Could not read the logo file")
		return
	}
	if ext == "" {
		jsonutil.BadRequest(w, "Logo must be a PNG, JPEG, GIF or WebP image")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if _, err := h.apps.GetByID(ctx, id); errors.Is(err, appstore.ErrNotFound) {
		jsonutil.NotFound(w, err.Error())
		return
	} else if err != nil {
		h.errLog.Internal(w, r, "failed to load app", err)
		return
	}

	path, err := h.putLogo(ctx, id.Hex(), body, contentType, ext)
	if err != nil {
		h.errLog.Internal(w, r, "logo upload failed", err)
		return
	}
	url := h.storage.URL(path)

	previous, err := h.apps.SetLogo(ctx, id, url, path)
	if err != nil {
		_ = h.storage.Delete(ctx, path)
		h.errLog.Internal(w, r, "failed to save app logo", err)
		return
	}
	if previous != "" && previous != path {
		if err := h.storage.Delete(ctx, previous); err != nil {
			h.logger.Warn("failed to delete old logo", zap.String("path", previous), zap.Error(err))
		}
	}

	jsonutil.Success(w, map[string]any{"logoUrl": url})
}

// putLogo stores a logo under logos/{appID}/YYYY/MM/{uuid}{ext}.
func (h *Handler) putLogo(ctx context.Context, appID string, file io.Reader, contentType, ext string) (string, error) {
	now := time.Now().UTC()
	path := fmt.Sprintf("logos/%s/%04d/%02d/%s%s", appID, now.Year(), now.Month(), uuid.New().String(), ext)

	if err := h.storage.Put(ctx, path, file, &storage.PutOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("failed to upload logo: %w", err)
	}
	return path, nil
}
