package login

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/docuverse/internal/app/store/sessions"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/app/system/network"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultSessionMaxAge is used when no session lifetime is configured.
const DefaultSessionMaxAge = 7 * 24 * time.Hour

// StartSession signs the user in with a cookie session and records the
// session server-side so it can be revoked. The cookie is only honored
// while its record is open, so a failed insert fails the sign-in.
func StartSession(
	w http.ResponseWriter,
	r *http.Request,
	sm *auth.SessionManager,
	store *sessions.Store,
	userID primitive.ObjectID,
	role string,
	maxAge time.Duration,
	logger *zap.Logger,
) error {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return err
	}

	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}
	now := time.Now().UTC()
	if err := store.Create(r.Context(), sessions.Session{
		Token:     token,
		UserID:    userID,
		IPAddress: network.ClientIP(r),
		UserAgent: r.UserAgent(),
		LoginAt:   now,
		ExpiresAt: now.Add(maxAge),
	}); err != nil {
		return fmt.Errorf("track session: %w", err)
	}

	if _, err := sm.CreateSession(w, r, userID, role, token); err != nil {
		return err
	}
	logger.Debug("session started", zap.String("user_id", userID.Hex()))
	return nil
}
