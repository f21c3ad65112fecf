// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/docuverse/internal/app/store/audit"
	"github.com/dalemusser/docuverse/internal/app/system/network"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category of events.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off" // disabled
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls login, logout and setup events.
	Auth string
	// Admin controls user, settings and content changes.
	Admin string
}

// Logger provides convenience methods for logging audit events.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) destination(category string) string {
	switch category {
	case audit.CategoryAuth:
		return l.config.Auth
	case audit.CategoryAdmin:
		return l.config.Admin
	}
	return All
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so tests can leave it unset.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	dest := l.destination(event.Category)
	if dest == Off {
		return
	}
	if dest == All || dest == Log {
		l.logToZap(event)
	}
	if (dest == All || dest == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func authEvent(r *http.Request, eventType string, userID *primitive.ObjectID, email string) audit.Event {
	return audit.Event{
		Category:  audit.CategoryAuth,
		EventType: eventType,
		UserID:    userID,
		IP:        network.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"email": email},
	}
}

func failed(e audit.Event, reason string) audit.Event {
	e.Success = false
	e.FailureReason = reason
	return e
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, authEvent(r, audit.EventLoginSuccess, &userID, email))
}

// LoginFailedUserNotFound logs a login for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, failed(authEvent(r, audit.EventLoginFailedUserNotFound, nil, email), "user not found"))
}

// LoginFailedWrongPassword logs a failed login due to wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, failed(authEvent(r, audit.EventLoginFailedWrongPassword, &userID, email), "wrong password"))
}

// LoginFailedUserDisabled logs a failed login due to disabled account.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, failed(authEvent(r, audit.EventLoginFailedUserDisabled, &userID, email), "user disabled"))
}

// LoginLockedOut logs a login refused because of too many failures.
func (l *Logger) LoginLockedOut(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, failed(authEvent(r, audit.EventLoginLockedOut, nil, email), "too many failed attempts"))
}

// Logout logs a user logout. userIDStr comes from the session user.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	e := authEvent(r, audit.EventLogout, hexID(userIDStr), "")
	e.Details = nil
	l.Log(ctx, e)
}

// SetupCompleted logs creation of the first super admin.
func (l *Logger) SetupCompleted(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, authEvent(r, audit.EventSetupCompleted, &userID, email))
}

// --- Admin Events ---

func hexID(s string) *primitive.ObjectID {
	if oid, err := primitive.ObjectIDFromHex(s); err == nil {
		return &oid
	}
	return nil
}

// Admin logs an administrative change made by actorID (a session user id,
// which is not an ObjectID for API key callers).
func (l *Logger) Admin(ctx context.Context, r *http.Request, eventType, actorID string, target *primitive.ObjectID, details map[string]string) {
	if details == nil {
		details = map[string]string{}
	}
	actor := hexID(actorID)
	if actor == nil && actorID != "" {
		details["actor"] = actorID
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		UserID:    target,
		ActorID:   actor,
		IP:        network.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   details,
	})
}

// UserCreated logs creation of an admin account.
func (l *Logger) UserCreated(ctx context.Context, r *http.Request, actorID string, userID primitive.ObjectID, email, role string) {
	l.Admin(ctx, r, audit.EventUserCreated, actorID, &userID, map[string]string{"email": email, "role": role})
}

// UserUpdated logs a change to an admin account.
func (l *Logger) UserUpdated(ctx context.Context, r *http.Request, actorID string, userID primitive.ObjectID, passwordChanged bool) {
	details := map[string]string{}
	if passwordChanged {
		details["password_changed"] = "true"
	}
	l.Admin(ctx, r, audit.EventUserUpdated, actorID, &userID, details)
}

// UserDeleted logs removal of an admin account.
func (l *Logger) UserDeleted(ctx context.Context, r *http.Request, actorID string, userID primitive.ObjectID, email string) {
	l.Admin(ctx, r, audit.EventUserDeleted, actorID, &userID, map[string]string{"email": email})
}

// SettingsUpdated logs a change to site settings.
func (l *Logger) SettingsUpdated(ctx context.Context, r *http.Request, actorID string) {
	l.Admin(ctx, r, audit.EventSettingsUpdated, actorID, nil, nil)
}

// AppCreated logs creation of an app.
func (l *Logger) AppCreated(ctx context.Context, r *http.Request, actorID string, appID primitive.ObjectID, slug string) {
	l.Admin(ctx, r, audit.EventAppCreated, actorID, nil, map[string]string{"app_id": appID.Hex(), "slug": slug})
}

// AppDeleted logs removal of an app and its content.
func (l *Logger) AppDeleted(ctx context.Context, r *http.Request, actorID string, appID primitive.ObjectID, slug string) {
	l.Admin(ctx, r, audit.EventAppDeleted, actorID, nil, map[string]string{"app_id": appID.Hex(), "slug": slug})
}

// VersionDeleted logs removal of a version.
func (l *Logger) VersionDeleted(ctx context.Context, r *http.Request, actorID string, versionID primitive.ObjectID) {
	l.Admin(ctx, r, audit.EventVersionDeleted, actorID, nil, map[string]string{"version_id": versionID.Hex()})
}

// LanguageDeleted logs removal of a language.
func (l *Logger) LanguageDeleted(ctx context.Context, r *http.Request, actorID string, languageID primitive.ObjectID) {
	l.Admin(ctx, r, audit.EventLanguageDeleted, actorID, nil, map[string]string{"language_id": languageID.Hex()})
}

// PageDeleted logs removal of a page subtree.
func (l *Logger) PageDeleted(ctx context.Context, r *http.Request, actorID string, pageID primitive.ObjectID, removed int64) {
	l.Admin(ctx, r, audit.EventPageDeleted, actorID, nil, map[string]string{
		"page_id": pageID.Hex(),
		"removed": strconv.FormatInt(removed, 10),
	})
}
