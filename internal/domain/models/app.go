// internal/domain/models/app.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// App is one documentation site (a tenant). Versions, languages and pages
// all hang off an App and are removed with it.
type App struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug        string             `bson:"slug" json:"slug"` // unique, used as the first URL segment
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	// LogoURL is either an external URL or the public URL of an uploaded file.
	// LogoPath is set only for uploads and is the storage key.
	LogoURL  string `bson:"logo_url,omitempty" json:"logoUrl,omitempty"`
	LogoPath string `bson:"logo_path,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Defaults created alongside every new App.
const (
	DefaultVersionSlug  = "v1"
	DefaultVersionName  = "1.0"
	DefaultLanguageCode = "en"
	DefaultLanguageName = "English"
)
