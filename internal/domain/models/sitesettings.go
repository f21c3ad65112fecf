// internal/domain/models/sitesettings.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SiteSettings holds the global branding shown by every public reader.
type SiteSettings struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"-"`

	BrandName    string `bson:"brand_name" json:"brandName"`
	LogoURL      string `bson:"logo_url,omitempty" json:"logoUrl"`
	Description  string `bson:"description,omitempty" json:"description"`
	PrimaryColor string `bson:"primary_color,omitempty" json:"primaryColor"`

	// Audit fields
	UpdatedAt   *time.Time          `bson:"updated_at,omitempty" json:"updatedAt,omitempty"`
	UpdatedByID *primitive.ObjectID `bson:"updated_by_id,omitempty" json:"-"`
}

// Defaults returned when no settings document exists.
const (
	DefaultBrandName    = "Docuverse"
	DefaultDescription  = "Open source documentation platform"
	DefaultPrimaryColor = "#000000"
)

// DefaultSiteSettings returns the settings used before an admin saves any.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		BrandName:    DefaultBrandName,
		Description:  DefaultDescription,
		PrimaryColor: DefaultPrimaryColor,
	}
}
