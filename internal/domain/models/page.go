// internal/domain/models/page.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Page is a single documentation node scoped to (App, Version, Language).
// A Page with IsFolder set groups other pages and normally has no content.
type Page struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AppID      primitive.ObjectID  `bson:"app_id" json:"appId"`
	VersionID  primitive.ObjectID  `bson:"version_id" json:"versionId"`
	LanguageID primitive.ObjectID  `bson:"language_id" json:"languageId"`
	ParentID   *primitive.ObjectID `bson:"parent_id,omitempty" json:"parentId,omitempty"` // nil = root

	Slug     string `bson:"slug" json:"slug"` // unique within (app, version, language)
	Title    string `bson:"title" json:"title"`
	Content  string `bson:"content,omitempty" json:"content,omitempty"` // sanitized HTML
	Order    int    `bson:"order" json:"order"`
	IsFolder bool   `bson:"is_folder" json:"isFolder"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsRoot returns true if the page has no parent.
func (p *Page) IsRoot() bool {
	return p.ParentID == nil
}
