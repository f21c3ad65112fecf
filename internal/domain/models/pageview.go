// internal/domain/models/pageview.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PageView is an append-only analytics event.
type PageView struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PageID   primitive.ObjectID `bson:"page_id" json:"pageId"`
	AppID    primitive.ObjectID `bson:"app_id" json:"appId"`
	ViewedAt time.Time          `bson:"viewed_at" json:"viewedAt"`
}

// MonthlyViews is a precomputed view count for one calendar month.
// A nil AppID holds the total across all apps.
type MonthlyViews struct {
	Month     string              `bson:"month" json:"month"` // YYYY-MM
	AppID     *primitive.ObjectID `bson:"app_id" json:"appId,omitempty"`
	Count     int64               `bson:"count" json:"count"`
	UpdatedAt time.Time           `bson:"updated_at" json:"-"`
}

// MonthLayout formats time.Time values as month bucket keys.
const MonthLayout = "2006-01"
