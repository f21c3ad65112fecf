// internal/domain/models/version.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Version is a labeled snapshot of an App's documentation.
// Exactly one Version per App has IsDefault set.
type Version struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AppID     primitive.ObjectID `bson:"app_id" json:"appId"`
	Slug      string             `bson:"slug" json:"slug"`
	Name      string             `bson:"name" json:"name"`
	IsDefault bool               `bson:"is_default" json:"isDefault"`
}

// Language is a locale variant of an App's documentation.
// Exactly one Language per App has IsDefault set.
type Language struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AppID     primitive.ObjectID `bson:"app_id" json:"appId"`
	Code      string             `bson:"code" json:"code"`
	Name      string             `bson:"name" json:"name"`
	IsDefault bool               `bson:"is_default" json:"isDefault"`
}
