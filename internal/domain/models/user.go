package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an authenticated account. The authorization core only ever
// reads the ID; profile fields exist for the login and display surfaces.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"`

	Email   string `bson:"email" json:"email"`
	EmailCI string `bson:"email_ci" json:"-"` // lowercase, diacritics-stripped; unique

	// AuthMethod is "password" or "google". PasswordHash is set only
	// for password accounts.
	AuthMethod   string `bson:"auth_method" json:"-"`
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	Status string `bson:"status" json:"status"` // "active" or "disabled"

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
