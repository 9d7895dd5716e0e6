package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name"          json:"name"`
	Email        string             `bson:"email"         json:"email"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	GoogleID     string             `bson:"google_id,omitempty"     json:"-"`
	Role         string             `bson:"role"          json:"role"`
	Verified     bool               `bson:"verified"      json:"verified"`

	// One-time tokens are stored hashed only; the raw token goes out by mail
	// exactly once and cannot be recovered from here.
	ResetToken        string     `bson:"reset_token,omitempty"         json:"-"`
	ResetTokenExpire  *time.Time `bson:"reset_token_expire,omitempty"  json:"-"`
	VerifyToken       string     `bson:"verify_token,omitempty"        json:"-"`
	VerifyTokenExpire *time.Time `bson:"verify_token_expire,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// HasCredential reports whether the user can ever authenticate: a local
// password, a Google identity, or both. Neither is an invalid record.
func (u *User) HasCredential() bool {
	return u.PasswordHash != "" || u.GoogleID != ""
}
