// internal/domain/models/resettoken.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PasswordResetToken is a single-use, time-limited credential for the
// password reset flow. Only a bcrypt hash of the secret is stored; the
// public token string ("<token_id>.<secret>") exists only in the email.
type PasswordResetToken struct {
	ID         primitive.ObjectID `bson:"_id"`
	UserID     primitive.ObjectID `bson:"user_id"`
	TokenID    string             `bson:"token_id"` // uuid, lookup key
	SecretHash string             `bson:"secret_hash"`
	Used       bool               `bson:"used"`
	ExpiresAt  time.Time          `bson:"expires_at"`
	CreatedAt  time.Time          `bson:"created_at"`
}
