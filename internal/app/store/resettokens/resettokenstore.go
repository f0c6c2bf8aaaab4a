// internal/app/store/resettokens/resettokenstore.go
package resettokens

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/fiscora/fiscora/internal/domain/models"
)

const (
	// DefaultExpiry is how long a reset link stays valid.
	DefaultExpiry = time.Hour
	// BcryptCost for hashing secrets.
	BcryptCost = 10
	secretLen  = 32 // bytes of entropy in the secret half
)

var (
	// ErrNotFound is returned when a token is unknown, expired, or already used.
	ErrNotFound = errors.New("reset token not found or expired")
	// ErrMalformedToken is returned when the presented token is not "id.secret".
	ErrMalformedToken = errors.New("malformed reset token")
)

// Store manages password reset tokens. Tokens travel as "tokenID.secret";
// only a bcrypt hash of the secret touches the database, so a leaked
// collection cannot be replayed.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a Store with the specified expiry.
// With expiry <= 0, DefaultExpiry (1 hour) is used.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{c: db.Collection("password_reset_tokens"), expiry: expiry}
}

// Expiry returns the configured token lifetime.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// Create issues a new reset token for userID and returns the opaque value
// to embed in the reset link. Earlier unused tokens for the same user are
// invalidated.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID) (string, error) {
	secretBytes := make([]byte, secretLen)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", err
	}
	secret := hex.EncodeToString(secretBytes)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), BcryptCost)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	tok := models.PasswordResetToken{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		TokenID:    uuid.NewString(),
		SecretHash: string(hash),
		ExpiresAt:  now.Add(s.expiry),
		CreatedAt:  now,
	}

	// One live token per user.
	if _, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "used": false},
		bson.M{"$set": bson.M{"used": true}},
	); err != nil {
		return "", err
	}

	if _, err := s.c.InsertOne(ctx, tok); err != nil {
		return "", err
	}
	return tok.TokenID + "." + secret, nil
}

// Consume validates a presented token and marks it used, returning the
// owning user's ID. Each token redeems at most once.
func (s *Store) Consume(ctx context.Context, token string) (primitive.ObjectID, error) {
	tokenID, secret, ok := strings.Cut(token, ".")
	if !ok || tokenID == "" || secret == "" {
		return primitive.NilObjectID, ErrMalformedToken
	}

	var tok models.PasswordResetToken
	err := s.c.FindOne(ctx, bson.M{
		"token_id":   tokenID,
		"used":       false,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&tok)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return primitive.NilObjectID, ErrNotFound
		}
		return primitive.NilObjectID, err
	}

	if bcrypt.CompareHashAndPassword([]byte(tok.SecretHash), []byte(secret)) != nil {
		return primitive.NilObjectID, ErrNotFound
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": tok.ID, "used": false},
		bson.M{"$set": bson.M{"used": true}},
	)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if res.ModifiedCount == 0 {
		// Lost a race with a concurrent redeem.
		return primitive.NilObjectID, ErrNotFound
	}
	return tok.UserID, nil
}
