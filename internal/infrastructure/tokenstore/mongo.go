package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gradeflow/grading-gateway/internal/core/domain"
	"github.com/gradeflow/grading-gateway/internal/core/ports"
)

const (
	tokenCollection = "session_tokens"
	tokenDocID      = "bearer_token"
)

// MongoStore upserts the token into a single well-known document.
type MongoStore struct {
	coll *mongo.Collection
}

var _ ports.TokenStore = (*MongoStore)(nil)

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(tokenCollection)}
}

type tokenDoc struct {
	ID        string    `bson:"_id"`
	Token     string    `bson:"token"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (s *MongoStore) Get(ctx context.Context) (string, error) {
	var doc tokenDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": tokenDocID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", domain.ErrNoToken
		}
		return "", fmt.Errorf("mongo find token: %w", err)
	}
	if doc.Token == "" {
		return "", domain.ErrNoToken
	}
	return doc.Token, nil
}

func (s *MongoStore) Set(ctx context.Context, token string) error {
	update := bson.M{"$set": bson.M{"token": token, "updated_at": time.Now().UTC()}}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": tokenDocID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo upsert token: %w", err)
	}
	return nil
}

func (s *MongoStore) Clear(ctx context.Context) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": tokenDocID}); err != nil {
		return fmt.Errorf("mongo delete token: %w", err)
	}
	return nil
}
