package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/amishk599/jobscout/internal/model"
)

var _ model.ContactResolver = (*MongoResolver)(nil)

// userDoc is the subset of a users document the resolver reads.
type userDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
	Email    string             `bson:"email"`
}

// MongoResolver looks users up in a MongoDB collection by username or email.
type MongoResolver struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoResolver connects to uri and verifies connectivity.
func NewMongoResolver(ctx context.Context, uri, database, collection string) (*MongoResolver, error) {
	if collection == "" {
		collection = "users"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}
	return &MongoResolver{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// ResolveContact returns the email of the user whose username or email equals user.
func (r *MongoResolver) ResolveContact(ctx context.Context, user string) (string, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return "", model.ErrContactNotFound
	}

	var doc userDoc
	err := r.collection.FindOne(ctx, bson.M{
		"$or": bson.A{
			bson.M{"username": user},
			bson.M{"email": user},
		},
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", model.ErrContactNotFound
	}
	if err != nil {
		return "", fmt.Errorf("looking up user %q: %w", user, err)
	}
	if doc.Email == "" {
		return "", model.ErrContactNotFound
	}
	return doc.Email, nil
}

// Close disconnects the client.
func (r *MongoResolver) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
