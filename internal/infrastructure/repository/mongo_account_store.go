package repository

import (
	"context"
	"fmt"
	"time"

	domain "github.com/mohammadpnp/account-admin/internal/domain/account"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// MongoAccountStore keeps accounts in a single collection keyed by _id.
type MongoAccountStore struct {
	collection mongoCollection
}

func NewMongoAccountStore(collection mongoCollection) *MongoAccountStore {
	return &MongoAccountStore{collection: collection}
}

type mongoAccount struct {
	Key        string    `bson:"_id"`
	AccountID  string    `bson:"account_id"`
	UID        string    `bson:"uid"`
	Password   string    `bson:"password"`
	RareTypes  []string  `bson:"rare_types"`
	CreatedAt  time.Time `bson:"created_at"`
	UploadedAt time.Time `bson:"uploaded_at"`
}

func (s *MongoAccountStore) Append(ctx context.Context, payload domain.Payload) (string, error) {
	key, err := newAccountKey()
	if err != nil {
		return "", err
	}

	rareTypes := payload.RareTypes
	if rareTypes == nil {
		rareTypes = []string{}
	}
	doc := mongoAccount{
		Key:        key,
		AccountID:  payload.AccountID,
		UID:        payload.UID,
		Password:   payload.Password,
		RareTypes:  rareTypes,
		CreatedAt:  payload.CreatedAt,
		UploadedAt: payload.UploadedAt,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("mongo insert account: %w", err)
	}
	return key, nil
}

func (s *MongoAccountStore) List(ctx context.Context) ([]domain.Account, error) {
	cursor, err := s.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo find accounts: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoAccount
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode accounts: %w", err)
	}

	accounts := make([]domain.Account, 0, len(docs))
	for _, doc := range docs {
		accounts = append(accounts, domain.Account{
			Key:        doc.Key,
			AccountID:  doc.AccountID,
			UID:        doc.UID,
			Password:   doc.Password,
			RareTypes:  doc.RareTypes,
			CreatedAt:  doc.CreatedAt,
			UploadedAt: doc.UploadedAt,
		})
	}
	return accounts, nil
}

func (s *MongoAccountStore) Delete(ctx context.Context, key string) error {
	res, err := s.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: key}})
	if err != nil {
		return fmt.Errorf("mongo delete account: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (s *MongoAccountStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.collection.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongo delete all accounts: %w", err)
	}
	return res.DeletedCount, nil
}
