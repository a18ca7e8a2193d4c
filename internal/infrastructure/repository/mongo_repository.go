package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/infrastructure/repository/entity"
	"shopify-oauth-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository implements ShopRepository and WebhookEventLog using MongoDB
type MongoRepository struct {
	shopsCollection    *mongo.Collection
	webhooksCollection *mongo.Collection
}

var (
	_ ports.ShopRepository  = (*MongoRepository)(nil)
	_ ports.WebhookEventLog = (*MongoRepository)(nil)
)

// NewMongoRepository creates a new MongoDB repository
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		shopsCollection:    db.Collection("shops"),
		webhooksCollection: db.Collection("webhook_events"),
	}
}

// EnsureIndexes creates the unique shop domain index
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.shopsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "domain", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create shop index: %w", err)
	}
	return nil
}

// SaveShop saves or updates a shop
func (r *MongoRepository) SaveShop(ctx context.Context, shop *domain.Shop) error {
	doc := entity.MongoShopDocFromDomain(shop)
	doc.UpdatedAt = time.Now()
	if doc.InstalledAt.IsZero() {
		doc.InstalledAt = doc.UpdatedAt
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"domain": shop.Domain}
	update := bson.M{"$set": doc}

	_, err := r.shopsCollection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save shop: %w", err)
	}

	return nil
}

// GetShop retrieves a shop by domain
func (r *MongoRepository) GetShop(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	var doc entity.MongoShopDoc
	filter := bson.M{"domain": shopDomain}

	err := r.shopsCollection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", domain.ErrShopNotFound, shopDomain)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}

	return doc.ToDomain(), nil
}

// DeleteShop removes a shop and its token
func (r *MongoRepository) DeleteShop(ctx context.Context, shopDomain string) error {
	result, err := r.shopsCollection.DeleteOne(ctx, bson.M{"domain": shopDomain})
	if err != nil {
		return fmt.Errorf("failed to delete shop: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", domain.ErrShopNotFound, shopDomain)
	}
	return nil
}

// LogWebhook logs a webhook event
func (r *MongoRepository) LogWebhook(ctx context.Context, event *domain.WebhookEvent) error {
	doc := entity.MongoWebhookDocFromDomain(event)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = time.Now()
	if doc.ReceivedAt.IsZero() {
		doc.ReceivedAt = doc.CreatedAt
	}

	_, err := r.webhooksCollection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to log webhook: %w", err)
	}

	return nil
}
