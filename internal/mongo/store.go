// Package mongo implements the MongoDB storage backend for stockroom.
//
// Categories and items live in two collections. A category document carries
// its membership set in the items array; an item document carries a weak
// back-reference to its category. Multi-document writes are ordered so that
// an interruption leaves at most an unreferenced item document, which the
// next Attach prunes.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// Collection names.
const (
	colCategories = "categories"
	colItems      = "items"
)

// connectTimeout bounds Attach, which has no caller context.
const connectTimeout = 10 * time.Second

var _ types.Backend = (*Store)(nil)

// Store implements types.Backend on MongoDB.
type Store struct {
	mu     sync.RWMutex
	client *mongod.Client
	db     *mongod.Database
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a detached MongoDB store. Call Attach to connect.
func New(opts ...Option) *Store {
	s := &Store{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach connects to config.Mongo.URI, ensures indexes and prunes item
// documents no category references.
func (s *Store) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongod.Connect(options.Client().ApplyURI(config.Mongo.URI))
	if err != nil {
		return storageErr("connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return storageErr("ping", err)
	}

	db := client.Database(config.Mongo.DatabaseOrDefault())
	if err := migrate(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return err
	}

	s.client = client
	s.db = db

	if err := s.reconcile(ctx); err != nil {
		s.logger.Warn("reconcile failed", "error", err)
	}
	return nil
}

// Detach disconnects the client. Idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	err := s.client.Disconnect(ctx)
	s.client = nil
	s.db = nil
	if err != nil {
		return storageErr("disconnect", err)
	}
	return nil
}

// database returns the attached database or ErrBackendDetached.
// Callers hold s.mu.
func (s *Store) database() (*mongod.Database, error) {
	if s.db == nil {
		return nil, types.ErrBackendDetached
	}
	return s.db, nil
}

// migrate creates the uniqueness indexes.
func migrate(ctx context.Context, db *mongod.Database) error {
	indexes := map[string][]mongod.IndexModel{
		colCategories: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colItems: {
			{Keys: bson.D{
				{Key: "category_id", Value: 1},
				{Key: "name", Value: 1},
			}, Options: options.Index().SetUnique(true)},
		},
	}
	for col, models := range indexes {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return storageErr("migrate "+col+" indexes", err)
		}
	}
	return nil
}

// reconcile drops membership ids that name no item and deletes item
// documents that no membership names.
func (s *Store) reconcile(ctx context.Context) error {
	var cats []categoryModel
	cur, err := s.db.Collection(colCategories).Find(ctx, bson.M{})
	if err != nil {
		return storageErr("reconcile categories", err)
	}
	if err := cur.All(ctx, &cats); err != nil {
		return storageErr("reconcile categories", err)
	}

	var items []itemModel
	cur, err = s.db.Collection(colItems).Find(ctx, bson.M{})
	if err != nil {
		return storageErr("reconcile items", err)
	}
	if err := cur.All(ctx, &items); err != nil {
		return storageErr("reconcile items", err)
	}

	owner := make(map[string]string, len(items))
	for _, it := range items {
		owner[it.ID] = it.CategoryID
	}

	referenced := map[string]bool{}
	for _, c := range cats {
		var dangling []string
		for _, id := range c.Items {
			if owner[id] == c.ID {
				referenced[id] = true
				continue
			}
			dangling = append(dangling, id)
		}
		if len(dangling) == 0 {
			continue
		}
		s.logger.Warn("dropping dangling membership", "category", c.Name, "ids", dangling)
		_, err := s.db.Collection(colCategories).UpdateOne(ctx,
			bson.M{"_id": c.ID},
			bson.M{"$pull": bson.M{"items": bson.M{"$in": dangling}}})
		if err != nil {
			return storageErr("reconcile membership", err)
		}
	}

	var orphans []string
	for _, it := range items {
		if !referenced[it.ID] {
			orphans = append(orphans, it.ID)
		}
	}
	if len(orphans) == 0 {
		return nil
	}
	s.logger.Warn("pruning unreferenced items", "count", len(orphans))
	if _, err := s.db.Collection(colItems).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": orphans}}); err != nil {
		return storageErr("reconcile items", err)
	}
	return nil
}

// generateID returns a UUID v7 string, falling back to v4.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// storageErr wraps a driver failure into types.ErrStorage.
func storageErr(op string, err error) error {
	return fmt.Errorf("stockroom/mongo: %s: %w: %w", op, types.ErrStorage, err)
}

// isNoDocuments returns true when err indicates no MongoDB documents found.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// isDuplicateKey checks if a MongoDB error is a duplicate key violation.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return mongod.IsDuplicateKeyError(err) ||
		strings.Contains(err.Error(), "E11000")
}
