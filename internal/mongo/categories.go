package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// CreateCategory inserts a category with an empty membership set.
func (s *Store) CreateCategory(ctx context.Context, name string) (*types.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	db, err := s.database()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, types.ErrInvalidName
	}

	m := categoryModel{ID: generateID(), Name: name, Items: []string{}}
	if _, err := db.Collection(colCategories).InsertOne(ctx, m); err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("category %q: %w", name, types.ErrAlreadyExists)
		}
		return nil, storageErr("create category", err)
	}
	return m.toCategory(), nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]*types.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	db, err := s.database()
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := db.Collection(colCategories).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storageErr("list categories", err)
	}
	var models []categoryModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, storageErr("list categories", err)
	}
	if len(models) == 0 {
		return nil, types.ErrEmptyResult
	}

	out := make([]*types.Category, 0, len(models))
	for i := range models {
		out = append(out, models[i].toCategory())
	}
	return out, nil
}

// GetCategory returns the category with the given id.
func (s *Store) GetCategory(ctx context.Context, id string) (*types.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	db, err := s.database()
	if err != nil {
		return nil, err
	}
	m, err := findCategory(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return m.toCategory(), nil
}

func findCategory(ctx context.Context, db *mongod.Database, id string) (*categoryModel, error) {
	if id == "" {
		return nil, types.ErrCategoryNotFound
	}
	var m categoryModel
	err := db.Collection(colCategories).FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, types.ErrCategoryNotFound
		}
		return nil, storageErr("get category", err)
	}
	return &m, nil
}
