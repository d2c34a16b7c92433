package mongo

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// ListItems returns the items attached to the category, ordered by name.
func (s *Store) ListItems(ctx context.Context, categoryID string) ([]*types.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	db, err := s.database()
	if err != nil {
		return nil, err
	}
	cat, err := findCategory(ctx, db, categoryID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		"category_id": cat.ID,
		"_id":         bson.M{"$in": cat.Items},
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := db.Collection(colItems).Find(ctx, filter, opts)
	if err != nil {
		return nil, storageErr("list items", err)
	}
	var models []itemModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, storageErr("list items", err)
	}

	out := make([]*types.Item, 0, len(models))
	for i := range models {
		out = append(out, models[i].toItem())
	}
	return out, nil
}

// AddItem inserts the item document and then adds its id to the category's
// membership set. If the membership update fails the item document is
// deleted again; should that also fail, the next Attach prunes it.
func (s *Store) AddItem(ctx context.Context, categoryID string, in types.ItemInput) (*types.Item, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	db, err := s.database()
	if err != nil {
		return nil, err
	}
	cat, err := findCategory(ctx, db, categoryID)
	if err != nil {
		return nil, err
	}

	m := itemModel{
		ID:          generateID(),
		Name:        in.Name,
		Quantity:    in.Quantity,
		Description: in.Description,
		CategoryID:  cat.ID,
	}
	if _, err := db.Collection(colItems).InsertOne(ctx, m); err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("item %q in category %q: %w", in.Name, cat.Name, types.ErrAlreadyExists)
		}
		return nil, storageErr("insert item", err)
	}

	res, err := db.Collection(colCategories).UpdateOne(ctx,
		bson.M{"_id": cat.ID},
		bson.M{"$addToSet": bson.M{"items": m.ID}})
	if err == nil && res.MatchedCount == 0 {
		err = types.ErrCategoryNotFound
	}
	if err != nil {
		if _, delErr := db.Collection(colItems).DeleteOne(ctx, bson.M{"_id": m.ID}); delErr != nil {
			s.logger.Warn("leaving unreferenced item", "item", m.ID, "error", delErr)
		}
		if errors.Is(err, types.ErrCategoryNotFound) {
			return nil, err
		}
		return nil, storageErr("attach item", err)
	}
	return m.toItem(), nil
}

// RemoveItem pulls the item id from the category's membership set and then
// deletes the item document.
func (s *Store) RemoveItem(ctx context.Context, categoryID, name string) (*types.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	db, err := s.database()
	if err != nil {
		return nil, err
	}
	m, err := findItem(ctx, db, categoryID, name)
	if err != nil {
		return nil, err
	}

	if _, err := db.Collection(colCategories).UpdateOne(ctx,
		bson.M{"_id": m.CategoryID},
		bson.M{"$pull": bson.M{"items": m.ID}}); err != nil {
		return nil, storageErr("detach item", err)
	}
	if _, err := db.Collection(colItems).DeleteOne(ctx, bson.M{"_id": m.ID}); err != nil {
		return nil, storageErr("delete item", err)
	}
	return m.toItem(), nil
}

// AdjustQuantity applies op with magnitude in a single conditional update.
// A decrement only matches while the quantity covers it; an increment only
// while the result fits in an int64.
func (s *Store) AdjustQuantity(ctx context.Context, categoryID, name string, magnitude int64, op types.Operation) (*types.QuantityChange, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidOperation, op)
	}
	if magnitude < 0 {
		return nil, fmt.Errorf("%w: magnitude must not be negative", types.ErrValidation)
	}

	delta := magnitude
	filter := bson.M{"category_id": categoryID, "name": name}
	guard := types.ErrQuantityOverflow
	if op == types.OpDecrement {
		delta = -magnitude
		filter["quantity"] = bson.M{"$gte": magnitude}
		guard = types.ErrNegativeQuantity
	} else {
		filter["quantity"] = bson.M{"$lte": math.MaxInt64 - magnitude}
	}
	update := bson.M{"$inc": bson.M{"quantity": delta}}

	m, err := s.updateQuantity(ctx, categoryID, name, filter, update, options.After, guard)
	if err != nil {
		return nil, err
	}
	return &types.QuantityChange{Item: m.toItem(), Before: m.Quantity - delta, After: m.Quantity}, nil
}

// SetQuantity overwrites the quantity with an absolute value.
func (s *Store) SetQuantity(ctx context.Context, categoryID, name string, quantity int64) (*types.QuantityChange, error) {
	if quantity < 0 {
		return nil, types.ErrNegativeQuantity
	}

	filter := bson.M{"category_id": categoryID, "name": name}
	update := bson.M{"$set": bson.M{"quantity": quantity}}

	m, err := s.updateQuantity(ctx, categoryID, name, filter, update, options.Before, types.ErrNegativeQuantity)
	if err != nil {
		return nil, err
	}
	item := m.toItem()
	before := item.Quantity
	item.Quantity = quantity
	return &types.QuantityChange{Item: item, Before: before, After: quantity}, nil
}

// updateQuantity runs one FindOneAndUpdate. When nothing matches it tells
// a missing item apart from a guard that rejected the change, returning
// guardErr for the latter.
func (s *Store) updateQuantity(ctx context.Context, categoryID, name string, filter, update bson.M, doc options.ReturnDocument, guardErr error) (*itemModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	db, err := s.database()
	if err != nil {
		return nil, err
	}
	if _, err := findCategory(ctx, db, categoryID); err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(doc)
	var m itemModel
	err = db.Collection(colItems).FindOneAndUpdate(ctx, filter, update, opts).Decode(&m)
	if err == nil {
		return &m, nil
	}
	if !isNoDocuments(err) {
		return nil, storageErr("update quantity", err)
	}
	if _, err := findItem(ctx, db, categoryID, name); err != nil {
		return nil, err
	}
	return nil, guardErr
}

func findItem(ctx context.Context, db *mongod.Database, categoryID, name string) (*itemModel, error) {
	if _, err := findCategory(ctx, db, categoryID); err != nil {
		return nil, err
	}
	var m itemModel
	err := db.Collection(colItems).FindOne(ctx, bson.M{"category_id": categoryID, "name": name}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: %s", types.ErrItemNotFound, name)
		}
		return nil, storageErr("get item", err)
	}
	return &m, nil
}
