package mongo

import "github.com/mesh-intelligence/stockroom/pkg/types"

type categoryModel struct {
	ID    string   `bson:"_id"`
	Name  string   `bson:"name"`
	Items []string `bson:"items"`
}

type itemModel struct {
	ID          string `bson:"_id"`
	Name        string `bson:"name"`
	Quantity    int64  `bson:"quantity"`
	Description string `bson:"description,omitempty"`
	CategoryID  string `bson:"category_id"`
}

func (m *categoryModel) toCategory() *types.Category {
	ids := m.Items
	if ids == nil {
		ids = []string{}
	}
	return &types.Category{ID: m.ID, Name: m.Name, ItemIDs: ids}
}

func (m *itemModel) toItem() *types.Item {
	return &types.Item{
		ID:          m.ID,
		Name:        m.Name,
		Quantity:    m.Quantity,
		Description: m.Description,
		CategoryID:  m.CategoryID,
	}
}
