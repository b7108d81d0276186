package repository

import (
	"context"
	"strings"
	"time"

	"hotelbooking/internal/domain"

	"gorm.io/gorm"
)

type MenuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

type menuItemModel struct {
	ID                 int64     `gorm:"column:id;primaryKey"`
	Name               string    `gorm:"column:name;size:100;not null"`
	Description        *string   `gorm:"column:description;type:text"`
	Category           string    `gorm:"column:category;size:30;index;not null"`
	Price              int64     `gorm:"column:price;not null"`
	ImageURL           *string   `gorm:"column:image_url;size:255"`
	Available          bool      `gorm:"column:available;index"`
	PreparationMinutes int       `gorm:"column:preparation_minutes"`
	Ingredients        *string   `gorm:"column:ingredients;type:text"`
	Allergens          *string   `gorm:"column:allergens;type:text"`
	Vegetarian         bool      `gorm:"column:vegetarian"`
	Vegan              bool      `gorm:"column:vegan"`
	GlutenFree         bool      `gorm:"column:gluten_free"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (menuItemModel) TableName() string { return "menu_items" }

func toDomainMenuItem(m menuItemModel) *domain.MenuItem {
	return &domain.MenuItem{
		ID:                 m.ID,
		Name:               m.Name,
		Description:        deref(m.Description),
		Category:           domain.MenuCategory(m.Category),
		Price:              m.Price,
		ImageURL:           deref(m.ImageURL),
		Available:          m.Available,
		PreparationMinutes: m.PreparationMinutes,
		Ingredients:        deref(m.Ingredients),
		Allergens:          deref(m.Allergens),
		Vegetarian:         m.Vegetarian,
		Vegan:              m.Vegan,
		GlutenFree:         m.GlutenFree,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toMenuItemModel(i *domain.MenuItem) menuItemModel {
	return menuItemModel{
		ID:                 i.ID,
		Name:               i.Name,
		Description:        optional(i.Description),
		Category:           string(i.Category),
		Price:              i.Price,
		ImageURL:           optional(i.ImageURL),
		Available:          i.Available,
		PreparationMinutes: i.PreparationMinutes,
		Ingredients:        optional(i.Ingredients),
		Allergens:          optional(i.Allergens),
		Vegetarian:         i.Vegetarian,
		Vegan:              i.Vegan,
		GlutenFree:         i.GlutenFree,
		CreatedAt:          i.CreatedAt,
		UpdatedAt:          i.UpdatedAt,
	}
}

// MenuFilter narrows List. Zero values match everything.
type MenuFilter struct {
	Category      domain.MenuCategory
	AvailableOnly bool
	Search        string
	Vegetarian    bool
	Vegan         bool
	GlutenFree    bool
}

func (r *MenuRepository) Create(ctx context.Context, item *domain.MenuItem) error {
	m := toMenuItemModel(item)
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return translateError(err, "menu item "+item.Name)
	}
	*item = *toDomainMenuItem(m)
	return nil
}

func (r *MenuRepository) GetByID(ctx context.Context, id int64) (*domain.MenuItem, error) {
	var m menuItemModel
	if err := conn(ctx, r.db).First(&m, id).Error; err != nil {
		return nil, translateError(err, "menu item")
	}
	return toDomainMenuItem(m), nil
}

// GetByIDs returns the items found among ids keyed by id. Missing ids are
// simply absent.
func (r *MenuRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.MenuItem, error) {
	var rows []menuItemModel
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]*domain.MenuItem, len(rows))
	for _, m := range rows {
		out[m.ID] = toDomainMenuItem(m)
	}
	return out, nil
}

func (r *MenuRepository) Update(ctx context.Context, item *domain.MenuItem) error {
	m := toMenuItemModel(item)
	m.UpdatedAt = time.Now().UTC()
	res := conn(ctx, r.db).Model(&menuItemModel{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
		"name":                m.Name,
		"description":         m.Description,
		"category":            m.Category,
		"price":               m.Price,
		"image_url":           m.ImageURL,
		"available":           m.Available,
		"preparation_minutes": m.PreparationMinutes,
		"ingredients":         m.Ingredients,
		"allergens":           m.Allergens,
		"vegetarian":          m.Vegetarian,
		"vegan":               m.Vegan,
		"gluten_free":         m.GlutenFree,
		"updated_at":          m.UpdatedAt,
	})
	if res.Error != nil {
		return translateError(res.Error, "menu item")
	}
	if res.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "menu item")
	}
	item.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *MenuRepository) List(ctx context.Context, f MenuFilter) ([]domain.MenuItem, error) {
	q := conn(ctx, r.db).Model(&menuItemModel{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.AvailableOnly {
		q = q.Where("available = ?", true)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := "%" + s + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if f.Vegetarian {
		q = q.Where("vegetarian = ?", true)
	}
	if f.Vegan {
		q = q.Where("vegan = ?", true)
	}
	if f.GlutenFree {
		q = q.Where("gluten_free = ?", true)
	}

	var rows []menuItemModel
	if err := q.Order("category ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.MenuItem, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainMenuItem(m))
	}
	return out, nil
}
