package repository

import (
	"errors"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	WithTx(tx *gorm.DB) CategoryRepository
	FindTopLevelByName(name string) (*model.Category, error)
	FindChildByName(parentID uint, name string) (*model.Category, error)
	FindOrCreate(name string, parentID *uint) (*model.Category, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) WithTx(tx *gorm.DB) CategoryRepository {
	return &categoryRepository{db: tx}
}

func (r *categoryRepository) FindTopLevelByName(name string) (*model.Category, error) {
	var category model.Category
	if err := r.db.Where("name = ? AND parent_id IS NULL", name).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindChildByName(parentID uint, name string) (*model.Category, error) {
	var category model.Category
	if err := r.db.Where("name = ? AND parent_id = ?", name, parentID).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindOrCreate returns the (name, parent) category, creating it when missing.
func (r *categoryRepository) FindOrCreate(name string, parentID *uint) (*model.Category, error) {
	var (
		category *model.Category
		err      error
	)
	if parentID == nil {
		category, err = r.FindTopLevelByName(name)
	} else {
		category, err = r.FindChildByName(*parentID, name)
	}
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to look up category", err, map[string]interface{}{
			"name":      name,
			"parent_id": parentID,
		})
		return nil, err
	}

	created := &model.Category{Name: name, ParentID: parentID}
	if err := r.db.Create(created).Error; err != nil {
		logger.Error("Failed to create category", err, map[string]interface{}{
			"name":      name,
			"parent_id": parentID,
		})
		return nil, err
	}

	logger.Info("Category created", map[string]interface{}{
		"category_id": created.ID,
		"name":        name,
		"parent_id":   parentID,
	})
	return created, nil
}
