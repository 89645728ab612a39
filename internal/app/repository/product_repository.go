package repository

import (
	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductSort string

const (
	ProductSortDefault   ProductSort = ""
	ProductSortPriceAsc  ProductSort = "price_asc"
	ProductSortPriceDesc ProductSort = "price_desc"
	ProductSortNewest    ProductSort = "newest"
	ProductSortRating    ProductSort = "rating"
)

// ProductFilter is AND-combined; zero-valued fields are not applied.
type ProductFilter struct {
	Gender     model.Gender
	CategoryID uint
	MinPrice   *float64
	MaxPrice   *float64
	Brands     []string
	Sizes      []string
	Colors     []string
	Sort       ProductSort
	Limit      int
	Offset     int
}

type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	Create(product *model.Product) error
	CreateInBatches(products []model.Product, batchSize int) error
	FindByID(id uint) (*model.Product, error)
	FindWithReviews(id uint) (*model.Product, error)
	FindWithFilter(filter ProductFilter) ([]model.Product, int64, error)
	FindLatest(genders []model.Gender, limit int) ([]model.Product, error)
	FindAll() ([]model.Product, error)
	FindAllIDs() ([]uint, error)
	UpdateRatings(id uint, ratings float64) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepository{db: tx}
}

// Create inserts the product together with its sizes and images.
func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"title":       product.Title,
		"category_id": product.CategoryID,
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"title": product.Title,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"sizes":      len(product.Sizes),
		"images":     len(product.Images),
	})
	return nil
}

func (r *productRepository) CreateInBatches(products []model.Product, batchSize int) error {
	if len(products) == 0 {
		return nil
	}
	if err := r.db.CreateInBatches(&products, batchSize).Error; err != nil {
		logger.Error("Failed to bulk create products", err, map[string]interface{}{
			"count": len(products),
		})
		return err
	}
	return nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	err := r.db.Preload("Sizes").Preload("Images").Preload("Category").First(&product, id).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find product by ID", err, map[string]interface{}{
				"product_id": id,
			})
		}
		return nil, err
	}
	return &product, nil
}

// FindWithReviews loads the product page: sizes, images, category and
// reviews newest first with the author's public name.
func (r *productRepository) FindWithReviews(id uint) (*model.Product, error) {
	logger.Debug("Finding product with reviews", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	err := r.db.
		Preload("Sizes").
		Preload("Images").
		Preload("Category").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		Preload("Reviews.User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "first_name", "last_name")
		}).
		First(&product, id).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find product with reviews", err, map[string]interface{}{
				"product_id": id,
			})
		}
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindWithFilter(filter ProductFilter) ([]model.Product, int64, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"gender":      filter.Gender,
		"category_id": filter.CategoryID,
		"brands":      filter.Brands,
		"sizes":       filter.Sizes,
		"colors":      filter.Colors,
		"sort":        filter.Sort,
		"limit":       filter.Limit,
		"offset":      filter.Offset,
	})

	query := r.applyFilter(r.db.Model(&model.Product{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count filtered products", err)
		return nil, 0, err
	}

	var products []model.Product
	page := r.applyFilter(r.db.Model(&model.Product{}), filter).
		Preload("Sizes").
		Preload("Images")

	switch filter.Sort {
	case ProductSortPriceAsc:
		page = page.Order("price ASC").Order("id ASC")
	case ProductSortPriceDesc:
		page = page.Order("price DESC").Order("id ASC")
	case ProductSortNewest:
		page = page.Order("created_at DESC").Order("id DESC")
	case ProductSortRating:
		page = page.Order("ratings DESC").Order("id ASC")
	default:
		page = page.Order("id ASC")
	}

	if filter.Limit > 0 {
		page = page.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		page = page.Offset(filter.Offset)
	}

	if err := page.Find(&products).Error; err != nil {
		logger.Error("Failed to find filtered products", err)
		return nil, 0, err
	}

	logger.Debug("Filtered products found", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

func (r *productRepository) applyFilter(query *gorm.DB, filter ProductFilter) *gorm.DB {
	if filter.Gender != "" {
		query = query.Where("gender = ?", filter.Gender)
	}
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if len(filter.Brands) > 0 {
		query = query.Where("brand IN ?", filter.Brands)
	}
	if len(filter.Colors) > 0 {
		query = query.Where("color IN ?", filter.Colors)
	}
	if len(filter.Sizes) > 0 {
		query = query.Where("id IN (?)",
			r.db.Model(&model.ProductSize{}).Select("product_id").Where("name IN ?", filter.Sizes))
	}
	return query
}

// FindLatest returns the newest products, optionally restricted to genders.
func (r *productRepository) FindLatest(genders []model.Gender, limit int) ([]model.Product, error) {
	query := r.db.Preload("Images").Order("created_at DESC").Order("id DESC").Limit(limit)
	if len(genders) > 0 {
		query = query.Where("gender IN ?", genders)
	}

	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		logger.Error("Failed to find latest products", err, map[string]interface{}{
			"genders": genders,
		})
		return nil, err
	}
	return products, nil
}

func (r *productRepository) FindAll() ([]model.Product, error) {
	var products []model.Product
	err := r.db.Preload("Sizes").Preload("Images").Preload("Category.Parent").Order("id ASC").Find(&products).Error
	if err != nil {
		logger.Error("Failed to find all products", err)
		return nil, err
	}
	return products, nil
}

func (r *productRepository) FindAllIDs() ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&model.Product{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		logger.Error("Failed to list product IDs", err)
		return nil, err
	}
	return ids, nil
}

func (r *productRepository) UpdateRatings(id uint, ratings float64) error {
	err := r.db.Model(&model.Product{}).Where("id = ?", id).UpdateColumn("ratings", ratings).Error
	if err != nil {
		logger.Error("Failed to update product ratings", err, map[string]interface{}{
			"product_id": id,
			"ratings":    ratings,
		})
		return err
	}
	return nil
}
