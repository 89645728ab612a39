package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/internal/storage"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound          = errors.New("product not found")
	ErrTopLevelCategoryNotFound = errors.New("top-level category not found")
	ErrSubcategoryNotFound      = errors.New("subcategory not found")
	ErrInvalidProduct           = errors.New("invalid product")
	ErrStorageNotConfigured     = errors.New("image storage is not configured")
)

const (
	DefaultPageLimit = 9
	MaxPageLimit     = 100
	// MaxPage keeps the row offset inside a 32-bit integer.
	MaxPage = math.MaxInt32 / MaxPageLimit

	newArrivalsAll     = 8
	newArrivalsSection = 4
)

// Sort labels accepted by the catalog listing.
const (
	SortLowToHigh = "Low To High"
	SortHighToLow = "High To Low"
	SortNewest    = "Newest"
	SortHighRated = "High Rated"
)

var sortLabels = map[string]repository.ProductSort{
	SortLowToHigh: repository.ProductSortPriceAsc,
	SortHighToLow: repository.ProductSortPriceDesc,
	SortNewest:    repository.ProductSortNewest,
	SortHighRated: repository.ProductSortRating,
}

type ProductQuery struct {
	Gender           model.Gender
	TopLevelCategory string
	Category         string
	MinPrice         *float64
	MaxPrice         *float64
	Brands           []string
	Sizes            []string
	Colors           []string
	Sort             string
	Page             int
	Limit            int
}

type ProductPage struct {
	Products      []model.Product `json:"products"`
	TotalProducts int64           `json:"totalProducts"`
	TotalPages    int             `json:"totalPages"`
	CurrentPage   int             `json:"currentPage"`
}

type NewArrivals struct {
	All    []model.Product `json:"All"`
	Mens   []model.Product `json:"Mens"`
	Womens []model.Product `json:"Womens"`
	Kids   []model.Product `json:"Kids"`
}

type CreateProductInput struct {
	Title               string
	Description         string
	Price               float64
	DiscountedPrice     float64
	Brand               string
	Color               string
	Gender              model.Gender
	TopLevelCategory    string
	SecondLevelCategory string
	SizesJSON           string
}

// ImageFile is one uploaded product image.
type ImageFile struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type ProductService interface {
	ListProducts(query ProductQuery) (*ProductPage, error)
	GetProductByID(id uint) (*model.Product, error)
	GetNewArrivals() (*NewArrivals, error)
	CreateProduct(ctx context.Context, input CreateProductInput, images []ImageFile) (*model.Product, error)
	ExportProducts(w io.Writer) error
	ImportProducts(r io.Reader) (int, error)
}

type productService struct {
	db           *gorm.DB
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	images       storage.ImageStorage
}

// NewProductService builds the catalog service. images may be nil when no
// storage provider is configured; product creation with files then fails.
func NewProductService(
	db *gorm.DB,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	images storage.ImageStorage,
) ProductService {
	return &productService{
		db:           db,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		images:       images,
	}
}

func (s *productService) ListProducts(query ProductQuery) (*ProductPage, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	limit := query.Limit
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	logger.Debug("Listing products", map[string]interface{}{
		"gender":    query.Gender,
		"top_level": query.TopLevelCategory,
		"category":  query.Category,
		"sort":      query.Sort,
		"page":      page,
		"limit":     limit,
	})

	topLevel, err := s.categoryRepo.FindTopLevelByName(query.TopLevelCategory)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopLevelCategoryNotFound
		}
		return nil, fmt.Errorf("failed to resolve category: %w", err)
	}
	category, err := s.categoryRepo.FindChildByName(topLevel.ID, query.Category)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubcategoryNotFound
		}
		return nil, fmt.Errorf("failed to resolve subcategory: %w", err)
	}

	products, total, err := s.productRepo.FindWithFilter(repository.ProductFilter{
		Gender:     query.Gender,
		CategoryID: category.ID,
		MinPrice:   query.MinPrice,
		MaxPrice:   query.MaxPrice,
		Brands:     query.Brands,
		Sizes:      query.Sizes,
		Colors:     query.Colors,
		Sort:       sortLabels[query.Sort],
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}

	return &ProductPage{
		Products:      products,
		TotalProducts: total,
		TotalPages:    int(math.Ceil(float64(total) / float64(limit))),
		CurrentPage:   page,
	}, nil
}

func (s *productService) GetProductByID(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindWithReviews(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}

func (s *productService) GetNewArrivals() (*NewArrivals, error) {
	latest := func(genders []model.Gender, limit int) ([]model.Product, error) {
		products, err := s.productRepo.FindLatest(genders, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to load new arrivals: %w", err)
		}
		if products == nil {
			products = []model.Product{}
		}
		return products, nil
	}

	var (
		arrivals NewArrivals
		err      error
	)
	if arrivals.All, err = latest(nil, newArrivalsAll); err != nil {
		return nil, err
	}
	if arrivals.Mens, err = latest([]model.Gender{model.GenderMen}, newArrivalsSection); err != nil {
		return nil, err
	}
	if arrivals.Womens, err = latest([]model.Gender{model.GenderWomen}, newArrivalsSection); err != nil {
		return nil, err
	}
	if arrivals.Kids, err = latest(model.KidsGenders, newArrivalsSection); err != nil {
		return nil, err
	}
	return &arrivals, nil
}

func (s *productService) CreateProduct(ctx context.Context, input CreateProductInput, images []ImageFile) (*model.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}
	sizes, err := ParseSizes(input.SizesJSON)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.uploadImages(ctx, images)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Price:           model.NewMoney(input.Price),
		DiscountedPrice: model.NewMoney(input.DiscountedPrice),
		Brand:           strings.TrimSpace(input.Brand),
		Color:           strings.TrimSpace(input.Color),
		Gender:          input.Gender,
		Sizes:           sizes,
		Images:          uploaded,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		categoryID, err := s.resolveCategory(s.categoryRepo.WithTx(tx), input.TopLevelCategory, input.SecondLevelCategory)
		if err != nil {
			return err
		}
		product.CategoryID = categoryID
		return s.productRepo.WithTx(tx).Create(product)
	})
	if err != nil {
		s.discardImages(ctx, uploaded)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id":  product.ID,
		"category_id": product.CategoryID,
		"images":      len(uploaded),
	})

	return s.productRepo.FindByID(product.ID)
}

// resolveCategory returns the subcategory when one is named, else the
// top-level category, creating either as needed.
func (s *productService) resolveCategory(categories repository.CategoryRepository, topLevelName, childName string) (uint, error) {
	topLevel, err := categories.FindOrCreate(strings.TrimSpace(topLevelName), nil)
	if err != nil {
		return 0, err
	}
	childName = strings.TrimSpace(childName)
	if childName == "" {
		return topLevel.ID, nil
	}
	child, err := categories.FindOrCreate(childName, &topLevel.ID)
	if err != nil {
		return 0, err
	}
	return child.ID, nil
}

func (s *productService) uploadImages(ctx context.Context, images []ImageFile) ([]model.ProductImage, error) {
	if len(images) == 0 {
		return nil, nil
	}
	if s.images == nil {
		return nil, ErrStorageNotConfigured
	}

	var uploaded []model.ProductImage
	for _, img := range images {
		if err := storage.ValidateContentType(img.ContentType, storage.AllowedImageTypes); err != nil {
			s.discardImages(ctx, uploaded)
			return nil, fmt.Errorf("%w: %v", ErrInvalidProduct, err)
		}
		if err := storage.ValidateFileSize(img.Size, storage.MaxImageSize); err != nil {
			s.discardImages(ctx, uploaded)
			return nil, fmt.Errorf("%w: %v", ErrInvalidProduct, err)
		}

		result, err := s.images.Upload(ctx, img.Reader, img.Filename, img.ContentType)
		if err != nil {
			s.discardImages(ctx, uploaded)
			return nil, fmt.Errorf("failed to upload image %s: %w", img.Filename, err)
		}
		uploaded = append(uploaded, model.ProductImage{URL: result.URL, PublicID: result.PublicID})
	}
	return uploaded, nil
}

func (s *productService) discardImages(ctx context.Context, images []model.ProductImage) {
	for _, img := range images {
		if err := s.images.Delete(ctx, img.PublicID); err != nil {
			logger.Warn("Failed to delete orphaned product image", map[string]interface{}{
				"public_id": img.PublicID,
				"error":     err.Error(),
			})
		}
	}
}

func validateProductInput(input CreateProductInput) error {
	switch {
	case strings.TrimSpace(input.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidProduct)
	case strings.TrimSpace(input.Description) == "":
		return fmt.Errorf("%w: description is required", ErrInvalidProduct)
	case strings.TrimSpace(input.TopLevelCategory) == "":
		return fmt.Errorf("%w: topLevelCategory is required", ErrInvalidProduct)
	case input.Price <= 0:
		return fmt.Errorf("%w: price must be greater than 0", ErrInvalidProduct)
	case input.DiscountedPrice < 0 || input.DiscountedPrice > input.Price:
		return fmt.Errorf("%w: discountedPrice must be between 0 and price", ErrInvalidProduct)
	case !input.Gender.Valid():
		return fmt.Errorf("%w: gender must be one of Men, Women, Boy, Girl", ErrInvalidProduct)
	}
	return nil
}

// ParseSizes decodes the form's sizes field, e.g. [{"name":"M","quantity":4}].
func ParseSizes(raw string) ([]model.ProductSize, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var sizes []model.ProductSize
	if err := json.Unmarshal([]byte(raw), &sizes); err != nil {
		return nil, fmt.Errorf("%w: sizes must be a JSON array: %v", ErrInvalidProduct, err)
	}
	for _, size := range sizes {
		if strings.TrimSpace(size.Name) == "" || size.Quantity < 0 {
			return nil, fmt.Errorf("%w: every size needs a name and a non-negative quantity", ErrInvalidProduct)
		}
	}
	return sizes, nil
}
