package controller

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// ListProducts returns one filtered page of a category
// GET /api/v1/product/:gender/:toplevelCat/:category
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	query := service.ProductQuery{
		Gender:           model.Gender(c.Param("gender")),
		TopLevelCategory: c.Param("toplevelCat"),
		Category:         c.Param("category"),
		Brands:           splitList(c.Query("brands")),
		Sizes:            splitList(c.Query("sizes")),
		Colors:           splitList(c.Query("colors")),
		Sort:             c.Query("sort"),
	}

	var err error
	if query.MinPrice, err = optionalFloat(c.Query("minPrice")); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "minPrice must be a number")
		return
	}
	if query.MaxPrice, err = optionalFloat(c.Query("maxPrice")); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "maxPrice must be a number")
		return
	}
	if raw := c.Query("page"); raw != "" {
		if query.Page, err = strconv.Atoi(raw); err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "page must be a number")
			return
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if query.Limit, err = strconv.Atoi(raw); err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "limit must be a number")
			return
		}
	}

	page, err := ctrl.productService.ListProducts(query)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTopLevelCategoryNotFound):
			apperrors.NotFound(c, apperrors.CategoryNotFound, "top level category not found")
		case errors.Is(err, service.ErrSubcategoryNotFound):
			apperrors.NotFound(c, apperrors.SubcategoryNotFound, "subcategory not found")
		default:
			log.Error("Failed to list products", err, map[string]interface{}{
				"top_level": query.TopLevelCategory,
				"category":  query.Category,
			})
			apperrors.InternalError(c, "failed to fetch products")
		}
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetProductByID returns a product with its reviews
// GET /api/v1/product/id/:id
func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProductByID(id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			log.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			apperrors.NotFound(c, apperrors.ProductNotFound, "product not found")
			return
		}
		log.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		apperrors.InternalError(c, "failed to fetch product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// GetNewArrivals returns the latest products per audience
// GET /api/v1/product/new
func (ctrl *ProductController) GetNewArrivals(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	arrivals, err := ctrl.productService.GetNewArrivals()
	if err != nil {
		log.Error("Failed to fetch new arrivals", err)
		apperrors.InternalError(c, "failed to fetch new arrivals")
		return
	}

	c.JSON(http.StatusOK, gin.H{"newProducts": arrivals})
}

// CreateProduct creates a product from a multipart form (Admin only)
// POST /api/v1/product
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	form, err := c.MultipartForm()
	if err != nil {
		log.Warn("Invalid product form", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "multipart form expected")
		return
	}

	input := service.CreateProductInput{
		Title:               c.PostForm("title"),
		Description:         c.PostForm("description"),
		Brand:               c.PostForm("brand"),
		Color:               c.PostForm("color"),
		Gender:              model.Gender(c.PostForm("gender")),
		TopLevelCategory:    c.PostForm("topLevelCategory"),
		SecondLevelCategory: c.PostForm("secondLevelCategory"),
		SizesJSON:           c.PostForm("sizes"),
	}
	if input.Price, err = strconv.ParseFloat(c.PostForm("price"), 64); err != nil {
		apperrors.BadRequest(c, apperrors.ProductInvalidPrice, "price must be a number")
		return
	}
	if raw := c.PostForm("discountedPrice"); raw != "" {
		if input.DiscountedPrice, err = strconv.ParseFloat(raw, 64); err != nil {
			apperrors.BadRequest(c, apperrors.ProductInvalidPrice, "discountedPrice must be a number")
			return
		}
	} else {
		input.DiscountedPrice = input.Price
	}

	images, closeAll, err := openImages(form.File["images"])
	defer closeAll()
	if err != nil {
		log.Warn("Failed to read uploaded image", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.UploadFailed, "could not read uploaded image")
		return
	}

	product, err := ctrl.productService.CreateProduct(c.Request.Context(), input, images)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidProduct):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		case errors.Is(err, service.ErrStorageNotConfigured):
			log.Error("Product image upload without storage", err)
			apperrors.InternalError(c, "image storage is not configured")
		default:
			log.Error("Failed to create product", err, map[string]interface{}{
				"title": input.Title,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "create product")
		}
		return
	}

	log.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"images":     len(images),
	})

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// ExportProducts downloads the catalog as a workbook (Admin only)
// GET /api/v1/product/export
func (ctrl *ProductController) ExportProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var buf bytes.Buffer
	if err := ctrl.productService.ExportProducts(&buf); err != nil {
		log.Error("Failed to export products", err)
		apperrors.InternalError(c, "failed to export products")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="products.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func openImages(headers []*multipart.FileHeader) ([]service.ImageFile, func(), error) {
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	images := make([]service.ImageFile, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, closeAll, err
		}
		files = append(files, f)
		images = append(images, service.ImageFile{
			Filename:    h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Size:        h.Size,
			Reader:      f,
		})
	}
	return images, closeAll, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func optionalFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
