package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	productSheet      = "Products"
	importBatchSize   = 100
	imageURLSeparator = ","
)

// Column layout shared by export and import. Import locates columns by
// header name, so extra or reordered columns are tolerated.
var productSheetHeader = []string{
	"ID", "Title", "Description", "Price", "DiscountedPrice", "Brand", "Color",
	"Gender", "TopLevelCategory", "Category", "Sizes", "ImageURLs", "Ratings",
}

var requiredImportColumns = []string{
	"Title", "Description", "Price", "DiscountedPrice", "Gender", "TopLevelCategory",
}

func (s *productService) ExportProducts(w io.Writer) error {
	products, err := s.productRepo.FindAll()
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), productSheet); err != nil {
		return err
	}

	header := make([]interface{}, len(productSheetHeader))
	for i, h := range productSheetHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(productSheet, "A1", &header); err != nil {
		return err
	}

	for i, p := range products {
		topLevel, category := categoryNames(p.Category)
		sizes, err := json.Marshal(p.Sizes)
		if err != nil {
			return err
		}
		urls := make([]string, 0, len(p.Images))
		for _, img := range p.Images {
			urls = append(urls, img.URL)
		}

		row := []interface{}{
			p.ID,
			p.Title,
			p.Description,
			p.Price.InexactFloat64(),
			p.DiscountedPrice.InexactFloat64(),
			p.Brand,
			p.Color,
			string(p.Gender),
			topLevel,
			category,
			string(sizes),
			strings.Join(urls, imageURLSeparator),
			p.Ratings,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(productSheet, cell, &row); err != nil {
			return err
		}
	}

	logger.Info("Products exported", map[string]interface{}{
		"count": len(products),
	})
	return f.Write(w)
}

func categoryNames(c model.Category) (topLevel, child string) {
	if c.Parent != nil {
		return c.Parent.Name, c.Name
	}
	return c.Name, ""
}

// ImportProducts reads the first sheet of an xlsx workbook and creates one
// product per data row in a single transaction.
func (s *productService) ImportProducts(r io.Reader) (int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return 0, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return 0, fmt.Errorf("%w: workbook has no sheets", ErrInvalidProduct)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return 0, nil
	}

	columns := make(map[string]int)
	for i, name := range rows[0] {
		columns[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredImportColumns {
		if _, ok := columns[name]; !ok {
			return 0, fmt.Errorf("%w: missing column %s", ErrInvalidProduct, name)
		}
	}

	type pending struct {
		input  CreateProductInput
		sizes  []model.ProductSize
		images []model.ProductImage
	}
	var parsed []pending
	for i, row := range rows[1:] {
		get := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if get("Title") == "" && get("Description") == "" {
			continue
		}

		line := i + 2
		price, err := strconv.ParseFloat(get("Price"), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: row %d: bad price %q", ErrInvalidProduct, line, get("Price"))
		}
		discounted, err := strconv.ParseFloat(get("DiscountedPrice"), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: row %d: bad discounted price %q", ErrInvalidProduct, line, get("DiscountedPrice"))
		}

		input := CreateProductInput{
			Title:               get("Title"),
			Description:         get("Description"),
			Price:               price,
			DiscountedPrice:     discounted,
			Brand:               get("Brand"),
			Color:               get("Color"),
			Gender:              model.Gender(get("Gender")),
			TopLevelCategory:    get("TopLevelCategory"),
			SecondLevelCategory: get("Category"),
			SizesJSON:           get("Sizes"),
		}
		if err := validateProductInput(input); err != nil {
			return 0, fmt.Errorf("row %d: %w", line, err)
		}
		sizes, err := ParseSizes(input.SizesJSON)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", line, err)
		}

		var images []model.ProductImage
		for _, url := range strings.Split(get("ImageURLs"), imageURLSeparator) {
			if url = strings.TrimSpace(url); url != "" {
				images = append(images, model.ProductImage{URL: url})
			}
		}
		parsed = append(parsed, pending{input: input, sizes: sizes, images: images})
	}
	if len(parsed) == 0 {
		return 0, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		categories := s.categoryRepo.WithTx(tx)
		resolved := make(map[string]uint)

		products := make([]model.Product, 0, len(parsed))
		for _, p := range parsed {
			key := p.input.TopLevelCategory + "/" + p.input.SecondLevelCategory
			categoryID, ok := resolved[key]
			if !ok {
				id, err := s.resolveCategory(categories, p.input.TopLevelCategory, p.input.SecondLevelCategory)
				if err != nil {
					return err
				}
				resolved[key] = id
				categoryID = id
			}

			products = append(products, model.Product{
				Title:           p.input.Title,
				Description:     p.input.Description,
				Price:           model.NewMoney(p.input.Price),
				DiscountedPrice: model.NewMoney(p.input.DiscountedPrice),
				Brand:           p.input.Brand,
				Color:           p.input.Color,
				Gender:          p.input.Gender,
				CategoryID:      categoryID,
				Sizes:           p.sizes,
				Images:          p.images,
			})
		}
		return s.productRepo.WithTx(tx).CreateInBatches(products, importBatchSize)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import products: %w", err)
	}

	logger.Info("Products imported", map[string]interface{}{
		"count": len(parsed),
	})
	return len(parsed), nil
}
