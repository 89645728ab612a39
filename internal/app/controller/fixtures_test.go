package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/internal/db"
	"github.com/ikkim/shopfront-backend/internal/middleware"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	router   *gin.Engine
	users    repository.UserRepository
	products repository.ProductRepository
	carts    repository.CartRepository
	orders   repository.OrderRepository
	reviews  repository.ReviewRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())

	return &fixture{
		db:       testDB,
		router:   router,
		users:    repository.NewUserRepository(testDB),
		products: repository.NewProductRepository(testDB),
		carts:    repository.NewCartRepository(testDB),
		orders:   repository.NewOrderRepository(testDB),
		reviews:  repository.NewReviewRepository(testDB),
	}
}

// asUser stands in for the auth middleware.
func asUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func (f *fixture) customer(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{FirstName: "Test", LastName: "User", Email: email, PasswordHash: "hash", Role: model.RoleCustomer}
	require.NoError(t, f.db.Create(user).Error)
	require.NoError(t, f.db.Create(&model.Cart{UserID: user.ID}).Error)
	return user
}

func (f *fixture) product(t *testing.T, price, discounted float64) *model.Product {
	t.Helper()
	var top model.Category
	require.NoError(t, f.db.Where(model.Category{Name: "Clothing"}).FirstOrCreate(&top).Error)
	var leaf model.Category
	require.NoError(t, f.db.Where(model.Category{Name: "Shirts", ParentID: &top.ID}).FirstOrCreate(&leaf).Error)

	p := &model.Product{
		Title:           "Oxford Shirt",
		Description:     "cotton",
		Price:           model.NewMoney(price),
		DiscountedPrice: model.NewMoney(discounted),
		Brand:           "Acme",
		Color:           "Blue",
		Gender:          model.GenderMen,
		CategoryID:      leaf.ID,
		Sizes:           []model.ProductSize{{Name: "M", Quantity: 10}, {Name: "L", Quantity: 3}},
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func performRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func testShipping() model.PostalAddress {
	return model.PostalAddress{
		FirstName: "Test",
		LastName:  "User",
		Country:   "India",
		Address:   "12 MG Road",
		City:      "Bengaluru",
		State:     "KA",
		Zipcode:   "560001",
		Mobile:    "9999999999",
		Email:     "test@example.com",
	}
}

func performRequestWithHeader(router http.Handler, method, path, body, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(header, value)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
