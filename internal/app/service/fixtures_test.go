package service

import (
	"testing"
	"time"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	db         *gorm.DB
	users      repository.UserRepository
	addresses  repository.AddressRepository
	categories repository.CategoryRepository
	products   repository.ProductRepository
	reviews    repository.ReviewRepository
	carts      repository.CartRepository
	orders     repository.OrderRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	return &testEnv{
		db:         testDB,
		users:      repository.NewUserRepository(testDB),
		addresses:  repository.NewAddressRepository(testDB),
		categories: repository.NewCategoryRepository(testDB),
		products:   repository.NewProductRepository(testDB),
		reviews:    repository.NewReviewRepository(testDB),
		carts:      repository.NewCartRepository(testDB),
		orders:     repository.NewOrderRepository(testDB),
	}
}

func (e *testEnv) authService(blacklist TokenBlacklist) AuthService {
	return NewAuthService(e.db, e.users, e.carts, blacklist, testJWTSecret, time.Hour, 24*time.Hour)
}

func (e *testEnv) cartService() CartService {
	return NewCartService(e.db, e.carts, e.products)
}

func (e *testEnv) orderService(notifier OrderNotifier) OrderService {
	return NewOrderService(e.db, e.orders, e.carts, notifier)
}

// customer creates a user with an empty cart, as signup does.
func (e *testEnv) customer(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "hash",
		Role:         model.RoleCustomer,
	}
	require.NoError(t, e.db.Create(user).Error)
	require.NoError(t, e.db.Create(&model.Cart{UserID: user.ID}).Error)
	return user
}

// category creates top/child and returns the child.
func (e *testEnv) category(t *testing.T, top, child string) *model.Category {
	t.Helper()
	parent, err := e.categories.FindOrCreate(top, nil)
	require.NoError(t, err)
	leaf, err := e.categories.FindOrCreate(child, &parent.ID)
	require.NoError(t, err)
	return leaf
}

func (e *testEnv) product(t *testing.T, categoryID uint, price, discounted float64, mutate ...func(*model.Product)) *model.Product {
	t.Helper()
	product := &model.Product{
		Title:           "Oxford Shirt",
		Description:     "cotton",
		Price:           model.NewMoney(price),
		DiscountedPrice: model.NewMoney(discounted),
		Brand:           "Acme",
		Color:           "White",
		Gender:          model.GenderMen,
		CategoryID:      categoryID,
		Sizes:           []model.ProductSize{{Name: "M", Quantity: 5}},
	}
	for _, m := range mutate {
		m(product)
	}
	require.NoError(t, e.db.Create(product).Error)
	return product
}

func testShipping() model.PostalAddress {
	return model.PostalAddress{
		FirstName: "Asha",
		LastName:  "Rao",
		Country:   "India",
		Address:   "12 MG Road",
		City:      "Bengaluru",
		State:     "KA",
		Zipcode:   "560001",
		Mobile:    "9999999999",
		Email:     "asha@example.com",
	}
}

func money(v float64) model.Money {
	return model.NewMoney(v)
}
