package repository

import (
	"testing"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)

	user := &model.User{
		FirstName:    "Asha",
		LastName:     "Rao",
		Email:        "asha@example.com",
		PasswordHash: "hash",
		Role:         model.RoleCustomer,
	}
	require.NoError(t, repo.Create(user))
	assert.NotZero(t, user.ID)

	byEmail, err := repo.FindByEmail("  ASHA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", byID.FullName())

	_, err = repo.FindByEmail("nobody@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)

	createUser(t, testDB, "dup@example.com")
	err := repo.Create(&model.User{FirstName: "B", Email: "dup@example.com", PasswordHash: "x"})
	assert.Error(t, err)
}

func TestUserRepository_Update(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)
	user := createUser(t, testDB, "update@example.com")

	user.Mobile = "8888888888"
	require.NoError(t, repo.Update(user))

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "8888888888", found.Mobile)
}

func TestAddressRepository(t *testing.T) {
	testDB := setupTestDB(t)
	users := NewUserRepository(testDB)
	repo := NewAddressRepository(testDB)
	owner := createUser(t, testDB, "owner@example.com")
	other := createUser(t, testDB, "other@example.com")

	first := &model.Address{UserID: owner.ID, PostalAddress: shippingAddress()}
	require.NoError(t, repo.Create(first))
	second := &model.Address{UserID: owner.ID, PostalAddress: shippingAddress()}
	second.City = "Mysuru"
	require.NoError(t, repo.Create(second))

	list, err := repo.FindByUserID(owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = repo.FindByIDAndUserID(first.ID, other.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	withAddresses, err := users.FindByIDWithAddresses(owner.ID)
	require.NoError(t, err)
	require.Len(t, withAddresses.Addresses, 2)
	assert.Equal(t, "Mysuru", withAddresses.Addresses[1].City)

	require.NoError(t, repo.Delete(first.ID))
	list, err = repo.FindByUserID(owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCategoryRepository_FindOrCreate(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewCategoryRepository(testDB)

	top, err := repo.FindOrCreate("Footwear", nil)
	require.NoError(t, err)
	again, err := repo.FindOrCreate("Footwear", nil)
	require.NoError(t, err)
	assert.Equal(t, top.ID, again.ID)

	child, err := repo.FindOrCreate("Sneakers", &top.ID)
	require.NoError(t, err)
	assert.Equal(t, top.ID, *child.ParentID)

	found, err := repo.FindChildByName(top.ID, "Sneakers")
	require.NoError(t, err)
	assert.Equal(t, child.ID, found.ID)

	_, err = repo.FindTopLevelByName("Sneakers")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
