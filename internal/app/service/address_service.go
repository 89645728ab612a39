package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrAddressNotFound = errors.New("address not found")
	ErrInvalidAddress  = errors.New("invalid address")
)

type AddressService interface {
	GetUserAddresses(userID uint) ([]model.Address, error)
	CreateAddress(userID uint, input model.PostalAddress) (*model.Address, error)
	DeleteAddress(userID, addressID uint) error
}

type addressService struct {
	addressRepo repository.AddressRepository
}

func NewAddressService(addressRepo repository.AddressRepository) AddressService {
	return &addressService{
		addressRepo: addressRepo,
	}
}

func (s *addressService) GetUserAddresses(userID uint) ([]model.Address, error) {
	addresses, err := s.addressRepo.FindByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load addresses: %w", err)
	}
	if addresses == nil {
		addresses = []model.Address{}
	}
	return addresses, nil
}

func (s *addressService) CreateAddress(userID uint, input model.PostalAddress) (*model.Address, error) {
	input = trimPostalAddress(input)
	if field := input.Missing(); field != "" {
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidAddress, field)
	}

	address := &model.Address{UserID: userID, PostalAddress: input}
	if err := s.addressRepo.Create(address); err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}

	logger.Info("Address created", map[string]interface{}{
		"user_id":    userID,
		"address_id": address.ID,
	})
	return address, nil
}

// DeleteAddress reports ErrAddressNotFound for addresses owned by others.
func (s *addressService) DeleteAddress(userID, addressID uint) error {
	if _, err := s.addressRepo.FindByIDAndUserID(addressID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAddressNotFound
		}
		return fmt.Errorf("failed to load address: %w", err)
	}

	if err := s.addressRepo.Delete(addressID); err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}

	logger.Info("Address deleted", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})
	return nil
}

func trimPostalAddress(a model.PostalAddress) model.PostalAddress {
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	a.Country = strings.TrimSpace(a.Country)
	a.Address = strings.TrimSpace(a.Address)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.Zipcode = strings.TrimSpace(a.Zipcode)
	a.Mobile = strings.TrimSpace(a.Mobile)
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	return a
}
