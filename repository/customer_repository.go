package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirphl/filterkit/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerRepositoryImpl implements CustomerRepository interface
type CustomerRepositoryImpl struct {
	*BaseRepository[models.Customer]
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &CustomerRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Customer](db),
	}
}

func (r *CustomerRepositoryImpl) first(ctx context.Context, query string, args ...any) (*models.Customer, error) {
	db := r.getDB(ctx)

	var customer models.Customer
	err := db.Where(query, args...).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &customer, nil
}

// ByUUID retrieves a customer by UUID
func (r *CustomerRepositoryImpl) ByUUID(ctx context.Context, id string) (*models.Customer, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid customer uuid %q: %w", id, err)
	}

	customer, err := r.first(ctx, "uuid = ?", parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to find customer by uuid: %w", err)
	}

	return customer, nil
}

// ByEmail retrieves a customer by email address
func (r *CustomerRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Customer, error) {
	customer, err := r.first(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("failed to find customer by email: %w", err)
	}

	return customer, nil
}

// ListActiveCustomers retrieves active customers with pagination
func (r *CustomerRepositoryImpl) ListActiveCustomers(ctx context.Context, limit, offset int) ([]*models.Customer, error) {
	db := r.getDB(ctx)

	var customers []*models.Customer
	err := db.Where("is_active = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&customers).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list active customers: %w", err)
	}

	return customers, nil
}
