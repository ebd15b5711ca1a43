// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"net/url"

	"github.com/amirphl/filterkit/filterset"
	"github.com/amirphl/filterkit/models"
)

type Repository[T any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
}

// CampaignPage is one page of campaigns selected by a filterset pass
type CampaignPage struct {
	Items []*models.Campaign
	// Total counts every campaign matching the filters, ignoring limit and offset
	Total int64
	// Filter is the pass that produced the page. When it is not valid,
	// Items is empty and no query was sent to the database.
	Filter *filterset.Result
}

// CampaignRepository defines operations for campaigns
type CampaignRepository interface {
	Repository[models.Campaign]
	ByUUID(ctx context.Context, uuid string) (*models.Campaign, error)
	ByFilterSet(ctx context.Context, fs *filterset.FilterSet, data url.Values, orderBy string, limit, offset int) (*CampaignPage, error)
	UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error
}

// CustomerRepository defines operations for customers
type CustomerRepository interface {
	Repository[models.Customer]
	ByUUID(ctx context.Context, uuid string) (*models.Customer, error)
	ByEmail(ctx context.Context, email string) (*models.Customer, error)
	ListActiveCustomers(ctx context.Context, limit, offset int) ([]*models.Customer, error)
}
