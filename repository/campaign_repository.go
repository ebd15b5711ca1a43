package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/amirphl/filterkit/filterset"
	"github.com/amirphl/filterkit/models"
	"github.com/amirphl/filterkit/query/gormquery"
	"github.com/amirphl/filterkit/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CampaignRepositoryImpl implements the CampaignRepository interface
type CampaignRepositoryImpl struct {
	*BaseRepository[models.Campaign]
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &CampaignRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Campaign](db),
	}
}

// ByID retrieves a campaign by ID
func (r *CampaignRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaign models.Campaign
	err := db.Preload("Customer").Last(&campaign, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &campaign, nil
}

// ByUUID retrieves a campaign by UUID
func (r *CampaignRepositoryImpl) ByUUID(ctx context.Context, id string) (*models.Campaign, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid campaign uuid %q: %w", id, err)
	}

	db := r.getDB(ctx)

	var campaign models.Campaign
	err = db.Preload("Customer").Where("uuid = ?", parsed).Last(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &campaign, nil
}

// filtered runs one filterset pass over the campaigns table. The returned
// chain is nil when the pass reported validation errors.
func (r *CampaignRepositoryImpl) filtered(ctx context.Context, fs *filterset.FilterSet, data url.Values) (*gorm.DB, *filterset.Result, error) {
	base := gormquery.New(r.getDB(ctx).Model(&models.Campaign{}))

	res, err := fs.Filter(ctx, base, data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to filter campaigns: %w", err)
	}
	if !res.Valid() {
		return nil, res, nil
	}

	q, ok := res.Query.(*gormquery.Query)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected campaign query %T", res.Query)
	}
	if err := q.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to build campaign query: %w", err)
	}

	return q.DB(), res, nil
}

// ByFilterSet lists campaigns narrowed by fs over data. A negative or zero
// limit returns every matching row.
func (r *CampaignRepositoryImpl) ByFilterSet(ctx context.Context, fs *filterset.FilterSet, data url.Values, orderBy string, limit, offset int) (*CampaignPage, error) {
	chain, res, err := r.filtered(ctx, fs, data)
	if err != nil {
		return nil, err
	}

	page := &CampaignPage{Items: []*models.Campaign{}, Filter: res}
	if chain == nil {
		return page, nil
	}

	if err := chain.Session(&gorm.Session{}).Count(&page.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count campaigns: %w", err)
	}

	find := chain.Session(&gorm.Session{}).Preload("Customer")
	if orderBy != "" {
		find = find.Order(orderBy)
	}
	if limit > 0 {
		find = find.Limit(limit)
	}
	if offset > 0 {
		find = find.Offset(offset)
	}

	if err := find.Find(&page.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	return page, nil
}

// UpdateStatus updates only the status of a campaign
func (r *CampaignRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid campaign status %q", status)
	}

	err := r.getDB(ctx).Model(&models.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update campaign %d status: %w", id, err)
	}

	return nil
}
