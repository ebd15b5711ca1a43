package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/amirphl/filterkit/models"
	"github.com/amirphl/filterkit/utils"
	"github.com/shopspring/decimal"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestCustomer creates an active customer. An empty company name makes an individual.
func (tf *TestFixtures) CreateTestCustomer(companyName string) (*models.Customer, error) {
	customer := &models.Customer{
		RepresentativeFirstName: "John",
		RepresentativeLastName:  "Doe",
		Email:                   fmt.Sprintf("john.doe.%09d@example.com", rand.Intn(900000000)+100000000),
		IsActive:                utils.ToPtr(true),
	}
	if companyName != "" {
		customer.CompanyName = &companyName
	}

	if err := tf.DB.DB.Create(customer).Error; err != nil {
		return nil, fmt.Errorf("failed to create test customer: %w", err)
	}
	return customer, nil
}

// CampaignOption customizes a fixture campaign before it is inserted
type CampaignOption func(*models.Campaign)

// WithStatus sets the campaign status
func WithStatus(status models.CampaignStatus) CampaignOption {
	return func(c *models.Campaign) { c.Status = status }
}

// WithSegment sets the campaign segment
func WithSegment(segment string) CampaignOption {
	return func(c *models.Campaign) { c.Segment = segment }
}

// WithCity sets the campaign city
func WithCity(city string) CampaignOption {
	return func(c *models.Campaign) { c.City = &city }
}

// WithBudget sets the campaign budget from its decimal string form
func WithBudget(budget string) CampaignOption {
	return func(c *models.Campaign) { c.Budget = decimal.RequireFromString(budget) }
}

// WithCreatedAt sets the creation time
func WithCreatedAt(t time.Time) CampaignOption {
	return func(c *models.Campaign) { c.CreatedAt = t.UTC() }
}

// WithScheduleAt sets the schedule time
func WithScheduleAt(t time.Time) CampaignOption {
	return func(c *models.Campaign) { c.ScheduleAt = utils.TimeToUTCPtr(&t) }
}

// Archived marks the campaign archived
func Archived() CampaignOption {
	return func(c *models.Campaign) { c.Archived = true }
}

// CreateTestCampaign creates a campaign owned by the given customer
func (tf *TestFixtures) CreateTestCampaign(customerID uint, title string, opts ...CampaignOption) (*models.Campaign, error) {
	campaign := &models.Campaign{
		CustomerID: customerID,
		Title:      title,
		Status:     models.CampaignStatusInitiated,
		Segment:    "retail",
		Budget:     decimal.NewFromInt(100),
	}
	for _, opt := range opts {
		opt(campaign)
	}

	if err := tf.DB.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign %q: %w", title, err)
	}
	return campaign, nil
}
