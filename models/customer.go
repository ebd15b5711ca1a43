package models

import (
	"strings"
	"time"

	"github.com/amirphl/filterkit/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer owns campaigns
type Customer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_customers_uuid" json:"uuid"`
	CompanyName *string   `gorm:"size:60" json:"company_name,omitempty"`

	RepresentativeFirstName string `gorm:"size:255;not null" json:"representative_first_name"`
	RepresentativeLastName  string `gorm:"size:255;not null" json:"representative_last_name"`
	Email                   string `gorm:"size:255;not null;uniqueIndex:uk_customers_email" json:"email"`

	IsActive  *bool     `gorm:"default:true;index:idx_customers_is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_customers_created_at" json:"created_at"`

	Campaigns []Campaign `gorm:"foreignKey:CustomerID" json:"-"`
}

func (Customer) TableName() string {
	return "customers"
}

// BeforeCreate is called before creating a new record
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.IsActive == nil {
		c.IsActive = utils.ToPtr(true)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// DisplayName is the company name, or the representative's full name for individuals
func (c *Customer) DisplayName() string {
	if c.CompanyName != nil && *c.CompanyName != "" {
		return *c.CompanyName
	}
	return strings.TrimSpace(c.RepresentativeFirstName + " " + c.RepresentativeLastName)
}
