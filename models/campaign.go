// Package models contains the gorm entities served by the campaign listing API
package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/amirphl/filterkit/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CampaignStatus represents the status of a campaign
type CampaignStatus string

const (
	CampaignStatusInitiated          CampaignStatus = "initiated"
	CampaignStatusInProgress         CampaignStatus = "in-progress"
	CampaignStatusWaitingForApproval CampaignStatus = "waiting-for-approval"
	CampaignStatusApproved           CampaignStatus = "approved"
	CampaignStatusRejected           CampaignStatus = "rejected"
)

// CampaignStatuses lists every status in lifecycle order
var CampaignStatuses = []CampaignStatus{
	CampaignStatusInitiated,
	CampaignStatusInProgress,
	CampaignStatusWaitingForApproval,
	CampaignStatusApproved,
	CampaignStatusRejected,
}

// String returns the string representation of the status
func (s CampaignStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusInitiated, CampaignStatusInProgress,
		CampaignStatusWaitingForApproval, CampaignStatusApproved,
		CampaignStatusRejected:
		return true
	default:
		return false
	}
}

// DisplayName returns a human-readable status name
func (s CampaignStatus) DisplayName() string {
	switch s {
	case CampaignStatusInitiated:
		return "Initiated"
	case CampaignStatusInProgress:
		return "In Progress"
	case CampaignStatusWaitingForApproval:
		return "Waiting for Approval"
	case CampaignStatusApproved:
		return "Approved"
	case CampaignStatusRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// Scan implements the sql.Scanner interface for CampaignStatus
func (s *CampaignStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = CampaignStatus(v)
	case []byte:
		*s = CampaignStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CampaignStatus
func (s CampaignStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid CampaignStatus: %s", s)
	}
	return string(s), nil
}

// Campaign represents a campaign in the database
type Campaign struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UUID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uk_campaigns_uuid" json:"uuid"`
	CustomerID uint            `gorm:"not null;index:idx_campaigns_customer_id" json:"customer_id"`
	Title      string          `gorm:"size:255;not null" json:"title"`
	Status     CampaignStatus  `gorm:"type:varchar(32);not null;default:'initiated';index:idx_campaigns_status" json:"status"`
	Segment    string          `gorm:"size:64;not null;index:idx_campaigns_segment" json:"segment"`
	City       *string         `gorm:"size:64;index:idx_campaigns_city" json:"city,omitempty"`
	Budget     decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"budget"`
	Archived   bool            `gorm:"not null;default:false" json:"archived"`
	ScheduleAt *time.Time      `gorm:"index:idx_campaigns_schedule_at" json:"schedule_at,omitempty"`
	CreatedAt  time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaigns_created_at" json:"created_at"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`

	// Relations
	Customer *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
}

// TableName returns the table name for the model
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate is called before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CampaignStatusInitiated
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Campaign) BeforeUpdate(tx *gorm.DB) error {
	c.UpdatedAt = utils.UTCNowPtr()
	return nil
}

// IsEditable checks if the campaign can be edited
func (c *Campaign) IsEditable() bool {
	return !c.Archived && (c.Status == CampaignStatusInitiated ||
		c.Status == CampaignStatusInProgress)
}
