// Package businessflow contains the business logic for the application.
package businessflow

import (
	"github.com/amirphl/filterkit/app/dto"
	"github.com/amirphl/filterkit/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds client information attached to flow logs
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID for tracing
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToCampaignDTO maps a campaign row to its response shape
func ToCampaignDTO(c *models.Campaign) dto.CampaignDTO {
	out := dto.CampaignDTO{
		UUID:       c.UUID.String(),
		Title:      c.Title,
		Status:     c.Status.String(),
		Segment:    c.Segment,
		City:       c.City,
		Budget:     c.Budget.StringFixed(2),
		Archived:   c.Archived,
		ScheduleAt: c.ScheduleAt,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	if c.Customer != nil {
		out.Customer = &dto.CustomerSummary{
			UUID:  c.Customer.UUID.String(),
			Name:  c.Customer.DisplayName(),
			Email: c.Customer.Email,
		}
	}
	return out
}
