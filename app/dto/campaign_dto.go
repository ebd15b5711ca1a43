package dto

import (
	"net/url"
	"time"
)

// ListCampaignsRequest represents a paginated, filtered list request.
// Every query parameter other than page, limit and orderby is handed to the
// campaign filterset.
type ListCampaignsRequest struct {
	Page    int        `json:"page" validate:"gte=1"`
	Limit   int        `json:"limit" validate:"gte=0,lte=1000"` // 0 selects the configured default
	OrderBy string     `json:"orderby" validate:"omitempty,oneof=newest oldest budget_asc budget_desc title"`
	Filters url.Values `json:"-"`
}

// ExportCampaignsRequest represents a filtered XLSX export request
type ExportCampaignsRequest struct {
	OrderBy string     `json:"orderby" validate:"omitempty,oneof=newest oldest budget_asc budget_desc title"`
	Filters url.Values `json:"-"`
}

// CustomerSummary is the owner of a campaign as shown in listings
type CustomerSummary struct {
	UUID  string `json:"uuid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CampaignDTO represents a campaign in responses
type CampaignDTO struct {
	UUID       string           `json:"uuid"`
	Title      string           `json:"title"`
	Status     string           `json:"status"`
	Segment    string           `json:"segment"`
	City       *string          `json:"city,omitempty"`
	Budget     string           `json:"budget"`
	Archived   bool             `json:"archived"`
	ScheduleAt *time.Time       `json:"schedule_at,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  *time.Time       `json:"updated_at,omitempty"`
	Customer   *CustomerSummary `json:"customer,omitempty"`
}

// PaginationInfo contains pagination metadata
type PaginationInfo struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// ListCampaignsResponse represents a paginated list of campaigns
type ListCampaignsResponse struct {
	Message    string         `json:"message"`
	Items      []CampaignDTO  `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
	// ActiveFilters names the filters that narrowed this listing
	ActiveFilters []string `json:"active_filters"`
}

// ExportCampaignsResponse carries a rendered XLSX workbook
type ExportCampaignsResponse struct {
	Filename string `json:"filename"`
	Rows     int    `json:"rows"`
	Content  []byte `json:"-"`
}
