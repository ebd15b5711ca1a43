package businessflow

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/amirphl/filterkit/app/dto"
	"github.com/amirphl/filterkit/config"
	"github.com/amirphl/filterkit/filterset"
	"github.com/amirphl/filterkit/repository"
	"github.com/amirphl/filterkit/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CampaignFilterFlow handles filtered campaign listings
type CampaignFilterFlow interface {
	ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest, metadata *ClientMetadata) (*dto.ListCampaignsResponse, error)
	GetCampaign(ctx context.Context, id string) (*dto.CampaignDTO, error)
	FilterForm(ctx context.Context, data url.Values) (*filterset.Form, error)
	ExportCampaigns(ctx context.Context, req *dto.ExportCampaignsRequest, metadata *ClientMetadata) (*dto.ExportCampaignsResponse, error)
}

// CampaignFilterFlowImpl implements the campaign listing flow
type CampaignFilterFlowImpl struct {
	campaignRepo    repository.CampaignRepository
	filters         *filterset.FilterSet
	filteringConfig config.FilteringConfig
	logger          zerolog.Logger
}

// NewCampaignFilterFlow creates a new campaign listing flow
func NewCampaignFilterFlow(
	campaignRepo repository.CampaignRepository,
	fs *filterset.FilterSet,
	filteringConfig config.FilteringConfig,
	logger zerolog.Logger,
) CampaignFilterFlow {
	return &CampaignFilterFlowImpl{
		campaignRepo:    campaignRepo,
		filters:         fs,
		filteringConfig: filteringConfig,
		logger:          logger.With().Str("flow", "campaign_filter").Logger(),
	}
}

// campaignOrderings maps the public orderby values to ORDER BY clauses
var campaignOrderings = map[string]string{
	"":            "created_at DESC, id DESC",
	"newest":      "created_at DESC, id DESC",
	"oldest":      "created_at ASC, id ASC",
	"budget_asc":  "budget ASC, id ASC",
	"budget_desc": "budget DESC, id DESC",
	"title":       "title ASC, id ASC",
}

func orderClause(orderBy string) (string, error) {
	clause, ok := campaignOrderings[strings.ToLower(strings.TrimSpace(orderBy))]
	if !ok {
		return "", NewBusinessErrorf("INVALID_ORDERING", "Unknown ordering %q", ErrInvalidOrdering, orderBy)
	}
	return clause, nil
}

func invalidFilters(page *repository.CampaignPage) error {
	return NewBusinessError("INVALID_FILTERS", "Invalid filter values", fmt.Errorf("%w: %w", ErrInvalidFilters, page.Filter.Errors))
}

// activeFilters names the used filters in declaration order
func (s *CampaignFilterFlowImpl) activeFilters(res *filterset.Result) []string {
	active := make([]string, 0, len(res.Used))
	for _, f := range s.filters.Filters() {
		if res.IsUsed(f.Name()) {
			active = append(active, f.Name())
		}
	}
	return active
}

func (s *CampaignFilterFlowImpl) logEvent(ctx context.Context, metadata *ClientMetadata) *zerolog.Event {
	ev := s.logger.Info()
	for _, kv := range requestLogFields {
		if v, ok := ctx.Value(kv.key).(string); ok && v != "" {
			ev = ev.Str(kv.field, v)
		}
	}
	if _, ok := ctx.Value(utils.IPAddressKey).(string); !ok && metadata != nil {
		ev = ev.Str("ip", metadata.IPAddress)
	}
	return ev
}

// requestLogFields maps request-scoped context values to log fields
var requestLogFields = []struct {
	key   any
	field string
}{
	{utils.RequestIDKey, "request_id"},
	{utils.EndpointKey, "endpoint"},
	{utils.IPAddressKey, "ip"},
	{utils.UserAgentKey, "user_agent"},
}

// ListCampaigns returns one page of campaigns narrowed by the request filters
func (s *CampaignFilterFlowImpl) ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest, metadata *ClientMetadata) (*dto.ListCampaignsResponse, error) {
	orderBy, err := orderClause(req.OrderBy)
	if err != nil {
		return nil, err
	}

	if req.Page < 1 {
		return nil, NewBusinessError("INVALID_PAGE", "Page must be at least 1", ErrInvalidPage)
	}
	if req.Limit < 0 {
		return nil, NewBusinessError("INVALID_LIMIT", "Limit must not be negative", ErrInvalidPageSize)
	}

	// Normalize pagination
	page := req.Page
	limit := req.Limit
	if limit <= 0 {
		limit = s.filteringConfig.DefaultPageSize
	}
	if limit > s.filteringConfig.MaxPageSize {
		limit = s.filteringConfig.MaxPageSize
	}
	offset := (page - 1) * limit

	result, err := s.campaignRepo.ByFilterSet(ctx, s.filters, req.Filters, orderBy, limit, offset)
	if err != nil {
		return nil, NewBusinessError("LIST_CAMPAIGNS_FAILED", "Failed to list campaigns", err)
	}
	if !result.Filter.Valid() {
		return nil, invalidFilters(result)
	}

	items := make([]dto.CampaignDTO, 0, len(result.Items))
	for _, c := range result.Items {
		items = append(items, ToCampaignDTO(c))
	}

	totalPages := 0
	if limit > 0 {
		totalPages = int((result.Total + int64(limit) - 1) / int64(limit))
	}
	active := s.activeFilters(result.Filter)

	s.logEvent(ctx, metadata).
		Strs("filters", active).
		Int64("total", result.Total).
		Int("page", page).
		Msg("Campaigns listed")

	return &dto.ListCampaignsResponse{
		Message: "Campaigns retrieved successfully",
		Items:   items,
		Pagination: dto.PaginationInfo{
			Total:      result.Total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
		ActiveFilters: active,
	}, nil
}

// GetCampaign retrieves one campaign by UUID
func (s *CampaignFilterFlowImpl) GetCampaign(ctx context.Context, id string) (*dto.CampaignDTO, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, NewBusinessError("CAMPAIGN_UUID_REQUIRED", "Campaign UUID is required", ErrCampaignUUIDRequired)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, NewBusinessError("INVALID_CAMPAIGN_UUID", "Campaign UUID is malformed", fmt.Errorf("%w: %w", ErrInvalidCampaignUUID, err))
	}

	campaign, err := s.campaignRepo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("GET_CAMPAIGN_FAILED", "Failed to get campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	out := ToCampaignDTO(campaign)
	return &out, nil
}

// FilterForm renders the filter form bound to data
func (s *CampaignFilterFlowImpl) FilterForm(ctx context.Context, data url.Values) (*filterset.Form, error) {
	form, err := s.filters.Form(ctx, data)
	if err != nil {
		return nil, NewBusinessError("FILTER_FORM_FAILED", "Failed to build filter form", err)
	}
	return form, nil
}

// ExportCampaigns renders every matching campaign as an XLSX workbook.
// Listings larger than the export limit are refused.
func (s *CampaignFilterFlowImpl) ExportCampaigns(ctx context.Context, req *dto.ExportCampaignsRequest, metadata *ClientMetadata) (*dto.ExportCampaignsResponse, error) {
	orderBy, err := orderClause(req.OrderBy)
	if err != nil {
		return nil, err
	}

	limit := s.filteringConfig.ExportLimit
	result, err := s.campaignRepo.ByFilterSet(ctx, s.filters, req.Filters, orderBy, limit, 0)
	if err != nil {
		return nil, NewBusinessError("EXPORT_CAMPAIGNS_FAILED", "Failed to export campaigns", err)
	}
	if !result.Filter.Valid() {
		return nil, invalidFilters(result)
	}
	if limit > 0 && result.Total > int64(limit) {
		return nil, NewBusinessErrorf("EXPORT_TOO_LARGE", "%d campaigns match, the export limit is %d", ErrExportTooLarge, result.Total, limit)
	}

	content, err := renderCampaignsXLSX(result.Items, result.Filter, s.filters)
	if err != nil {
		return nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	s.logEvent(ctx, metadata).
		Strs("filters", s.activeFilters(result.Filter)).
		Int("rows", len(result.Items)).
		Msg("Campaigns exported")

	return &dto.ExportCampaignsResponse{
		Filename: fmt.Sprintf("campaigns_%s.xlsx", utils.UTCNow().Format("20060102_150405")),
		Rows:     len(result.Items),
		Content:  content,
	}, nil
}
