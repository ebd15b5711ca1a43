// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/amirphl/filterkit/app/dto"
	businessflow "github.com/amirphl/filterkit/business_flow"
	"github.com/amirphl/filterkit/filterset"
	"github.com/amirphl/filterkit/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

// reservedParams are listing controls, never filter values
var reservedParams = []string{"page", "limit", "orderby"}

// CampaignHandlerInterface defines the contract for campaign handlers
type CampaignHandlerInterface interface {
	ListCampaigns(c fiber.Ctx) error
	GetCampaign(c fiber.Ctx) error
	FilterForm(c fiber.Ctx) error
	ExportCampaigns(c fiber.Ctx) error
}

// CampaignHandler handles campaign-related HTTP requests
type CampaignHandler struct {
	campaignFlow businessflow.CampaignFilterFlow
	validator    *validator.Validate
	logger       zerolog.Logger
	timeout      time.Duration
}

func (h *CampaignHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CampaignHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignFlow businessflow.CampaignFilterFlow, logger zerolog.Logger) *CampaignHandler {
	return &CampaignHandler{
		campaignFlow: campaignFlow,
		validator:    validator.New(),
		logger:       logger.With().Str("handler", "campaign").Logger(),
		timeout:      30 * time.Second,
	}
}

// ListCampaigns lists campaigns narrowed by the query string filters
// @Summary List Campaigns
// @Description List campaigns with pagination. Every query parameter besides page, limit and orderby is a filter value.
// @Tags Campaigns
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size"
// @Param orderby query string false "newest, oldest, budget_asc, budget_desc or title"
// @Param title_0 query string false "Title operator (icontains, iexact, istartswith, iendswith)"
// @Param title_1 query string false "Title value"
// @Param status query []string false "Campaign statuses" collectionFormat(multi)
// @Param segment query string false "Segment"
// @Param city query string false "City"
// @Param budget_0 query string false "Budget operator (exact, gt, gte, lt, lte)"
// @Param budget_1 query number false "Budget value"
// @Param budget_between_0 query number false "Lowest budget"
// @Param budget_between_1 query number false "Highest budget"
// @Param created query int false "1 today, 2 past 7 days, 3 this month, 4 this year"
// @Param archived query bool false "Archived"
// @Param customer query int false "Customer ID"
// @Param uuid query string false "Campaign UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ListCampaignsResponse} "Campaigns retrieved successfully"
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail{details=[]dto.FilterErrorDetail}} "Invalid pagination, ordering or filter values"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) ListCampaigns(c fiber.Ctx) error {
	data, err := h.queryValues(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query string", "INVALID_QUERY", err.Error())
	}

	page, err := intParam(data, "page", 1)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Page must be a number", "INVALID_PAGE", nil)
	}
	limit, err := intParam(data, "limit", 0)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Limit must be a number", "INVALID_LIMIT", nil)
	}

	req := &dto.ListCampaignsRequest{
		Page:    page,
		Limit:   limit,
		OrderBy: data.Get("orderby"),
		Filters: filterValues(data),
	}
	if err := h.validator.Struct(req); err != nil {
		return h.validationErrorResponse(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/campaigns")
	defer cancel()

	result, err := h.campaignFlow.ListCampaigns(ctx, req, h.clientMetadata(c))
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to list campaigns", "LIST_CAMPAIGNS_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// GetCampaign returns one campaign
// @Summary Get Campaign
// @Description Get a campaign by UUID
// @Tags Campaigns
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Success 200 {object} dto.APIResponse{data=dto.CampaignDTO} "Campaign retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Invalid UUID"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/{uuid} [get]
func (h *CampaignHandler) GetCampaign(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/campaigns/:uuid")
	defer cancel()

	result, err := h.campaignFlow.GetCampaign(ctx, c.Params("uuid"))
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to get campaign", "GET_CAMPAIGN_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign retrieved successfully", result)
}

// FilterForm renders the HTML filter form bound to the query string
// @Summary Campaign Filter Form
// @Description Render the campaign filters as an HTML form fragment, with errors for rejected values
// @Tags Campaigns
// @Produce html
// @Success 200 {string} string "HTML form"
// @Failure 400 {object} dto.APIResponse "Invalid query string"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/filters [get]
func (h *CampaignHandler) FilterForm(c fiber.Ctx) error {
	data, err := h.queryValues(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query string", "INVALID_QUERY", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/campaigns/filters")
	defer cancel()

	// an empty query string renders an unbound form
	var bound url.Values
	if len(data) > 0 {
		bound = filterValues(data)
	}
	form, err := h.campaignFlow.FilterForm(ctx, bound)
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to build filter form", "FILTER_FORM_FAILED")
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Status(fiber.StatusOK).SendString(form.HTML())
}

// ExportCampaigns downloads the filtered campaigns as XLSX
// @Summary Export Campaigns
// @Description Export every campaign matching the query string filters as an XLSX workbook
// @Tags Campaigns
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param orderby query string false "newest, oldest, budget_asc, budget_desc or title"
// @Success 200 {file} file "XLSX workbook"
// @Failure 400 {object} dto.APIResponse "Invalid ordering or filter values"
// @Failure 413 {object} dto.APIResponse "Too many campaigns to export"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/export [get]
func (h *CampaignHandler) ExportCampaigns(c fiber.Ctx) error {
	data, err := h.queryValues(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query string", "INVALID_QUERY", err.Error())
	}

	req := &dto.ExportCampaignsRequest{
		OrderBy: data.Get("orderby"),
		Filters: filterValues(data),
	}
	if err := h.validator.Struct(req); err != nil {
		return h.validationErrorResponse(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/campaigns/export")
	defer cancel()

	result, err := h.campaignFlow.ExportCampaigns(ctx, req, h.clientMetadata(c))
	if err != nil {
		return h.flowErrorResponse(c, err, "Failed to export campaigns", "EXPORT_CAMPAIGNS_FAILED")
	}

	c.Set("Content-Type", utils.ExportContentType)
	c.Set("Content-Disposition", "attachment; filename="+result.Filename)
	return c.Send(result.Content)
}

// flowErrorResponse maps business errors to HTTP responses
func (h *CampaignHandler) flowErrorResponse(c fiber.Ctx, err error, message, code string) error {
	switch {
	case businessflow.IsInvalidFilters(err):
		fe, _ := businessflow.FilterErrors(err)
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid filter values", "INVALID_FILTERS", filterErrorDetails(fe))
	case businessflow.IsInvalidPage(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Page must be at least 1", "INVALID_PAGE", nil)
	case businessflow.IsInvalidPageSize(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Limit is out of range", "INVALID_LIMIT", nil)
	case businessflow.IsInvalidOrdering(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown ordering", "INVALID_ORDERING", nil)
	case businessflow.IsCampaignUUIDRequired(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "CAMPAIGN_UUID_REQUIRED", nil)
	case businessflow.IsInvalidCampaignUUID(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign UUID", "INVALID_CAMPAIGN_UUID", nil)
	case businessflow.IsCampaignNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
	case businessflow.IsExportTooLarge(err):
		return h.ErrorResponse(c, fiber.StatusRequestEntityTooLarge, "Too many campaigns to export, narrow the filters", "EXPORT_TOO_LARGE", err.Error())
	}

	var be *businessflow.BusinessError
	if errors.As(err, &be) {
		code = be.Code
	}
	h.logger.Error().Err(err).Str("code", code).Str("path", c.Path()).Msg(message)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, code, nil)
}

func (h *CampaignHandler) validationErrorResponse(c fiber.Ctx, err error) error {
	var validationErrors []string
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		for _, e := range ves {
			validationErrors = append(validationErrors, getValidationErrorMessage(e))
		}
	}
	return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
}

func filterErrorDetails(fe filterset.Errors) []dto.FilterErrorDetail {
	names := make([]string, 0, len(fe))
	for name := range fe {
		names = append(names, name)
	}
	sort.Strings(names)

	details := make([]dto.FilterErrorDetail, 0, len(fe))
	for _, name := range names {
		for _, e := range fe[name] {
			details = append(details, dto.FilterErrorDetail{
				Filter:  name,
				Code:    string(e.Code),
				Part:    e.Part,
				Message: e.Message,
			})
		}
	}
	return details
}

func (h *CampaignHandler) queryValues(c fiber.Ctx) (url.Values, error) {
	return url.ParseQuery(string(c.Request().URI().QueryString()))
}

// filterValues drops the listing controls from data
func filterValues(data url.Values) url.Values {
	out := make(url.Values, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, k := range reservedParams {
		delete(out, k)
	}
	return out
}

func intParam(data url.Values, name string, def int) (int, error) {
	raw := data.Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func (h *CampaignHandler) clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get(businessflow.RequestIDKey))
	return metadata
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *CampaignHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get(businessflow.RequestIDKey))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)

	return ctx, cancel
}
