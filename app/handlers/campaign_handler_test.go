package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/amirphl/filterkit/app/dto"
	businessflow "github.com/amirphl/filterkit/business_flow"
	"github.com/amirphl/filterkit/config"
	"github.com/amirphl/filterkit/fields"
	"github.com/amirphl/filterkit/filterset"
	"github.com/amirphl/filterkit/models"
	"github.com/amirphl/filterkit/repository"
	"github.com/amirphl/filterkit/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFlow struct {
	listReq   *dto.ListCampaignsRequest
	exportReq *dto.ExportCampaignsRequest
	formData  url.Values
	err       error
}

func (s *stubFlow) ListCampaigns(_ context.Context, req *dto.ListCampaignsRequest, _ *businessflow.ClientMetadata) (*dto.ListCampaignsResponse, error) {
	s.listReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.ListCampaignsResponse{
		Message:       "Campaigns retrieved successfully",
		Items:         []dto.CampaignDTO{{Title: "Spring sale", Status: "approved", Budget: "10.00"}},
		Pagination:    dto.PaginationInfo{Total: 1, Page: req.Page, Limit: 20, TotalPages: 1},
		ActiveFilters: []string{"status"},
	}, nil
}

func (s *stubFlow) GetCampaign(_ context.Context, uuid string) (*dto.CampaignDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.CampaignDTO{UUID: uuid, Title: "Spring sale"}, nil
}

func (s *stubFlow) FilterForm(_ context.Context, data url.Values) (*filterset.Form, error) {
	s.formData = data
	if s.err != nil {
		return nil, s.err
	}
	return &filterset.Form{Fields: []filterset.FormField{{Name: "title", Label: "Title", HTML: `<input type="text" name="title" />`}}}, nil
}

func (s *stubFlow) ExportCampaigns(_ context.Context, req *dto.ExportCampaignsRequest, _ *businessflow.ClientMetadata) (*dto.ExportCampaignsResponse, error) {
	s.exportReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.ExportCampaignsResponse{Filename: "campaigns.xlsx", Rows: 1, Content: []byte("PK")}, nil
}

// lookupOnlyRepo serves ByUUID and fails the test on any other call
type lookupOnlyRepo struct {
	repository.CampaignRepository
	lookups int
}

func (r *lookupOnlyRepo) ByUUID(context.Context, string) (*models.Campaign, error) {
	r.lookups++
	return nil, nil
}

func testApp(flow businessflow.CampaignFilterFlow) *fiber.App {
	h := NewCampaignHandler(flow, zerolog.Nop())
	app := fiber.New()
	app.Get("/api/v1/campaigns", h.ListCampaigns)
	app.Get("/api/v1/campaigns/filters", h.FilterForm)
	app.Get("/api/v1/campaigns/export", h.ExportCampaigns)
	app.Get("/api/v1/campaigns/:uuid", h.GetCampaign)
	return app
}

func do(t *testing.T, app *fiber.App, target string) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, body
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string          `json:"code"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, body []byte) apiResponse {
	t.Helper()
	var out apiResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestListCampaignsSplitsControlsFromFilters(t *testing.T) {
	flow := &stubFlow{}
	resp, body := do(t, testApp(flow), "/api/v1/campaigns?page=2&limit=5&orderby=oldest&status=approved&status=rejected&title_0=icontains&title_1=sale")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NotNil(t, flow.listReq)
	assert.Equal(t, 2, flow.listReq.Page)
	assert.Equal(t, 5, flow.listReq.Limit)
	assert.Equal(t, "oldest", flow.listReq.OrderBy)
	assert.Equal(t, url.Values{
		"status":  {"approved", "rejected"},
		"title_0": {"icontains"},
		"title_1": {"sale"},
	}, flow.listReq.Filters)

	out := decode(t, body)
	assert.True(t, out.Success)
	var data dto.ListCampaignsResponse
	require.NoError(t, json.Unmarshal(out.Data, &data))
	assert.Equal(t, []string{"status"}, data.ActiveFilters)
	assert.Equal(t, "Spring sale", data.Items[0].Title)
}

func TestListCampaignsValidatesControls(t *testing.T) {
	tests := []struct {
		target string
		code   string
	}{
		{"/api/v1/campaigns?page=abc", "INVALID_PAGE"},
		{"/api/v1/campaigns?limit=x", "INVALID_LIMIT"},
		{"/api/v1/campaigns?page=0", "VALIDATION_ERROR"},
		{"/api/v1/campaigns?limit=5000", "VALIDATION_ERROR"},
		{"/api/v1/campaigns?orderby=random", "VALIDATION_ERROR"},
		{"/api/v1/campaigns?status=%zz", "INVALID_QUERY"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			flow := &stubFlow{}
			resp, body := do(t, testApp(flow), tt.target)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.code, decode(t, body).Error.Code)
			assert.Nil(t, flow.listReq)
		})
	}
}

func TestListCampaignsReportsFilterErrors(t *testing.T) {
	part := 1
	fe := filterset.Errors{
		"budget": {{Code: fields.InvalidScalarValue, Part: &part, Message: "Enter a number."}},
		"status": {{Code: fields.InvalidChoice, Message: "Select a valid choice."}},
	}
	flow := &stubFlow{err: businessflow.NewBusinessError("INVALID_FILTERS", "Invalid filter values", fmt.Errorf("%w: %w", businessflow.ErrInvalidFilters, fe))}

	resp, body := do(t, testApp(flow), "/api/v1/campaigns?budget_0=gt&budget_1=x&status=paused")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	out := decode(t, body)
	assert.False(t, out.Success)
	assert.Equal(t, "INVALID_FILTERS", out.Error.Code)

	var details []dto.FilterErrorDetail
	require.NoError(t, json.Unmarshal(out.Error.Details, &details))
	require.Len(t, details, 2)
	assert.Equal(t, "budget", details[0].Filter)
	assert.Equal(t, 1, *details[0].Part)
	assert.Equal(t, "status", details[1].Filter)
	assert.Nil(t, details[1].Part)
}

func TestFlowErrorsMapToStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target string
		status int
		code   string
	}{
		{"not found", businessflow.NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", businessflow.ErrCampaignNotFound), "/api/v1/campaigns/abc", http.StatusNotFound, "CAMPAIGN_NOT_FOUND"},
		{"ordering", businessflow.NewBusinessError("INVALID_ORDERING", "Unknown ordering", businessflow.ErrInvalidOrdering), "/api/v1/campaigns", http.StatusBadRequest, "INVALID_ORDERING"},
		{"page", businessflow.NewBusinessError("INVALID_PAGE", "Page must be at least 1", businessflow.ErrInvalidPage), "/api/v1/campaigns", http.StatusBadRequest, "INVALID_PAGE"},
		{"export size", businessflow.NewBusinessError("EXPORT_TOO_LARGE", "too many", businessflow.ErrExportTooLarge), "/api/v1/campaigns/export", http.StatusRequestEntityTooLarge, "EXPORT_TOO_LARGE"},
		{"internal", businessflow.NewBusinessError("LIST_CAMPAIGNS_FAILED", "Failed to list campaigns", io.ErrUnexpectedEOF), "/api/v1/campaigns", http.StatusInternalServerError, "LIST_CAMPAIGNS_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, testApp(&stubFlow{err: tt.err}), tt.target)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decode(t, body).Error.Code)
		})
	}
}

func TestGetCampaignRejectsMalformedUUID(t *testing.T) {
	repo := &lookupOnlyRepo{}
	flow := businessflow.NewCampaignFilterFlow(repo, filterset.MustNew("campaigns"), config.FilteringConfig{DefaultPageSize: 20, MaxPageSize: 100}, zerolog.Nop())
	app := testApp(flow)

	resp, body := do(t, app, "/api/v1/campaigns/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_CAMPAIGN_UUID", decode(t, body).Error.Code)
	assert.Zero(t, repo.lookups)

	resp, body = do(t, app, "/api/v1/campaigns/3f2b8c1e-6a4d-4e0f-9b7a-2c5d8e1f0a34")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "CAMPAIGN_NOT_FOUND", decode(t, body).Error.Code)
	assert.Equal(t, 1, repo.lookups)
}

func TestFilterFormRendersHTML(t *testing.T) {
	flow := &stubFlow{}
	resp, body := do(t, testApp(flow), "/api/v1/campaigns/filters")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), `<label for="id_title">Title</label>`)
	assert.Nil(t, flow.formData)

	_, _ = do(t, testApp(flow), "/api/v1/campaigns/filters?title=x&page=3")
	assert.Equal(t, url.Values{"title": {"x"}}, flow.formData)
}

func TestExportCampaignsSendsWorkbook(t *testing.T) {
	flow := &stubFlow{}
	resp, body := do(t, testApp(flow), "/api/v1/campaigns/export?segment=retail&orderby=title")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, utils.ExportContentType, resp.Header.Get("Content-Type"))
	assert.Equal(t, "attachment; filename=campaigns.xlsx", resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "PK", string(body))
	assert.Equal(t, url.Values{"segment": {"retail"}}, flow.exportReq.Filters)
	assert.Equal(t, "title", flow.exportReq.OrderBy)
}
