package businessflow

import (
	"bytes"
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/amirphl/filterkit/app/dto"
	"github.com/amirphl/filterkit/choices"
	"github.com/amirphl/filterkit/config"
	"github.com/amirphl/filterkit/filterset"
	"github.com/amirphl/filterkit/models"
	"github.com/amirphl/filterkit/query"
	"github.com/amirphl/filterkit/repository"
	"github.com/amirphl/filterkit/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// memoryCampaignRepo evaluates filtersets over campaigns held in memory
type memoryCampaignRepo struct {
	campaigns []*models.Campaign
	lastOrder string
	lastLimit int
}

func (r *memoryCampaignRepo) ByID(_ context.Context, id uint) (*models.Campaign, error) {
	for _, c := range r.campaigns {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (r *memoryCampaignRepo) ByUUID(_ context.Context, id string) (*models.Campaign, error) {
	for _, c := range r.campaigns {
		if c.UUID.String() == id {
			return c, nil
		}
	}
	return nil, nil
}

func (r *memoryCampaignRepo) Save(_ context.Context, c *models.Campaign) error {
	r.campaigns = append(r.campaigns, c)
	return nil
}

func (r *memoryCampaignRepo) SaveBatch(_ context.Context, cs []*models.Campaign) error {
	r.campaigns = append(r.campaigns, cs...)
	return nil
}

func (r *memoryCampaignRepo) UpdateStatus(_ context.Context, id uint, status models.CampaignStatus) error {
	for _, c := range r.campaigns {
		if c.ID == id {
			c.Status = status
		}
	}
	return nil
}

func (r *memoryCampaignRepo) ByFilterSet(ctx context.Context, fs *filterset.FilterSet, data url.Values, orderBy string, limit, offset int) (*repository.CampaignPage, error) {
	r.lastOrder, r.lastLimit = orderBy, limit

	byID := make(map[uint]*models.Campaign, len(r.campaigns))
	rows := make([]query.Row, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		byID[c.ID] = c
		rows = append(rows, query.Row{
			"id":          c.ID,
			"uuid":        c.UUID,
			"title":       c.Title,
			"status":      c.Status.String(),
			"segment":     c.Segment,
			"city":        utils.Deref(c.City),
			"budget":      c.Budget,
			"archived":    c.Archived,
			"created_at":  c.CreatedAt,
			"schedule_at": utils.Deref(c.ScheduleAt),
			"customer_id": c.CustomerID,
		})
	}

	res, err := fs.Filter(ctx, query.NewMemory(rows), data)
	if err != nil {
		return nil, err
	}
	page := &repository.CampaignPage{Items: []*models.Campaign{}, Filter: res}
	if !res.Valid() {
		return page, nil
	}

	matched, err := res.Query.(*query.Memory).Rows()
	if err != nil {
		return nil, err
	}
	page.Total = int64(len(matched))
	for i, row := range matched {
		if i < offset {
			continue
		}
		if limit > 0 && len(page.Items) == limit {
			break
		}
		page.Items = append(page.Items, byID[row["id"].(uint)])
	}
	return page, nil
}

func newCampaign(id uint, title string, status models.CampaignStatus, segment string, budget string, created time.Time) *models.Campaign {
	return &models.Campaign{
		ID:         id,
		UUID:       uuid.New(),
		CustomerID: 1,
		Title:      title,
		Status:     status,
		Segment:    segment,
		City:       utils.ToPtr("Tehran"),
		Budget:     decimal.RequireFromString(budget),
		CreatedAt:  created,
		Customer: &models.Customer{
			UUID:                    uuid.New(),
			RepresentativeFirstName: "Sara",
			RepresentativeLastName:  "Karimi",
			Email:                   "sara@example.com",
		},
	}
}

func testFlow(t *testing.T, filtering config.FilteringConfig) (*CampaignFilterFlowImpl, *memoryCampaignRepo) {
	t.Helper()
	repo := &memoryCampaignRepo{campaigns: []*models.Campaign{
		newCampaign(1, "Spring sale", models.CampaignStatusApproved, "retail", "1500.00", fixedNow.Add(-2*time.Hour)),
		newCampaign(2, "Summer launch", models.CampaignStatusInitiated, "retail", "300.00", fixedNow.AddDate(0, 0, -3)),
		newCampaign(3, "Spring clearance", models.CampaignStatusRejected, "b2b", "80.50", fixedNow.AddDate(0, -2, 0)),
		newCampaign(4, "Winter promo", models.CampaignStatusApproved, "b2b", "2200.00", fixedNow.AddDate(-1, 0, 0)),
	}}
	src := CampaignChoiceSources{
		Segments:  choices.StaticValues{"segment": {"b2b", "retail"}},
		Cities:    choices.StaticValues{"city": {"Tehran"}},
		Customers: choices.Static{{Value: "1", Label: "sara@example.com"}},
	}
	fs, err := NewCampaignFilterSet(src, func() time.Time { return fixedNow })
	require.NoError(t, err)

	flow := NewCampaignFilterFlow(repo, fs, filtering, zerolog.Nop())
	return flow.(*CampaignFilterFlowImpl), repo
}

var defaultFiltering = config.FilteringConfig{DefaultPageSize: 2, MaxPageSize: 3, ExportLimit: 10}

func listRequest(t *testing.T, raw string) *dto.ListCampaignsRequest {
	t.Helper()
	data, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return &dto.ListCampaignsRequest{Page: 1, Filters: data}
}

func TestListCampaignsAppliesFilters(t *testing.T) {
	flow, repo := testFlow(t, defaultFiltering)

	req := listRequest(t, "title_0=icontains&title_1=spring&status=approved&status=rejected")
	resp, err := flow.ListCampaigns(context.Background(), req, NewClientMetadata("127.0.0.1", "test"))
	require.NoError(t, err)

	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Spring sale", resp.Items[0].Title)
	assert.Equal(t, "Spring clearance", resp.Items[1].Title)
	assert.Equal(t, []string{"title", "status"}, resp.ActiveFilters)
	assert.Equal(t, dto.PaginationInfo{Total: 2, Page: 1, Limit: 2, TotalPages: 1}, resp.Pagination)
	assert.Equal(t, "created_at DESC, id DESC", repo.lastOrder)
	assert.Equal(t, "sara@example.com", resp.Items[0].Customer.Email)
	assert.Equal(t, "1500.00", resp.Items[0].Budget)
}

func TestListCampaignsPagination(t *testing.T) {
	flow, repo := testFlow(t, defaultFiltering)

	req := listRequest(t, "")
	req.Page = 2
	req.Limit = 50
	req.OrderBy = "budget_desc"
	resp, err := flow.ListCampaigns(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, repo.lastLimit)
	assert.Equal(t, "budget DESC, id DESC", repo.lastOrder)
	assert.Equal(t, dto.PaginationInfo{Total: 4, Page: 2, Limit: 3, TotalPages: 2}, resp.Pagination)
	assert.Len(t, resp.Items, 1)
	assert.Empty(t, resp.ActiveFilters)
}

func TestListCampaignsRelativeDates(t *testing.T) {
	flow, _ := testFlow(t, config.FilteringConfig{DefaultPageSize: 10, MaxPageSize: 10})

	tests := []struct {
		raw  string
		want []string
	}{
		{"created=1", []string{"Spring sale"}},
		{"created=2", []string{"Spring sale", "Summer launch"}},
		{"created=4", []string{"Spring sale", "Summer launch", "Spring clearance"}},
		{"created=99", []string{"Spring sale", "Summer launch", "Spring clearance", "Winter promo"}},
		{"created_within_n=1&created_within_m=7", []string{"Spring sale", "Summer launch"}},
		{"budget_0=gte&budget_1=300", []string{"Spring sale", "Summer launch", "Winter promo"}},
		{"budget_between_0=100&budget_between_1=2000", []string{"Spring sale", "Summer launch"}},
		{"segment=b2b&archived=false", []string{"Spring clearance", "Winter promo"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			resp, err := flow.ListCampaigns(context.Background(), listRequest(t, tt.raw), nil)
			require.NoError(t, err)
			titles := make([]string, 0, len(resp.Items))
			for _, item := range resp.Items {
				titles = append(titles, item.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestListCampaignsRejectsInvalidFilters(t *testing.T) {
	flow, _ := testFlow(t, defaultFiltering)

	_, err := flow.ListCampaigns(context.Background(), listRequest(t, "budget_0=gt&budget_1=lots&uuid=nope&status=paused"), nil)
	require.Error(t, err)
	assert.True(t, IsInvalidFilters(err))

	var be *BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "INVALID_FILTERS", be.Code)

	fe, ok := FilterErrors(err)
	require.True(t, ok)
	assert.True(t, fe.Has("budget"))
	assert.True(t, fe.Has("uuid"))
	assert.True(t, fe.Has("status"))
	assert.False(t, fe.Has("title"))
}

func TestListCampaignsRejectsUnknownOrdering(t *testing.T) {
	flow, _ := testFlow(t, defaultFiltering)

	req := listRequest(t, "")
	req.OrderBy = "random"
	_, err := flow.ListCampaigns(context.Background(), req, nil)
	assert.True(t, IsInvalidOrdering(err))
}

func TestListCampaignsLogsRequestContext(t *testing.T) {
	flow, _ := testFlow(t, defaultFiltering)
	var buf bytes.Buffer
	flow.logger = zerolog.New(&buf)

	ctx := context.WithValue(context.Background(), utils.RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, utils.EndpointKey, "list_campaigns")
	ctx = context.WithValue(ctx, utils.UserAgentKey, "curl/8.0")
	ctx = context.WithValue(ctx, utils.IPAddressKey, "10.0.0.7")

	_, err := flow.ListCampaigns(ctx, listRequest(t, "status=approved"), NewClientMetadata("127.0.0.1", "test"))
	require.NoError(t, err)

	line := buf.String()
	assert.Contains(t, line, `"request_id":"req-1"`)
	assert.Contains(t, line, `"endpoint":"list_campaigns"`)
	assert.Contains(t, line, `"user_agent":"curl/8.0"`)
	assert.Contains(t, line, `"ip":"10.0.0.7"`)
	assert.NotContains(t, line, "127.0.0.1")

	buf.Reset()
	_, err = flow.ListCampaigns(context.Background(), listRequest(t, ""), NewClientMetadata("127.0.0.1", "test"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"ip":"127.0.0.1"`)
}

func TestListCampaignsRejectsBadPagination(t *testing.T) {
	flow, _ := testFlow(t, defaultFiltering)

	req := listRequest(t, "")
	req.Page = 0
	_, err := flow.ListCampaigns(context.Background(), req, nil)
	assert.True(t, IsInvalidPage(err))

	req = listRequest(t, "")
	req.Limit = -1
	_, err = flow.ListCampaigns(context.Background(), req, nil)
	assert.True(t, IsInvalidPageSize(err))
}

func TestGetCampaign(t *testing.T) {
	flow, repo := testFlow(t, defaultFiltering)

	got, err := flow.GetCampaign(context.Background(), repo.campaigns[2].UUID.String())
	require.NoError(t, err)
	assert.Equal(t, "Spring clearance", got.Title)
	assert.Equal(t, "rejected", got.Status)

	_, err = flow.GetCampaign(context.Background(), uuid.NewString())
	assert.True(t, IsCampaignNotFound(err))

	_, err = flow.GetCampaign(context.Background(), " ")
	assert.True(t, IsCampaignUUIDRequired(err))

	_, err = flow.GetCampaign(context.Background(), "not-a-uuid")
	assert.True(t, IsInvalidCampaignUUID(err))
	assert.False(t, IsCampaignNotFound(err))
}

func TestFilterForm(t *testing.T) {
	flow, _ := testFlow(t, defaultFiltering)

	form, err := flow.FilterForm(context.Background(), url.Values{"segment": {"retail"}})
	require.NoError(t, err)
	assert.True(t, form.Valid())

	html := form.HTML()
	assert.Contains(t, html, `name="status"`)
	assert.Contains(t, html, `<option value="retail" selected>retail</option>`)
	assert.Contains(t, html, `sara@example.com`)
	assert.Contains(t, html, `name="scheduled_within_n"`)
}

func TestExportCampaigns(t *testing.T) {
	flow, _ := testFlow(t, defaultFiltering)

	data, err := url.ParseQuery("segment=retail&title_0=icontains&title_1=s")
	require.NoError(t, err)
	resp, err := flow.ExportCampaigns(context.Background(), &dto.ExportCampaignsRequest{OrderBy: "oldest", Filters: data}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Rows)
	assert.Contains(t, resp.Filename, ".xlsx")

	xl, err := excelize.OpenReader(bytes.NewReader(resp.Content))
	require.NoError(t, err)
	defer func() { _ = xl.Close() }()

	rows, err := xl.GetRows(utils.ExportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, campaignExportHeader, rows[0])
	assert.Equal(t, "Spring sale", rows[1][1])
	assert.Equal(t, "Approved", rows[1][2])
	assert.Equal(t, "300.00", rows[2][5])

	filterRows, err := xl.GetRows(filtersSheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"filter", "value"}, {"title", "icontains s"}, {"segment", "retail"}}, filterRows)
}

func TestExportCampaignsRefusesLargeExports(t *testing.T) {
	flow, _ := testFlow(t, config.FilteringConfig{DefaultPageSize: 2, MaxPageSize: 3, ExportLimit: 3})

	_, err := flow.ExportCampaigns(context.Background(), &dto.ExportCampaignsRequest{}, nil)
	assert.True(t, IsExportTooLarge(err))
}
