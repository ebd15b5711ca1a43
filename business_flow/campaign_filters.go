package businessflow

import (
	"time"

	"github.com/amirphl/filterkit/choices"
	"github.com/amirphl/filterkit/config"
	"github.com/amirphl/filterkit/filters"
	"github.com/amirphl/filterkit/filterset"
	"github.com/amirphl/filterkit/lookup"
	"github.com/amirphl/filterkit/models"
	"github.com/amirphl/filterkit/widgets"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// CampaignChoiceSources feeds the dynamic campaign filters
type CampaignChoiceSources struct {
	// Segments lists distinct campaign segments
	Segments choices.ValueSource
	// Cities lists distinct campaign cities
	Cities choices.ValueSource
	// Customers lists customers by id and email
	Customers choices.Source
}

// CachedChoiceFields are the campaign columns served from Redis when a cache is configured
var CachedChoiceFields = []string{"city"}

// NewCampaignChoiceSources reads choices from the database. When rc is set,
// cities are served from a Redis set that is warmed from the database.
func NewCampaignChoiceSources(db *gorm.DB, rc redis.Cmdable, cacheConfig config.CacheConfig, logger zerolog.Logger) CampaignChoiceSources {
	campaigns := choices.NewGorm(db, &models.Campaign{})

	var cities choices.ValueSource = campaigns
	if rc != nil {
		cities = choices.NewRedisSet(rc, cacheConfig.RedisPrefix, campaigns, cacheConfig.DefaultTTL).WithLogger(logger)
	}

	return CampaignChoiceSources{
		Segments:  campaigns,
		Cities:    cities,
		Customers: choices.NewGorm(db, &models.Customer{}).Records("id", "email"),
	}
}

// CampaignStatusChoices lists statuses with their display names
func CampaignStatusChoices() []widgets.Option {
	opts := make([]widgets.Option, 0, len(models.CampaignStatuses))
	for _, s := range models.CampaignStatuses {
		opts = append(opts, widgets.Option{Value: s.String(), Label: s.DisplayName()})
	}
	return opts
}

// NewCampaignFilterSet declares the filters of the campaign listing.
// now drives the relative date filters; nil means the wall clock.
func NewCampaignFilterSet(src CampaignChoiceSources, now func() time.Time) (*filterset.FilterSet, error) {
	return filterset.New("campaigns",
		filters.Char(filters.Options{
			Name:    "title",
			Lookups: []lookup.Type{lookup.IContains, lookup.IExact, lookup.IStartsWith, lookup.IEndsWith},
		}),
		filters.MultipleChoice(CampaignStatusChoices(), filters.Options{Name: "status"}),
		filters.AllValues(src.Segments, filters.Options{Name: "segment"}),
		filters.AllValues(src.Cities, filters.Options{Name: "city"}),
		filters.Number(filters.Options{
			Name:    "budget",
			Lookups: []lookup.Type{lookup.Exact, lookup.GT, lookup.GTE, lookup.LT, lookup.LTE},
		}),
		filters.Range(filters.Options{Name: "budget_between", Field: "budget", Label: "Budget between"}),
		filters.DateRange(filters.Options{Name: "created", Field: "created_at", Now: now}),
		filters.DateOffset(widgets.Past, filters.Options{Name: "created_within", Field: "created_at", Label: "Created within", Now: now}),
		filters.DateOffset(widgets.Future, filters.Options{Name: "scheduled_within", Field: "schedule_at", Label: "Scheduled within", Now: now}),
		filters.Boolean(filters.Options{Name: "archived"}),
		filters.ModelChoice(src.Customers, filters.Options{Name: "customer", Field: "customer_id"}),
		filters.UUID(filters.Options{Name: "uuid"}),
	)
}
