// Package choices provides the live data sources behind dynamic choice filters
package choices

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"time"

	"github.com/amirphl/filterkit/widgets"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var ErrInvalidColumn = errors.New("invalid column name")

var columnPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValueSource lists the distinct values currently stored for a field
type ValueSource interface {
	DistinctValues(ctx context.Context, field string) ([]string, error)
}

// Source lists selectable records as value/label options
type Source interface {
	Choices(ctx context.Context) ([]widgets.Option, error)
}

// Static is a fixed option list
type Static []widgets.Option

func (s Static) Choices(context.Context) ([]widgets.Option, error) {
	return append([]widgets.Option(nil), s...), nil
}

// StaticValues serves fixed values per field
type StaticValues map[string][]string

func (s StaticValues) DistinctValues(_ context.Context, field string) ([]string, error) {
	return append([]string(nil), s[field]...), nil
}

func checkColumn(field string) error {
	if !columnPattern.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidColumn, field)
	}
	return nil
}

// Gorm reads distinct values and record options from a table
type Gorm struct {
	db    *gorm.DB
	model any
}

// NewGorm binds to model, which is a gorm model pointer or a table name
func NewGorm(db *gorm.DB, model any) *Gorm {
	return &Gorm{db: db, model: model}
}

func (g *Gorm) scope(ctx context.Context) *gorm.DB {
	db := g.db.WithContext(ctx)
	if table, ok := g.model.(string); ok {
		return db.Table(table)
	}
	return db.Model(g.model)
}

// DistinctValues runs SELECT DISTINCT field ... ORDER BY field, skipping NULLs
func (g *Gorm) DistinctValues(ctx context.Context, field string) ([]string, error) {
	if err := checkColumn(field); err != nil {
		return nil, err
	}
	var values []string
	col := g.db.Statement.Quote(field)
	err := g.scope(ctx).
		Where(col+" IS NOT NULL").
		Distinct(field).
		Order(field).
		Pluck(field, &values).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load distinct values of %s: %w", field, err)
	}
	return values, nil
}

// Records lists rows of a table as options
func (g *Gorm) Records(valueColumn, labelColumn string) Source {
	return &gormRecords{g: g, value: valueColumn, label: labelColumn}
}

type optionRow struct {
	Value string
	Label string
}

type gormRecords struct {
	g     *Gorm
	value string
	label string
}

func (r *gormRecords) Choices(ctx context.Context) ([]widgets.Option, error) {
	for _, c := range []string{r.value, r.label} {
		if err := checkColumn(c); err != nil {
			return nil, err
		}
	}
	var rows []optionRow
	stmt := r.g.db.Statement
	err := r.g.scope(ctx).
		Select(fmt.Sprintf("%s AS value, %s AS label", stmt.Quote(r.value), stmt.Quote(r.label))).
		Order(r.label).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load choices: %w", err)
	}
	out := make([]widgets.Option, 0, len(rows))
	for _, row := range rows {
		out = append(out, widgets.Option{Value: row.Value, Label: row.Label})
	}
	return out, nil
}

// Verifier confirms one value against live data. A source that may serve a
// stale listing implements it so a value missing from the listing is rechecked.
type Verifier interface {
	HasValue(ctx context.Context, field, value string) (bool, error)
}

// HasValue reports whether any row stores value in field
func (g *Gorm) HasValue(ctx context.Context, field, value string) (bool, error) {
	if err := checkColumn(field); err != nil {
		return false, err
	}
	var n int64
	err := g.scope(ctx).
		Where(g.db.Statement.Quote(field)+" = ?", value).
		Limit(1).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up %s value: %w", field, err)
	}
	return n > 0, nil
}

// RedisSet serves field values from a Redis set named <prefix><field>.
// An empty or unreachable set falls back to the wrapped source when one is given.
// The set lags the database until the next refresh; HasValue rechecks a value
// missing from it against the fallback.
type RedisSet struct {
	client   redis.Cmdable
	prefix   string
	fallback ValueSource
	ttl      time.Duration
	logger   zerolog.Logger
}

func NewRedisSet(client redis.Cmdable, prefix string, fallback ValueSource, ttl time.Duration) *RedisSet {
	return &RedisSet{client: client, prefix: prefix, fallback: fallback, ttl: ttl, logger: zerolog.Nop()}
}

// WithLogger sets the logger that reports best-effort cache writes
func (r *RedisSet) WithLogger(logger zerolog.Logger) *RedisSet {
	r.logger = logger
	return r
}

func (r *RedisSet) key(field string) string {
	return r.prefix + field
}

func (r *RedisSet) DistinctValues(ctx context.Context, field string) ([]string, error) {
	values, err := r.client.SMembers(ctx, r.key(field)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		if r.fallback != nil {
			return r.fallback.DistinctValues(ctx, field)
		}
		return nil, fmt.Errorf("failed to read choice set %s: %w", r.key(field), err)
	}
	if len(values) == 0 && r.fallback != nil {
		values, err = r.fallback.DistinctValues(ctx, field)
		if err != nil {
			return nil, err
		}
		if err := r.Refresh(ctx, field, values); err != nil {
			r.logger.Warn().Err(err).Str("field", field).Msg("Failed to warm choice set")
		}
		return values, nil
	}
	sort.Strings(values)
	return values, nil
}

// HasValue rechecks value against the fallback and adds it to the set when found.
// Without a fallback the set is authoritative.
func (r *RedisSet) HasValue(ctx context.Context, field, value string) (bool, error) {
	if r.fallback == nil {
		return r.client.SIsMember(ctx, r.key(field), value).Result()
	}
	var found bool
	if v, ok := r.fallback.(Verifier); ok {
		var err error
		if found, err = v.HasValue(ctx, field, value); err != nil {
			return false, err
		}
	} else {
		values, err := r.fallback.DistinctValues(ctx, field)
		if err != nil {
			return false, err
		}
		found = slices.Contains(values, value)
	}
	if found {
		if err := r.client.SAdd(ctx, r.key(field), value).Err(); err != nil {
			r.logger.Warn().Err(err).Str("field", field).Msg("Failed to add value to choice set")
		}
	}
	return found, nil
}

// Refresh replaces the stored set for field. The new members are written to a
// staging key and renamed over the old set so readers never see a partial set.
func (r *RedisSet) Refresh(ctx context.Context, field string, values []string) error {
	key := r.key(field)
	if len(values) == 0 {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to clear choice set %s: %w", key, err)
		}
		return nil
	}
	members := make([]any, len(values))
	for i, v := range values {
		members[i] = v
	}
	staging := key + ":next"
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, staging)
		pipe.SAdd(ctx, staging, members...)
		if r.ttl > 0 {
			pipe.Expire(ctx, staging, r.ttl)
		}
		pipe.Rename(ctx, staging, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store choice set %s: %w", key, err)
	}
	return nil
}
