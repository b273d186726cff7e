package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/pkg/config"
	"github.com/mkweon/athena/pkg/httputil"
	"github.com/mkweon/athena/pkg/logger"
	"github.com/mkweon/athena/pkg/redis"
)

// Client fetches fundamentals and prices from the external data API.
// It implements contracts.FactSource. Failures after bounded retries
// degrade to ErrDataUnavailable so one missing fact never aborts a run.
// ⭐ SSOT: provider wire format is parsed here and nowhere else.
type Client struct {
	http    *httputil.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	cache   *redis.Cache
	logger  *logger.Logger
}

// New creates a provider client from config. The cache may be nil when
// Redis is disabled.
func New(cfg *config.Config, log *logger.Logger, cache *redis.Cache) *Client {
	httpClient := httputil.NewWithTimeout(cfg, log, cfg.Provider.Timeout).
		WithRetry(cfg.Provider.MaxRetries, 500*time.Millisecond)

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.Provider.BaseURL, "/"),
		apiKey:  cfg.Provider.APIKey,
		limiter: rate.NewLimiter(rate.Limit(cfg.Provider.RateLimit), 1),
		cache:   cache,
		logger:  log,
	}
}

// factPayload mirrors the provider's facts endpoint response.
type factPayload struct {
	Facts []struct {
		Entity      string  `json:"entity"`
		Field       string  `json:"field"`
		Value       float64 `json:"value"`
		PeriodEnd   string  `json:"period_end"`
		PublishedAt string  `json:"published_at"`
		Frequency   string  `json:"frequency"`
	} `json:"facts"`
}

// Fetch retrieves the raw fact series for one entity. Results are cached
// daily; historical facts only ever grow.
func (c *Client) Fetch(ctx context.Context, entity string, fields []string, from, to time.Time) ([]contracts.Fact, error) {
	key := redis.FactKey(entity, strings.Join(fields, ","), to.Format("2006-01-02"))

	var facts []contracts.Fact
	fetch := func() (interface{}, error) {
		return c.fetchRemote(ctx, entity, fields, from, to)
	}

	if c.cache != nil {
		if err := c.cache.GetOrSet(ctx, key, &facts, redis.TTLDaily, fetch); err != nil {
			return nil, err
		}
		return facts, nil
	}

	remote, err := c.fetchRemote(ctx, entity, fields, from, to)
	if err != nil {
		return nil, err
	}
	return remote, nil
}

func (c *Client) fetchRemote(ctx context.Context, entity string, fields []string, from, to time.Time) ([]contracts.Fact, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("entity", entity)
	query.Set("fields", strings.Join(fields, ","))
	query.Set("from", from.Format("2006-01-02"))
	query.Set("to", to.Format("2006-01-02"))
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}

	endpoint := fmt.Sprintf("%s/facts?%s", c.baseURL, query.Encode())
	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("provider fetch %s: %w", entity, contracts.ErrDataUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(map[string]interface{}{
			"entity": entity,
			"status": resp.StatusCode,
		}).Warn("Provider returned non-OK status")
		return nil, fmt.Errorf("provider status %d for %s: %w",
			resp.StatusCode, entity, contracts.ErrDataUnavailable)
	}

	var payload factPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("provider decode %s: %w", entity, contracts.ErrDataUnavailable)
	}

	facts := make([]contracts.Fact, 0, len(payload.Facts))
	for _, raw := range payload.Facts {
		periodEnd, err := time.Parse("2006-01-02", raw.PeriodEnd)
		if err != nil {
			continue
		}
		publishedAt, err := time.Parse("2006-01-02", raw.PublishedAt)
		if err != nil {
			// Missing declaration: the lag floor in the
			// point-in-time view takes over.
			publishedAt = time.Time{}
		}
		facts = append(facts, contracts.Fact{
			Entity:      raw.Entity,
			Field:       raw.Field,
			Value:       raw.Value,
			PeriodEnd:   periodEnd,
			PublishedAt: publishedAt,
			Frequency:   contracts.Frequency(raw.Frequency),
		})
	}
	return facts, nil
}
