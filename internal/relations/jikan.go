package relations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/j-chowder/anime-recommendation-backend/internal/domain"
)

// Entry is one related work inside a relation block.
type Entry struct {
	ID   int64  `json:"mal_id"`
	Type string `json:"type"`
}

// Relation is one category of related works ("Adaptation", "Sequel", ...).
type Relation struct {
	Name    string  `json:"relation"`
	Entries []Entry `json:"entry"`
}

// API is the external relation lookup surface consumed by the Resolver.
type API interface {
	AnimeRelations(ctx context.Context, id int64) ([]Relation, error)
	MangaRelations(ctx context.Context, id int64) ([]Relation, error)
}

// minCallGap is the mandatory spacing between upstream calls. The service
// blocks callers that exceed its rate limit, so this is a correctness
// requirement, not tuning.
const minCallGap = 500 * time.Millisecond

// JikanClient looks up relations on the Jikan API.
type JikanClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

func NewJikanClient(baseURL string, log *zap.Logger) *JikanClient {
	if baseURL == "" {
		baseURL = "https://api.jikan.moe/v4"
	}
	return &JikanClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(minCallGap), 1),
		log:        log,
	}
}

func (c *JikanClient) AnimeRelations(ctx context.Context, id int64) ([]Relation, error) {
	return c.relations(ctx, fmt.Sprintf("%s/anime/%d/relations", c.baseURL, id))
}

func (c *JikanClient) MangaRelations(ctx context.Context, id int64) ([]Relation, error) {
	return c.relations(ctx, fmt.Sprintf("%s/manga/%d/relations", c.baseURL, id))
}

func (c *JikanClient) relations(ctx context.Context, rawURL string) ([]Relation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("jikan request failed", zap.String("url", rawURL), zap.Error(err))
		return nil, fmt.Errorf("jikan get: %w", domain.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("jikan read: %w", domain.ErrUpstreamUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("jikan non-OK status", zap.String("url", rawURL), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("jikan status %d: %w", resp.StatusCode, domain.ErrUpstreamUnavailable)
	}

	var out struct {
		Data []Relation `json:"data"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("jikan decode: %w", domain.ErrUpstreamUnavailable)
	}
	return out.Data, nil
}
