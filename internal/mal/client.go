// Package mal fetches a user's animelist from the MyAnimeList API,
// following pagination until the list is exhausted.
package mal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/j-chowder/anime-recommendation-backend/internal/catalog"
	"github.com/j-chowder/anime-recommendation-backend/internal/domain"
)

const pageLimit = 1000

type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL, clientID string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.myanimelist.net/v2"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   clientID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

type listResponse struct {
	Data []struct {
		Node struct {
			ID     int64  `json:"id"`
			Title  string `json:"title"`
			Genres []struct {
				Name string `json:"name"`
			} `json:"genres"`
		} `json:"node"`
		ListStatus struct {
			Status string `json:"status"`
			Score  int    `json:"score"`
		} `json:"list_status"`
	} `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

// UserList pulls the user's full animelist sorted by list score, optionally
// restricted to completed entries. Genre names come back normalized into
// index tokens.
func (c *Client) UserList(ctx context.Context, user string, completedOnly bool) ([]domain.UserListEntry, error) {
	q := url.Values{}
	q.Set("fields", "id,title,genres,list_status")
	q.Set("limit", fmt.Sprint(pageLimit))
	q.Set("sort", "list_score")
	if completedOnly {
		q.Set("status", domain.StatusCompleted)
	}
	next := fmt.Sprintf("%s/users/%s/animelist?%s", c.baseURL, url.PathEscape(user), q.Encode())

	var entries []domain.UserListEntry
	for next != "" {
		page, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Data {
			genres := make([]string, 0, len(item.Node.Genres))
			for _, g := range item.Node.Genres {
				if t := catalog.NormalizeGenre(g.Name); t != "" {
					genres = append(genres, t)
				}
			}
			entries = append(entries, domain.UserListEntry{
				ID:     item.Node.ID,
				Title:  item.Node.Title,
				Genres: genres,
				Score:  item.ListStatus.Score,
				Status: item.ListStatus.Status,
			})
		}
		next = page.Paging.Next
	}

	c.log.Debug("fetched animelist",
		zap.String("user", user),
		zap.Bool("completed_only", completedOnly),
		zap.Int("entries", len(entries)))
	return entries, nil
}

func (c *Client) fetchPage(ctx context.Context, rawURL string) (*listResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-MAL-CLIENT-ID", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mal get: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("mal read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mal status %d", resp.StatusCode)
	}

	var page listResponse
	if err := json.Unmarshal(b, &page); err != nil {
		return nil, fmt.Errorf("mal decode: %w", err)
	}
	return &page, nil
}
