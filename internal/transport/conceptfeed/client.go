// Package conceptfeed fetches the concept/stock universe from the upstream
// concept-manifest API. It implements the refresher's Source contract.
package conceptfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kuaixun/fusearch/internal/domain"
)

// DefaultTimeout bounds one upstream request.
const DefaultTimeout = 10 * time.Second

// Config holds the feed settings.
type Config struct {
	// Endpoint is the manifest base URL, e.g.
	// "https://news.example.com/api/client-api/concept-manifest/10jqka".
	Endpoint string        `yaml:"endpoint"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Client pulls concept manifests and their stock listings.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a concept feed client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("conceptfeed: endpoint is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.Endpoint, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

type manifestResponse struct {
	Total int               `json:"total"`
	Data  []manifestConcept `json:"data"`
}

type manifestConcept struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Definition string         `json:"definition"`
	Leaders    []leaderRecord `json:"leaders"`
}

type leaderRecord struct {
	Code string `json:"code"`
}

type stockRecord struct {
	StockCode      string `json:"stockCode"`
	StockName      string `json:"stockName"`
	ConceptExplain string `json:"conceptExplain"`
}

// ConceptStocks implements the refresher's Source: one flattened record per
// (concept, stock) pairing, leaders of each concept listed first.
func (c *Client) ConceptStocks(ctx context.Context) ([]domain.ConceptStock, error) {
	concepts, err := c.fetchManifest(ctx)
	if err != nil {
		return nil, err
	}

	var records []domain.ConceptStock
	for _, concept := range concepts {
		stocks, err := c.fetchStocks(ctx, concept.ID)
		if err != nil {
			return nil, fmt.Errorf("concept %d (%s): %w", concept.ID, concept.Name, err)
		}

		leaders := make(map[string]bool, len(concept.Leaders))
		for _, l := range concept.Leaders {
			leaders[l.Code] = true
		}

		// Leaders first so they land earlier in the refreshed collection.
		for _, wantLeader := range []bool{true, false} {
			for _, stock := range stocks {
				if leaders[stock.StockCode] != wantLeader {
					continue
				}
				records = append(records, domain.ConceptStock{
					ConceptID:  concept.ID,
					Name:       concept.Name,
					Definition: concept.Definition,
					StockCode:  stock.StockCode,
					StockName:  stock.StockName,
					Reason:     stock.ConceptExplain,
					IsLeader:   wantLeader,
				})
			}
		}
	}

	c.logger.Info("Fetched concept feed",
		zap.Int("concepts", len(concepts)),
		zap.Int("records", len(records)))
	return records, nil
}

// fetchManifest asks for the first page to learn the total, then re-fetches
// everything in one page.
func (c *Client) fetchManifest(ctx context.Context) ([]manifestConcept, error) {
	var probe manifestResponse
	if err := c.getJSON(ctx, c.manifestURL(1, 1), &probe); err != nil {
		return nil, fmt.Errorf("fetch manifest size: %w", err)
	}
	if probe.Total == 0 {
		return nil, nil
	}

	var full manifestResponse
	if err := c.getJSON(ctx, c.manifestURL(1, probe.Total), &full); err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	return full.Data, nil
}

func (c *Client) fetchStocks(ctx context.Context, conceptID int64) ([]stockRecord, error) {
	u := c.baseURL + "/" + strconv.FormatInt(conceptID, 10) + "?" + c.query(nil).Encode()
	var stocks []stockRecord
	if err := c.getJSON(ctx, u, &stocks); err != nil {
		return nil, fmt.Errorf("fetch stocks: %w", err)
	}
	return stocks, nil
}

func (c *Client) manifestURL(current, pageSize int) string {
	q := c.query(url.Values{
		"current":  {strconv.Itoa(current)},
		"pageSize": {strconv.Itoa(pageSize)},
	})
	return c.baseURL + "?" + q.Encode()
}

func (c *Client) query(base url.Values) url.Values {
	if base == nil {
		base = url.Values{}
	}
	if c.token != "" {
		base.Set("acctoken", c.token)
	}
	return base
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
