package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
	"tournament-tracker/internal/config"
	"tournament-tracker/internal/constants"
	"tournament-tracker/internal/domain"

	"github.com/valyala/fasthttp"
)

// Ranges read from the tournament sheet. Each is a named tab with a header
// row; data starts at row 2.
const (
	rangeMatches   = "Matches!A2:J"
	rangeRoster    = "Roster!A2:D"
	rangeRules     = "Rules!A1:B"
	rangePlayers   = "Players!A2:D"
	rangeSignups   = "Signups!A2:F"
	rangeChampions = "Champions!A2:B"
)

// Client reads tournament data from the spreadsheet service. It is the only
// place positional row access happens; everything downstream gets typed
// records.
type Client struct {
	apiKey  string
	baseURL string
	sheetID string
	client  *fasthttp.Client
}

// Provider is the read surface the cache layer depends on. Tests inject
// counting fakes.
type Provider interface {
	FetchMatches(ctx context.Context) ([]domain.Match, error)
	FetchRoster(ctx context.Context) (domain.Roster, error)
	FetchRules(ctx context.Context) (*domain.RulesDocument, error)
	FetchPlayers(ctx context.Context) ([]domain.PlayerEntry, error)
	FetchSignups(ctx context.Context) ([]domain.Signup, error)
	FetchChampion(ctx context.Context, division domain.Division) (string, error)
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiKey:  cfg.SheetsAPIKey,
		baseURL: cfg.SheetsBaseURL,
		sheetID: cfg.SheetID,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// valuesResponse is the spreadsheet values API's row-major payload.
type valuesResponse struct {
	Range          string     `json:"range"`
	MajorDimension string     `json:"majorDimension"`
	Values         [][]string `json:"values"`
}

func (c *Client) FetchMatches(ctx context.Context) ([]domain.Match, error) {
	resp, err := c.fetchRange(ctx, rangeMatches)
	if err != nil {
		return nil, err
	}
	return parseMatchRows(resp.Values), nil
}

func (c *Client) FetchRoster(ctx context.Context) (domain.Roster, error) {
	resp, err := c.fetchRange(ctx, rangeRoster)
	if err != nil {
		return nil, err
	}
	return parseRosterRows(resp.Values), nil
}

func (c *Client) FetchRules(ctx context.Context) (*domain.RulesDocument, error) {
	resp, err := c.fetchRange(ctx, rangeRules)
	if err != nil {
		return nil, err
	}
	return parseRulesRows(resp.Values), nil
}

func (c *Client) FetchPlayers(ctx context.Context) ([]domain.PlayerEntry, error) {
	resp, err := c.fetchRange(ctx, rangePlayers)
	if err != nil {
		return nil, err
	}
	return parsePlayerRows(resp.Values), nil
}

func (c *Client) FetchSignups(ctx context.Context) ([]domain.Signup, error) {
	resp, err := c.fetchRange(ctx, rangeSignups)
	if err != nil {
		return nil, err
	}
	return parseSignupRows(resp.Values), nil
}

// FetchChampion is a live read; champion markers are deliberately never
// cached so a title change shows up in the next rankings refresh.
func (c *Client) FetchChampion(ctx context.Context, division domain.Division) (string, error) {
	resp, err := c.fetchRange(ctx, rangeChampions)
	if err != nil {
		return "", err
	}
	for _, row := range resp.Values {
		if len(row) < 2 {
			continue
		}
		if div, err := domain.ParseDivision(row[0]); err == nil && div == division {
			return row[1], nil
		}
	}
	return "", nil
}

func (c *Client) fetchRange(ctx context.Context, sheetRange string) (*valuesResponse, error) {
	u := fmt.Sprintf("%s/%s/values/%s?key=%s", c.baseURL, c.sheetID, url.PathEscape(sheetRange), url.QueryEscape(c.apiKey))
	return doRequest[valuesResponse](ctx, c, u)
}

func doRequest[T any](ctx context.Context, client *Client, u string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(u)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("sheet API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
