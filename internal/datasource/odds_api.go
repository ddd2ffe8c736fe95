package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/fairline/internal/models"
)

// OddsAPIClient implements DataSource for The Odds API
type OddsAPIClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	regions    []string
	markets    []string
	enabled    bool
	cache      *cache.Cache
	logger     *logrus.Logger
}

// oddsAPIEvent represents one event from the odds endpoint
type oddsAPIEvent struct {
	ID           string             `json:"id"`
	SportKey     string             `json:"sport_key"`
	CommenceTime time.Time          `json:"commence_time"`
	HomeTeam     string             `json:"home_team"`
	AwayTeam     string             `json:"away_team"`
	Bookmakers   []oddsAPIBookmaker `json:"bookmakers"`
}

type oddsAPIBookmaker struct {
	Key        string          `json:"key"`
	Title      string          `json:"title"`
	LastUpdate time.Time       `json:"last_update"`
	Markets    []oddsAPIMarket `json:"markets"`
}

type oddsAPIMarket struct {
	Key        string           `json:"key"`
	LastUpdate time.Time        `json:"last_update"`
	Outcomes   []oddsAPIOutcome `json:"outcomes"`
}

type oddsAPIOutcome struct {
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
}

// oddsAPIScore represents one event from the scores endpoint
type oddsAPIScore struct {
	ID           string          `json:"id"`
	SportKey     string          `json:"sport_key"`
	CommenceTime time.Time       `json:"commence_time"`
	Completed    bool            `json:"completed"`
	HomeTeam     string          `json:"home_team"`
	AwayTeam     string          `json:"away_team"`
	Scores       []oddsAPIResult `json:"scores"`
	LastUpdate   *time.Time      `json:"last_update"`
}

type oddsAPIResult struct {
	Name  string      `json:"name"`
	Score json.Number `json:"score"`
}

// NewOddsAPIClient creates a new Odds API client
func NewOddsAPIClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, regions, markets []string, enabled bool, cacheTTL time.Duration, logger *logrus.Logger) *OddsAPIClient {
	if baseURL == "" {
		baseURL = "https://api.the-odds-api.com/v4"
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &OddsAPIClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		regions:    regions,
		markets:    markets,
		enabled:    enabled,
		cache:      cache.New(cacheTTL, 2*cacheTTL),
		logger:     logger,
	}
}

// FetchOdds retrieves current bookmaker quotes for a sport
func (c *OddsAPIClient) FetchOdds(ctx context.Context, sport string) ([]models.Quote, error) {
	if !c.enabled {
		return nil, NewDataSourceError("odds_api", ErrCodeDisabled, "data source is disabled", ErrSourceDisabled)
	}

	endpoint := fmt.Sprintf("%s/sports/%s/odds?%s", c.baseURL, url.PathEscape(sport), url.Values{
		"apiKey":     {c.apiKey},
		"regions":    {strings.Join(c.regions, ",")},
		"markets":    {strings.Join(c.markets, ",")},
		"oddsFormat": {"decimal"},
	}.Encode())

	body, err := c.fetchCached(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var events []oddsAPIEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, NewDataSourceError("odds_api", ErrCodeInvalidData, "failed to parse odds response", err)
	}

	var quotes []models.Quote
	for _, event := range events {
		quotes = append(quotes, c.flattenEvent(&event)...)
	}
	return quotes, nil
}

// FetchResults retrieves resolved events for a sport
func (c *OddsAPIClient) FetchResults(ctx context.Context, sport string, daysFrom int) ([]models.EventResolution, error) {
	if !c.enabled {
		return nil, NewDataSourceError("odds_api", ErrCodeDisabled, "data source is disabled", ErrSourceDisabled)
	}
	if daysFrom <= 0 {
		daysFrom = 1
	}

	endpoint := fmt.Sprintf("%s/sports/%s/scores?%s", c.baseURL, url.PathEscape(sport), url.Values{
		"apiKey":   {c.apiKey},
		"daysFrom": {fmt.Sprintf("%d", daysFrom)},
	}.Encode())

	body, err := c.fetchCached(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var scores []oddsAPIScore
	if err := json.Unmarshal(body, &scores); err != nil {
		return nil, NewDataSourceError("odds_api", ErrCodeInvalidData, "failed to parse scores response", err)
	}

	var resolutions []models.EventResolution
	for _, score := range scores {
		resolution, ok := c.convertResolution(&score)
		if !ok {
			continue
		}
		resolutions = append(resolutions, resolution)
	}
	return resolutions, nil
}

// Name returns the data source name
func (c *OddsAPIClient) Name() string {
	return "odds_api"
}

// IsEnabled returns whether this data source is enabled
func (c *OddsAPIClient) IsEnabled() bool {
	return c.enabled
}

// fetchCached fetches a URL, serving from the response cache when fresh
func (c *OddsAPIClient) fetchCached(ctx context.Context, endpoint string) ([]byte, error) {
	if cached, found := c.cache.Get(endpoint); found {
		c.logger.WithField("source", "odds_api").Debug("serving response from cache")
		return cached.([]byte), nil
	}

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return nil, NewDataSourceError("odds_api", ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, NewDataSourceError("odds_api", ErrCodeAuthenticationFailed, "invalid API key", ErrAuthenticationFailed)
	case http.StatusTooManyRequests:
		return nil, NewDataSourceError("odds_api", ErrCodeRateLimitExceeded, "quota exhausted", ErrRateLimitExceeded)
	case http.StatusNotFound:
		return nil, NewDataSourceError("odds_api", ErrCodeNotFound, "unknown sport or endpoint", ErrNotFound)
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, NewDataSourceError("odds_api", ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewDataSourceError("odds_api", ErrCodeNetworkError, "failed to read response body", err)
	}

	c.cache.Set(endpoint, body, cache.DefaultExpiration)
	return body, nil
}

// flattenEvent converts one event's nested bookmaker markets into flat quotes
func (c *OddsAPIClient) flattenEvent(event *oddsAPIEvent) []models.Quote {
	var quotes []models.Quote
	for _, bookmaker := range event.Bookmakers {
		for _, market := range bookmaker.Markets {
			marketType := models.MarketType(market.Key)
			switch marketType {
			case models.MarketTypeHeadToHead, models.MarketTypeSpread, models.MarketTypeTotal:
			default:
				continue
			}
			observedAt := market.LastUpdate
			if observedAt.IsZero() {
				observedAt = bookmaker.LastUpdate
			}
			for _, outcome := range market.Outcomes {
				price, err := decimal.NewFromString(outcome.Price.String())
				if err != nil || price.LessThanOrEqual(decimal.NewFromInt(1)) {
					c.logger.WithFields(logrus.Fields{
						"event_id": event.ID,
						"book_id":  bookmaker.Key,
						"outcome":  outcome.Name,
						"price":    outcome.Price.String(),
					}).Warn("dropping quote with unusable price")
					continue
				}
				quotes = append(quotes, models.Quote{
					EventID:    event.ID,
					MarketType: marketType,
					Outcome:    outcome.Name,
					BookID:     bookmaker.Key,
					Price:      price.InexactFloat64(),
					ObservedAt: observedAt,
				})
			}
		}
	}
	return quotes
}

// convertResolution derives the realized h2h outcome from final scores
func (c *OddsAPIClient) convertResolution(score *oddsAPIScore) (models.EventResolution, bool) {
	if !score.Completed || len(score.Scores) < 2 {
		return models.EventResolution{}, false
	}

	var homeScore, awayScore decimal.Decimal
	var haveHome, haveAway bool
	for _, result := range score.Scores {
		value, err := decimal.NewFromString(result.Score.String())
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"event_id": score.ID,
				"team":     result.Name,
			}).Warn("dropping resolution with unparseable score")
			return models.EventResolution{}, false
		}
		switch result.Name {
		case score.HomeTeam:
			homeScore, haveHome = value, true
		case score.AwayTeam:
			awayScore, haveAway = value, true
		}
	}
	if !haveHome || !haveAway {
		return models.EventResolution{}, false
	}

	var realized string
	switch homeScore.Cmp(awayScore) {
	case 1:
		realized = score.HomeTeam
	case -1:
		realized = score.AwayTeam
	default:
		realized = "push"
	}

	resolvedAt := score.CommenceTime
	if score.LastUpdate != nil {
		resolvedAt = *score.LastUpdate
	}

	return models.EventResolution{
		EventID:         score.ID,
		OutcomeRealized: realized,
		ResolvedAt:      resolvedAt,
	}, true
}
