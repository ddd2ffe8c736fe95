package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yourusername/fairline/internal/config"
	"github.com/yourusername/fairline/internal/models"
)

const oddsResponse = `[
  {
    "id": "evt-1",
    "sport_key": "basketball_nba",
    "commence_time": "2026-03-01T19:00:00Z",
    "home_team": "Boston Celtics",
    "away_team": "Miami Heat",
    "bookmakers": [
      {
        "key": "pinnacle",
        "title": "Pinnacle",
        "last_update": "2026-03-01T18:30:00Z",
        "markets": [
          {
            "key": "h2h",
            "last_update": "2026-03-01T18:30:00Z",
            "outcomes": [
              {"name": "Boston Celtics", "price": 1.72},
              {"name": "Miami Heat", "price": 2.25}
            ]
          },
          {
            "key": "outrights",
            "last_update": "2026-03-01T18:30:00Z",
            "outcomes": [
              {"name": "Boston Celtics", "price": 4.5}
            ]
          }
        ]
      }
    ]
  }
]`

const scoresResponse = `[
  {
    "id": "evt-1",
    "sport_key": "basketball_nba",
    "commence_time": "2026-03-01T19:00:00Z",
    "completed": true,
    "home_team": "Boston Celtics",
    "away_team": "Miami Heat",
    "scores": [
      {"name": "Boston Celtics", "score": "112"},
      {"name": "Miami Heat", "score": "104"}
    ],
    "last_update": "2026-03-01T21:45:00Z"
  },
  {
    "id": "evt-2",
    "sport_key": "basketball_nba",
    "commence_time": "2026-03-01T20:00:00Z",
    "completed": false,
    "home_team": "Denver Nuggets",
    "away_team": "Utah Jazz",
    "scores": null
  },
  {
    "id": "evt-3",
    "sport_key": "basketball_nba",
    "commence_time": "2026-03-01T18:00:00Z",
    "completed": true,
    "home_team": "Dallas Mavericks",
    "away_team": "Houston Rockets",
    "scores": [
      {"name": "Dallas Mavericks", "score": "99"},
      {"name": "Houston Rockets", "score": "99"}
    ],
    "last_update": "2026-03-01T20:30:00Z"
  }
]`

func newTestClient(t *testing.T, handler http.Handler) (*OddsAPIClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := NewRateLimitedHTTPClient(HTTPClientConfig{
		Timeout:           5 * time.Second,
		MaxRetries:        0,
		RetryWaitMin:      time.Millisecond,
		RetryWaitMax:      10 * time.Millisecond,
		RateLimit:         100,
		CircuitBreakerMax: 5,
	}, nil)

	client := NewOddsAPIClient(httpClient, server.URL, "test-key", []string{"us"}, []string{"h2h"}, true, time.Minute, nil)
	return client, server
}

func TestFetchOddsFlattensQuotes(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("apiKey"); got != "test-key" {
			t.Errorf("expected apiKey in query, got %q", got)
		}
		w.Write([]byte(oddsResponse))
	}))

	quotes, err := client.FetchOdds(context.Background(), "basketball_nba")
	if err != nil {
		t.Fatalf("FetchOdds returned error: %v", err)
	}

	// The outrights market is not a supported market type and is dropped.
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}

	q := quotes[0]
	if q.EventID != "evt-1" || q.BookID != "pinnacle" || q.MarketType != models.MarketTypeHeadToHead {
		t.Errorf("unexpected quote identity: %+v", q)
	}
	if q.Outcome != "Boston Celtics" || q.Price != 1.72 {
		t.Errorf("unexpected quote price: %+v", q)
	}
	wantObserved := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)
	if !q.ObservedAt.Equal(wantObserved) {
		t.Errorf("expected observed_at %v, got %v", wantObserved, q.ObservedAt)
	}
}

func TestFetchOddsServesFromCache(t *testing.T) {
	var hits int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(oddsResponse))
	}))

	ctx := context.Background()
	if _, err := client.FetchOdds(ctx, "basketball_nba"); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := client.FetchOdds(ctx, "basketball_nba"); err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if hits != 1 {
		t.Errorf("expected 1 upstream hit, got %d", hits)
	}
}

func TestFetchResultsConvertsScores(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(scoresResponse))
	}))

	resolutions, err := client.FetchResults(context.Background(), "basketball_nba", 3)
	if err != nil {
		t.Fatalf("FetchResults returned error: %v", err)
	}

	// evt-2 is incomplete and dropped
	if len(resolutions) != 2 {
		t.Fatalf("expected 2 resolutions, got %d", len(resolutions))
	}

	if resolutions[0].EventID != "evt-1" || resolutions[0].OutcomeRealized != "Boston Celtics" {
		t.Errorf("unexpected first resolution: %+v", resolutions[0])
	}
	wantResolved := time.Date(2026, 3, 1, 21, 45, 0, 0, time.UTC)
	if !resolutions[0].ResolvedAt.Equal(wantResolved) {
		t.Errorf("expected resolved_at %v, got %v", wantResolved, resolutions[0].ResolvedAt)
	}

	// Tied score settles as a push
	if resolutions[1].EventID != "evt-3" || resolutions[1].OutcomeRealized != "push" {
		t.Errorf("unexpected tied resolution: %+v", resolutions[1])
	}
}

func TestFetchOddsAuthenticationFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.FetchOdds(context.Background(), "basketball_nba")
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("expected ErrAuthenticationFailed, got %v", err)
	}

	var dsErr DataSourceError
	if !errors.As(err, &dsErr) || dsErr.Code != ErrCodeAuthenticationFailed {
		t.Errorf("expected DataSourceError with auth code, got %v", err)
	}
}

func TestDisabledSourceRejectsFetch(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("disabled source should not reach upstream")
	}))
	client.enabled = false

	if _, err := client.FetchOdds(context.Background(), "basketball_nba"); !errors.Is(err, ErrSourceDisabled) {
		t.Errorf("expected ErrSourceDisabled, got %v", err)
	}
	if _, err := client.FetchResults(context.Background(), "basketball_nba", 1); !errors.Is(err, ErrSourceDisabled) {
		t.Errorf("expected ErrSourceDisabled, got %v", err)
	}
}

func TestHTTPClientRateLimit(t *testing.T) {
	cfg := DefaultHTTPClientConfig()
	cfg.RateLimit = 10
	client := NewRateLimitedHTTPClient(cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Measure 10 sequential waits at 10 req/s
	start := time.Now()
	for i := 0; i < 11; i++ {
		if err := client.limiter.Wait(ctx); err != nil {
			t.Fatalf("wait %d failed: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	if elapsed < 800*time.Millisecond || elapsed > 1500*time.Millisecond {
		t.Errorf("expected ~1s for 10 limited waits, got %v", elapsed)
	}
}

func TestFactoryCreatesConfiguredSources(t *testing.T) {
	factory := NewFactory(nil)

	_, err := factory.NewDataSource(config.DataSourceConfig{Name: "odds_api"}, factory.NewHTTPClient(config.DataSourceConfig{}))
	if err == nil {
		t.Error("expected error for missing API key")
	}

	_, err = factory.NewDataSource(config.DataSourceConfig{Name: "mystery_feed", APIKey: "k"}, factory.NewHTTPClient(config.DataSourceConfig{}))
	if err == nil {
		t.Error("expected error for unknown source")
	}

	sources, err := factory.NewDataSources(config.DataIngestionConfig{
		Sources: []config.DataSourceConfig{
			{Name: "odds_api", Enabled: true, APIKey: "k", RatePerSecond: 5},
			{Name: "odds_api", Enabled: false, APIKey: "k"},
		},
	})
	if err != nil {
		t.Fatalf("NewDataSources returned error: %v", err)
	}
	if len(sources) != 1 {
		t.Errorf("expected 1 enabled source, got %d", len(sources))
	}
	if sources[0].Name() != "odds_api" {
		t.Errorf("unexpected source name %q", sources[0].Name())
	}
}
