package oddsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Trimmed from a real v4 /odds response.
const nbaPayload = `[
  {
    "id": "e912304de2b2ce35b473ce2ecd3d1502",
    "sport_key": "basketball_nba",
    "sport_title": "NBA",
    "commence_time": "2026-10-21T23:40:00Z",
    "home_team": "Boston Celtics",
    "away_team": "New York Knicks",
    "bookmakers": [
      {
        "key": "draftkings",
        "title": "DraftKings",
        "last_update": "2026-10-21T14:10:03Z",
        "markets": [
          {
            "key": "h2h",
            "last_update": "2026-10-21T14:10:03Z",
            "outcomes": [
              {"name": "Boston Celtics", "price": 1.5},
              {"name": "New York Knicks", "price": 2.7}
            ]
          },
          {
            "key": "spreads",
            "last_update": "2026-10-21T14:10:03Z",
            "outcomes": [
              {"name": "Boston Celtics", "price": 1.91, "point": -5.5},
              {"name": "New York Knicks", "price": 1.91, "point": 5.5}
            ]
          },
          {
            "key": "totals",
            "last_update": "2026-10-21T14:10:03Z",
            "outcomes": [
              {"name": "Over", "price": 1.95, "point": 221.5},
              {"name": "Under", "price": null, "point": 221.5}
            ]
          }
        ]
      }
    ]
  },
  {
    "id": "",
    "sport_key": "basketball_nba",
    "commence_time": "2026-10-22T00:10:00Z",
    "home_team": "Denver Nuggets",
    "away_team": "Utah Jazz",
    "bookmakers": []
  }
]`

func TestFetchOdds_RealAPIFormat(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sports/basketball_nba/odds/" {
			t.Errorf("Expected path /sports/basketball_nba/odds/, got %s", r.URL.Path)
		}

		query := r.URL.Query()
		assert.Equal(t, "secret", query.Get("apiKey"))
		assert.Equal(t, "us", query.Get("regions"))
		assert.Equal(t, "h2h,spreads,totals", query.Get("markets"))
		assert.Equal(t, "decimal", query.Get("oddsFormat"))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("x-requests-remaining", "480")
		w.Header().Set("x-requests-used", "20")
		_, _ = w.Write([]byte(nbaPayload))
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL, "secret", 12*time.Second, ClientConfig{})

	games, err := client.FetchOdds(context.Background(), "basketball_nba")
	require.NoError(t, err)

	// The game without an ID is dropped.
	require.Len(t, games, 1)
	game := games[0]
	assert.Equal(t, "e912304de2b2ce35b473ce2ecd3d1502", game.ID)
	assert.Equal(t, "New York Knicks @ Boston Celtics", game.Matchup())
	require.Len(t, game.Bookmakers, 1)
	require.Len(t, game.Bookmakers[0].Markets, 3)

	spread := game.Bookmakers[0].Markets[1]
	require.NotNil(t, spread.Outcomes[0].Point)
	assert.Equal(t, -5.5, *spread.Outcomes[0].Point)

	totals := game.Bookmakers[0].Markets[2]
	assert.True(t, totals.Outcomes[0].Price.Valid)
	assert.False(t, totals.Outcomes[1].Price.Present)
}

func TestFetchOdds_TolerantFields(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{
			"id": "g",
			"commence_time": "",
			"home_team": "Kansas City Chiefs",
			"away_team": "Buffalo Bills",
			"bookmakers": [{
				"key": "fanduel",
				"title": "FanDuel",
				"last_update": "not a time",
				"markets": [{
					"key": "spreads",
					"last_update": 1700000000,
					"outcomes": [
						{"name": "Buffalo Bills", "price": 1.91, "point": "3.5"},
						{"name": "Kansas City Chiefs", "price": 1.91, "point": "pk"}
					]
				}]
			}]
		}]`))
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL, "secret", time.Second, ClientConfig{})

	games, err := client.FetchOdds(context.Background(), "americanfootball_nfl")
	require.NoError(t, err)
	require.Len(t, games, 1)

	outcomes := games[0].Bookmakers[0].Markets[0].Outcomes
	require.NotNil(t, outcomes[0].Point)
	assert.Equal(t, 3.5, *outcomes[0].Point)
	assert.Nil(t, outcomes[1].Point)
}

func TestFetchOdds_CustomMarkets(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "h2h", r.URL.Query().Get("markets"))
		assert.Equal(t, "us,us2", r.URL.Query().Get("regions"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL+"/", "secret", time.Second, ClientConfig{
		Regions: "us,us2",
		Markets: []string{"h2h"},
	})

	games, err := client.FetchOdds(context.Background(), "icehockey_nhl")
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestFetchOdds_StatusError(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"API key is not valid","error_code":"INVALID_KEY"}`))
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL, "secret", time.Second, ClientConfig{})

	_, err := client.FetchOdds(context.Background(), "basketball_nba")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, "unexpected status 401: API key is not valid", err.Error())
}

func TestFetchOdds_ServerErrorIsNotRetried(t *testing.T) {
	calls := 0
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL, "secret", time.Second, ClientConfig{})

	_, err := client.FetchOdds(context.Background(), "basketball_nba")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "unexpected status 502", err.Error())
}

func TestFetchOdds_MalformedBody(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"}`))
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL, "secret", time.Second, ClientConfig{})

	_, err := client.FetchOdds(context.Background(), "basketball_nba")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode odds")
}

func TestFetchOdds_TimeoutHidesAPIKey(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL, "super-secret-key", 20*time.Millisecond, ClientConfig{})

	_, err := client.FetchOdds(context.Background(), "basketball_nba")
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "super-secret-key"), "error leaks api key: %v", err)
}

func TestFetchOdds_ContextCancelled(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "secret", time.Second, ClientConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchOdds(ctx, "basketball_nba")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchOdds_EmptySportKey(t *testing.T) {
	client := NewClient("http://example.invalid", "secret", time.Second, ClientConfig{})

	_, err := client.FetchOdds(context.Background(), "")
	assert.Error(t, err)
}
