package strava

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient("12345", "secret", "http://localhost/callback",
		WithHTTPClient(srv.Client()),
		WithEndpoints(srv.URL+"/oauth/token", srv.URL+"/api/v3"))
}

func TestRefresh(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, rq *http.Request) {
		require.NoError(t, rq.ParseForm())
		require.Equal(t, "refresh_token", rq.PostForm.Get("grant_type"))
		require.Equal(t, "refresh-1", rq.PostForm.Get("refresh_token"))
		require.Equal(t, "12345", rq.PostForm.Get("client_id"))
		require.Equal(t, "secret", rq.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token_type":"Bearer","access_token":"access-1","refresh_token":"refresh-2","expires_in":21600}`))
	})

	client := newTestClient(t, mux)

	token, err := client.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	require.Equal(t, "access-1", token.AccessToken)
	require.Equal(t, "refresh-2", token.RefreshToken)
}

func TestRefreshKeepsRefreshTokenIfNotRotated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, rq *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token_type":"Bearer","access_token":"access-1","expires_in":21600}`))
	})

	client := newTestClient(t, mux)

	token, err := client.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	require.Equal(t, "refresh-1", token.RefreshToken)
}

func TestRefreshRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, rq *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Bad Request","errors":[{"resource":"RefreshToken","field":"refresh_token","code":"invalid"}]}`))
	})

	client := newTestClient(t, mux)

	_, err := client.Refresh(context.Background(), "revoked")

	var autherr *AuthError
	require.ErrorAs(t, err, &autherr)
}

func TestRefreshWithoutToken(t *testing.T) {
	client := NewClient("12345", "secret", "")

	_, err := client.Refresh(context.Background(), " ")

	var autherr *AuthError
	require.ErrorAs(t, err, &autherr)
}

func TestExchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, rq *http.Request) {
		require.NoError(t, rq.ParseForm())
		require.Equal(t, "authorization_code", rq.PostForm.Get("grant_type"))
		require.Equal(t, "code-1", rq.PostForm.Get("code"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
		  "token_type":"Bearer",
		  "access_token":"access-1",
		  "refresh_token":"refresh-1",
		  "expires_in":21600,
		  "athlete":{"id":227615,"firstname":"Jane","lastname":"Doe"}
		}`))
	})

	client := newTestClient(t, mux)

	link, err := client.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	require.Equal(t, int64(227615), link.Athlete.ID)
	require.Equal(t, "Jane Doe", link.Athlete.Name())
	require.Equal(t, "refresh-1", link.RefreshToken)
}

func TestExchangeWithoutAthlete(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, rq *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token_type":"Bearer","access_token":"access-1","refresh_token":"refresh-1"}`))
	})

	client := newTestClient(t, mux)

	_, err := client.Exchange(context.Background(), "code-1")
	require.Error(t, err)
}

func TestAuthCodeURL(t *testing.T) {
	client := NewClient("12345", "secret", "http://localhost:8080/callback")

	u, err := url.Parse(client.AuthCodeURL("state-1"))
	require.NoError(t, err)

	query := u.Query()
	require.Equal(t, "www.strava.com", u.Host)
	require.Equal(t, "12345", query.Get("client_id"))
	require.Equal(t, "code", query.Get("response_type"))
	require.Equal(t, "force", query.Get("approval_prompt"))
	require.Equal(t, SCOPE, query.Get("scope"))
	require.Equal(t, "state-1", query.Get("state"))
	require.Equal(t, "http://localhost:8080/callback", query.Get("redirect_uri"))
}

func TestActivities(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/athlete/activities", func(w http.ResponseWriter, rq *http.Request) {
		require.Equal(t, "Bearer access-1", rq.Header.Get("Authorization"))
		require.Equal(t, "1704067200", rq.URL.Query().Get("after"))
		require.Equal(t, "1704240000", rq.URL.Query().Get("before"))
		require.Equal(t, "50", rq.URL.Query().Get("per_page"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
		  {"id":10001,"name":"Morning Run","type":"Run","distance":5000,"moving_time":1800,
		   "start_date":"2024-01-01T06:00:00Z","start_date_local":"2024-01-01T08:00:00Z",
		   "total_elevation_gain":12.5,"average_speed":2.5,"max_speed":4.1,"average_heartrate":151.2},
		  {"id":10002,"name":"Commute","type":"Ride","distance":12000,"moving_time":2400,
		   "start_date":"2024-01-02T06:00:00Z","start_date_local":"2024-01-02T08:00:00Z",
		   "average_speed":5,"max_speed":9.5}
		]`))
	})

	client := newTestClient(t, mux)
	before := int64(1704240000)

	activities, err := client.Activities(context.Background(), "access-1", 1704067200, &before)
	require.NoError(t, err)
	require.Len(t, activities, 2)

	require.Equal(t, int64(10001), activities[0].ID)
	require.Equal(t, "2024-01-01T08:00:00Z", activities[0].StartDateLocal)
	require.NotNil(t, activities[0].AverageHeartrate)
	require.Equal(t, 151.2, *activities[0].AverageHeartrate)
	require.Nil(t, activities[0].MaxHeartrate)
	require.Nil(t, activities[1].TotalElevationGain)
}

func TestActivitiesWithoutBefore(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/athlete/activities", func(w http.ResponseWriter, rq *http.Request) {
		_, ok := rq.URL.Query()["before"]
		require.False(t, ok)
		require.Equal(t, "0", rq.URL.Query().Get("after"))

		json.NewEncoder(w).Encode([]Activity{})
	})

	client := newTestClient(t, mux)

	activities, err := client.Activities(context.Background(), "access-1", 0, nil)
	require.NoError(t, err)
	require.Empty(t, activities)
}

func TestActivitiesWithErrorResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/athlete/activities", func(w http.ResponseWriter, rq *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Authorization Error"}`))
	})

	client := newTestClient(t, mux)

	_, err := client.Activities(context.Background(), "expired", 0, nil)

	var fetcherr *FetchError
	require.ErrorAs(t, err, &fetcherr)
	require.Equal(t, http.StatusUnauthorized, fetcherr.StatusCode)
	require.Contains(t, fetcherr.Error(), "Authorization Error")
}

func TestActivitiesWithInvalidResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/athlete/activities", func(w http.ResponseWriter, rq *http.Request) {
		w.Write([]byte(`{"id":`))
	})

	client := newTestClient(t, mux)

	_, err := client.Activities(context.Background(), "access-1", 0, nil)

	var fetcherr *FetchError
	require.ErrorAs(t, err, &fetcherr)
	require.Equal(t, http.StatusOK, fetcherr.StatusCode)
	require.Contains(t, fetcherr.Error(), "HTTP 200")
	require.Contains(t, fetcherr.Error(), "invalid response")
}

func TestActivitiesWithCancelledContext(t *testing.T) {
	client := newTestClient(t, http.NewServeMux())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Activities(ctx, "access-1", 0, nil)

	var fetcherr *FetchError
	require.ErrorAs(t, err, &fetcherr)
	require.Zero(t, fetcherr.StatusCode)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestParseLocalTime(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Time
	}{
		{"2024-03-10T08:00:00Z", time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)},
		{"2024-03-10T08:00:00", time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)},
		{" 2024-03-10T08:00:00 ", time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)},
	}

	for _, test := range tests {
		t.Run(test.value, func(t *testing.T) {
			v, err := ParseLocalTime(test.value)
			require.NoError(t, err)
			require.True(t, test.expected.Equal(v), "expected %v, got %v", test.expected, v)
		})
	}

	_, err := ParseLocalTime("10 March 2024")
	require.Error(t, err)
}
