package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/sprint-board/internal/intake"
	"github.com/nhle/sprint-board/internal/model"
)

func TestFetchMapsIssues(t *testing.T) {
	var searches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer pat", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/rest/api/2/search":
			if searches.Add(1) == 1 {
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "project = PROJ", body["jql"])
			_, _ = w.Write([]byte(`{"total":1,"issues":[{"key":"PROJ-7","fields":{
				"summary":"Export to CSV","description":"Users want CSV.",
				"labels":["export","Export"],"issuetype":{"name":"Story"}}}]}`))
		case "/rest/api/2/myself":
			_, _ = w.Write([]byte(`{"displayName":"Ada"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := New("jira-main", srv.URL+"/", "pat", "project = PROJ")

	msg, err := src.ValidateConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "connected as Ada", msg)

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), searches.Load())
	assert.Equal(t, []model.IntakeItem{{
		ExternalRef: "jira:PROJ-7",
		Title:       "Export to CSV",
		Description: "Users want CSV.\n\n" + srv.URL + "/browse/PROJ-7",
		Tags:        []string{"PROJ-7", "story", "export"},
	}}, items)
}

func TestFetchUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New("j", srv.URL, "expired", "").Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, intake.IsAuthError(err))
}

func TestFetchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessages":["bad JQL"]}`))
	}))
	defer srv.Close()

	_, err := New("j", srv.URL, "t", "nonsense").Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad JQL")
	assert.False(t, intake.IsAuthError(err))
}

func TestRetryGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src := New("j", srv.URL, "t", "")
	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries")
	assert.Equal(t, int32(4), calls.Load())
}
