package procare

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"daycaresync/pkg/errors"
	"daycaresync/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Options{
		BaseURL: server.URL,
		Token:   "test-token",
		Logger:  logger.NewTestLogger(),
	})
	return client, server
}

func activityPage(ids ...string) ActivitiesResponse {
	resp := ActivitiesResponse{DailyActivities: []Activity{}}
	for _, id := range ids {
		resp.DailyActivities = append(resp.DailyActivities, Activity{
			ID:           id,
			ActivityType: "note_activity",
		})
	}
	return resp
}

func TestListChildren(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, KidsEndpoint, r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(KidsResponse{Kids: []Kid{
			{ID: "kid-1", Name: "Ada"},
			{ID: "kid-2", Name: "Grace"},
		}})
	})

	kids, err := client.ListChildren(context.Background())
	require.NoError(t, err)
	require.Len(t, kids, 2)
	assert.Equal(t, "kid-1", kids[0].ID)
	assert.Equal(t, "Grace", kids[1].Name)
}

func TestListChildrenUnauthorized(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.ListChildren(context.Background())
	require.Error(t, err)

	var apiErr *errors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errors.ErrorTypeAuth, apiErr.Type)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Code)
}

func TestFetchActivitiesPaginatesUntilEmptyPage(t *testing.T) {
	pages := map[string]ActivitiesResponse{
		"1": activityPage("a", "b"),
		"2": activityPage("c"),
		"3": activityPage("d", "e"),
		"4": activityPage(),
	}
	var requested []string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ActivitiesEndpoint, r.URL.Path)
		assert.Equal(t, "kid-1", r.URL.Query().Get("kid_id"))
		assert.Equal(t, "2023-01-01", r.URL.Query().Get("filters[daily_activity][date_from]"))
		assert.Equal(t, "2023-06-30", r.URL.Query().Get("filters[daily_activity][date_to]"))

		page := r.URL.Query().Get("page")
		requested = append(requested, page)
		resp, ok := pages[page]
		require.True(t, ok, "unexpected page %s", page)
		json.NewEncoder(w).Encode(resp)
	})

	records, err := client.FetchActivities(context.Background(), "kid-1", "2023-01-01", "2023-06-30")
	require.NoError(t, err)

	// All three non-empty pages concatenated, in request order
	require.Len(t, records, 5)
	for i, want := range []string{"a", "b", "c", "d", "e"} {
		assert.Equal(t, want, records[i].ID)
	}

	// The walk stops at the first empty page
	assert.Equal(t, []string{"1", "2", "3", "4"}, requested)
}

func TestFetchActivitiesAbortsOnServerError(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(activityPage("a"))
	})

	_, err := client.FetchActivities(context.Background(), "kid-1", "2023-01-01", "2023-06-30")
	require.Error(t, err)

	var apiErr *errors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errors.ErrorTypeServerError, apiErr.Type)
	assert.Equal(t, 2, calls)
}

func TestFetchActivitiesFreshSlicePerCall(t *testing.T) {
	var call int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			json.NewEncoder(w).Encode(activityPage(fmt.Sprintf("call-%d", call)))
			return
		}
		json.NewEncoder(w).Encode(activityPage())
	})

	call = 1
	first, err := client.FetchActivities(context.Background(), "kid-1", "2023-01-01", "2023-06-30")
	require.NoError(t, err)

	call = 2
	second, err := client.FetchActivities(context.Background(), "kid-1", "2023-01-01", "2023-06-30")
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "call-1", first[0].ID)
	assert.Equal(t, "call-2", second[0].ID)
}

func TestDownload(t *testing.T) {
	payload := []byte("jpeg-bytes")
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})

	data, err := client.Download(context.Background(), server.URL+"/media/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestDownloadOmitsAPIHeaders(t *testing.T) {
	payload := []byte("jpeg-bytes")

	// A CDN-style media host that rejects requests carrying the API
	// header set, the way presigned URLs do.
	mediaHost := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" || r.Header.Get("Origin") != "" || r.Header.Get("Referer") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write(payload)
	}))
	t.Cleanup(mediaHost.Close)

	client := NewClient(Options{
		BaseURL:   "https://api.example.com",
		Token:     "test-token",
		UserAgent: "test-agent",
		Logger:    logger.NewTestLogger(),
	})

	data, err := client.Download(context.Background(), mediaHost.URL+"/media/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestDownloadNotFound(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Download(context.Background(), server.URL+"/media/gone.jpg")
	require.Error(t, err)

	var apiErr *errors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errors.ErrorTypeNotFound, apiErr.Type)
}
