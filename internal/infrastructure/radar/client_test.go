package radar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
)

func TestFetchVoyages_ParsesPage(t *testing.T) {
	var gotAuth, gotCursor, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCursor = r.URL.Query().Get("cursor")
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"records": [
				{"cursor": "c1", "record": {"id": "RV-1", "voyageNumber": "VOY-001", "vesselName": "Ever Given", "charterType": "SPOT", "demurrageRate": "25000", "laytimeAllowed": "3"}}
			],
			"nextCursor": "c1",
			"hasMore": false
		}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Token: "secret"})
	page, err := client.FetchVoyages(context.Background(), "c0", 100)
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "c0", gotCursor)
	assert.Equal(t, "100", gotLimit)

	require.Len(t, page.Records, 1)
	rec := page.Records[0]
	assert.Equal(t, "RV-1", rec.ID)
	assert.Equal(t, "VOY-001", rec.VoyageNumber)
	assert.Equal(t, "c1", rec.Cursor)
	assert.NotEmpty(t, rec.Raw)
	assert.Equal(t, "c1", page.NextCursor)
	assert.False(t, page.HasMore)
}

func TestFetch_ServerErrorIsConnectivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	_, err := client.FetchVoyages(context.Background(), "", 0)
	require.Error(t, err)

	cls := apperror.Classify(err)
	assert.Equal(t, apperror.KindConnectivity, cls.Kind)
	assert.True(t, cls.Retryable)
}

func TestFetch_ThrottleIsConnectivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	_, err := client.FetchClaims(context.Background(), "", 0)
	require.Error(t, err)
	assert.Equal(t, apperror.KindConnectivity, apperror.Classify(err).Kind)
}

func TestFetch_ClientErrorIsValidation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad cursor", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	_, err := client.FetchVoyages(context.Background(), "garbage", 0)
	require.Error(t, err)

	cls := apperror.Classify(err)
	assert.Equal(t, apperror.KindValidation, cls.Kind)
	assert.False(t, cls.Retryable)
}

func TestFetch_MalformedBodyIsValidation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"records": [`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	_, err := client.FetchVoyages(context.Background(), "", 0)
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.Classify(err).Kind)
}

func TestFetch_TimeoutIsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := client.FetchVoyages(context.Background(), "", 0)
	require.Error(t, err)

	cls := apperror.Classify(err)
	assert.Equal(t, apperror.KindTimeout, cls.Kind)
	assert.True(t, cls.Retryable)
}

func TestFetch_ConnectionRefusedIsConnectivity(t *testing.T) {
	// Closed server: the port no longer listens.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	client := NewClient(Config{BaseURL: baseURL})
	_, err := client.FetchVoyages(context.Background(), "", 0)
	require.Error(t, err)
	assert.Equal(t, apperror.KindConnectivity, apperror.Classify(err).Kind)
}
