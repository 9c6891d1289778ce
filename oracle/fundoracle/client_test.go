package fundoracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/fund/current-day", r.URL.Path)
		_, _ = w.Write([]byte(`{"currentDay":1700000000}`))
	}))
	defer srv.Close()

	day, err := New(srv.URL).CurrentDay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000), day)
}

func TestHistoricalFigures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/fund/weeks/1631404800/total-shares":
			_, _ = w.Write([]byte(`{"value":"5000000000000000000"}`))
		case "/v1/fund/weeks/1631404800/nav":
			_, _ = w.Write([]byte(`{"value":"1020000000000000000"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	shares, err := c.HistoricalTotalShares(context.Background(), 1631404800)
	require.NoError(t, err)
	assert.Equal(t, 0, shares.Cmp(uint256.NewInt(5e18)))

	nav, err := c.HistoricalNav(context.Background(), 1631404800)
	require.NoError(t, err)
	assert.Equal(t, 0, nav.Cmp(uint256.NewInt(102e16)))
}

func TestHistoricalFigures_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL).HistoricalNav(context.Background(), 0)
	assert.Error(t, err)
}
