package lockledger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLockedBalance(t *testing.T) {
	account := common.HexToAddress("0x0000000000000000000000000000000000000a11")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/locks/"+account.Hex(), r.URL.Path)
		_, _ = w.Write([]byte(`{"amount":"3000000000000000000","unlockTime":1700000000}`))
	}))
	defer srv.Close()

	lb, err := New(srv.URL).GetLockedBalance(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, 0, lb.Amount.Cmp(uint256.NewInt(3e18)))
	assert.Equal(t, uint64(1700000000), lb.UnlockTime)
}

func TestGetLockedBalance_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"amount":"not-a-number","unlockTime":1}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetLockedBalance(context.Background(), common.Address{})
	assert.Error(t, err)
}

func TestMaxTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/locks/max-time", r.URL.Path)
		_, _ = w.Write([]byte(`{"maxTime":125798400}`))
	}))
	defer srv.Close()

	maxTime, err := New(srv.URL).MaxTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(125798400), maxTime)
}

func TestMaxTime_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).MaxTime(context.Background())
	assert.Error(t, err)
}
