// Package lockledger implements the LockSource interface against the locked
// balance ledger's HTTP API. Balances are read fresh on every call; the
// client holds no cache.
package lockledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/stratafi/governance/voting/types"
)

// Client talks to the ledger's REST endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type lockResponse struct {
	Amount     string `json:"amount"`
	UnlockTime uint64 `json:"unlockTime"`
}

type maxTimeResponse struct {
	MaxTime uint64 `json:"maxTime"`
}

// GetLockedBalance implements types.LockSource.
func (c *Client) GetLockedBalance(ctx context.Context, account common.Address) (*types.LockedBalance, error) {
	var out lockResponse
	if err := c.get(ctx, "/v1/locks/"+account.Hex(), &out); err != nil {
		return nil, err
	}
	amount, err := parseAmount(out.Amount)
	if err != nil {
		return nil, errors.Wrapf(err, "lock amount for %#x", account)
	}
	return &types.LockedBalance{Amount: amount, UnlockTime: out.UnlockTime}, nil
}

// MaxTime implements types.LockSource.
func (c *Client) MaxTime(ctx context.Context) (uint64, error) {
	var out maxTimeResponse
	if err := c.get(ctx, "/v1/locks/max-time", &out); err != nil {
		return 0, err
	}
	if out.MaxTime == 0 {
		return 0, errors.New("ledger reports zero max lock duration")
	}
	return out.MaxTime, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "ledger request failed")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("ledger returned status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// parseAmount decodes a base-10 token amount string into a 256 bit value.
func parseAmount(s string) (*uint256.Int, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok || b.Sign() < 0 {
		return nil, fmt.Errorf("malformed amount %q", s)
	}
	z, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("amount %q overflows 256 bits", s)
	}
	return z, nil
}
