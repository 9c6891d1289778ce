// Package fundoracle implements the FundOracle interface against a managed
// fund's accounting HTTP API.
package fundoracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Client talks to one fund's REST endpoint.
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

type currentDayResponse struct {
	CurrentDay uint64 `json:"currentDay"`
}

type weekFigureResponse struct {
	Value string `json:"value"`
}

// CurrentDay implements types.FundOracle.
func (c *Client) CurrentDay(ctx context.Context) (uint64, error) {
	var out currentDayResponse
	if err := c.get(ctx, "/v1/fund/current-day", &out); err != nil {
		return 0, err
	}
	return out.CurrentDay, nil
}

// HistoricalTotalShares implements types.FundOracle.
func (c *Client) HistoricalTotalShares(ctx context.Context, week uint64) (*uint256.Int, error) {
	var out weekFigureResponse
	path := "/v1/fund/weeks/" + strconv.FormatUint(week, 10) + "/total-shares"
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return parseFigure(out.Value)
}

// HistoricalNav implements types.FundOracle.
func (c *Client) HistoricalNav(ctx context.Context, week uint64) (*uint256.Int, error) {
	var out weekFigureResponse
	path := "/v1/fund/weeks/" + strconv.FormatUint(week, 10) + "/nav"
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return parseFigure(out.Value)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "fund oracle request failed")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("fund oracle returned status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func parseFigure(s string) (*uint256.Int, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok || b.Sign() < 0 {
		return nil, fmt.Errorf("malformed figure %q", s)
	}
	z, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("figure %q overflows 256 bits", s)
	}
	return z, nil
}
