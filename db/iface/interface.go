// Package iface exists to prevent circular dependencies when implementing
// the database interface.
package iface

import (
	"context"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/stratafi/governance/voting/types"
)

// Database defines the persistence surface of the governance engine:
// finalized weight checkpoints, live vote receipts, and the pool registry.
type Database interface {
	io.Closer
	DatabasePath() string
	ClearDB() error

	// Relative weight checkpoints, append-only per (fund, week).
	RelativeWeight(ctx context.Context, fund common.Address, week uint64) (*uint256.Int, error)
	HasRelativeWeight(ctx context.Context, fund common.Address, week uint64) (bool, error)
	SaveRelativeWeight(ctx context.Context, fund common.Address, week uint64, weight *uint256.Int) error

	// Interest rate ballot receipts, overwritten per voter.
	SaveRateReceipt(ctx context.Context, voter common.Address, receipt *types.RateReceipt) error
	RateReceipts(ctx context.Context) (map[common.Address]*types.RateReceipt, error)

	// Pool weight ballot receipts and the append-only pool registry.
	SavePoolReceipt(ctx context.Context, voter common.Address, receipt *types.PoolReceipt) error
	PoolReceipts(ctx context.Context) (map[common.Address]*types.PoolReceipt, error)
	SavePools(ctx context.Context, pools []common.Address) error
	Pools(ctx context.Context) ([]common.Address, error)
}
