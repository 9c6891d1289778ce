// Package events contains the event kinds fired by the governance engine
// during casts and checkpoint computations, for off-chain indexing and audit.
// Every vote mutation carries full before/after state so an indexer can
// reconstruct the complete voting history from the event stream alone.
package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/stratafi/governance/voting/types"
)

const (
	// RateVoteChanged is sent after an interest rate ballot cast.
	RateVoteChanged = iota + 1
	// PoolVoteChanged is sent after a pool weight ballot cast.
	PoolVoteChanged
	// PoolAdded is sent when the registrar grows the pool registry.
	PoolAdded
	// WeightCheckpointed is sent when the controller finalizes a fund week.
	WeightCheckpointed
)

// Event wraps one governance occurrence for feed subscribers.
type Event struct {
	Type int
	Data interface{}
}

// RateVoteChangedData is the data sent with RateVoteChanged events.
type RateVoteChangedData struct {
	Voter common.Address
	// Previous is nil on a first cast.
	Previous *types.RateReceipt
	Current  *types.RateReceipt
	// CurrentValue is the WAD scalar of the newly chosen option.
	CurrentValue *uint256.Int
}

// PoolVoteChangedData is the data sent with PoolVoteChanged events.
type PoolVoteChangedData struct {
	Voter common.Address
	// Previous is nil on a first cast.
	Previous *types.PoolReceipt
	Current  *types.PoolReceipt
}

// PoolAddedData is the data sent with PoolAdded events.
type PoolAddedData struct {
	Pool common.Address
	// Index is the pool's position in the append-only registry.
	Index uint64
}

// WeightCheckpointedData is the data sent with WeightCheckpointed events.
type WeightCheckpointedData struct {
	Fund common.Address
	// Week is the week-aligned timestamp of the checkpoint.
	Week uint64
	// Weight is the stored smoothed relative weight, WAD scaled.
	Weight *uint256.Int
}
