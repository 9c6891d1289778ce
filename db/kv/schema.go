package kv

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

// The schema below defines how governance data is keyed in the kv-store.
//
// relative-weights:   fund address || big endian week -> WAD weight bytes
// rate-receipts:      voter address -> encoded receipt
// pool-receipts:      voter address -> encoded receipt
// governance-meta:    pool registry under a fixed key
var (
	relativeWeightsBucket = []byte("relative-weights")
	rateReceiptsBucket    = []byte("rate-receipts")
	poolReceiptsBucket    = []byte("pool-receipts")
	metadataBucket        = []byte("governance-meta")

	poolRegistryKey = []byte("pool-registry")
)

// encodeWeek encodes a week-aligned timestamp as big endian uint64, so bolt's
// byte-ordered iteration walks weeks chronologically.
func encodeWeek(week uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, week)
	return enc
}

// fundWeekKey keys a checkpoint by fund address and week.
func fundWeekKey(fund common.Address, week uint64) []byte {
	return append(fund.Bytes(), encodeWeek(week)...)
}
