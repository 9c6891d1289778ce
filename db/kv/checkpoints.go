package kv

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	bolt "go.etcd.io/bbolt"
)

// RelativeWeight returns the stored checkpoint for the fund and week, or
// ErrNotFound.
func (s *Store) RelativeWeight(_ context.Context, fund common.Address, week uint64) (*uint256.Int, error) {
	var weight *uint256.Int
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(relativeWeightsBucket).Get(fundWeekKey(fund, week))
		if enc == nil {
			return ErrNotFound
		}
		weight = new(uint256.Int).SetBytes(enc)
		return nil
	})
	return weight, err
}

// HasRelativeWeight returns true if a checkpoint exists for the fund and week.
func (s *Store) HasRelativeWeight(_ context.Context, fund common.Address, week uint64) (bool, error) {
	var exists bool
	err := s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(relativeWeightsBucket).Get(fundWeekKey(fund, week)) != nil
		return nil
	})
	return exists, err
}

// SaveRelativeWeight stores a finalized checkpoint.
func (s *Store) SaveRelativeWeight(_ context.Context, fund common.Address, week uint64, weight *uint256.Int) error {
	b := weight.Bytes32()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(relativeWeightsBucket).Put(fundWeekKey(fund, week), b[:])
	})
}
