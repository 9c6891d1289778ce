package kv

import (
	"context"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/stratafi/governance/voting/types"
)

// Receipts use a compact fixed-width binary layout:
//
//   rate receipt: amount(32) || unlockTime(8) || option(8)
//   pool receipt: amount(32) || unlockTime(8) || count(8) || count*weight(32)

func encodeRateReceipt(r *types.RateReceipt) []byte {
	out := make([]byte, 48)
	amt := r.Amount.Bytes32()
	copy(out[:32], amt[:])
	binary.BigEndian.PutUint64(out[32:40], r.UnlockTime)
	binary.BigEndian.PutUint64(out[40:48], r.Option)
	return out
}

func decodeRateReceipt(enc []byte) (*types.RateReceipt, error) {
	if len(enc) != 48 {
		return nil, errors.Errorf("malformed rate receipt of %d bytes", len(enc))
	}
	return &types.RateReceipt{
		Amount:     new(uint256.Int).SetBytes(enc[:32]),
		UnlockTime: binary.BigEndian.Uint64(enc[32:40]),
		Option:     binary.BigEndian.Uint64(enc[40:48]),
	}, nil
}

func encodePoolReceipt(r *types.PoolReceipt) []byte {
	out := make([]byte, 48+32*len(r.Weights))
	amt := r.Amount.Bytes32()
	copy(out[:32], amt[:])
	binary.BigEndian.PutUint64(out[32:40], r.UnlockTime)
	binary.BigEndian.PutUint64(out[40:48], uint64(len(r.Weights)))
	for i, w := range r.Weights {
		wb := w.Bytes32()
		copy(out[48+32*i:], wb[:])
	}
	return out
}

func decodePoolReceipt(enc []byte) (*types.PoolReceipt, error) {
	if len(enc) < 48 {
		return nil, errors.Errorf("malformed pool receipt of %d bytes", len(enc))
	}
	count := binary.BigEndian.Uint64(enc[40:48])
	if uint64(len(enc)) != 48+32*count {
		return nil, errors.Errorf("pool receipt length %d does not match weight count %d", len(enc), count)
	}
	r := &types.PoolReceipt{
		Amount:     new(uint256.Int).SetBytes(enc[:32]),
		UnlockTime: binary.BigEndian.Uint64(enc[32:40]),
		Weights:    make([]*uint256.Int, count),
	}
	for i := uint64(0); i < count; i++ {
		r.Weights[i] = new(uint256.Int).SetBytes(enc[48+32*i : 80+32*i])
	}
	return r, nil
}

// SaveRateReceipt overwrites the voter's interest rate receipt.
func (s *Store) SaveRateReceipt(_ context.Context, voter common.Address, receipt *types.RateReceipt) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(rateReceiptsBucket).Put(voter.Bytes(), encodeRateReceipt(receipt))
	})
}

// RateReceipts returns every stored interest rate receipt by voter.
func (s *Store) RateReceipts(_ context.Context) (map[common.Address]*types.RateReceipt, error) {
	receipts := make(map[common.Address]*types.RateReceipt)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(rateReceiptsBucket).ForEach(func(k, v []byte) error {
			r, err := decodeRateReceipt(v)
			if err != nil {
				return err
			}
			receipts[common.BytesToAddress(k)] = r
			return nil
		})
	})
	return receipts, err
}

// SavePoolReceipt overwrites the voter's pool weight receipt.
func (s *Store) SavePoolReceipt(_ context.Context, voter common.Address, receipt *types.PoolReceipt) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(poolReceiptsBucket).Put(voter.Bytes(), encodePoolReceipt(receipt))
	})
}

// PoolReceipts returns every stored pool weight receipt by voter.
func (s *Store) PoolReceipts(_ context.Context) (map[common.Address]*types.PoolReceipt, error) {
	receipts := make(map[common.Address]*types.PoolReceipt)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(poolReceiptsBucket).ForEach(func(k, v []byte) error {
			r, err := decodePoolReceipt(v)
			if err != nil {
				return err
			}
			receipts[common.BytesToAddress(k)] = r
			return nil
		})
	})
	return receipts, err
}

// SavePools stores the pool registry snapshot.
func (s *Store) SavePools(_ context.Context, pools []common.Address) error {
	enc := make([]byte, 20*len(pools))
	for i, p := range pools {
		copy(enc[20*i:], p.Bytes())
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metadataBucket).Put(poolRegistryKey, enc)
	})
}

// Pools returns the stored pool registry in registration order.
func (s *Store) Pools(_ context.Context) ([]common.Address, error) {
	var pools []common.Address
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(metadataBucket).Get(poolRegistryKey)
		if len(enc)%20 != 0 {
			return errors.Errorf("malformed pool registry of %d bytes", len(enc))
		}
		for i := 0; i < len(enc); i += 20 {
			pools = append(pools, common.BytesToAddress(enc[i:i+20]))
		}
		return nil
	})
	return pools, err
}
