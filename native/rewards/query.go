package rewards

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ClaimableRewards returns what account could claim for kind right now. With
// a nil market every rewarded market is replayed, otherwise only the given
// one. The replay runs on a throwaway journal so nothing is persisted.
func (e *Engine) ClaimableRewards(kind Kind, market *common.Address, account common.Address) (*uint256.Int, error) {
	if err := e.validateStream(kind, SideSupply); err != nil {
		return nil, err
	}
	var markets []common.Address
	if market != nil {
		markets = []common.Address{*market}
	} else {
		all, err := e.store.Markets()
		if err != nil {
			return nil, err
		}
		markets = all
	}
	unlock := e.locks.lock(markets...)
	defer unlock()

	j := newJournal(e.store)
	now := e.now()
	for _, m := range markets {
		for _, side := range sides {
			key := StreamKey{Market: m, Kind: kind, Side: side}
			if err := e.updateIndex(j, key, now); err != nil {
				return nil, err
			}
			if _, err := e.distribute(j, key, account); err != nil {
				return nil, err
			}
		}
	}
	return j.Accrued(kind, account)
}
