package bank

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"lendrewards/native/rewards"
	"lendrewards/storage"
)

const (
	reserveKeyFormat = "bank/reserve/%d"
	balanceKeyFormat = "bank/balance/%d/%s"
)

var (
	errNilDatabase   = errors.New("bank: database not configured")
	errInvalidAmount = errors.New("bank: amount must be positive")
)

// Treasury holds the reward token reserves paid out by the distributor and
// the balances credited to claimants.
type Treasury struct {
	mu sync.Mutex
	db storage.Database
}

// NewTreasury binds a treasury to db.
func NewTreasury(db storage.Database) (*Treasury, error) {
	if db == nil {
		return nil, errNilDatabase
	}
	return &Treasury{db: db}, nil
}

// Fund adds amount of kind to the distributor reserve.
func (t *Treasury) Fund(kind rewards.Kind, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return errInvalidAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	key := reserveKey(kind)
	current, err := t.load(key)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow {
		return fmt.Errorf("bank: reserve overflow for kind %d", kind)
	}
	batch := t.db.NewBatch()
	if err := putAmount(batch, key, next); err != nil {
		return err
	}
	return batch.Write()
}

// Balance returns the distributor reserve of kind.
func (t *Treasury) Balance(kind rewards.Kind) (*uint256.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load(reserveKey(kind))
}

// BalanceOf returns the amount of kind credited to account by claims.
func (t *Treasury) BalanceOf(kind rewards.Kind, account common.Address) (*uint256.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load(balanceKey(kind, account))
}

// Transfer debits the reserve and credits to in a single batch.
func (t *Treasury) Transfer(kind rewards.Kind, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return errInvalidAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	reserve, err := t.load(reserveKey(kind))
	if err != nil {
		return err
	}
	if reserve.Lt(amount) {
		return fmt.Errorf("%w: reserve %s below %s", rewards.ErrInsufficientRewardTokenBalance, reserve.Dec(), amount.Dec())
	}
	balance, err := t.load(balanceKey(kind, to))
	if err != nil {
		return err
	}
	credited, overflow := new(uint256.Int).AddOverflow(balance, amount)
	if overflow {
		return fmt.Errorf("bank: balance overflow for %s", to.Hex())
	}
	batch := t.db.NewBatch()
	if err := putAmount(batch, reserveKey(kind), new(uint256.Int).Sub(reserve, amount)); err != nil {
		return err
	}
	if err := putAmount(batch, balanceKey(kind, to), credited); err != nil {
		return err
	}
	return batch.Write()
}

func (t *Treasury) load(key []byte) (*uint256.Int, error) {
	data, err := t.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	var raw []byte
	if err := rlp.DecodeBytes(data, &raw); err != nil {
		return nil, fmt.Errorf("bank: decode %s: %w", key, err)
	}
	return new(uint256.Int).SetBytes(raw), nil
}

func putAmount(batch storage.Batch, key []byte, value *uint256.Int) error {
	encoded, err := rlp.EncodeToBytes(value.Bytes())
	if err != nil {
		return err
	}
	batch.Put(key, encoded)
	return nil
}

func reserveKey(kind rewards.Kind) []byte {
	return []byte(fmt.Sprintf(reserveKeyFormat, kind))
}

func balanceKey(kind rewards.Kind, account common.Address) []byte {
	return []byte(fmt.Sprintf(balanceKeyFormat, kind, account.Hex()))
}
