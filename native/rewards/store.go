package rewards

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"lendrewards/storage"
)

const (
	keyPrefixFormat     = "rewards/v%d/"
	marketsKeySuffix    = "markets"
	frozenKeySuffix     = "frozen"
	pausedKeySuffix     = "paused"
	stateKeyFormat      = "state/%s/%d/%d"
	speedKeyFormat      = "speed/%s/%d/%d"
	checkpointKeyFormat = "checkpoint/%s/%d/%d/%s"
	accruedKeyFormat    = "accrued/%d/%s"
)

// stateReader is the read half of the engine state. Both the persistent
// Store and the per-call journal implement it.
type stateReader interface {
	RewardState(key StreamKey) (*RewardState, bool, error)
	Speed(key StreamKey) (*uint256.Int, error)
	Checkpoint(key StreamKey, account common.Address) (*uint256.Int, bool, error)
	Accrued(kind Kind, account common.Address) (*uint256.Int, error)
	Markets() ([]common.Address, error)
}

// Store persists reward state in a key-value database. Every key is
// namespaced by the engine version so successive engine instances never
// observe each other's accruals.
type Store struct {
	db      storage.Database
	version uint32
	prefix  string
}

// NewStore binds a store to the namespace of the supplied engine version.
func NewStore(db storage.Database, version uint32) *Store {
	return &Store{db: db, version: version, prefix: fmt.Sprintf(keyPrefixFormat, version)}
}

// NewMemStore returns a store backed by a fresh in-memory database.
func NewMemStore() *Store {
	return NewStore(storage.NewMemDB(), 1)
}

// Version returns the engine version this store is bound to.
func (s *Store) Version() uint32 { return s.version }

// Database exposes the backing database, used when migrating to a new
// version on the same storage.
func (s *Store) Database() storage.Database { return s.db }

type storedState struct {
	Index []byte
	Tick  uint64
}

func (s *Store) key(format string, args ...interface{}) []byte {
	return []byte(s.prefix + fmt.Sprintf(format, args...))
}

func (s *Store) stateKey(key StreamKey) []byte {
	return s.key(stateKeyFormat, key.Market.Hex(), key.Kind, key.Side)
}

func (s *Store) speedKey(key StreamKey) []byte {
	return s.key(speedKeyFormat, key.Market.Hex(), key.Kind, key.Side)
}

func (s *Store) checkpointKey(key StreamKey, account common.Address) []byte {
	return s.key(checkpointKeyFormat, key.Market.Hex(), key.Kind, key.Side, account.Hex())
}

func (s *Store) accruedKey(kind Kind, account common.Address) []byte {
	return s.key(accruedKeyFormat, kind, account.Hex())
}

func (s *Store) marketsKey() []byte {
	return []byte(s.prefix + marketsKeySuffix)
}

func (s *Store) get(key []byte) ([]byte, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, errNilState
	}
	data, err := s.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *Store) getAmount(key []byte) (*uint256.Int, bool, error) {
	data, ok, err := s.get(key)
	if err != nil || !ok {
		return zero(), ok, err
	}
	var raw []byte
	if err := rlp.DecodeBytes(data, &raw); err != nil {
		return nil, false, fmt.Errorf("rewards: decode %s: %w", key, err)
	}
	return new(uint256.Int).SetBytes(raw), true, nil
}

// RewardState returns the accumulator for a stream and whether it exists.
func (s *Store) RewardState(key StreamKey) (*RewardState, bool, error) {
	data, ok, err := s.get(s.stateKey(key))
	if err != nil || !ok {
		return nil, false, err
	}
	var stored storedState
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false, fmt.Errorf("rewards: decode state %s: %w", key, err)
	}
	return &RewardState{Index: new(uint256.Int).SetBytes(stored.Index), Tick: stored.Tick}, true, nil
}

// Speed returns the configured speed for a stream, zero when unset.
func (s *Store) Speed(key StreamKey) (*uint256.Int, error) {
	speed, _, err := s.getAmount(s.speedKey(key))
	return speed, err
}

// Checkpoint returns the index an account was last reconciled at.
func (s *Store) Checkpoint(key StreamKey, account common.Address) (*uint256.Int, bool, error) {
	return s.getAmount(s.checkpointKey(key, account))
}

// Accrued returns the unclaimed balance of an account for a reward kind.
func (s *Store) Accrued(kind Kind, account common.Address) (*uint256.Int, error) {
	amount, _, err := s.getAmount(s.accruedKey(kind, account))
	return amount, err
}

// Markets lists every market that has at least one initialised stream.
func (s *Store) Markets() ([]common.Address, error) {
	data, ok, err := s.get(s.marketsKey())
	if err != nil || !ok {
		return []common.Address{}, err
	}
	var markets []common.Address
	if err := rlp.DecodeBytes(data, &markets); err != nil {
		return nil, fmt.Errorf("rewards: decode markets: %w", err)
	}
	return markets, nil
}

// Empty reports whether no market has been registered in this namespace.
func (s *Store) Empty() (bool, error) {
	markets, err := s.Markets()
	if err != nil {
		return false, err
	}
	return len(markets) == 0, nil
}

// FrozenAt returns the tick at which this namespace stopped accruing, if
// the engine bound to it has been decommissioned.
func (s *Store) FrozenAt() (uint64, bool, error) {
	data, ok, err := s.get([]byte(s.prefix + frozenKeySuffix))
	if err != nil || !ok {
		return 0, false, err
	}
	var tick uint64
	if err := rlp.DecodeBytes(data, &tick); err != nil {
		return 0, false, fmt.Errorf("rewards: decode frozen tick: %w", err)
	}
	return tick, true, nil
}

func (s *Store) freeze(tick uint64) error {
	if s == nil || s.db == nil {
		return errNilState
	}
	encoded, err := rlp.EncodeToBytes(tick)
	if err != nil {
		return err
	}
	return s.db.Put([]byte(s.prefix+frozenKeySuffix), encoded)
}

// ClaimsPaused reports whether an admin pause is recorded in this namespace.
func (s *Store) ClaimsPaused() (bool, error) {
	_, ok, err := s.get([]byte(s.prefix + pausedKeySuffix))
	return ok, err
}

func (s *Store) setClaimsPaused(paused bool) error {
	if s == nil || s.db == nil {
		return errNilState
	}
	key := []byte(s.prefix + pausedKeySuffix)
	if !paused {
		return s.db.Delete(key)
	}
	encoded, err := rlp.EncodeToBytes(true)
	if err != nil {
		return err
	}
	return s.db.Put(key, encoded)
}

// commit writes the buffered journal in a single storage batch. Accrued
// deltas are applied on top of the persisted value so that concurrent
// commits from different markets compose.
func (s *Store) commit(j *journal) error {
	if s == nil || s.db == nil {
		return errNilState
	}
	if j == nil || j.empty() {
		return nil
	}
	batch := s.db.NewBatch()

	for key, st := range j.states {
		encoded, err := rlp.EncodeToBytes(storedState{Index: st.Index.Bytes(), Tick: st.Tick})
		if err != nil {
			return err
		}
		batch.Put(s.stateKey(key), encoded)
	}
	for key, speed := range j.speeds {
		if err := putAmount(batch, s.speedKey(key), speed); err != nil {
			return err
		}
	}
	for key, index := range j.checkpoints {
		if err := putAmount(batch, s.checkpointKey(key.stream, key.account), index); err != nil {
			return err
		}
	}
	for key, entry := range j.accrued {
		current, err := s.Accrued(key.kind, key.account)
		if err != nil {
			return err
		}
		value, err := entry.apply(current)
		if err != nil {
			return err
		}
		if err := putAmount(batch, s.accruedKey(key.kind, key.account), value); err != nil {
			return err
		}
	}
	if len(j.newMarkets) > 0 {
		markets, err := s.Markets()
		if err != nil {
			return err
		}
		merged := mergeMarkets(markets, j.newMarkets)
		encoded, err := rlp.EncodeToBytes(merged)
		if err != nil {
			return err
		}
		batch.Put(s.marketsKey(), encoded)
	}
	return batch.Write()
}

func putAmount(batch storage.Batch, key []byte, value *uint256.Int) error {
	encoded, err := rlp.EncodeToBytes(cloneOrZero(value).Bytes())
	if err != nil {
		return err
	}
	batch.Put(key, encoded)
	return nil
}

func mergeMarkets(existing []common.Address, added map[common.Address]struct{}) []common.Address {
	seen := make(map[common.Address]struct{}, len(existing)+len(added))
	out := make([]common.Address, 0, len(existing)+len(added))
	for _, market := range existing {
		if _, ok := seen[market]; ok {
			continue
		}
		seen[market] = struct{}{}
		out = append(out, market)
	}
	extra := make([]common.Address, 0, len(added))
	for market := range added {
		if _, ok := seen[market]; !ok {
			extra = append(extra, market)
		}
	}
	sortAddresses(extra)
	return append(out, extra...)
}

func sortAddresses(addrs []common.Address) {
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Cmp(addrs[j]) < 0
	})
}
