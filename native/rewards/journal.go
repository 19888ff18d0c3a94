package rewards

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"lendrewards/core/events"
)

type checkpointKey struct {
	stream  StreamKey
	account common.Address
}

type accruedKey struct {
	kind    Kind
	account common.Address
}

// accruedEntry is applied to the stored balance at commit as
// stored + delta - debit, so journals from different markets compose.
type accruedEntry struct {
	delta *uint256.Int
	debit *uint256.Int
}

// journal buffers the writes of a single engine call on top of a reader.
// Nothing reaches storage until the store commits it, so a failing call
// leaves no partial accrual behind. Query paths build a journal and drop it.
type journal struct {
	base        stateReader
	states      map[StreamKey]*RewardState
	speeds      map[StreamKey]*uint256.Int
	checkpoints map[checkpointKey]*uint256.Int
	accrued     map[accruedKey]*accruedEntry
	newMarkets  map[common.Address]struct{}
	// pending holds events released only after a successful commit.
	pending []events.Event
}

func newJournal(base stateReader) *journal {
	return &journal{
		base:        base,
		states:      make(map[StreamKey]*RewardState),
		speeds:      make(map[StreamKey]*uint256.Int),
		checkpoints: make(map[checkpointKey]*uint256.Int),
		accrued:     make(map[accruedKey]*accruedEntry),
		newMarkets:  make(map[common.Address]struct{}),
	}
}

func (j *journal) empty() bool {
	return len(j.states) == 0 && len(j.speeds) == 0 && len(j.checkpoints) == 0 &&
		len(j.accrued) == 0 && len(j.newMarkets) == 0
}

func (j *journal) RewardState(key StreamKey) (*RewardState, bool, error) {
	if st, ok := j.states[key]; ok {
		return st.Clone(), true, nil
	}
	return j.base.RewardState(key)
}

func (j *journal) setRewardState(key StreamKey, st *RewardState) {
	j.states[key] = st.Clone()
}

func (j *journal) Speed(key StreamKey) (*uint256.Int, error) {
	if speed, ok := j.speeds[key]; ok {
		return new(uint256.Int).Set(speed), nil
	}
	return j.base.Speed(key)
}

func (j *journal) setSpeed(key StreamKey, speed *uint256.Int) {
	j.speeds[key] = cloneOrZero(speed)
}

func (j *journal) Checkpoint(key StreamKey, account common.Address) (*uint256.Int, bool, error) {
	if index, ok := j.checkpoints[checkpointKey{stream: key, account: account}]; ok {
		return new(uint256.Int).Set(index), true, nil
	}
	return j.base.Checkpoint(key, account)
}

func (j *journal) setCheckpoint(key StreamKey, account common.Address, index *uint256.Int) {
	j.checkpoints[checkpointKey{stream: key, account: account}] = cloneOrZero(index)
}

func (j *journal) Accrued(kind Kind, account common.Address) (*uint256.Int, error) {
	entry, ok := j.accrued[accruedKey{kind: kind, account: account}]
	base, err := j.base.Accrued(kind, account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return base, nil
	}
	return entry.apply(base)
}

func (e *accruedEntry) apply(base *uint256.Int) (*uint256.Int, error) {
	sum, err := addChecked(base, e.delta)
	if err != nil {
		return nil, err
	}
	return subChecked(sum, e.debit)
}

func (j *journal) accruedEntry(kind Kind, account common.Address) *accruedEntry {
	key := accruedKey{kind: kind, account: account}
	entry, ok := j.accrued[key]
	if !ok {
		entry = &accruedEntry{delta: zero(), debit: zero()}
		j.accrued[key] = entry
	}
	return entry
}

func (j *journal) addAccrued(kind Kind, account common.Address, amount *uint256.Int) error {
	entry := j.accruedEntry(kind, account)
	sum, err := addChecked(entry.delta, amount)
	if err != nil {
		return err
	}
	entry.delta = sum
	return nil
}

// debitAccrued records a payout. The debit is subtracted from whatever
// balance is stored when the journal commits, never written as an absolute.
func (j *journal) debitAccrued(kind Kind, account common.Address, amount *uint256.Int) error {
	entry := j.accruedEntry(kind, account)
	sum, err := addChecked(entry.debit, amount)
	if err != nil {
		return err
	}
	entry.debit = sum
	return nil
}

func (j *journal) Markets() ([]common.Address, error) {
	markets, err := j.base.Markets()
	if err != nil {
		return nil, err
	}
	if len(j.newMarkets) == 0 {
		return markets, nil
	}
	return mergeMarkets(markets, j.newMarkets), nil
}

func (j *journal) addMarket(market common.Address) {
	j.newMarkets[market] = struct{}{}
}

func (j *journal) emit(e events.Event) {
	j.pending = append(j.pending, e)
}
