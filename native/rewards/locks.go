package rewards

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// marketLocks serialises work per market. Multi-market callers acquire the
// locks in ascending address order so two claims can never deadlock.
type marketLocks struct {
	mu    sync.Mutex
	locks map[common.Address]*sync.Mutex
}

func (l *marketLocks) get(market common.Address) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[common.Address]*sync.Mutex)
	}
	m, ok := l.locks[market]
	if !ok {
		m = new(sync.Mutex)
		l.locks[market] = m
	}
	return m
}

func (l *marketLocks) lock(markets ...common.Address) func() {
	ordered := make([]common.Address, 0, len(markets))
	seen := make(map[common.Address]struct{}, len(markets))
	for _, market := range markets {
		if _, ok := seen[market]; ok {
			continue
		}
		seen[market] = struct{}{}
		ordered = append(ordered, market)
	}
	sortAddresses(ordered)
	held := make([]*sync.Mutex, 0, len(ordered))
	for _, market := range ordered {
		m := l.get(market)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
