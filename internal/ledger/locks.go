package ledger

import "sync"

// accountLocks hands out one mutex per account id so that each
// validate-then-mutate sequence runs without interleaving from another
// operation on the same account. Balance checks and debits are not
// atomic across concurrent callers without this.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*sync.Mutex)}
}

func (a *accountLocks) get(accountID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	l, ok := a.locks[accountID]
	if !ok {
		l = &sync.Mutex{}
		a.locks[accountID] = l
	}
	return l
}

// Lock acquires the per-account mutex and returns the unlock func.
func (s *Service) Lock(accountID string) func() {
	l := s.locks.get(accountID)
	l.Lock()
	return l.Unlock
}
