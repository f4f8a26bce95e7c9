// Package transferrepo manages repository layer of transfers.
package transferrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/go-petr/lynx-wire/internal/domain"
	"github.com/rs/zerolog"
)

type entry struct {
	mu  sync.RWMutex
	seq int
	t   domain.Transfer
}

// RepoMem facilitates transfer repository layer logic.
//
// The registry lock only guards the id index. Each transfer has its own lock,
// so readers of one transfer never wait on updates of another.
type RepoMem struct {
	mu        sync.RWMutex
	transfers map[string]*entry
	seq       int
}

// NewRepoMem returns an empty transfer registry.
func NewRepoMem() *RepoMem {
	return &RepoMem{
		transfers: make(map[string]*entry),
	}
}

// Add registers the transfer under its id.
func (r *RepoMem) Add(ctx context.Context, t domain.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.transfers[t.ID]; ok {
		zerolog.Ctx(ctx).Error().Str("transfer_id", t.ID).Err(domain.ErrTransferExists).Send()
		return domain.ErrTransferExists
	}

	r.seq++
	r.transfers[t.ID] = &entry{seq: r.seq, t: t.Clone()}

	return nil
}

func (r *RepoMem) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.transfers[id]
	if !ok {
		return nil, domain.ErrTransferNotFound
	}

	return e, nil
}

// Get returns a copy of the transfer with the given id.
func (r *RepoMem) Get(ctx context.Context, id string) (domain.Transfer, error) {
	e, err := r.lookup(id)
	if err != nil {
		return domain.Transfer{}, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.t.Clone(), nil
}

// List returns the summaries of all transfers, most recent first. Transfers
// created at the same instant are ordered by reverse registration order.
func (r *RepoMem) List(ctx context.Context) ([]domain.TransferSummary, error) {
	r.mu.RLock()
	all := make([]*entry, 0, len(r.transfers))
	for _, e := range r.transfers {
		all = append(all, e)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].seq > all[j].seq })

	res := make([]domain.TransferSummary, 0, len(all))
	for _, e := range all {
		e.mu.RLock()
		res = append(res, e.t.Summary())
		e.mu.RUnlock()
	}

	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })

	return res, nil
}

// Update applies fn to a copy of the transfer and publishes the copy when fn
// succeeds. Concurrent readers observe either the previous or the updated
// transfer. Terminal transfers are never updated.
func (r *RepoMem) Update(ctx context.Context, id string, fn func(t *domain.Transfer) error) (domain.Transfer, error) {
	e, err := r.lookup(id)
	if err != nil {
		return domain.Transfer{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.t.Status.IsTerminal() {
		return e.t.Clone(), domain.ErrTerminalTransfer
	}

	next := e.t.Clone()
	if err := fn(&next); err != nil {
		return e.t.Clone(), err
	}

	e.t = next

	return next.Clone(), nil
}
