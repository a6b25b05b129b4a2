package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/woonieit/octra/pkg/rpc"
	"github.com/woonieit/octra/storage"
)

// Direction of a transfer relative to the wallet.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Entry is one transfer in the wallet history.
type Entry struct {
	Time      time.Time
	Hash      string
	Amount    decimal.Decimal
	Peer      string
	Direction Direction
	OK        bool
	Nonce     uint64
	Epoch     uint64
}

// Pending reports whether the transfer has not been included in an epoch yet.
func (e Entry) Pending() bool { return e.Epoch == 0 }

// History returns recent transfers, newest first. Results are cached for the
// history TTL unless force is set. If the node cannot be queried the cached
// entries are returned together with the error.
func (c *Client) History(ctx context.Context, force bool) ([]Entry, error) {
	c.mu.Lock()
	if !force && len(c.history) > 0 && c.now().Sub(c.historyAt) < c.cfg.HistoryTTL {
		entries := c.historyCopy()
		c.mu.Unlock()
		return entries, nil
	}
	known := make(map[string]struct{}, len(c.history))
	for _, e := range c.history {
		known[e.Hash] = struct{}{}
	}
	c.mu.Unlock()

	info, err := c.node.GetAddress(ctx, c.wallet.Address, c.cfg.HistoryLimit)
	if errors.Is(err, rpc.ErrNotFound) {
		c.logger(ctx).Debug("no transactions on node, clearing history")
		if err := c.ClearHistory(); err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.historyAt = c.now()
		c.mu.Unlock()
		return nil, nil
	}
	if err != nil {
		c.mu.Lock()
		entries := c.historyCopy()
		c.mu.Unlock()
		return entries, fmt.Errorf("failed to fetch address history: %w", err)
	}

	var missing []rpc.TxRef
	for _, ref := range info.RecentTransactions {
		if _, ok := known[ref.Hash]; !ok {
			missing = append(missing, ref)
		}
	}
	fetched := c.fetchEntries(ctx, missing)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.history = mergeHistory(c.history, fetched, info.RecentTransactions, now.Add(-HistoryWindow))
	c.historyAt = now
	c.persistHistory()
	return c.historyCopy(), nil
}

// fetchEntries looks up the referenced transactions concurrently. Lookups
// that fail are skipped.
func (c *Client) fetchEntries(ctx context.Context, refs []rpc.TxRef) []Entry {
	results := make([]*Entry, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.FetchParallelism)
	for i, ref := range refs {
		g.Go(func() error {
			info, err := c.node.GetTransaction(gctx, ref.Hash)
			if err != nil {
				c.logger(ctx).Debug("failed to fetch transaction", "hash", ref.Hash, "error", err)
				return nil
			}
			entry := c.entryFromTx(ref, info.ParsedTx)
			results[i] = &entry
			return nil
		})
	}
	_ = g.Wait()

	var entries []Entry
	for _, e := range results {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	return entries
}

func (c *Client) entryFromTx(ref rpc.TxRef, p rpc.ParsedTx) Entry {
	amount, err := p.AmountOCT()
	if err != nil {
		c.lg.Debug("unreadable transaction amount", "hash", ref.Hash, "error", err)
		amount = decimal.Zero
	}

	entry := Entry{
		Time:      p.Time(),
		Hash:      ref.Hash,
		Amount:    amount,
		Peer:      p.To,
		Direction: DirectionOut,
		OK:        true,
		Nonce:     uint64(p.Nonce),
		Epoch:     uint64(ref.Epoch),
	}
	if p.To == c.wallet.Address {
		entry.Direction = DirectionIn
		entry.Peer = p.From
	}
	return entry
}

// mergeHistory combines freshly fetched entries with known ones. Known
// entries survive while they are still listed by the node or newer than
// cutoff; listed entries pick up their current epoch. The result is sorted
// newest first, unique by hash and capped at MaxHistory.
func mergeHistory(known, fetched []Entry, refs []rpc.TxRef, cutoff time.Time) []Entry {
	epochs := make(map[string]uint64, len(refs))
	for _, ref := range refs {
		epochs[ref.Hash] = uint64(ref.Epoch)
	}

	merged := make([]Entry, 0, len(known)+len(fetched))
	merged = append(merged, fetched...)
	for _, e := range known {
		epoch, listed := epochs[e.Hash]
		if !listed && !e.Time.After(cutoff) {
			continue
		}
		if listed && epoch > 0 {
			e.Epoch = epoch
		}
		merged = append(merged, e)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Time.After(merged[j].Time)
	})

	seen := make(map[string]struct{}, len(merged))
	out := merged[:0]
	for _, e := range merged {
		if _, dup := seen[e.Hash]; dup {
			continue
		}
		seen[e.Hash] = struct{}{}
		out = append(out, e)
		if len(out) == MaxHistory {
			break
		}
	}
	return out
}

// ClearHistory forgets all known transfers, including persisted ones.
func (c *Client) ClearHistory() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = nil
	c.historyAt = time.Time{}
	if c.store != nil {
		if err := c.store.DeleteHistory(c.wallet.Address); err != nil {
			return fmt.Errorf("failed to clear stored history: %w", err)
		}
	}
	return nil
}

// recordSent adds transfers that were just accepted by the node. The cache
// is marked stale so the next History call reconciles with the node.
func (c *Client) recordSent(entries ...Entry) {
	if len(entries) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = mergeHistory(c.history, entries, nil, c.now().Add(-HistoryWindow))
	c.historyAt = time.Time{}
	c.persistHistory()
}

// persistHistory replaces the stored history with the cache. Callers hold mu.
func (c *Client) persistHistory() {
	if c.store == nil {
		return
	}
	if err := c.store.DeleteHistory(c.wallet.Address); err != nil {
		c.lg.Warn("failed to persist history", "error", err)
		return
	}
	dtos := make([]storage.HistoryEntryDTO, 0, len(c.history))
	for _, e := range c.history {
		dtos = append(dtos, entryToDTO(c.wallet.Address, e))
	}
	if err := c.store.SaveHistory(dtos...); err != nil {
		c.lg.Warn("failed to persist history", "error", err)
	}
}

// historyCopy returns a copy of the cache. Callers hold mu.
func (c *Client) historyCopy() []Entry {
	if len(c.history) == 0 {
		return nil
	}
	out := make([]Entry, len(c.history))
	copy(out, c.history)
	return out
}

func entryToDTO(owner string, e Entry) storage.HistoryEntryDTO {
	return storage.HistoryEntryDTO{
		Owner:     owner,
		Hash:      e.Hash,
		Time:      e.Time.UTC(),
		Amount:    e.Amount,
		Peer:      e.Peer,
		Direction: string(e.Direction),
		OK:        e.OK,
		Nonce:     e.Nonce,
		Epoch:     e.Epoch,
	}
}

func entryFromDTO(dto storage.HistoryEntryDTO) Entry {
	return Entry{
		Time:      dto.Time,
		Hash:      dto.Hash,
		Amount:    dto.Amount,
		Peer:      dto.Peer,
		Direction: Direction(dto.Direction),
		OK:        dto.OK,
		Nonce:     dto.Nonce,
		Epoch:     dto.Epoch,
	}
}
