package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/woonieit/octra/pkg/rpc"
)

// Status is the account state as last seen on the node.
type Status struct {
	// Nonce is the highest nonce used by the account, including staged
	// transactions.
	Nonce   uint64
	Balance decimal.Decimal
	// Pending counts the account's transactions in the staging pool.
	Pending   int
	UpdatedAt time.Time
}

// Status returns the account state, served from cache while it is younger
// than the status TTL unless force is set. When the node cannot be reached
// the last known state is returned.
func (c *Client) Status(ctx context.Context, force bool) (Status, error) {
	c.mu.Lock()
	if !force && c.status != nil && c.now().Sub(c.statusAt) < c.cfg.StatusTTL {
		st := *c.status
		c.mu.Unlock()
		return st, nil
	}
	c.mu.Unlock()

	var (
		g          errgroup.Group
		balance    rpc.Balance
		staging    rpc.Staging
		stagingErr error
	)
	g.Go(func() error {
		var err error
		balance, err = c.node.GetBalance(ctx, c.wallet.Address)
		return err
	})
	g.Go(func() error {
		staging, stagingErr = c.node.GetStaging(ctx)
		return nil
	})
	balanceErr := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	st := Status{UpdatedAt: now}
	switch {
	case balanceErr == nil:
		st.Nonce = uint64(balance.Nonce)
		st.Balance = balance.Balance
	case errors.Is(balanceErr, rpc.ErrNotFound):
		st.Balance = decimal.Zero
	default:
		if c.status != nil {
			c.logger(ctx).Warn("failed to refresh status, using cached", "error", balanceErr)
			return *c.status, nil
		}
		return Status{}, fmt.Errorf("%w: %w", ErrNonceUnavailable, balanceErr)
	}

	if stagingErr != nil {
		c.logger(ctx).Debug("failed to fetch staging", "error", stagingErr)
	} else {
		own := staging.From(c.wallet.Address)
		st.Pending = len(own)
		for _, t := range own {
			st.Nonce = max(st.Nonce, uint64(t.Nonce))
		}
	}

	c.status = &st
	c.statusAt = now
	return st, nil
}

// Staged returns this account's transactions waiting in the staging pool.
func (c *Client) Staged(ctx context.Context) ([]rpc.StagedTx, error) {
	staging, err := c.node.GetStaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch staging: %w", err)
	}
	return staging.From(c.wallet.Address), nil
}

// invalidateStatus forces the next Status call to hit the node.
func (c *Client) invalidateStatus() {
	c.mu.Lock()
	c.statusAt = time.Time{}
	c.mu.Unlock()
}
