package client

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/woonieit/octra/pkg/tx"
)

// Plan is a validated set of transfers waiting for confirmation.
type Plan struct {
	From       string
	Recipients []tx.Recipient
	Total      decimal.Decimal
	Fee        decimal.Decimal
	Balance    decimal.Decimal
	// StartNonce is the nonce of the first transfer; the following ones use
	// consecutive nonces in recipient order.
	StartNonce uint64
}

// Result is the outcome of one transfer of a plan.
type Result struct {
	Index     int
	Recipient tx.Recipient
	Nonce     uint64
	Hash      string
	Elapsed   time.Duration
	PoolSize  *uint64
	Err       error
}

// OK reports whether the node accepted the transfer.
func (r Result) OK() bool { return r.Err == nil }

// Summary aggregates the results of a plan.
type Summary struct {
	Results   []Result
	Succeeded int
	Failed    int
	// Sent is the amount of the accepted transfers.
	Sent decimal.Decimal
}

// PrepareSend validates a single transfer against a fresh account status.
func (c *Client) PrepareSend(ctx context.Context, to string, amount decimal.Decimal) (*Plan, error) {
	if err := tx.ValidateAddress(to); err != nil {
		return nil, err
	}
	if err := tx.ValidateAmount(amount); err != nil {
		return nil, err
	}
	return c.PrepareMulti(ctx, []tx.Recipient{{Address: to, Amount: amount}})
}

// PrepareMulti validates a batch of transfers against a fresh account status.
func (c *Client) PrepareMulti(ctx context.Context, recipients []tx.Recipient) (*Plan, error) {
	if len(recipients) == 0 {
		return nil, ErrNothingToSend
	}

	fee := decimal.Zero
	for _, r := range recipients {
		if err := tx.ValidateAddress(r.Address); err != nil {
			return nil, err
		}
		if err := tx.ValidateAmount(r.Amount); err != nil {
			return nil, err
		}
		fee = fee.Add(tx.Fee(r.Amount))
	}
	total := tx.Total(recipients)

	st, err := c.Status(ctx, true)
	if err != nil {
		return nil, err
	}
	if !st.Balance.IsPositive() || st.Balance.LessThan(total) {
		return nil, fmt.Errorf("%w: %s < %s", ErrInsufficientBalance, tx.FormatOCT(st.Balance), total.String())
	}

	return &Plan{
		From:       c.wallet.Address,
		Recipients: recipients,
		Total:      total,
		Fee:        fee,
		Balance:    st.Balance,
		StartNonce: st.Nonce + 1,
	}, nil
}

// Execute signs and submits the plan. Transfers are sent in batches of the
// configured size, the transfers of one batch concurrently. progress, when
// not nil, receives every result in recipient order once its batch is done.
func (c *Client) Execute(ctx context.Context, plan *Plan, progress func(Result)) (Summary, error) {
	signed := make([]tx.Signed, len(plan.Recipients))
	for i, r := range plan.Recipients {
		t, err := tx.Build(plan.From, r.Address, r.Amount, plan.StartNonce+uint64(i), c.now())
		if err != nil {
			return Summary{}, err
		}
		if signed[i], err = tx.Sign(t, c.wallet.Signer); err != nil {
			return Summary{}, err
		}
	}

	summary := Summary{Results: make([]Result, len(signed)), Sent: decimal.Zero}
	var accepted []Entry

	for start := 0; start < len(signed); start += c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(signed))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				summary.Results[i] = c.submit(ctx, i, plan.Recipients[i], signed[i])
				return nil
			})
		}
		_ = g.Wait()

		for i := start; i < end; i++ {
			res := summary.Results[i]
			if res.OK() {
				summary.Succeeded++
				summary.Sent = summary.Sent.Add(res.Recipient.Amount)
				accepted = append(accepted, Entry{
					Time:      c.now(),
					Hash:      res.Hash,
					Amount:    res.Recipient.Amount,
					Peer:      res.Recipient.Address,
					Direction: DirectionOut,
					OK:        true,
					Nonce:     res.Nonce,
				})
			} else {
				summary.Failed++
			}
			if progress != nil {
				progress(res)
			}
		}
	}

	c.recordSent(accepted...)
	if summary.Succeeded > 0 {
		c.invalidateStatus()
	}
	c.logger(ctx).Info("transfers submitted", "succeeded", summary.Succeeded, "failed", summary.Failed)
	return summary, nil
}

func (c *Client) submit(ctx context.Context, index int, r tx.Recipient, t tx.Signed) Result {
	res := Result{Index: index, Recipient: r, Nonce: t.Nonce}

	sent, err := c.node.SendTransaction(ctx, t)
	if err != nil {
		c.logger(ctx).Warn("transfer failed", "to", r.Address, "nonce", t.Nonce, "error", err)
		res.Err = err
		return res
	}

	res.Hash = sent.Hash
	if res.Hash == "" {
		res.Hash = t.Hash
	}
	res.Elapsed = sent.Elapsed
	res.PoolSize = sent.PoolSize
	return res
}

// Send transfers amount OCT to a single address.
func (c *Client) Send(ctx context.Context, to string, amount decimal.Decimal) (Result, error) {
	plan, err := c.PrepareSend(ctx, to, amount)
	if err != nil {
		return Result{}, err
	}
	summary, err := c.Execute(ctx, plan, nil)
	if err != nil {
		return Result{}, err
	}
	res := summary.Results[0]
	return res, res.Err
}

// MultiSend transfers to every recipient, reporting each result to progress.
func (c *Client) MultiSend(ctx context.Context, recipients []tx.Recipient, progress func(Result)) (Summary, error) {
	plan, err := c.PrepareMulti(ctx, recipients)
	if err != nil {
		return Summary{}, err
	}
	return c.Execute(ctx, plan, progress)
}
