package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/woonieit/octra/pkg/tx"
)

// Uint64 decodes integers sent either as JSON numbers or as strings.
type Uint64 uint64

func (u *Uint64) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if s == "" || s == "null" {
		*u = 0
		return nil
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		*u = Uint64(v)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return fmt.Errorf("invalid unsigned integer %q", s)
	}
	*u = Uint64(f)
	return nil
}

// Balance is the answer of GET /balance/{address}. Balance is in OCT.
type Balance struct {
	Balance decimal.Decimal `json:"balance"`
	Nonce   Uint64          `json:"nonce"`
}

// StagedTx is a transaction waiting in the node's staging pool.
type StagedTx struct {
	Hash   string      `json:"hash,omitempty"`
	From   string      `json:"from"`
	To     string      `json:"to_"`
	Amount json.Number `json:"amount"`
	Nonce  Uint64      `json:"nonce"`
}

// Staging is the answer of GET /staging.
type Staging struct {
	Transactions []StagedTx `json:"staged_transactions"`
}

// From returns the staged transactions sent by address.
func (s Staging) From(address string) []StagedTx {
	var out []StagedTx
	for _, t := range s.Transactions {
		if t.From == address {
			out = append(out, t)
		}
	}
	return out
}

// TxRef points at a transaction in an address listing. A zero Epoch means
// the transaction is still pending.
type TxRef struct {
	Hash  string `json:"hash"`
	Epoch Uint64 `json:"epoch"`
}

// AddressInfo is the answer of GET /address/{address}.
type AddressInfo struct {
	Address            string  `json:"address"`
	RecentTransactions []TxRef `json:"recent_transactions"`
}

// ParsedTx is the decoded body of a transaction returned by GET /tx/{hash}.
type ParsedTx struct {
	From      string      `json:"from"`
	To        string      `json:"to"`
	Amount    json.Number `json:"amount"`
	AmountRaw json.Number `json:"amount_raw"`
	Nonce     Uint64      `json:"nonce"`
	Timestamp json.Number `json:"timestamp"`
}

// AmountOCT returns the transferred amount in OCT. amount_raw is preferred
// over amount when the node sends both.
func (p ParsedTx) AmountOCT() (decimal.Decimal, error) {
	raw := p.AmountRaw
	if raw == "" {
		raw = p.Amount
	}
	return tx.FromRaw(raw.String())
}

// Time returns the transaction timestamp. Unparseable timestamps yield the
// unix epoch.
func (p ParsedTx) Time() time.Time {
	f, err := p.Timestamp.Float64()
	if err != nil {
		return time.Unix(0, 0)
	}
	return tx.Timestamp(f).Time()
}

// TxInfo is the answer of GET /tx/{hash}.
type TxInfo struct {
	Hash     string   `json:"-"`
	ParsedTx ParsedTx `json:"parsed_tx"`
}

// SendResult describes an accepted transaction.
type SendResult struct {
	Hash    string
	Elapsed time.Duration
	// PoolSize is the node's staging pool size, when reported.
	PoolSize *uint64
}
