package rpc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/woonieit/octra/pkg/tx"
)

// GetBalance returns the balance and nonce of address. Nodes that answer in
// plain text ("<balance> <nonce>") are supported too.
func (c *Client) GetBalance(ctx context.Context, address string) (Balance, error) {
	resp := c.get(ctx, "/balance/"+url.PathEscape(address), 0)
	if resp.Status != http.StatusOK {
		return Balance{}, resp.Error()
	}

	if resp.JSON != nil {
		var bal Balance
		if err := resp.Decode(&bal); err != nil {
			return Balance{}, err
		}
		return bal, nil
	}

	return parseBalanceText(resp.Text)
}

func parseBalanceText(text string) (Balance, error) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return Balance{}, fmt.Errorf("%w: balance %q", ErrUnexpectedResponse, text)
	}

	var bal Balance
	if v, err := decimal.NewFromString(parts[0]); err == nil && !v.IsNegative() {
		bal.Balance = v
	}
	if n, err := strconv.ParseUint(parts[1], 10, 64); err == nil {
		bal.Nonce = Uint64(n)
	}
	return bal, nil
}

// GetStaging returns the node's staging pool.
func (c *Client) GetStaging(ctx context.Context) (Staging, error) {
	resp := c.get(ctx, "/staging", c.shortTimeout)
	if resp.Status != http.StatusOK {
		return Staging{}, resp.Error()
	}

	var staging Staging
	if err := resp.Decode(&staging); err != nil {
		return Staging{}, err
	}
	return staging, nil
}

// GetAddress lists recent transactions of address. Addresses the node knows
// nothing about yield ErrNotFound.
func (c *Client) GetAddress(ctx context.Context, address string, limit int) (AddressInfo, error) {
	path := fmt.Sprintf("/address/%s?limit=%d", url.PathEscape(address), limit)
	resp := c.get(ctx, path, 0)
	if resp.Status != http.StatusOK {
		return AddressInfo{}, resp.Error()
	}

	var raw struct {
		Address            string   `json:"address"`
		RecentTransactions *[]TxRef `json:"recent_transactions"`
	}
	if resp.JSON != nil {
		if err := resp.Decode(&raw); err != nil {
			return AddressInfo{}, err
		}
	}
	if raw.RecentTransactions != nil {
		return AddressInfo{Address: raw.Address, RecentTransactions: *raw.RecentTransactions}, nil
	}

	if strings.Contains(strings.ToLower(resp.Text), "no transactions") {
		return AddressInfo{}, &Error{Method: resp.Method, Path: resp.Path, Status: http.StatusNotFound, Body: resp.Text}
	}
	return AddressInfo{}, fmt.Errorf("%w: address listing without transactions", ErrUnexpectedResponse)
}

// GetTransaction fetches a transaction by hash.
func (c *Client) GetTransaction(ctx context.Context, hash string) (TxInfo, error) {
	resp := c.get(ctx, "/tx/"+url.PathEscape(hash), c.shortTimeout)
	if resp.Status != http.StatusOK {
		return TxInfo{}, resp.Error()
	}

	var raw struct {
		ParsedTx *ParsedTx `json:"parsed_tx"`
	}
	if err := resp.Decode(&raw); err != nil {
		return TxInfo{}, err
	}
	if raw.ParsedTx == nil {
		return TxInfo{}, fmt.Errorf("%w: transaction %s has no parsed_tx", ErrUnexpectedResponse, hash)
	}
	return TxInfo{Hash: hash, ParsedTx: *raw.ParsedTx}, nil
}

type sendResponse struct {
	Status   string `json:"status"`
	TxHash   string `json:"tx_hash"`
	PoolInfo *struct {
		TotalPoolSize Uint64 `json:"total_pool_size"`
	} `json:"pool_info"`
}

// SendTransaction submits a signed transaction. It is never retried.
func (c *Client) SendTransaction(ctx context.Context, t tx.Signed) (SendResult, error) {
	start := time.Now()
	resp := c.Do(ctx, http.MethodPost, "/send-tx", t.Transaction, 0)
	elapsed := time.Since(start)

	result, ok := parseSendResponse(resp)
	if !ok {
		if resp.Status == 0 {
			c.metrics.observeSend("failed")
		} else {
			c.metrics.observeSend("rejected")
		}
		return SendResult{}, resp.Error()
	}

	c.metrics.observeSend("accepted")
	result.Elapsed = elapsed
	return result, nil
}

func parseSendResponse(resp Response) (SendResult, bool) {
	if resp.Status != http.StatusOK {
		return SendResult{}, false
	}

	var sr sendResponse
	if resp.JSON != nil && resp.Decode(&sr) == nil && sr.Status == "accepted" {
		result := SendResult{Hash: sr.TxHash}
		if sr.PoolInfo != nil {
			size := uint64(sr.PoolInfo.TotalPoolSize)
			result.PoolSize = &size
		}
		return result, true
	}

	text := strings.TrimSpace(resp.Text)
	if strings.HasPrefix(strings.ToLower(text), "ok") {
		fields := strings.Fields(text)
		return SendResult{Hash: fields[len(fields)-1]}, true
	}
	return SendResult{}, false
}
