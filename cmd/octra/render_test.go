package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/woonieit/octra/client"
	"github.com/woonieit/octra/pkg/tx"
	"github.com/woonieit/octra/storage"
)

const renderPeer = "oct1111111111111111111111111111111111111111111"

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	renderHistory(&buf, nil)
	assert.Contains(t, buf.String(), "no transactions yet")

	buf.Reset()
	renderHistory(&buf, []client.Entry{
		{Time: time.Now(), Hash: "aa", Amount: decimal.RequireFromString("1.5"), Peer: renderPeer, Direction: client.DirectionOut},
		{Time: time.Now(), Hash: "bb", Amount: decimal.RequireFromString("2"), Peer: renderPeer, Direction: client.DirectionIn, Epoch: 17},
	})
	out := buf.String()
	assert.Contains(t, out, "1.500000")
	assert.Contains(t, out, "pen")
	assert.Contains(t, out, "e17")
	assert.Contains(t, out, " in")
	assert.Contains(t, out, "out")
}

func TestRenderPlan(t *testing.T) {
	t.Run("Single", func(t *testing.T) {
		var buf bytes.Buffer
		amount := decimal.RequireFromString("1000")
		renderPlan(&buf, &client.Plan{
			Recipients: []tx.Recipient{{Address: renderPeer, Amount: amount}},
			Total:      amount,
			Fee:        tx.Fee(amount),
			StartNonce: 8,
		})
		out := buf.String()
		assert.Contains(t, out, "send 1000.000000 oct")
		assert.Contains(t, out, "fee: 0.003 oct (nonce: 8)")
	})

	t.Run("Multi", func(t *testing.T) {
		var buf bytes.Buffer
		recipients := []tx.Recipient{
			{Address: renderPeer, Amount: decimal.RequireFromString("1")},
			{Address: renderPeer, Amount: decimal.RequireFromString("2")},
		}
		renderPlan(&buf, &client.Plan{
			Recipients: recipients,
			Total:      tx.Total(recipients),
			Fee:        decimal.RequireFromString("0.002"),
			StartNonce: 3,
		})
		out := buf.String()
		assert.Contains(t, out, "3.000000 oct to 2 addresses")
		assert.Contains(t, out, "starting nonce 3")
	})
}

func TestRenderResult(t *testing.T) {
	var buf bytes.Buffer
	size := uint64(9)
	renderResult(&buf, client.Result{Hash: "cafe", Elapsed: 1500 * time.Millisecond, PoolSize: &size})
	assert.Contains(t, buf.String(), "hash: cafe")
	assert.Contains(t, buf.String(), "time: 1.50s")
	assert.Contains(t, buf.String(), "pool: 9 txs pending")

	buf.Reset()
	renderResult(&buf, client.Result{Err: errors.New("rejected")})
	assert.Contains(t, buf.String(), "transaction failed")
	assert.Contains(t, buf.String(), "rejected")
}

func TestProgressPrinterAndSummary(t *testing.T) {
	var buf bytes.Buffer
	progress := progressPrinter(&buf, 2)
	progress(client.Result{Index: 0, Hash: "h1", Recipient: tx.Recipient{Address: renderPeer, Amount: decimal.NewFromInt(1)}})
	progress(client.Result{Index: 1, Err: errors.New("timeout")})
	renderSummary(&buf, client.Summary{Succeeded: 1, Failed: 1})

	out := buf.String()
	assert.Contains(t, out, "[1/2]")
	assert.Contains(t, out, "h1")
	assert.Contains(t, out, "[2/2]")
	assert.Contains(t, out, "timeout")
	assert.Contains(t, out, "completed: 1 success, 1 failed")
}

func TestRenderWallets(t *testing.T) {
	var buf bytes.Buffer
	renderWallets(&buf, nil, "")
	assert.Contains(t, buf.String(), "no imported wallets")

	buf.Reset()
	renderWallets(&buf, []storage.WalletDTO{{Name: "main", Address: renderPeer, RPC: "http://node"}}, renderPeer)
	assert.Contains(t, buf.String(), "main")
	assert.Contains(t, buf.String(), "active")
}

func TestSplitKey(t *testing.T) {
	assert.Equal(t, "short", splitKey("short"))

	key := "0123456789abcdef0123456789abcdefXYZ="
	assert.Equal(t, "0123456789abcdef0123456789abcdef\nXYZ=", splitKey(key))
}
