// Package client keeps the state of one wallet session against an Octra node:
// cached balance and nonce, the recent transaction history and the sending
// of single and batched transfers.
package client

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/woonieit/octra/pkg/log"
	"github.com/woonieit/octra/pkg/rpc"
	"github.com/woonieit/octra/pkg/tx"
	"github.com/woonieit/octra/pkg/wallet"
	"github.com/woonieit/octra/storage"
)

var (
	// ErrNonceUnavailable is returned when the account nonce could not be fetched.
	ErrNonceUnavailable = errors.New("failed to get nonce")
	// ErrInsufficientBalance is returned when a transfer exceeds the balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrNothingToSend is returned for an empty multi-send.
	ErrNothingToSend = errors.New("no recipients")
)

// Node is the subset of the node API used by the client.
type Node interface {
	GetBalance(ctx context.Context, address string) (rpc.Balance, error)
	GetStaging(ctx context.Context) (rpc.Staging, error)
	GetAddress(ctx context.Context, address string, limit int) (rpc.AddressInfo, error)
	GetTransaction(ctx context.Context, hash string) (rpc.TxInfo, error)
	SendTransaction(ctx context.Context, t tx.Signed) (rpc.SendResult, error)
}

var _ Node = (*rpc.Client)(nil)

// HistoryStore persists the history between sessions.
type HistoryStore interface {
	SaveHistory(entries ...storage.HistoryEntryDTO) error
	GetHistory(owner string, limit int) ([]storage.HistoryEntryDTO, error)
	DeleteHistory(owner string) error
}

var _ HistoryStore = (*storage.Storage)(nil)

const (
	// MaxHistory caps the number of entries kept.
	MaxHistory = 50
	// HistoryWindow is how long entries missing from the node listing are kept.
	HistoryWindow = time.Hour
)

// Config holds the cache and batching settings.
type Config struct {
	StatusTTL    time.Duration
	HistoryTTL   time.Duration
	HistoryLimit int
	BatchSize    int
	// FetchParallelism bounds concurrent transaction lookups.
	FetchParallelism int
}

// DefaultConfig holds the stock cache and batching settings.
var DefaultConfig = Config{
	StatusTTL:        30 * time.Second,
	HistoryTTL:       60 * time.Second,
	HistoryLimit:     20,
	BatchSize:        5,
	FetchParallelism: 8,
}

// Client is a wallet session. It is safe for concurrent use.
type Client struct {
	wallet *wallet.Wallet
	node   Node
	store  HistoryStore
	cfg    Config
	lg     log.Logger
	now    func() time.Time

	mu        sync.Mutex
	status    *Status
	statusAt  time.Time
	history   []Entry
	historyAt time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithStore persists history in store.
func WithStore(store HistoryStore) Option {
	return func(c *Client) { c.store = store }
}

// WithConfig overrides DefaultConfig. Zero fields keep their default.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		if cfg.StatusTTL > 0 {
			c.cfg.StatusTTL = cfg.StatusTTL
		}
		if cfg.HistoryTTL > 0 {
			c.cfg.HistoryTTL = cfg.HistoryTTL
		}
		if cfg.HistoryLimit > 0 {
			c.cfg.HistoryLimit = cfg.HistoryLimit
		}
		if cfg.BatchSize > 0 {
			c.cfg.BatchSize = cfg.BatchSize
		}
		if cfg.FetchParallelism > 0 {
			c.cfg.FetchParallelism = cfg.FetchParallelism
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(lg log.Logger) Option {
	return func(c *Client) { c.lg = lg }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a session for w against node. Persisted history, if any, is
// loaded immediately.
func New(w *wallet.Wallet, node Node, opts ...Option) *Client {
	c := &Client{
		wallet: w,
		node:   node,
		cfg:    DefaultConfig,
		lg:     log.NewNoopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lg = c.lg.WithName("client").WithKV("address", w.Address)

	if c.store != nil {
		dtos, err := c.store.GetHistory(w.Address, MaxHistory)
		if err != nil {
			c.lg.Warn("failed to load stored history", "error", err)
		}
		for _, dto := range dtos {
			c.history = append(c.history, entryFromDTO(dto))
		}
	}
	return c
}

// logger returns the logger attached to ctx, scoped to this session, or the
// session logger when ctx carries none.
func (c *Client) logger(ctx context.Context) log.Logger {
	if lg := log.FromContext(ctx); !isNoop(lg) {
		return lg.WithName("client").WithKV("address", c.wallet.Address)
	}
	return c.lg
}

func isNoop(lg log.Logger) bool {
	_, ok := lg.(log.NoopLogger)
	return ok
}

// Address returns the sender address.
func (c *Client) Address() string { return c.wallet.Address }

// Wallet returns the loaded wallet.
func (c *Client) Wallet() *wallet.Wallet { return c.wallet }

// ExportWallet writes a copy of the wallet file into dir and returns its path.
func (c *Client) ExportWallet(dir string, now time.Time) (string, error) {
	path := filepath.Join(dir, wallet.ExportFileName(now))
	if err := wallet.Save(path, c.wallet.File()); err != nil {
		return "", fmt.Errorf("failed to export wallet: %w", err)
	}
	c.lg.Info("wallet exported", "path", path)
	return path, nil
}
