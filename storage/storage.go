package storage

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/woonieit/octra/pkg/sign"
)

const (
	defaultDBPath = "octra.db"
)

var ErrNotFound = errors.New("record not found")

//go:embed migrations/*.sql
var embedMigrations embed.FS

type Storage struct {
	db *gorm.DB
}

func NewStorage(path string) (*Storage, error) {
	if path == "" {
		path = defaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared", path)

	dial := sqlite.Open(dsn)
	dbConf := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	db, err := gorm.Open(dial, dbConf)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// migrate applies the embedded schema migrations that are not applied yet.
func migrate(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(sqlDB, "migrations")
}

// Close releases the database handle.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type WalletDTO struct {
	Address    string `gorm:"column:address;primaryKey"`
	Name       string `gorm:"column:name;not null;unique"`
	PrivateKey string `gorm:"column:private_key;not null;unique"`
	RPC        string `gorm:"column:rpc;not null"`
}

func (WalletDTO) TableName() string { return "wallets" }

func (s *Storage) AddWallet(name, privateKeyB64, rpc string) (*WalletDTO, error) {
	signer, err := sign.NewEd25519Signer(privateKeyB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}

	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}

	dto := WalletDTO{
		Address:    signer.PublicKey().Address().String(),
		Name:       name,
		PrivateKey: privateKeyB64,
		RPC:        rpc,
	}

	if err := s.db.Create(&dto).Error; err != nil {
		return nil, fmt.Errorf("failed to add wallet: %w", err)
	}

	return &dto, nil
}

func (s *Storage) GetWallets() ([]WalletDTO, error) {
	var wallets []WalletDTO
	if err := s.db.Order("name ASC").Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve wallets: %w", err)
	}
	return wallets, nil
}

func (s *Storage) GetWalletByName(name string) (*WalletDTO, error) {
	var w WalletDTO
	if err := s.db.Where("name = ?", name).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: wallet %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to retrieve wallet: %w", err)
	}
	return &w, nil
}

func (s *Storage) DeleteWallet(name string) error {
	res := s.db.Where("name = ?", name).Delete(&WalletDTO{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: wallet %s", ErrNotFound, name)
	}
	return nil
}

// HistoryEntryDTO is a cached transaction of the owner's history.
type HistoryEntryDTO struct {
	Owner     string          `gorm:"column:owner;primaryKey"`
	Hash      string          `gorm:"column:hash;primaryKey"`
	Time      time.Time       `gorm:"column:time;not null;index"`
	Amount    decimal.Decimal `gorm:"column:amount;type:text;not null"`
	Peer      string          `gorm:"column:peer;not null"`
	Direction string          `gorm:"column:direction;not null"`
	OK        bool            `gorm:"column:ok;not null"`
	Nonce     uint64          `gorm:"column:nonce;not null"`
	Epoch     uint64          `gorm:"column:epoch;not null"`
}

func (HistoryEntryDTO) TableName() string { return "history_entries" }

// SaveHistory inserts entries, replacing those already stored under the same
// owner and hash.
func (s *Storage) SaveHistory(entries ...HistoryEntryDTO) error {
	if len(entries) == 0 {
		return nil
	}
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&entries).Error; err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// GetHistory returns up to limit entries of owner, newest first. A limit of
// zero returns everything.
func (s *Storage) GetHistory(owner string, limit int) ([]HistoryEntryDTO, error) {
	var entries []HistoryEntryDTO
	q := s.db.Where("owner = ?", owner).Order("time DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve history: %w", err)
	}
	return entries, nil
}

func (s *Storage) DeleteHistory(owner string) error {
	if err := s.db.Where("owner = ?", owner).Delete(&HistoryEntryDTO{}).Error; err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}

// NodeDTO is a node URL the client has talked to.
type NodeDTO struct {
	URL        string    `gorm:"column:url;primaryKey"`
	LastUsedAt time.Time `gorm:"column:last_used_at;not null"`
}

func (NodeDTO) TableName() string { return "nodes" }

// TouchNode records that url was just used, adding it when unknown.
func (s *Storage) TouchNode(url string) error {
	if url == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	dto := NodeDTO{URL: url, LastUsedAt: time.Now().UTC()}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_used_at"}),
	}).Create(&dto).Error; err != nil {
		return fmt.Errorf("failed to update node usage: %w", err)
	}
	return nil
}

// GetNodes lists known nodes, most recently used first.
func (s *Storage) GetNodes() ([]NodeDTO, error) {
	var nodes []NodeDTO
	if err := s.db.Order("last_used_at DESC").Find(&nodes).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve nodes: %w", err)
	}
	return nodes, nil
}
