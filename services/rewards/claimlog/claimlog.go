package claimlog

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"lukechampine.com/blake3"
)

// ErrInvalidAccount is returned for accounts that are not hex addresses.
var ErrInvalidAccount = errors.New("claimlog: invalid account")

// Receipt is the audit record persisted for every paid claim.
type Receipt struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	EngineVersion uint32    `gorm:"index"`
	Kind          uint8     `gorm:"index"`
	Account       string    `gorm:"size:42;index"`
	Amount        string    `gorm:"size:80;not null"`
	Checksum      string    `gorm:"size:64;not null"`
	CreatedAt     time.Time
}

// TableName pins the table name independent of struct naming.
func (Receipt) TableName() string { return "claim_receipts" }

// Digest returns the blake3 checksum over the receipt's identifying fields.
func (r Receipt) Digest() string {
	payload := fmt.Sprintf("%s|%d|%d|%s|%s|%d", r.ID, r.EngineVersion, r.Kind,
		strings.ToLower(r.Account), r.Amount, r.CreatedAt.UTC().UnixNano())
	sum := blake3.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether the stored checksum matches the receipt contents.
func (r Receipt) Verify() bool {
	return r.Checksum != "" && r.Checksum == r.Digest()
}

// Log records claim receipts in a SQL database.
type Log struct {
	db  *gorm.DB
	now func() time.Time
}

// Open connects to the configured driver. Supported drivers are "sqlite"
// and "postgres".
func Open(driver, dsn string) (*Log, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("claimlog: unsupported driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("claimlog: open %s: %w", driver, err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the receipt table.
func New(db *gorm.DB) (*Log, error) {
	if db == nil {
		return nil, errors.New("claimlog: database required")
	}
	if err := db.AutoMigrate(&Receipt{}); err != nil {
		return nil, fmt.Errorf("claimlog: migrate: %w", err)
	}
	return &Log{db: db, now: time.Now}, nil
}

// Record persists a receipt for a paid claim and returns it.
func (l *Log) Record(ctx context.Context, version uint32, kind uint8, account, amount string) (Receipt, error) {
	account, err := normalizeAccount(account)
	if err != nil {
		return Receipt{}, err
	}
	receipt := Receipt{
		ID:            uuid.New(),
		EngineVersion: version,
		Kind:          kind,
		Account:       account,
		Amount:        amount,
		// Postgres keeps microseconds.
		CreatedAt: l.now().UTC().Truncate(time.Microsecond),
	}
	receipt.Checksum = receipt.Digest()
	if err := l.db.WithContext(ctx).Create(&receipt).Error; err != nil {
		return Receipt{}, fmt.Errorf("claimlog: record: %w", err)
	}
	return receipt, nil
}

// ListByAccount returns the most recent receipts for account, newest first.
func (l *Log) ListByAccount(ctx context.Context, account string, limit int) ([]Receipt, error) {
	account, err := normalizeAccount(account)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var receipts []Receipt
	err = l.db.WithContext(ctx).
		Where("account = ?", account).
		Order("created_at desc").
		Limit(limit).
		Find(&receipts).Error
	if err != nil {
		return nil, fmt.Errorf("claimlog: list: %w", err)
	}
	return receipts, nil
}

// Get loads a single receipt by id.
func (l *Log) Get(ctx context.Context, id uuid.UUID) (Receipt, error) {
	var receipt Receipt
	if err := l.db.WithContext(ctx).First(&receipt, "id = ?", id).Error; err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

// Close releases the underlying connection pool.
func (l *Log) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func normalizeAccount(account string) (string, error) {
	trimmed := strings.TrimSpace(account)
	if !common.IsHexAddress(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAccount, account)
	}
	return common.HexToAddress(trimmed).Hex(), nil
}
