package claimlog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func setupTestLog(t *testing.T) *Log {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	log, err := New(db)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return log
}

func TestRecordAndList(t *testing.T) {
	log := setupTestLog(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	log.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	ctx := context.Background()
	account := "0x0000000000000000000000000000000000000A11"
	first, err := log.Record(ctx, 1, 0, account, "7907683090")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := log.Record(ctx, 2, 0, account, "15"); err != nil {
		t.Fatalf("record second: %v", err)
	}
	if _, err := log.Record(ctx, 2, 0, "0x00000000000000000000000000000000000000b0", "1"); err != nil {
		t.Fatalf("record other: %v", err)
	}

	// Lookups are case-insensitive on the hex form.
	receipts, err := log.ListByAccount(ctx, "0x0000000000000000000000000000000000000a11", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(receipts) != 2 {
		t.Fatalf("expected 2 receipts got %d", len(receipts))
	}
	if receipts[0].Amount != "15" || receipts[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", receipts)
	}
	for _, r := range receipts {
		if !r.Verify() {
			t.Fatalf("stored receipt failed verification: %+v", r)
		}
	}

	loaded, err := log.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Checksum != first.Checksum {
		t.Fatalf("checksum mismatch %s vs %s", loaded.Checksum, first.Checksum)
	}
}

func TestTamperedReceiptFailsVerification(t *testing.T) {
	receipt := Receipt{ID: uuid.New(), EngineVersion: 1, Account: "0xabc", Amount: "10", CreatedAt: time.Unix(10, 0)}
	receipt.Checksum = receipt.Digest()
	if !receipt.Verify() {
		t.Fatalf("fresh receipt should verify")
	}
	receipt.Amount = "11"
	if receipt.Verify() {
		t.Fatalf("tampered receipt verified")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "dsn"); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestRejectsMalformedAccount(t *testing.T) {
	log := setupTestLog(t)
	ctx := context.Background()
	if _, err := log.Record(ctx, 1, 0, "alice", "1"); !errors.Is(err, ErrInvalidAccount) {
		t.Fatalf("expected ErrInvalidAccount on record, got %v", err)
	}
	if _, err := log.ListByAccount(ctx, "0x12", 10); !errors.Is(err, ErrInvalidAccount) {
		t.Fatalf("expected ErrInvalidAccount on list, got %v", err)
	}
}
