package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"keyvault-backend-go/internal/models"
)

func newSQLite(t *testing.T) AuditRepository {
	t.Helper()
	repo, err := NewSQLiteAuditRepository(context.Background(), ":memory:", nil)
	if err != nil {
		t.Fatalf("NewSQLiteAuditRepository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// Both local backends must behave the same.
func TestAuditRepositories(t *testing.T) {
	backends := map[string]func(t *testing.T) AuditRepository{
		"memory": func(*testing.T) AuditRepository { return NewMemoryAuditRepository() },
		"sqlite": newSQLite,
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()
			base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

			for i := 0; i < 3; i++ {
				err := repo.Create(ctx, models.AuditLog{
					Timestamp:  base.Add(time.Duration(i) * time.Minute),
					UserID:     "alice",
					Action:     models.AuditActionKeyCreate,
					TargetType: models.AuditTargetKey,
					TargetID:   fmt.Sprintf("%d", i),
					Details:    map[string]interface{}{"key_name": fmt.Sprintf("k%d", i)},
				})
				if err != nil {
					t.Fatalf("Create: %v", err)
				}
			}
			if err := repo.Create(ctx, models.AuditLog{Timestamp: base, UserID: "bob", Action: models.AuditActionKeyRevoke}); err != nil {
				t.Fatalf("Create: %v", err)
			}

			logs, err := repo.ListByUserID(ctx, "alice", 0)
			if err != nil {
				t.Fatalf("ListByUserID: %v", err)
			}
			if len(logs) != 3 {
				t.Fatalf("got %d entries, want 3", len(logs))
			}
			if logs[0].TargetID != "2" || logs[2].TargetID != "0" {
				t.Fatalf("entries not newest first: %+v", logs)
			}
			if logs[0].ID == "" || logs[0].Details["key_name"] != "k2" {
				t.Fatalf("entry = %+v", logs[0])
			}
			if !logs[0].Timestamp.Equal(base.Add(2 * time.Minute)) {
				t.Fatalf("timestamp = %v", logs[0].Timestamp)
			}

			limited, _ := repo.ListByUserID(ctx, "alice", 2)
			if len(limited) != 2 {
				t.Fatalf("limit ignored: %d entries", len(limited))
			}
			none, err := repo.ListByUserID(ctx, "carol", 10)
			if err != nil || none == nil || len(none) != 0 {
				t.Fatalf("unknown user = %#v, %v", none, err)
			}
		})
	}
}

func TestDeferredAuditRepository(t *testing.T) {
	ctx := context.Background()
	d := NewDeferredAuditRepository()

	if err := d.Create(ctx, models.AuditLog{UserID: "u"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Create before install err = %v", err)
	}
	if _, err := d.ListByUserID(ctx, "u", 1); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("List before install err = %v", err)
	}

	d.Install(NewMemoryAuditRepository())
	if err := d.Create(ctx, models.AuditLog{UserID: "u", Action: "X"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	logs, err := d.ListByUserID(ctx, "u", 1)
	if err != nil || len(logs) != 1 {
		t.Fatalf("List = %+v, %v", logs, err)
	}
}

func TestNormalizeLimit(t *testing.T) {
	for in, want := range map[int]int{-1: DefaultAuditListLimit, 0: DefaultAuditListLimit, 5: 5, 1000: DefaultAuditListLimit} {
		if got := normalizeLimit(in); got != want {
			t.Errorf("normalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
