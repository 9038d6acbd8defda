package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"elnimport/pkg/domain"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store, err := NewStore(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	var sampleID string
	err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		m, err := tx.Molecules().Create(domain.Molecule{Fingerprint: "fp"})
		if err != nil {
			return err
		}
		s, err := tx.Samples().Create(domain.Sample{MoleculeID: m.ID, CreatedBy: "u1"})
		sampleID = s.ID
		return err
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if reloaded.Path() != path {
		t.Fatalf("unexpected path %q", reloaded.Path())
	}
	err = reloaded.View(context.Background(), func(tx domain.Transaction) error {
		if _, ok := tx.Samples().Find(sampleID); !ok {
			t.Fatalf("expected sample %s after reload", sampleID)
		}
		if _, ok := tx.RootContainer(domain.Ref{Type: domain.EntitySample, ID: sampleID}); !ok {
			t.Fatalf("expected root container after reload")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestSQLiteStoreDoesNotPersistFailedTransaction(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	boom := errors.New("boom")
	err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.Collections().Create(domain.Collection{UserID: "u1", Label: "A"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no persisted buckets, got %d", count)
	}
}
