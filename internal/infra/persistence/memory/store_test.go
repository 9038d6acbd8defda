package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"elnimport/pkg/domain"
)

func strPtr(v string) *string { return &v }

func seedMolecule(t *testing.T, tx domain.Transaction) domain.Molecule {
	t.Helper()
	m, err := tx.Molecules().Create(domain.Molecule{Fingerprint: "fp-1", Molfile: "benzene"})
	if err != nil {
		t.Fatalf("create molecule: %v", err)
	}
	return m
}

func TestStoreRunInTransactionCommitsAndRollsBack(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.Collections().Create(domain.Collection{UserID: "u1", Label: "kept"})
		return err
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	boom := errors.New("boom")
	err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.Collections().Create(domain.Collection{UserID: "u1", Label: "discarded"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	snapshot := store.ExportState()
	if len(snapshot.Collections) != 1 || snapshot.Collections[0].Label != "kept" {
		t.Fatalf("expected only committed collection, got %+v", snapshot.Collections)
	}
}

func TestViewDiscardsWrites(t *testing.T) {
	store := NewStore()
	err := store.View(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.Collections().Create(domain.Collection{UserID: "u1", Label: "scratch"})
		return err
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if got := len(store.ExportState().Collections); got != 0 {
		t.Fatalf("expected view writes to be discarded, got %d collections", got)
	}
}

func TestCollectionAncestryChain(t *testing.T) {
	store := NewStore()
	var a, b, c domain.Collection
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		if a, err = tx.Collections().Create(domain.Collection{UserID: "u1", Label: "A"}); err != nil {
			return err
		}
		if b, err = tx.Collections().Create(domain.Collection{UserID: "u1", Label: "B", ParentID: strPtr(a.ID)}); err != nil {
			return err
		}
		c, err = tx.Collections().Create(domain.Collection{UserID: "u1", Label: "C", ParentID: strPtr(b.ID)})
		return err
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if a.Ancestry != "" {
		t.Fatalf("expected root ancestry to be empty, got %q", a.Ancestry)
	}
	if b.Ancestry != a.ID {
		t.Fatalf("expected B ancestry %q, got %q", a.ID, b.Ancestry)
	}
	if want := a.ID + "/" + b.ID; c.Ancestry != want {
		t.Fatalf("expected C ancestry %q, got %q", want, c.Ancestry)
	}
}

func TestCreateRejectsDanglingReferences(t *testing.T) {
	store := NewStore()
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.Samples().Create(domain.Sample{MoleculeID: "missing", CreatedBy: "u1"})
		return err
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
	err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.Collections().Create(domain.Collection{UserID: "u1", Label: "orphan", ParentID: strPtr("nope")})
		return err
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected missing parent error, got %v", err)
	}
	err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.Collections().Create(domain.Collection{UserID: "u1"})
		return err
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSampleProvisionsRootContainer(t *testing.T) {
	store := NewStore()
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		m := seedMolecule(t, tx)
		s, err := tx.Samples().Create(domain.Sample{MoleculeID: m.ID, CreatedBy: "u1"})
		if err != nil {
			return err
		}
		root, ok := tx.RootContainer(domain.Ref{Type: domain.EntitySample, ID: s.ID})
		if !ok {
			t.Fatalf("expected root container for sample")
		}
		children := tx.ChildContainers(root.ID)
		if len(children) != 1 || children[0].ContainerType != domain.ContainerAnalyses {
			t.Fatalf("expected analyses child, got %+v", children)
		}
		if children[0].Ancestry != root.ID {
			t.Fatalf("expected analyses ancestry %q, got %q", root.ID, children[0].Ancestry)
		}
		again, err := tx.ProvisionRootContainer(domain.Ref{Type: domain.EntitySample, ID: s.ID})
		if err != nil {
			return err
		}
		if again.ID != root.ID {
			t.Fatalf("expected provisioning to reuse root container")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestJoinCollectionsAndMembership(t *testing.T) {
	store := NewStore()
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		col, err := tx.Collections().Create(domain.Collection{UserID: "u1", Label: "All"})
		if err != nil {
			return err
		}
		r, err := tx.Reactions().Create(domain.Reaction{CreatedBy: "u1"})
		if err != nil {
			return err
		}
		joined, err := tx.JoinCollections(domain.Ref{Type: domain.EntityReaction, ID: r.ID}, []string{col.ID, col.ID})
		if err != nil || !joined {
			t.Fatalf("join: joined=%v err=%v", joined, err)
		}
		got, _ := tx.Reactions().Find(r.ID)
		if len(got.CollectionIDs) != 1 || got.CollectionIDs[0] != col.ID {
			t.Fatalf("expected single membership, got %v", got.CollectionIDs)
		}
		joined, err = tx.JoinCollections(domain.Ref{Type: domain.EntityLiterature, ID: "x"}, []string{col.ID})
		if err != nil || joined {
			t.Fatalf("expected literature to be skipped, joined=%v err=%v", joined, err)
		}
		if _, err := tx.JoinCollections(domain.Ref{Type: domain.EntityReaction, ID: r.ID}, []string{"missing"}); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected missing collection error, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestReactionRoleExistsChecksRole(t *testing.T) {
	store := NewStore()
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		m := seedMolecule(t, tx)
		s, err := tx.Samples().Create(domain.Sample{MoleculeID: m.ID, CreatedBy: "u1"})
		if err != nil {
			return err
		}
		r, err := tx.Reactions().Create(domain.Reaction{CreatedBy: "u1"})
		if err != nil {
			return err
		}
		rs, err := tx.ReactionSamples().Create(domain.ReactionSample{Role: domain.EntityReactionProduct, ReactionID: r.ID, SampleID: s.ID})
		if err != nil {
			return err
		}
		if !tx.Exists(domain.Ref{Type: domain.EntityReactionProduct, ID: rs.ID}) {
			t.Fatalf("expected product reference to exist")
		}
		if tx.Exists(domain.Ref{Type: domain.EntityReactionSolvent, ID: rs.ID}) {
			t.Fatalf("expected solvent reference to be absent")
		}
		if _, err := tx.ReactionSamples().Create(domain.ReactionSample{Role: "Catalyst", ReactionID: r.ID, SampleID: s.ID}); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected unknown role rejection, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestMoleculeQueries(t *testing.T) {
	store := NewStore()
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		m := seedMolecule(t, tx)
		if found, ok := tx.FindMoleculeByFingerprint("fp-1"); !ok || found.ID != m.ID {
			t.Fatalf("expected fingerprint lookup to find molecule")
		}
		if _, err := tx.Molecules().Create(domain.Molecule{Fingerprint: "fp-1"}); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("expected duplicate fingerprint rejection, got %v", err)
		}
		first, err := tx.DummyMolecule()
		if err != nil {
			return err
		}
		second, err := tx.DummyMolecule()
		if err != nil {
			return err
		}
		if first.ID != second.ID {
			t.Fatalf("expected dummy molecule to be shared")
		}
		name, err := tx.MoleculeNames().Create(domain.MoleculeName{MoleculeID: m.ID, UserID: "u1", Name: "benzene"})
		if err != nil {
			return err
		}
		if found, ok := tx.FindMoleculeName(m.ID, "u1", "benzene"); !ok || found.ID != name.ID {
			t.Fatalf("expected molecule name lookup to succeed")
		}
		if _, ok := tx.FindMoleculeName(m.ID, "u2", "benzene"); ok {
			t.Fatalf("expected names to be scoped per user")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestUpdateStampsAndKeepsID(t *testing.T) {
	store := NewStore()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	store.SetNowFunc(func() time.Time { return fixed })
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		c, err := tx.Collections().Create(domain.Collection{UserID: "u1", Label: "A"})
		if err != nil {
			return err
		}
		if !c.CreatedAt.Equal(fixed) {
			t.Fatalf("expected created_at from clock, got %v", c.CreatedAt)
		}
		updated, err := tx.Collections().Update(c.ID, func(v *domain.Collection) error {
			v.ID = "hijack"
			v.Label = "B"
			return nil
		})
		if err != nil {
			return err
		}
		if updated.ID != c.ID || updated.Label != "B" {
			t.Fatalf("unexpected update result %+v", updated)
		}
		if _, err := tx.Collections().Update("missing", func(*domain.Collection) error { return nil }); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected missing update error, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	store := NewStore()
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		c, err := tx.Collections().Create(domain.Collection{UserID: "u1", Label: "A", Attributes: map[string]any{"k": "v"}})
		if err != nil {
			return err
		}
		c.Attributes["k"] = "mutated"
		stored, _ := tx.Collections().Find(c.ID)
		if stored.Attributes["k"] != "v" {
			t.Fatalf("expected stored attributes to be isolated, got %v", stored.Attributes["k"])
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestExportImportPreservesOrder(t *testing.T) {
	store := NewStore()
	labels := []string{"first", "second", "third"}
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		for _, label := range labels {
			if _, err := tx.Collections().Create(domain.Collection{UserID: "u1", Label: label}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	snapshot := store.ExportState()
	restored := NewStore()
	restored.ImportState(snapshot)
	got := restored.ExportState().Collections
	if len(got) != len(labels) {
		t.Fatalf("expected %d collections, got %d", len(labels), len(got))
	}
	for i, label := range labels {
		if got[i].Label != label {
			t.Fatalf("expected %q at %d, got %q", label, i, got[i].Label)
		}
	}
	if len(snapshot.Buckets()) != 22 {
		t.Fatalf("expected a bucket per table, got %d", len(snapshot.Buckets()))
	}
}

func TestDeleteRemovesFromListing(t *testing.T) {
	store := NewStore()
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		lit, err := tx.Literature().Create(domain.Literature{Title: "Paper"})
		if err != nil {
			return err
		}
		if err := tx.Literature().Delete(lit.ID); err != nil {
			return err
		}
		if len(tx.Literature().List()) != 0 {
			t.Fatalf("expected empty listing after delete")
		}
		if err := tx.Literature().Delete(lit.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected not found on second delete, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}
