package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"elnimport/pkg/domain"
)

func newMockStore(t *testing.T, seed *sqlmock.Rows) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS state`).WillReturnResult(sqlmock.NewResult(0, 0))
	if seed == nil {
		seed = sqlmock.NewRows([]string{"bucket", "payload"})
	}
	mock.ExpectQuery(`SELECT bucket, payload FROM state`).WillReturnRows(seed)

	store, err := NewStore(context.Background(), "postgres://ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, mock
}

func TestNewStoreLoadsSnapshot(t *testing.T) {
	rows := sqlmock.NewRows([]string{"bucket", "payload"}).
		AddRow("collections", []byte(`[{"id":"c1","user_id":"u1","label":"Imported"}]`)).
		AddRow("unknown", []byte(`{"ignored":true}`)).
		AddRow("samples", []byte(nil))
	store, mock := newMockStore(t, rows)

	err := store.View(context.Background(), func(tx domain.Transaction) error {
		c, ok := tx.Collections().Find("c1")
		if !ok || c.Label != "Imported" {
			t.Fatalf("expected collection c1 loaded, got %+v ok=%v", c, ok)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunInTransactionPersistsEveryBucket(t *testing.T) {
	store, mock := newMockStore(t, nil)
	mock.ExpectBegin()
	for i := 0; i < 22; i++ {
		mock.ExpectExec(`INSERT INTO state`).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.Collections().Create(domain.Collection{UserID: "u1", Label: "A"})
		return err
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunInTransactionSkipsPersistOnError(t *testing.T) {
	store, mock := newMockStore(t, nil)
	boom := errors.New("boom")
	err := store.RunInTransaction(context.Background(), func(domain.Transaction) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected database activity: %v", err)
	}
}

func TestPersistRollsBackOnUpsertFailure(t *testing.T) {
	store, mock := newMockStore(t, nil)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO state`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.RunInTransaction(context.Background(), func(domain.Transaction) error { return nil })
	if err == nil {
		t.Fatalf("expected persist failure")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestNewStoreOpenFailure(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, errors.New("no route") })
	defer restore()
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected open failure")
	}
}
