package library

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), 2*time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestCatalogRoundTrip(t *testing.T) {
	store := tempStore(t)

	in := []CatalogEntry{
		{Barcode: "111", Title: "Dune", Author: "Herbert", TotalCopies: 2, AvailableCopies: 1, CopyIDs: []string{"c-1", "c-2"}},
		{Barcode: "222", Title: "Emma, a novel", Author: "Austen", TotalCopies: 1, AvailableCopies: 1, CopyIDs: []string{"c-3"}},
		{Barcode: "333", Title: "", Author: "", TotalCopies: 0, AvailableCopies: 0, CopyIDs: nil},
	}
	if err := store.SaveCatalog(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := store.LoadCatalog()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("want %d entries, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i].Barcode != in[i].Barcode || out[i].Title != in[i].Title ||
			out[i].Author != in[i].Author || out[i].TotalCopies != in[i].TotalCopies ||
			out[i].AvailableCopies != in[i].AvailableCopies {
			t.Fatalf("entry %d mismatch: %+v vs %+v", i, out[i], in[i])
		}
		if len(out[i].CopyIDs) != len(in[i].CopyIDs) {
			t.Fatalf("entry %d copy count mismatch", i)
		}
		for j := range in[i].CopyIDs {
			if out[i].CopyIDs[j] != in[i].CopyIDs[j] {
				t.Fatalf("entry %d copy order changed: %v vs %v", i, out[i].CopyIDs, in[i].CopyIDs)
			}
		}
	}
}

func TestLedgerRoundTrip(t *testing.T) {
	store := tempStore(t)

	in := []CheckoutEvent{
		{CheckoutID: "k1", UserID: "u1", CopyID: "c1", CheckoutDate: "2025-03-01", DueDate: "2025-03-15", ReturnDate: ""},
		{CheckoutID: "k2", UserID: "u2", CopyID: "c2", CheckoutDate: "2025-03-02", DueDate: "2025-03-16", ReturnDate: "2025-03-10"},
	}
	if err := store.SaveLedger(in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := store.LoadLedger()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if !out[0].Open() || out[1].Open() {
		t.Fatalf("open flags wrong")
	}
}

func TestPatronsRoundTrip(t *testing.T) {
	store := tempStore(t)

	in := []Patron{{UserID: "ab12cd34", Name: "Alice", Email: "alice@example.com"}}
	if err := store.SavePatrons(in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := store.LoadPatrons()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestMissingFilesReadEmpty(t *testing.T) {
	store := tempStore(t)

	entries, err := store.LoadCatalog()
	if err != nil || len(entries) != 0 {
		t.Fatalf("want empty catalog, got %v (%v)", entries, err)
	}
	patrons, err := store.LoadPatrons()
	if err != nil || len(patrons) != 0 {
		t.Fatalf("want empty patrons, got %v (%v)", patrons, err)
	}
	events, err := store.LoadLedger()
	if err != nil || len(events) != 0 {
		t.Fatalf("want empty ledger, got %v (%v)", events, err)
	}
}

func TestMalformedRowIsPersistenceError(t *testing.T) {
	store := tempStore(t)

	path := filepath.Join(store.Dir(), "catalog.csv")
	content := "barcode,title,author,total_copies,available_copies,copy_ids\n111,Dune,Herbert,not-a-number,2,c-1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := store.LoadCatalog()
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("want PersistenceError, got %v", err)
	}
	if perr.Resource != "catalog.csv" {
		t.Fatalf("wrong resource: %s", perr.Resource)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	store := tempStore(t)

	if err := store.SaveCatalog([]CatalogEntry{{Barcode: "111", CopyIDs: []string{"c-1"}, TotalCopies: 1, AvailableCopies: 1}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	files, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, f := range files {
		if f.Name() != "catalog.csv" && filepath.Ext(f.Name()) != ".lock" {
			t.Fatalf("unexpected leftover file %s", f.Name())
		}
	}
}

func TestLockTimeoutSurfacesStoreBusy(t *testing.T) {
	dir := t.TempDir()
	logger := zap.NewNop()

	holder, err := NewStore(dir, 2*time.Second, logger)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	waiter, err := NewStore(dir, 150*time.Millisecond, logger)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = holder.WithCatalogLock(func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	err = waiter.WithCatalogLock(func() error { return nil })
	if !errors.Is(err, ErrStoreBusy) {
		t.Fatalf("want ErrStoreBusy, got %v", err)
	}
}
