package library

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

const (
	catalogFile = "catalog.csv"
	patronsFile = "patrons.csv"
	ledgerFile  = "ledger.csv"

	lockRetryDelay = 50 * time.Millisecond
)

var (
	catalogHeader = []string{"barcode", "title", "author", "total_copies", "available_copies", "copy_ids"}
	patronsHeader = []string{"user_id", "name", "email"}
	ledgerHeader  = []string{"checkout_id", "user_id", "copy_id", "checkout_date", "due_date", "return_date"}
)

// Store persists the three collections as header-row CSV files under a data
// directory. It knows nothing about circulation rules; it only reads and
// writes rows. Each collection has its own flock serialization domain so
// that read-modify-write cycles stay correct across process instances.
type Store struct {
	dir         string
	lockTimeout time.Duration
	logger      *zap.Logger

	catalogLock *flock.Flock
	patronsLock *flock.Flock
	ledgerLock  *flock.Flock
}

// NewStore creates the data directory if needed and sets up the per-file
// locks. lockTimeout bounds how long a mutating operation waits for a lock
// before giving up with ErrStoreBusy.
func NewStore(dir string, lockTimeout time.Duration, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{
		dir:         dir,
		lockTimeout: lockTimeout,
		logger:      logger,
		catalogLock: flock.New(filepath.Join(dir, "catalog.lock")),
		patronsLock: flock.New(filepath.Join(dir, "patrons.lock")),
		ledgerLock:  flock.New(filepath.Join(dir, "ledger.lock")),
	}, nil
}

// Dir returns the data directory the store writes into.
func (s *Store) Dir() string { return s.dir }

func (s *Store) withLock(fl *flock.Flock, fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrStoreBusy, filepath.Base(fl.Path()))
		}
		return fmt.Errorf("acquire %s: %w", filepath.Base(fl.Path()), err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrStoreBusy, filepath.Base(fl.Path()))
	}
	defer func() {
		if uerr := fl.Unlock(); uerr != nil {
			s.logger.Warn("lock release failed",
				zap.String("lock", filepath.Base(fl.Path())),
				zap.Error(uerr))
		}
	}()

	return fn()
}

// WithCatalogLock runs fn while holding the catalog lock.
func (s *Store) WithCatalogLock(fn func() error) error {
	return s.withLock(s.catalogLock, fn)
}

// WithPatronsLock runs fn while holding the patrons lock.
func (s *Store) WithPatronsLock(fn func() error) error {
	return s.withLock(s.patronsLock, fn)
}

// WithLedgerLock runs fn while holding the ledger lock.
func (s *Store) WithLedgerLock(fn func() error) error {
	return s.withLock(s.ledgerLock, fn)
}

// WithCirculationLock runs fn while holding both the catalog and ledger
// locks. Always acquired in that order so concurrent checkouts and check-ins
// cannot deadlock each other.
func (s *Store) WithCirculationLock(fn func() error) error {
	return s.withLock(s.catalogLock, func() error {
		return s.withLock(s.ledgerLock, fn)
	})
}

// ---------------------------------------------------------------------------
// Raw CSV plumbing
// ---------------------------------------------------------------------------

// readRows returns the data rows of a collection file, skipping the header.
// A missing file reads as an empty collection.
func (s *Store) readRows(name string, fields int) ([][]string, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &PersistenceError{Resource: name, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = fields
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &PersistenceError{Resource: name, Err: err}
	}
	if len(rows) > 0 {
		rows = rows[1:] // header
	}
	return rows, nil
}

// writeRows replaces a collection file with header plus rows. The new
// content goes to a temp file in the same directory first and is renamed
// over the target, so readers never see a torn write.
func (s *Store) writeRows(name string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return &PersistenceError{Resource: name, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func(werr error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &PersistenceError{Resource: name, Err: werr}
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		return cleanup(err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return cleanup(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Resource: name, Err: err}
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Resource: name, Err: err}
	}

	s.logger.Debug("collection saved", zap.String("resource", name), zap.Int("rows", len(rows)))
	return nil
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// LoadCatalog reads all catalog entries.
func (s *Store) LoadCatalog() ([]CatalogEntry, error) {
	rows, err := s.readRows(catalogFile, len(catalogHeader))
	if err != nil {
		return nil, err
	}

	entries := make([]CatalogEntry, 0, len(rows))
	for _, row := range rows {
		total, err := strconv.Atoi(row[3])
		if err != nil {
			return nil, &PersistenceError{Resource: catalogFile, Err: fmt.Errorf("bad total_copies %q: %w", row[3], err)}
		}
		available, err := strconv.Atoi(row[4])
		if err != nil {
			return nil, &PersistenceError{Resource: catalogFile, Err: fmt.Errorf("bad available_copies %q: %w", row[4], err)}
		}
		var copyIDs []string
		if row[5] != "" {
			copyIDs = strings.Split(row[5], ",")
		}
		entries = append(entries, CatalogEntry{
			Barcode:         row[0],
			Title:           row[1],
			Author:          row[2],
			TotalCopies:     total,
			AvailableCopies: available,
			CopyIDs:         copyIDs,
		})
	}
	return entries, nil
}

// SaveCatalog replaces the catalog file with entries.
func (s *Store) SaveCatalog(entries []CatalogEntry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Barcode,
			e.Title,
			e.Author,
			strconv.Itoa(e.TotalCopies),
			strconv.Itoa(e.AvailableCopies),
			strings.Join(e.CopyIDs, ","),
		})
	}
	return s.writeRows(catalogFile, catalogHeader, rows)
}

// ---------------------------------------------------------------------------
// Patrons
// ---------------------------------------------------------------------------

// LoadPatrons reads all patrons.
func (s *Store) LoadPatrons() ([]Patron, error) {
	rows, err := s.readRows(patronsFile, len(patronsHeader))
	if err != nil {
		return nil, err
	}

	patrons := make([]Patron, 0, len(rows))
	for _, row := range rows {
		patrons = append(patrons, Patron{UserID: row[0], Name: row[1], Email: row[2]})
	}
	return patrons, nil
}

// SavePatrons replaces the patrons file.
func (s *Store) SavePatrons(patrons []Patron) error {
	rows := make([][]string, 0, len(patrons))
	for _, p := range patrons {
		rows = append(rows, []string{p.UserID, p.Name, p.Email})
	}
	return s.writeRows(patronsFile, patronsHeader, rows)
}

// ---------------------------------------------------------------------------
// Ledger
// ---------------------------------------------------------------------------

// LoadLedger reads all checkout events in file order. File order is the
// insertion order and is the tie-break for the activity feed.
func (s *Store) LoadLedger() ([]CheckoutEvent, error) {
	rows, err := s.readRows(ledgerFile, len(ledgerHeader))
	if err != nil {
		return nil, err
	}

	events := make([]CheckoutEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, CheckoutEvent{
			CheckoutID:   row[0],
			UserID:       row[1],
			CopyID:       row[2],
			CheckoutDate: row[3],
			DueDate:      row[4],
			ReturnDate:   row[5],
		})
	}
	return events, nil
}

// SaveLedger replaces the ledger file.
func (s *Store) SaveLedger(events []CheckoutEvent) error {
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []string{
			ev.CheckoutID,
			ev.UserID,
			ev.CopyID,
			ev.CheckoutDate,
			ev.DueDate,
			ev.ReturnDate,
		})
	}
	return s.writeRows(ledgerFile, ledgerHeader, rows)
}
