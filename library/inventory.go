package library

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Inventory owns catalog entries and their copy pools. It is the only
// component that mutates catalog rows; the ledger consumes and releases
// copies through it.
type Inventory struct {
	store  *Store
	logger *zap.Logger
}

// NewInventory returns an Inventory backed by store.
func NewInventory(store *Store, logger *zap.Logger) *Inventory {
	return &Inventory{store: store, logger: logger}
}

// AddBook registers copies of a title. For a new barcode it creates the
// entry; for an existing one it appends freshly generated copy ids and bumps
// both counters. Non-empty title/author overwrite the stored values; empty
// input preserves them.
func (inv *Inventory) AddBook(barcode, title, author string, copies int) (*CatalogEntry, error) {
	if copies <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCopies, copies)
	}

	var result CatalogEntry
	err := inv.store.WithCatalogLock(func() error {
		entries, err := inv.store.LoadCatalog()
		if err != nil {
			return err
		}

		newIDs := make([]string, copies)
		for i := range newIDs {
			newIDs[i] = uuid.NewString()
		}

		idx := findEntry(entries, barcode)
		if idx >= 0 {
			e := &entries[idx]
			if title != "" {
				e.Title = title
			}
			if author != "" {
				e.Author = author
			}
			e.TotalCopies += copies
			e.AvailableCopies += copies
			e.CopyIDs = append(e.CopyIDs, newIDs...)
			result = *e
		} else {
			entry := CatalogEntry{
				Barcode:         barcode,
				Title:           title,
				Author:          author,
				TotalCopies:     copies,
				AvailableCopies: copies,
				CopyIDs:         newIDs,
			}
			entries = append(entries, entry)
			result = entry
		}

		return inv.store.SaveCatalog(entries)
	})
	if err != nil {
		return nil, err
	}

	inv.logger.Info("book added",
		zap.String("barcode", barcode),
		zap.Int("copies", copies),
		zap.Int("total", result.TotalCopies))
	return &result, nil
}

// GetBook returns the entry for an exact barcode match.
func (inv *Inventory) GetBook(barcode string) (*CatalogEntry, error) {
	entries, err := inv.store.LoadCatalog()
	if err != nil {
		return nil, err
	}
	if idx := findEntry(entries, barcode); idx >= 0 {
		e := entries[idx]
		return &e, nil
	}
	return nil, fmt.Errorf("%w: barcode %s", ErrBookNotFound, barcode)
}

// AllBooks returns every catalog entry.
func (inv *Inventory) AllBooks() ([]CatalogEntry, error) {
	return inv.store.LoadCatalog()
}

// SearchBooks returns all entries whose title or author contains term,
// case-insensitively. No matches is an empty slice, not an error.
func (inv *Inventory) SearchBooks(term string) ([]CatalogEntry, error) {
	entries, err := inv.store.LoadCatalog()
	if err != nil {
		return nil, err
	}
	matches := []CatalogEntry{}
	for _, e := range entries {
		if e.Matches(term) {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

// ReserveCopy consumes one available copy of a title and returns its id.
// The copy handed out is the lowest-index id in the pool that has no open
// ledger event, so a drifted counter can never double-lend a copy; the
// counter still gates entry and is decremented on success.
func (inv *Inventory) ReserveCopy(barcode string) (string, error) {
	var copyID string
	err := inv.store.WithCirculationLock(func() error {
		var err error
		copyID, err = inv.reserveCopyLocked(barcode)
		return err
	})
	return copyID, err
}

// reserveCopyLocked is ReserveCopy without lock acquisition, for callers
// already holding the circulation locks.
func (inv *Inventory) reserveCopyLocked(barcode string) (string, error) {
	entries, err := inv.store.LoadCatalog()
	if err != nil {
		return "", err
	}

	idx := findEntry(entries, barcode)
	if idx < 0 {
		return "", fmt.Errorf("%w: barcode %s", ErrNoCopyAvailable, barcode)
	}
	e := &entries[idx]
	if e.AvailableCopies < 1 || len(e.CopyIDs) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoCopyAvailable, barcode)
	}

	events, err := inv.store.LoadLedger()
	if err != nil {
		return "", err
	}
	onLoan := make(map[string]bool, len(events))
	for i := range events {
		if events[i].Open() {
			onLoan[events[i].CopyID] = true
		}
	}

	copyID := ""
	for _, id := range e.CopyIDs {
		if !onLoan[id] {
			copyID = id
			break
		}
	}
	if copyID == "" {
		// Counter says available but every copy has an open loan.
		inv.logger.Warn("availability counter drift",
			zap.String("barcode", barcode),
			zap.Int("available", e.AvailableCopies))
		return "", fmt.Errorf("%w: %s", ErrNoCopyAvailable, barcode)
	}

	e.AvailableCopies--
	if err := inv.store.SaveCatalog(entries); err != nil {
		return "", err
	}
	return copyID, nil
}

// ReleaseCopy returns a copy to circulation. The token may be a copy id or a
// barcode; the owning entry is located by scanning the pools. A token that
// matches no entry is tolerated as a no-op.
func (inv *Inventory) ReleaseCopy(token string) error {
	return inv.store.WithCatalogLock(func() error {
		return inv.releaseCopyLocked(token)
	})
}

// releaseCopyLocked is ReleaseCopy without lock acquisition.
func (inv *Inventory) releaseCopyLocked(token string) error {
	entries, err := inv.store.LoadCatalog()
	if err != nil {
		return err
	}

	for i := range entries {
		e := &entries[i]
		if e.Barcode != token && !e.HasCopy(token) {
			continue
		}
		if e.AvailableCopies >= e.TotalCopies {
			// Releasing a copy that was never reserved; leave the counter alone.
			inv.logger.Warn("release with full availability",
				zap.String("barcode", e.Barcode),
				zap.String("token", token))
			return nil
		}
		e.AvailableCopies++
		return inv.store.SaveCatalog(entries)
	}

	inv.logger.Warn("release for unknown copy", zap.String("token", token))
	return nil
}

func findEntry(entries []CatalogEntry, barcode string) int {
	for i := range entries {
		if entries[i].Barcode == barcode {
			return i
		}
	}
	return -1
}
