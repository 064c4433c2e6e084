package library

import (
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Ledger owns checkout events. It is the only component that flips a copy
// between available and on-loan, which it does by consuming and releasing
// copies through the Inventory.
type Ledger struct {
	store     *Store
	inventory *Inventory
	loanDays  int
	logger    *zap.Logger
}

// NewLedger returns a Ledger writing through store and reserving copies via
// inventory. loanDays is the checkout period used to compute due dates.
func NewLedger(store *Store, inventory *Inventory, loanDays int, logger *zap.Logger) *Ledger {
	return &Ledger{store: store, inventory: inventory, loanDays: loanDays, logger: logger}
}

// Checkout lends one copy of barcode to userID with today as the checkout
// date. The caller is responsible for validating that userID exists.
func (l *Ledger) Checkout(userID, barcode string, today time.Time) (*CheckoutEvent, error) {
	var created CheckoutEvent
	err := l.store.WithCirculationLock(func() error {
		if _, err := l.inventory.GetBook(barcode); err != nil {
			return err
		}

		copyID, err := l.inventory.reserveCopyLocked(barcode)
		if err != nil {
			return err
		}

		events, err := l.store.LoadLedger()
		if err != nil {
			l.rollbackReserve(copyID)
			return err
		}

		created = CheckoutEvent{
			CheckoutID:   ulid.MustNew(ulid.Timestamp(today), ulid.DefaultEntropy()).String(),
			UserID:       userID,
			CopyID:       copyID,
			CheckoutDate: today.Format(DateLayout),
			DueDate:      today.AddDate(0, 0, l.loanDays).Format(DateLayout),
		}
		events = append(events, created)

		if err := l.store.SaveLedger(events); err != nil {
			l.rollbackReserve(copyID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("checkout",
		zap.String("checkoutId", created.CheckoutID),
		zap.String("userId", userID),
		zap.String("copyId", created.CopyID),
		zap.String("due", created.DueDate))
	return &created, nil
}

// rollbackReserve undoes a copy reservation when the ledger write fails, so
// the availability counter does not leak. Best effort; a failure here is the
// counter-drift case ReserveCopy already defends against.
func (l *Ledger) rollbackReserve(copyID string) {
	if err := l.inventory.releaseCopyLocked(copyID); err != nil {
		l.logger.Error("reserve rollback failed", zap.String("copyId", copyID), zap.Error(err))
	}
}

// CheckIn records the return of copyID dated today and releases the copy
// back to its entry. When several open events exist for the copy (which
// Checkout itself cannot produce), the earliest checkout wins.
func (l *Ledger) CheckIn(copyID string, today time.Time) (*CheckoutEvent, error) {
	var closed CheckoutEvent
	err := l.store.WithCirculationLock(func() error {
		events, err := l.store.LoadLedger()
		if err != nil {
			return err
		}

		idx := -1
		for i := range events {
			if events[i].CopyID != copyID || !events[i].Open() {
				continue
			}
			if idx < 0 || parseDateOrZero(events[i].CheckoutDate).Before(parseDateOrZero(events[idx].CheckoutDate)) {
				idx = i
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrNotCheckedOut, copyID)
		}

		events[idx].ReturnDate = today.Format(DateLayout)
		closed = events[idx]

		if err := l.store.SaveLedger(events); err != nil {
			return err
		}
		return l.inventory.releaseCopyLocked(copyID)
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("checkin",
		zap.String("checkoutId", closed.CheckoutID),
		zap.String("copyId", copyID),
		zap.String("returned", closed.ReturnDate))
	return &closed, nil
}

// OpenLoans returns every event with no recorded return, in file order.
func (l *Ledger) OpenLoans() ([]CheckoutEvent, error) {
	events, err := l.store.LoadLedger()
	if err != nil {
		return nil, err
	}
	open := []CheckoutEvent{}
	for _, ev := range events {
		if ev.Open() {
			open = append(open, ev)
		}
	}
	return open, nil
}

// AllCheckouts returns the full ledger, unfiltered, in file order.
func (l *Ledger) AllCheckouts() ([]CheckoutEvent, error) {
	return l.store.LoadLedger()
}

// RecentEvents returns a restartable sequence over the n most recent
// activity entries, one per ledger event, with patron names and titles
// resolved. Entries are ordered by event date descending; dates that fail to
// parse sort last; ties keep ledger insertion order.
func (l *Ledger) RecentEvents(n int) (iter.Seq[ActivityEntry], error) {
	events, err := l.store.LoadLedger()
	if err != nil {
		return nil, err
	}
	patrons, err := l.store.LoadPatrons()
	if err != nil {
		return nil, err
	}
	entries, err := l.store.LoadCatalog()
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(patrons))
	for _, p := range patrons {
		names[p.UserID] = p.Name
	}
	titles := make(map[string]string, len(entries))
	for _, e := range entries {
		for _, id := range e.CopyIDs {
			titles[id] = e.Title
		}
	}

	activity := make([]ActivityEntry, 0, len(events))
	for _, ev := range events {
		eventType := EventCheckout
		if !ev.Open() {
			eventType = EventCheckin
		}
		name, ok := names[ev.UserID]
		if !ok {
			name = ev.UserID
		}
		activity = append(activity, ActivityEntry{
			PatronName: name,
			BookTitle:  titles[ev.CopyID],
			CopyID:     ev.CopyID,
			EventType:  eventType,
			EventDate:  ev.EventDate(),
		})
	}

	slices.SortStableFunc(activity, func(a, b ActivityEntry) int {
		return parseDateOrZero(b.EventDate).Compare(parseDateOrZero(a.EventDate))
	})
	if n >= 0 && n < len(activity) {
		activity = activity[:n]
	}

	return func(yield func(ActivityEntry) bool) {
		for _, entry := range activity {
			if !yield(entry) {
				return
			}
		}
	}, nil
}

// parseDateOrZero treats an unparseable date as the earliest possible one.
func parseDateOrZero(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
