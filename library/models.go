package library

import (
	"strings"
	"time"
)

// DateLayout is the on-disk format for all dates. Record structs keep dates
// as strings because the files may be edited by outside tooling; parsing
// happens where a real date is needed.
const DateLayout = "2006-01-02"

// CatalogEntry represents one title, keyed by barcode (ISBN), together with
// its pool of physical copy identifiers and availability counters.
type CatalogEntry struct {
	Barcode         string   `json:"barcode"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	TotalCopies     int      `json:"total_copies"`
	AvailableCopies int      `json:"available_copies"`
	CopyIDs         []string `json:"copy_ids"`
}

// HasCopy reports whether copyID belongs to this entry's pool.
func (e *CatalogEntry) HasCopy(copyID string) bool {
	for _, id := range e.CopyIDs {
		if id == copyID {
			return true
		}
	}
	return false
}

// Matches reports whether the entry's title or author contains term,
// case-insensitively.
func (e *CatalogEntry) Matches(term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(e.Title), term) ||
		strings.Contains(strings.ToLower(e.Author), term)
}

// Patron is a registered library user. Records are immutable after creation.
type Patron struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// CheckoutEvent is one ledger record: a single copy lent to a single patron.
// ReturnDate is empty while the loan is open.
type CheckoutEvent struct {
	CheckoutID   string `json:"checkout_id"`
	UserID       string `json:"user_id"`
	CopyID       string `json:"copy_id"`
	CheckoutDate string `json:"checkout_date"`
	DueDate      string `json:"due_date"`
	ReturnDate   string `json:"return_date"`
}

// Open reports whether the loan has no recorded return.
func (ev *CheckoutEvent) Open() bool { return ev.ReturnDate == "" }

// Due parses the due date.
func (ev *CheckoutEvent) Due() (time.Time, error) {
	return time.Parse(DateLayout, ev.DueDate)
}

// EventDate is the date the ledger row last changed: the return date for a
// finished loan, otherwise the checkout date.
func (ev *CheckoutEvent) EventDate() string {
	if ev.ReturnDate != "" {
		return ev.ReturnDate
	}
	return ev.CheckoutDate
}

// Activity event types.
const (
	EventCheckout = "checkout"
	EventCheckin  = "checkin"
)

// ActivityEntry is one row of the recent-activity feed: a checkout event
// with the patron and title resolved for display.
type ActivityEntry struct {
	PatronName string
	BookTitle  string
	CopyID     string
	EventType  string
	EventDate  string
}
