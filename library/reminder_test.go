package library

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeMailer records sends and fails for addresses listed in failFor.
type fakeMailer struct {
	sent    []string
	failFor map[string]bool
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.failFor[to] {
		return fmt.Errorf("smtp refused %s", to)
	}
	m.sent = append(m.sent, to)
	return nil
}

func reminderFixture(t *testing.T) (*Store, *ReminderEngine, *fakeMailer) {
	t.Helper()
	store := tempStore(t)
	mailer := &fakeMailer{failFor: map[string]bool{}}
	engine := NewReminderEngine(store, mailer, zap.NewNop())
	return store, engine, mailer
}

func seedLoan(t *testing.T, store *Store, checkoutID, userID, copyID, due string) {
	t.Helper()
	events, err := store.LoadLedger()
	require.NoError(t, err)
	events = append(events, CheckoutEvent{
		CheckoutID:   checkoutID,
		UserID:       userID,
		CopyID:       copyID,
		CheckoutDate: "2025-03-01",
		DueDate:      due,
	})
	require.NoError(t, store.SaveLedger(events))
}

func TestClassifyExactBucketsOnly(t *testing.T) {
	store, engine, _ := reminderFixture(t)

	require.NoError(t, store.SaveCatalog([]CatalogEntry{
		{Barcode: "111", Title: "Dune", Author: "Herbert", TotalCopies: 5, AvailableCopies: 0,
			CopyIDs: []string{"c1", "c2", "c3", "c4", "c5"}},
	}))
	require.NoError(t, store.SavePatrons([]Patron{
		{UserID: "u1", Name: "Alice", Email: "alice@example.com"},
	}))

	today := day(t, "2025-03-10")
	seedLoan(t, store, "k-due3", "u1", "c1", "2025-03-13")  // diff 3
	seedLoan(t, store, "k-due0", "u1", "c2", "2025-03-10")  // diff 0
	seedLoan(t, store, "k-over3", "u1", "c3", "2025-03-07") // diff -3
	seedLoan(t, store, "k-due4", "u1", "c4", "2025-03-14")  // diff 4: skipped
	seedLoan(t, store, "k-over10", "u1", "c5", "2025-02-28")

	reminders, err := engine.Classify(today)
	require.NoError(t, err)
	require.Len(t, reminders, 3)

	byID := map[string]Reminder{}
	for _, r := range reminders {
		byID[r.CheckoutID] = r
	}

	assert.Equal(t, 3, byID["k-due3"].DaysUntilDue)
	assert.Equal(t, "Library Reminder: Book due in 3 days", byID["k-due3"].Subject)
	assert.Contains(t, byID["k-due3"].Body, "due in 3 days")
	assert.Contains(t, byID["k-due3"].Body, "Dune")
	assert.Contains(t, byID["k-due3"].Body, "Alice")

	assert.Equal(t, 0, byID["k-due0"].DaysUntilDue)
	assert.Equal(t, "Library Reminder: Book due today", byID["k-due0"].Subject)

	assert.Equal(t, -3, byID["k-over3"].DaysUntilDue)
	assert.Equal(t, "Library Overdue Notice", byID["k-over3"].Subject)
	assert.Contains(t, byID["k-over3"].Body, "overdue by 3 days")
}

func TestClassifyDueInFourDaysYieldsNothing(t *testing.T) {
	store, engine, _ := reminderFixture(t)

	require.NoError(t, store.SaveCatalog([]CatalogEntry{
		{Barcode: "111", Title: "Dune", TotalCopies: 1, AvailableCopies: 0, CopyIDs: []string{"c1"}},
	}))
	require.NoError(t, store.SavePatrons([]Patron{
		{UserID: "u1", Name: "Alice", Email: "alice@example.com"},
	}))
	seedLoan(t, store, "k1", "u1", "c1", "2025-03-14")

	reminders, err := engine.Classify(day(t, "2025-03-10"))
	require.NoError(t, err)
	assert.Empty(t, reminders)
}

func TestClassifyIgnoresClosedLoans(t *testing.T) {
	store, engine, _ := reminderFixture(t)

	require.NoError(t, store.SaveCatalog([]CatalogEntry{
		{Barcode: "111", Title: "Dune", TotalCopies: 1, AvailableCopies: 1, CopyIDs: []string{"c1"}},
	}))
	require.NoError(t, store.SavePatrons([]Patron{
		{UserID: "u1", Name: "Alice", Email: "alice@example.com"},
	}))
	require.NoError(t, store.SaveLedger([]CheckoutEvent{
		{CheckoutID: "k1", UserID: "u1", CopyID: "c1",
			CheckoutDate: "2025-03-01", DueDate: "2025-03-10", ReturnDate: "2025-03-05"},
	}))

	reminders, err := engine.Classify(day(t, "2025-03-10"))
	require.NoError(t, err)
	assert.Empty(t, reminders)
}

func TestClassifySkipsUnresolvableRows(t *testing.T) {
	store, engine, _ := reminderFixture(t)

	require.NoError(t, store.SaveCatalog([]CatalogEntry{
		{Barcode: "111", Title: "Dune", TotalCopies: 2, AvailableCopies: 0, CopyIDs: []string{"c1", "c2"}},
	}))
	require.NoError(t, store.SavePatrons([]Patron{
		{UserID: "u1", Name: "Alice", Email: "alice@example.com"},
		{UserID: "u2", Name: "NoMail", Email: ""},
	}))

	due := "2025-03-13"
	seedLoan(t, store, "k-ok", "u1", "c1", due)
	seedLoan(t, store, "k-no-email", "u2", "c2", due)
	seedLoan(t, store, "k-no-patron", "ghost", "c2", due)
	seedLoan(t, store, "k-no-book", "u1", "orphan-copy", due)
	seedLoan(t, store, "k-bad-date", "u1", "c1", "someday")

	reminders, err := engine.Classify(day(t, "2025-03-10"))
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, "k-ok", reminders[0].CheckoutID)
	assert.Equal(t, "alice@example.com", reminders[0].RecipientEmail)
}

func TestRunContinuesPastDeliveryFailures(t *testing.T) {
	store, engine, mailer := reminderFixture(t)
	mailer.failFor["bob@example.com"] = true

	require.NoError(t, store.SaveCatalog([]CatalogEntry{
		{Barcode: "111", Title: "Dune", TotalCopies: 3, AvailableCopies: 0, CopyIDs: []string{"c1", "c2", "c3"}},
	}))
	require.NoError(t, store.SavePatrons([]Patron{
		{UserID: "u1", Name: "Alice", Email: "alice@example.com"},
		{UserID: "u2", Name: "Bob", Email: "bob@example.com"},
		{UserID: "u3", Name: "Carol", Email: "carol@example.com"},
	}))
	seedLoan(t, store, "k1", "u1", "c1", "2025-03-13")
	seedLoan(t, store, "k2", "u2", "c2", "2025-03-13")
	seedLoan(t, store, "k3", "u3", "c3", "2025-03-13")

	results, err := engine.Run(day(t, "2025-03-10"))
	require.NoError(t, err)
	require.Len(t, results, 3, "one result per actionable event")

	delivered := 0
	for _, res := range results {
		if res.Delivered() {
			delivered++
		} else {
			assert.Equal(t, "bob@example.com", res.Reminder.RecipientEmail)
		}
	}
	assert.Equal(t, 2, delivered)
	assert.Equal(t, []string{"alice@example.com", "carol@example.com"}, mailer.sent)
}

func TestRunWithNothingDue(t *testing.T) {
	_, engine, mailer := reminderFixture(t)

	results, err := engine.Run(time.Now())
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, mailer.sent)
}
