package library

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Reminder thresholds, in whole days until the due date. Only exact matches
// are actionable; a loan overdue by four days gets no mail. Narrow on
// purpose: each loan is mailed at most once per bucket.
var reminderBuckets = []int{3, 0, -3}

// Reminder is one deliverable due-date notice.
type Reminder struct {
	CheckoutID     string
	RecipientEmail string
	RecipientName  string
	Subject        string
	Body           string
	DaysUntilDue   int
}

// ReminderResult is the delivery outcome for one reminder.
type ReminderResult struct {
	Reminder Reminder
	Err      error
}

// Delivered reports whether the reminder went out.
func (r ReminderResult) Delivered() bool { return r.Err == nil }

// ReminderEngine scans open loans against a date and mails due-date notices.
type ReminderEngine struct {
	store  *Store
	mailer Mailer
	logger *zap.Logger
}

// NewReminderEngine returns an engine reading through store and delivering
// via mailer.
func NewReminderEngine(store *Store, mailer Mailer, logger *zap.Logger) *ReminderEngine {
	return &ReminderEngine{store: store, mailer: mailer, logger: logger}
}

// Classify returns one reminder for every open loan whose due date is
// exactly 3 days out, today, or 3 days past. Loans whose patron or book
// cannot be resolved, whose patron has no email, or whose due date does not
// parse are skipped silently.
func (re *ReminderEngine) Classify(today time.Time) ([]Reminder, error) {
	events, err := re.store.LoadLedger()
	if err != nil {
		return nil, err
	}
	patrons, err := re.store.LoadPatrons()
	if err != nil {
		return nil, err
	}
	entries, err := re.store.LoadCatalog()
	if err != nil {
		return nil, err
	}

	byUser := make(map[string]Patron, len(patrons))
	for _, p := range patrons {
		byUser[p.UserID] = p
	}
	titleByCopy := make(map[string]string, len(entries))
	for _, e := range entries {
		for _, id := range e.CopyIDs {
			titleByCopy[id] = e.Title
		}
	}

	// Compare whole days: both sides normalized to midnight.
	day, err := time.Parse(DateLayout, today.Format(DateLayout))
	if err != nil {
		return nil, err
	}

	var reminders []Reminder
	for _, ev := range events {
		if !ev.Open() {
			continue
		}
		due, err := ev.Due()
		if err != nil {
			re.logger.Debug("skipping loan with unparseable due date",
				zap.String("checkoutId", ev.CheckoutID),
				zap.String("due", ev.DueDate))
			continue
		}
		diff := int(due.Sub(day).Hours() / 24)
		if !actionable(diff) {
			continue
		}

		patron, ok := byUser[ev.UserID]
		if !ok || patron.Email == "" {
			continue
		}
		title, ok := titleByCopy[ev.CopyID]
		if !ok {
			continue
		}

		subject, body := reminderText(diff, patron.Name, title)
		reminders = append(reminders, Reminder{
			CheckoutID:     ev.CheckoutID,
			RecipientEmail: patron.Email,
			RecipientName:  patron.Name,
			Subject:        subject,
			Body:           body,
			DaysUntilDue:   diff,
		})
	}
	return reminders, nil
}

// Run classifies and delivers, returning one result per reminder. A failed
// send is recorded and the batch continues.
func (re *ReminderEngine) Run(today time.Time) ([]ReminderResult, error) {
	reminders, err := re.Classify(today)
	if err != nil {
		return nil, err
	}

	results := make([]ReminderResult, 0, len(reminders))
	for _, rem := range reminders {
		err := re.mailer.Send(rem.RecipientEmail, rem.Subject, rem.Body)
		if err != nil {
			re.logger.Warn("reminder delivery failed",
				zap.String("to", rem.RecipientEmail),
				zap.String("checkoutId", rem.CheckoutID),
				zap.Error(err))
		}
		results = append(results, ReminderResult{Reminder: rem, Err: err})
	}
	return results, nil
}

func actionable(diff int) bool {
	for _, b := range reminderBuckets {
		if diff == b {
			return true
		}
	}
	return false
}

func reminderText(diff int, name, title string) (subject, body string) {
	switch {
	case diff > 0:
		subject = "Library Reminder: Book due in 3 days"
		body = fmt.Sprintf("Hello %s,\n\nYour book '%s' is due in 3 days.\nRegards,\nLibrary", name, title)
	case diff == 0:
		subject = "Library Reminder: Book due today"
		body = fmt.Sprintf("Hello %s,\n\nYour book '%s' is due today!\nRegards,\nLibrary", name, title)
	default:
		subject = "Library Overdue Notice"
		body = fmt.Sprintf("Hello %s,\n\nYour book '%s' is overdue by 3 days.\nRegards,\nLibrary", name, title)
	}
	return subject, body
}
