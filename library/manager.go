package library

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Library wires the store, inventory, ledger and reminder engine together.
// Everything is constructed once here and passed down explicitly; there is
// no package-level state.
type Library struct {
	Store     *Store
	Inventory *Inventory
	Ledger    *Ledger
	Reminders *ReminderEngine
	Metadata  MetadataLookup
	Gate      AuthGate

	logger *zap.Logger
}

// Open builds a Library from config, with the default collaborators (Open
// Library metadata, SMTP mail, env admin gate).
func Open(cfg Config, logger *zap.Logger) (*Library, error) {
	store, err := NewStore(cfg.DataDir, cfg.LockTimeout, logger)
	if err != nil {
		return nil, err
	}

	mailer := &SMTPMailer{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Sender:   cfg.SenderEmail,
		Password: cfg.SenderPassword,
	}

	inventory := NewInventory(store, logger)
	return &Library{
		Store:     store,
		Inventory: inventory,
		Ledger:    NewLedger(store, inventory, cfg.LoanDays, logger),
		Reminders: NewReminderEngine(store, mailer, logger),
		Metadata:  NewOpenLibraryLookup(),
		Gate:      &EnvAuthGate{Username: cfg.AdminUsername, PasswordHash: cfg.AdminPasswordHash},
		logger:    logger,
	}, nil
}

// RegisterPatron creates a patron with a generated short id. Email
// uniqueness is a business rule of registration, not of the store, so it is
// enforced here.
func (lib *Library) RegisterPatron(name, email string) (*Patron, error) {
	email = strings.TrimSpace(email)
	var created Patron
	err := lib.Store.WithPatronsLock(func() error {
		patrons, err := lib.Store.LoadPatrons()
		if err != nil {
			return err
		}

		for _, p := range patrons {
			if strings.EqualFold(p.Email, email) {
				return fmt.Errorf("%w: %s", ErrDuplicateEmail, email)
			}
		}

		created = Patron{
			UserID: newUserID(patrons),
			Name:   name,
			Email:  email,
		}
		return lib.Store.SavePatrons(append(patrons, created))
	})
	if err != nil {
		return nil, err
	}

	lib.logger.Info("patron registered", zap.String("userId", created.UserID))
	return &created, nil
}

// GetPatron returns the patron with the exact user id.
func (lib *Library) GetPatron(userID string) (*Patron, error) {
	patrons, err := lib.Store.LoadPatrons()
	if err != nil {
		return nil, err
	}
	for _, p := range patrons {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPatronNotFound, userID)
}

// AllPatrons returns every registered patron.
func (lib *Library) AllPatrons() ([]Patron, error) {
	return lib.Store.LoadPatrons()
}

// newUserID generates an 8-character token not already taken. Collisions on
// the short prefix are unlikely but cheap to rule out.
func newUserID(existing []Patron) string {
	taken := make(map[string]bool, len(existing))
	for _, p := range existing {
		taken[p.UserID] = true
	}
	for {
		id := uuid.NewString()[:8]
		if !taken[id] {
			return id
		}
	}
}
