package library

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/smtp"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/crypto/bcrypt"
)

// Scanner produces a barcode string, or nothing. The webcam capture of the
// original system collapses to this.
type Scanner interface {
	Scan() (string, bool)
}

// StdinScanner prompts for a barcode on the terminal.
type StdinScanner struct {
	In  io.Reader
	Out io.Writer
}

// Scan reads one line; a blank line means no barcode.
func (s *StdinScanner) Scan() (string, bool) {
	fmt.Fprint(s.Out, "Barcode: ")
	r := bufio.NewScanner(s.In)
	if !r.Scan() {
		return "", false
	}
	code := strings.TrimSpace(r.Text())
	return code, code != ""
}

// MetadataLookup resolves an ISBN to an optional (title, author) pair. Any
// failure collapses to two empty strings.
type MetadataLookup interface {
	Lookup(isbn string) (title, author string)
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OpenLibraryLookup queries the Open Library books API.
type OpenLibraryLookup struct {
	Client  *http.Client
	BaseURL string
}

// NewOpenLibraryLookup returns a lookup with a bounded request timeout.
func NewOpenLibraryLookup() *OpenLibraryLookup {
	return &OpenLibraryLookup{
		Client:  &http.Client{Timeout: 5 * time.Second},
		BaseURL: "https://openlibrary.org",
	}
}

// Lookup fetches title and first author for isbn. Network errors, bad
// status, decode failures and unknown ISBNs all return empty strings.
func (o *OpenLibraryLookup) Lookup(isbn string) (title, author string) {
	key := "ISBN:" + isbn
	reqURL := fmt.Sprintf("%s/api/books?bibkeys=%s&format=json&jscmd=data",
		o.BaseURL, url.QueryEscape(key))

	resp, err := o.Client.Get(reqURL)
	if err != nil {
		return "", ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", ""
	}

	var payload map[string]struct {
		Title   string `json:"title"`
		Authors []struct {
			Name string `json:"name"`
		} `json:"authors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", ""
	}

	book, ok := payload[key]
	if !ok {
		return "", ""
	}
	if len(book.Authors) > 0 {
		author = book.Authors[0].Name
	}
	return book.Title, author
}

// Mailer delivers one message. A nil error means delivered.
type Mailer interface {
	Send(to, subject, body string) error
}

// ErrMailerNotConfigured is returned when SMTP settings are missing.
var ErrMailerNotConfigured = errors.New("mailer not configured")

// SMTPMailer submits mail over SMTP with STARTTLS, the way the original
// system talked to its mail provider.
type SMTPMailer struct {
	Host     string
	Port     string
	Sender   string
	Password string
}

// Send submits one plain-text message.
func (m *SMTPMailer) Send(to, subject, body string) error {
	if m.Host == "" || m.Sender == "" {
		return ErrMailerNotConfigured
	}

	msg := strings.Join([]string{
		"From: " + m.Sender,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	auth := smtp.PlainAuth("", m.Sender, m.Password, m.Host)
	addr := m.Host + ":" + m.Port
	if err := smtp.SendMail(addr, auth, m.Sender, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// AuthGate decides whether the given credentials belong to an
// administrator.
type AuthGate interface {
	IsAdmin(username, password string) bool
}

// EnvAuthGate compares credentials against an env-configured username and
// bcrypt password hash. An unset hash denies everything.
type EnvAuthGate struct {
	Username     string
	PasswordHash string
}

// IsAdmin reports whether the credentials match.
func (g *EnvAuthGate) IsAdmin(username, password string) bool {
	if g.Username == "" || g.PasswordHash == "" {
		return false
	}
	if username != g.Username {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(g.PasswordHash), []byte(password)) == nil
}
