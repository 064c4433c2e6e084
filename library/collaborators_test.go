package library

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestEnvAuthGate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	gate := &EnvAuthGate{Username: "admin", PasswordHash: string(hash)}

	if !gate.IsAdmin("admin", "hunter2") {
		t.Fatalf("valid credentials rejected")
	}
	if gate.IsAdmin("admin", "wrong") {
		t.Fatalf("wrong password accepted")
	}
	if gate.IsAdmin("root", "hunter2") {
		t.Fatalf("wrong username accepted")
	}

	empty := &EnvAuthGate{}
	if empty.IsAdmin("", "") {
		t.Fatalf("unconfigured gate must deny everything")
	}
}

func TestOpenLibraryLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "ISBN") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"ISBN:9780441013593":{"title":"Dune","authors":[{"name":"Frank Herbert"}]}}`))
	}))
	defer srv.Close()

	lookup := &OpenLibraryLookup{Client: srv.Client(), BaseURL: srv.URL}

	title, author := lookup.Lookup("9780441013593")
	if title != "Dune" || author != "Frank Herbert" {
		t.Fatalf("got %q / %q", title, author)
	}

	// Unknown ISBN: the payload has no entry under our key.
	title, author = lookup.Lookup("0000000000")
	if title != "" || author != "" {
		t.Fatalf("unknown ISBN must yield empty pair, got %q / %q", title, author)
	}
}

func TestOpenLibraryLookupFailuresCollapseToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	lookup := &OpenLibraryLookup{Client: srv.Client(), BaseURL: srv.URL}

	if title, author := lookup.Lookup("123"); title != "" || author != "" {
		t.Fatalf("server error must yield empty pair")
	}

	srv.Close()
	// Connection refused after close.
	if title, author := lookup.Lookup("123"); title != "" || author != "" {
		t.Fatalf("network error must yield empty pair")
	}
}

func TestSMTPMailerUnconfigured(t *testing.T) {
	m := &SMTPMailer{}
	if err := m.Send("a@example.com", "s", "b"); !errors.Is(err, ErrMailerNotConfigured) {
		t.Fatalf("want ErrMailerNotConfigured, got %v", err)
	}
}

func TestStdinScanner(t *testing.T) {
	var out strings.Builder

	s := &StdinScanner{In: strings.NewReader("  9780441013593 \n"), Out: &out}
	code, ok := s.Scan()
	if !ok || code != "9780441013593" {
		t.Fatalf("got %q ok=%v", code, ok)
	}

	s = &StdinScanner{In: strings.NewReader("\n"), Out: &out}
	if _, ok := s.Scan(); ok {
		t.Fatalf("blank line must mean no barcode")
	}

	s = &StdinScanner{In: strings.NewReader(""), Out: &out}
	if _, ok := s.Scan(); ok {
		t.Fatalf("EOF must mean no barcode")
	}
}
