package scancache

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/grupoeventa/comprobantes/internal/common"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache-test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSeenAndRecord(t *testing.T) {
	c := newTestCache(t)

	seen, err := c.Seen("abc123")
	if err != nil {
		t.Fatalf("Seen: %v", err)
	}
	if seen {
		t.Fatal("unrecorded hash reported as seen")
	}

	if err := c.Record("abc123", "ticket.jpg", "TICKET", 87); err != nil {
		t.Fatalf("Record: %v", err)
	}

	seen, err = c.Seen("abc123")
	if err != nil {
		t.Fatalf("Seen: %v", err)
	}
	if !seen {
		t.Fatal("recorded hash not reported as seen")
	}
}

func TestLookup(t *testing.T) {
	c := newTestCache(t)

	if _, err := c.Lookup("missing"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if err := c.Record("abc123", "ticket.jpg", "TICKET", 87); err != nil {
		t.Fatalf("Record: %v", err)
	}

	e, err := c.Lookup("abc123")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if e.FileName != "ticket.jpg" || e.Kind != "TICKET" || e.Confidence != 87 {
		t.Errorf("entry = %+v", e)
	}
}

func TestRecordReplacesSameHash(t *testing.T) {
	c := newTestCache(t)

	if err := c.Record("abc123", "ticket.jpg", "UNKNOWN", 40); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := c.Record("abc123", "ticket.jpg", "TICKET", 91); err != nil {
		t.Fatalf("Record: %v", err)
	}

	e, err := c.Lookup("abc123")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if e.Kind != "TICKET" || e.Confidence != 91 {
		t.Errorf("entry = %+v, want replaced values", e)
	}

	entries, err := c.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("len(entries) = %d, want 1", len(entries))
	}
}

func TestRecent(t *testing.T) {
	c := newTestCache(t)
	for _, h := range []string{"h1", "h2", "h3"} {
		if err := c.Record(h, h+".jpg", "TICKET", 80); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := c.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
}
