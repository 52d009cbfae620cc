package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConsumerHandleAppendsLines(t *testing.T) {
	dir := t.TempDir()
	c := &Consumer{Dir: dir}

	for _, ev := range []EnrollmentConfirmedEvent{
		{UserID: 1, CourseID: 7, CourseTitle: "Basic Eyebrow Shaping", SessionID: "cs_1", AmountCents: 99900, Currency: "inr", Source: "payment", ConfirmedAt: "2026-01-01T10:00:00Z"},
		{UserID: 2, CourseID: 7, CourseTitle: "Basic Eyebrow Shaping", Source: "admin", ConfirmedAt: "2026-01-01T11:00:00Z"},
	} {
		body, _ := json.Marshal(ev)
		if err := c.Handle(body); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "enrollment.log"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}
	if !strings.Contains(lines[0], "user_id=1") || !strings.Contains(lines[0], "session=cs_1") {
		t.Errorf("line 1: %s", lines[0])
	}
	if !strings.Contains(lines[1], "source=admin") || !strings.Contains(lines[1], "session=-") {
		t.Errorf("line 2: %s", lines[1])
	}
}

func TestConsumerHandleRejectsGarbage(t *testing.T) {
	c := &Consumer{Dir: t.TempDir()}
	if err := c.Handle([]byte("not json")); err == nil {
		t.Fatal("expected error")
	}
}
