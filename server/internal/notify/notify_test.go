package notify

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ttlpool/ttlpool/pkg/types"
)

// counting counts EntryRemoved calls and ignores everything else.
type counting struct {
	removed int
	panics  bool
}

func (c *counting) CollectorStarted(time.Duration)      {}
func (c *counting) CollectorStopped()                   {}
func (c *counting) SweepStarted(types.SweepKind)        {}
func (c *counting) EntryInserted(string, time.Duration) {}
func (c *counting) EntryDeleted(string)                 {}
func (c *counting) EntryRemoved(string, types.SweepKind) {
	if c.panics {
		panic("counting: boom")
	}
	c.removed++
}

func TestMulti_DeliversToAll(t *testing.T) {
	a, b := &counting{}, &counting{}
	m := Multi{a, nil, b}

	m.EntryRemoved("x", types.SweepPeriodic)

	if a.removed != 1 || b.removed != 1 {
		t.Errorf("removed: got a=%d b=%d, want 1 each", a.removed, b.removed)
	}
}

func TestMulti_IsolatesPanics(t *testing.T) {
	bad, good := &counting{panics: true}, &counting{}
	m := Multi{bad, good}

	m.EntryRemoved("x", types.SweepReactive)

	if good.removed != 1 {
		t.Errorf("good notifier: got %d calls, want 1", good.removed)
	}
}

func TestLog_WritesStructuredRecords(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(slog.New(slog.NewJSONHandler(&buf, nil)))

	l.EntryRemoved("abc", types.SweepReactive)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v (line: %s)", err, buf.String())
	}
	if rec["id"] != "abc" {
		t.Errorf("id: got %v, want abc", rec["id"])
	}
	if rec["kind"] != "reactive" {
		t.Errorf("kind: got %v, want reactive", rec["kind"])
	}
	if msg, _ := rec["msg"].(string); !strings.Contains(msg, "removed expired entry") {
		t.Errorf("msg: got %q", msg)
	}
}

func TestLog_AllNotifications(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(slog.New(slog.NewTextHandler(&buf, nil)))

	l.CollectorStarted(30 * time.Second)
	l.SweepStarted(types.SweepPeriodic)
	l.EntryInserted("id1", time.Second)
	l.EntryDeleted("id1")
	l.CollectorStopped()

	if n := strings.Count(buf.String(), "\n"); n != 5 {
		t.Errorf("log lines: got %d, want 5\n%s", n, buf.String())
	}
}
