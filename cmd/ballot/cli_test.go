package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alfredjeanlab/ballot/internal/events"
	"github.com/alfredjeanlab/ballot/internal/identity"
	"github.com/alfredjeanlab/ballot/internal/model"
	"github.com/alfredjeanlab/ballot/internal/server"
	"github.com/alfredjeanlab/ballot/internal/store/storetest"
)

// startHTTPServer serves an empty in-memory ledger over httptest.
func startHTTPServer(t *testing.T) string {
	t.Helper()
	srv, err := server.NewLedgerServer(context.Background(), storetest.New(), &events.NoopPublisher{})
	if err != nil {
		t.Fatalf("NewLedgerServer: %v", err)
	}
	ts := httptest.NewServer(srv.NewHTTPHandler(identity.HeaderResolver{}))
	t.Cleanup(ts.Close)
	return ts.URL
}

// runCLI executes the root command against url as caller who. Flags keep
// their values between runs, so the common ones are always passed.
func runCLI(t *testing.T, url, who string, asJSON bool, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	full := []string{"--transport", "http", "--http-url", url, "--actor", who, "--token", "", "--no-color"}
	if asJSON {
		full = append(full, "--json")
	} else {
		full = append(full, "--json=false")
	}
	rootCmd.SetArgs(append(full, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func mustRunCLI(t *testing.T, url, who string, asJSON bool, args ...string) string {
	t.Helper()
	out, err := runCLI(t, url, who, asJSON, args...)
	if err != nil {
		t.Fatalf("ballot %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestCLI_Flow(t *testing.T) {
	url := startHTTPServer(t)

	if out := mustRunCLI(t, url, "alice", false, "init", "--owner", "alice"); !strings.Contains(out, "owner alice") {
		t.Errorf("init output = %q", out)
	}
	if out := mustRunCLI(t, url, "alice", false, "create", "Art Show", "--budget", "200", "-d", "gallery"); !strings.Contains(out, "created event 0") {
		t.Errorf("create output = %q", out)
	}
	mustRunCLI(t, url, "carol", false, "create", "Picnic", "--budget", "340282366920938463463374607431768211455")

	if out := mustRunCLI(t, url, "bob", false, "vote", "0"); !strings.Contains(out, "(1 votes)") {
		t.Errorf("vote output = %q", out)
	}
	mustRunCLI(t, url, "bob", false, "vote", "0")

	if out := mustRunCLI(t, url, "bob", false, "count"); strings.TrimSpace(out) != "2" {
		t.Errorf("count output = %q, want 2", out)
	}

	out := mustRunCLI(t, url, "bob", false, "list")
	for _, want := range []string{"Art Show", "Picnic", "340282366920938463463374607431768211455", "2 events"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}

	out = mustRunCLI(t, url, "bob", false, "show", "0")
	for _, want := range []string{"Art Show", "gallery", "alice", "bob, bob"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	var votes struct {
		TotalVotes int64            `json:"total_votes"`
		Votes      []model.Identity `json:"votes"`
	}
	if err := json.Unmarshal([]byte(mustRunCLI(t, url, "bob", true, "votes", "0")), &votes); err != nil {
		t.Fatalf("decode votes: %v", err)
	}
	if votes.TotalVotes != 2 || len(votes.Votes) != 2 {
		t.Errorf("votes = %+v", votes)
	}

	var all []*model.Notification
	if err := json.Unmarshal([]byte(mustRunCLI(t, url, "bob", true, "notifications")), &all); err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("got %d notifications, want 5 (init, 2 events, 2 votes)", len(all))
	}

	var filtered []*model.Notification
	if err := json.Unmarshal([]byte(mustRunCLI(t, url, "bob", true, "notifications", "--event", "0")), &filtered); err != nil {
		t.Fatalf("decode filtered notifications: %v", err)
	}
	if len(filtered) != 3 {
		t.Errorf("got %d notifications for event 0, want 3", len(filtered))
	}
}

func TestCLI_Errors(t *testing.T) {
	url := startHTTPServer(t)

	if _, err := runCLI(t, url, "alice", false, "create", "Early"); err == nil {
		t.Error("create before init should fail")
	}
	mustRunCLI(t, url, "alice", false, "init", "--owner", "alice")

	tests := []struct {
		name string
		who  string
		args []string
		want string
	}{
		{"second init", "alice", []string{"init", "--owner", "mallory"}, "HTTP 409"},
		{"vote unknown", "bob", []string{"vote", "7"}, "HTTP 404"},
		{"vote negative", "bob", []string{"vote", "--", "-1"}, "HTTP 404"},
		{"show non-numeric", "bob", []string{"show", "abc"}, "invalid event id"},
		{"bad budget", "alice", []string{"create", "X", "--budget=-5"}, "invalid --budget"},
		{"anonymous vote", "", []string{"vote", "0"}, "HTTP 401"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, url, tt.who, false, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestCLI_Export(t *testing.T) {
	url := startHTTPServer(t)

	if _, err := runCLI(t, url, "alice", false, "export"); err == nil {
		t.Error("export before init should fail")
	}

	mustRunCLI(t, url, "alice", false, "init", "--owner", "alice")
	mustRunCLI(t, url, "alice", false, "create", "Art Show", "--budget", "200")

	out := mustRunCLI(t, url, "alice", false, "export")
	sc := bufio.NewScanner(strings.NewReader(out))
	var lines []string
	for sc.Scan() {
		if sc.Text() != "" {
			lines = append(lines, sc.Text())
		}
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + 1 event:\n%s", len(lines), out)
	}
	var header struct {
		Owner      string `json:"owner"`
		EventCount int    `json:"event_count"`
		Digest     string `json:"digest"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &header); err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if header.Owner != "alice" || header.EventCount != 1 || !strings.HasPrefix(header.Digest, "sha256:") {
		t.Errorf("header = %+v", header)
	}
}

func TestCLI_Health(t *testing.T) {
	url := startHTTPServer(t)
	if out := mustRunCLI(t, url, "", false, "health"); !strings.Contains(out, "Health: ok") {
		t.Errorf("health output = %q", out)
	}
}

func TestCLI_UnknownTransport(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"--transport", "carrier-pigeon", "count"})
	err := rootCmd.Execute()
	rootCmd.SetArgs([]string{"--transport", "http"})
	if err == nil || !strings.Contains(err.Error(), "unknown transport") {
		t.Fatalf("err = %v, want unknown transport", err)
	}
}
