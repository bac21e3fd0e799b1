package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"ridepay/internal/domain"
)

func TestPrintFailures(t *testing.T) {
	var buf bytes.Buffer
	err := printFailures(&buf, []*domain.SettlementFailure{{
		IntentID:    "pi_1",
		PayerID:     "p1",
		PendingKey:  "key-1",
		AmountMinor: 1250,
		Reason:      domain.FailurePendingNotFound,
		CreatedAt:   time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", buf.String())
	}
	for _, want := range []string{"pi_1", "key-1", "1250", string(domain.FailurePendingNotFound), "2024-05-01 09:30:00"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("expected row to contain %q, got %q", want, lines[1])
		}
	}
	if !strings.Contains(lines[1], " - ") {
		t.Errorf("expected missing ride to print as dash, got %q", lines[1])
	}
}

func TestPrintFailures_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := printFailures(&buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "no unresolved failures" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"failures", "list"},
		{"failures", "resolve"},
		{"pending", "sweep"},
		{"migrate"},
	} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("expected command %v, got %v (%v)", path, cmd, err)
		}
	}

	flag := pendingSweepCmd.Flags().Lookup("older-than")
	if flag == nil || flag.DefValue != "24h0m0s" {
		t.Errorf("unexpected older-than flag %+v", flag)
	}
}
