package main

import (
	"strings"
	"testing"
)

func TestRenderStatusLine(t *testing.T) {
	got := renderStatusLine("Next upload", statusOK, "in 3h", false)
	if !strings.HasPrefix(got, "  Next upload:") || !strings.HasSuffix(got, "[OK] in 3h") {
		t.Fatalf("unexpected line %q", got)
	}
	colored := renderStatusLine("Slots", statusError, "", true)
	if !strings.HasPrefix(colored, "\x1b[31m") || !strings.HasSuffix(colored, "[ERROR]"+ansiReset) {
		t.Fatalf("unexpected colored line %q", colored)
	}
}

func TestStatusKindFromSeverity(t *testing.T) {
	cases := map[string]statusKind{
		"ok":      statusOK,
		"success": statusOK,
		"WARN":    statusWarn,
		"skipped": statusWarn,
		"failed":  statusError,
		"":        statusInfo,
	}
	for in, want := range cases {
		if got := statusKindFromSeverity(in); got != want {
			t.Fatalf("statusKindFromSeverity(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRenderTablePadsRows(t *testing.T) {
	out := renderTable([]string{"Slot", "Rate"}, [][]string{{"07:30"}, {"19:00", "100.0%", "extra"}}, []columnAlignment{alignLeft, alignRight})
	if !strings.Contains(out, "07:30") || !strings.Contains(out, "100.0%") {
		t.Fatalf("missing cells: %s", out)
	}
	if strings.Contains(out, "extra") {
		t.Fatalf("extra cell should be dropped: %s", out)
	}
	if !strings.Contains(out, "╭") {
		t.Fatalf("expected rounded style: %s", out)
	}
}
