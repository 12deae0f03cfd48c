package uploadlog

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// SlotStats counts attempts for one slot.
type SlotStats struct {
	Slot    string
	Total   int
	Success int
}

// Rate is the slot's success percentage.
func (s SlotStats) Rate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Success) / float64(s.Total) * 100
}

// Stats summarizes the upload history.
type Stats struct {
	Total       int
	Successful  int
	Failed      int
	SuccessRate float64
	UploadedMB  float64
	Slots       []SlotStats
	// RecentSuccesses holds up to five successes from the last ten attempts.
	RecentSuccesses []Entry
}

// ComputeStats aggregates entries. Slots are ordered by HH:MM.
func ComputeStats(entries []Entry) Stats {
	stats := Stats{Total: len(entries)}
	bySlot := map[string]*SlotStats{}
	for _, entry := range entries {
		slot := bySlot[entry.Slot]
		if slot == nil {
			slot = &SlotStats{Slot: entry.Slot}
			bySlot[entry.Slot] = slot
		}
		slot.Total++
		if entry.Succeeded() {
			stats.Successful++
			slot.Success++
			stats.UploadedMB += entry.VideoSizeMB
		}
	}
	stats.Failed = stats.Total - stats.Successful
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Successful) / float64(stats.Total) * 100
	}
	stats.UploadedMB = Round2(stats.UploadedMB)

	for _, slot := range bySlot {
		stats.Slots = append(stats.Slots, *slot)
	}
	sort.Slice(stats.Slots, func(i, j int) bool { return stats.Slots[i].Slot < stats.Slots[j].Slot })

	var recent []Entry
	for _, entry := range Tail(entries, 10) {
		if entry.Succeeded() {
			recent = append(recent, entry)
		}
	}
	stats.RecentSuccesses = Tail(recent, 5)
	return stats
}

// ExportFileName names a text export generated at now.
func ExportFileName(now time.Time) string {
	return "upload_log_export_" + now.Format("20060102_150405") + ".txt"
}

// Export writes the plain-text report of every entry.
func Export(w io.Writer, entries []Entry, now time.Time) error {
	rule := strings.Repeat("=", 50)
	sep := strings.Repeat("-", 50)
	var b strings.Builder
	b.WriteString("breathein Upload Log Export\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Generated: %s\n", now.Format(time.DateTime))
	fmt.Fprintf(&b, "Total entries: %d\n\n", len(entries))
	for i, entry := range entries {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, entry.Timestamp, entry.Slot)
		fmt.Fprintf(&b, "   Status: %s\n", entry.Status)
		fmt.Fprintf(&b, "   Title: %s\n", oneLine(entry.Title))
		if entry.Succeeded() {
			fmt.Fprintf(&b, "   YouTube: %s\n", entry.YouTubeURL)
		} else {
			fmt.Fprintf(&b, "   Error: %s\n", entry.ErrorMessage)
		}
		fmt.Fprintf(&b, "   File: %s (%s MB)\n", entry.VideoFilename, formatRounded(entry.VideoSizeMB))
		b.WriteString(sep + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
