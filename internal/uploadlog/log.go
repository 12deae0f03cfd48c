package uploadlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TimestampLayout renders the attempt time with the schedule's zone label.
const TimestampLayout = "2006-01-02 15:04:05 MST"

// Status is the outcome recorded for an attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Columns is the header row, in file order.
var Columns = []string{
	"timestamp",
	"upload_time_slot",
	"video_filename",
	"video_size_mb",
	"video_duration_sec",
	"youtube_video_id",
	"youtube_url",
	"title",
	"description_preview",
	"upload_status",
	"error_message",
	"file_hash",
}

// Entry is one upload attempt. Rows are immutable once written.
type Entry struct {
	Timestamp          string
	Slot               string
	VideoFilename      string
	VideoSizeMB        float64
	VideoDurationSec   float64
	YouTubeVideoID     string
	YouTubeURL         string
	Title              string
	DescriptionPreview string
	Status             Status
	ErrorMessage       string
	FileHash           string
}

// NewEntry starts a failed entry for slot at the given time. The workflow
// promotes it to success only after the upload call returns an id.
func NewEntry(at time.Time, slot string) Entry {
	return Entry{
		Timestamp: at.Format(TimestampLayout),
		Slot:      slot,
		Status:    StatusFailed,
	}
}

// Succeeded reports whether the attempt uploaded a video.
func (e Entry) Succeeded() bool {
	return e.Status == StatusSuccess
}

func (e Entry) record() []string {
	return []string{
		e.Timestamp,
		e.Slot,
		e.VideoFilename,
		formatRounded(e.VideoSizeMB),
		formatRounded(e.VideoDurationSec),
		e.YouTubeVideoID,
		e.YouTubeURL,
		e.Title,
		e.DescriptionPreview,
		string(e.Status),
		e.ErrorMessage,
		e.FileHash,
	}
}

func parseRecord(header map[string]int, rec []string) Entry {
	get := func(name string) string {
		idx, ok := header[name]
		if !ok || idx >= len(rec) {
			return ""
		}
		return rec[idx]
	}
	size, _ := strconv.ParseFloat(get("video_size_mb"), 64)
	duration, _ := strconv.ParseFloat(get("video_duration_sec"), 64)
	return Entry{
		Timestamp:          get("timestamp"),
		Slot:               get("upload_time_slot"),
		VideoFilename:      get("video_filename"),
		VideoSizeMB:        size,
		VideoDurationSec:   duration,
		YouTubeVideoID:     get("youtube_video_id"),
		YouTubeURL:         get("youtube_url"),
		Title:              get("title"),
		DescriptionPreview: get("description_preview"),
		Status:             Status(get("upload_status")),
		ErrorMessage:       get("error_message"),
		FileHash:           get("file_hash"),
	}
}

// Round2 rounds to two decimals, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatRounded(v float64) string {
	return strconv.FormatFloat(Round2(v), 'f', -1, 64)
}

// DescriptionPreview keeps the first 100 characters and marks truncation.
func DescriptionPreview(description string) string {
	runes := []rune(description)
	if len(runes) <= 100 {
		return description
	}
	return string(runes[:100]) + "..."
}

// Log appends attempts to a CSV file.
type Log struct {
	path string
	mu   sync.Mutex
}

// New returns a log backed by path. The file is created on first Append.
func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the CSV location.
func (l *Log) Path() string {
	return l.path
}

// Append writes exactly one row, preceded by the header when the file is
// new or empty.
func (l *Log) Append(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create upload log directory: %w", err)
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open upload log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat upload log: %w", err)
	}
	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(Columns); err != nil {
			return fmt.Errorf("write upload log header: %w", err)
		}
	}
	if err := w.Write(entry.record()); err != nil {
		return fmt.Errorf("write upload log row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush upload log: %w", err)
	}
	return nil
}

// ReadAll returns every entry in file order. A missing file yields no entries.
func (l *Log) ReadAll() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open upload log: %w", err)
	}
	defer file.Close()
	return Read(file)
}

// Read parses CSV rows keyed by the header line.
func Read(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	headerRow, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read upload log header: %w", err)
	}
	header := make(map[string]int, len(headerRow))
	for i, name := range headerRow {
		header[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	var entries []Entry
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return entries, fmt.Errorf("read upload log row %d: %w", len(entries)+1, err)
		}
		entries = append(entries, parseRecord(header, rec))
	}
	return entries, nil
}

// Tail returns the last n entries; n <= 0 returns all of them.
func Tail(entries []Entry, n int) []Entry {
	if n <= 0 || len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

// Last returns the most recent entry, if any.
func (l *Log) Last() (Entry, bool, error) {
	entries, err := l.ReadAll()
	if err != nil || len(entries) == 0 {
		return Entry{}, false, err
	}
	return entries[len(entries)-1], true, nil
}
