package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Chunk is a batch of complete lines and the offset just past them.
type Chunk struct {
	Lines  []string
	Offset int64
}

// Tail returns up to limit trailing lines of path. A missing file is not an
// error; it yields an empty chunk at offset 0. limit <= 0 returns no lines
// and the current end of file, for follow-only callers.
func Tail(path string, limit int) (Chunk, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Chunk{}, nil
		}
		return Chunk{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Chunk{}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return Chunk{}, fmt.Errorf("log path %q is a directory", path)
	}
	if limit <= 0 {
		return Chunk{Offset: info.Size()}, nil
	}

	ring := make([]string, limit)
	count, next := 0, 0
	var offset int64
	err = scanLines(file, func(line string, end int64) {
		ring[next] = line
		next = (next + 1) % limit
		if count < limit {
			count++
		}
		offset = end
	})
	if err != nil {
		return Chunk{}, err
	}

	lines := make([]string, 0, count)
	start := 0
	if count == limit {
		start = next
	}
	for i := range count {
		lines = append(lines, ring[(start+i)%limit])
	}
	return Chunk{Lines: lines, Offset: offset}, nil
}

// Read returns the complete lines written after offset. A partially written
// last line is left for the next read. When the file is now shorter than
// offset it is read from the start.
func Read(path string, offset int64) (Chunk, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Chunk{}, nil
		}
		return Chunk{Offset: offset}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Chunk{Offset: offset}, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return Chunk{Offset: offset}, fmt.Errorf("seek log file: %w", err)
	}

	chunk := Chunk{Offset: offset}
	err = scanLines(file, func(line string, end int64) {
		chunk.Lines = append(chunk.Lines, line)
		chunk.Offset = offset + end
	})
	return chunk, err
}

// Follow polls path every interval starting at offset and calls emit with
// each non-empty batch. It returns the context's error when ctx ends.
func Follow(ctx context.Context, path string, offset int64, interval time.Duration, emit func([]string)) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		chunk, err := Read(path, offset)
		if err != nil {
			return err
		}
		offset = chunk.Offset
		if len(chunk.Lines) > 0 {
			emit(chunk.Lines)
		}
	}
}

// scanLines calls fn for every newline-terminated line with the byte offset
// just past its newline, relative to r's starting position. A trailing
// partial line is not reported.
func scanLines(r io.Reader, fn func(line string, end int64)) error {
	reader := bufio.NewReaderSize(r, 64*1024)
	var pos int64
	for {
		raw, err := reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read log file: %w", err)
		}
		pos += int64(len(raw))
		line := raw[:len(raw)-1]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		fn(string(line), pos)
	}
}
