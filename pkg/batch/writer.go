// Package batch writes groups of transcripts into range-named text files.
package batch

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"podcast-transcripts/pkg/domain"
	"podcast-transcripts/pkg/episode"
)

// DefaultOutputDir is where batch files go when no directory is given.
const DefaultOutputDir = "transcripts"

var ErrNoRecords = errors.New("batch: no records to write")

var rule = strings.Repeat("=", 80)

// Writer writes batch files into Dir.
type Writer struct {
	Dir string
}

func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = DefaultOutputDir
	}
	return &Writer{Dir: dir}
}

// FileName names a batch after its highest and lowest episode numbers, or
// after its size when fewer than two numbers are known.
func FileName(records []domain.TranscriptRecord) string {
	var (
		count  int
		hi, lo int
	)
	for _, r := range records {
		n, ok := episode.Number(r.URL)
		if !ok {
			continue
		}
		if count == 0 || n > hi {
			hi = n
		}
		if count == 0 || n < lo {
			lo = n
		}
		count++
	}

	if count >= 2 {
		return fmt.Sprintf("%d-%d.txt", hi, lo)
	}
	return fmt.Sprintf("episodes_%d.txt", len(records))
}

// Write creates Dir if needed and writes records, in order, to the file named
// by FileName, replacing any existing file. It returns the file path.
func (w *Writer) Write(records []domain.TranscriptRecord) (string, error) {
	if len(records) == 0 {
		return "", ErrNoRecords
	}

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir %q: %w", w.Dir, err)
	}

	path := filepath.Join(w.Dir, FileName(records))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %q: %w", path, err)
	}

	bw := bufio.NewWriter(f)
	for _, r := range records {
		writeRecord(bw, r)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("write %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %q: %w", path, err)
	}
	return path, nil
}

func writeRecord(w *bufio.Writer, r domain.TranscriptRecord) {
	label := "UNKNOWN"
	if n, ok := episode.Number(r.URL); ok {
		label = strconv.Itoa(n)
	}
	fmt.Fprintf(w, "EPISODE %s\n", label)
	fmt.Fprintf(w, "URL: %s\n", r.URL)
	w.WriteString(rule + "\n\n")
	w.WriteString(r.Text)
	w.WriteString("\n\n" + rule + "\n\n")
}
