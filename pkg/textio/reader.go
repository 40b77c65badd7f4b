// Package textio turns plain text files into keyed events, one unit-valued
// event per word. It is the default producer for word-count style tasks.
package textio

import (
	"bufio"
	"os"
	"strings"
	"time"
	"unicode"

	"KeyFold/internal/model"
)

// Reader reads words from a text file.
type Reader struct {
	file *os.File
}

// NewReader creates a new text reader for the given file path.
func NewReader(filePath string) (*Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	return &Reader{file: file}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() {
	r.file.Close()
}

// SplitWords lowercases a line and splits it on any non-letter rune.
func SplitWords(line string) []string {
	return strings.FieldsFunc(strings.ToLower(line), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// ReadWords scans the file line by line and sends one Event per word, with
// Value 1 and the read time as timestamp. It closes the channel when done
// and returns the scanner error, if any.
func (r *Reader) ReadWords(out chan<- *model.Event) error {
	defer close(out)

	scanner := bufio.NewScanner(r.file)
	for scanner.Scan() {
		now := time.Now()
		for _, word := range SplitWords(scanner.Text()) {
			out <- &model.Event{Key: word, Value: 1, Timestamp: now}
		}
	}
	return scanner.Err()
}
