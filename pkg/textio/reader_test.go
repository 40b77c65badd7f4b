package textio

import (
	"KeyFold/internal/model"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSplitWords(t *testing.T) {
	got := SplitWords("Hello, World! hello-again 42 pyspark")
	want := []string{"hello", "world", "hello", "again", "pyspark"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitWords: expected %v, got %v", want, got)
	}
}

func TestReader_ReadWords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	content := "to be or not to be\nthat is the question\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("Failed to create reader: %v", err)
	}
	defer reader.Close()

	out := make(chan *model.Event, 64)
	errChan := make(chan error, 1)
	go func() {
		errChan <- reader.ReadWords(out)
	}()

	counts := make(map[string]int)
	for event := range out {
		if event.Value != 1 {
			t.Errorf("Expected unit value, got %v", event.Value)
		}
		counts[event.Key]++
	}
	if err := <-errChan; err != nil {
		t.Fatalf("ReadWords failed: %v", err)
	}

	if counts["to"] != 2 || counts["be"] != 2 || counts["question"] != 1 {
		t.Errorf("Unexpected word counts: %v", counts)
	}
	if len(counts) != 8 {
		t.Errorf("Expected 8 distinct words, got %d", len(counts))
	}
}

func TestNewReader_MissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("Expected error for missing file, got nil")
	}
}
