package censor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newFilter(t *testing.T, words ...string) *Filter {
	t.Helper()
	f := New(nil)
	f.SetWords(words)
	return f
}

func TestCensorCleanTextUnchanged(t *testing.T) {
	t.Parallel()

	f := newFilter(t, "хуй", "блядь")
	got, found := f.Censor("Поздравляю с днём рождения!")
	if found {
		t.Error("clean text flagged")
	}
	if got != "Поздравляю с днём рождения!" {
		t.Errorf("clean text altered: %q", got)
	}
}

func TestCensorReplacesBadWord(t *testing.T) {
	t.Parallel()

	f := newFilter(t, "хуй")
	got, found := f.Censor("текст с хуй")
	if !found {
		t.Error("bad word not flagged")
	}
	if !strings.Contains(got, Placeholder) {
		t.Errorf("placeholder missing: %q", got)
	}
	if strings.Contains(got, "хуй") {
		t.Errorf("bad word survived: %q", got)
	}
}

func TestCensorCaseInsensitive(t *testing.T) {
	t.Parallel()

	f := newFilter(t, "дурак")
	got, found := f.Censor("Ну ты и ДУРАК")
	if !found || strings.Contains(strings.ToLower(got), "дурак") {
		t.Errorf("case-insensitive match failed: %q found=%v", got, found)
	}
}

func TestCensorPhoneAfterTrigger(t *testing.T) {
	t.Parallel()

	f := newFilter(t)

	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"trigger with phone", "Звоните +7 999 123-45-67", true},
		{"телефон trigger", "телефон: 89991234567", true},
		{"bare number without trigger", "дом 12, квартира 89991234567", false},
		{"short number", "звоните 112", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, found := f.Censor(tt.in)
			if found != tt.want {
				t.Fatalf("found = %v, want %v (got %q)", found, tt.want, got)
			}
			if tt.want && !strings.Contains(got, PhonePlaceholder) {
				t.Errorf("phone placeholder missing: %q", got)
			}
		})
	}
}

func TestSetWordsSkipsMalformedPattern(t *testing.T) {
	t.Parallel()

	// "[" does not compile; the valid word must still be applied.
	f := newFilter(t, "[", "дурак")
	got, found := f.Censor("дурак и точка")
	if !found || strings.Contains(got, "дурак") {
		t.Errorf("valid word not applied after malformed skip: %q", got)
	}
}

func TestAttachFileHotReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte("# комментарий\nхуй\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	f := New(nil)
	f.AttachFile(path)

	if _, found := f.Censor("текст с хуй"); !found {
		t.Fatal("word from file not applied")
	}
	if _, found := f.Censor("текст с дурак"); found {
		t.Fatal("word not yet in file was applied")
	}

	// Rewrite the file with a new mtime; next Censor call picks it up.
	if err := os.WriteFile(path, []byte("дурак\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	if _, found := f.Censor("текст с дурак"); !found {
		t.Error("reloaded word list not applied")
	}
}

func TestAttachFileMissingIsHarmless(t *testing.T) {
	t.Parallel()

	f := New(nil)
	f.AttachFile(filepath.Join(t.TempDir(), "missing.txt"))

	got, found := f.Censor("обычный текст")
	if found || got != "обычный текст" {
		t.Errorf("missing file changed behavior: %q found=%v", got, found)
	}
}
