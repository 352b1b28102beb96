package censor

import (
	"bufio"
	"os"
	"strings"
	"time"
)

// wordFile tracks the optional on-disk word list for hot reloading.
type wordFile struct {
	path  string
	mtime time.Time
}

// AttachFile binds the filter to a word-list file and performs the initial
// load. The file holds one pattern per line; blank lines and lines starting
// with # are ignored. A missing file is not an error — the filter simply
// runs with an empty word list until the file appears.
func (f *Filter) AttachFile(path string) {
	f.mu.Lock()
	f.source = &wordFile{path: path}
	f.mu.Unlock()
	f.maybeReload()
}

// maybeReload re-reads the word file when its modification time changed
// since the last load. Called on every Censor so edits to the word list
// take effect without a restart.
func (f *Filter) maybeReload() {
	f.mu.RLock()
	src := f.source
	f.mu.RUnlock()
	if src == nil {
		return
	}

	info, err := os.Stat(src.path)
	if err != nil {
		return
	}
	if info.ModTime().Equal(src.mtime) {
		return
	}

	words, err := readWords(src.path)
	if err != nil {
		f.logger.Warn("censor: reading word list failed", "path", src.path, "error", err)
		return
	}

	f.SetWords(words)

	f.mu.Lock()
	src.mtime = info.ModTime()
	f.mu.Unlock()

	f.logger.Info("censor: word list loaded", "path", src.path, "words", len(words))
}

// readWords parses a word-list file: one pattern per line, # for comments.
func readWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var words []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, sc.Err()
}
