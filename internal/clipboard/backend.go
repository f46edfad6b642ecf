package clipboard

import (
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
)

// Backend reads and writes plain clipboard text.
type Backend interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemBackend talks to the OS clipboard.
type SystemBackend struct{}

func (SystemBackend) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// ReadAll prefers pbpaste's plain-text flavour on macOS, where rich
// clipboard owners otherwise hand back RTF.
func (SystemBackend) ReadAll() (string, error) {
	if runtime.GOOS == "darwin" {
		if out, err := exec.Command("pbpaste", "-Prefer", "txt").Output(); err == nil {
			return cleanText(string(out)), nil
		}
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", err
	}
	return cleanText(text), nil
}

// MemoryBackend is a process-local clipboard.
type MemoryBackend struct {
	mu   sync.Mutex
	text string
}

func (m *MemoryBackend) ReadAll() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *MemoryBackend) WriteAll(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

func isHTML(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, "<") &&
		(strings.Contains(t, "<html") || strings.Contains(t, "<body") || strings.Contains(t, "<div") || strings.Contains(t, "<pre"))
}

func stripTags(html string) string {
	var b strings.Builder
	b.Grow(len(html))
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
		"&amp;", "&",
	).Replace(b.String())
}

// cleanText unwraps HTML clipboard flavours, drops control characters,
// and normalizes line endings.
func cleanText(text string) string {
	if text == "" {
		return text
	}
	if isHTML(text) {
		text = stripTags(text)
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' || r >= 32 {
			b.WriteRune(r)
		}
	}
	out := strings.ReplaceAll(b.String(), "\r\n", "\n")
	return strings.ReplaceAll(out, "\r", "\n")
}
