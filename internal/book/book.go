// Package book manages the library of plain-text books.
package book

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/verte-zerg/booktype/internal/model"
)

const ext = ".txt"

var (
	// ErrNotFound is returned when a title has no file in the library.
	ErrNotFound = errors.New("book not found")
	// ErrEmpty is returned when a book has no text after normalization.
	ErrEmpty = errors.New("book is empty")
	// ErrInvalidTitle is returned for titles that are not plain file names.
	ErrInvalidTitle = errors.New("invalid book title")
)

// Path returns the library path of title.
func Path(dir, title string) (string, error) {
	if title == "" || title != filepath.Base(title) || strings.HasPrefix(title, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidTitle, title)
	}
	return filepath.Join(dir, title+ext), nil
}

// Load reads and normalizes a book from the library.
func Load(dir, title string) ([]rune, error) {
	path, err := Path(dir, title)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, title)
		}
		return nil, fmt.Errorf("failed to read book: %w", err)
	}
	text, err := Normalize(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to normalize book: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, title)
	}
	return []rune(text), nil
}

// List returns the books in dir sorted by title. A missing directory is an
// empty library.
func List(dir string) ([]model.BookInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read library: %w", err)
	}
	var books []model.BookInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", name, err)
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		text, err := Normalize(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to normalize %s: %w", name, err)
		}
		books = append(books, model.BookInfo{
			Title:    strings.TrimSuffix(name, ext),
			Path:     path,
			Size:     info.Size(),
			Modified: info.ModTime(),
			Chars:    utf8.RuneCountInString(text),
		})
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books, nil
}

// Import copies src into the library as <stem>.txt. PDF files are converted
// to plain text. It returns the title of the imported book.
func Import(src, dir string) (string, error) {
	title := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	dst, err := Path(dir, title)
	if err != nil {
		return "", err
	}

	var text string
	switch strings.ToLower(filepath.Ext(src)) {
	case ".pdf":
		text, err = extractPDF(src)
	default:
		text, err = readUTF8(src)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmpty, src)
	}
	if err := writeAtomic(dst, text); err != nil {
		return "", err
	}
	return title, nil
}

func readUTF8(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not valid UTF-8", path)
	}
	return string(data), nil
}

func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close for read-only pdf.
			_ = cerr
		}
	}()
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}
	data, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return string(data), nil
}

func writeAtomic(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create library dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".import-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create temp book: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if _, err := writer.WriteString(text); err != nil {
		return fmt.Errorf("failed to write book: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush book: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close book: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write book: %w", err)
	}
	return nil
}
