package invoices

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

var (
	ErrNotFound        = errors.New("invoice not found")
	ErrInvalidFileName = errors.New("invalid invoice file name")
)

var fileNamePattern = regexp.MustCompile(`^invoice-([1-9][0-9]*)\.pdf$`)

// Store keeps one PDF per order under Dir.
type Store struct {
	Dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create invoice dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

func FileName(orderID int64) string {
	return fmt.Sprintf("invoice-%d.pdf", orderID)
}

// ParseFileName returns the order id encoded in an invoice file name.
func ParseFileName(name string) (int64, error) {
	m := fileNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, ErrInvalidFileName
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, ErrInvalidFileName
	}
	return id, nil
}

// Save writes data through a temp file and a rename, so readers never see
// a partial invoice.
func (s *Store) Save(orderID int64, data []byte) (string, error) {
	tmp, err := os.CreateTemp(s.Dir, ".invoice-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp invoice: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write invoice: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close invoice: %w", err)
	}

	path := filepath.Join(s.Dir, FileName(orderID))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to store invoice: %w", err)
	}
	return path, nil
}

// Path returns the location of an order's invoice, or ErrNotFound.
func (s *Store) Path(orderID int64) (string, error) {
	path := filepath.Join(s.Dir, FileName(orderID))
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return path, nil
}
