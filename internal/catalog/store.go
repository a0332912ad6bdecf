package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned by Delete when no product matches the id.
	ErrNotFound = errors.New("product not found")
	// ErrMissingFields is returned by Add when a required field is empty.
	ErrMissingFields = errors.New("missing required fields")
)

// Store is a flat-file product catalog. Every operation is a full-file
// read or read-modify-write; there is no file locking, so concurrent
// writers from separate processes can lose updates. That is an accepted
// limitation of the single-operator admin workflow.
type Store struct {
	path string

	mu     sync.Mutex
	lastID int64 // last minted id, to keep same-millisecond adds unique
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// List returns every product in the catalog file. A missing or empty file
// is an empty catalog, not an error.
func (s *Store) List() ([]Product, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read catalog file %s: %w", s.path, err)
	}

	if strings.TrimSpace(string(content)) == "" {
		return nil, nil
	}

	var products []Product
	if err := json.Unmarshal(content, &products); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", s.path, err)
	}
	return products, nil
}

// Add validates the payload, assigns a fresh id and rewrites the catalog
// file with the new product appended.
func (s *Store) Add(p NewProduct) (*Product, error) {
	if p.ProductName == "" || p.RackLocation == "" || p.Price == "" {
		return nil, ErrMissingFields
	}

	products, err := s.List()
	if err != nil {
		return nil, err
	}

	product := Product{
		ID:           s.nextID(),
		ProductName:  p.ProductName,
		Quantity:     p.Quantity,
		RackLocation: p.RackLocation,
		Price:        p.Price,
	}

	products = append(products, product)
	if err := s.write(products); err != nil {
		return nil, err
	}
	return &product, nil
}

// Delete removes the product with the given id, rewriting the file with
// the filtered list. ErrNotFound is returned when nothing matched and the
// file is left untouched.
func (s *Store) Delete(id string) error {
	products, err := s.List()
	if err != nil {
		return err
	}

	filtered := make([]Product, 0, len(products))
	for _, p := range products {
		if p.ID != id {
			filtered = append(filtered, p)
		}
	}

	if len(filtered) == len(products) {
		return ErrNotFound
	}

	return s.write(filtered)
}

func (s *Store) write(products []Product) error {
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog file %s: %w", s.path, err)
	}
	return nil
}

// nextID derives an id from the creation time. Two adds can land in the
// same millisecond, so the previous id is remembered and bumped past.
func (s *Store) nextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}
