package shopping

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	ErrItemNotFound = errors.New("shopping list item not found")
	ErrEmptyBatch   = errors.New("no items to add")
	ErrMissingName  = errors.New("item productName is required")
)

// Store is the persistence port for the shopping list.
type Store interface {
	Load() ([]ListItem, error)
	Save(items []ListItem) error
}

// FileStore persists the list as one JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load() ([]ListItem, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read shopping list file %s: %w", f.path, err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return nil, nil
	}

	var items []ListItem
	if err := json.Unmarshal(content, &items); err != nil {
		return nil, fmt.Errorf("failed to parse shopping list file %s: %w", f.path, err)
	}
	return items, nil
}

func (f *FileStore) Save(items []ListItem) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal shopping list: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write shopping list file %s: %w", f.path, err)
	}
	return nil
}

// Service owns the in-memory shopping list and saves through its Store
// after every mutation.
type Service struct {
	mu        sync.Mutex
	store     Store
	items     []ListItem
	lastStamp int64
}

func NewService(store Store) (*Service, error) {
	items, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load shopping list: %w", err)
	}
	return &Service{store: store, items: items}, nil
}

func (s *Service) Items() []ListItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ListItem(nil), s.items...)
}

// AddBatch appends the given items unchecked, assigning each an id of the
// form <productName>-<millis>. The stamp is bumped within a batch so two
// identical names still get distinct ids.
func (s *Service) AddBatch(batch []NewListItem) ([]ListItem, error) {
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}
	for _, item := range batch {
		if item.ProductName == "" {
			return nil, ErrMissingName
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]ListItem, 0, len(batch))
	for _, item := range batch {
		added = append(added, ListItem{
			ID:           fmt.Sprintf("%s-%d", item.ProductName, s.nextStampLocked()),
			ProductName:  item.ProductName,
			Quantity:     item.Quantity,
			RackLocation: item.RackLocation,
			Price:        item.Price,
			VisualAids:   item.VisualAids,
			Checked:      false,
		})
	}

	s.items = append(s.items, added...)
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return added, nil
}

// Toggle flips the checked flag of one item and returns its new state.
func (s *Service) Toggle(id string) (*ListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		s.items[i].Checked = !s.items[i].Checked
		if err := s.persistLocked(); err != nil {
			return nil, err
		}
		item := s.items[i]
		return &item, nil
	}
	return nil, ErrItemNotFound
}

func (s *Service) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return s.persistLocked()
}

func (s *Service) persistLocked() error {
	if err := s.store.Save(s.items); err != nil {
		return fmt.Errorf("failed to save shopping list: %w", err)
	}
	return nil
}

func (s *Service) nextStampLocked() int64 {
	stamp := time.Now().UnixMilli()
	if stamp <= s.lastStamp {
		stamp = s.lastStamp + 1
	}
	s.lastStamp = stamp
	return stamp
}
