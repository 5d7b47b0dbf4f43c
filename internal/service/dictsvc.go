package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/mserjo/bossy-sub005/internal/domain"
)

type DictStore interface {
	Table() string
	GetByCode(ctx context.Context, code string) (domain.DictEntry, error)
	GetByID(ctx context.Context, id string) (domain.DictEntry, error)
	List(ctx context.Context) ([]domain.DictEntry, error)
}

// DictionaryService fronts the reference tables with a read-through
// cache. Dictionary rows are seeded at startup and effectively
// immutable, so entries are cached forever once seen.
type DictionaryService struct {
	stores map[string]DictStore

	mu     sync.RWMutex
	byCode map[string]domain.DictEntry
	byID   map[string]domain.DictEntry
}

func NewDictionaryService(stores ...DictStore) *DictionaryService {
	byTable := make(map[string]DictStore, len(stores))
	for _, st := range stores {
		byTable[st.Table()] = st
	}
	return &DictionaryService{
		stores: byTable,
		byCode: make(map[string]domain.DictEntry),
		byID:   make(map[string]domain.DictEntry),
	}
}

func (s *DictionaryService) store(table string) (DictStore, error) {
	st, ok := s.stores[table]
	if !ok {
		return nil, fmt.Errorf("%w: unknown dictionary %q", domain.ErrMisconfigured, table)
	}
	return st, nil
}

func (s *DictionaryService) GetByCode(ctx context.Context, table, code string) (domain.DictEntry, error) {
	key := table + ":" + code

	s.mu.RLock()
	e, hit := s.byCode[key]
	s.mu.RUnlock()
	if hit {
		return e, nil
	}

	st, err := s.store(table)
	if err != nil {
		return domain.DictEntry{}, err
	}
	e, err = st.GetByCode(ctx, code)
	if err != nil {
		return domain.DictEntry{}, err
	}

	s.cache(table, e)
	return e, nil
}

func (s *DictionaryService) GetByID(ctx context.Context, table, id string) (domain.DictEntry, error) {
	key := table + ":" + id

	s.mu.RLock()
	e, hit := s.byID[key]
	s.mu.RUnlock()
	if hit {
		return e, nil
	}

	st, err := s.store(table)
	if err != nil {
		return domain.DictEntry{}, err
	}
	e, err = st.GetByID(ctx, id)
	if err != nil {
		return domain.DictEntry{}, err
	}

	s.cache(table, e)
	return e, nil
}

// IDByCode is the common case: services never hardcode dictionary row
// ids, they resolve them through here.
func (s *DictionaryService) IDByCode(ctx context.Context, table, code string) (string, error) {
	e, err := s.GetByCode(ctx, table, code)
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

// List bypasses the cache and reads the table, warming the cache as a
// side effect.
func (s *DictionaryService) List(ctx context.Context, table string) ([]domain.DictEntry, error) {
	st, err := s.store(table)
	if err != nil {
		return nil, err
	}
	entries, err := st.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		s.cache(table, e)
	}
	return entries, nil
}

// Tables reports the dictionaries this service knows about.
func (s *DictionaryService) Tables() []string {
	out := make([]string, 0, len(s.stores))
	for table := range s.stores {
		out = append(out, table)
	}
	return out
}

func (s *DictionaryService) cache(table string, e domain.DictEntry) {
	s.mu.Lock()
	s.byCode[table+":"+e.Code] = e
	s.byID[table+":"+e.ID] = e
	s.mu.Unlock()
}
