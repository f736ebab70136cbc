package inmemory

import (
	"log/slog"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/sharetube/embed/internal/repository/page"
)

type repo[T any] struct {
	pages  map[string]T
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo[T any](logger *slog.Logger) *repo[T] {
	if logger == nil {
		logger = slog.Default()
	}

	return &repo[T]{
		pages:  make(map[string]T),
		logger: logger,
	}
}

func (r *repo[T]) Add(pageId string, p T) error {
	funcName := "page.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "page_id", pageId)
	if _, ok := r.pages[pageId]; ok {
		r.logger.Info(funcName, "error", page.ErrAlreadyExists)
		return page.ErrAlreadyExists
	}

	r.pages[pageId] = p

	r.logger.Debug(funcName, "result", "OK")
	return nil
}

func (r *repo[T]) Get(pageId string) (T, error) {
	funcName := "page.inmemory.Get"
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.logger.Debug(funcName, "page_id", pageId)
	p, ok := r.pages[pageId]
	if !ok {
		r.logger.Info(funcName, "error", page.ErrNotFound)
		return p, page.ErrNotFound
	}

	return p, nil
}

func (r *repo[T]) Remove(pageId string) (T, error) {
	funcName := "page.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "page_id", pageId)
	p, ok := r.pages[pageId]
	if !ok {
		r.logger.Info(funcName, "error", page.ErrNotFound)
		return p, page.ErrNotFound
	}
	delete(r.pages, pageId)

	r.logger.Debug(funcName, "result", "OK")
	return p, nil
}

// List returns the ids of all pages in ascending order.
func (r *repo[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := maps.Keys(r.pages)
	slices.Sort(ids)
	return ids
}

func (r *repo[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pages)
}
