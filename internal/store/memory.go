package store

import (
	"context"
	"sync"

	"github.com/angeloszaimis/todo-service/internal/todo"
)

// MemoryStore keeps items in process memory.
type MemoryStore struct {
	mutex  sync.Mutex
	items  map[string]*todo.Item
	order  []string
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]*todo.Item),
	}
}

func (m *MemoryStore) Add(_ context.Context, item todo.Item) (todo.Item, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	item.ID = m.nextID
	item.URL = todo.ItemURL(item.URL, item.ID)
	m.nextID++

	stored := item
	m.items[stored.URL] = &stored
	m.order = append(m.order, stored.URL)

	return stored, nil
}

func (m *MemoryStore) List(_ context.Context) ([]todo.Item, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	items := make([]todo.Item, 0, len(m.order))
	for _, url := range m.order {
		items = append(items, *m.items[url])
	}

	return items, nil
}

func (m *MemoryStore) FindByURL(_ context.Context, url string) (todo.Item, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	item, ok := m.items[url]
	if !ok {
		return todo.Item{}, ErrNotFound
	}

	return *item, nil
}

func (m *MemoryStore) RemoveByURL(_ context.Context, url string) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.items[url]; !ok {
		return false, nil
	}

	delete(m.items, url)
	for i, u := range m.order {
		if u == url {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}

	return true, nil
}

func (m *MemoryStore) Update(_ context.Context, url string, patch todo.Patch) (todo.Item, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	item, ok := m.items[url]
	if !ok {
		return todo.Item{}, ErrNotFound
	}

	patch.Apply(item)
	return *item, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.items = make(map[string]*todo.Item)
	m.order = nil

	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
