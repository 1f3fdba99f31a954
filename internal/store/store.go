package store

import (
	"context"
	"errors"

	"github.com/angeloszaimis/todo-service/internal/todo"
)

var (
	ErrNotFound       = errors.New("todo not found")
	ErrUnknownBackend = errors.New("unknown store backend")
)

type Store interface {
	// Add assigns the next id, appends "/<id>" to item.URL and stores the result.
	Add(ctx context.Context, item todo.Item) (todo.Item, error)

	// List returns a snapshot of every item in insertion order.
	List(ctx context.Context) ([]todo.Item, error)

	// FindByURL returns ErrNotFound when no item has that url.
	FindByURL(ctx context.Context, url string) (todo.Item, error)

	// RemoveByURL reports whether an item was removed.
	RemoveByURL(ctx context.Context, url string) (bool, error)

	// Update merges the patch into the item with that url and returns the
	// result, or ErrNotFound.
	Update(ctx context.Context, url string, patch todo.Patch) (todo.Item, error)

	// Clear removes every item. The id counter keeps counting.
	Clear(ctx context.Context) error

	Close() error
}
