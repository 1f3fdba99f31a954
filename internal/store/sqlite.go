package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/angeloszaimis/todo-service/internal/todo"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS todos (
	id        INTEGER PRIMARY KEY,
	url       TEXT    NOT NULL UNIQUE,
	title     TEXT    NOT NULL,
	ord       INTEGER NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT 0
)`

// SQLiteStore keeps items in a private in-memory SQLite database. The id
// counter lives in Go so that ids start at 0 and survive Clear.
type SQLiteStore struct {
	mutex  sync.Mutex
	db     *sql.DB
	nextID int64
}

func NewSQLiteStore() (*SQLiteStore, error) {
	// A named shared-cache memory database lives as long as one connection
	// stays open; the pool is pinned to exactly one.
	dsn := fmt.Sprintf("file:todo-%s?mode=memory&cache=shared", uuid.NewString())

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Add(ctx context.Context, item todo.Item) (todo.Item, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	item.ID = s.nextID
	item.URL = todo.ItemURL(item.URL, item.ID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (id, url, title, ord, completed) VALUES (?, ?, ?, ?, ?)`,
		item.ID, item.URL, item.Title, item.Order, item.Completed)
	if err != nil {
		return todo.Item{}, fmt.Errorf("insert todo: %w", err)
	}

	s.nextID++
	return item, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]todo.Item, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, title, ord, completed FROM todos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	items := make([]todo.Item, 0)
	for rows.Next() {
		var item todo.Item
		if err := rows.Scan(&item.ID, &item.URL, &item.Title, &item.Order, &item.Completed); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (s *SQLiteStore) FindByURL(ctx context.Context, url string) (todo.Item, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.find(ctx, url)
}

func (s *SQLiteStore) find(ctx context.Context, url string) (todo.Item, error) {
	var item todo.Item
	err := s.db.QueryRowContext(ctx,
		`SELECT id, url, title, ord, completed FROM todos WHERE url = ?`, url).
		Scan(&item.ID, &item.URL, &item.Title, &item.Order, &item.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return todo.Item{}, ErrNotFound
	}
	if err != nil {
		return todo.Item{}, fmt.Errorf("find todo: %w", err)
	}

	return item, nil
}

func (s *SQLiteStore) RemoveByURL(ctx context.Context, url string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE url = ?`, url)
	if err != nil {
		return false, fmt.Errorf("delete todo: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete todo: %w", err)
	}

	return n > 0, nil
}

func (s *SQLiteStore) Update(ctx context.Context, url string, patch todo.Patch) (todo.Item, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	item, err := s.find(ctx, url)
	if err != nil {
		return todo.Item{}, err
	}
	if patch.IsEmpty() {
		return item, nil
	}

	patch.Apply(&item)

	_, err = s.db.ExecContext(ctx,
		`UPDATE todos SET title = ?, ord = ?, completed = ? WHERE id = ?`,
		item.Title, item.Order, item.Completed, item.ID)
	if err != nil {
		return todo.Item{}, fmt.Errorf("update todo: %w", err)
	}

	return item, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM todos`); err != nil {
		return fmt.Errorf("clear todos: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
