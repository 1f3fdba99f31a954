package store_test

import (
	"context"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/todo-service/internal/store"
	"github.com/angeloszaimis/todo-service/internal/todo"
)

const base = "http://host/todo"

func ptr[T any](v T) *T { return &v }

// behavesLikeAStore runs the common contract against any Store implementation.
func behavesLikeAStore(newStore func() store.Store) {
	var (
		s   store.Store
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		s = newStore()
	})

	AfterEach(func() {
		Expect(s.Close()).To(Succeed())
	})

	add := func(title string, order int) todo.Item {
		item, err := s.Add(ctx, todo.Item{URL: base, Title: title, Order: order})
		Expect(err).NotTo(HaveOccurred())
		return item
	}

	Describe("Add", func() {
		It("assigns id 0 and derives the url from the base", func() {
			item := add("buy milk", 1)
			Expect(item.ID).To(Equal(int64(0)))
			Expect(item.URL).To(Equal(base + "/0"))
			Expect(item.Title).To(Equal("buy milk"))
			Expect(item.Order).To(Equal(1))
			Expect(item.Completed).To(BeFalse())
		})

		It("hands out distinct, strictly increasing ids and urls", func() {
			urls := map[string]bool{}
			last := int64(-1)
			for i := range 20 {
				item := add(fmt.Sprintf("item %d", i), i)
				Expect(item.ID).To(BeNumerically(">", last))
				Expect(urls).NotTo(HaveKey(item.URL))
				urls[item.URL] = true
				last = item.ID
			}
			Expect(urls).To(HaveLen(20))
		})

		It("never reuses an id after delete", func() {
			first := add("a", 0)
			removed, err := s.RemoveByURL(ctx, first.URL)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeTrue())

			second := add("b", 0)
			Expect(second.ID).To(Equal(int64(1)))
			Expect(second.URL).NotTo(Equal(first.URL))
		})
	})

	Describe("List", func() {
		It("returns an empty, non-nil slice for an empty store", func() {
			items, err := s.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).NotTo(BeNil())
			Expect(items).To(BeEmpty())
		})

		It("keeps insertion order", func() {
			add("c", 3)
			add("a", 1)
			add("b", 2)

			items, err := s.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(3))
			Expect([]string{items[0].Title, items[1].Title, items[2].Title}).To(Equal([]string{"c", "a", "b"}))
		})

		It("returns a snapshot that later mutations do not change", func() {
			item := add("a", 1)
			items, err := s.List(ctx)
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Update(ctx, item.URL, todo.Patch{Title: ptr(todo.Text("changed"))})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Clear(ctx)).To(Succeed())

			Expect(items).To(HaveLen(1))
			Expect(items[0].Title).To(Equal("a"))
		})
	})

	Describe("FindByURL", func() {
		It("finds an item by its exact url", func() {
			item := add("a", 1)
			found, err := s.FindByURL(ctx, item.URL)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(Equal(item))
		})

		It("returns ErrNotFound for an unknown url", func() {
			add("a", 1)
			_, err := s.FindByURL(ctx, base+"/99")
			Expect(err).To(MatchError(store.ErrNotFound))
		})

		It("does not match a bare id", func() {
			add("a", 1)
			_, err := s.FindByURL(ctx, "0")
			Expect(err).To(MatchError(store.ErrNotFound))
		})
	})

	Describe("RemoveByURL", func() {
		It("removes only the addressed item", func() {
			a := add("a", 1)
			b := add("b", 2)

			removed, err := s.RemoveByURL(ctx, a.URL)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeTrue())

			_, err = s.FindByURL(ctx, a.URL)
			Expect(err).To(MatchError(store.ErrNotFound))

			items, err := s.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(Equal([]todo.Item{b}))
		})

		It("reports false when nothing matched", func() {
			removed, err := s.RemoveByURL(ctx, base+"/0")
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeFalse())
		})
	})

	Describe("Update", func() {
		It("applies a partial update and preserves the other fields", func() {
			item := add("a", 1)

			updated, err := s.Update(ctx, item.URL, todo.Patch{Completed: ptr(true)})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(Equal(todo.Item{ID: item.ID, URL: item.URL, Title: "a", Order: 1, Completed: true}))

			found, err := s.FindByURL(ctx, item.URL)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(Equal(updated))
		})

		It("applies every recognised field", func() {
			item := add("a", 1)
			updated, err := s.Update(ctx, item.URL, todo.Patch{
				Order:     ptr(5),
				Title:     ptr(todo.Text("b")),
				Completed: ptr(true),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Order).To(Equal(5))
			Expect(updated.Title).To(Equal("b"))
			Expect(updated.Completed).To(BeTrue())
			Expect(updated.URL).To(Equal(item.URL))
		})

		It("leaves the item alone for an empty patch", func() {
			item := add("a", 1)
			updated, err := s.Update(ctx, item.URL, todo.Patch{})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(Equal(item))
		})

		It("returns ErrNotFound for an unknown url", func() {
			_, err := s.Update(ctx, base+"/3", todo.Patch{Title: ptr(todo.Text("x"))})
			Expect(err).To(MatchError(store.ErrNotFound))
		})
	})

	Describe("Clear", func() {
		It("empties the store", func() {
			add("a", 1)
			add("b", 2)
			Expect(s.Clear(ctx)).To(Succeed())

			items, err := s.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(BeEmpty())
		})

		It("does not reset the id counter", func() {
			a := add("a", 1)
			Expect(a.ID).To(Equal(int64(0)))
			Expect(s.Clear(ctx)).To(Succeed())

			b := add("b", 1)
			Expect(b.ID).To(Equal(int64(1)))
			Expect(b.URL).To(Equal(base + "/1"))
		})

		It("is idempotent", func() {
			Expect(s.Clear(ctx)).To(Succeed())
			Expect(s.Clear(ctx)).To(Succeed())
			items, err := s.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(BeEmpty())
		})
	})

	Describe("concurrent access", func() {
		It("assigns unique urls under parallel adds", func() {
			const workers = 16
			const perWorker = 25

			var wg sync.WaitGroup
			results := make(chan string, workers*perWorker)
			for range workers {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					for range perWorker {
						item, err := s.Add(ctx, todo.Item{URL: base})
						Expect(err).NotTo(HaveOccurred())
						results <- item.URL
					}
				}()
			}
			wg.Wait()
			close(results)

			seen := map[string]bool{}
			for url := range results {
				Expect(seen).NotTo(HaveKey(url))
				seen[url] = true
			}
			Expect(seen).To(HaveLen(workers * perWorker))

			items, err := s.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(workers * perWorker))
		})

		It("does not lose updates racing with removals", func() {
			item := add("a", 0)

			var wg sync.WaitGroup
			for i := range 50 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := s.Update(ctx, item.URL, todo.Patch{Order: ptr(i)})
					if err != nil {
						Expect(err).To(MatchError(store.ErrNotFound))
					}
				}()
			}
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := s.RemoveByURL(ctx, item.URL)
				Expect(err).NotTo(HaveOccurred())
			}()
			wg.Wait()

			_, err := s.FindByURL(ctx, item.URL)
			Expect(err).To(MatchError(store.ErrNotFound))
		})
	})
}

var _ = Describe("MemoryStore", func() {
	behavesLikeAStore(func() store.Store { return store.NewMemoryStore() })
})

var _ = Describe("SQLiteStore", func() {
	behavesLikeAStore(func() store.Store {
		s, err := store.NewSQLiteStore()
		Expect(err).NotTo(HaveOccurred())
		return s
	})

	It("keeps separate stores isolated", func() {
		ctx := context.Background()
		a, err := store.NewSQLiteStore()
		Expect(err).NotTo(HaveOccurred())
		defer a.Close()
		b, err := store.NewSQLiteStore()
		Expect(err).NotTo(HaveOccurred())
		defer b.Close()

		_, err = a.Add(ctx, todo.Item{URL: base, Title: "only in a"})
		Expect(err).NotTo(HaveOccurred())

		items, err := b.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(BeEmpty())
	})
})

var _ = Describe("New", func() {
	It("defaults to the memory backend", func() {
		s, err := store.New("")
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(BeAssignableToTypeOf(&store.MemoryStore{}))
	})

	It("creates the sqlite backend", func() {
		s, err := store.New(store.BackendSQLite)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()
		Expect(s).To(BeAssignableToTypeOf(&store.SQLiteStore{}))
	})

	It("rejects unknown backends", func() {
		s, err := store.New("postgres")
		Expect(err).To(MatchError(store.ErrUnknownBackend))
		Expect(s).To(BeNil())
	})
})
