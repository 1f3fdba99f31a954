package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/angeloszaimis/todo-service/internal/metrics"
	"github.com/angeloszaimis/todo-service/internal/store"
	"github.com/angeloszaimis/todo-service/internal/todo"
)

const (
	CollectionPath = "/todo"
	ItemPath       = CollectionPath + "/{id}"
)

type Options struct {
	// BaseURL, when set, replaces the scheme and host of incoming requests
	// when item URLs are built and matched, e.g. "https://todo.example.com".
	BaseURL string

	// AllowedOrigins defaults to "*".
	AllowedOrigins []string
}

type TodoHandler struct {
	logger    *slog.Logger
	store     store.Store
	collector *metrics.Collector
	baseURL   string
	origins   []string
}

func NewTodoHandler(logger *slog.Logger, s store.Store, collector *metrics.Collector, opts Options) *TodoHandler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &TodoHandler{
		logger:    logger,
		store:     s,
		collector: collector,
		baseURL:   strings.TrimSuffix(opts.BaseURL, "/"),
		origins:   origins,
	}
}

// Register adds the collection and item routes to mux.
func (h *TodoHandler) Register(mux *http.ServeMux) {
	collection := newCORS(h.origins, collectionMethods)
	item := newCORS(h.origins, itemMethods)

	mux.Handle("GET "+CollectionPath, collection.Handler(http.HandlerFunc(h.list)))
	mux.Handle("POST "+CollectionPath, collection.Handler(http.HandlerFunc(h.create)))
	mux.Handle("DELETE "+CollectionPath, collection.Handler(http.HandlerFunc(h.clear)))
	mux.Handle("OPTIONS "+CollectionPath, collection.Handler(http.HandlerFunc(options)))

	mux.Handle("GET "+ItemPath, item.Handler(http.HandlerFunc(h.get)))
	mux.Handle("DELETE "+ItemPath, item.Handler(http.HandlerFunc(h.delete)))
	mux.Handle("PATCH "+ItemPath, item.Handler(http.HandlerFunc(h.update)))
	mux.Handle("OPTIONS "+ItemPath, item.Handler(http.HandlerFunc(options)))
}

func (h *TodoHandler) create(w http.ResponseWriter, r *http.Request) {
	item, err := decodeBody[todo.Item](w, r)
	if err != nil {
		h.logger.Debug("Rejected todo body",
			slog.String("request_id", RequestID(r.Context())),
			slog.Any("err", err))
		writeError(w, http.StatusUnprocessableEntity, "invalid todo: "+describeDecodeError(err))
		return
	}

	// The store appends "/<id>" to the collection URL.
	item.URL = h.requestURL(r)

	created, err := h.store.Add(r.Context(), item)
	if err != nil {
		h.internalError(w, r, "create todo", err)
		return
	}

	h.collector.Emit(metrics.MetricEvent{Type: metrics.EventTodoCreated})
	writeJSON(w, http.StatusCreated, created)
}

func (h *TodoHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context())
	if err != nil {
		h.internalError(w, r, "list todos", err)
		return
	}
	if items == nil {
		items = []todo.Item{}
	}

	writeJSON(w, http.StatusOK, items)
}

func (h *TodoHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		h.internalError(w, r, "clear todos", err)
		return
	}

	h.collector.Emit(metrics.MetricEvent{Type: metrics.EventTodosCleared})
	writeNoContent(w)
}

func (h *TodoHandler) get(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.FindByURL(r.Context(), h.requestURL(r))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.internalError(w, r, "get todo", err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *TodoHandler) delete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.store.RemoveByURL(r.Context(), h.requestURL(r))
	if err != nil {
		h.internalError(w, r, "delete todo", err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, store.ErrNotFound.Error())
		return
	}

	h.collector.Emit(metrics.MetricEvent{Type: metrics.EventTodoDeleted})
	writeNoContent(w)
}

// update decodes the whole patch before touching the store, so a body with
// any mistyped field changes nothing.
func (h *TodoHandler) update(w http.ResponseWriter, r *http.Request) {
	patch, err := decodeBody[todo.Patch](w, r)
	if err != nil {
		h.logger.Debug("Rejected todo patch",
			slog.String("request_id", RequestID(r.Context())),
			slog.Any("err", err))
		writeError(w, http.StatusUnprocessableEntity, "invalid update: "+describeDecodeError(err))
		return
	}

	updated, err := h.store.Update(r.Context(), h.requestURL(r), patch)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.internalError(w, r, "update todo", err)
		return
	}

	h.collector.Emit(metrics.MetricEvent{Type: metrics.EventTodoUpdated})
	writeJSON(w, http.StatusOK, updated)
}

func (h *TodoHandler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error("Store operation failed",
		slog.String("request_id", RequestID(r.Context())),
		slog.String("op", op),
		slog.String("path", r.URL.Path),
		slog.Any("err", err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// options answers non-preflight OPTIONS requests.
func options(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
