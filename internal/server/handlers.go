package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/persistence"
	"github.com/desertthunder/bookshelf/internal/services"
	"github.com/desertthunder/bookshelf/internal/shared"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v)
	if err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// DataHandler serves the whole state document at /api/data.
type DataHandler struct {
	gateway persistence.Gateway
	logger  *log.Logger
}

// NewDataHandler creates a [DataHandler] backed by gateway.
func NewDataHandler(gateway persistence.Gateway, logger *log.Logger) *DataHandler {
	return &DataHandler{gateway: gateway, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *DataHandler) Routes() []string {
	return []string{persistence.DataPath}
}

// ServeHTTP dispatches on method: GET reads, POST and PUT overwrite.
func (h *DataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.read(w, r)
	case http.MethodPost, http.MethodPut:
		h.write(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, PUT")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *DataHandler) read(w http.ResponseWriter, r *http.Request) {
	doc, err := h.gateway.Load(r.Context())
	if err != nil {
		h.logger.Error("failed to read document", "error", err, "request_id", RequestIDFrom(r.Context()))
		writeError(w, http.StatusInternalServerError, "failed to read data")
		return
	}

	if doc == nil {
		doc = models.DefaultState().Document()
		if err := h.gateway.Save(r.Context(), doc); err != nil {
			h.logger.Error("failed to write default document", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to read data")
			return
		}
		h.logger.Info("created default document", "backend", h.gateway.Name())
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DataHandler) write(w http.ResponseWriter, r *http.Request) {
	var doc models.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON document")
		return
	}

	if err := h.gateway.Save(r.Context(), &doc); err != nil {
		h.logger.Error("failed to write document", "error", err, "request_id", RequestIDFrom(r.Context()))
		writeError(w, http.StatusInternalServerError, "failed to write data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// FeedParser fetches and parses a feed without a relay. Implemented by [services.FeedService].
type FeedParser interface {
	Parse(ctx context.Context, feedURL string) (*services.Feed, error)
}

// FeedHandler relays RSS and Atom feeds as JSON at /api/rss?url=.
type FeedHandler struct {
	feeds  FeedParser
	logger *log.Logger
}

// NewFeedHandler creates a [FeedHandler].
func NewFeedHandler(feeds FeedParser, logger *log.Logger) *FeedHandler {
	return &FeedHandler{feeds: feeds, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *FeedHandler) Routes() []string {
	return []string{"/api/rss"}
}

func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	feedURL := r.URL.Query().Get("url")
	if shared.IsBlank(feedURL) {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	feed, err := h.feeds.Parse(r.Context(), feedURL)
	if err != nil {
		h.logger.Warn("failed to fetch feed", "url", feedURL, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch RSS feed")
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
