package remote

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/alexisbeaulieu97/designctl/internal/ports"
)

// HandlerOptions configures NewHandler.
type HandlerOptions struct {
	// Token, when non-empty, is required as a bearer token on every request.
	Token  string
	Logger ports.Logger
}

// Handler serves a ports.Adapter over the remote settings API.
type Handler struct {
	store  ports.Adapter
	token  string
	logger ports.Logger
	mux    *http.ServeMux
}

// NewHandler returns an http.Handler exposing store.
func NewHandler(store ports.Adapter, opts HandlerOptions) *Handler {
	h := &Handler{
		store:  store,
		token:  opts.Token,
		logger: opts.Logger,
		mux:    http.NewServeMux(),
	}
	h.mux.HandleFunc("GET "+settingsPath+"{key...}", h.handleGet)
	h.mux.HandleFunc("PUT "+settingsPath+"{key...}", h.handlePut)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.token != "" && r.Header.Get("Authorization") != "Bearer "+h.token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		http.Error(w, "missing key", http.StatusBadRequest)
		return
	}

	value, found, err := h.store.GetItem(r.Context(), key)
	if err != nil {
		h.logError(r, "settings read failed", key, err)
		http.Error(w, "storage unavailable", http.StatusBadGateway)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Item{Key: key, Value: value})
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		http.Error(w, "missing key", http.StatusBadRequest)
		return
	}

	var body putBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	if err := dec.Decode(&body); err != nil {
		http.Error(w, "invalid body: "+strings.TrimSpace(err.Error()), http.StatusBadRequest)
		return
	}

	if err := h.store.SetItem(r.Context(), key, body.Value); err != nil {
		h.logError(r, "settings write failed", key, err)
		http.Error(w, "storage unavailable", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logError(r *http.Request, msg, key string, err error) {
	if h.logger == nil {
		return
	}
	h.logger.Error(r.Context(), msg, "key", key, "error", err)
}
