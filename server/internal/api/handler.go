package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ttlpool/ttlpool/pkg/types"
	"github.com/ttlpool/ttlpool/server/internal/collector"
)

// maxBodyBytes bounds insert request bodies.
const maxBodyBytes = 1 << 20

// Engine is the part of collector.Collector the API drives.
type Engine interface {
	Insert(payload []byte, lifetime time.Duration) string
	Delete(id string) bool
	Get(id string) (types.EntryView, bool)
	List() []types.EntryView
	StartPeriodic(period time.Duration) error
	StopPeriodic() error
	TriggerReactive() int
	SetReactiveMode(enabled bool)
	Status() types.CollectorStatus
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	engine          Engine
	defaultLifetime func() time.Duration
	mux             *http.ServeMux
}

// New creates a Handler wired to engine and registers all routes.
// defaultLifetime supplies the lifetime for inserts that do not give one.
func New(engine Engine, defaultLifetime func() time.Duration) http.Handler {
	h := &Handler{engine: engine, defaultLifetime: defaultLifetime, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/entries", h.entries)
	h.mux.HandleFunc("/api/v1/entries/", h.entry) // subtree: extracts {id}
	h.mux.HandleFunc("/api/v1/collector", h.status)
	h.mux.HandleFunc("/api/v1/collector/", h.action) // subtree: extracts {action}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// entries serves GET (list) and POST (insert) on /api/v1/entries.
func (h *Handler) entries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jsonResp(w, http.StatusOK, h.engine.List())
	case http.MethodPost:
		h.insert(w, r)
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) insert(w http.ResponseWriter, r *http.Request) {
	var req InsertRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
	}

	lifetime := req.Lifetime.Duration
	if !req.Lifetime.Set {
		lifetime = h.defaultLifetime()
	}

	var payload []byte
	if req.Payload != "" {
		payload = []byte(req.Payload)
	}
	id := h.engine.Insert(payload, lifetime)
	jsonResp(w, http.StatusCreated, InsertResponse{ID: id, Lifetime: lifetime})
}

// entry serves GET and DELETE on /api/v1/entries/{id}.
func (h *Handler) entry(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/entries/")
	if id == "" {
		h.entries(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		v, ok := h.engine.Get(id)
		if !ok {
			jsonErr(w, http.StatusNotFound, "no entry with id "+id)
			return
		}
		jsonResp(w, http.StatusOK, v)
	case http.MethodDelete:
		if !h.engine.Delete(id) {
			jsonErr(w, http.StatusNotFound, "no entry with id "+id)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// status serves GET /api/v1/collector.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.engine.Status())
}

// action serves POST /api/v1/collector/{start|stop|enable|disable|sweep}.
func (h *Handler) action(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/collector/")
	if name == "" {
		h.status(w, r)
		return
	}
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := ActionResponse{Action: name}
	switch name {
	case "start":
		var period time.Duration
		if p := r.URL.Query().Get("period"); p != "" {
			d, err := time.ParseDuration(p)
			if err != nil || d <= 0 {
				jsonErr(w, http.StatusBadRequest, "period must be a positive duration")
				return
			}
			period = d
		}
		if err := h.engine.StartPeriodic(period); err != nil {
			writeEngineErr(w, err)
			return
		}
	case "stop":
		if err := h.engine.StopPeriodic(); err != nil {
			writeEngineErr(w, err)
			return
		}
	case "enable":
		h.engine.SetReactiveMode(true)
	case "disable":
		h.engine.SetReactiveMode(false)
	case "sweep":
		n := h.engine.TriggerReactive()
		resp.Removed = &n
	default:
		jsonErr(w, http.StatusNotFound, "unknown collector action "+name+" (valid: start/stop/enable/disable/sweep)")
		return
	}

	resp.Status = h.engine.Status()
	jsonResp(w, http.StatusOK, resp)
}

// --- helpers ----------------------------------------------------------------

func writeEngineErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, collector.ErrAlreadyRunning), errors.Is(err, collector.ErrNotRunning):
		jsonErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, collector.ErrClosed):
		jsonErr(w, http.StatusServiceUnavailable, err.Error())
	default:
		jsonErr(w, http.StatusInternalServerError, err.Error())
	}
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
