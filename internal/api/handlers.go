package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"github.com/undeadops/kvlinks/internal/mapping"
)

const (
	// StatusMessage is served on the root path.
	StatusMessage = "URL Shortener Service"

	maxBodyBytes = 1 << 20
)

type MappingHandler struct {
	svc    *mapping.Service
	logger zerolog.Logger
}

// Router wires the mapping operations onto a chi mux. Only /create is
// method-restricted; any other method on it resolves the key "create".
func Router(svc *mapping.Service, logger zerolog.Logger) *chi.Mux {
	h := &MappingHandler{
		svc:    svc,
		logger: logger,
	}

	r := chi.NewRouter()

	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/create", h.CreateMapping)
	r.HandleFunc("/list", h.ListMappings)
	r.HandleFunc("/", h.Status)
	r.HandleFunc("/*", h.Redirect)
	r.MethodNotAllowed(h.Redirect)

	return r
}

type CreateMappingRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type CreateMappingResponse struct {
	Message  string `json:"message"`
	ShortURL string `json:"shortUrl"`
}

func (h *MappingHandler) CreateMapping(w http.ResponseWriter, r *http.Request) {
	// The body is decoded as JSON whatever Content-Type the client sent
	data, err := decodeCreateRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.handleError(w, r, fmt.Errorf("%w: %v", mapping.ErrInvalidRequest, err))
		return
	}

	shortURL, err := h.svc.Create(r.Context(), data.Key, data.Value)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.logger.Debug().Str("key", data.Key).Str("url", data.Value).Msg("Created mapping")

	response := &CreateMappingResponse{
		Message:  mapping.CreatedMessage,
		ShortURL: shortURL,
	}
	h.respondJSON(w, r, http.StatusCreated, response)
}

// decodeCreateRequest reads exactly one JSON value from body.
func decodeCreateRequest(body io.Reader) (*CreateMappingRequest, error) {
	dec := json.NewDecoder(body)

	data := &CreateMappingRequest{}
	if err := dec.Decode(data); err != nil {
		return nil, err
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected content after JSON body")
	}

	return data, nil
}

func (h *MappingHandler) ListMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.svc.List(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, mappings)
}

func (h *MappingHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, StatusMessage)
}

// Redirect uses the whole path after the leading slash as the key and sends
// the client to the stored URL as-is.
func (h *MappingHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")
	if key == "" {
		h.Status(w, r)
		return
	}

	target, err := h.svc.Resolve(r.Context(), key)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	w.Header().Set("Location", target)
	w.WriteHeader(http.StatusMovedPermanently)
}

// Helper methods for consistent error handling and responses
func (h *MappingHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, mapping.ErrInvalidRequest):
		writeText(w, http.StatusBadRequest, "Invalid request body")
	case errors.Is(err, mapping.ErrMissingField):
		writeText(w, http.StatusBadRequest, "Key and value are required")
	case errors.Is(err, mapping.ErrInvalidURL):
		writeText(w, http.StatusBadRequest, "Invalid URL format")
	case errors.Is(err, mapping.ErrKeyConflict):
		writeText(w, http.StatusConflict, "Key already exists")
	case errors.Is(err, mapping.ErrNotFound):
		writeText(w, http.StatusNotFound, "not found")
	default:
		h.logger.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("Handling error")
		writeText(w, http.StatusInternalServerError, "Error: "+err.Error())
	}
}

func (h *MappingHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

// writeText writes body verbatim, without the newline http.Error appends.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
