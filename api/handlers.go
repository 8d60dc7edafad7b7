package api

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prasetyowira/qrtag/constant"
	"github.com/prasetyowira/qrtag/domain/export"
	"github.com/prasetyowira/qrtag/domain/form"
	"github.com/prasetyowira/qrtag/domain/symbol"
	appLogger "github.com/prasetyowira/qrtag/infrastructure/logger"
)

// FormService is the part of form.Service the handlers depend on
type FormService interface {
	CreateSession(ctx context.Context) (*form.View, error)
	GetSession(ctx context.Context, id string) (*form.View, error)
	DeleteSession(ctx context.Context, id string) error
	SetInput(ctx context.Context, id, input string) (*form.View, error)
	SetFormat(ctx context.Context, id string, format symbol.Format) (*form.View, error)
	SetColor(ctx context.Context, id, value string, commit bool) (bool, *form.View, error)
	SetViewport(ctx context.Context, id string, width int) (*form.View, error)
	Generate(ctx context.Context, id string) (*form.Pending, error)
	Symbol(ctx context.Context, id string) (symbol.Symbol, *form.View, error)
	Export(ctx context.Context, id string, format symbol.Format) (*export.File, error)
	History(ctx context.Context, id string) ([]form.Generation, error)
}

// Handler contains service dependencies for API handlers
type Handler struct {
	service FormService
}

// InputRequest is the request object for the input endpoint
type InputRequest struct {
	URL string `json:"url"`
}

// FormatRequest is the request object for the format endpoint
type FormatRequest struct {
	Format string `json:"format"`
}

// ColorRequest is the request object for the color endpoint
type ColorRequest struct {
	Color  string `json:"color"`
	Commit bool   `json:"commit"`
}

// ColorResponse reports whether a color edit was taken
type ColorResponse struct {
	Accepted bool       `json:"accepted"`
	Session  *form.View `json:"session"`
}

// ViewportRequest is the request object for the viewport endpoint
type ViewportRequest struct {
	Width int `json:"width"`
}

// GenerateResponse is returned when a generation is scheduled
type GenerateResponse struct {
	Generation uint64 `json:"generation"`
}

// GenerationsResponse lists a session's generations
type GenerationsResponse struct {
	Generations []form.Generation `json:"generations"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type previewer interface {
	Preview() string
}

// NewHandler creates a new API handler
func NewHandler(service FormService) *Handler {
	return &Handler{
		service: service,
	}
}

// CreateSession handles session creation
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.CreateSession(r.Context())
	if err != nil {
		h.writeServiceError(w, r, constant.CtxCreateSession, err)
		return
	}
	WriteJSON(w, view, http.StatusCreated)
}

// GetSession handles reading a session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetSession(r.Context(), chi.URLParam(r, constant.ParamSessionID))
	if err != nil {
		h.writeServiceError(w, r, constant.CtxGetSession, err)
		return
	}
	WriteJSON(w, view, http.StatusOK)
}

// DeleteSession handles session removal
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSession(r.Context(), chi.URLParam(r, constant.ParamSessionID)); err != nil {
		h.writeServiceError(w, r, constant.CtxDeleteSession, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetInput handles changes to the URL field
func (h *Handler) SetInput(w http.ResponseWriter, r *http.Request) {
	var req InputRequest
	if !h.decode(w, r, constant.CtxSetInput, &req) {
		return
	}

	view, err := h.service.SetInput(r.Context(), chi.URLParam(r, constant.ParamSessionID), req.URL)
	if err != nil {
		h.writeServiceError(w, r, constant.CtxSetInput, err)
		return
	}
	WriteJSON(w, view, http.StatusOK)
}

// SetFormat handles export format selection
func (h *Handler) SetFormat(w http.ResponseWriter, r *http.Request) {
	var req FormatRequest
	if !h.decode(w, r, constant.CtxSetFormat, &req) {
		return
	}

	format, err := symbol.ParseFormat(req.Format)
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	view, err := h.service.SetFormat(r.Context(), chi.URLParam(r, constant.ParamSessionID), format)
	if err != nil {
		h.writeServiceError(w, r, constant.CtxSetFormat, err)
		return
	}
	WriteJSON(w, view, http.StatusOK)
}

// SetColor handles color picker edits. Rejected edits are not errors.
func (h *Handler) SetColor(w http.ResponseWriter, r *http.Request) {
	var req ColorRequest
	if !h.decode(w, r, constant.CtxSetColor, &req) {
		return
	}

	accepted, view, err := h.service.SetColor(r.Context(), chi.URLParam(r, constant.ParamSessionID), req.Color, req.Commit)
	if err != nil {
		h.writeServiceError(w, r, constant.CtxSetColor, err)
		return
	}
	WriteJSON(w, ColorResponse{Accepted: accepted, Session: view}, http.StatusOK)
}

// SetViewport handles viewport width reports
func (h *Handler) SetViewport(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if !h.decode(w, r, constant.CtxSetViewport, &req) {
		return
	}

	view, err := h.service.SetViewport(r.Context(), chi.URLParam(r, constant.ParamSessionID), req.Width)
	if err != nil {
		h.writeServiceError(w, r, constant.CtxSetViewport, err)
		return
	}
	WriteJSON(w, view, http.StatusOK)
}

// Generate schedules a generation; the client polls the session for the result
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	pending, err := h.service.Generate(r.Context(), chi.URLParam(r, constant.ParamSessionID))
	if err != nil {
		h.writeServiceError(w, r, constant.CtxGenerate, err)
		return
	}
	if pending == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	WriteJSON(w, GenerateResponse{Generation: pending.Generation}, http.StatusAccepted)
}

// GetSymbol serves the displayed symbol inline
func (h *Handler) GetSymbol(w http.ResponseWriter, r *http.Request) {
	sym, view, err := h.service.Symbol(r.Context(), chi.URLParam(r, constant.ParamSessionID))
	if err != nil {
		h.writeServiceError(w, r, constant.CtxSymbol, err)
		return
	}
	if sym == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	requested := r.URL.Query().Get(constant.QueryFormat)
	if requested == constant.FormatText {
		p, ok := sym.(previewer)
		if !ok {
			WriteJSONError(w, "text preview not supported", http.StatusNotAcceptable)
			return
		}
		w.Header().Set(constant.HeaderContentType, "text/plain; charset=utf-8")
		w.Header().Set(constant.HeaderCacheControl, "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(p.Preview()))
		return
	}

	format := view.Format
	if requested != "" {
		if format, err = symbol.ParseFormat(requested); err != nil {
			WriteJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	file, err := export.Export(sym, format, view.TaggedURL)
	if err != nil {
		h.writeServiceError(w, r, constant.CtxSymbol, err)
		return
	}

	w.Header().Set(constant.HeaderContentType, file.ContentType)
	w.Header().Set(constant.HeaderCacheControl, "no-store")
	w.WriteHeader(http.StatusOK)
	h.write(w, r, constant.CtxSymbol, file.Data)
}

// ExportSymbol serves the displayed symbol as a file download
func (h *Handler) ExportSymbol(w http.ResponseWriter, r *http.Request) {
	var format symbol.Format
	if requested := r.URL.Query().Get(constant.QueryFormat); requested != "" {
		parsed, err := symbol.ParseFormat(requested)
		if err != nil {
			WriteJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = parsed
	}

	file, err := h.service.Export(r.Context(), chi.URLParam(r, constant.ParamSessionID), format)
	if err != nil {
		h.writeServiceError(w, r, constant.CtxExport, err)
		return
	}
	if file == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set(constant.HeaderContentType, file.ContentType)
	w.Header().Set(constant.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set(constant.HeaderCacheControl, "no-store")
	w.WriteHeader(http.StatusOK)
	h.write(w, r, constant.CtxExport, file.Data)
}

// ListGenerations handles the in-session history
func (h *Handler) ListGenerations(w http.ResponseWriter, r *http.Request) {
	gens, err := h.service.History(r.Context(), chi.URLParam(r, constant.ParamSessionID))
	if err != nil {
		h.writeServiceError(w, r, constant.CtxHistory, err)
		return
	}
	if gens == nil {
		gens = []form.Generation{}
	}
	WriteJSON(w, GenerationsResponse{Generations: gens}, http.StatusOK)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, function string, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		appLogger.CtxWarn(r.Context(), "Error decoding request body", appLogger.LoggerInfo{
			ContextFunction: function,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeAPIDecodeRequest,
				Message: err.Error(),
				Type:    constant.ErrTypeAPI,
			},
		})
		WriteJSONError(w, "Invalid request format", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, function string, data []byte) {
	if _, err := w.Write(data); err != nil {
		appLogger.CtxWarn(r.Context(), "Failed to write response", appLogger.LoggerInfo{
			ContextFunction: function,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeAPIWriteResponse,
				Message: err.Error(),
				Type:    constant.ErrTypeAPI,
			},
		})
	}
}

// writeServiceError maps domain errors onto HTTP statuses
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, function string, err error) {
	switch {
	case errors.Is(err, form.ErrSessionNotFound):
		WriteJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, form.ErrEmptySessionID), errors.Is(err, symbol.ErrUnknownFormat):
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, form.ErrGenerationInProgress):
		WriteJSONError(w, err.Error(), http.StatusConflict)
	default:
		appLogger.CtxError(r.Context(), "Service error", appLogger.LoggerInfo{
			ContextFunction: function,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeAPIServiceError,
				Message: err.Error(),
				Type:    constant.ErrTypeAPI,
			},
		})
		WriteJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set(constant.HeaderContentType, "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteJSONError writes a JSON error response
func WriteJSONError(w http.ResponseWriter, message string, statusCode int) {
	WriteJSON(w, ErrorResponse{
		Error: message,
		Code:  statusCode,
	}, statusCode)
}
