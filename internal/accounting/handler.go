package accounting

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-erp/atelier-erp/internal/authz"
	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
	"github.com/atelier-erp/atelier-erp/internal/rbac"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// Handler exposes the accounting API.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the accounting handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

type segmentRequest struct {
	Code        string `json:"code" validate:"required,min=2,max=16"`
	Label       string `json:"label" validate:"required,min=2,max=128"`
	Description string `json:"description" validate:"max=255"`
}

type segmentUpdateRequest struct {
	Label       string `json:"label" validate:"required,min=2,max=128"`
	Description string `json:"description" validate:"max=255"`
}

type cityRequest struct {
	Name   string `json:"name" validate:"required,min=2,max=128"`
	Region string `json:"region" validate:"required,min=2,max=128"`
}

type declarationRequest struct {
	Period      string `json:"period" validate:"required"`
	CityID      int64  `json:"city_id" validate:"required,gt=0"`
	SegmentID   int64  `json:"segment_id" validate:"required,gt=0"`
	AmountCents int64  `json:"amount_cents" validate:"gte=0"`
}

type declarationUpdateRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"gte=0"`
}

// MountRoutes registers the accounting routes, guarded per action.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Route("/segments", func(r chi.Router) {
		r.With(guard.Require(authz.MustCode("accounting.segments.view_page"))).
			Get("/", h.listSegments)
		r.With(guard.Require(authz.MustCode("accounting.segments.view_page"))).
			Get("/{id}", h.getSegment)
		r.With(guard.Require(authz.MustCode("accounting.segments.export"))).
			Get("/export", h.exportSegments)
		r.With(guard.Require(authz.MustCode("accounting.segments.create"))).
			Post("/", h.createSegment)
		r.With(guard.Require(authz.MustCode("accounting.segments.update"))).
			Put("/{id}", h.updateSegment)
		r.With(guard.Require(authz.MustCode("accounting.segments.delete"))).
			Delete("/{id}", h.deleteSegment)
	})

	r.Route("/cities", func(r chi.Router) {
		r.With(guard.Require(authz.MustCode("accounting.cities.view_page"))).
			Get("/", h.listCities)
		r.With(guard.Require(authz.MustCode("accounting.cities.create"))).
			Post("/", h.createCity)
		r.With(guard.Require(authz.MustCode("accounting.cities.update"))).
			Put("/{id}", h.updateCity)
		r.With(guard.Require(authz.MustCode("accounting.cities.delete"))).
			Delete("/{id}", h.deleteCity)
	})

	r.Route("/declarations", func(r chi.Router) {
		r.With(guard.Require(authz.MustCode("accounting.declarations.view_page"))).
			Get("/", h.listDeclarations)
		r.With(guard.Require(authz.MustCode("accounting.declarations.view_page"))).
			Get("/{id}", h.getDeclaration)
		r.With(guard.Require(authz.MustCode("accounting.declarations.create"))).
			Post("/", h.createDeclaration)
		r.With(guard.Require(authz.MustCode("accounting.declarations.update"))).
			Put("/{id}", h.updateDeclaration)
		r.With(guard.Require(authz.MustCode("accounting.declarations.delete"))).
			Delete("/{id}", h.deleteDeclaration)
		r.With(guard.Require(authz.MustCode("accounting.declarations.submit"))).
			Post("/{id}/submit", h.submitDeclaration)
	})
}

func (h *Handler) listSegments(w http.ResponseWriter, r *http.Request) {
	segments, err := h.service.ListSegments(r.Context())
	if err != nil {
		respondAccountingError(w, err)
		return
	}
	if segments == nil {
		segments = []Segment{}
	}
	httpx.JSON(w, http.StatusOK, segments)
}

func (h *Handler) getSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	seg, err := h.service.GetSegment(r.Context(), id)
	if err != nil {
		respondAccountingError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, seg)
}

func (h *Handler) exportSegments(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="segments.csv"`)
	if err := h.service.ExportSegments(r.Context(), w); err != nil {
		respondAccountingError(w, err)
	}
}

func (h *Handler) createSegment(w http.ResponseWriter, r *http.Request) {
	var req segmentRequest
	if !decodeValid(w, r, h.validate, &req) {
		return
	}
	seg, err := h.service.CreateSegment(r.Context(), req.Code, req.Label, req.Description)
	if err != nil {
		respondAccountingError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, seg)
}

func (h *Handler) updateSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req segmentUpdateRequest
	if !decodeValid(w, r, h.validate, &req) {
		return
	}
	seg, err := h.service.UpdateSegment(r.Context(), id, req.Label, req.Description)
	if err != nil {
		respondAccountingError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, seg)
}

func (h *Handler) deleteSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteSegment(r.Context(), id); err != nil {
		respondAccountingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.service.ListCities(r.Context())
	if err != nil {
		respondAccountingError(w, err)
		return
	}
	if cities == nil {
		cities = []City{}
	}
	httpx.JSON(w, http.StatusOK, cities)
}

func (h *Handler) createCity(w http.ResponseWriter, r *http.Request) {
	var req cityRequest
	if !decodeValid(w, r, h.validate, &req) {
		return
	}
	city, err := h.service.CreateCity(r.Context(), req.Name, req.Region)
	if err != nil {
		respondAccountingError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, city)
}

func (h *Handler) updateCity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req cityRequest
	if !decodeValid(w, r, h.validate, &req) {
		return
	}
	city, err := h.service.UpdateCity(r.Context(), id, req.Name, req.Region)
	if err != nil {
		respondAccountingError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, city)
}

func (h *Handler) deleteCity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCity(r.Context(), id); err != nil {
		respondAccountingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listDeclarations(w http.ResponseWriter, r *http.Request) {
	declarations, err := h.service.ListDeclarations(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		respondAccountingError(w, err)
		return
	}
	if declarations == nil {
		declarations = []Declaration{}
	}
	httpx.JSON(w, http.StatusOK, declarations)
}

func (h *Handler) getDeclaration(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := h.service.GetDeclaration(r.Context(), id)
	if err != nil {
		respondAccountingError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) createDeclaration(w http.ResponseWriter, r *http.Request) {
	var req declarationRequest
	if !decodeValid(w, r, h.validate, &req) {
		return
	}
	d, err := h.service.CreateDeclaration(r.Context(), req.Period, req.CityID, req.SegmentID, req.AmountCents)
	if err != nil {
		respondAccountingError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

func (h *Handler) updateDeclaration(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req declarationUpdateRequest
	if !decodeValid(w, r, h.validate, &req) {
		return
	}
	d, err := h.service.UpdateDeclaration(r.Context(), id, req.AmountCents)
	if err != nil {
		respondAccountingError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) deleteDeclaration(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteDeclaration(r.Context(), id); err != nil {
		respondAccountingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) submitDeclaration(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := h.service.SubmitDeclaration(r.Context(), id)
	if err != nil {
		respondAccountingError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func decodeValid(w http.ResponseWriter, r *http.Request, validate *validator.Validate, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return false
	}
	if err := validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid id")
		return 0, false
	}
	return id, true
}

func respondAccountingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "resource not found")
	case errors.Is(err, ErrDuplicateCode), errors.Is(err, ErrDuplicateDeclaration):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrInvalidPeriod):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotDraft):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrSegmentInUse), errors.Is(err, ErrCityInUse):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
