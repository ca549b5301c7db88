// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package unit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/gestaocondominio/portaria/internal/platform/request"
	"github.com/gestaocondominio/portaria/internal/platform/respond"
	"github.com/gestaocondominio/portaria/internal/platform/validate"
)

// Handler implements the unit-directory HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the directory routes.
//
// # Endpoints
//   - GET  /        : Full directory content.
//   - GET  /lookup  : Resolve a phone (query: phone, condominium_id?).
//   - POST /reload  : Force a re-read of the registration file.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list)
	router.Get("/lookup", handler.lookup)
	router.Post("/reload", handler.reload)

	return router
}

// list handles GET /api/v1/units.
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	condominiums, err := handler.service.Condominiums()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, condominiums)
}

// lookup handles GET /api/v1/units/lookup?phone=...&condominium_id=...
func (handler *Handler) lookup(writer http.ResponseWriter, request *http.Request) {
	phone := requestutil.Query(request, "phone")
	if phone == "" {
		respond.Error(writer, request, validate.RequiredError("phone", "is required"))
		return
	}

	matches, err := handler.service.FindByPhone(request.Context(),
		requestutil.Query(request, "condominium_id"), phone)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, matches)
}

// reload handles POST /api/v1/units/reload.
func (handler *Handler) reload(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Reload(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
