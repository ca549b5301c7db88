// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shorturl

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gestaocondominio/portaria/internal/platform/apperr"
	requestutil "github.com/gestaocondominio/portaria/internal/platform/request"
	"github.com/gestaocondominio/portaria/internal/platform/respond"
)

// Handler implements the share-link HTTP endpoints.
type Handler struct {
	service *Service
	formURL string
}

// NewHandler constructs a new [Handler]. Redirects land on formURL with
// the resident data as query parameters.
func NewHandler(service *Service, formURL string) *Handler {
	return &Handler{service: service, formURL: formURL}
}

// Routes returns the management routes (mounted under /api/v1/links).
//
// # Endpoints
//   - POST   /      : Creates a share link.
//   - GET    /{id}  : Link metadata.
//   - DELETE /{id}  : Deactivates the link.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Delete("/{id}", handler.deactivate)

	return router
}

// Redirect handles GET /s/{id} at the server root: 302 to the form while
// the link is alive, 410 afterwards.
func (handler *Handler) Redirect(writer http.ResponseWriter, request *http.Request) {
	link, err := handler.service.Resolve(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		if apperr.HasCode(err, "LINK_GONE") {
			http.Error(writer, "This link has expired", http.StatusGone)
			return
		}
		respond.Error(writer, request, err)
		return
	}

	http.Redirect(writer, request, link.FormURL(handler.formURL), http.StatusFound)
}

// createRequest is the JSON payload for link creation.
type createRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	UnitCode string `json:"unit_code"`
	Keyword  string `json:"keyword"`
}

// create handles POST /api/v1/links.
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	link, err := handler.service.Create(request.Context(), CreateInput{
		Name:     input.Name,
		Phone:    input.Phone,
		UnitCode: input.UnitCode,
		Keyword:  input.Keyword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, link)
}

// get handles GET /api/v1/links/{id}.
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	link, err := handler.service.Resolve(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, link)
}

// deactivate handles DELETE /api/v1/links/{id}.
func (handler *Handler) deactivate(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Deactivate(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
