// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package receipt

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/gestaocondominio/portaria/internal/platform/request"
	"github.com/gestaocondominio/portaria/internal/platform/respond"
	"github.com/gestaocondominio/portaria/internal/platform/validate"
)

// Handler implements the receipt HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the receipt routes.
//
// # Endpoints
//   - POST /{authorizationID}          : Multipart PDF upload + notification.
//   - GET  /{authorizationID}          : Metadata.
//   - GET  /{authorizationID}/download : File content.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/{authorizationID}", handler.upload)
	router.Get("/{authorizationID}", handler.get)
	router.Get("/{authorizationID}/download", handler.download)

	return router
}

// upload handles POST /api/v1/receipts/{authorizationID}.
func (handler *Handler) upload(writer http.ResponseWriter, request *http.Request) {
	if err := request.ParseMultipartForm(MaxUploadSize); err != nil {
		respond.Error(writer, request, ErrFileTooLarge)
		return
	}

	file, header, err := request.FormFile("file")
	if err != nil {
		respond.Error(writer, request, validate.RequiredError("file", "is required"))
		return
	}
	defer file.Close()

	rec, err := handler.service.Upload(request.Context(),
		requestutil.ID(request, "authorizationID"),
		header.Filename, header.Size, file)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, rec)
}

// get handles GET /api/v1/receipts/{authorizationID}.
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	rec, err := handler.service.Get(request.Context(), requestutil.ID(request, "authorizationID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, rec)
}

// download handles GET /api/v1/receipts/{authorizationID}/download.
func (handler *Handler) download(writer http.ResponseWriter, request *http.Request) {
	rec, content, err := handler.service.Open(request.Context(), requestutil.ID(request, "authorizationID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer content.Close()

	respond.File(writer, rec.FileName, "application/pdf", rec.Size, content)
}
