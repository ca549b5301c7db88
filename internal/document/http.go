// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/gestaocondominio/portaria/internal/platform/request"
	"github.com/gestaocondominio/portaria/internal/platform/respond"
	"github.com/gestaocondominio/portaria/internal/platform/validate"
)

// Handler implements the document HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the document routes.
//
// # Endpoints
//   - POST   /                : Multipart upload (file + authorization_id).
//   - GET    /{id}            : Metadata.
//   - GET    /{id}/download   : File content.
//   - DELETE /{id}            : Removes the file, keeps the metadata.
//   - GET    /by-authorization/{authorizationID} : All documents of a grant.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.upload)
	router.Get("/{id}", handler.get)
	router.Get("/{id}/download", handler.download)
	router.Delete("/{id}", handler.remove)
	router.Get("/by-authorization/{authorizationID}", handler.listByAuthorization)

	return router
}

// upload handles POST /api/v1/documents (multipart/form-data).
//
// # Form Fields
//   - file             : The document content (required).
//   - authorization_id : Owning authorization (required).
//   - type             : Free-text document kind (optional).
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

	doc, err := handler.service.Upload(request.Context(), UploadInput{
		AuthorizationID: request.FormValue("authorization_id"),
		Type:            request.FormValue("type"),
		OriginalName:    header.Filename,
		ContentType:     header.Header.Get("Content-Type"),
		Size:            header.Size,
		Content:         file,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, doc)
}

// get handles GET /api/v1/documents/{id}.
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	doc, err := handler.service.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, doc)
}

// download handles GET /api/v1/documents/{id}/download.
func (handler *Handler) download(writer http.ResponseWriter, request *http.Request) {
	doc, content, err := handler.service.Open(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer content.Close()

	respond.File(writer, doc.OriginalName, doc.ContentType, doc.Size, content)
}

// remove handles DELETE /api/v1/documents/{id}.
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// listByAuthorization handles GET /api/v1/documents/by-authorization/{authorizationID}.
func (handler *Handler) listByAuthorization(writer http.ResponseWriter, request *http.Request) {
	docs, err := handler.service.ListByAuthorization(
		request.Context(), requestutil.ID(request, "authorizationID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, docs)
}
