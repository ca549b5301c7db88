// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// HTTP delivery layer for the authorization use cases.
//
// # Architecture
//
// Handlers act as the "gatekeepers" to the system. They are responsible for:
//   - JSON request parsing and fast-fail input checks.
//   - Mapping HTTP contexts to service layer method calls.
//   - Standardizing JSON response formats via the [respond] package.
//
// They contain NO business logic or database queries.

package authorization

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gestaocondominio/portaria/internal/platform/clock"
	"github.com/gestaocondominio/portaria/internal/platform/constants"
	"github.com/gestaocondominio/portaria/internal/platform/middleware"
	requestutil "github.com/gestaocondominio/portaria/internal/platform/request"
	"github.com/gestaocondominio/portaria/internal/platform/respond"
	"github.com/gestaocondominio/portaria/internal/platform/validate"
	"github.com/gestaocondominio/portaria/pkg/pagination"
)

// Handler implements the authorization HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the authorization routes.
//
// # Endpoints
//   - POST /               : Creates an authorization (resident side).
//   - GET  /               : Lists with optional filters.
//   - GET  /{id}           : Fetches one, status freshly computed.
//   - POST /{id}/cancel    : Flags as cancelled while still unused.
//   - POST /{id}/check-in  : Gate entry registration.
//   - POST /{id}/check-out : Gate exit registration.
//   - POST /validate-code  : Gate lookup by access code.
//   - POST /validate-qr    : Gate lookup by signed QR payload.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.create)
	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)
	router.Post("/{id}/cancel", handler.cancel)
	router.Post("/{id}/check-in", handler.checkIn)
	router.Post("/{id}/check-out", handler.checkOut)
	router.Post("/validate-code", handler.validateCode)
	router.Post("/validate-qr", handler.validateQR)

	return router
}

// createRequest is the JSON payload for granting access.
type createRequest struct {
	CondominiumID string `json:"condominium_id"`
	Kind          string `json:"kind"`
	PeriodKind    string `json:"period_kind"`

	VisitorName    string `json:"visitor_name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	DocumentNumber string `json:"document_number"`
	Company        string `json:"company"`

	StartDate clock.Date `json:"start_date"`
	EndDate   clock.Date `json:"end_date"`

	Recurrence *Recurrence `json:"recurrence"`
	Vehicle    *Vehicle    `json:"vehicle"`

	AuthorizerName        string     `json:"authorizer_name"`
	AuthorizerPhone       string     `json:"authorizer_phone"`
	UnitCode              string     `json:"unit_code"`
	AuthorizerConfirmedAt *time.Time `json:"authorizer_confirmed_at"`

	Device *DeviceInfo `json:"device_info"`
}

// create handles POST /api/v1/authorizations.
//
// # Returns
//   - 201 Created with the stored entity and a Location header.
//   - 400 Bad Request when validation rules fail.
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	creator := requestutil.Actor(request, constants.DefaultResidentActor)
	clientIP := middleware.RealIP(request)

	view, err := handler.service.Create(request.Context(), CreateInput{
		CondominiumID:         input.CondominiumID,
		Kind:                  Kind(input.Kind),
		PeriodKind:            PeriodKind(input.PeriodKind),
		VisitorName:           input.VisitorName,
		Phone:                 input.Phone,
		Email:                 input.Email,
		DocumentNumber:        input.DocumentNumber,
		Company:               input.Company,
		StartDate:             input.StartDate,
		EndDate:               input.EndDate,
		Recurrence:            input.Recurrence,
		Vehicle:               input.Vehicle,
		AuthorizerName:        input.AuthorizerName,
		AuthorizerPhone:       input.AuthorizerPhone,
		UnitCode:              input.UnitCode,
		AuthorizerConfirmedAt: input.AuthorizerConfirmedAt,
		Device:                input.Device,
	}, creator, clientIP)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set("Location", request.URL.Path+"/"+view.ID)
	respond.Created(writer, view)
}

// get handles GET /api/v1/authorizations/{id}.
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.service.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

// list handles GET /api/v1/authorizations with optional filters
// (condominium_id, unit_code, status) and pagination.
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	views, meta, err := handler.service.List(request.Context(), ListInput{
		CondominiumID: requestutil.Query(request, "condominium_id"),
		UnitCode:      requestutil.Query(request, "unit_code"),
		Status:        Status(requestutil.Query(request, "status")),
		Page:          pagination.FromRequest(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, views, meta)
}

// cancel handles POST /api/v1/authorizations/{id}/cancel.
func (handler *Handler) cancel(writer http.ResponseWriter, request *http.Request) {
	actor := requestutil.Actor(request, constants.DefaultResidentActor)

	view, err := handler.service.Cancel(request.Context(), requestutil.ID(request, "id"), actor)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

// movementRequest is the JSON payload for check-in and check-out.
type movementRequest struct {
	DocumentID string `json:"document_id"`
	Notes      string `json:"notes"`
}

// checkIn handles POST /api/v1/authorizations/{id}/check-in.
//
// # Returns
//   - 200 OK with the created movement record.
//   - 400 Bad Request with CHECK_IN_ALREADY_OPEN, DOCUMENT_REQUIRED or
//     DOCUMENT_MISMATCH when the policy rejects the movement.
func (handler *Handler) checkIn(writer http.ResponseWriter, request *http.Request) {
	var input movementRequest
	if request.ContentLength > 0 {
		if err := requestutil.DecodeJSON(request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	staff := requestutil.Actor(request, constants.DefaultGateActor)

	record, err := handler.service.CheckIn(request.Context(),
		requestutil.ID(request, "id"), input.DocumentID, staff, input.Notes)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

// checkOut handles POST /api/v1/authorizations/{id}/check-out.
func (handler *Handler) checkOut(writer http.ResponseWriter, request *http.Request) {
	var input movementRequest
	if request.ContentLength > 0 {
		if err := requestutil.DecodeJSON(request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	staff := requestutil.Actor(request, constants.DefaultGateActor)

	record, err := handler.service.CheckOut(request.Context(),
		requestutil.ID(request, "id"), staff, input.Notes)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

// validateRequest is the JSON payload for the gate validation endpoints.
type validateRequest struct {
	Code string `json:"code"`
	QR   string `json:"qr"`
}

// validateCode handles POST /api/v1/authorizations/validate-code.
func (handler *Handler) validateCode(writer http.ResponseWriter, request *http.Request) {
	var input validateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.Code == "" {
		respond.Error(writer, request, validate.RequiredError("code", "is required"))
		return
	}

	view, err := handler.service.ValidateCode(request.Context(), input.Code)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

// validateQR handles POST /api/v1/authorizations/validate-qr.
func (handler *Handler) validateQR(writer http.ResponseWriter, request *http.Request) {
	var input validateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.QR == "" {
		respond.Error(writer, request, validate.RequiredError("qr", "is required"))
		return
	}

	view, err := handler.service.ValidateQR(request.Context(), input.QR)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}
