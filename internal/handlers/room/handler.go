package room

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotela/infras/otel"
	"hotela/internal/domains/room/model"
	"hotela/internal/domains/room/model/dto"
	"hotela/internal/domains/room/service"
	"hotela/shared/constant"
	gDto "hotela/shared/dto"
	"hotela/shared/failure"
	"hotela/shared/timezone"
	"hotela/shared/validator"
	"hotela/transport/http/response"
)

type Handler struct {
	service service.Room
	otel    otel.Otel
}

func New(service service.Room, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/rooms", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateRoom)
		routerGroup.Get("/", handler.GetRooms)
		routerGroup.Get("/{id}", handler.GetRoomByID)
		routerGroup.Patch("/{id}", handler.UpdateRoom)
		routerGroup.Delete("/{id}", handler.DeleteRoom)
		routerGroup.Get("/{id}/availability", handler.GetRoomAvailability)
		routerGroup.Get("/{id}/open-periods", handler.GetRoomOpenPeriods)
	})
}

// CreateRoom adds a room to the inventory.
// @Summary Create a new room
// @Description Create a new room with the provided details.
// @Tags Room
// @Accept json
// @Produce json
// @Param request body dto.CreateRoomRequest true "Create Room Request"
// @Success 201 {object} response.Message "Room created successfully"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms [post]
func (handler *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateRoom")
	defer scope.End()

	req := dto.CreateRoomRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Create(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create room")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Room created successfully")

	response.WithMessage(w, http.StatusCreated, "Room created successfully")
}

// GetRooms retrieves rooms with optional filters.
// @Summary Get all rooms
// @Description Retrieve rooms with optional filtering on type, capacity, price and availability.
// @Tags Room
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param room_type query string false "Filter by room type (single, double, suite, family, deluxe)"
// @Param min_capacity query int false "Minimum capacity"
// @Param max_capacity query int false "Maximum capacity"
// @Param min_price query number false "Minimum nightly price"
// @Param max_price query number false "Maximum nightly price"
// @Param only_available query bool false "Only rooms free as of today"
// @Success 200 {object} response.Data[dto.GetRoomsResponse] "List of rooms"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms [get]
func (handler *Handler) GetRooms(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRooms")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if roomType := r.URL.Query().Get(model.FieldRoomType); roomType != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldRoomType,
			Operator: gDto.FilterOperatorEq,
			Value:    roomType,
			Table:    model.TableName,
		})
	}

	if minCapacity := r.URL.Query().Get("min_capacity"); minCapacity != "" {
		if value, err := strconv.Atoi(minCapacity); err == nil {
			filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
				ArgName:  "min_capacity",
				Field:    model.FieldCapacity,
				Operator: gDto.FilterOperatorGreaterEq,
				Value:    value,
				Table:    model.TableName,
			})
		}
	}

	if maxCapacity := r.URL.Query().Get("max_capacity"); maxCapacity != "" {
		if value, err := strconv.Atoi(maxCapacity); err == nil {
			filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
				ArgName:  "max_capacity",
				Field:    model.FieldCapacity,
				Operator: gDto.FilterOperatorLessEq,
				Value:    value,
				Table:    model.TableName,
			})
		}
	}

	if minPrice := r.URL.Query().Get("min_price"); minPrice != "" {
		if value, err := strconv.ParseFloat(minPrice, 64); err == nil {
			filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
				ArgName:  "min_price",
				Field:    model.FieldPricePerNight,
				Operator: gDto.FilterOperatorGreaterEq,
				Value:    value,
				Table:    model.TableName,
			})
		}
	}

	if maxPrice := r.URL.Query().Get("max_price"); maxPrice != "" {
		if value, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
				ArgName:  "max_price",
				Field:    model.FieldPricePerNight,
				Operator: gDto.FilterOperatorLessEq,
				Value:    value,
				Table:    model.TableName,
			})
		}
	}

	onlyAvailable := false
	if value := r.URL.Query().Get("only_available"); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			response.WithError(w, failure.BadRequestFromString("invalid only_available parameter"))

			return
		}

		onlyAvailable = parsed
	}

	rooms, err := handler.service.GetAll(ctx, queryParams, filterGroup, onlyAvailable)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get rooms")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Rooms retrieved successfully")

	response.WithJSON(w, http.StatusOK, rooms)
}

// GetRoomByID retrieves a room by its ID, with derived availability.
// @Summary Get a room by ID
// @Description Retrieve a room by its unique identifier, including current availability.
// @Tags Room
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Data[dto.RoomResponse] "Room details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id} [get]
func (handler *Handler) GetRoomByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRoomByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	room, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get room by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Room retrieved successfully")

	response.WithJSON(w, http.StatusOK, room)
}

// UpdateRoom updates an existing room by its ID.
// @Summary Update a room by ID
// @Description Update the details of an existing room.
// @Tags Room
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param request body dto.UpdateRoomRequest true "Update Room Request"
// @Success 200 {object} response.Message "Room updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id} [patch]
func (handler *Handler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateRoom")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateRoomRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update room")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Room updated successfully")

	response.WithMessage(w, http.StatusOK, "Room updated successfully")
}

// DeleteRoom deletes a room and its bookings.
// @Summary Delete a room by ID
// @Description Delete a room using its unique identifier. Its bookings are removed with it.
// @Tags Room
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Message "Room deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id} [delete]
func (handler *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteRoom")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete room")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Room deleted successfully")

	response.WithMessage(w, http.StatusOK, "Room deleted successfully")
}

// GetRoomAvailability reports whether the room is free on a date.
// @Summary Get room availability
// @Description Report whether the room is free on the given date and when it next becomes free.
// @Tags Room
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param date query string false "Date to check (YYYY-MM-DD, default today)"
// @Success 200 {object} response.Data[dto.RoomAvailabilityResponse] "Availability"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id}/availability [get]
func (handler *Handler) GetRoomAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRoomAvailability")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	asOf := timezone.Today()

	if value := r.URL.Query().Get(constant.RequestParamDate); value != "" {
		parsed, err := time.Parse(constant.DateOnlyFormat, value)
		if err != nil {
			response.WithError(w, failure.BadRequestFromString("invalid date parameter, expected YYYY-MM-DD"))

			return
		}

		asOf = parsed
	}

	availability, err := handler.service.Availability(ctx, id, asOf)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get room availability")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Room availability retrieved successfully")

	response.WithJSON(w, http.StatusOK, availability)
}

// GetRoomOpenPeriods lists the bookable intervals within the horizon.
// @Summary Get room open periods
// @Description List the free date intervals of a room within the booking horizon.
// @Tags Room
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param from query string false "Start date (YYYY-MM-DD, default today)"
// @Param days query int false "Horizon in days (default configured booking horizon)"
// @Success 200 {object} response.Data[dto.OpenPeriodsResponse] "Open periods"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id}/open-periods [get]
func (handler *Handler) GetRoomOpenPeriods(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRoomOpenPeriods")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	from := timezone.Today()

	if value := r.URL.Query().Get(constant.RequestParamFromDate); value != "" {
		parsed, err := time.Parse(constant.DateOnlyFormat, value)
		if err != nil {
			response.WithError(w, failure.BadRequestFromString("invalid from parameter, expected YYYY-MM-DD"))

			return
		}

		from = parsed
	}

	days := 0

	if value := r.URL.Query().Get(constant.RequestParamDays); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			response.WithError(w, failure.BadRequestFromString("invalid days parameter"))

			return
		}

		days = parsed
	}

	periods, err := handler.service.OpenPeriods(ctx, id, from, days)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get room open periods")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Room open periods retrieved successfully")

	response.WithJSON(w, http.StatusOK, periods)
}
