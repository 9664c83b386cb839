package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hotela/config"
	"hotela/infras/otel"
	"hotela/internal/domains/booking/availability"
	"hotela/internal/domains/booking/model"
	"hotela/internal/domains/booking/model/dto"
	"hotela/internal/domains/booking/repository"
	guestModel "hotela/internal/domains/guest/model"
	guestRepo "hotela/internal/domains/guest/repository"
	roomModel "hotela/internal/domains/room/model"
	roomRepo "hotela/internal/domains/room/repository"
	"hotela/shared"
	"hotela/shared/cache"
	"hotela/shared/constant"
	gDto "hotela/shared/dto"
	"hotela/shared/failure"
	"hotela/shared/timezone"
)

const (
	cacheGetBooking    = "booking:get"
	cacheGetAllBooking = "booking:gets"
	cacheCountBooking  = "booking:count"
)

// Admission rejections. Each is a user-facing failure carrying the violated
// rule, checked in this order.
var (
	ErrInvalidRange        = failure.UnprocessableEntity("check-out date must be after check-in date")
	ErrHorizonExceeded     = failure.UnprocessableEntity("requested dates are beyond the booking horizon")
	ErrNotWithinOpenPeriod = failure.UnprocessableEntity("requested dates are not within an open period")
	ErrConflictingBooking  = failure.Conflict("requested dates overlap an existing booking")
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	Validate(ctx context.Context, req dto.ValidateBookingRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	Update(ctx context.Context, req dto.UpdateBookingRequest, id string) error
	Delete(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	CheckIn(ctx context.Context, id string) error
	CheckOut(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo      repository.Booking
	roomRepo  roomRepo.Room
	guestRepo guestRepo.Guest
	cfg       *config.Config
	cache     cache.RedisCache
	otel      otel.Otel
}

func New(repo repository.Booking, roomRepo roomRepo.Room, guestRepo guestRepo.Guest, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Booking {
	return &serviceImpl{
		repo:      repo,
		roomRepo:  roomRepo,
		guestRepo: guestRepo,
		cfg:       cfg,
		cache:     cache,
		otel:      otel,
	}
}

// Create admits a booking: the proposed dates are validated against live
// data, the guest is resolved by email, and the insert re-checks the overlap
// inside a serializable transaction to close the race between validation and
// write. A rejected request creates neither booking nor guest.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyClientID).(string)

	checkIn, checkOut, err := req.ParseDates()
	if err != nil {
		log.Error().Err(err).Msg("failed to parse booking dates")

		return res, ErrInvalidRange // nolint:wrapcheck
	}

	if err = s.validate(ctx, req.RoomID, checkIn, checkOut, timezone.Today(), constant.Empty); err != nil {
		return res, err
	}

	guest, err := s.resolveGuest(ctx, req, user)
	if err != nil {
		return res, err
	}

	booking := req.ToModel(user, guest.ID, checkIn, checkOut)

	if err = s.repo.InsertIfVacant(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrVacancyLost) {
			return res, ErrConflictingBooking // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)
	}()

	booking.GuestFirstName = guest.FirstName
	booking.GuestLastName = guest.LastName
	booking.GuestEmail = guest.Email

	res.FromModel(booking)

	return res, nil
}

// Validate runs the admission checks without committing anything. The result
// depends only on the request and the current store state.
func (s *serviceImpl) Validate(ctx context.Context, req dto.ValidateBookingRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Validate")
	defer scope.End()
	defer scope.TraceIfError(err)

	checkIn, checkOut, err := req.ParseDates()
	if err != nil {
		return ErrInvalidRange // nolint:wrapcheck
	}

	return s.validate(ctx, req.RoomID, checkIn, checkOut, timezone.Today(), req.ExcludeBookingID)
}

// validate applies the admission rules in order, reporting the first failure:
// InvalidRange, HorizonExceeded, NotWithinOpenPeriod, ConflictingBooking.
func (s *serviceImpl) validate(ctx context.Context, roomID string, checkIn, checkOut, today time.Time, excludeID string) error {
	if !checkOut.After(checkIn) {
		return ErrInvalidRange // nolint:wrapcheck
	}

	horizonDays := s.cfg.App.Booking.MaxHorizonDays
	horizonEnd := today.AddDate(0, 0, horizonDays)

	if checkIn.After(horizonEnd) || checkOut.After(horizonEnd) {
		return ErrHorizonExceeded // nolint:wrapcheck
	}

	exist, err := s.roomRepo.Exist(ctx, shared.FilterByID(roomID, roomModel.FieldID, roomModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if room exists")

		return fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exist {
		return failure.NotFound("room not found") // nolint:wrapcheck
	}

	bookings, err := s.repo.FindActiveInRange(ctx, roomID, today, horizonEnd)
	if err != nil {
		log.Error().Err(err).Msg("failed to get active bookings for room")

		return fmt.Errorf("failed to get active bookings for room: %w", err)
	}

	// A proposal overlapping an active booking fails containment too; report
	// the more specific conflict in that case.
	considered := withoutBooking(bookings, excludeID)
	if !availability.ContainedInAny(availability.OpenIntervals(considered, today, horizonDays), checkIn, checkOut) {
		if availability.HasOverlap(considered, checkIn, checkOut, constant.Empty) {
			return ErrConflictingBooking // nolint:wrapcheck
		}

		return ErrNotWithinOpenPeriod // nolint:wrapcheck
	}

	conflict, err := s.repo.ExistOverlappingActive(ctx, roomID, checkIn, checkOut, excludeID)
	if err != nil {
		log.Error().Err(err).Msg("failed to check for overlapping bookings")

		return fmt.Errorf("failed to check for overlapping bookings: %w", err)
	}

	if conflict {
		return ErrConflictingBooking // nolint:wrapcheck
	}

	return nil
}

func withoutBooking(bookings []model.Booking, excludeID string) []model.Booking {
	if excludeID == "" {
		return bookings
	}

	kept := make([]model.Booking, 0, len(bookings))

	for _, booking := range bookings {
		if booking.ID != excludeID {
			kept = append(kept, booking)
		}
	}

	return kept
}

// resolveGuest finds the guest by email or creates one. An existing guest's
// name and phone are left untouched on repeat bookings.
func (s *serviceImpl) resolveGuest(ctx context.Context, req dto.CreateBookingRequest, user string) (guestModel.Guest, error) {
	guest, err := s.guestRepo.GetByEmail(ctx, req.GuestEmail)
	if err != nil {
		log.Error().Err(err).Msg("failed to look up guest by email")

		return guest, fmt.Errorf("failed to look up guest by email: %w", err)
	}

	if guest.ID != constant.Empty {
		return guest, nil
	}

	guest = req.ToGuestModel(user)

	if err := s.guestRepo.Insert(ctx, guest); err != nil {
		// Lost a creation race on the unique email; the winner's row is the
		// guest we want.
		existing, lookupErr := s.guestRepo.GetByEmail(ctx, req.GuestEmail)
		if lookupErr == nil && existing.ID != constant.Empty {
			return existing, nil
		}

		log.Error().Err(err).Msg("failed to create guest")

		return guest, fmt.Errorf("failed to create guest: %w", err)
	}

	return guest, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking")

		return res, nil
	}

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	res.FromModel(booking)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateBookingRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req == (dto.UpdateBookingRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	user, _ := ctx.Value(constant.ContextKeyClientID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if booking exists")

		return fmt.Errorf("failed to check if booking exists: %w", err)
	}

	if !exist {
		log.Error().Msg("booking not found")

		return failure.NotFound("booking not found") // nolint:wrapcheck
	}

	updatedFields := shared.TransformFields(req, user)
	if err := s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update booking")

		return fmt.Errorf("failed to update booking: %w", err)
	}

	s.invalidateBooking(ctx, id)

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	exist, err := s.repo.Exist(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if booking exists")

		return fmt.Errorf("failed to check if booking exists: %w", err)
	}

	if !exist {
		log.Error().Msg("booking not found")

		return failure.NotFound("booking not found") // nolint:wrapcheck
	}

	if err := s.repo.Delete(ctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete booking")

		return fmt.Errorf("failed to delete booking: %w", err)
	}

	s.invalidateBooking(ctx, id)

	return nil
}

// Cancel releases the booking's room immediately. Availability is derived
// from booking rows, so no separate availability state needs touching.
func (s *serviceImpl) Cancel(ctx context.Context, id string) error {
	return s.transition(ctx, id, model.StatusCanceled)
}

func (s *serviceImpl) CheckIn(ctx context.Context, id string) error {
	return s.transition(ctx, id, model.StatusCheckedIn)
}

func (s *serviceImpl) CheckOut(ctx context.Context, id string) error {
	return s.transition(ctx, id, model.StatusCheckedOut)
}

func (s *serviceImpl) transition(ctx context.Context, id string, next model.Status) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, fmt.Sprintf("%s.booking.transition.%s", constant.OtelServiceScopeName, next))
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyClientID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	booking, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return failure.NotFound("booking not found") // nolint:wrapcheck
	}

	if !booking.Status.CanTransitionTo(next) {
		return failure.UnprocessableEntity(fmt.Sprintf("booking cannot go from %s to %s", booking.Status, next)) // nolint:wrapcheck
	}

	updatedFields := map[string]any{
		model.FieldStatus:        next,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: user,
	}

	if err := s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update booking status")

		return fmt.Errorf("failed to update booking status: %w", err)
	}

	s.invalidateBooking(ctx, id)

	return nil
}

func (s *serviceImpl) invalidateBooking(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)
	}()
}
