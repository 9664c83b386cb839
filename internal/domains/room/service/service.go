package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hotela/config"
	"hotela/infras/otel"
	"hotela/internal/domains/booking/availability"
	bookingRepo "hotela/internal/domains/booking/repository"
	"hotela/internal/domains/room/model"
	"hotela/internal/domains/room/model/dto"
	"hotela/internal/domains/room/repository"
	"hotela/shared"
	"hotela/shared/cache"
	"hotela/shared/constant"
	gDto "hotela/shared/dto"
	"hotela/shared/failure"
	"hotela/shared/timezone"
)

const (
	cacheGetRoom    = "room:get"
	cacheGetAllRoom = "room:gets"
	cacheCountRoom  = "room:count"
)

type Room interface {
	Create(ctx context.Context, req dto.CreateRoomRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup, onlyAvailable bool) (dto.GetRoomsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.RoomResponse, error)
	Update(ctx context.Context, req dto.UpdateRoomRequest, id string) error
	Delete(ctx context.Context, id string) error
	Availability(ctx context.Context, id string, asOf time.Time) (dto.RoomAvailabilityResponse, error)
	OpenPeriods(ctx context.Context, id string, from time.Time, horizonDays int) (dto.OpenPeriodsResponse, error)
}

type serviceImpl struct {
	repo        repository.Room
	bookingRepo bookingRepo.Booking
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
}

func New(repo repository.Room, bookingRepo bookingRepo.Booking, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Room {
	return &serviceImpl{
		repo:        repo,
		bookingRepo: bookingRepo,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateRoomRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".room.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyClientID).(string)

	taken, err := s.repo.Exist(ctx, gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldRoomNumber,
				Value:    req.RoomNumber,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to check room number uniqueness")

		return fmt.Errorf("failed to check room number uniqueness: %w", err)
	}

	if taken {
		return failure.Conflict("room number already in use") // nolint:wrapcheck
	}

	if err = s.repo.Insert(ctx, req.ToModel(user)); err != nil {
		log.Error().Err(err).Msg("failed to create room")

		return fmt.Errorf("failed to create room: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllRoom)
		shared.InvalidateCaches(c, s.cache, cacheCountRoom)
	}()

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup, onlyAvailable bool) (res dto.GetRoomsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".room.GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllRoom, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err != nil {
		total, err := s.Count(ctx, req, filter)
		if err != nil {
			log.Error().Err(err).Msg("failed to count rooms")

			return res, fmt.Errorf("failed to count rooms: %w", err)
		}

		models, err := s.repo.GetAll(ctx, req, filter)
		if err != nil {
			log.Error().Err(err).Msg("failed to get rooms")

			return res, fmt.Errorf("failed to get rooms: %w", err)
		}

		res.FromModels(models, total, req.Limit)

		go func() {
			c := context.WithoutCancel(ctx)

			if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
				log.Error().Err(err).Msg("failed to save rooms to cache")
			}
		}()
	} else {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for rooms")
	}

	// Availability is derived, so it is stamped after the cache read and the
	// only_available filter is applied to live data.
	return s.applyAvailability(ctx, res, onlyAvailable)
}

func (s *serviceImpl) applyAvailability(ctx context.Context, res dto.GetRoomsResponse, onlyAvailable bool) (dto.GetRoomsResponse, error) {
	today := timezone.Today()
	rooms := make([]dto.RoomResponse, 0, len(res.Rooms))

	for _, room := range res.Rooms {
		bookings, err := s.bookingRepo.FindActiveFrom(ctx, room.ID, today)
		if err != nil {
			log.Error().Err(err).Str("roomID", room.ID).Msg("failed to get active bookings for room")

			return res, fmt.Errorf("failed to get active bookings for room: %w", err)
		}

		free := availability.IsFree(bookings, today)
		room.SetAvailability(free, availability.NextFreeDate(bookings, today))

		if onlyAvailable && !free {
			continue
		}

		rooms = append(rooms, room)
	}

	res.Rooms = rooms

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".room.Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountRoom, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for room count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count rooms")

		return res, fmt.Errorf("failed to count rooms: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save room count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.RoomResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".room.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetRoom, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err != nil {
		room, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
		if err != nil {
			log.Error().Err(err).Msg("failed to get room")

			return res, fmt.Errorf("failed to get room: %w", err)
		}

		if room.ID == constant.Empty {
			return res, failure.NotFound("room not found") // nolint:wrapcheck
		}

		res.FromModel(room)

		go func() {
			c := context.WithoutCancel(ctx)

			if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
				log.Error().Err(err).Msg("failed to save room to cache")
			}
		}()
	} else {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for room")
	}

	today := timezone.Today()

	bookings, err := s.bookingRepo.FindActiveFrom(ctx, id, today)
	if err != nil {
		log.Error().Err(err).Msg("failed to get active bookings for room")

		return res, fmt.Errorf("failed to get active bookings for room: %w", err)
	}

	res.SetAvailability(availability.IsFree(bookings, today), availability.NextFreeDate(bookings, today))

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateRoomRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".room.Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyClientID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if room exists")

		return fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exist {
		log.Error().Msg("room not found")

		return failure.NotFound("room not found") // nolint:wrapcheck
	}

	updatedFields := shared.TransformFields(req, user)
	if err := s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update room")

		return fmt.Errorf("failed to update room: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetRoom, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete room from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllRoom)
		shared.InvalidateCaches(c, s.cache, cacheCountRoom)
	}()

	return nil
}

// Delete removes the room; its bookings go with it through the storage-level
// cascade.
func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".room.Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	exist, err := s.repo.Exist(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if room exists")

		return fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exist {
		log.Error().Msg("room not found")

		return failure.NotFound("room not found") // nolint:wrapcheck
	}

	if err := s.repo.Delete(ctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete room")

		return fmt.Errorf("failed to delete room: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetRoom, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete room from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllRoom)
		shared.InvalidateCaches(c, s.cache, cacheCountRoom)
	}()

	return nil
}

func (s *serviceImpl) Availability(ctx context.Context, id string, asOf time.Time) (res dto.RoomAvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".room.Availability")
	defer scope.End()
	defer scope.TraceIfError(err)

	exist, err := s.repo.Exist(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if room exists")

		return res, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exist {
		return res, failure.NotFound("room not found") // nolint:wrapcheck
	}

	asOf = availability.Day(asOf)

	bookings, err := s.bookingRepo.FindActiveFrom(ctx, id, asOf)
	if err != nil {
		log.Error().Err(err).Msg("failed to get active bookings for room")

		return res, fmt.Errorf("failed to get active bookings for room: %w", err)
	}

	return dto.RoomAvailabilityResponse{
		RoomID:       id,
		Date:         asOf.Format(constant.DateOnlyFormat),
		IsAvailable:  availability.IsFree(bookings, asOf),
		NextFreeDate: availability.NextFreeDate(bookings, asOf).Format(constant.DateOnlyFormat),
	}, nil
}

func (s *serviceImpl) OpenPeriods(ctx context.Context, id string, from time.Time, horizonDays int) (res dto.OpenPeriodsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".room.OpenPeriods")
	defer scope.End()
	defer scope.TraceIfError(err)

	exist, err := s.repo.Exist(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if room exists")

		return res, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exist {
		return res, failure.NotFound("room not found") // nolint:wrapcheck
	}

	if horizonDays <= 0 {
		horizonDays = s.cfg.App.Booking.MaxHorizonDays
	}

	from = availability.Day(from)

	bookings, err := s.bookingRepo.FindActiveInRange(ctx, id, from, from.AddDate(0, 0, horizonDays))
	if err != nil {
		log.Error().Err(err).Msg("failed to get active bookings for room")

		return res, fmt.Errorf("failed to get active bookings for room: %w", err)
	}

	intervals := availability.OpenIntervals(bookings, from, horizonDays)

	periods := make([]dto.OpenPeriod, len(intervals))
	for i, interval := range intervals {
		periods[i] = dto.OpenPeriod{
			StartDate: interval.Start.Format(constant.DateOnlyFormat),
			EndDate:   interval.End.Format(constant.DateOnlyFormat),
		}
	}

	return dto.OpenPeriodsResponse{
		RoomID:      id,
		FromDate:    from.Format(constant.DateOnlyFormat),
		HorizonDays: horizonDays,
		OpenPeriods: periods,
	}, nil
}
