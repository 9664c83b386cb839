//go:build wireinject
// +build wireinject

package di

import (
	"hotela/config"
	"hotela/infras/otel"
	"hotela/infras/postgres"
	"hotela/infras/redis"
	"hotela/shared/cache"
	"hotela/transport/http"
	"hotela/transport/http/middleware"
	"hotela/transport/http/router"

	bookingHandler "hotela/internal/handlers/booking"
	roomHandler "hotela/internal/handlers/room"

	bookingRepository "hotela/internal/domains/booking/repository"
	bookingService "hotela/internal/domains/booking/service"
	guestRepository "hotela/internal/domains/guest/repository"
	roomRepository "hotela/internal/domains/room/repository"
	roomService "hotela/internal/domains/room/service"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var roomDomain = wire.NewSet(
	roomRepository.New,
	roomService.New,
)

var bookingDomain = wire.NewSet(
	guestRepository.New,
	bookingRepository.New,
	bookingService.New,
)

var domains = wire.NewSet(
	roomDomain,
	bookingDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	roomHandler.New,
	bookingHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
