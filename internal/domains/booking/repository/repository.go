package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"hotela/infras/otel"
	"hotela/infras/postgres"
	"hotela/internal/domains/booking/model"
	"hotela/shared/constant"
	gDto "hotela/shared/dto"
	"hotela/shared/logger"
	gRepo "hotela/shared/repository"
)

// ErrVacancyLost is returned by InsertIfVacant when the requested interval is
// taken by a concurrent or pre-existing active booking.
var ErrVacancyLost = errors.New("room no longer vacant for the requested dates")

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	FindActiveInRange(ctx context.Context, roomID string, from, to time.Time) ([]model.Booking, error)
	FindActiveFrom(ctx context.Context, roomID string, from time.Time) ([]model.Booking, error)
	ExistOverlappingActive(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeID string) (bool, error)
	InsertIfVacant(ctx context.Context, booking model.Booking) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func activeRoomFilter(roomID string) []any {
	return []any{
		gDto.Filter{
			Field:    model.FieldRoomID,
			Value:    roomID,
			Operator: gDto.FilterOperatorEq,
			Table:    model.TableName,
		},
		gDto.Filter{
			Field:    model.FieldStatus,
			Value:    model.ActiveStatuses(),
			Operator: gDto.FilterOperatorIn,
			Table:    model.TableName,
		},
	}
}

func overlapFilter(roomID string, checkIn, checkOut time.Time, excludeID string) gDto.FilterGroup {
	filters := activeRoomFilter(roomID)

	filters = append(filters,
		gDto.Filter{
			ArgName:  "overlap_end",
			Field:    model.FieldCheckInDate,
			Value:    checkOut,
			Operator: gDto.FilterOperatorLess,
			Table:    model.TableName,
		},
		gDto.Filter{
			ArgName:  "overlap_start",
			Field:    model.FieldCheckOutDate,
			Value:    checkIn,
			Operator: gDto.FilterOperatorGreater,
			Table:    model.TableName,
		},
	)

	if excludeID != "" {
		filters = append(filters, gDto.Filter{
			ArgName:  "exclude_id",
			Field:    model.FieldID,
			Value:    excludeID,
			Operator: gDto.FilterOperatorNotEq,
			Table:    model.TableName,
		})
	}

	return gDto.FilterGroup{Filters: filters, Operator: gDto.FilterGroupOperatorAnd}
}

// FindActiveInRange returns the active bookings touching [from, to], ordered
// by check-in date ascending.
func (r *repositoryImpl) FindActiveInRange(ctx context.Context, roomID string, from, to time.Time) ([]model.Booking, error) {
	filters := activeRoomFilter(roomID)

	filters = append(filters,
		gDto.Filter{
			ArgName:  "range_start",
			Field:    model.FieldCheckOutDate,
			Value:    from,
			Operator: gDto.FilterOperatorGreaterEq,
			Table:    model.TableName,
		},
		gDto.Filter{
			ArgName:  "range_end",
			Field:    model.FieldCheckInDate,
			Value:    to,
			Operator: gDto.FilterOperatorLessEq,
			Table:    model.TableName,
		},
	)

	params := gDto.QueryParams{
		SortBy:  fmt.Sprintf("%s.%s", model.TableName, model.FieldCheckInDate),
		SortDir: gDto.SortDirAsc,
	}

	return r.GetAll(ctx, params, gDto.FilterGroup{Filters: filters, Operator: gDto.FilterGroupOperatorAnd})
}

// FindActiveFrom returns the active bookings still occupying the room on or
// after the given date, ordered by check-in date ascending.
func (r *repositoryImpl) FindActiveFrom(ctx context.Context, roomID string, from time.Time) ([]model.Booking, error) {
	filters := activeRoomFilter(roomID)

	filters = append(filters, gDto.Filter{
		ArgName:  "from_date",
		Field:    model.FieldCheckOutDate,
		Value:    from,
		Operator: gDto.FilterOperatorGreater,
		Table:    model.TableName,
	})

	params := gDto.QueryParams{
		SortBy:  fmt.Sprintf("%s.%s", model.TableName, model.FieldCheckInDate),
		SortDir: gDto.SortDirAsc,
	}

	return r.GetAll(ctx, params, gDto.FilterGroup{Filters: filters, Operator: gDto.FilterGroupOperatorAnd})
}

func (r *repositoryImpl) ExistOverlappingActive(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeID string) (bool, error) {
	return r.Exist(ctx, overlapFilter(roomID, checkIn, checkOut, excludeID))
}

// InsertIfVacant re-runs the overlap check and inserts the booking inside one
// serializable transaction on the write connection, so two concurrent commits
// for overlapping ranges cannot both pass. The bookings exclusion constraint
// backs this up at the storage level. A serialization failure is retried once
// before being reported as a lost vacancy.
func (r *repositoryImpl) InsertIfVacant(ctx context.Context, booking model.Booking) error {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.InsertIfVacant")
	defer scope.End()

	err := r.insertIfVacant(ctx, booking)
	if isSerializationFailure(err) {
		scope.AddEvent("serialization failure, retrying once")

		err = r.insertIfVacant(ctx, booking)
		if isSerializationFailure(err) {
			err = ErrVacancyLost
		}
	}

	if err != nil {
		scope.TraceError(err)
	}

	return err
}

func (r *repositoryImpl) insertIfVacant(ctx context.Context, booking model.Booking) error {
	tx, err := r.db.Write.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to begin booking transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	taken, err := r.ExistTx(ctx, tx, overlapFilter(booking.RoomID, booking.CheckInDate, booking.CheckOutDate, ""))
	if err != nil {
		return err //nolint:wrapcheck
	}

	if taken {
		return ErrVacancyLost
	}

	if err := r.InsertTx(ctx, tx, booking); err != nil {
		if isConflictViolation(err) {
			return ErrVacancyLost
		}

		return err //nolint:wrapcheck
	}

	if err := tx.Commit(); err != nil {
		if isConflictViolation(err) {
			return ErrVacancyLost
		}

		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to commit booking transaction: %w", err)
	}

	return nil
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == constant.PqErrorCodeSerializationFail
	}

	return false
}

func isConflictViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == constant.PqErrorCodeExclusionViolation ||
			string(pqErr.Code) == constant.PqErrorCodeUniqueViolation
	}

	return false
}
