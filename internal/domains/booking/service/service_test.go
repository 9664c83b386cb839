package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"hotela/config"
	"hotela/infras/otel/mocks"
	bookingMocks "hotela/internal/domains/booking/mocks"
	"hotela/internal/domains/booking/model"
	"hotela/internal/domains/booking/model/dto"
	"hotela/internal/domains/booking/repository"
	"hotela/internal/domains/booking/service"
	guestMocks "hotela/internal/domains/guest/mocks"
	guestModel "hotela/internal/domains/guest/model"
	roomMocks "hotela/internal/domains/room/mocks"
	cacheMocks "hotela/shared/cache/mocks"
	"hotela/shared/constant"
	"hotela/shared/failure"
	"hotela/shared/timezone"
)

const (
	testRoomID  = "5f8b7c3e-4b69-4f2a-9a57-0d9e9b6a1c11"
	testGuestID = "1d2f3a4b-5c6d-4e7f-8a9b-0c1d2e3f4a5b"
)

func dateStr(today time.Time, offset int) string {
	return today.AddDate(0, 0, offset).Format(constant.DateOnlyFormat)
}

func activeBooking(today time.Time, checkIn, checkOut int) model.Booking {
	return model.Booking{
		ID:           "existing-booking-id",
		RoomID:       testRoomID,
		Status:       model.StatusConfirmed,
		CheckInDate:  today.AddDate(0, 0, checkIn),
		CheckOutDate: today.AddDate(0, 0, checkOut),
	}
}

func TestBookingService_Validate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockRoomRepo := roomMocks.NewMockRoom(ctrl)
	mockGuestRepo := guestMocks.NewMockGuest(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.App.Booking.MaxHorizonDays = 30

	svc := service.New(mockRepo, mockRoomRepo, mockGuestRepo, cfg, mockCache, mockOtel)

	today := timezone.Today()

	tests := []struct {
		name      string
		req       dto.ValidateBookingRequest
		setupMock func()
		wantErr   error
	}{
		{
			name: "valid range on an empty room",
			req: dto.ValidateBookingRequest{
				RoomID:       testRoomID,
				CheckInDate:  dateStr(today, 3),
				CheckOutDate: dateStr(today, 5),
			},
			setupMock: func() {
				mockRoomRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				mockRepo.EXPECT().
					FindActiveInRange(gomock.Any(), testRoomID, gomock.Any(), gomock.Any()).
					Return(nil, nil)

				mockRepo.EXPECT().
					ExistOverlappingActive(gomock.Any(), testRoomID, gomock.Any(), gomock.Any(), "").
					Return(false, nil)
			},
			wantErr: nil,
		},
		{
			name: "reversed dates",
			req: dto.ValidateBookingRequest{
				RoomID:       testRoomID,
				CheckInDate:  dateStr(today, 10),
				CheckOutDate: dateStr(today, 9),
			},
			setupMock: func() {},
			wantErr:   service.ErrInvalidRange,
		},
		{
			name: "zero nights",
			req: dto.ValidateBookingRequest{
				RoomID:       testRoomID,
				CheckInDate:  dateStr(today, 4),
				CheckOutDate: dateStr(today, 4),
			},
			setupMock: func() {},
			wantErr:   service.ErrInvalidRange,
		},
		{
			name: "beyond the horizon",
			req: dto.ValidateBookingRequest{
				RoomID:       testRoomID,
				CheckInDate:  dateStr(today, 40),
				CheckOutDate: dateStr(today, 42),
			},
			setupMock: func() {},
			wantErr:   service.ErrHorizonExceeded,
		},
		{
			name: "room does not exist",
			req: dto.ValidateBookingRequest{
				RoomID:       testRoomID,
				CheckInDate:  dateStr(today, 3),
				CheckOutDate: dateStr(today, 5),
			},
			setupMock: func() {
				mockRoomRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)
			},
			wantErr: failure.NotFound("room not found"),
		},
		{
			name: "overlap with an active booking",
			req: dto.ValidateBookingRequest{
				RoomID:       testRoomID,
				CheckInDate:  dateStr(today, 3),
				CheckOutDate: dateStr(today, 4),
			},
			setupMock: func() {
				mockRoomRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				mockRepo.EXPECT().
					FindActiveInRange(gomock.Any(), testRoomID, gomock.Any(), gomock.Any()).
					Return([]model.Booking{activeBooking(today, 2, 5)}, nil)
			},
			wantErr: service.ErrConflictingBooking,
		},
		{
			name: "check-in before the query date",
			req: dto.ValidateBookingRequest{
				RoomID:       testRoomID,
				CheckInDate:  dateStr(today, -2),
				CheckOutDate: dateStr(today, 1),
			},
			setupMock: func() {
				mockRoomRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				mockRepo.EXPECT().
					FindActiveInRange(gomock.Any(), testRoomID, gomock.Any(), gomock.Any()).
					Return(nil, nil)
			},
			wantErr: service.ErrNotWithinOpenPeriod,
		},
		{
			name: "conflict surfaced by the live overlap check",
			req: dto.ValidateBookingRequest{
				RoomID:       testRoomID,
				CheckInDate:  dateStr(today, 3),
				CheckOutDate: dateStr(today, 5),
			},
			setupMock: func() {
				mockRoomRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				mockRepo.EXPECT().
					FindActiveInRange(gomock.Any(), testRoomID, gomock.Any(), gomock.Any()).
					Return(nil, nil)

				mockRepo.EXPECT().
					ExistOverlappingActive(gomock.Any(), testRoomID, gomock.Any(), gomock.Any(), "").
					Return(true, nil)
			},
			wantErr: service.ErrConflictingBooking,
		},
		{
			name: "excluded booking does not block its own dates",
			req: dto.ValidateBookingRequest{
				RoomID:           testRoomID,
				CheckInDate:      dateStr(today, 2),
				CheckOutDate:     dateStr(today, 5),
				ExcludeBookingID: "existing-booking-id",
			},
			setupMock: func() {
				mockRoomRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				mockRepo.EXPECT().
					FindActiveInRange(gomock.Any(), testRoomID, gomock.Any(), gomock.Any()).
					Return([]model.Booking{activeBooking(today, 2, 5)}, nil)

				mockRepo.EXPECT().
					ExistOverlappingActive(gomock.Any(), testRoomID, gomock.Any(), gomock.Any(), "existing-booking-id").
					Return(false, nil)
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			err := svc.Validate(context.Background(), tt.req)

			if tt.wantErr == nil {
				assert.NoError(t, err)

				return
			}

			assert.Error(t, err)
			assert.Equal(t, failure.GetCode(tt.wantErr), failure.GetCode(err))
			assert.Equal(t, tt.wantErr.Error(), err.Error())
		})
	}
}

func TestBookingService_Validate_Idempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockRoomRepo := roomMocks.NewMockRoom(ctrl)
	mockGuestRepo := guestMocks.NewMockGuest(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.App.Booking.MaxHorizonDays = 30

	svc := service.New(mockRepo, mockRoomRepo, mockGuestRepo, cfg, mockCache, mockOtel)

	today := timezone.Today()
	req := dto.ValidateBookingRequest{
		RoomID:       testRoomID,
		CheckInDate:  dateStr(today, 3),
		CheckOutDate: dateStr(today, 4),
	}

	mockRoomRepo.EXPECT().
		Exist(gomock.Any(), gomock.Any()).
		Return(true, nil).
		Times(2)

	mockRepo.EXPECT().
		FindActiveInRange(gomock.Any(), testRoomID, gomock.Any(), gomock.Any()).
		Return([]model.Booking{activeBooking(today, 2, 5)}, nil).
		Times(2)

	first := svc.Validate(context.Background(), req)
	second := svc.Validate(context.Background(), req)

	assert.Error(t, first)
	assert.Equal(t, first, second)
}

func TestBookingService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockRoomRepo := roomMocks.NewMockRoom(ctrl)
	mockGuestRepo := guestMocks.NewMockGuest(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.App.Booking.MaxHorizonDays = 30

	svc := service.New(mockRepo, mockRoomRepo, mockGuestRepo, cfg, mockCache, mockOtel)

	mockCache.EXPECT().
		Clear(gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	today := timezone.Today()

	baseReq := dto.CreateBookingRequest{
		RoomID:         testRoomID,
		GuestFirstName: "Ada",
		GuestLastName:  "Lovelace",
		GuestEmail:     "ada@example.com",
		GuestPhone:     "+442079460000",
		CheckInDate:    dateStr(today, 3),
		CheckOutDate:   dateStr(today, 5),
		Channel:        "phone",
	}

	existingGuest := guestModel.Guest{
		ID:        testGuestID,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
	}

	expectValidationPass := func() {
		mockRoomRepo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		mockRepo.EXPECT().
			FindActiveInRange(gomock.Any(), testRoomID, gomock.Any(), gomock.Any()).
			Return(nil, nil)

		mockRepo.EXPECT().
			ExistOverlappingActive(gomock.Any(), testRoomID, gomock.Any(), gomock.Any(), "").
			Return(false, nil)
	}

	tests := []struct {
		name      string
		req       dto.CreateBookingRequest
		setupMock func()
		wantErr   error
	}{
		{
			name: "successful booking with an existing guest",
			req:  baseReq,
			setupMock: func() {
				expectValidationPass()

				mockGuestRepo.EXPECT().
					GetByEmail(gomock.Any(), "ada@example.com").
					Return(existingGuest, nil)

				mockRepo.EXPECT().
					InsertIfVacant(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, booking model.Booking) error {
						assert.Equal(t, testGuestID, booking.GuestID)
						assert.Equal(t, model.StatusConfirmed, booking.Status)
						assert.Equal(t, model.ChannelPhone, booking.Channel)

						return nil
					})
			},
			wantErr: nil,
		},
		{
			name: "successful booking creates a missing guest",
			req:  baseReq,
			setupMock: func() {
				expectValidationPass()

				mockGuestRepo.EXPECT().
					GetByEmail(gomock.Any(), "ada@example.com").
					Return(guestModel.Guest{}, nil)

				mockGuestRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)

				mockRepo.EXPECT().
					InsertIfVacant(gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: nil,
		},
		{
			name: "lost guest creation race falls back to the winner",
			req:  baseReq,
			setupMock: func() {
				expectValidationPass()

				mockGuestRepo.EXPECT().
					GetByEmail(gomock.Any(), "ada@example.com").
					Return(guestModel.Guest{}, nil)

				mockGuestRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(errors.New("duplicate key value violates unique constraint"))

				mockGuestRepo.EXPECT().
					GetByEmail(gomock.Any(), "ada@example.com").
					Return(existingGuest, nil)

				mockRepo.EXPECT().
					InsertIfVacant(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, booking model.Booking) error {
						assert.Equal(t, testGuestID, booking.GuestID)

						return nil
					})
			},
			wantErr: nil,
		},
		{
			name: "vacancy lost at commit time",
			req:  baseReq,
			setupMock: func() {
				expectValidationPass()

				mockGuestRepo.EXPECT().
					GetByEmail(gomock.Any(), "ada@example.com").
					Return(existingGuest, nil)

				mockRepo.EXPECT().
					InsertIfVacant(gomock.Any(), gomock.Any()).
					Return(repository.ErrVacancyLost)
			},
			wantErr: service.ErrConflictingBooking,
		},
		{
			name: "rejected range creates neither booking nor guest",
			req: dto.CreateBookingRequest{
				RoomID:         testRoomID,
				GuestFirstName: "Ada",
				GuestLastName:  "Lovelace",
				GuestEmail:     "ada@example.com",
				CheckInDate:    dateStr(today, 10),
				CheckOutDate:   dateStr(today, 9),
			},
			setupMock: func() {},
			wantErr:   service.ErrInvalidRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyClientID, "front-desk")
			res, err := svc.Create(ctx, tt.req)

			if tt.wantErr != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.wantErr.Error(), err.Error())

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.req.CheckInDate, res.CheckInDate)
			assert.Equal(t, tt.req.CheckOutDate, res.CheckOutDate)
			assert.Equal(t, string(model.StatusConfirmed), res.Status)
			assert.Equal(t, "ada@example.com", res.GuestEmail)
		})
	}
}

func TestBookingService_Transitions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockRoomRepo := roomMocks.NewMockRoom(ctrl)
	mockGuestRepo := guestMocks.NewMockGuest(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.App.Booking.MaxHorizonDays = 30

	svc := service.New(mockRepo, mockRoomRepo, mockGuestRepo, cfg, mockCache, mockOtel)

	mockCache.EXPECT().
		Delete(gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	mockCache.EXPECT().
		Clear(gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	stored := func(status model.Status) model.Booking {
		return model.Booking{
			ID:     "booking-id",
			RoomID: testRoomID,
			Status: status,
		}
	}

	tests := []struct {
		name      string
		action    func(ctx context.Context) error
		setupMock func()
		wantErr   bool
	}{
		{
			name:   "cancel a confirmed booking",
			action: func(ctx context.Context) error { return svc.Cancel(ctx, "booking-id") },
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(stored(model.StatusConfirmed), nil)

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: false,
		},
		{
			name:   "check in a confirmed booking",
			action: func(ctx context.Context) error { return svc.CheckIn(ctx, "booking-id") },
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(stored(model.StatusConfirmed), nil)

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: false,
		},
		{
			name:   "check out a checked-in booking",
			action: func(ctx context.Context) error { return svc.CheckOut(ctx, "booking-id") },
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(stored(model.StatusCheckedIn), nil)

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: false,
		},
		{
			name:   "cannot cancel a checked-out booking",
			action: func(ctx context.Context) error { return svc.Cancel(ctx, "booking-id") },
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(stored(model.StatusCheckedOut), nil)
			},
			wantErr: true,
		},
		{
			name:   "cannot check out a confirmed booking",
			action: func(ctx context.Context) error { return svc.CheckOut(ctx, "booking-id") },
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(stored(model.StatusConfirmed), nil)
			},
			wantErr: true,
		},
		{
			name:   "booking not found",
			action: func(ctx context.Context) error { return svc.Cancel(ctx, "booking-id") },
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, nil)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			err := tt.action(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBookingService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockRoomRepo := roomMocks.NewMockRoom(ctrl)
	mockGuestRepo := guestMocks.NewMockGuest(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, mockRoomRepo, mockGuestRepo, cfg, mockCache, mockOtel)

	tests := []struct {
		name      string
		setupMock func()
		wantErr   bool
	}{
		{
			name: "cache miss then found in store",
			setupMock: func() {
				mockCache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{ID: "booking-id"}, nil)

				mockCache.EXPECT().
					Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
			wantErr: false,
		},
		{
			name: "not found",
			setupMock: func() {
				mockCache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, nil)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			_, err := svc.Get(context.Background(), "booking-id")

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
