package memstore

import (
	"context"
	"sort"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-MentorBooking/internal/infra/storage/booking"
	paymentRepo "github.com/m04kA/SMC-MentorBooking/internal/infra/storage/payment"
	scheduleRepo "github.com/m04kA/SMC-MentorBooking/internal/infra/storage/schedule"
)

// TimeSlotRepo справочник слотов
type TimeSlotRepo struct{ s *Store }

func (r *TimeSlotRepo) GetAll(_ context.Context) ([]domain.TimeSlot, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	return append([]domain.TimeSlot(nil), r.s.st.slots...), nil
}

func (r *TimeSlotRepo) GetByIDs(_ context.Context, ids []int64) ([]domain.TimeSlot, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	uniq := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := uniq[id]; !ok {
			uniq[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	return r.s.resolveSlots(unique), nil
}

// ScheduleRepo расписания
type ScheduleRepo struct{ s *Store }

func (r *ScheduleRepo) Create(_ context.Context, sc *domain.Schedule) (*domain.Schedule, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	ids := sc.TimeSlotIDs()
	resolved := r.s.resolveSlots(ids)
	if len(resolved) != len(ids) {
		return nil, scheduleRepo.ErrUnknownTimeSlot
	}

	r.s.st.scheduleSeq++
	sc.ID = r.s.st.scheduleSeq
	sc.TimeSlots = resolved
	sc.CreatedAt = r.s.now()
	sc.UpdatedAt = sc.CreatedAt
	r.s.st.schedules[sc.ID] = copySchedule(sc)
	return sc, nil
}

func (r *ScheduleRepo) GetByID(_ context.Context, id int64) (*domain.Schedule, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	sc, ok := r.s.st.schedules[id]
	if !ok || sc.IsDeleted() {
		return nil, scheduleRepo.ErrScheduleNotFound
	}
	return copySchedule(sc), nil
}

func (r *ScheduleRepo) GetByIDs(_ context.Context, ids []int64) (map[int64]*domain.Schedule, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	result := make(map[int64]*domain.Schedule, len(ids))
	for _, id := range ids {
		if sc, ok := r.s.st.schedules[id]; ok {
			result[id] = copySchedule(sc)
		}
	}
	return result, nil
}

func (r *ScheduleRepo) List(_ context.Context, filter domain.ScheduleFilter) ([]*domain.Schedule, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	result := make([]*domain.Schedule, 0)
	for _, sc := range r.s.st.schedules {
		if sc.MentorID != filter.MentorID || sc.IsDeleted() {
			continue
		}
		if filter.FromDate != nil && sc.Date.Before(domain.DateOnly(*filter.FromDate)) {
			continue
		}
		if filter.Date != nil && !domain.IsSameDate(sc.Date, *filter.Date) {
			continue
		}
		if filter.ExcludeID != 0 && sc.ID == filter.ExcludeID {
			continue
		}
		result = append(result, copySchedule(sc))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *ScheduleRepo) Update(_ context.Context, sc *domain.Schedule) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	stored, ok := r.s.st.schedules[sc.ID]
	if !ok || stored.IsDeleted() {
		return scheduleRepo.ErrScheduleNotFound
	}
	ids := sc.TimeSlotIDs()
	resolved := r.s.resolveSlots(ids)
	if len(resolved) != len(ids) {
		return scheduleRepo.ErrUnknownTimeSlot
	}

	stored.Date = domain.DateOnly(sc.Date)
	stored.Price = sc.Price
	stored.TimeSlots = resolved
	stored.UpdatedAt = r.s.now()
	return nil
}

func (r *ScheduleRepo) SoftDelete(_ context.Context, id int64) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	stored, ok := r.s.st.schedules[id]
	if !ok || stored.IsDeleted() {
		return scheduleRepo.ErrScheduleNotFound
	}
	now := r.s.now()
	stored.DeletedAt = &now
	return nil
}

func (r *ScheduleRepo) SetBooked(_ context.Context, id int64, booked bool) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	stored, ok := r.s.st.schedules[id]
	if !ok {
		return scheduleRepo.ErrScheduleNotFound
	}
	stored.IsBooked = booked
	return nil
}

// BookingRepo бронирования. Повторяет частичный уникальный индекс по schedule_id.
type BookingRepo struct{ s *Store }

func (r *BookingRepo) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	if b.HoldsExclusivity() && r.exclusiveHolder(b.ScheduleID, 0) != 0 {
		return nil, bookingRepo.ErrExclusivityViolation
	}

	r.s.st.bookingSeq++
	b.ID = r.s.st.bookingSeq
	b.CreatedAt = r.s.now()
	b.UpdatedAt = b.CreatedAt
	r.s.st.bookings[b.ID] = copyBooking(b)
	return b, nil
}

func (r *BookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	b, ok := r.s.st.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return copyBooking(b), nil
}

func (r *BookingRepo) GetByCustomerID(_ context.Context, customerID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool {
		return b.CustomerID == customerID && (status == nil || b.Status == *status)
	}, true), nil
}

func (r *BookingRepo) GetByMentorID(_ context.Context, mentorID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool {
		return b.MentorID == mentorID && (status == nil || b.Status == *status)
	}, true), nil
}

func (r *BookingRepo) ListByStatusAndPayment(_ context.Context, status domain.BookingStatus, payment domain.PaymentProcess) ([]*domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool {
		return b.Status == status && b.PaymentProcess == payment
	}, false), nil
}

func (r *BookingRepo) Update(_ context.Context, b *domain.Booking) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	stored, ok := r.s.st.bookings[b.ID]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	if domain.HoldsExclusivity(b.Status, b.PaymentProcess) && r.exclusiveHolder(stored.ScheduleID, b.ID) != 0 {
		return bookingRepo.ErrExclusivityViolation
	}

	stored.Status = b.Status
	stored.PaymentProcess = b.PaymentProcess
	stored.Comment = b.Comment
	stored.LinkMeeting = b.LinkMeeting
	stored.IsRead = b.IsRead
	stored.UpdatedAt = r.s.now()
	return nil
}

func (r *BookingRepo) ExistsExclusive(_ context.Context, scheduleID, excludeBookingID int64) (bool, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	return r.exclusiveHolder(scheduleID, excludeBookingID) != 0, nil
}

func (r *BookingRepo) ExistsLive(_ context.Context, scheduleID int64) (bool, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	for _, b := range r.s.st.bookings {
		if b.ScheduleID == scheduleID && b.Status.IsLive() {
			return true, nil
		}
	}
	return false, nil
}

func (r *BookingRepo) ExclusiveScheduleIDs(_ context.Context, scheduleIDs []int64) (map[int64]bool, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	result := make(map[int64]bool, len(scheduleIDs))
	for _, id := range scheduleIDs {
		result[id] = r.exclusiveHolder(id, 0) != 0
	}
	return result, nil
}

func (r *BookingRepo) exclusiveHolder(scheduleID, excludeBookingID int64) int64 {
	for id, b := range r.s.st.bookings {
		if id != excludeBookingID && b.ScheduleID == scheduleID && b.HoldsExclusivity() {
			return id
		}
	}
	return 0
}

func (r *BookingRepo) filter(match func(b *domain.Booking) bool, newestFirst bool) []*domain.Booking {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	result := make([]*domain.Booking, 0)
	for _, b := range r.s.st.bookings {
		if match(b) {
			result = append(result, copyBooking(b))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if newestFirst {
			return result[i].ID > result[j].ID
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// HistoryRepo журнал
type HistoryRepo struct{ s *Store }

func (r *HistoryRepo) Create(_ context.Context, h *domain.History) (*domain.History, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	r.s.st.historySeq++
	h.ID = r.s.st.historySeq
	h.CreatedAt = r.s.now()
	cp := *h
	r.s.st.histories = append(r.s.st.histories, &cp)
	return h, nil
}

func (r *HistoryRepo) GetByBookingID(_ context.Context, bookingID int64) ([]*domain.History, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()
	return r.s.historyOf(bookingID), nil
}

// PaymentRepo платёжные записи
type PaymentRepo struct{ s *Store }

func (r *PaymentRepo) Upsert(_ context.Context, p *domain.PaymentHistory) (*domain.PaymentHistory, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	now := r.s.now()
	if stored, ok := r.s.st.payments[p.BookingID]; ok {
		p.ID = stored.ID
		p.CreatedAt = stored.CreatedAt
	} else {
		r.s.st.paymentSeq++
		p.ID = r.s.st.paymentSeq
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	r.s.st.payments[p.BookingID] = &cp
	return p, nil
}

func (r *PaymentRepo) UpdateStatus(_ context.Context, bookingID int64, status domain.PaymentProcess) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	stored, ok := r.s.st.payments[bookingID]
	if !ok {
		return paymentRepo.ErrPaymentNotFound
	}
	stored.Status = status
	stored.UpdatedAt = r.s.now()
	return nil
}

func (r *PaymentRepo) GetByBookingID(_ context.Context, bookingID int64) (*domain.PaymentHistory, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	stored, ok := r.s.st.payments[bookingID]
	if !ok {
		return nil, paymentRepo.ErrPaymentNotFound
	}
	cp := *stored
	return &cp, nil
}
