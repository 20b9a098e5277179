// Package memstore хранилище в памяти с контрактами репозиториев storage.
// Транзакции сериализуются целиком и откатываются по снимку состояния.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-MentorBooking/internal/domain"
)

type state struct {
	slots     []domain.TimeSlot
	schedules map[int64]*domain.Schedule
	bookings  map[int64]*domain.Booking
	histories []*domain.History
	payments  map[int64]*domain.PaymentHistory

	scheduleSeq int64
	bookingSeq  int64
	historySeq  int64
	paymentSeq  int64
}

// Store общее состояние всех репозиториев
type Store struct {
	txMu   sync.Mutex
	dataMu sync.Mutex
	st     *state
	now    func() time.Time
}

// New создаёт хранилище со справочником слотов 08:00-22:00
func New() *Store {
	st := &state{
		schedules: make(map[int64]*domain.Schedule),
		bookings:  make(map[int64]*domain.Booking),
		payments:  make(map[int64]*domain.PaymentHistory),
	}
	for h := 8; h < 22; h++ {
		st.slots = append(st.slots, domain.TimeSlot{
			ID:        int64(h - 7),
			Code:      fmt.Sprintf("SLOT_%02d", h),
			StartHour: h,
			EndHour:   h + 1,
		})
	}
	return &Store{st: st, now: time.Now}
}

// SlotID id слота, начинающегося в startHour
func SlotID(startHour int) int64 {
	return int64(startHour - 7)
}

func (s *Store) TimeSlots() *TimeSlotRepo { return &TimeSlotRepo{s: s} }
func (s *Store) Schedules() *ScheduleRepo { return &ScheduleRepo{s: s} }
func (s *Store) Bookings() *BookingRepo   { return &BookingRepo{s: s} }
func (s *Store) Histories() *HistoryRepo  { return &HistoryRepo{s: s} }
func (s *Store) Payments() *PaymentRepo   { return &PaymentRepo{s: s} }
func (s *Store) TxManager() *TxManager    { return &TxManager{s: s} }

// AddSchedule кладёт расписание напрямую, слоты подставляются из справочника по id
func (s *Store) AddSchedule(sc domain.Schedule) *domain.Schedule {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()

	s.st.scheduleSeq++
	sc.ID = s.st.scheduleSeq
	sc.Date = domain.DateOnly(sc.Date)
	sc.TimeSlots = s.resolveSlots(sc.TimeSlotIDs())
	sc.CreatedAt = s.now()
	sc.UpdatedAt = sc.CreatedAt
	s.st.schedules[sc.ID] = copySchedule(&sc)
	return copySchedule(&sc)
}

// AddBooking кладёт бронирование напрямую, без проверок
func (s *Store) AddBooking(b domain.Booking) *domain.Booking {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()

	s.st.bookingSeq++
	b.ID = s.st.bookingSeq
	b.CreatedAt = s.now()
	b.UpdatedAt = b.CreatedAt
	s.st.bookings[b.ID] = copyBooking(&b)
	return copyBooking(&b)
}

// Booking текущее состояние бронирования
func (s *Store) Booking(id int64) *domain.Booking {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	if b, ok := s.st.bookings[id]; ok {
		return copyBooking(b)
	}
	return nil
}

// Schedule текущее состояние расписания (включая удалённые)
func (s *Store) Schedule(id int64) *domain.Schedule {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	if sc, ok := s.st.schedules[id]; ok {
		return copySchedule(sc)
	}
	return nil
}

// History журнал бронирования
func (s *Store) History(bookingID int64) []*domain.History {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return s.historyOf(bookingID)
}

// Payment платёжная запись бронирования
func (s *Store) Payment(bookingID int64) *domain.PaymentHistory {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	if p, ok := s.st.payments[bookingID]; ok {
		cp := *p
		return &cp
	}
	return nil
}

// BookingsOf все бронирования расписания
func (s *Store) BookingsOf(scheduleID int64) []*domain.Booking {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()

	result := make([]*domain.Booking, 0)
	for _, b := range s.st.bookings {
		if b.ScheduleID == scheduleID {
			result = append(result, copyBooking(b))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (s *Store) historyOf(bookingID int64) []*domain.History {
	result := make([]*domain.History, 0)
	for _, h := range s.st.histories {
		if h.BookingID == bookingID {
			cp := *h
			result = append(result, &cp)
		}
	}
	return result
}

func (s *Store) resolveSlots(ids []int64) []domain.TimeSlot {
	result := make([]domain.TimeSlot, 0, len(ids))
	for _, id := range ids {
		for _, slot := range s.st.slots {
			if slot.ID == id {
				result = append(result, slot)
			}
		}
	}
	domain.SortSlots(result)
	return result
}

func (s *Store) snapshot() *state {
	cp := &state{
		slots:       append([]domain.TimeSlot(nil), s.st.slots...),
		schedules:   make(map[int64]*domain.Schedule, len(s.st.schedules)),
		bookings:    make(map[int64]*domain.Booking, len(s.st.bookings)),
		histories:   make([]*domain.History, 0, len(s.st.histories)),
		payments:    make(map[int64]*domain.PaymentHistory, len(s.st.payments)),
		scheduleSeq: s.st.scheduleSeq,
		bookingSeq:  s.st.bookingSeq,
		historySeq:  s.st.historySeq,
		paymentSeq:  s.st.paymentSeq,
	}
	for id, sc := range s.st.schedules {
		cp.schedules[id] = copySchedule(sc)
	}
	for id, b := range s.st.bookings {
		cp.bookings[id] = copyBooking(b)
	}
	for _, h := range s.st.histories {
		hc := *h
		cp.histories = append(cp.histories, &hc)
	}
	for id, p := range s.st.payments {
		pc := *p
		cp.payments[id] = &pc
	}
	return cp
}

func copySchedule(sc *domain.Schedule) *domain.Schedule {
	cp := *sc
	cp.TimeSlots = append([]domain.TimeSlot(nil), sc.TimeSlots...)
	if sc.DeletedAt != nil {
		t := *sc.DeletedAt
		cp.DeletedAt = &t
	}
	return &cp
}

func copyBooking(b *domain.Booking) *domain.Booking {
	cp := *b
	if b.Comment != nil {
		c := *b.Comment
		cp.Comment = &c
	}
	if b.LinkMeeting != nil {
		l := *b.LinkMeeting
		cp.LinkMeeting = &l
	}
	return &cp
}

type txKey struct{}

// TxManager сериализует транзакции и откатывает состояние при ошибке
type TxManager struct {
	s *Store
}

func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.s.txMu.Lock()
	defer m.s.txMu.Unlock()

	m.s.dataMu.Lock()
	snap := m.s.snapshot()
	m.s.dataMu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			m.restore(snap)
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *TxManager) restore(snap *state) {
	m.s.dataMu.Lock()
	m.s.st = snap
	m.s.dataMu.Unlock()
}
