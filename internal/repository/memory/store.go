// Package memory holds an in-process implementation of the booking stores.
// A transaction holds the store lock for its whole duration and restores the
// previous state when it fails.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/homestead-rentals/service-booking/internal/common/domain"
	"github.com/homestead-rentals/service-booking/internal/domain/booking"
	"github.com/homestead-rentals/service-booking/internal/domain/identity"
	"github.com/homestead-rentals/service-booking/internal/domain/property"
)

type state struct {
	bookings   map[uuid.UUID]*booking.Booking
	properties map[uuid.UUID]*property.Property
	profiles   map[uuid.UUID]identity.Profile
}

func (s state) clone() state {
	c := state{
		bookings:   make(map[uuid.UUID]*booking.Booking, len(s.bookings)),
		properties: make(map[uuid.UUID]*property.Property, len(s.properties)),
		profiles:   make(map[uuid.UUID]identity.Profile, len(s.profiles)),
	}
	for k, v := range s.bookings {
		c.bookings[k] = copyBooking(v)
	}
	for k, v := range s.properties {
		c.properties[k] = v
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	return c
}

// Store keeps bookings, property snapshots and profiles in memory.
type Store struct {
	mu sync.Mutex
	st state
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{st: state{
		bookings:   make(map[uuid.UUID]*booking.Booking),
		properties: make(map[uuid.UUID]*property.Property),
		profiles:   make(map[uuid.UUID]identity.Profile),
	}}
}

// Bookings returns a repository that locks per call.
func (s *Store) Bookings() booking.BookingRepository { return &bookingRepo{s: s} }

// Properties returns a directory that locks per call.
func (s *Store) Properties() property.Directory { return &propertyRepo{s: s} }

// Profiles returns a profile directory that locks per call.
func (s *Store) Profiles() identity.ProfileDirectory { return &profileRepo{s: s} }

// WithinTx runs fn while holding the store lock.
func (s *Store) WithinTx(ctx context.Context, fn func(uow booking.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.st.clone()
	if err := fn(&unitOfWork{s: s}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type unitOfWork struct{ s *Store }

func (u *unitOfWork) Bookings() booking.BookingRepository { return &bookingRepo{s: u.s, inTx: true} }
func (u *unitOfWork) Properties() property.Directory      { return &propertyRepo{s: u.s, inTx: true} }

// --- bookings ---

type bookingRepo struct {
	s    *Store
	inTx bool
}

func copyBooking(b *booking.Booking) *booking.Booking {
	return booking.ReconstructBooking(
		b.ID(), b.PropertyID(), b.RenterID(), b.Stay(), b.Guests(),
		b.TotalPriceCents(), b.SpecialRequests(), b.Status(), b.Version(),
		b.CreatedAt(), b.UpdatedAt(),
	)
}

func (r *bookingRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	defer r.s.lock(r.inTx)()
	b, ok := r.s.st.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return copyBooking(b), nil
}

func (r *bookingRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *bookingRepo) FindByRenterID(_ context.Context, renterID uuid.UUID, page, limit int) ([]*booking.Booking, int64, error) {
	defer r.s.lock(r.inTx)()
	return r.page(func(b *booking.Booking) bool { return b.RenterID() == renterID }, page, limit)
}

func (r *bookingRepo) FindByPropertyID(_ context.Context, propertyID uuid.UUID, page, limit int) ([]*booking.Booking, int64, error) {
	defer r.s.lock(r.inTx)()
	return r.page(func(b *booking.Booking) bool { return b.PropertyID() == propertyID }, page, limit)
}

func (r *bookingRepo) ListAll(_ context.Context, page, limit int) ([]*booking.Booking, int64, error) {
	defer r.s.lock(r.inTx)()
	return r.page(func(*booking.Booking) bool { return true }, page, limit)
}

func (r *bookingRepo) page(match func(*booking.Booking) bool, page, limit int) ([]*booking.Booking, int64, error) {
	var all []*booking.Booking
	for _, b := range r.s.st.bookings {
		if match(b) {
			all = append(all, b)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt().Equal(all[j].CreatedAt()) {
			return all[i].ID().String() < all[j].ID().String()
		}
		return all[i].CreatedAt().After(all[j].CreatedAt())
	})

	total := int64(len(all))
	start := domain.Offset(page, limit)
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]*booking.Booking, 0, end-start)
	for _, b := range all[start:end] {
		out = append(out, copyBooking(b))
	}
	return out, total, nil
}

func (r *bookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	defer r.s.lock(r.inTx)()
	counts := make(map[string]int64)
	for _, b := range r.s.st.bookings {
		counts[string(b.Status())]++
	}
	return counts, nil
}

func (r *bookingRepo) ExistsConflict(_ context.Context, propertyID uuid.UUID, stay booking.Stay) (bool, error) {
	defer r.s.lock(r.inTx)()
	for _, b := range r.s.st.bookings {
		if b.PropertyID() == propertyID && b.IsActive() && b.Stay().Overlaps(stay) {
			return true, nil
		}
	}
	return false, nil
}

func (r *bookingRepo) ActiveRanges(_ context.Context, propertyID uuid.UUID, from time.Time) ([]booking.Stay, error) {
	defer r.s.lock(r.inTx)()
	var stays []booking.Stay
	for _, b := range r.s.st.bookings {
		if b.PropertyID() == propertyID && b.IsActive() && !b.Stay().EndsBefore(from) {
			stays = append(stays, b.Stay())
		}
	}
	sort.Slice(stays, func(i, j int) bool { return stays[i].CheckIn.Before(stays[j].CheckIn) })
	return stays, nil
}

func (r *bookingRepo) Save(_ context.Context, b *booking.Booking) error {
	defer r.s.lock(r.inTx)()
	if _, exists := r.s.st.bookings[b.ID()]; exists {
		return domain.NewConflictError("booking already exists")
	}
	r.s.st.bookings[b.ID()] = copyBooking(b)
	return nil
}

func (r *bookingRepo) Update(_ context.Context, b *booking.Booking) error {
	defer r.s.lock(r.inTx)()
	stored, ok := r.s.st.bookings[b.ID()]
	if !ok || stored.Version() != b.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.s.st.bookings[b.ID()] = copyBooking(b)
	return nil
}

func (r *bookingRepo) Delete(_ context.Context, id uuid.UUID) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.st.bookings[id]; !ok {
		return domain.NewNotFoundError("Booking", id.String())
	}
	delete(r.s.st.bookings, id)
	return nil
}

// --- properties ---

type propertyRepo struct {
	s    *Store
	inTx bool
}

func (r *propertyRepo) FindByID(_ context.Context, id uuid.UUID) (*property.Property, error) {
	defer r.s.lock(r.inTx)()
	p, ok := r.s.st.properties[id]
	if !ok {
		return nil, domain.NewNotFoundError("Property", id.String())
	}
	return p, nil
}

func (r *propertyRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	return r.FindByID(ctx, id)
}

func (r *propertyRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*property.Property, error) {
	defer r.s.lock(r.inTx)()
	out := make(map[uuid.UUID]*property.Property, len(ids))
	for _, id := range ids {
		if p, ok := r.s.st.properties[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *propertyRepo) Search(_ context.Context, f property.SearchFilter, page, limit int) ([]*property.Property, int64, error) {
	defer r.s.lock(r.inTx)()
	var all []*property.Property
	for _, p := range r.s.st.properties {
		if matches(p, f) {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].NightlyPriceCents() == all[j].NightlyPriceCents() {
			return all[i].ID().String() < all[j].ID().String()
		}
		return all[i].NightlyPriceCents() < all[j].NightlyPriceCents()
	})

	total := int64(len(all))
	start := domain.Offset(page, limit)
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func matches(p *property.Property, f property.SearchFilter) bool {
	if !p.Available() {
		return false
	}
	if f.City != nil && !strings.Contains(strings.ToLower(p.City()), strings.ToLower(*f.City)) {
		return false
	}
	if f.Type != nil && !strings.EqualFold(p.Type(), *f.Type) {
		return false
	}
	if f.MinPrice != nil && p.NightlyPriceCents() < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.NightlyPriceCents() > *f.MaxPrice {
		return false
	}
	if f.MinBedrooms != nil && p.Bedrooms() < *f.MinBedrooms {
		return false
	}
	return true
}

func (r *propertyRepo) IsAgentOf(_ context.Context, propertyID, agentID uuid.UUID) (bool, error) {
	defer r.s.lock(r.inTx)()
	p, ok := r.s.st.properties[propertyID]
	return ok && p.IsManagedBy(agentID), nil
}

func (r *propertyRepo) Upsert(_ context.Context, p *property.Property) error {
	defer r.s.lock(r.inTx)()
	r.s.st.properties[p.ID()] = p
	return nil
}

func (r *propertyRepo) Delete(_ context.Context, id uuid.UUID) error {
	defer r.s.lock(r.inTx)()
	delete(r.s.st.properties, id)
	return nil
}

// --- profiles ---

type profileRepo struct{ s *Store }

func (r *profileRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]identity.Profile, error) {
	defer r.s.lock(false)()
	out := make(map[uuid.UUID]identity.Profile, len(ids))
	for _, id := range ids {
		if p, ok := r.s.st.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *profileRepo) Upsert(_ context.Context, profile identity.Profile) error {
	defer r.s.lock(false)()
	r.s.st.profiles[profile.ID] = profile
	return nil
}

var (
	_ booking.TxManager         = (*Store)(nil)
	_ booking.BookingRepository = (*bookingRepo)(nil)
	_ property.Directory        = (*propertyRepo)(nil)
	_ identity.ProfileDirectory = (*profileRepo)(nil)
)
