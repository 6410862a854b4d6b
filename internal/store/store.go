package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Dakshesh-max/society-man/internal/changefeed"
	"github.com/Dakshesh-max/society-man/internal/model"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidState is returned when a mutation does not apply to the record's current state.
	ErrInvalidState = errors.New("invalid state transition")
	// ErrReferenced is returned when a write would break a reference between
	// records, such as deleting a member who reported maintenance logs. The
	// database must be opened with gorm's TranslateError.
	ErrReferenced = errors.New("record is referenced by another record")
)

// Repository is the table-scoped surface every entity exposes. Both the
// database-backed store and the HTTP client implement it.
type Repository[T any, I any] interface {
	// List returns the full collection ordered by its recency field, newest first.
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, in I) (T, error)
	Update(ctx context.Context, id string, in I) (T, error)
	Delete(ctx context.Context, id string) error
}

// MemberRepository manages members.
type MemberRepository = Repository[model.Member, model.MemberInput]

// AnnouncementRepository manages announcements.
type AnnouncementRepository = Repository[model.Announcement, model.AnnouncementInput]

// MaintenanceRepository manages maintenance logs.
type MaintenanceRepository interface {
	Repository[model.MaintenanceLog, model.MaintenanceInput]
	ListByStatus(ctx context.Context, status string) ([]model.MaintenanceLog, error)
	UpdateStatus(ctx context.Context, id, status string) (model.MaintenanceLog, error)
}

// VisitorRepository manages visitors.
type VisitorRepository interface {
	Repository[model.Visitor, model.VisitorInput]
	CheckOut(ctx context.Context, id string, at time.Time) (model.Visitor, error)
}

// PaymentRepository manages payments.
type PaymentRepository interface {
	Repository[model.Payment, model.PaymentInput]
	MarkPaid(ctx context.Context, id, method, transactionID string, at time.Time) (model.Payment, error)
}

// Repositories is one repository per entity. The HTTP client implements it as well.
type Repositories interface {
	Members() MemberRepository
	Announcements() AnnouncementRepository
	Maintenance() MaintenanceRepository
	Visitors() VisitorRepository
	Payments() PaymentRepository
}

// Store defines the interface for all database operations.
type Store interface {
	Repositories
	DB() *gorm.DB
}

// Option configures a gormStore.
type Option func(*gormStore)

// WithClock overrides the clock used for server-assigned timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *gormStore) { s.now = now }
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	pub changefeed.Publisher
	now func() time.Time

	members       *table[model.Member, model.MemberInput]
	announcements *table[model.Announcement, model.AnnouncementInput]
	maintenance   *maintenanceTable
	visitors      *visitorTable
	payments      *paymentTable
}

// NewGormStore creates a new GORM-backed store. Every committed write is
// announced on pub.
func NewGormStore(db *gorm.DB, pub changefeed.Publisher, opts ...Option) Store {
	if pub == nil {
		pub = changefeed.Discard
	}
	s := &gormStore{
		db:  db,
		pub: pub,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	s.members = &table[model.Member, model.MemberInput]{
		s:       s,
		name:    model.TableMembers,
		orderBy: "registration_date",
		id:      func(m *model.Member) string { return m.ID },
		apply:   func(m *model.Member, in model.MemberInput) { in.ApplyTo(m) },
		build: func(in model.MemberInput, now time.Time) model.Member {
			m := model.Member{RegistrationDate: now}
			in.ApplyTo(&m)
			if m.Status == "" {
				m.Status = model.MemberActive
			}
			return m
		},
	}

	s.announcements = &table[model.Announcement, model.AnnouncementInput]{
		s:       s,
		name:    model.TableAnnouncements,
		orderBy: "created_at",
		id:      func(a *model.Announcement) string { return a.ID },
		apply:   func(a *model.Announcement, in model.AnnouncementInput) { in.ApplyTo(a) },
		build: func(in model.AnnouncementInput, now time.Time) model.Announcement {
			a := model.Announcement{CreatedAt: now}
			in.ApplyTo(&a)
			if a.Priority == "" {
				a.Priority = model.PriorityMedium
			}
			return a
		},
	}

	s.maintenance = &maintenanceTable{table[model.MaintenanceLog, model.MaintenanceInput]{
		s:       s,
		name:    model.TableMaintenanceLogs,
		orderBy: "created_at",
		preload: []string{"Reporter"},
		id:      func(l *model.MaintenanceLog) string { return l.ID },
		apply:   func(l *model.MaintenanceLog, in model.MaintenanceInput) { in.ApplyTo(l) },
		build: func(in model.MaintenanceInput, now time.Time) model.MaintenanceLog {
			l := model.MaintenanceLog{Status: model.MaintenancePending, CreatedAt: now}
			in.ApplyTo(&l)
			return l
		},
	}}

	s.visitors = &visitorTable{table[model.Visitor, model.VisitorInput]{
		s:       s,
		name:    model.TableVisitors,
		orderBy: "check_in",
		id:      func(v *model.Visitor) string { return v.ID },
		apply:   func(v *model.Visitor, in model.VisitorInput) { in.ApplyTo(v) },
		build: func(in model.VisitorInput, now time.Time) model.Visitor {
			v := model.Visitor{CheckIn: now, Status: model.VisitorCheckedIn}
			in.ApplyTo(&v)
			return v
		},
	}}

	s.payments = &paymentTable{table[model.Payment, model.PaymentInput]{
		s:       s,
		name:    model.TablePayments,
		orderBy: "due_date",
		id:      func(p *model.Payment) string { return p.ID },
		apply:   func(p *model.Payment, in model.PaymentInput) { in.ApplyTo(p) },
		build: func(in model.PaymentInput, now time.Time) model.Payment {
			p := model.Payment{Status: in.Status}
			in.ApplyTo(&p)
			switch p.Status {
			case "":
				p.Status = model.PaymentPending
			case model.PaymentPaid:
				paid := now
				p.PaidDate = &paid
			}
			return p
		},
	}}

	return s
}

func (s *gormStore) DB() *gorm.DB                          { return s.db }
func (s *gormStore) Members() MemberRepository             { return s.members }
func (s *gormStore) Announcements() AnnouncementRepository { return s.announcements }
func (s *gormStore) Maintenance() MaintenanceRepository    { return s.maintenance }
func (s *gormStore) Visitors() VisitorRepository           { return s.visitors }
func (s *gormStore) Payments() PaymentRepository           { return s.payments }
