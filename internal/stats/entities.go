package stats

import (
	"math"
	"time"

	"github.com/Dakshesh-max/society-man/internal/model"
)

// MemberSummary is the header of the member directory.
type MemberSummary struct {
	Total           int     `json:"total"`
	Active          int     `json:"active"`
	Pending         int     `json:"pending"`
	Inactive        int     `json:"inactive"`
	WithDues        int     `json:"with_dues"`
	TotalDues       float64 `json:"total_dues"`
	JoinedThisMonth int     `json:"joined_this_month"`
	ActiveRate      float64 `json:"active_rate"`
}

// Members summarizes the member directory as of now.
func Members(members []model.Member, now time.Time) MemberSummary {
	byStatus := CountBy(members, func(m model.Member) string { return m.Status })
	s := MemberSummary{
		Total:     len(members),
		Active:    byStatus[model.MemberActive],
		Pending:   byStatus[model.MemberPending],
		Inactive:  byStatus[model.MemberInactive],
		WithDues:  CountIf(members, func(m model.Member) bool { return m.Dues > 0 }),
		TotalDues: Sum(members, func(m model.Member) float64 { return m.Dues }),
		JoinedThisMonth: CountIf(members, func(m model.Member) bool {
			return sameMonth(m.RegistrationDate, now)
		}),
	}
	s.ActiveRate = Percentage(s.Active, s.Total)
	return s
}

// AnnouncementSummary is the header of the announcements board.
type AnnouncementSummary struct {
	Total      int            `json:"total"`
	Pinned     int            `json:"pinned"`
	Urgent     int            `json:"urgent"`
	Unread     int            `json:"unread"`
	ByPriority map[string]int `json:"by_priority"`
	ByCategory map[string]int `json:"by_category"`
	ReadRate   float64        `json:"read_rate"`
}

// Announcements summarizes the announcements board.
func Announcements(items []model.Announcement) AnnouncementSummary {
	s := AnnouncementSummary{
		Total:      len(items),
		Pinned:     CountIf(items, func(a model.Announcement) bool { return a.IsPinned }),
		Unread:     CountIf(items, func(a model.Announcement) bool { return !a.IsRead }),
		ByPriority: CountBy(items, func(a model.Announcement) string { return a.Priority }),
		ByCategory: CountBy(items, func(a model.Announcement) string { return a.Category }),
	}
	s.Urgent = s.ByPriority[model.PriorityUrgent]
	s.ReadRate = Percentage(s.Total-s.Unread, s.Total)
	return s
}

// MaintenanceSummary is the header of the maintenance screen.
type MaintenanceSummary struct {
	Total          int     `json:"total"`
	Pending        int     `json:"pending"`
	InProgress     int     `json:"in_progress"`
	Completed      int     `json:"completed"`
	Cancelled      int     `json:"cancelled"`
	Urgent         int     `json:"urgent"`
	CompletionRate float64 `json:"completion_rate"`
}

// Maintenance summarizes the maintenance logs.
func Maintenance(logs []model.MaintenanceLog) MaintenanceSummary {
	byStatus := CountBy(logs, func(l model.MaintenanceLog) string { return l.Status })
	s := MaintenanceSummary{
		Total:      len(logs),
		Pending:    byStatus[model.MaintenancePending],
		InProgress: byStatus[model.MaintenanceInProgress],
		Completed:  byStatus[model.MaintenanceCompleted],
		Cancelled:  byStatus[model.MaintenanceCancelled],
		Urgent: CountIf(logs, func(l model.MaintenanceLog) bool {
			return l.Priority == model.PriorityUrgent && l.Status != model.MaintenanceCompleted
		}),
	}
	s.CompletionRate = Percentage(s.Completed, s.Total)
	return s
}

// VisitorSummary is the header of the visitor log.
type VisitorSummary struct {
	Total           int           `json:"total"`
	CheckedIn       int           `json:"checked_in"`
	CheckedOut      int           `json:"checked_out"`
	Today           int           `json:"today"`
	AverageMinutes  float64       `json:"average_duration_minutes"`
	AverageDuration time.Duration `json:"-"`
}

// Visitors summarizes the visitor log as of now.
func Visitors(visitors []model.Visitor, now time.Time) VisitorSummary {
	s := VisitorSummary{
		Total:     len(visitors),
		CheckedIn: CountIf(visitors, func(v model.Visitor) bool { return v.CurrentStatus() == model.VisitorCheckedIn }),
		Today:     CountIf(visitors, func(v model.Visitor) bool { return sameDay(v.CheckIn, now) }),
	}
	s.CheckedOut = s.Total - s.CheckedIn

	var total time.Duration
	for _, v := range visitors {
		if d, ok := v.Duration(); ok {
			total += d
		}
	}
	if s.CheckedOut > 0 {
		s.AverageDuration = total / time.Duration(s.CheckedOut)
		s.AverageMinutes = math.Round(s.AverageDuration.Minutes()*10) / 10
	}
	return s
}

// PaymentSummary is the header of the payments screen.
type PaymentSummary struct {
	Total          int     `json:"total"`
	Paid           int     `json:"paid"`
	Pending        int     `json:"pending"`
	Overdue        int     `json:"overdue"`
	TotalPaid      float64 `json:"total_paid"`
	TotalPending   float64 `json:"total_pending"`
	CollectionRate float64 `json:"collection_rate"`
}

// Payments summarizes payments as of now. Overdue is derived from the due
// date, so a pending payment past its due date counts as overdue.
func Payments(payments []model.Payment, now time.Time) PaymentSummary {
	isPaid := func(p model.Payment) bool { return p.Status == model.PaymentPaid }
	amount := func(p model.Payment) float64 { return p.Amount }

	s := PaymentSummary{
		Total:        len(payments),
		Paid:         CountIf(payments, isPaid),
		Overdue:      CountIf(payments, func(p model.Payment) bool { return p.IsOverdue(now) }),
		TotalPaid:    SumIf(payments, isPaid, amount),
		TotalPending: SumIf(payments, func(p model.Payment) bool { return !isPaid(p) }, amount),
	}
	s.Pending = s.Total - s.Paid - s.Overdue
	s.CollectionRate = Percentage(s.Paid, s.Total)
	return s
}

// DashboardSummary combines every screen's figures for the landing page.
type DashboardSummary struct {
	Members       MemberSummary       `json:"members"`
	Announcements AnnouncementSummary `json:"announcements"`
	Maintenance   MaintenanceSummary  `json:"maintenance"`
	Visitors      VisitorSummary      `json:"visitors"`
	Payments      PaymentSummary      `json:"payments"`
}

// Dashboard builds the landing page summary.
func Dashboard(
	members []model.Member,
	announcements []model.Announcement,
	logs []model.MaintenanceLog,
	visitors []model.Visitor,
	payments []model.Payment,
	now time.Time,
) DashboardSummary {
	return DashboardSummary{
		Members:       Members(members, now),
		Announcements: Announcements(announcements),
		Maintenance:   Maintenance(logs),
		Visitors:      Visitors(visitors, now),
		Payments:      Payments(payments, now),
	}
}

func sameMonth(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
