// Package report renders CSV exports of one entity over a date range.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Dakshesh-max/society-man/internal/model"
	"github.com/Dakshesh-max/society-man/internal/stats"
)

// DateLayout is the layout of the from and to bounds.
const DateLayout = "2006-01-02"

// Kind selects the entity a report covers.
type Kind string

const (
	KindMembers       Kind = "members"
	KindAnnouncements Kind = "announcements"
	KindMaintenance   Kind = "maintenance"
	KindVisitors      Kind = "visitors"
	KindPayments      Kind = "payments"
)

// Kinds lists every report kind.
var Kinds = []Kind{KindMembers, KindAnnouncements, KindMaintenance, KindVisitors, KindPayments}

// ParseKind accepts a kind in any letter case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown report kind %q", s)
}

// Title is the display name of the kind.
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// Table is the store table the kind reads.
func (k Kind) Table() string {
	if k == KindMaintenance {
		return model.TableMaintenanceLogs
	}
	return string(k)
}

// Filename is the attachment name of a report of kind k.
func Filename(k Kind) string {
	return string(k) + "-report.csv"
}

// Range bounds the records of a report by their recency date. A zero bound is
// open. To includes the whole day it names.
type Range struct {
	From time.Time
	To   time.Time
}

// ParseRange parses from and to in DateLayout. Empty strings are open bounds.
func ParseRange(from, to string) (Range, error) {
	var r Range
	var err error
	if from != "" {
		if r.From, err = time.Parse(DateLayout, from); err != nil {
			return Range{}, fmt.Errorf("invalid from date %q: %w", from, err)
		}
	}
	if to != "" {
		if r.To, err = time.Parse(DateLayout, to); err != nil {
			return Range{}, fmt.Errorf("invalid to date %q: %w", to, err)
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return Range{}, fmt.Errorf("to date %s is before from date %s", to, from)
	}
	return r, nil
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func bound(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(DateLayout)
}

// Data is the full collection of every entity; Build filters it.
type Data struct {
	Members       []model.Member
	Announcements []model.Announcement
	Maintenance   []model.MaintenanceLog
	Visitors      []model.Visitor
	Payments      []model.Payment
}

// Build writes the report of kind k: a header block with the report type and
// range, the summary figures of the records in range, a blank row, then one
// row per record in range.
func Build(w io.Writer, k Kind, r Range, data Data, now time.Time) error {
	var summary, rows [][]string
	switch k {
	case KindMembers:
		summary, rows = members(filter(data.Members, r, func(m model.Member) time.Time { return m.RegistrationDate }), now)
	case KindAnnouncements:
		summary, rows = announcements(filter(data.Announcements, r, func(a model.Announcement) time.Time { return a.CreatedAt }))
	case KindMaintenance:
		summary, rows = maintenance(filter(data.Maintenance, r, func(l model.MaintenanceLog) time.Time { return l.CreatedAt }))
	case KindVisitors:
		summary, rows = visitors(filter(data.Visitors, r, func(v model.Visitor) time.Time { return v.CheckIn }), now)
	case KindPayments:
		summary, rows = payments(filter(data.Payments, r, func(p model.Payment) time.Time { return p.DueDate }), now)
	default:
		return fmt.Errorf("unknown report kind %q", k)
	}

	cw := csv.NewWriter(w)
	out := [][]string{
		{"Report Type", k.Title()},
		{"From", bound(r.From)},
		{"To", bound(r.To)},
		{"Generated", now.Format(time.RFC3339)},
		{},
	}
	out = append(out, summary...)
	out = append(out, []string{})
	out = append(out, rows[0])
	for _, row := range rows[1:] {
		out = append(out, escapeRow(row))
	}
	if err := cw.WriteAll(out); err != nil {
		return fmt.Errorf("failed to write %s report: %w", k, err)
	}
	return nil
}

// escapeRow prefixes cells that a spreadsheet would evaluate as a formula.
func escapeRow(row []string) []string {
	for i, cell := range row {
		if cell != "" && strings.ContainsRune("=+-@\t\r", rune(cell[0])) {
			row[i] = "'" + cell
		}
	}
	return row
}

func filter[T any](items []T, r Range, at func(T) time.Time) []T {
	var out []T
	for _, it := range items {
		if r.Contains(at(it)) {
			out = append(out, it)
		}
	}
	return out
}

func itoa(n int) string { return strconv.Itoa(n) }

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func pct(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) + "%" }

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func stamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func members(items []model.Member, now time.Time) (summary, rows [][]string) {
	s := stats.Members(items, now)
	summary = [][]string{
		{"Total Members", itoa(s.Total)},
		{"Active", itoa(s.Active)},
		{"Pending", itoa(s.Pending)},
		{"Inactive", itoa(s.Inactive)},
		{"Members With Dues", itoa(s.WithDues)},
		{"Total Dues", money(s.TotalDues)},
		{"Active Rate", pct(s.ActiveRate)},
	}
	rows = [][]string{{"Name", "Email", "Phone", "Flat", "Status", "Dues", "Registered"}}
	for _, m := range items {
		rows = append(rows, []string{m.Name, m.Email, m.Phone, m.Flat, m.Status, money(m.Dues), date(m.RegistrationDate)})
	}
	return summary, rows
}

func announcements(items []model.Announcement) (summary, rows [][]string) {
	s := stats.Announcements(items)
	summary = [][]string{
		{"Total Announcements", itoa(s.Total)},
		{"Pinned", itoa(s.Pinned)},
		{"Urgent", itoa(s.Urgent)},
		{"Unread", itoa(s.Unread)},
	}
	rows = [][]string{{"Title", "Author", "Category", "Priority", "Pinned", "Created"}}
	for _, a := range items {
		rows = append(rows, []string{a.Title, a.Author, a.Category, a.Priority, strconv.FormatBool(a.IsPinned), date(a.CreatedAt)})
	}
	return summary, rows
}

func maintenance(items []model.MaintenanceLog) (summary, rows [][]string) {
	s := stats.Maintenance(items)
	summary = [][]string{
		{"Total Requests", itoa(s.Total)},
		{"Pending", itoa(s.Pending)},
		{"In Progress", itoa(s.InProgress)},
		{"Completed", itoa(s.Completed)},
		{"Cancelled", itoa(s.Cancelled)},
		{"Completion Rate", pct(s.CompletionRate)},
	}
	rows = [][]string{{"Title", "Category", "Priority", "Status", "Reported By", "Flat", "Assigned To", "Created"}}
	for _, l := range items {
		reporter, flat := l.ReportedBy, ""
		if l.Reporter != nil {
			reporter, flat = l.Reporter.Name, l.Reporter.Flat
		}
		rows = append(rows, []string{l.Title, l.Category, l.Priority, l.Status, reporter, flat, l.AssignedTo, date(l.CreatedAt)})
	}
	return summary, rows
}

func visitors(items []model.Visitor, now time.Time) (summary, rows [][]string) {
	s := stats.Visitors(items, now)
	summary = [][]string{
		{"Total Visitors", itoa(s.Total)},
		{"Checked In", itoa(s.CheckedIn)},
		{"Checked Out", itoa(s.CheckedOut)},
		{"Average Visit", s.AverageDuration.Round(time.Minute).String()},
	}
	rows = [][]string{{"Name", "Phone", "Purpose", "Host Flat", "Host Name", "Check In", "Check Out", "Status"}}
	for _, v := range items {
		rows = append(rows, []string{v.Name, v.Phone, v.Purpose, v.HostFlat, v.HostName, v.CheckIn.Format(time.RFC3339), stamp(v.CheckOut), v.CurrentStatus()})
	}
	return summary, rows
}

func payments(items []model.Payment, now time.Time) (summary, rows [][]string) {
	s := stats.Payments(items, now)
	summary = [][]string{
		{"Total Payments", itoa(s.Total)},
		{"Paid", itoa(s.Paid)},
		{"Pending", itoa(s.Pending)},
		{"Overdue", itoa(s.Overdue)},
		{"Collected", money(s.TotalPaid)},
		{"Outstanding", money(s.TotalPending)},
		{"Collection Rate", pct(s.CollectionRate)},
	}
	rows = [][]string{{"Flat", "Resident", "Type", "Amount", "Due Date", "Status", "Paid Date", "Method"}}
	for _, p := range items {
		status := p.Status
		if p.IsOverdue(now) {
			status = model.PaymentOverdue
		}
		paid := ""
		if p.PaidDate != nil {
			paid = date(*p.PaidDate)
		}
		rows = append(rows, []string{p.Flat, p.Resident, p.Type, money(p.Amount), date(p.DueDate), status, paid, p.Method})
	}
	return summary, rows
}
