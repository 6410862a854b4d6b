package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dakshesh-max/society-man/internal/changefeed"
	"github.com/Dakshesh-max/society-man/internal/model"
	"github.com/Dakshesh-max/society-man/internal/stats"
	"github.com/Dakshesh-max/society-man/internal/store"
)

// LiveTables are the tables the landing page follows by default.
var LiveTables = []string{model.TableAnnouncements, model.TableVisitors}

// Dashboard holds one list model per entity.
type Dashboard struct {
	Members       *ListModel[model.Member]
	Announcements *ListModel[model.Announcement]
	Maintenance   *ListModel[model.MaintenanceLog]
	Visitors      *ListModel[model.Visitor]
	Payments      *ListModel[model.Payment]
}

// NewDashboard wires list models to repos. Nothing is loaded yet.
func NewDashboard(repos store.Repositories) *Dashboard {
	return &Dashboard{
		Members:       NewListModel[model.Member](model.TableMembers, repos.Members()),
		Announcements: NewListModel[model.Announcement](model.TableAnnouncements, repos.Announcements()),
		Maintenance:   NewListModel[model.MaintenanceLog](model.TableMaintenanceLogs, repos.Maintenance()),
		Visitors:      NewListModel[model.Visitor](model.TableVisitors, repos.Visitors()),
		Payments:      NewListModel[model.Payment](model.TablePayments, repos.Payments()),
	}
}

// Model returns the loader for table, or nil for an unknown table.
func (d *Dashboard) Model(table string) Loader {
	switch table {
	case model.TableMembers:
		return d.Members
	case model.TableAnnouncements:
		return d.Announcements
	case model.TableMaintenanceLogs:
		return d.Maintenance
	case model.TableVisitors:
		return d.Visitors
	case model.TablePayments:
		return d.Payments
	}
	return nil
}

// LoadAll loads every table concurrently. A failed table keeps its previous
// items; all failures are joined into the returned error.
func (d *Dashboard) LoadAll(ctx context.Context) error {
	var g errgroup.Group
	errs := make([]error, len(model.Tables))
	for i, table := range model.Tables {
		i, table := i, table
		g.Go(func() error {
			if err := d.Model(table).Load(ctx); err != nil && !errors.Is(err, ErrStale) {
				errs[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Run loads everything, then keeps the given tables current until ctx ends.
// With no tables it follows LiveTables.
func (d *Dashboard) Run(ctx context.Context, sub changefeed.Subscriber, tables ...string) error {
	if len(tables) == 0 {
		tables = LiveTables
	}
	for _, table := range tables {
		if d.Model(table) == nil {
			return fmt.Errorf("unknown table %q", table)
		}
	}

	// Initial load failures are already logged and leave the models empty.
	_ = d.LoadAll(ctx)

	g, ctx := errgroup.WithContext(ctx)
	for _, table := range tables {
		table := table
		loader := d.Model(table)
		g.Go(func() error { return Listen(ctx, sub, table, loader) })
	}
	return g.Wait()
}

// Summary reduces the currently loaded collections as of now.
func (d *Dashboard) Summary(now time.Time) stats.DashboardSummary {
	return stats.Dashboard(
		d.Members.Items(),
		d.Announcements.Items(),
		d.Maintenance.Items(),
		d.Visitors.Items(),
		d.Payments.Items(),
		now,
	)
}
