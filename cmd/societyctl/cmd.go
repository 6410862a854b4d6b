package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Dakshesh-max/society-man/internal/client"
	"github.com/Dakshesh-max/society-man/internal/form"
	"github.com/Dakshesh-max/society-man/internal/model"
	"github.com/Dakshesh-max/society-man/internal/report"
	"github.com/Dakshesh-max/society-man/internal/viewmodel"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	client *client.Client
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  dashboard                                   - print the summary of every table")
	fmt.Fprintln(cli.out, "  watch -table TABLE                          - reload a table whenever it changes")
	fmt.Fprintln(cli.out, "  report -kind KIND [-from DATE] [-to DATE] [-out FILE]")
	fmt.Fprintln(cli.out, "                                              - download a CSV report")
	fmt.Fprintln(cli.out, "  add-member -name N -email E -phone P -flat F [-status S] [-dues D]")
	fmt.Fprintln(cli.out, "                                              - register a member")
	fmt.Fprintln(cli.out, "  checkout -id VISITOR_ID                     - check a visitor out now")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "dashboard":
		return cli.dashboard(ctx)
	case "watch":
		fs := flag.NewFlagSet("watch", flag.ContinueOnError)
		table := fs.String("table", model.TableAnnouncements, "Table to follow.")
		if err := fs.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.watch(ctx, *table)
	case "report":
		fs := flag.NewFlagSet("report", flag.ContinueOnError)
		kind := fs.String("kind", "", "One of members, announcements, maintenance, visitors, payments.")
		from := fs.String("from", "", "First day, YYYY-MM-DD.")
		to := fs.String("to", "", "Last day, YYYY-MM-DD.")
		out := fs.String("out", "", "Output file. Defaults to <kind>-report.csv.")
		if err := fs.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *kind == "" {
			fs.Usage()
			return errHelp
		}
		return cli.report(ctx, *kind, *from, *to, *out)
	case "add-member":
		fs := flag.NewFlagSet("add-member", flag.ContinueOnError)
		in := model.DefaultMemberInput()
		fs.StringVar(&in.Name, "name", "", "Full name.")
		fs.StringVar(&in.Email, "email", "", "Email address.")
		fs.StringVar(&in.Phone, "phone", "", "Phone number.")
		fs.StringVar(&in.Flat, "flat", "", "Flat number, e.g. A-101.")
		fs.StringVar(&in.Address, "address", "", "Postal address.")
		fs.StringVar(&in.Status, "status", in.Status, "active, pending or inactive.")
		fs.Float64Var(&in.Dues, "dues", 0, "Outstanding dues.")
		if err := fs.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.addMember(ctx, in)
	case "checkout":
		fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
		id := fs.String("id", "", "Visitor id.")
		if err := fs.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *id == "" {
			fs.Usage()
			return errHelp
		}
		return cli.checkout(ctx, *id)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) dashboard(ctx context.Context) error {
	s, err := cli.client.Dashboard(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Members:       %d total, %d active, %d pending, %.2f dues outstanding\n",
		s.Members.Total, s.Members.Active, s.Members.Pending, s.Members.TotalDues)
	fmt.Fprintf(cli.out, "Announcements: %d total, %d pinned, %d urgent\n",
		s.Announcements.Total, s.Announcements.Pinned, s.Announcements.Urgent)
	fmt.Fprintf(cli.out, "Maintenance:   %d pending, %d in progress, %d completed (%.1f%%)\n",
		s.Maintenance.Pending, s.Maintenance.InProgress, s.Maintenance.Completed, s.Maintenance.CompletionRate)
	fmt.Fprintf(cli.out, "Visitors:      %d inside, %d today, average visit %.1f min\n",
		s.Visitors.CheckedIn, s.Visitors.Today, s.Visitors.AverageMinutes)
	fmt.Fprintf(cli.out, "Payments:      %d paid, %d pending, %d overdue, collection rate %.1f%%\n",
		s.Payments.Paid, s.Payments.Pending, s.Payments.Overdue, s.Payments.CollectionRate)
	return nil
}

// printingLoader reloads a table and prints its new size.
type printingLoader struct {
	table string
	inner viewmodel.Loader
	count func() int
	out   io.Writer
}

func (p printingLoader) Load(ctx context.Context) error {
	if err := p.inner.Load(ctx); err != nil {
		return err
	}
	fmt.Fprintf(p.out, "%s %s: %d rows\n", time.Now().Format(time.TimeOnly), p.table, p.count())
	return nil
}

func (cli *commandLine) watch(ctx context.Context, table string) error {
	d := viewmodel.NewDashboard(cli.client)
	loader := d.Model(table)
	if loader == nil {
		return fmt.Errorf("unknown table %q", table)
	}
	p := printingLoader{
		table: table,
		inner: loader,
		count: func() int { return rows(d, table) },
		out:   cli.out,
	}
	if err := p.Load(ctx); err != nil {
		return err
	}
	return viewmodel.Listen(ctx, cli.client, table, p)
}

func rows(d *viewmodel.Dashboard, table string) int {
	switch table {
	case model.TableMembers:
		return len(d.Members.Items())
	case model.TableAnnouncements:
		return len(d.Announcements.Items())
	case model.TableMaintenanceLogs:
		return len(d.Maintenance.Items())
	case model.TableVisitors:
		return len(d.Visitors.Items())
	case model.TablePayments:
		return len(d.Payments.Items())
	}
	return 0
}

func (cli *commandLine) report(ctx context.Context, kind, from, to, out string) error {
	k, err := report.ParseKind(kind)
	if err != nil {
		return err
	}
	if _, err := report.ParseRange(from, to); err != nil {
		return err
	}
	if out == "" {
		out = report.Filename(k)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := cli.client.Report(ctx, string(k), from, to, f); err != nil {
		f.Close()
		os.Remove(out)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Report written to %s\n", out)
	return nil
}

func (cli *commandLine) addMember(ctx context.Context, in model.MemberInput) error {
	c := form.New(form.FromRepository(cli.client.Members()), model.DefaultMemberInput,
		form.WithOnSuccess[model.MemberInput](func() {
			fmt.Fprintf(cli.out, "Member %s added\n", in.Name)
		}),
	)
	if err := c.Open(nil); err != nil {
		return err
	}
	if err := c.Edit(func(f *model.MemberInput) { *f = in }); err != nil {
		return err
	}
	if err := c.Submit(ctx); err != nil {
		return errors.New(c.ErrorMessage())
	}
	return nil
}

func (cli *commandLine) checkout(ctx context.Context, id string) error {
	v, err := cli.client.Visitors().CheckOut(ctx, id, time.Time{})
	if err != nil {
		return err
	}
	d, _ := v.Duration()
	fmt.Fprintf(cli.out, "%s checked out after %s\n", v.Name, d.Round(time.Minute))
	return nil
}
