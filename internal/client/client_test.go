package client

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Dakshesh-max/society-man/config"
	"github.com/Dakshesh-max/society-man/internal/api"
	"github.com/Dakshesh-max/society-man/internal/changefeed"
	"github.com/Dakshesh-max/society-man/internal/db"
	"github.com/Dakshesh-max/society-man/internal/form"
	"github.com/Dakshesh-max/society-man/internal/model"
	"github.com/Dakshesh-max/society-man/internal/store"
	"github.com/Dakshesh-max/society-man/internal/viewmodel"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Client, *changefeed.Hub) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	hub := changefeed.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := httptest.NewServer(api.NewRouter(ctx, store.NewGormStore(gdb, hub), hub, nil, api.Options{}))
	t.Cleanup(srv.Close)

	c, err := New(config.ClientConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c, hub
}

func rajesh() model.MemberInput {
	return model.MemberInput{
		Name:   "Rajesh Kumar",
		Email:  "rajesh.kumar@email.com",
		Phone:  "+91 98765 43210",
		Flat:   "A-101",
		Status: model.MemberActive,
	}
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New(config.ClientConfig{BaseURL: "localhost"})
	assert.Error(t, err)
}

func TestClient_MemberRoundTrip(t *testing.T) {
	c, _ := newTestServer(t)
	ctx := context.Background()

	members, err := c.Members().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, members)

	m, err := c.Members().Create(ctx, rajesh())
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)

	got, err := c.Members().Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Input(), got.Input())

	in := got.Input()
	in.Dues = 2500
	updated, err := c.Members().Update(ctx, m.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 2500.0, updated.Dues)

	require.NoError(t, c.Members().Delete(ctx, m.ID))
	_, err = c.Members().Get(ctx, m.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, c.Members().Delete(ctx, m.ID), store.ErrNotFound)
}

func TestClient_ValidationError(t *testing.T) {
	c, _ := newTestServer(t)
	_, err := c.Members().Create(context.Background(), model.MemberInput{Name: "Rajesh Kumar"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "email")
}

func TestClient_VisitorAndPaymentMutations(t *testing.T) {
	c, _ := newTestServer(t)
	ctx := context.Background()

	v, err := c.Visitors().Create(ctx, model.VisitorInput{
		Name: "Suresh Reddy", Phone: "+91 90000 00001", Purpose: "Delivery", HostFlat: "A-101", HostName: "Rajesh Kumar",
	})
	require.NoError(t, err)

	out, err := c.Visitors().CheckOut(ctx, v.ID, v.CheckIn.Add(45*time.Minute))
	require.NoError(t, err)
	d, ok := out.Duration()
	require.True(t, ok)
	assert.Equal(t, 45*time.Minute, d)

	_, err = c.Visitors().CheckOut(ctx, v.ID, time.Time{})
	assert.ErrorIs(t, err, store.ErrInvalidState)

	in := model.DefaultPaymentInput()
	in.Flat, in.Resident, in.Amount = "A-101", "Rajesh Kumar", 2500
	in.DueDate = time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	p, err := c.Payments().Create(ctx, in)
	require.NoError(t, err)

	paid, err := c.Payments().MarkPaid(ctx, p.ID, "UPI", "TXN123", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, paid.Status)
	assert.Equal(t, "TXN123", paid.TransactionID)

	var buf bytes.Buffer
	require.NoError(t, c.Report(ctx, "payments", "2024-09-01", "2024-09-30", &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "Report Type,Payments"))

	summary, err := c.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Payments.Paid)
	assert.Equal(t, 1, summary.Visitors.CheckedOut)
}

func TestClient_MaintenanceStatus(t *testing.T) {
	c, _ := newTestServer(t)
	ctx := context.Background()

	m, err := c.Members().Create(ctx, rajesh())
	require.NoError(t, err)

	entry, err := c.Maintenance().Create(ctx, model.MaintenanceInput{
		Title: "Lift stuck", Description: "Lift B stuck at 3rd floor", Category: "electrical",
		Priority: model.PriorityUrgent, ReportedBy: m.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, entry.Reporter)
	assert.Equal(t, "Rajesh Kumar", entry.Reporter.Name)

	_, err = c.Maintenance().UpdateStatus(ctx, entry.ID, model.MaintenanceCompleted)
	require.NoError(t, err)

	done, err := c.Maintenance().ListByStatus(ctx, model.MaintenanceCompleted)
	require.NoError(t, err)
	assert.Len(t, done, 1)

	pending, err := c.Maintenance().ListByStatus(ctx, model.MaintenancePending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestClient_SubscribeReceivesChanges(t *testing.T) {
	c, hub := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := c.Subscribe(ctx, model.TableMembers)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Subscribers(model.TableMembers) == 1 }, time.Second, 5*time.Millisecond)

	m, err := c.Members().Create(context.Background(), rajesh())
	require.NoError(t, err)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, model.TableMembers, ev.Table)
		assert.Equal(t, changefeed.OpInsert, ev.Op)
		assert.Equal(t, m.ID, ev.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no change event received")
	}

	require.NoError(t, sub.Close())
	for range sub.Events() {
	}
}

func TestClient_SubscribeUnknownTable(t *testing.T) {
	c, _ := newTestServer(t)
	_, err := c.Subscribe(context.Background(), "parking_slots")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestClient_FormAndListenerOverHTTP(t *testing.T) {
	c, hub := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	members := viewmodel.NewListModel[model.Member](model.TableMembers, c.Members())
	require.NoError(t, members.Load(ctx))

	go viewmodel.Listen(ctx, c, model.TableMembers, members)
	require.Eventually(t, func() bool { return hub.Subscribers(model.TableMembers) == 1 }, time.Second, 5*time.Millisecond)

	f := form.New(form.FromRepository(c.Members()), model.DefaultMemberInput)
	require.NoError(t, f.Open(nil))
	require.NoError(t, f.Edit(func(in *model.MemberInput) { *in = rajesh() }))
	require.NoError(t, f.Submit(ctx))

	assert.Eventually(t, func() bool {
		items := members.Items()
		return len(items) == 1 && items[0].Name == "Rajesh Kumar"
	}, 2*time.Second, 10*time.Millisecond)
}
