package store

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Dakshesh-max/society-man/internal/changefeed"
	"github.com/Dakshesh-max/society-man/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	return gormDB, mock
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []changefeed.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev changefeed.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Events() []changefeed.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]changefeed.Event(nil), p.events...)
}

var memberColumns = []string{"id", "name", "email", "phone", "flat", "address", "status", "dues", "registration_date", "updated_at"}

func TestGormStore_ListMembers(t *testing.T) {
	now := time.Now().UTC()

	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedIDs      []string
		expectedErr      bool
	}{
		{
			name: "Orders by registration date, newest first",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "members" ORDER BY "registration_date" DESC,"id" DESC`)).
					WillReturnRows(sqlmock.NewRows(memberColumns).
						AddRow("m2", "Priya Sharma", "priya@example.com", "+91 98765 00002", "B-205", "", "active", 0, now, now).
						AddRow("m1", "Rajesh Kumar", "rajesh@x.com", "+91 98765 43210", "A-101", "", "pending", 2500, now.Add(-time.Hour), now))
			},
			expectedIDs: []string{"m2", "m1"},
		},
		{
			name: "Empty table yields an empty collection",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "members" ORDER BY "registration_date" DESC,"id" DESC`)).
					WillReturnRows(sqlmock.NewRows(memberColumns))
			},
			expectedIDs: []string{},
		},
		{
			name: "Query failure is returned",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "members"`)).
					WillReturnError(errors.New("connection reset"))
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB, nil)

			tc.mockExpectations(mock)

			members, err := s.Members().List(context.Background())
			if tc.expectedErr {
				assert.ErrorContains(t, err, "failed to fetch members")
			} else {
				require.NoError(t, err)
				ids := make([]string, 0, len(members))
				for _, m := range members {
					ids = append(ids, m.ID)
				}
				assert.Equal(t, tc.expectedIDs, ids)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_GetMemberNotFound(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "members" WHERE id = $1 ORDER BY "members"."id" LIMIT $2`)).
		WithArgs("missing", 1).
		WillReturnRows(sqlmock.NewRows(memberColumns))

	_, err := s.Members().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_DeleteAnnouncement(t *testing.T) {
	testCases := []struct {
		name         string
		rowsAffected int64
		expectedErr  error
		expectEvent  bool
	}{
		{name: "Existing row is deleted and announced", rowsAffected: 1, expectEvent: true},
		{name: "Missing row reports not found", rowsAffected: 0, expectedErr: ErrNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			pub := &recordingPublisher{}
			s := NewGormStore(gormDB, pub)

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "announcements" WHERE id = $1`)).
				WithArgs("a1").
				WillReturnResult(sqlmock.NewResult(0, tc.rowsAffected))
			mock.ExpectCommit()

			err := s.Announcements().Delete(context.Background(), "a1")
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				assert.NoError(t, err)
			}

			if tc.expectEvent {
				require.Len(t, pub.Events(), 1)
				ev := pub.Events()[0]
				assert.Equal(t, model.TableAnnouncements, ev.Table)
				assert.Equal(t, changefeed.OpDelete, ev.Op)
				assert.Equal(t, "a1", ev.ID)
			} else {
				assert.Empty(t, pub.Events())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_DeleteReferencedMember(t *testing.T) {
	gormDB, mock := newTestDB(t)
	pub := &recordingPublisher{}
	s := NewGormStore(gormDB, pub)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "members" WHERE id = $1`)).
		WithArgs("m1").
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"})
	mock.ExpectRollback()

	err := s.Members().Delete(context.Background(), "m1")
	assert.ErrorIs(t, err, ErrReferenced)
	assert.Empty(t, pub.Events())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ListMaintenancePreloadsReporter(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB, nil)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "maintenance_logs" WHERE status = $1 ORDER BY "created_at" DESC,"id" DESC`)).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "status", "reported_by", "created_at"}).
			AddRow("l1", "Leaking tap", "Kitchen tap leaks", "pending", "m1", now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "members" WHERE "members"."id" = $1`)).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "flat"}).AddRow("m1", "Rajesh Kumar", "A-101"))

	logs, err := s.Maintenance().ListByStatus(context.Background(), "pending")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].Reporter)
	assert.Equal(t, "Rajesh Kumar", logs[0].Reporter.Name)
	assert.Equal(t, "A-101", logs[0].Reporter.Flat)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_UpdateStatusRejectsUnknownStatus(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB, nil)

	_, err := s.Maintenance().UpdateStatus(context.Background(), "l1", "done")
	assert.ErrorIs(t, err, ErrInvalidState)
	// No query is issued for an invalid status.
	assert.NoError(t, mock.ExpectationsWereMet())
}
