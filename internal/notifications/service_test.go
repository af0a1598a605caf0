package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fixedID struct{ s string }

func (g fixedID) NewULID() string { return g.s }

var testNow = time.Date(2025, 4, 17, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewService(db)
	svc.clock = fixedClock{t: testNow}
	svc.id = fixedID{s: "01NOTIF000000000000000000"}
	return svc, mock
}

func TestAdd_DefaultsTypeToInfo(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs("01NOTIF000000000000000000", "S-1001", "Book Returned", "Thank you!", TypeInfo, nil, testNow).
		WillReturnResult(sqlmock.NewResult(1, 1))

	res, err := svc.Add(context.Background(), AddRequest{
		StudentNumber: "S-1001",
		Title:         "Book Returned",
		Message:       "Thank you!",
	})
	require.NoError(t, err)
	assert.Equal(t, TypeInfo, res.Type)
	assert.False(t, res.IsRead)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdd_RejectsUnknownType(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Add(context.Background(), AddRequest{
		StudentNumber: "S-1001",
		Title:         "t",
		Message:       "m",
		Type:          "fatal",
	})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeInvalidArgument, api.Code)
}

func TestList_DefaultLimit(t *testing.T) {
	svc, mock := newTestService(t)

	rows := sqlmock.NewRows([]string{
		"notification_id", "notification_ulid", "student_number", "title", "message", "type",
		"related_book_ulid", "is_read", "created_at",
	}).AddRow(uint64(1), "01NOTIF000000000000000000", "S-1001", "t", "m", TypeSuccess, nil, false, testNow)
	mock.ExpectQuery("SELECT (.+) FROM notifications").
		WithArgs("S-1001", DefaultListLimit).
		WillReturnRows(rows)

	res, err := svc.List(context.Background(), "S-1001", 0)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, TypeSuccess, res[0].Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRead_NotFound(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectExec("UPDATE notifications SET is_read = 1").
		WithArgs("01GHOST0000000000000000000").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.MarkRead(context.Background(), "01GHOST0000000000000000000")
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeNotFound, api.Code)
}

// 対象0件でも成功（冪等）
func TestMarkAllRead_Idempotent(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectExec("UPDATE notifications SET is_read = 1").
		WithArgs("S-1001").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := svc.MarkAllRead(context.Background(), "S-1001")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
