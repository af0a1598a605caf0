package entries

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fixedID struct{ s string }

func (g fixedID) New() (string, error) { return g.s, nil }

var testNow = time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewService(db)
	svc.clock = fixedClock{t: testNow}
	svc.id = fixedID{s: "01TESTULID0000000000000000"}
	return svc, mock
}

func entryRows(checkedOut *time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"entry_id", "entry_ulid", "student_number", "name", "purpose", "checked_in_at", "checked_out_at",
	}).AddRow(uint64(7), "01OLDULID00000000000000000", "S-1001", "Hana Sato", "Study", testNow.Add(-time.Hour), checkedOut)
}

func TestCheckIn_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CheckIn(context.Background(), CheckInRequest{Name: "Hana Sato"})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeInvalidArgument, api.Code)

	_, err = svc.CheckIn(context.Background(), CheckInRequest{StudentNumber: "S-1001"})
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeInvalidArgument, api.Code)
}

func TestCheckIn_DefaultPurpose(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectExec("INSERT INTO entries").
		WithArgs("01TESTULID0000000000000000", "S-1001", "Hana Sato", DefaultPurpose, testNow).
		WillReturnResult(sqlmock.NewResult(11, 1))

	res, err := svc.CheckIn(context.Background(), CheckInRequest{StudentNumber: "S-1001", Name: "Hana Sato"})
	require.NoError(t, err)
	assert.Equal(t, DefaultPurpose, res.Purpose)
	assert.Nil(t, res.CheckedOutAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckOut_ClosesOpenEntry(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM entries").
		WithArgs("S-1001").
		WillReturnRows(entryRows(nil))
	mock.ExpectExec("UPDATE entries SET checked_out_at").
		WithArgs(testNow, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.CheckOut(context.Background(), "S-1001")
	require.NoError(t, err)
	require.NotNil(t, res.CheckedOutAt)
	assert.Equal(t, testNow, *res.CheckedOutAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

// 2回目の退館は冪等に弾く
func TestCheckOut_AlreadyClosed(t *testing.T) {
	svc, mock := newTestService(t)

	closed := testNow.Add(-10 * time.Minute)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM entries").
		WithArgs("S-1001").
		WillReturnRows(entryRows(&closed))
	mock.ExpectRollback()

	_, err := svc.CheckOut(context.Background(), "S-1001")
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeAlreadyClosed, api.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckOut_NoRecord(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM entries").
		WithArgs("S-9999").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.CheckOut(context.Background(), "S-9999")
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeNotFound, api.Code)
}

func TestScan_TogglesOut(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM entries").
		WithArgs("S-1001").
		WillReturnRows(entryRows(nil))
	mock.ExpectExec("UPDATE entries SET checked_out_at").
		WithArgs(testNow, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.Scan(context.Background(), ScanRequest{StudentNumber: "S-1001"})
	require.NoError(t, err)
	assert.Equal(t, ActionCheckedOut, res.Action)
	require.NoError(t, mock.ExpectationsWereMet())
}

// 履歴なしのスキャンは既定の氏名・目的で入館になる
func TestScan_TogglesInWithoutHistory(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM entries").
		WithArgs("S-2002").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO entries").
		WithArgs("01TESTULID0000000000000000", "S-2002", "Student S-2002", DefaultPurpose, testNow).
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectCommit()

	res, err := svc.Scan(context.Background(), ScanRequest{StudentNumber: "S-2002"})
	require.NoError(t, err)
	assert.Equal(t, ActionCheckedIn, res.Action)
	assert.Equal(t, "Student S-2002", res.Entry.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

// 直前が退館済みならスキャンは新しい入館になり、前回の氏名を引き継ぐ
func TestScan_TogglesInReusesLatestName(t *testing.T) {
	svc, mock := newTestService(t)

	closed := testNow.Add(-time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM entries").
		WithArgs("S-1001").
		WillReturnRows(entryRows(&closed))
	mock.ExpectExec("INSERT INTO entries").
		WithArgs("01TESTULID0000000000000000", "S-1001", "Hana Sato", "Study", testNow).
		WillReturnResult(sqlmock.NewResult(13, 1))
	mock.ExpectCommit()

	res, err := svc.Scan(context.Background(), ScanRequest{StudentNumber: "S-1001"})
	require.NoError(t, err)
	assert.Equal(t, ActionCheckedIn, res.Action)
	assert.Equal(t, "Hana Sato", res.Entry.Name)
}

func TestLatest_NoRows(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT (.+) FROM entries").
		WithArgs("S-3003").
		WillReturnError(sql.ErrNoRows)

	res, err := svc.Latest(context.Background(), "S-3003")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestStats_InvalidRange(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Stats(context.Background(), StatsRequest{From: "2025-04-02", To: "2025-04-01"})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeInvalidArgument, api.Code)
}
