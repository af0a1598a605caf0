package borrows

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

func (g fixedID) NewULID() string { return g.s }

type captureNotifier struct{ got []Notification }

func (c *captureNotifier) Notify(_ context.Context, n Notification) { c.got = append(c.got, n) }

var testNow = time.Date(2025, 4, 17, 9, 0, 0, 0, time.UTC)

const testULID = "01BRWTEST0000000000000000"

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *captureNotifier) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	notifier := &captureNotifier{}
	svc := NewService(db, notifier, Policy{BorrowPeriodDays: 14, FinePerDay: 5.0})
	svc.clock = fixedClock{t: testNow}
	svc.id = fixedID{s: testULID}
	return svc, mock, notifier
}

var borrowCols = []string{
	"borrow_id", "borrow_ulid", "book_id", "book_ulid", "book_title", "student_number", "student_name",
	"borrow_date", "due_date", "return_date", "status", "rejection_reason", "lost_penalty", "fine_status", "fine_paid_date",
}

func borrowRow(status string, due time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(borrowCols).AddRow(
		uint64(5), testULID, uint64(3), "01BOOKULID0000000000000000", "The Little Prince",
		"S-1001", "Hana Sato",
		due.AddDate(0, 0, -14), due, nil, status, nil, nil, nil, nil,
	)
}

func TestRequest_CreatesPendingWithDueDate(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery("SELECT book_id, title FROM books").
		WithArgs("01BOOKULID0000000000000000").
		WillReturnRows(sqlmock.NewRows([]string{"book_id", "title"}).AddRow(uint64(3), "The Little Prince"))
	mock.ExpectExec("INSERT INTO borrow_records").
		WithArgs(testULID, uint64(3), "01BOOKULID0000000000000000", "The Little Prince",
			"S-1001", "Hana Sato", testNow, testNow.AddDate(0, 0, 14), StatusPending).
		WillReturnResult(sqlmock.NewResult(5, 1))

	res, err := svc.Request(context.Background(), CreateBorrowRequest{
		BookULID:      "01BOOKULID0000000000000000",
		StudentNumber: "S-1001",
		StudentName:   "Hana Sato",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, testNow.AddDate(0, 0, 14), res.DueDate)
	assert.False(t, res.IsOverdue)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequest_UnknownBook(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery("SELECT book_id, title FROM books").
		WithArgs("01MISSING00000000000000000").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Request(context.Background(), CreateBorrowRequest{
		BookULID:      "01MISSING00000000000000000",
		StudentNumber: "S-1001",
		StudentName:   "Hana Sato",
	})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeNotFound, api.Code)
}

func TestApprove_DecrementsStock(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM borrow_records").
		WithArgs(testULID).
		WillReturnRows(borrowRow(StatusPending, testNow.AddDate(0, 0, 14)))
	mock.ExpectExec("UPDATE borrow_records SET status").
		WithArgs(StatusApproved, uint64(5), StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE books SET available_copies = available_copies - 1").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.Approve(context.Background(), testULID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, res.Status)
	require.Len(t, notifier.got, 1)
	assert.Equal(t, "Borrow Request Approved", notifier.got[0].Title)
	assert.Equal(t, "S-1001", notifier.got[0].StudentNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

// 在庫0でもステータス遷移はコミットされる（引当だけスキップ）
func TestApprove_StockFloorStillCommits(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM borrow_records").
		WithArgs(testULID).
		WillReturnRows(borrowRow(StatusPending, testNow.AddDate(0, 0, 14)))
	mock.ExpectExec("UPDATE borrow_records SET status").
		WithArgs(StatusApproved, uint64(5), StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE books SET available_copies = available_copies - 1").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	res, err := svc.Approve(context.Background(), testULID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, res.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_NotPending(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM borrow_records").
		WithArgs(testULID).
		WillReturnRows(borrowRow(StatusReturned, testNow.AddDate(0, 0, -14)))
	mock.ExpectRollback()

	_, err := svc.Approve(context.Background(), testULID)
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodePreconditionFailed, api.Code)
	assert.Empty(t, notifier.got)
}

func TestApprove_NotFound(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM borrow_records").
		WithArgs("01GHOST0000000000000000000").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Approve(context.Background(), "01GHOST0000000000000000000")
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeNotFound, api.Code)
}

func TestReject_UsesDefaultReason(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM borrow_records").
		WithArgs(testULID).
		WillReturnRows(borrowRow(StatusPending, testNow.AddDate(0, 0, 14)))
	mock.ExpectExec("UPDATE borrow_records SET status").
		WithArgs(StatusRejected, DefaultRejectionReason, uint64(5), StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.Reject(context.Background(), testULID, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, res.Status)
	require.NotNil(t, res.RejectionReason)
	assert.Equal(t, DefaultRejectionReason, *res.RejectionReason)
	require.Len(t, notifier.got, 1)
	assert.Equal(t, "Borrow Request Rejected", notifier.got[0].Title)
}

func TestReturn_IncrementsStock(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM borrow_records").
		WithArgs(testULID).
		WillReturnRows(borrowRow(StatusApproved, testNow.AddDate(0, 0, 7)))
	mock.ExpectExec("UPDATE borrow_records SET status").
		WithArgs(StatusReturned, testNow, uint64(5), StatusApproved).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE books SET available_copies = available_copies ").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.Return(context.Background(), testULID)
	require.NoError(t, err)
	assert.Equal(t, StatusReturned, res.Status)
	require.NotNil(t, res.ReturnDate)
	require.Len(t, notifier.got, 1)
	assert.Equal(t, "Book Returned", notifier.got[0].Title)
}

// 紛失確定後の返却は弾く
func TestReturn_LostRecordFails(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM borrow_records").
		WithArgs(testULID).
		WillReturnRows(borrowRow(StatusLost, testNow.AddDate(0, 0, -7)))
	mock.ExpectRollback()

	_, err := svc.Return(context.Background(), testULID)
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodePreconditionFailed, api.Code)
}

func TestMarkLost_RequiresPositivePenalty(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.MarkLost(context.Background(), testULID, 0)
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeInvalidArgument, api.Code)
}

func TestMarkLost_SetsPenaltyAndUnpaid(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM borrow_records").
		WithArgs(testULID).
		WillReturnRows(borrowRow(StatusApproved, testNow.AddDate(0, 0, -3)))
	mock.ExpectExec("UPDATE borrow_records SET status").
		WithArgs(StatusLost, 250.0, FineUnpaid, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.MarkLost(context.Background(), testULID, 250.0)
	require.NoError(t, err)
	assert.Equal(t, StatusLost, res.Status)
	require.NotNil(t, res.LostPenalty)
	assert.Equal(t, 250.0, *res.LostPenalty)
	require.NotNil(t, res.FineStatus)
	assert.Equal(t, FineUnpaid, *res.FineStatus)
	require.Len(t, notifier.got, 1)
	assert.Contains(t, notifier.got[0].Message, "₱250.00")
}

// 支払い通知の金額は更新前の実効未払額で計算される
func TestMarkFinePaid_NotifiesPreviousAmount(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	// 3日延滞 → 15.00
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM borrow_records").
		WithArgs(testULID).
		WillReturnRows(borrowRow(StatusApproved, testNow.AddDate(0, 0, -3)))
	mock.ExpectExec("UPDATE borrow_records SET fine_status").
		WithArgs(FinePaid, testNow, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.MarkFinePaid(context.Background(), testULID)
	require.NoError(t, err)
	require.NotNil(t, res.FineStatus)
	assert.Equal(t, FinePaid, *res.FineStatus)
	require.NotNil(t, res.FinePaidDate)
	require.Len(t, notifier.got, 1)
	assert.Contains(t, notifier.got[0].Message, "₱15.00")
}

func TestTotalUnpaidFines_EffectiveStatus(t *testing.T) {
	svc, mock, _ := newTestService(t)

	rows := sqlmock.NewRows(borrowCols).
		// 4日延滞・fine_status未設定 → 20.00
		AddRow(uint64(1), "01A", uint64(3), "01B1", "Book One", "S-1001", "Hana Sato",
			testNow.AddDate(0, 0, -18), testNow.AddDate(0, 0, -4), nil, StatusApproved, nil, nil, nil, nil).
		// 紛失・未払い → 250.00
		AddRow(uint64(2), "01B", uint64(4), "01B2", "Book Two", "S-1001", "Hana Sato",
			testNow.AddDate(0, 0, -30), testNow.AddDate(0, 0, -16), nil, StatusLost, nil, 250.0, FineUnpaid, nil).
		// 支払い済み → 0
		AddRow(uint64(3), "01C", uint64(5), "01B3", "Book Three", "S-1001", "Hana Sato",
			testNow.AddDate(0, 0, -20), testNow.AddDate(0, 0, -6), nil, StatusApproved, nil, nil, FinePaid, nil)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM borrow_records WHERE student_number").
		WithArgs("S-1001").
		WillReturnRows(rows)
	mock.ExpectCommit()

	res, err := svc.TotalUnpaidFines(context.Background(), "S-1001")
	require.NoError(t, err)
	assert.Equal(t, 270.0, res.TotalUnpaidFines)
	assert.False(t, res.CanBorrow)
}

func TestTotalUnpaidFines_CleanStudentCanBorrow(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM borrow_records WHERE student_number").
		WithArgs("S-2002").
		WillReturnRows(sqlmock.NewRows(borrowCols))
	mock.ExpectCommit()

	res, err := svc.TotalUnpaidFines(context.Background(), "S-2002")
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.TotalUnpaidFines)
	assert.True(t, res.CanBorrow)
}

func TestRemind_OnlyWhenOverdue(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectQuery("SELECT (.+) FROM borrow_records").
		WithArgs(testULID).
		WillReturnRows(borrowRow(StatusApproved, testNow.AddDate(0, 0, 7)))

	err := svc.Remind(context.Background(), testULID)
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodePreconditionFailed, api.Code)
	assert.Empty(t, notifier.got)
}

func TestRemind_SendsWarning(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectQuery("SELECT (.+) FROM borrow_records").
		WithArgs(testULID).
		WillReturnRows(borrowRow(StatusApproved, testNow.AddDate(0, 0, -2)))

	require.NoError(t, svc.Remind(context.Background(), testULID))
	require.Len(t, notifier.got, 1)
	assert.Equal(t, "Overdue Book Reminder", notifier.got[0].Title)
	assert.Equal(t, "warning", notifier.got[0].Type)
}
