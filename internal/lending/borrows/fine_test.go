package borrows

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testFinePerDay = 5.0

var due = time.Date(2025, 4, 14, 0, 0, 0, 0, time.UTC)

func approvedRecord() *BorrowRecord {
	return &BorrowRecord{
		BorrowULID: "01BRWTEST0000000000000000",
		BookTitle:  "The Little Prince",
		BorrowDate: due.AddDate(0, 0, -14),
		DueDate:    due,
		Status:     StatusApproved,
	}
}

func TestAssessFine_NotOverdueAtDueDate(t *testing.T) {
	r := approvedRecord()

	// 期限ちょうどは延滞ではない
	f := AssessFine(r, due, testFinePerDay)
	assert.False(t, f.IsOverdue)
	assert.Equal(t, 0, f.DaysOverdue)
	assert.Equal(t, 0.0, f.FineAmount)
	assert.Equal(t, "", f.EffectiveFineStatus)
}

func TestAssessFine_ThreeDaysLate(t *testing.T) {
	r := approvedRecord()

	f := AssessFine(r, due.AddDate(0, 0, 3), testFinePerDay)
	assert.True(t, f.IsOverdue)
	assert.Equal(t, 3, f.DaysOverdue)
	assert.Equal(t, 15.0, f.FineAmount)
	assert.Equal(t, FineUnpaid, f.EffectiveFineStatus)
}

// 1時間でも過ぎたら1日分に切り上げ
func TestAssessFine_PartialDayRoundsUp(t *testing.T) {
	r := approvedRecord()

	f := AssessFine(r, due.Add(time.Hour), testFinePerDay)
	assert.True(t, f.IsOverdue)
	assert.Equal(t, 1, f.DaysOverdue)
	assert.Equal(t, 5.0, f.FineAmount)
}

func TestAssessFine_ReturnedStopsAccrual(t *testing.T) {
	r := approvedRecord()
	ret := due.AddDate(0, 0, -1)
	r.Status = StatusReturned
	r.ReturnDate = &ret

	f := AssessFine(r, due.AddDate(0, 0, 30), testFinePerDay)
	assert.False(t, f.IsOverdue)
	assert.Equal(t, 0.0, f.FineAmount)
}

func TestAssessFine_LostUsesPenaltyStatus(t *testing.T) {
	r := approvedRecord()
	penalty := 250.0
	r.Status = StatusLost
	r.LostPenalty = &penalty

	// fine_status 未設定でも実効 unpaid になる
	f := AssessFine(r, due.AddDate(0, 0, 3), testFinePerDay)
	assert.False(t, f.IsOverdue)
	assert.Equal(t, 0.0, f.FineAmount)
	assert.Equal(t, FineUnpaid, f.EffectiveFineStatus)
}

func TestAssessFine_PaidStatusWins(t *testing.T) {
	r := approvedRecord()
	paid := FinePaid
	r.FineStatus = &paid

	f := AssessFine(r, due.AddDate(0, 0, 3), testFinePerDay)
	assert.True(t, f.IsOverdue)
	assert.Equal(t, 15.0, f.FineAmount)
	assert.Equal(t, FinePaid, f.EffectiveFineStatus)
}

func TestUnpaidAmount(t *testing.T) {
	overdue := approvedRecord()

	lost := approvedRecord()
	penalty := 250.0
	lost.Status = StatusLost
	lost.LostPenalty = &penalty

	lostPaid := approvedRecord()
	lostPaid.Status = StatusLost
	lostPaid.LostPenalty = &penalty
	paid := FinePaid
	lostPaid.FineStatus = &paid

	now := due.AddDate(0, 0, 4)
	assert.Equal(t, 20.0, UnpaidAmount(overdue, now, testFinePerDay))
	assert.Equal(t, 250.0, UnpaidAmount(lost, now, testFinePerDay))
	assert.Equal(t, 0.0, UnpaidAmount(lostPaid, now, testFinePerDay))
	assert.Equal(t, 0.0, UnpaidAmount(&BorrowRecord{Status: StatusPending, DueDate: due}, now, testFinePerDay))
}
