package borrows

import (
	"math"
	"time"
)

// FineInfo は読み出し時に毎回計算する導出値。DBには書かない。
type FineInfo struct {
	IsOverdue   bool
	DaysOverdue int
	FineAmount  float64 // 日割り延滞金（紛失ペナルティは含まない）
	// 表示用の実効ステータス。延滞中/紛失で未設定なら unpaid 扱い。
	// 延滞も紛失ペナルティも無ければ保存値（無ければ空）。
	EffectiveFineStatus string
}

// AssessFine は BorrowRecord と現在時刻から延滞情報を導出する。
// 日割り計算は approved かつ未返却の場合のみ。期限ちょうどは延滞ではない
// （now > dueDate の厳密比較）。
func AssessFine(r *BorrowRecord, now time.Time, finePerDay float64) FineInfo {
	var f FineInfo
	if r.FineStatus != nil {
		f.EffectiveFineStatus = *r.FineStatus
	}

	if r.Status == StatusApproved && r.ReturnDate == nil {
		if now.After(r.DueDate) {
			f.IsOverdue = true
			f.DaysOverdue = int(math.Ceil(now.Sub(r.DueDate).Hours() / 24))
			f.FineAmount = float64(f.DaysOverdue) * finePerDay
			if r.FineStatus == nil {
				f.EffectiveFineStatus = FineUnpaid
			}
		}
		return f
	}

	// 紛失はペナルティ額固定。fine_status 未設定なら unpaid 扱い。
	if r.Status == StatusLost && r.LostPenalty != nil && *r.LostPenalty > 0 && r.FineStatus == nil {
		f.EffectiveFineStatus = FineUnpaid
	}
	return f
}

// UnpaidAmount は実効 fine_status が unpaid のときに請求される金額。
// approved の延滞 → 日割り延滞金、lost → 紛失ペナルティ。それ以外は 0。
func UnpaidAmount(r *BorrowRecord, now time.Time, finePerDay float64) float64 {
	f := AssessFine(r, now, finePerDay)
	if f.EffectiveFineStatus != FineUnpaid {
		return 0
	}
	if r.Status == StatusLost && r.LostPenalty != nil {
		return *r.LostPenalty
	}
	return f.FineAmount
}
