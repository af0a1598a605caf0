package labels

// LabelRow: ラベル1枚分。CSVの列順は書名・著者・請求記号・バーコード値。
type LabelRow struct {
	Title    string
	Author   string
	Category string
	Barcode  string // book_ulid（ISBNがあればそちら）
}

type PrintParams struct {
	TemplateWidthMM     int    // 期待するテンプレ幅（テンプレート名構築用）
	BarcodeType         string // バーコードのタイプ（"type"）
	UseHalfcut          bool   // 半切
	ConfirmTapeWidthDlg bool   // テープ幅確認ダイアログ
	EnablePrintLog      bool   // ログ出力
	PrinterName         string // 明示的にプリンタ指定する場合はセット（未指定なら既定）
}
