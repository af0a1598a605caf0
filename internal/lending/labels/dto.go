package labels

// PrintRequest: /books/labels/print
// 蔵書ULIDを渡すとカタログから書誌を引いてラベルを流し込む
type PrintRequest struct {
	Config    PrintConfig `json:"config" binding:"required"`
	BookULIDs []string    `json:"book_ulids" binding:"required"`
	Width     int         `json:"width" binding:"required"`
	Type      string      `json:"type" binding:"required"` // barcode / qrcode
}

type PrintConfig struct {
	UseHalfcut       bool `json:"use_halfcut"`
	ConfirmTapeWidth bool `json:"confirm_tape_width"`
	EnablePrintLog   bool `json:"enable_print_log"`
}

type PrintResponse struct {
	Success bool      `json:"success"`
	Printed int       `json:"printed"`
	Error   *APIError `json:"error,omitempty"`
}

// リクエスト例
/*
	{
		"config": {
			"use_halfcut": true,
			"confirm_tape_width": true,
			"enable_print_log": false
		},
		"book_ulids": ["01J8ZQ5D7M3N4P5Q6R7S8T9V0W"],
		"width": 12,
		"type": "qrcode"
	}
*/
