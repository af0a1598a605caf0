package labels

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
)

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func toHTTPStatus(err error) int {
	if api, ok := err.(*APIError); ok {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict:
			return 409
		}
	}
	return 500
}

type Service struct {
	store *Store
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db)}
}

// PrintLabels はカタログから書誌を引いてラベルを印刷する。
func (s *Service) PrintLabels(ctx context.Context, input PrintRequest) (*PrintResponse, error) {
	if len(input.BookULIDs) == 0 {
		return nil, ErrInvalid("book_ulids is required")
	}

	rows, err := s.store.ResolveBooks(ctx, input.BookULIDs)
	if err != nil {
		log.Printf("[ERROR] resolve books for labels: %v", err)
		return nil, ErrInternal("failed to resolve books")
	}
	if len(rows) == 0 {
		return nil, ErrNotFound("no matching books found")
	}

	params := PrintParams{
		TemplateWidthMM:     input.Width,
		BarcodeType:         input.Type,
		UseHalfcut:          input.Config.UseHalfcut,
		ConfirmTapeWidthDlg: input.Config.ConfirmTapeWidth,
		EnablePrintLog:      input.Config.EnablePrintLog,
		PrinterName:         "",
	}

	if err := Print(rows, params); err != nil {
		if errors.Is(err, ErrTapeSizeNotMatched) {
			// テープ幅の不一致は「クライアントからの要求とサーバーの状態の競合」:409 Conflictを返す
			log.Println("[WARN]", ErrConflict(err.Error()))
			return nil, ErrConflict(err.Error())
		}
		if errors.Is(err, ErrTemplateNotFound) {
			// テンプレートが見つからない: 404 Not Found
			log.Println("[WARN]", ErrNotFound(err.Error()))
			return nil, ErrNotFound(err.Error())
		}
		if errors.Is(err, ErrNoPrintableSelected) {
			// 印刷対象が選択されていないのは「クライアントのリクエストが不正」:400 Bad Request
			log.Println("[WARN]", ErrInvalid(err.Error()))
			return nil, ErrInvalid(err.Error())
		}
		if errors.Is(err, ErrSPC10NotFound) {
			// SPC10.exeが見つからないのはサーバー内部の問題:500 Internal
			// ただし、メッセージは具体的で分かりやすいものにする
			log.Println("[ERROR]", ErrInternal(err.Error()))
			return nil, ErrInternal(err.Error())
		}

		// その他の予期せぬエラーも500 Internal
		log.Printf("[ERROR] %v\n", err)
		return nil, ErrInternal(err.Error())
	}

	return &PrintResponse{Success: true, Printed: len(rows)}, nil
}
