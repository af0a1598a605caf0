package books

import "time"

// Book は books テーブルの1行を表す
type Book struct {
	BookID          uint64
	BookULID        string
	Title           string
	Author          string
	Category        string
	ISBN            *string
	Description     *string
	CoverURL        *string
	AvailableCopies int
	TotalCopies     int
	IsDeleted       bool
	AddedAt         time.Time
}

func (b *Book) toDTO() BookResponse {
	return BookResponse{
		BookID:          b.BookID,
		BookULID:        b.BookULID,
		Title:           b.Title,
		Author:          b.Author,
		Category:        b.Category,
		ISBN:            b.ISBN,
		Description:     b.Description,
		CoverURL:        b.CoverURL,
		AvailableCopies: b.AvailableCopies,
		TotalCopies:     b.TotalCopies,
		IsDeleted:       b.IsDeleted,
		AddedAt:         b.AddedAt,
	}
}

// 蔵書検索条件
type SearchQuery struct {
	Keyword        string // title/author/isbn/category の部分一致
	Category       string
	AvailableOnly  bool
	IncludeDeleted bool
}

type Page struct {
	Limit  int
	Offset int
}
