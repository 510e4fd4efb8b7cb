package dto

import "bukinn/internal/microservices/http-api/service"

type ChapterRequest struct {
	Title   string `json:"title" binding:"required,min=2,max=100"`
	Content string `json:"content" binding:"required"`
	Order   int    `json:"order" binding:"required,min=1"`
}

// CreateBookRequest is bound from JSON or multipart form. In a form,
// chapters and categoryIds arrive as JSON-encoded fields.
type CreateBookRequest struct {
	Title         string           `json:"title" form:"title" binding:"required,min=2,max=100"`
	Description   string           `json:"description" form:"description" binding:"max=1000"`
	AuthorID      string           `json:"authorId" form:"authorId" binding:"omitempty,uuid"`
	CategoryIDs   []string         `json:"categoryIds" form:"categoryIds" binding:"omitempty,dive,uuid"`
	ContentStatus string           `json:"contentStatus" form:"contentStatus" binding:"omitempty,oneof=draft published archived"`
	Chapters      []ChapterRequest `json:"chapters" form:"-" binding:"required,min=1,dive"`
}

type UpdateBookRequest struct {
	Title         *string          `json:"title" form:"title" binding:"omitempty,min=2,max=100"`
	Description   *string          `json:"description" form:"description" binding:"omitempty,max=1000"`
	AuthorID      *string          `json:"authorId" form:"authorId" binding:"omitempty,uuid|len=0"`
	CategoryIDs   []string         `json:"categoryIds" form:"categoryIds" binding:"omitempty,dive,uuid"`
	ContentStatus *string          `json:"contentStatus" form:"contentStatus" binding:"omitempty,oneof=draft published archived"`
	Chapters      []ChapterRequest `json:"chapters" form:"-" binding:"omitempty,dive"`
}

type BookListQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Category  string `form:"category" binding:"omitempty,uuid"`
	SortBy    string `form:"sortBy" binding:"omitempty,oneof=title publishedAt totalReads"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

type BookSearchQuery struct {
	Q        string `form:"q" binding:"omitempty,max=100"`
	Author   string `form:"author" binding:"omitempty,max=100"`
	Category string `form:"category" binding:"omitempty,uuid"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type TrendingQuery struct {
	Period string `form:"period" binding:"omitempty,oneof=day week month"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

type SuggestionsQuery struct {
	AuthorID string `form:"authorId" binding:"omitempty,uuid"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

func toChapterInputs(in []ChapterRequest) []service.ChapterInput {
	if in == nil {
		return nil
	}
	out := make([]service.ChapterInput, 0, len(in))
	for _, ch := range in {
		out = append(out, service.ChapterInput{Title: ch.Title, Content: ch.Content, Order: ch.Order})
	}
	return out
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r CreateBookRequest) ToInput() service.BookInput {
	return service.BookInput{
		Title:         &r.Title,
		Description:   &r.Description,
		AuthorID:      nonEmpty(r.AuthorID),
		CategoryIDs:   r.CategoryIDs,
		ContentStatus: nonEmpty(r.ContentStatus),
		Chapters:      toChapterInputs(r.Chapters),
	}
}

func (r UpdateBookRequest) ToInput() service.BookInput {
	return service.BookInput{
		Title:         r.Title,
		Description:   r.Description,
		AuthorID:      r.AuthorID,
		CategoryIDs:   r.CategoryIDs,
		ContentStatus: r.ContentStatus,
		Chapters:      toChapterInputs(r.Chapters),
	}
}
