package dto

// DTOs for reading progress in HTTP API

type UpdateProgressRequest struct {
	BookID       string `json:"bookId" binding:"required,uuid"`
	ChapterOrder int    `json:"chapterOrder" binding:"required,min=1"`
}

type ProgressListQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}
