package dto

import "bukinn/internal/microservices/http-api/service"

type CatalogListQuery struct {
	Q     string `form:"q" binding:"omitempty,max=100"`
	Page  int    `form:"page" binding:"omitempty,min=1"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type AuthorRequest struct {
	Name         *string `json:"name" binding:"required,min=2,max=100"`
	Bio          *string `json:"bio" binding:"omitempty,max=500"`
	Email        *string `json:"email" binding:"omitempty,email"`
	Website      *string `json:"website" binding:"omitempty,url"`
	ProfileImage *string `json:"profileImage" binding:"omitempty,url"`
}

type UpdateAuthorRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=2,max=100"`
	Bio          *string `json:"bio" binding:"omitempty,max=500"`
	Email        *string `json:"email" binding:"omitempty,email"`
	Website      *string `json:"website" binding:"omitempty,url"`
	ProfileImage *string `json:"profileImage" binding:"omitempty,url"`
}

type CategoryRequest struct {
	Name        *string `json:"name" binding:"required,min=2,max=50"`
	Description *string `json:"description" binding:"omitempty,max=200"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=2,max=50"`
	Description *string `json:"description" binding:"omitempty,max=200"`
}

func (r AuthorRequest) ToInput() service.AuthorInput {
	return service.AuthorInput{Name: r.Name, Bio: r.Bio, Email: r.Email, Website: r.Website, ProfileImage: r.ProfileImage}
}

func (r UpdateAuthorRequest) ToInput() service.AuthorInput {
	return service.AuthorInput{Name: r.Name, Bio: r.Bio, Email: r.Email, Website: r.Website, ProfileImage: r.ProfileImage}
}

func (r CategoryRequest) ToInput() service.CategoryInput {
	return service.CategoryInput{Name: r.Name, Description: r.Description}
}

func (r UpdateCategoryRequest) ToInput() service.CategoryInput {
	return service.CategoryInput{Name: r.Name, Description: r.Description}
}
