package dto

import (
	"bukinn/internal/microservices/http-api/models"
	"bukinn/internal/microservices/http-api/service"
)

// Data Transfer Objects for authentication requests and responses

// SignupRequest: payload for creating an account
type SignupRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required,phone"`
	Name        string `json:"name" binding:"required,min=2,max=50"`
	Role        string `json:"role" binding:"omitempty,oneof=user admin"`
}

// PhoneRequest: payload for send-otp and login
type PhoneRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required,phone"`
}

// VerifyOTPRequest: payload for verify-otp and verify-login-otp
type VerifyOTPRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
	OTP    string `json:"otp" binding:"required,otp"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type UpdateProfileRequest struct {
	Name              *string `json:"name" binding:"omitempty,min=2,max=50"`
	Email             *string `json:"email" binding:"omitempty,email,max=100"`
	PreferredLanguage *string `json:"preferredLanguage" binding:"omitempty,min=2,max=10"`
}

// OTPSentResponse is returned by every flow that sends a code.
type OTPSentResponse struct {
	UserID string `json:"userId"`
}

type UserSummary struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name"`
	Role        string `json:"role"`
}

// SessionResponse: response after a successful OTP check or refresh
type SessionResponse struct {
	User         UserSummary `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

func ToUserSummary(u *models.User) UserSummary {
	return UserSummary{ID: u.ID, PhoneNumber: u.PhoneNumber, Name: u.Name, Role: u.Role}
}

func NewSessionResponse(r *service.AuthResult) SessionResponse {
	return SessionResponse{
		User:         ToUserSummary(r.User),
		AccessToken:  r.Tokens.AccessToken,
		RefreshToken: r.Tokens.RefreshToken,
	}
}

func (r UpdateProfileRequest) ToInput() service.ProfileUpdate {
	return service.ProfileUpdate{Name: r.Name, Email: r.Email, PreferredLanguage: r.PreferredLanguage}
}
