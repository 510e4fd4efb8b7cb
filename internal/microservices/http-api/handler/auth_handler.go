package handler

import (
	"net/http"

	"bukinn/internal/microservices/http-api/dto"
	"bukinn/internal/microservices/http-api/middleware"
	"bukinn/internal/microservices/http-api/response"
	"bukinn/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes mounts /auth. limit throttles the OTP and token
// endpoints; authenticate guards the session endpoints.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, authenticate, limit gin.HandlerFunc) {
	auth := rg.Group("/auth")
	auth.POST("/signup", limit, h.Signup)
	auth.POST("/send-otp", limit, h.SendOTP)
	auth.POST("/verify-otp", limit, h.VerifyOTP)
	auth.POST("/login", limit, h.Login)
	auth.POST("/verify-login-otp", limit, h.VerifyLoginOTP)
	auth.POST("/refresh-token", limit, h.RefreshToken)

	auth.POST("/logout", authenticate, h.Logout)
	auth.GET("/profile", authenticate, h.GetProfile)
	auth.PUT("/profile", authenticate, h.UpdateProfile)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	userID, err := h.authService.Signup(ctx, req.PhoneNumber, req.Name, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, "OTP sent to phone number", dto.OTPSentResponse{UserID: userID})
}

func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req dto.PhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	userID, err := h.authService.SendOTP(ctx, req.PhoneNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "OTP sent to phone number", dto.OTPSentResponse{UserID: userID})
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.authService.VerifyOTP(ctx, req.UserID, req.OTP)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "OTP verified successfully", dto.NewSessionResponse(result))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.PhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	userID, err := h.authService.Login(ctx, req.PhoneNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "OTP sent to phone number", dto.OTPSentResponse{UserID: userID})
}

func (h *AuthHandler) VerifyLoginOTP(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.authService.VerifyLoginOTP(ctx, req.UserID, req.OTP)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Login successful", dto.NewSessionResponse(result))
}

// RefreshToken always rotates both tokens; the presented one stops working.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.authService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Token refreshed successfully", dto.NewSessionResponse(result))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.authService.Logout(ctx, middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.authService.Profile(ctx, middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", gin.H{"user": user})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.authService.UpdateProfile(ctx, middleware.UserID(c), req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Profile updated successfully", gin.H{"user": user})
}
