package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"cuentas/internal/config"
	apperrors "cuentas/internal/errors"
	"cuentas/internal/logger"
	"cuentas/internal/mailer"
	"cuentas/internal/middleware"
	"cuentas/internal/services"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService services.UserServicer
	mail        mailer.Mailer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, mail mailer.Mailer) *AuthHandler {
	return &AuthHandler{userService: userService, mail: mail}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest represents the forgot-password request payload
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest represents the reset-password request payload
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// Register handles user registration
// @Summary     Register a new user
// @Description Register a new user with username, email, and password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} map[string]interface{} "User registered and token generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate a user and get a token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} map[string]interface{} "User authenticated and token generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.GetUserByEmail(req.Email)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidCredentials)
		return
	}

	if !h.userService.VerifyPassword(user, req.Password) {
		respondWithError(c, apperrors.ErrInvalidCredentials)
		return
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"username": user.Username,
	})
}

// DeleteMe removes the caller's account and everything attached to it.
// @Summary     Delete own account
// @Description Delete the caller's account together with all transactions and budgets
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]string "Account deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/me [delete]
func (h *AuthHandler) DeleteMe(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.userService.DeleteAccount(userID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

// ForgotPassword emails a password reset link. The response is identical
// whether or not the email is registered, to avoid account enumeration.
// @Summary     Request password reset
// @Description Send a password reset link to the given email if registered
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ForgotPasswordRequest true "Account email"
// @Success     200 {object} map[string]string "Reset email sent if account exists"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/forgotpassword [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	response := gin.H{"message": "If that email is registered, a reset link has been sent"}

	token, user, err := h.userService.CreateResetToken(req.Email)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok && appErr.Code == apperrors.ErrUserNotFound.Code {
			c.JSON(http.StatusOK, response)
			return
		}
		respondWithError(c, err)
		return
	}

	resetURL := fmt.Sprintf("%s/resetpassword/%s", config.Get().AppBaseURL, token)
	if err := h.mail.SendPasswordReset(user.Email, user.Username, resetURL); err != nil {
		logger.Get().Errorw("failed to send reset email", "email", user.Email, "error", err)
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, response)
}

// ResetPassword consumes a reset token and sets a new password.
// @Summary     Reset password
// @Description Set a new password using a reset token from email
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       resettoken path string true "Reset token"
// @Param       request body ResetPasswordRequest true "New password"
// @Success     200 {object} map[string]string "Password updated"
// @Failure     400 {object} ErrorResponse "Invalid or expired token"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/resetpassword/{resettoken} [put]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.userService.ResetPassword(c.Param("resettoken"), req.Password); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
