package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"eteeap-portfolio-api/config"
	"eteeap-portfolio-api/middleware"
	"eteeap-portfolio-api/models"
	"eteeap-portfolio-api/services"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Success   bool        `json:"success"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
	Message   string      `json:"message"`
}

// Login handles user authentication
func Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := services.NewUserService(nil).Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, expiresAt, err := generateToken(*user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: expiresAt,
		User:      *user,
		Message:   "Login successful",
	})
}

// Register creates an applicant account and logs it in.
func Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := services.NewUserService(nil).Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	token, expiresAt, err := generateToken(*user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, LoginResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: expiresAt,
		User:      *user,
		Message:   "Registration successful",
	})
}

// GetProfile returns current user profile
func GetProfile(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	user, err := services.NewUserService(nil).Get(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// ChangePassword handles password change
func ChangePassword(c *gin.Context) {
	type PasswordChangeRequest struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=8"`
	}

	var req PasswordChangeRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	if err := services.NewUserService(nil).ChangePassword(c.Request.Context(), actor.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed successfully"})
}

// generateToken creates JWT token
func generateToken(user models.User) (string, time.Time, error) {
	expireHours := config.Conf.JWTExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(expireHours) * time.Hour)

	claims := middleware.Claims{
		UserID: user.UserID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.UserID), 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.Conf.JWTSecret))
	return signed, expiresAt, err
}
