package handlers

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/db"
	"github.com/taskflow-dev/taskflow/internal/auth"
	"github.com/taskflow-dev/taskflow/internal/models"
	"github.com/taskflow-dev/taskflow/internal/services"
	"github.com/taskflow-dev/taskflow/internal/types"
	"github.com/taskflow-dev/taskflow/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const otpTTL = 10 * time.Minute

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    uint            `json:"id"`
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
}

func setAuthCookie(ctx *gin.Context, token string, maxAge int) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     types.AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   gin.Mode() == gin.ReleaseMode,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func validateCredentials(email, password string) map[string][]string {
	details := make(map[string][]string)

	if !strings.Contains(email, "@") {
		details["email"] = append(details["email"], "Invalid email address")
	}
	if len(password) < 6 {
		details["password"] = append(details["password"], "Password must be at least 6 characters long")
	} else if len(password) > 100 {
		details["password"] = append(details["password"], "Password too long")
	}

	if len(details) == 0 {
		return nil
	}
	return details
}

func Register(ctx *gin.Context) {
	var body RegisterRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if details := validateCredentials(body.Email, body.Password); details != nil {
		respondValidation(ctx, details)
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	var existing models.User

	err := db.DB.Where("email = ?", email).First(&existing).Error

	if err == nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondInternal(ctx, "register user", err)
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)

	if err != nil {
		respondInternal(ctx, "register user", err)
		return
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         models.RoleEditor,
	}

	if err := db.DB.Create(&user).Error; err != nil {
		respondInternal(ctx, "register user", err)
		return
	}

	token, err := auth.GenerateJWT(user)

	if err != nil {
		respondInternal(ctx, "register user", err)
		return
	}

	setAuthCookie(ctx, token, int(auth.TokenTTL.Seconds()))

	ctx.JSON(http.StatusCreated, UserResponse{ID: user.ID, Email: user.Email, Role: user.Role})
}

func Login(ctx *gin.Context) {
	var body LoginRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	var user models.User

	err := db.DB.Where("email = ?", email).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
			return
		}
		respondInternal(ctx, "log in", err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := auth.GenerateJWT(user)

	if err != nil {
		respondInternal(ctx, "log in", err)
		return
	}

	setAuthCookie(ctx, token, int(auth.TokenTTL.Seconds()))

	ctx.JSON(http.StatusOK, UserResponse{ID: user.ID, Email: user.Email, Role: user.Role})
}

func Logout(ctx *gin.Context) {
	setAuthCookie(ctx, "", -1)
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func Me(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	ctx.JSON(http.StatusOK, UserResponse{ID: user.ID, Email: user.Email, Role: user.Role})
}

// ForgotPassword answers identically whether or not the account exists, so
// the endpoint cannot be used to probe for registered emails.
func ForgotPassword(ctx *gin.Context) {
	var body ForgotPasswordRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	var user models.User

	err := db.DB.Where("email = ?", email).First(&user).Error

	if err == nil {
		otp, genErr := generateOTP()

		if genErr != nil {
			respondInternal(ctx, "process password reset", genErr)
			return
		}

		expires := time.Now().Add(otpTTL)
		updates := map[string]interface{}{
			"password_reset_otp":     hashOTP(otp),
			"password_reset_expires": expires,
		}

		if err := db.DB.Model(&user).Updates(updates).Error; err != nil {
			respondInternal(ctx, "process password reset", err)
			return
		}

		if err := services.DefaultMailer().SendPasswordResetOTP(user.Email, otp); err != nil {
			log.Printf("Failed to send password reset email to %s: %v", user.Email, err)
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondInternal(ctx, "process password reset", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "If account exists, OTP sent."})
}

func ResetPassword(ctx *gin.Context) {
	var body ResetPasswordRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if len(body.OTP) != 6 || len(body.Password) < 8 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	var user models.User

	err := db.DB.Where("email = ? AND password_reset_otp = ? AND password_reset_expires > ?",
		email, hashOTP(body.OTP), time.Now()).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired OTP"})
			return
		}
		respondInternal(ctx, "reset password", err)
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)

	if err != nil {
		respondInternal(ctx, "reset password", err)
		return
	}

	updates := map[string]interface{}{
		"password_hash":          string(passwordHash),
		"password_reset_otp":     "",
		"password_reset_expires": nil,
	}

	if err := db.DB.Model(&user).Updates(updates).Error; err != nil {
		respondInternal(ctx, "reset password", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func hashOTP(otp string) string {
	sum := sha256.Sum256([]byte(otp))
	return hex.EncodeToString(sum[:])
}
