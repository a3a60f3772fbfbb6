// File: handlers/users.go
package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	userRepo "guestara/database/repository/user"
	"guestara/models"
	"guestara/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserHandler exposes guest-account CRUD used by the companion app.
type UserHandler struct {
	Repo   userRepo.UserRepository
	Logger *zap.Logger
}

func NewUserHandler(repo userRepo.UserRepository, logger *zap.Logger) *UserHandler {
	return &UserHandler{Repo: repo, Logger: logger}
}

// Signup creates a new guest account.
func (h *UserHandler) Signup(c *gin.Context) {
	var input struct {
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Phone     string `json:"phone" binding:"required"`
		Title     string `json:"title"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	if existing, err := h.Repo.GetByEmail(input.Email); err == nil && existing != nil {
		utils.JSONError(c, http.StatusBadRequest, "User with this email already exists", "")
		return
	} else if err != nil && !errors.Is(err, userRepo.ErrUserNotFound) {
		h.Logger.Error("Failed to check existing user", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to create user account", "")
		return
	}

	user := &models.User{
		ID:        uuid.New().String(),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     utils.NormalizePhone(input.Phone),
		Title:     input.Title,
		IsActive:  true,
	}
	if err := h.Repo.Create(user); err != nil {
		h.Logger.Error("Failed to create user", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to create user account", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Account created successfully!",
		"user_id": user.ID,
		"email":   user.Email,
		"name":    fmt.Sprintf("%s %s", user.FirstName, user.LastName),
	})
}

// AddPaymentMethod stores a card on file in redacted form.
func (h *UserHandler) AddPaymentMethod(c *gin.Context) {
	var input struct {
		Email          string `json:"email" binding:"required,email"`
		CardNumber     string `json:"card_number" binding:"required"`
		CardExpiry     string `json:"card_expiry" binding:"required"`
		CardHolderName string `json:"card_holder_name" binding:"required"`
		CardVendor     string `json:"card_vendor"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Missing required payment information", err.Error())
		return
	}
	if input.CardVendor == "" {
		input.CardVendor = "VI"
	}

	user, err := h.Repo.GetByEmail(input.Email)
	if err != nil {
		if errors.Is(err, userRepo.ErrUserNotFound) {
			utils.JSONError(c, http.StatusNotFound, "User not found", "")
			return
		}
		h.Logger.Error("Failed to look up user", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to add payment method", "")
		return
	}

	digits := utils.NormalizePhone(input.CardNumber) // digits-only, same stripping as phone numbers
	lastFour := "XXXX"
	if len(digits) >= 4 {
		lastFour = digits[len(digits)-4:]
	}
	fingerprint := sha256.Sum256([]byte(digits))

	user.PaymentMethod = &models.PaymentMethod{
		CardVendor:      input.CardVendor,
		CardExpiry:      input.CardExpiry,
		CardHolderName:  input.CardHolderName,
		CardLastFour:    lastFour,
		CardFingerprint: hex.EncodeToString(fingerprint[:]),
	}
	user.HasPaymentMethod = true

	if err := h.Repo.Update(user); err != nil {
		h.Logger.Error("Failed to save payment method", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to add payment method", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Payment method added successfully",
		"card_last_four": lastFour,
	})
}

// GetUserByEmail fetches a guest profile.
func (h *UserHandler) GetUserByEmail(c *gin.Context) {
	email := c.Param("email")
	user, err := h.Repo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, userRepo.ErrUserNotFound) {
			utils.JSONError(c, http.StatusNotFound, "User not found", "")
			return
		}
		h.Logger.Error("Failed to look up user", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to fetch user", "")
		return
	}
	c.JSON(http.StatusOK, user)
}
