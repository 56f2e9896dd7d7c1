package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jhon-henao13/Fixly/internal/model"
	"github.com/jhon-henao13/Fixly/pkg/jwtutil"
	"github.com/jhon-henao13/Fixly/pkg/logger"
	"github.com/jhon-henao13/Fixly/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler registers workshops and signs users in
type AuthHandler struct {
	db  *gorm.DB
	jwt *jwtutil.JWTUtil
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(db *gorm.DB, jwt *jwtutil.JWTUtil) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt}
}

// Register creates a workshop and its owner account
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		WorkshopName string `json:"workshop_name"`
		Email        string `json:"email"`
		Password     string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.WorkshopName = strings.TrimSpace(req.WorkshopName)
	if req.WorkshopName == "" || req.Email == "" || req.Password == "" {
		log.Error("Invalid registration data",
			zap.String("email", req.Email),
			zap.Bool("password_provided", req.Password != ""))
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "workshop_name, email and password are required"})
	}

	defer prometheus.TrackDBOperation("register")(time.Now())

	var existing int64
	if err := h.db.Model(&model.User{}).Where("email = ?", req.Email).Count(&existing).Error; err != nil {
		log.Error("Failed to check existing user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}
	if existing > 0 {
		log.Warn("User already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	workshop := model.Workshop{Name: req.WorkshopName, Email: req.Email}
	user := model.User{Email: req.Email, Password: string(hashedPassword)}

	err = h.db.WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&workshop).Error; err != nil {
			return err
		}
		user.WorkshopID = workshop.ID
		return tx.Omit("Workshop").Create(&user).Error
	})
	if err != nil {
		log.Error("Failed to create workshop", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	token, err := h.jwt.GenerateToken(user.Email, user.ID, workshop.ID)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("Workshop registered",
		zap.Uint("workshop_id", workshop.ID),
		zap.Uint("user_id", user.ID),
		zap.String("email", user.Email))

	return c.JSON(http.StatusCreated, echo.Map{
		"token":    token,
		"workshop": workshop,
		"user":     user,
	})
}

// Login verifies credentials and returns a JWT scoped to the user's workshop
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("Failed to look up user", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
		}
		log.Warn("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := h.jwt.GenerateToken(user.Email, user.ID, user.WorkshopID)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("workshop_id", user.WorkshopID))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user":  user,
	})
}
