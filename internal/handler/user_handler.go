package handler

import (
	"net/http"
	"strings"

	"github.com/jhon-henao13/Fixly/internal/entitlement"
	"github.com/jhon-henao13/Fixly/internal/model"
	"github.com/jhon-henao13/Fixly/pkg/logger"
	"github.com/jhon-henao13/Fixly/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserHandler manages the members of a workshop
type UserHandler struct {
	db       *gorm.DB
	enforcer *entitlement.Enforcer
}

// NewUserHandler creates a UserHandler
func NewUserHandler(db *gorm.DB, enforcer *entitlement.Enforcer) *UserHandler {
	return &UserHandler{db: db, enforcer: enforcer}
}

// List returns the workshop's users
func (h *UserHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c, log)
	}

	var users []model.User
	if err := h.db.WithContext(c.Request().Context()).Where("workshop_id = ?", claims.WorkshopID).Order("id").Find(&users).Error; err != nil {
		log.Error("Failed to retrieve users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve users"})
	}
	return c.JSON(http.StatusOK, users)
}

// Add creates a user in the workshop, subject to the plan's user limit
func (h *UserHandler) Add(c echo.Context) error {
	log := logger.FromEcho(c)
	claims := currentUser(c)
	if claims == nil {
		return unauthorized(c, log)
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse user request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	ctx := c.Request().Context()
	if err := h.enforcer.CheckUserAdd(ctx, claims.WorkshopID); err != nil {
		return entitlementError(c, log, err)
	}

	var existing int64
	if err := h.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", req.Email).Count(&existing).Error; err != nil {
		log.Error("Failed to check existing user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user creation failed"})
	}
	if existing > 0 {
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user creation failed"})
	}

	user := model.User{
		WorkshopID: claims.WorkshopID,
		Email:      req.Email,
		Password:   string(hashedPassword),
	}
	if err := h.db.WithContext(ctx).Omit("Workshop").Create(&user).Error; err != nil {
		log.Error("Failed to create user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user creation failed"})
	}

	log.Info("User added to workshop",
		zap.Uint("user_id", user.ID),
		zap.Uint("workshop_id", user.WorkshopID),
		zap.Uint("added_by", claims.UserID))

	return c.JSON(http.StatusCreated, user)
}
