package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/commerce-directory/internal/apperr"
	"github.com/suteetoe/commerce-directory/internal/model"
	"github.com/suteetoe/commerce-directory/pkg/logger"
	"github.com/suteetoe/commerce-directory/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type registerRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Name       string `json:"name" validate:"required"`
	Adresse    string `json:"adresse"`
	Telephone1 string `json:"telephone1"`
	Telephone2 string `json:"telephone2"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates a business owner account
func (h *Handler) Register(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RegisterCounter.Inc()

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, log, "invalid registration data", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	owner := model.BusinessOwner{
		Email:      req.Email,
		Password:   string(hashedPassword),
		Name:       req.Name,
		Adresse:    req.Adresse,
		Telephone1: req.Telephone1,
		Telephone2: req.Telephone2,
	}
	if err := h.store.CreateOwner(c.Request().Context(), &owner); err != nil {
		if apperr.IsValidation(err) {
			log.Warn("Business owner already exists", zap.String("email", req.Email))
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return respondError(c, log, "registration failed", err)
	}

	log.Info("Business owner registered", zap.Uint("id", owner.ID), zap.String("email", owner.Email))
	return c.JSON(http.StatusCreated, echo.Map{
		"message":        "Business owner registered successfully",
		"business_owner": owner,
	})
}

// Login exchanges credentials for a bearer token
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.Inc()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, log, "invalid login data", err)
	}

	owner, err := h.store.GetOwnerByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if apperr.IsNotFound(err) {
			log.Warn("Business owner not found", zap.String("email", req.Email))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return respondError(c, log, "login failed", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(owner.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := h.jwt.GenerateToken(owner.Email, owner.ID)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	log.Info("Business owner logged in", zap.Uint("id", owner.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"token":          token,
		"business_owner": owner,
	})
}
