package identity

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vault-backend/internal/shared/server/middleware"
	"vault-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterPublicRoutes attaches the unauthenticated auth routes.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", h.register)
	rg.POST("/auth/login", h.login)
	rg.POST("/auth/otp/request", h.requestCode)
	rg.POST("/auth/otp/verify", h.verifyCode)
}

// RegisterRoutes attaches the authenticated profile routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.PATCH("/me", h.updateProfile)
	rg.POST("/me/phone/code", h.requestPhoneChangeCode)
	rg.POST("/me/phone", h.changePhone)
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", err.Error())
		return
	}

	user, token, err := h.Svc.Register(c.Request.Context(), RegisterRequest{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    req.Password,
		ChallengeID: req.ChallengeID,
		Code:        req.Code,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrAuth):
			respond.Error(c, http.StatusUnauthorized, "auth_error", "phone verification failed", nil)
		case errors.Is(err, ErrExists):
			respond.Error(c, http.StatusConflict, "validation_error", "account already exists", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to register", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, sessionResponse{Token: token, User: toResponse(user)})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", err.Error())
		return
	}

	user, token, err := h.Svc.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, ErrAuth) {
			respond.Error(c, http.StatusUnauthorized, "auth_error", "invalid credentials", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to log in", nil)
		return
	}

	respond.JSON(c, http.StatusOK, sessionResponse{Token: token, User: toResponse(user)})
}

func (h *Handler) requestCode(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", err.Error())
		return
	}
	purpose, err := ParsePurpose(req.Purpose)
	if err != nil || purpose == PurposePhoneChange {
		respond.Error(c, http.StatusBadRequest, "validation_error", "purpose must be register or login", nil)
		return
	}

	challengeID, err := h.Svc.RequestCode(c.Request.Context(), req.Phone, purpose, "")
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrAuth):
			respond.Error(c, http.StatusUnauthorized, "auth_error", "unknown phone number", nil)
		default:
			respond.Error(c, http.StatusBadGateway, "integration_error", "failed to send code", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"challengeId": challengeID})
}

func (h *Handler) verifyCode(c *gin.Context) {
	var req otpVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", err.Error())
		return
	}

	user, token, err := h.Svc.LoginWithCode(c.Request.Context(), req.ChallengeID, req.Code)
	if err != nil {
		if errors.Is(err, ErrAuth) {
			respond.Error(c, http.StatusUnauthorized, "auth_error", "code verification failed", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to verify code", nil)
		return
	}

	respond.JSON(c, http.StatusOK, sessionResponse{Token: token, User: toResponse(user)})
}

func (h *Handler) me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	user, err := h.Svc.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load profile", nil)
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(user))
}

func (h *Handler) updateProfile(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", err.Error())
		return
	}

	user, err := h.Svc.UpdateProfile(c.Request.Context(), userID, ProfileUpdate{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update profile", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(user))
}

func (h *Handler) requestPhoneChangeCode(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req phoneChangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", err.Error())
		return
	}

	challengeID, err := h.Svc.RequestCode(c.Request.Context(), req.Phone, PurposePhoneChange, userID)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusBadGateway, "integration_error", "failed to send code", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"challengeId": challengeID})
}

func (h *Handler) changePhone(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req changePhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", err.Error())
		return
	}

	user, err := h.Svc.ChangePhone(c.Request.Context(), userID, req.ChallengeID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrAuth):
			respond.Error(c, http.StatusUnauthorized, "auth_error", "phone verification failed", nil)
		case errors.Is(err, ErrExists):
			respond.Error(c, http.StatusConflict, "validation_error", "phone number already in use", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to change phone", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(user))
}
