package grants

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

// RegisterRoutes attaches owner-facing share routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/shares", h.create)
	rg.GET("/shares", h.list)
	rg.DELETE("/shares/:id", h.revoke)
}

// RegisterPublicRoutes attaches the recipient-facing routes. These run
// without authentication: the token is the sole credential.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/shared/:token", h.access)
	rg.GET("/shared/:token/download", h.download)
}

func (h *Handler) create(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)

	var req createGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", err.Error())
		return
	}

	grant, err := h.Svc.Create(c.Request.Context(), ownerID, CreateRequest{
		DocumentID:     req.DocumentID,
		RecipientEmail: req.RecipientEmail,
		Permission:     req.Permission,
		OneTime:        req.OneTime,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotificationFailed):
			// The grant exists; the caller gets it back with a flag so the
			// client can offer a manual copy of the link.
			resp := toResponse(grant, h.Svc.ShareLink(grant.Token))
			c.Set("grantId", grant.ID)
			respond.JSON(c, http.StatusCreated, gin.H{
				"grant":          resp,
				"emailDelivered": false,
			})
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create share", nil)
		}
		return
	}

	c.Set("grantId", grant.ID)
	respond.JSON(c, http.StatusCreated, gin.H{
		"grant":          toResponse(grant, h.Svc.ShareLink(grant.Token)),
		"emailDelivered": true,
	})
}

func (h *Handler) list(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)

	grants, err := h.Svc.List(c.Request.Context(), ownerID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list shares", nil)
		return
	}

	resp := make([]grantResponse, 0, len(grants))
	for _, grant := range grants {
		resp = append(resp, toResponse(grant, h.Svc.ShareLink(grant.Token)))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) revoke(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	grantID := c.Param("id")

	if err := h.Svc.Revoke(c.Request.Context(), ownerID, grantID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "share not found", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "not the share owner", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to revoke share", nil)
		}
		return
	}

	c.Set("grantId", grantID)
	respond.JSON(c, http.StatusOK, gin.H{"revoked": true})
}

func (h *Handler) access(c *gin.Context) {
	token := c.Param("token")

	access, err := h.Svc.Validate(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "share not found", nil)
		case errors.Is(err, ErrExpired):
			respond.Error(c, http.StatusGone, "expired", "share link has expired", nil)
		case errors.Is(err, ErrConsumed):
			respond.Error(c, http.StatusGone, "consumed", "share link has already been used", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to resolve share", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toAccessResponse(access))
}

func (h *Handler) download(c *gin.Context) {
	token := c.Param("token")

	url, err := h.Svc.Download(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "share not found", nil)
		case errors.Is(err, ErrExpired):
			respond.Error(c, http.StatusGone, "expired", "share link has expired", nil)
		case errors.Is(err, ErrConsumed):
			respond.Error(c, http.StatusGone, "consumed", "share link has already been used", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "share does not permit download", nil)
		default:
			respond.Error(c, http.StatusBadGateway, "integration_error", "failed to resolve download", nil)
		}
		return
	}

	c.Redirect(http.StatusFound, url)
}
