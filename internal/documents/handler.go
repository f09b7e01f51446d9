package documents

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vault-backend/internal/shared/server/middleware"
	"vault-backend/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.PATCH("/documents/:id", h.update)
	rg.DELETE("/documents/:id", h.remove)
}

func (h *Handler) get(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	docID := c.Param("id")

	doc, err := h.Svc.Get(c.Request.Context(), ownerID, docID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load document", nil)
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(doc))
}

func (h *Handler) upload(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	ownerEmail := middleware.UserEmailFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	docType := c.PostForm("docType")
	if docType == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "docType is required", nil)
		return
	}
	hint := c.PostForm("hint")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Create(c.Request.Context(), ownerID, ownerEmail, docType, hint, fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusBadGateway, "integration_error", "failed to store document", err.Error())
		}
		return
	}

	c.Set("documentId", doc.ID)
	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)

	docs, err := h.Svc.List(c.Request.Context(), ownerID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	resp := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toResponse(doc))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) update(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	docID := c.Param("id")
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	var req UpdateRequest
	if hint, ok := c.GetPostForm("hint"); ok {
		req.Hint = &hint
	}

	if fileHeader, err := c.FormFile("file"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
			return
		}
		defer file.Close()
		req.FileName = fileHeader.Filename
		req.File = file
	}

	doc, err := h.Svc.Update(c.Request.Context(), ownerID, docID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusBadGateway, "integration_error", "failed to update document", err.Error())
		}
		return
	}

	c.Set("documentId", doc.ID)
	respond.JSON(c, http.StatusOK, toResponse(doc))
}

func (h *Handler) remove(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	docID := c.Param("id")

	revoked, err := h.Svc.Delete(c.Request.Context(), ownerID, docID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrGrantRevocation):
			// The document is gone; report the partial outcome instead of
			// pretending the whole operation failed.
			respond.JSON(c, http.StatusOK, gin.H{
				"deleted":       true,
				"grantsRevoked": revoked,
				"warning":       "outstanding share grants could not be revoked",
			})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete document", nil)
		}
		return
	}

	c.Set("documentId", docID)
	respond.JSON(c, http.StatusOK, gin.H{
		"deleted":       true,
		"grantsRevoked": revoked,
	})
}
