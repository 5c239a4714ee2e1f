// Guidebook HTTP handlers.
//
// This file exposes REST endpoints for guidebook authoring and the public
// QR image:
//   - POST /guidebooks              (create; staff)
//   - GET  /guidebooks              (list, paginated; staff)
//   - GET  /guidebooks/{id}         (fetch; staff)
//   - PUT  /guidebooks/{id}         (update; staff)
//   - GET  /guidebooks/{id}/qr      (QR PNG for the chat link; public)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propdesk/go-guidebook-backend/internal/http/middleware"
	"github.com/propdesk/go-guidebook-backend/internal/services"
)

//
// DTOs
//

// GuidebookRequest is the JSON payload for creating or updating a guidebook.
type GuidebookRequest struct {
	// Title names the guidebook; the chat slug is derived from it.
	Title string `json:"title" binding:"required,min=1,max=255" example:"Seaside Cottage"`
	// Body is the full guide text the chatbot answers from.
	Body string `json:"body" binding:"required,min=1" example:"Check-in is at 3pm. The wifi password is..."`
	// OriginalURL optionally points at the source document.
	OriginalURL string `json:"original_url" example:"https://docs.example.com/seaside-guide"`
	// Description optionally summarizes the guide for the console list view.
	Description string `json:"description" example:"Two-bedroom cottage by the pier"`
}

// ListGuidebooksResponse wraps a page of guidebooks and pagination metadata.
type ListGuidebooksResponse struct {
	Guidebooks []GuidebookView `json:"guidebooks"`
	Pagination Pagination      `json:"pagination"`
}

// GuidebookView is the staff-facing shape of a guidebook, including the chat
// URL derived from the slug.
type GuidebookView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body,omitempty"`
	OriginalURL string `json:"original_url,omitempty"`
	ChatSlug    string `json:"chat_slug"`
	ChatURL     string `json:"chat_url"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
	UpdatedBy   string `json:"updated_by,omitempty"`
}

//
// Handlers
//

// CreateGuidebook godoc
// @ID          createGuidebook
// @Summary     Create a guidebook
// @Description Authors a new guidebook. The chat slug and QR code are derived from the title.
// @Tags        Guidebooks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.GuidebookRequest  true  "Guidebook payload"
//
// @Success     201  {object}  handlers.GuidebookView
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /guidebooks [post]
func (h *Handlers) CreateGuidebook(c *gin.Context) {
	var req GuidebookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title and body required")
		return
	}

	g, err := h.gbSvc.Create(c.Request.Context(), services.GuidebookInput{
		Title:       req.Title,
		Body:        req.Body,
		OriginalURL: req.OriginalURL,
		Description: req.Description,
	}, middleware.StaffUsername(c))
	if err != nil {
		if err == services.ErrEmptyPrompt {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title and body required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, h.viewOf(g.ID, g.Title, g.Body, g.OriginalURL, g.ChatSlug, g.Description, g.CreatedBy, g.UpdatedBy))
}

// ListGuidebooks godoc
// @ID          listGuidebooks
// @Summary     List guidebooks (paginated)
// @Tags        Guidebooks
// @Produce     json
// @Security    BearerAuth
//
// @Param       page       query  int  false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListGuidebooksResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /guidebooks [get]
func (h *Handlers) ListGuidebooks(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.gbSvc.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	views := make([]GuidebookView, 0, len(items))
	for _, g := range items {
		// List view omits the body; it can be large.
		views = append(views, h.viewOf(g.ID, g.Title, "", g.OriginalURL, g.ChatSlug, g.Description, g.CreatedBy, g.UpdatedBy))
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListGuidebooksResponse{
		Guidebooks: views,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetGuidebook godoc
// @ID          getGuidebook
// @Summary     Fetch a guidebook
// @Tags        Guidebooks
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Guidebook ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.GuidebookView
// @Failure     404  {object}  handlers.ErrorResponse  "Guidebook not found"
// @Router      /guidebooks/{id} [get]
func (h *Handlers) GetGuidebook(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "guidebook id must be a UUID")
		return
	}
	g, err := h.gbSvc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "guidebook not found")
		return
	}
	ok(c, http.StatusOK, h.viewOf(g.ID, g.Title, g.Body, g.OriginalURL, g.ChatSlug, g.Description, g.CreatedBy, g.UpdatedBy))
}

// UpdateGuidebook godoc
// @ID          updateGuidebook
// @Summary     Update a guidebook
// @Description Rewrites the editable fields. A title change re-derives the slug and QR code.
// @Tags        Guidebooks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string                     true  "Guidebook ID (UUID)"  format(uuid)
// @Param       body  body  handlers.GuidebookRequest  true  "Guidebook payload"
//
// @Success     200  {object}  handlers.GuidebookView
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Guidebook not found"
// @Router      /guidebooks/{id} [put]
func (h *Handlers) UpdateGuidebook(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "guidebook id must be a UUID")
		return
	}

	var req GuidebookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title and body required")
		return
	}

	g, err := h.gbSvc.Update(c.Request.Context(), id, services.GuidebookInput{
		Title:       req.Title,
		Body:        req.Body,
		OriginalURL: req.OriginalURL,
		Description: req.Description,
	}, middleware.StaffUsername(c))
	if err != nil {
		switch err {
		case services.ErrGuidebookNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "guidebook not found")
		case services.ErrEmptyPrompt:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title and body required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, h.viewOf(g.ID, g.Title, g.Body, g.OriginalURL, g.ChatSlug, g.Description, g.CreatedBy, g.UpdatedBy))
}

// GuidebookQR godoc
// @ID          guidebookQR
// @Summary     Guidebook chat QR code
// @Description Returns the PNG QR code encoding the public chat URL. Public endpoint,
// @Description intended for printing and embedding.
// @Tags        Chatbot
// @Produce     png
//
// @Param       id  path  string  true  "Guidebook ID (UUID)"  format(uuid)
//
// @Success     200  {string}  binary  "PNG image"
// @Failure     404  {object}  handlers.ErrorResponse  "Guidebook not found"
// @Router      /guidebooks/{id}/qr [get]
func (h *Handlers) GuidebookQR(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "guidebook id must be a UUID")
		return
	}
	png, err := h.gbSvc.QRCode(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "guidebook not found")
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

// viewOf assembles the staff-facing guidebook shape.
func (h *Handlers) viewOf(id, title, body, originalURL, slug, description, createdBy, updatedBy string) GuidebookView {
	return GuidebookView{
		ID:          id,
		Title:       title,
		Body:        body,
		OriginalURL: originalURL,
		ChatSlug:    slug,
		ChatURL:     h.gbSvc.ChatURL(slug),
		Description: description,
		CreatedBy:   createdBy,
		UpdatedBy:   updatedBy,
	}
}
