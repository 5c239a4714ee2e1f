// Admin console handlers: property registry, manager accounts, and the
// property-to-guidebook mapping.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
	"github.com/propdesk/go-guidebook-backend/internal/http/middleware"
	"github.com/propdesk/go-guidebook-backend/internal/services"
)

//
// DTOs
//

// PropertyRequest is the JSON payload for creating or updating a property.
type PropertyRequest struct {
	Address   string  `json:"address" binding:"required,min=1,max=512" example:"14 Harbour Lane, Brighton"`
	ManagerID *string `json:"manager_id" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// ManagerRequest is the JSON payload for registering a property manager.
// Registration also provisions a console login with role "manager".
type ManagerRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=255" example:"Alex Rivera"`
	Email    string `json:"email" binding:"required,email" example:"alex@propdesk.example"`
	Phone    string `json:"phone" example:"+44 20 7946 0958"`
	Password string `json:"password" binding:"required,min=8"`
}

// ManagerView is the API shape of a manager; the password hash never leaves
// the service layer.
type ManagerView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
	Active bool   `json:"active"`
}

// AssignGuidebookRequest selects the guidebook a property's chatbot serves.
type AssignGuidebookRequest struct {
	GuidebookID string `json:"guidebook_id" binding:"required" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// ListPropertiesResponse wraps the full property registry.
type ListPropertiesResponse struct {
	Properties []domain.Property `json:"properties"`
}

// ListManagersResponse wraps all registered managers.
type ListManagersResponse struct {
	Managers []ManagerView `json:"managers"`
}

// ListMappingsResponse wraps every property-to-guidebook mapping.
type ListMappingsResponse struct {
	Mappings []domain.PropertyMapping `json:"mappings"`
}

func managerView(m *domain.PropertyManager) ManagerView {
	return ManagerView{ID: m.ID, Name: m.Name, Email: m.Email, Phone: m.Phone, Active: m.Active}
}

//
// Properties
//

// CreateProperty godoc
// @ID          createProperty
// @Summary     Register a property
// @Tags        Properties
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.PropertyRequest  true  "Property payload"
//
// @Success     201  {object}  domain.Property
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Manager not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /properties [post]
func (h *Handlers) CreateProperty(c *gin.Context) {
	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "address required")
		return
	}

	p, err := h.propSvc.CreateProperty(c.Request.Context(), req.Address, req.ManagerID, middleware.StaffUsername(c))
	if err != nil {
		if err == services.ErrManagerNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "manager not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, p)
}

// ListProperties godoc
// @ID          listProperties
// @Summary     List properties
// @Tags        Properties
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.ListPropertiesResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /properties [get]
func (h *Handlers) ListProperties(c *gin.Context) {
	items, err := h.propSvc.ListProperties(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListPropertiesResponse{Properties: items})
}

// GetProperty godoc
// @ID          getProperty
// @Summary     Fetch a property
// @Tags        Properties
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Property ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Property
// @Failure     404  {object}  handlers.ErrorResponse  "Property not found"
// @Router      /properties/{id} [get]
func (h *Handlers) GetProperty(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "property id must be a UUID")
		return
	}
	p, err := h.propSvc.GetProperty(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "property not found")
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateProperty godoc
// @ID          updateProperty
// @Summary     Update a property
// @Tags        Properties
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string                    true  "Property ID (UUID)"  format(uuid)
// @Param       body  body  handlers.PropertyRequest  true  "Property payload"
//
// @Success     200  {object}  domain.Property
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Property or manager not found"
// @Router      /properties/{id} [put]
func (h *Handlers) UpdateProperty(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "property id must be a UUID")
		return
	}
	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "address required")
		return
	}

	p, err := h.propSvc.UpdateProperty(c.Request.Context(), id, req.Address, req.ManagerID, middleware.StaffUsername(c))
	if err != nil {
		switch err {
		case services.ErrPropertyNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "property not found")
		case services.ErrManagerNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "manager not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, p)
}

//
// Managers
//

// RegisterManager godoc
// @ID          registerManager
// @Summary     Register a property manager
// @Description Creates the manager record and a console login with role
// @Description "manager" in one transaction.
// @Tags        Managers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.ManagerRequest  true  "Manager payload"
//
// @Success     201  {object}  handlers.ManagerView
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Email already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /managers [post]
func (h *Handlers) RegisterManager(c *gin.Context) {
	var req ManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name, email and password (min 8 chars) required")
		return
	}

	m, err := h.propSvc.RegisterManager(c.Request.Context(), services.ManagerInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		switch err {
		case services.ErrDuplicateEmail:
			fail(c, http.StatusConflict, ErrCodeConflict, "email already registered")
		case services.ErrInvalidEmail:
			fail(c, http.StatusBadRequest, ErrCodeInvalidEmail, "email is not valid")
		case services.ErrInvalidPhone:
			fail(c, http.StatusBadRequest, ErrCodeInvalidPhone, "phone must contain 10 to 15 digits")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, managerView(m))
}

// ListManagers godoc
// @ID          listManagers
// @Summary     List property managers
// @Tags        Managers
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.ListManagersResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /managers [get]
func (h *Handlers) ListManagers(c *gin.Context) {
	items, err := h.propSvc.ListManagers(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	views := make([]ManagerView, 0, len(items))
	for i := range items {
		views = append(views, managerView(&items[i]))
	}
	ok(c, http.StatusOK, ListManagersResponse{Managers: views})
}

// GetManager godoc
// @ID          getManager
// @Summary     Fetch a property manager
// @Tags        Managers
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Manager ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.ManagerView
// @Failure     404  {object}  handlers.ErrorResponse  "Manager not found"
// @Router      /managers/{id} [get]
func (h *Handlers) GetManager(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "manager id must be a UUID")
		return
	}
	m, err := h.propSvc.GetManager(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "manager not found")
		return
	}
	ok(c, http.StatusOK, managerView(m))
}

//
// Mappings
//

// AssignGuidebook godoc
// @ID          assignGuidebook
// @Summary     Map a property to a guidebook
// @Description Sets the guidebook the property's chatbot serves. Replaces any
// @Description existing mapping atomically; a property has at most one.
// @Tags        Properties
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string                           true  "Property ID (UUID)"  format(uuid)
// @Param       body  body  handlers.AssignGuidebookRequest  true  "Guidebook selection"
//
// @Success     200  {object}  domain.PropertyMapping
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Property or guidebook not found"
// @Router      /properties/{id}/guidebook [put]
func (h *Handlers) AssignGuidebook(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "property id must be a UUID")
		return
	}
	var req AssignGuidebookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "guidebook_id required")
		return
	}

	m, err := h.propSvc.AssignGuidebook(c.Request.Context(), id, req.GuidebookID, middleware.StaffUsername(c))
	if err != nil {
		switch err {
		case services.ErrPropertyNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "property not found")
		case services.ErrGuidebookNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "guidebook not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, m)
}

// GetPropertyGuidebook godoc
// @ID          getPropertyGuidebook
// @Summary     Fetch a property's guidebook mapping
// @Tags        Properties
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Property ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.PropertyMapping
// @Failure     404  {object}  handlers.ErrorResponse  "Property has no guidebook mapped"
// @Router      /properties/{id}/guidebook [get]
func (h *Handlers) GetPropertyGuidebook(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "property id must be a UUID")
		return
	}
	m, err := h.propSvc.GetMapping(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no guidebook mapped to this property")
		return
	}
	ok(c, http.StatusOK, m)
}

// ListMappings godoc
// @ID          listMappings
// @Summary     List all property-to-guidebook mappings
// @Tags        Properties
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.ListMappingsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /mappings [get]
func (h *Handlers) ListMappings(c *gin.Context) {
	items, err := h.propSvc.ListMappings(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListMappingsResponse{Mappings: items})
}
