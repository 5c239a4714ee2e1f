// Staff authentication endpoint.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/propdesk/go-guidebook-backend/internal/services"
)

// LoginRequest carries staff credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"ops@propdesk.example"`
	Password string `json:"password" binding:"required" example:"correct horse battery staple"`
}

// LoginResponse returns the signed bearer token plus the staff identity the
// console displays.
type LoginResponse struct {
	Token     string  `json:"token"`
	Username  string  `json:"username"`
	Role      string  `json:"role"`
	ManagerID *string `json:"manager_id,omitempty"`
}

// Login godoc
// @ID          staffLogin
// @Summary     Staff login
// @Description Verifies staff credentials and issues a bearer token for the
// @Description admin console endpoints.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object}  handlers.LoginResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password required")
		return
	}

	token, staff, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if err == services.ErrInvalidCredentials {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid username or password")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, LoginResponse{
		Token:     token,
		Username:  staff.Username,
		Role:      staff.Role,
		ManagerID: staff.ManagerID,
	})
}
