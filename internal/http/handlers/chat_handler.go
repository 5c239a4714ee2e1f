// Public chatbot HTTP handlers.
//
// This file exposes the anonymous, guest-facing chat endpoints:
//   - GET  /chatbot/resolve                      (slug/ID → guidebook)
//   - POST /chatbot/sessions                     (start a session)
//   - POST /chatbot/sessions/{id}/messages       (one conversation turn)
//   - GET  /chatbot/sessions/{id}/messages       (transcript, paginated)
//   - POST /chatbot/sessions/{id}/contact        (leave phone/email)
//   - POST /chatbot/sessions/{id}/contact/skip   (decline contact request)
//   - POST /chatbot/sessions/{id}/end            (close the session)
//
// Handlers are transport-thin: they validate and normalize inputs, delegate
// to application services, and translate results into HTTP responses
// (including conditional responses and idempotency semantics).
//
// Idempotency: if the client supplies an Idempotency-Key header and a
// previous successful turn exists for (visitor, session, key), the handler
// returns the recorded assistant message and sets Idempotency-Replayed: true.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
	"github.com/propdesk/go-guidebook-backend/internal/http/middleware"
	"github.com/propdesk/go-guidebook-backend/internal/repo"
	"github.com/propdesk/go-guidebook-backend/internal/services"
	"github.com/propdesk/go-guidebook-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ConversationService defines the per-session chat operations consumed by
// the HTTP handlers. Implementations must be safe for concurrent use and
// honor the provided context for cancellation and timeouts.
type ConversationService interface {
	// Start creates a fresh session for a guidebook.
	Start(ctx context.Context, guidebookID, visitorID string) (*domain.ChatSession, error)
	// Send processes one visitor turn and returns the assistant reply.
	Send(ctx context.Context, visitorID, sessionID, text string) (*services.TurnResult, error)
	// SubmitContact accepts phone and/or email while awaiting contact.
	SubmitContact(ctx context.Context, visitorID, sessionID, phone, email string) (*domain.ChatMessage, error)
	// SkipContact declines the contact request.
	SkipContact(ctx context.Context, visitorID, sessionID string) (*domain.ChatMessage, error)
	// End closes the session.
	End(ctx context.Context, visitorID, sessionID string) error
	// ListPage returns a page of messages within a session and the total count.
	ListPage(ctx context.Context, visitorID, sessionID string, page, pageSize int) ([]domain.ChatMessage, int64, error)
	// GetSession returns the visitor's session.
	GetSession(ctx context.Context, visitorID, sessionID string) (*domain.ChatSession, error)
}

// GuidebookService defines guidebook lifecycle and public resolution
// operations consumed by the HTTP handlers.
type GuidebookService interface {
	Create(ctx context.Context, in services.GuidebookInput, staff string) (*domain.Guidebook, error)
	Update(ctx context.Context, id string, in services.GuidebookInput, staff string) (*domain.Guidebook, error)
	Get(ctx context.Context, id string) (*domain.Guidebook, error)
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Guidebook, int64, error)
	Resolve(ctx context.Context, slug, id string) (*domain.Guidebook, error)
	QRCode(ctx context.Context, id string) ([]byte, error)
	ChatURL(slug string) string
}

// PropertyService defines property/manager/mapping operations consumed by
// the HTTP handlers.
type PropertyService interface {
	CreateProperty(ctx context.Context, address string, managerID *string, staff string) (*domain.Property, error)
	GetProperty(ctx context.Context, id string) (*domain.Property, error)
	ListProperties(ctx context.Context) ([]domain.Property, error)
	UpdateProperty(ctx context.Context, id, address string, managerID *string, staff string) (*domain.Property, error)
	RegisterManager(ctx context.Context, in services.ManagerInput) (*domain.PropertyManager, error)
	GetManager(ctx context.Context, id string) (*domain.PropertyManager, error)
	ListManagers(ctx context.Context) ([]domain.PropertyManager, error)
	AssignGuidebook(ctx context.Context, propertyID, guidebookID, staff string) (*domain.PropertyMapping, error)
	GetMapping(ctx context.Context, propertyID string) (*domain.PropertyMapping, error)
	ListMappings(ctx context.Context) ([]domain.PropertyMapping, error)
}

// AuthService defines staff credential verification.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *domain.StaffUser, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for the public chatbot and the staff
// console. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	convSvc ConversationService
	gbSvc   GuidebookService
	propSvc PropertyService
	authSvc AuthService

	// IdempotencyTTL bounds how long a stored Idempotency-Key response can be
	// replayed. Zero means the 24h default.
	IdempotencyTTL time.Duration
}

// New constructs a Handlers instance bound to the given services.
func New(convSvc ConversationService, gbSvc GuidebookService, propSvc PropertyService, authSvc AuthService) *Handlers {
	return &Handlers{convSvc: convSvc, gbSvc: gbSvc, propSvc: propSvc, authSvc: authSvc}
}

// visitorID extracts the anonymous visitor identity from the Gin context
// (set by upstream middleware). If absent, it falls back to the X-Visitor-ID
// header (tests use it), and finally to the client IP.
func visitorID(c *gin.Context) string {
	if v := middleware.VisitorID(c); v != "" {
		return v
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader(middleware.HeaderVisitorID)); h != "" {
			return h
		}
		return "ip:" + c.ClientIP()
	}
	return ""
}

//
// DTOs
//

// ResolveResponse is the public view of a guidebook returned by the resolve
// endpoint. The body stays server-side; only presentation fields leak out.
type ResolveResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ChatSlug    string `json:"chat_slug"`
	ChatURL     string `json:"chat_url"`
}

// StartSessionRequest is the JSON payload for starting a chat session.
type StartSessionRequest struct {
	// GuidebookID selects the guidebook the session talks about.
	GuidebookID string `json:"guidebook_id" binding:"required" format:"uuid"`
}

// PostTurnRequest is the JSON payload for one visitor message.
type PostTurnRequest struct {
	// Content is the visitor's question. It must be non-empty.
	Content string `json:"content" binding:"required,min=1" example:"What time is check-in?"`
}

// PostTurnResponse is the JSON envelope for one completed turn.
type PostTurnResponse struct {
	Message         *domain.ChatMessage `json:"message"`
	SessionState    string              `json:"session_state"`
	AwaitingContact bool                `json:"awaiting_contact"`
}

// ContactRequest is the JSON payload for the contact form.
type ContactRequest struct {
	Phone string `json:"phone" example:"+1 212-555-1212"`
	Email string `json:"email" example:"guest@example.com"`
}

// ContactResponse confirms a contact submission or skip.
type ContactResponse struct {
	Message      *domain.ChatMessage `json:"message"`
	SessionState string              `json:"session_state"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListTurnsResponse contains a page of session messages and pagination
// metadata.
type ListTurnsResponse struct {
	Messages   []domain.ChatMessage `json:"messages"`
	Pagination Pagination           `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes visitor text: CRLF/CR to LF, runs of 3+ LFs to
// exactly two, surrounding whitespace trimmed.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// discoverMaxPromptRunes inspects the concrete ConversationService for a
// configured prompt-length limit, with a conservative fallback.
func discoverMaxPromptRunes(svc ConversationService) int {
	const fallback = 4000
	if cs, ok := svc.(*services.ConversationService); ok {
		if cs.MaxPromptRunes > 0 {
			return cs.MaxPromptRunes
		}
	}
	return fallback
}

// convDB exposes the concrete service's DB handle for ETag and idempotency
// pre-checks. Returns nil when the handler was wired with a fake.
func (h *Handlers) convDB() *gorm.DB {
	if cs, ok := h.convSvc.(*services.ConversationService); ok {
		return cs.DB
	}
	return nil
}

//
// Handlers
//

// ResolveGuidebook godoc
// @ID          resolveGuidebook
// @Summary     Resolve a chatbot entry link
// @Description Maps a chat slug or raw guidebook ID to the guidebook served by the chatbot.
// @Tags        Chatbot
// @Produce     json
//
// @Param       guidebook  query  string  false "Chat slug from the QR link"  example(seaside-cottage)
// @Param       id         query  string  false "Raw guidebook ID (UUID)"     format(uuid)
//
// @Success     200  {object}  handlers.ResolveResponse
// @Failure     404  {object}  handlers.ErrorResponse  "No matching guidebook"
// @Router      /chatbot/resolve [get]
func (h *Handlers) ResolveGuidebook(c *gin.Context) {
	g, err := h.gbSvc.Resolve(c.Request.Context(), c.Query("guidebook"), c.Query("id"))
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "guidebook not found")
		return
	}
	ok(c, http.StatusOK, ResolveResponse{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		ChatSlug:    g.ChatSlug,
		ChatURL:     h.gbSvc.ChatURL(g.ChatSlug),
	})
}

// StartSession godoc
// @ID          startSession
// @Summary     Start a chat session
// @Description Creates a fresh session for a guidebook. Counters and contact state start empty.
// @Tags        Chatbot
// @Accept      json
// @Produce     json
//
// @Param       X-Visitor-ID  header  string  false "Stable anonymous visitor ID"  example(visitor-8c1f)
// @Param       body          body    handlers.StartSessionRequest  true  "Session payload"
//
// @Success     201  {object}  domain.ChatSession
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Guidebook not found"
// @Router      /chatbot/sessions [post]
func (h *Handlers) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "guidebook_id required")
		return
	}
	if _, err := uuid.Parse(req.GuidebookID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "guidebook_id must be a UUID")
		return
	}

	sess, err := h.convSvc.Start(c.Request.Context(), req.GuidebookID, visitorID(c))
	if err != nil {
		if err == services.ErrGuidebookNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "guidebook not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, sess)
}

// PostTurn godoc
// @ID          postTurn
// @Summary     Send a message and get the assistant reply
// @Description Appends a visitor message to the session and generates an assistant reply.
// @Description A reply the assistant could not ground in the guide may switch the session
// @Description into the awaiting-contact state (see session_state in the response).
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Chatbot
// @Accept      json
// @Produce     json
//
// @Param       X-Visitor-ID     header  string  false "Stable anonymous visitor ID"  example(visitor-8c1f)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
// @Param       id               path    string  true  "Session ID (UUID)"  format(uuid)
// @Param       body             body    handlers.PostTurnRequest  true  "Visitor message payload"
//
// @Success     200  {object}  handlers.PostTurnResponse  "Assistant reply"
// @Failure     400  {object}  handlers.ErrorResponse     "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse     "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse     "Session awaiting contact or ended"
// @Failure     500  {object}  handlers.ErrorResponse     "Internal error"
// @Router      /chatbot/sessions/{id}/messages [post]
func (h *Handlers) PostTurn(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")

	if _, err := uuid.Parse(sessionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	var req PostTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	// Sanitize + early size cap to fail fast at the edge.
	content := sanitizeContent(req.Content)
	maxRunes := discoverMaxPromptRunes(h.convSvc)
	if maxRunes > 0 && utf8.RuneCountInString(content) > maxRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("content too long: max %d runes", maxRunes))
		return
	}
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	visitor := visitorID(c)

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey == "" {
		idemKey = strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
	}
	if idemKey != "" {
		if db := h.convDB(); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, visitor, sessionID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetChatMessage(db, rec.MessageID); err2 == nil {
					sess, _ := h.convSvc.GetSession(ctx, visitor, sessionID)
					state := domain.SessionStateIdle
					if sess != nil {
						state = sess.State
					}
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, PostTurnResponse{
						Message:         prev,
						SessionState:    state,
						AwaitingContact: state == domain.SessionStateAwaitingContact,
					})
					return
				}
			}
		}
	}

	res, err := h.convSvc.Send(ctx, visitor, sessionID, content)
	if err != nil {
		switch err {
		case services.ErrSessionNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		case services.ErrGuidebookNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "guidebook not found")
		case services.ErrAwaitingContact:
			fail(c, http.StatusConflict, ErrCodeAwaitingContact, "session is awaiting contact details")
		case services.ErrSessionEnded:
			fail(c, http.StatusConflict, ErrCodeSessionEnded, "session has ended")
		case services.ErrTooLong:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("content too long: max %d runes", maxRunes))
		case services.ErrEmptyPrompt:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAnswerFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && res.AssistantMessage != nil {
		if db := h.convDB(); db != nil {
			ttl := h.IdempotencyTTL
			if ttl <= 0 {
				ttl = 24 * time.Hour
			}
			_, _ = repo.CreateIdempotency(ctx, db, visitor, sessionID, idemKey, res.AssistantMessage.ID, http.StatusOK, ttl)
		}
	}

	ok(c, http.StatusOK, PostTurnResponse{
		Message:         res.AssistantMessage,
		SessionState:    res.SessionState,
		AwaitingContact: res.AwaitingContact,
	})
}

// ListTurns godoc
// @ID          listTurns
// @Summary     List a session's messages
// @Description Returns a paginated transcript for the given session. Supports weak ETag via If-None-Match.
// @Tags        Chatbot
// @Produce     json
//
// @Param       X-Visitor-ID   header  string  false "Stable anonymous visitor ID"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       id             path    string  true  "Session ID (UUID)"  format(uuid)
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListTurnsResponse
// @Success     304  {string}  string "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Session not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /chatbot/sessions/{id}/messages [get]
func (h *Handlers) ListTurns(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")

	if _, err := uuid.Parse(sessionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	// ETag pre-check (best effort).
	if db := h.convDB(); db != nil {
		count, maxTS, err := repo.SessionMessagesStats(ctx, db, sessionID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"messages:%s:%d:%d"`, sessionID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	page, pageSize := clampPagination(c)

	items, total, err := h.convSvc.ListPage(ctx, visitorID(c), sessionID, page, pageSize)
	if err != nil {
		switch err {
		case services.ErrSessionNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListTurnsResponse{
		Messages: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// SubmitContact godoc
// @ID          submitContact
// @Summary     Leave contact details
// @Description Accepts the visitor's phone and/or email while the session is awaiting contact.
// @Description At least one of the two must be present and valid; otherwise a field-specific
// @Description error is returned and the session state is unchanged.
// @Tags        Chatbot
// @Accept      json
// @Produce     json
//
// @Param       X-Visitor-ID  header  string  false "Stable anonymous visitor ID"
// @Param       id            path    string  true  "Session ID (UUID)"  format(uuid)
// @Param       body          body    handlers.ContactRequest  true  "Contact payload"
//
// @Success     200  {object}  handlers.ContactResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid phone/email"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Session not awaiting contact"
// @Router      /chatbot/sessions/{id}/contact [post]
func (h *Handlers) SubmitContact(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := uuid.Parse(sessionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	m, err := h.convSvc.SubmitContact(c.Request.Context(), visitorID(c), sessionID, req.Phone, req.Email)
	if err != nil {
		switch err {
		case services.ErrSessionNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		case services.ErrSessionEnded:
			fail(c, http.StatusConflict, ErrCodeSessionEnded, "session has ended")
		case services.ErrNotAwaitingContact:
			fail(c, http.StatusConflict, ErrCodeConflict, "session is not awaiting contact")
		case services.ErrContactMissing:
			fail(c, http.StatusBadRequest, ErrCodeContactMissing, "phone or email required")
		case services.ErrInvalidPhone:
			fail(c, http.StatusBadRequest, ErrCodeInvalidPhone, "phone must be 10-15 digits")
		case services.ErrInvalidEmail:
			fail(c, http.StatusBadRequest, ErrCodeInvalidEmail, "email must look like local@domain.tld")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, ContactResponse{Message: m, SessionState: domain.SessionStateIdle})
}

// SkipContact godoc
// @ID          skipContact
// @Summary     Skip the contact request
// @Description Declines to leave contact details and returns the session to idle.
// @Tags        Chatbot
// @Produce     json
//
// @Param       X-Visitor-ID  header  string  false "Stable anonymous visitor ID"
// @Param       id            path    string  true  "Session ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.ContactResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Session not awaiting contact"
// @Router      /chatbot/sessions/{id}/contact/skip [post]
func (h *Handlers) SkipContact(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := uuid.Parse(sessionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	m, err := h.convSvc.SkipContact(c.Request.Context(), visitorID(c), sessionID)
	if err != nil {
		switch err {
		case services.ErrSessionNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		case services.ErrSessionEnded:
			fail(c, http.StatusConflict, ErrCodeSessionEnded, "session has ended")
		case services.ErrNotAwaitingContact:
			fail(c, http.StatusConflict, ErrCodeConflict, "session is not awaiting contact")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, ContactResponse{Message: m, SessionState: domain.SessionStateIdle})
}

// EndSession godoc
// @ID          endSession
// @Summary     End a chat session
// @Description Closes the session. The next interaction starts a fresh session with empty counters.
// @Tags        Chatbot
//
// @Param       X-Visitor-ID  header  string  false "Stable anonymous visitor ID"
// @Param       id            path    string  true  "Session ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Session already ended"
// @Router      /chatbot/sessions/{id}/end [post]
func (h *Handlers) EndSession(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := uuid.Parse(sessionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	if err := h.convSvc.End(c.Request.Context(), visitorID(c), sessionID); err != nil {
		switch err {
		case services.ErrSessionNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		case services.ErrSessionEnded:
			fail(c, http.StatusConflict, ErrCodeSessionEnded, "session has already ended")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
