// Staff analytics handlers: session browser, transcripts, escalation queue,
// and the usage dashboard.
//
// These endpoints read the session ledger and escalation log directly through
// the repo layer; they are read-only and never mutate conversation state.
package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
	"github.com/propdesk/go-guidebook-backend/internal/repo"
)

//
// DTOs
//

// ListSessionsResponse wraps a page of chat sessions.
type ListSessionsResponse struct {
	Sessions   []domain.ChatSession `json:"sessions"`
	Pagination Pagination           `json:"pagination"`
}

// ListEscalationsResponse wraps a page of escalations.
type ListEscalationsResponse struct {
	Escalations []domain.Escalation `json:"escalations"`
	Pagination  Pagination          `json:"pagination"`
}

// StatsResponse is the analytics dashboard payload: console-wide totals plus
// a per-guidebook breakdown.
type StatsResponse struct {
	Totals     repo.OverallUsage     `json:"totals"`
	Guidebooks []repo.GuidebookUsage `json:"guidebooks"`
}

// parseBoolFlag reads a tri-state query flag: absent → nil, otherwise a
// parsed boolean (malformed values count as false).
func parseBoolFlag(c *gin.Context, name string) *bool {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	v, _ := strconv.ParseBool(raw)
	return &v
}

//
// Handlers
//

// ListSessions godoc
// @ID          listSessions
// @Summary     Browse chat sessions
// @Description Lists sessions across all guidebooks, most recent first. Supports
// @Description filtering by guidebook and by lifecycle state, and weak ETag
// @Description revalidation via If-None-Match.
// @Tags        Analytics
// @Produce     json
// @Security    BearerAuth
//
// @Param       guidebook_id  query  string  false "Filter by guidebook (UUID)"  format(uuid)
// @Param       active        query  bool    false "Only sessions still active"
// @Param       ended         query  bool    false "Only ended sessions"
// @Param       page          query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size     query  int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListSessionsResponse
// @Success     304  {string}  string "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /sessions [get]
func (h *Handlers) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()

	f := repo.SessionFilter{GuidebookID: strings.TrimSpace(c.Query("guidebook_id"))}
	if v := parseBoolFlag(c, "active"); v != nil && *v {
		f.ActiveOnly = true
	}
	if v := parseBoolFlag(c, "ended"); v != nil && *v {
		f.EndedOnly = true
	}

	db := h.convDB()
	if db == nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "storage unavailable")
		return
	}

	// ETag pre-check on (count, latest started_at) for the filter.
	count, maxTS, err := repo.SessionsStats(ctx, db, f)
	if err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.Unix()
		}
		etag := fmt.Sprintf(`W/"sessions:%s:%d:%d"`, f.GuidebookID, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	page, pageSize := clampPagination(c)
	items, err := repo.ListSessionsPage(ctx, db, f, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((count + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListSessionsResponse{
		Sessions: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      count,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// SessionTranscript godoc
// @ID          sessionTranscript
// @Summary     Read a session transcript
// @Description Returns the message log for any session, oldest first. Staff
// @Description variant of the visitor-facing transcript endpoint: no visitor
// @Description ownership check.
// @Tags        Analytics
// @Produce     json
// @Security    BearerAuth
//
// @Param       id         path   string  true  "Session ID (UUID)"  format(uuid)
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListTurnsResponse
// @Failure     404  {object}  handlers.ErrorResponse "Session not found"
// @Router      /sessions/{id}/messages [get]
func (h *Handlers) SessionTranscript(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")
	if _, err := uuid.Parse(sessionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	db := h.convDB()
	if db == nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "storage unavailable")
		return
	}

	if _, err := repo.GetSession(ctx, db, sessionID); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		return
	}

	page, pageSize := clampPagination(c)
	total, err := repo.CountSessionMessages(db.WithContext(ctx), sessionID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	items, err := repo.ListSessionMessagesPage(db.WithContext(ctx), sessionID, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
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

// ListEscalations godoc
// @ID          listEscalations
// @Summary     Browse the escalation queue
// @Description Lists unanswered questions, most recent first. Supports filtering
// @Description by guidebook, by whether the question was property-related, and
// @Description by whether the visitor left contact details.
// @Tags        Analytics
// @Produce     json
// @Security    BearerAuth
//
// @Param       guidebook_id      query  string  false "Filter by guidebook (UUID)"  format(uuid)
// @Param       property_related  query  bool    false "Only property-related (or only not)"
// @Param       contact_provided  query  bool    false "Only with contact details (or only without)"
// @Param       page              query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size         query  int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListEscalationsResponse
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /escalations [get]
func (h *Handlers) ListEscalations(c *gin.Context) {
	ctx := c.Request.Context()

	f := repo.EscalationFilter{
		GuidebookID:     strings.TrimSpace(c.Query("guidebook_id")),
		PropertyRelated: parseBoolFlag(c, "property_related"),
		ContactProvided: parseBoolFlag(c, "contact_provided"),
	}

	db := h.convDB()
	if db == nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "storage unavailable")
		return
	}

	total, err := repo.CountEscalations(ctx, db, f)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	page, pageSize := clampPagination(c)
	items, err := repo.ListEscalationsPage(ctx, db, f, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListEscalationsResponse{
		Escalations: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// Stats godoc
// @ID          stats
// @Summary     Usage dashboard
// @Description Returns console-wide totals and a per-guidebook breakdown of
// @Description sessions, messages, token usage, and escalations.
// @Tags        Analytics
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.StatsResponse
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /stats [get]
func (h *Handlers) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	db := h.convDB()
	if db == nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "storage unavailable")
		return
	}

	totals, err := repo.Totals(ctx, db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	perGB, err := repo.UsageByGuidebook(ctx, db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, StatsResponse{Totals: totals, Guidebooks: perGB})
}
