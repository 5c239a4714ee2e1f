// Package services – ConversationService
//
// This file implements ConversationService, the application-level component
// that owns the guest chatbot conversation loop. It validates visitor input,
// builds a bounded-context prompt from the guidebook body plus recent
// history, invokes the language model, classifies the reply, and persists the
// user/assistant message pair atomically. Unanswered property-related
// questions open an escalation and switch the session into the
// awaiting-contact state until the visitor supplies a phone or email or
// explicitly skips.
//
// Failure semantics: a model-call failure becomes an apologetic assistant
// message and the session survives; persistence failures on the analytics
// side (messages, escalations, counters) are logged and swallowed so they
// never interrupt the visitor-facing conversation.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include session/guidebook identifiers where applicable.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/propdesk/go-guidebook-backend/internal/assistant"
	"github.com/propdesk/go-guidebook-backend/internal/domain"
	"github.com/propdesk/go-guidebook-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Canned assistant-side messages appended by the controller itself.
const (
	msgModelFailure = "I'm sorry, I ran into a problem answering that. Please try again in a moment."

	msgAskContact = "Could you share a phone number or email address so the property manager can reach you? " +
		"You can also skip this if you prefer."

	msgAlreadyHaveContact = "No problem — we already have your contact details on file, " +
		"and the property manager will follow up with you."

	msgContactSaved = "Thank you! The property manager will reach out to you soon."

	msgSkipContact = "No problem! Feel free to ask me anything else about the property."
)

// EscalationNotifier receives best-effort alerts when an escalation gains
// contact details. Implementations must not block the conversation; errors
// are logged by the caller and otherwise ignored.
type EscalationNotifier interface {
	EscalationAlert(ctx context.Context, e *domain.Escalation, g *domain.Guidebook) error
}

// TurnResult is the outcome of one visitor turn.
type TurnResult struct {
	UserMessage      *domain.ChatMessage
	AssistantMessage *domain.ChatMessage
	SessionState     string
	AwaitingContact  bool
}

// ConversationService coordinates the per-session chat state machine.
type ConversationService struct {
	DB  *gorm.DB
	Gen assistant.Generator

	// Optional guards
	HistoryLimit   int
	MaxPromptRunes int

	// Optional best-effort alerting
	Notifier EscalationNotifier
}

// Start creates a fresh session for a guidebook. A visitor who ends a
// session and comes back gets a new ledger: zero counters, no contact on
// file.
func (s *ConversationService) Start(ctx context.Context, guidebookID, visitorID string) (*domain.ChatSession, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "Start",
		trace.WithAttributes(attribute.String("guidebook.id", guidebookID)),
	)
	defer span.End()

	if _, err := repo.GetGuidebook(ctx, s.DB, guidebookID); err != nil {
		return nil, ErrGuidebookNotFound
	}
	return repo.CreateSession(ctx, s.DB, guidebookID, visitorID)
}

// Send processes one visitor turn: validate, generate, classify, persist,
// and possibly enter the awaiting-contact state.
func (s *ConversationService) Send(ctx context.Context, visitorID, sessionID, text string) (*TurnResult, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
		),
	)
	defer span.End()

	// Normalize & validate prompt
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(text) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}

	sess, err := s.ownedSession(ctx, visitorID, sessionID)
	if err != nil {
		return nil, err
	}
	switch sess.State {
	case domain.SessionStateEnded:
		return nil, ErrSessionEnded
	case domain.SessionStateAwaitingContact:
		return nil, ErrAwaitingContact
	}

	gb, err := repo.GetGuidebook(ctx, s.DB, sess.GuidebookID)
	if err != nil {
		return nil, ErrGuidebookNotFound
	}

	history, err := repo.ListRecentSessionMessages(s.DB.WithContext(ctx), sess.ID, s.historyLimit())
	if err != nil {
		// Degrade to a history-free prompt rather than failing the turn.
		log.Warn().Err(err).Str("session_id", sess.ID).Msg("history load failed")
		history = nil
	}

	reply, genErr := s.Gen.Generate(ctx, assistant.BuildSystemPrompt(gb), assistant.HistoryFromMessages(history, s.historyLimit()), text)

	var (
		replyText string
		inTok     int64
		outTok    int64
		verdict   assistant.Classification
	)
	if genErr != nil {
		// Model failure is not a session failure: apologize in-band and move on.
		log.Error().Err(genErr).Str("session_id", sess.ID).Msg("model call failed")
		replyText = msgModelFailure
		verdict = assistant.Classification{Answered: true, Reason: assistant.ReasonAnswered}
	} else {
		replyText = reply.Text
		inTok = reply.InputTokens
		outTok = reply.OutputTokens
		verdict = assistant.Classify(replyText)
	}

	userMsg := &domain.ChatMessage{
		ID:          uuid.NewString(),
		SessionID:   sess.ID,
		GuidebookID: sess.GuidebookID,
		Role:        domain.RoleUser,
		Content:     text,
		InputTokens: inTok,
		WasAnswered: true,
	}
	asstMsg := &domain.ChatMessage{
		ID:           uuid.NewString(),
		SessionID:    sess.ID,
		GuidebookID:  sess.GuidebookID,
		Role:         domain.RoleAssistant,
		Content:      replyText,
		OutputTokens: outTok,
		WasAnswered:  verdict.Answered,
	}

	// Persist user + assistant + ledger bump in one transaction. A write
	// failure loses analytics for this turn, never the turn itself.
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.CreateChatMessage(tx, userMsg); err != nil {
			return err
		}
		if _, err := repo.CreateChatMessage(tx, asstMsg); err != nil {
			return err
		}
		return repo.BumpSessionCounters(tx, sess.ID, 2, inTok, outTok)
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("turn persistence failed")
	}

	res := &TurnResult{
		UserMessage:      userMsg,
		AssistantMessage: asstMsg,
		SessionState:     domain.SessionStateIdle,
	}
	if verdict.Answered {
		return res, nil
	}

	// Unanswered: record the escalation, swallowing write failures.
	esc := &domain.Escalation{
		SessionID:       sess.ID,
		GuidebookID:     sess.GuidebookID,
		Question:        text,
		AIResponse:      replyText,
		Reason:          verdict.Reason,
		PropertyRelated: verdict.PropertyRelated,
	}
	if err := repo.CreateEscalation(ctx, s.DB, esc); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("escalation persistence failed")
	}

	if !verdict.PropertyRelated {
		return res, nil
	}

	if sess.ContactOnFile {
		s.appendAssistantNote(ctx, sess, msgAlreadyHaveContact)
		return res, nil
	}

	// Property-related with no contact on file: collect it.
	if err := repo.UpdateSessionState(ctx, s.DB, sess.ID, domain.SessionStateAwaitingContact); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("state transition failed")
		return res, nil
	}
	s.appendAssistantNote(ctx, sess, msgAskContact)
	res.SessionState = domain.SessionStateAwaitingContact
	res.AwaitingContact = true
	return res, nil
}

// SubmitContact accepts the visitor's phone and/or email while the session is
// awaiting contact. Validation failures leave the state unchanged; success
// enriches the latest escalation (at most once), flips contact-on-file, and
// returns the session to idle.
func (s *ConversationService) SubmitContact(ctx context.Context, visitorID, sessionID, phone, email string) (*domain.ChatMessage, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "SubmitContact",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	sess, err := s.ownedSession(ctx, visitorID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.State == domain.SessionStateEnded {
		return nil, ErrSessionEnded
	}
	if sess.State != domain.SessionStateAwaitingContact {
		return nil, ErrNotAwaitingContact
	}

	normPhone, normEmail, err := ValidateContact(phone, email)
	if err != nil {
		return nil, err
	}

	esc, err := repo.LatestEscalationForSession(ctx, s.DB, sess.ID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("escalation lookup failed")
	} else if err := repo.AttachEscalationContact(ctx, s.DB, esc.ID, normPhone, normEmail); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("escalation contact write failed")
	} else {
		esc.Phone, esc.Email, esc.ContactProvided = normPhone, normEmail, true
		s.notify(ctx, sess, esc)
	}

	if err := repo.MarkContactOnFile(ctx, s.DB, sess.ID); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("contact flag write failed")
	}
	if err := repo.UpdateSessionState(ctx, s.DB, sess.ID, domain.SessionStateIdle); err != nil {
		return nil, err
	}
	return s.appendAssistantNote(ctx, sess, msgContactSaved), nil
}

// SkipContact declines the contact request and returns the session to idle
// without logging anything.
func (s *ConversationService) SkipContact(ctx context.Context, visitorID, sessionID string) (*domain.ChatMessage, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "SkipContact",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	sess, err := s.ownedSession(ctx, visitorID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.State == domain.SessionStateEnded {
		return nil, ErrSessionEnded
	}
	if sess.State != domain.SessionStateAwaitingContact {
		return nil, ErrNotAwaitingContact
	}

	if err := repo.UpdateSessionState(ctx, s.DB, sess.ID, domain.SessionStateIdle); err != nil {
		return nil, err
	}
	return s.appendAssistantNote(ctx, sess, msgSkipContact), nil
}

// End closes a session. The next interaction starts a fresh one via Start.
func (s *ConversationService) End(ctx context.Context, visitorID, sessionID string) error {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "End",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	if _, err := s.ownedSession(ctx, visitorID, sessionID); err != nil {
		return err
	}
	if err := repo.EndSession(ctx, s.DB, sessionID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrSessionEnded
		}
		return err
	}
	return nil
}

// ListPage returns paginated messages for a visitor's session.
func (s *ConversationService) ListPage(ctx context.Context, visitorID, sessionID string, page, pageSize int) ([]domain.ChatMessage, int64, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	if _, err := s.ownedSession(ctx, visitorID, sessionID); err != nil {
		return nil, 0, err
	}

	total, err := repo.CountSessionMessages(s.DB.WithContext(ctx), sessionID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ChatMessage{}, 0, nil
	}

	items, err := repo.ListSessionMessagesPage(s.DB.WithContext(ctx), sessionID, offset, pageSize)
	return items, total, err
}

// GetSession returns a visitor's session.
func (s *ConversationService) GetSession(ctx context.Context, visitorID, sessionID string) (*domain.ChatSession, error) {
	return s.ownedSession(ctx, visitorID, sessionID)
}

// ownedSession loads a session and checks it belongs to the calling visitor.
// An existing session owned by someone else is indistinguishable from a
// missing one.
func (s *ConversationService) ownedSession(ctx context.Context, visitorID, sessionID string) (*domain.ChatSession, error) {
	sess, err := repo.GetSession(ctx, s.DB, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if sess.VisitorID != visitorID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// appendAssistantNote persists a controller-generated assistant message.
// Failures are logged and swallowed; the note is returned regardless so the
// visitor still sees it.
func (s *ConversationService) appendAssistantNote(ctx context.Context, sess *domain.ChatSession, text string) *domain.ChatMessage {
	m := &domain.ChatMessage{
		ID:          uuid.NewString(),
		SessionID:   sess.ID,
		GuidebookID: sess.GuidebookID,
		Role:        domain.RoleAssistant,
		Content:     text,
		WasAnswered: true,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.CreateChatMessage(tx, m); err != nil {
			return err
		}
		return repo.BumpSessionCounters(tx, sess.ID, 1, 0, 0)
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("note persistence failed")
	}
	return m
}

// notify fires the best-effort escalation alert.
func (s *ConversationService) notify(ctx context.Context, sess *domain.ChatSession, esc *domain.Escalation) {
	if s.Notifier == nil {
		return
	}
	gb, err := repo.GetGuidebook(ctx, s.DB, sess.GuidebookID)
	if err != nil {
		gb = &domain.Guidebook{ID: sess.GuidebookID}
	}
	if err := s.Notifier.EscalationAlert(ctx, esc, gb); err != nil {
		log.Warn().Err(err).Str("escalation_id", esc.ID).Msg("escalation alert failed")
	}
}

func (s *ConversationService) historyLimit() int {
	if s.HistoryLimit > 0 {
		return s.HistoryLimit
	}
	return 10
}
