package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/propdesk/go-guidebook-backend/internal/assistant"
	"github.com/propdesk/go-guidebook-backend/internal/domain"
)

func newServicesDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("services_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := db.AutoMigrate(
		&domain.Guidebook{},
		&domain.Property{},
		&domain.PropertyManager{},
		&domain.StaffUser{},
		&domain.PropertyMapping{},
		&domain.ChatSession{},
		&domain.ChatMessage{},
		&domain.Escalation{},
		&domain.Idempotency{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// fakeGen is a scripted assistant.Generator.
type fakeGen struct {
	reply *assistant.Reply
	err   error

	calls      int
	lastSystem string
	lastUser   string
	lastHist   []assistant.Turn
}

func (f *fakeGen) Generate(_ context.Context, system string, history []assistant.Turn, userMsg string) (*assistant.Reply, error) {
	f.calls++
	f.lastSystem = system
	f.lastHist = history
	f.lastUser = userMsg
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

// fakeNotifier records escalation alerts.
type fakeNotifier struct {
	calls int
	last  *domain.Escalation
	err   error
}

func (f *fakeNotifier) EscalationAlert(_ context.Context, e *domain.Escalation, _ *domain.Guidebook) error {
	f.calls++
	f.last = e
	return f.err
}

func seedGuidebook(t *testing.T, db *gorm.DB) *domain.Guidebook {
	t.Helper()
	g := &domain.Guidebook{
		ID:       uuid.NewString(),
		Title:    "Seaside Cottage",
		Body:     "Check-in is at 3pm. The wifi password is seabreeze.",
		ChatSlug: "seaside-cottage-" + uuid.NewString()[:8],
	}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("seed guidebook: %v", err)
	}
	return g
}

func newConvSvc(db *gorm.DB, gen assistant.Generator) *ConversationService {
	return &ConversationService{DB: db, Gen: gen, HistoryLimit: 10, MaxPromptRunes: 2000}
}

func TestStart_UnknownGuidebook(t *testing.T) {
	svc := newConvSvc(newServicesDB(t), &fakeGen{})
	if _, err := svc.Start(context.Background(), uuid.NewString(), "v1"); !errors.Is(err, ErrGuidebookNotFound) {
		t.Fatalf("err = %v, want ErrGuidebookNotFound", err)
	}
}

func TestStart_FreshLedger(t *testing.T) {
	db := newServicesDB(t)
	g := seedGuidebook(t, db)
	svc := newConvSvc(db, &fakeGen{})

	sess, err := svc.Start(context.Background(), g.ID, "v1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sess.State != domain.SessionStateIdle || !sess.Active {
		t.Fatalf("fresh session not idle/active: %+v", sess)
	}
	if sess.MessageCount != 0 || sess.InputTokens != 0 || sess.OutputTokens != 0 || sess.ContactOnFile {
		t.Fatalf("fresh session ledger not empty: %+v", sess)
	}
}

func TestSend_Answered_PersistsPairAndCounters(t *testing.T) {
	db := newServicesDB(t)
	g := seedGuidebook(t, db)
	gen := &fakeGen{reply: &assistant.Reply{Text: "Check-in is at 3pm.", InputTokens: 42, OutputTokens: 7}}
	svc := newConvSvc(db, gen)
	ctx := context.Background()

	sess, _ := svc.Start(ctx, g.ID, "v1")
	res, err := svc.Send(ctx, "v1", sess.ID, "What time is check-in?")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.SessionState != domain.SessionStateIdle || res.AwaitingContact {
		t.Fatalf("answered turn should stay idle: %+v", res)
	}
	if res.AssistantMessage.Content != "Check-in is at 3pm." || !res.AssistantMessage.WasAnswered {
		t.Fatalf("assistant message wrong: %+v", res.AssistantMessage)
	}
	if !strings.Contains(gen.lastSystem, g.Body) {
		t.Fatalf("guide body not in system prompt")
	}

	var got domain.ChatSession
	if err := db.First(&got, "id = ?", sess.ID).Error; err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if got.MessageCount != 2 || got.InputTokens != 42 || got.OutputTokens != 7 {
		t.Fatalf("ledger not bumped: %+v", got)
	}

	var msgs int64
	db.Model(&domain.ChatMessage{}).Where("session_id = ?", sess.ID).Count(&msgs)
	if msgs != 2 {
		t.Fatalf("messages = %d, want 2", msgs)
	}
	var escs int64
	db.Model(&domain.Escalation{}).Count(&escs)
	if escs != 0 {
		t.Fatalf("answered turn must not escalate, got %d", escs)
	}
}

func TestSend_PropertyHandoff_EscalatesAndAwaitsContact(t *testing.T) {
	db := newServicesDB(t)
	g := seedGuidebook(t, db)
	gen := &fakeGen{reply: &assistant.Reply{Text: "I'll pass this to the property manager and they will follow up with you."}}
	svc := newConvSvc(db, gen)
	ctx := context.Background()

	sess, _ := svc.Start(ctx, g.ID, "v1")
	res, err := svc.Send(ctx, "v1", sess.ID, "Is there a gym nearby?")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.SessionState != domain.SessionStateAwaitingContact || !res.AwaitingContact {
		t.Fatalf("expected awaiting-contact, got %+v", res)
	}
	if res.AssistantMessage.WasAnswered {
		t.Fatalf("handoff reply should be recorded as unanswered")
	}

	var esc domain.Escalation
	if err := db.First(&esc, "session_id = ?", sess.ID).Error; err != nil {
		t.Fatalf("escalation missing: %v", err)
	}
	if !esc.PropertyRelated || esc.ContactProvided || esc.Question != "Is there a gym nearby?" {
		t.Fatalf("escalation wrong: %+v", esc)
	}

	var got domain.ChatSession
	db.First(&got, "id = ?", sess.ID)
	if got.State != domain.SessionStateAwaitingContact {
		t.Fatalf("session state = %q", got.State)
	}
	// user + assistant + ask-contact note
	if got.MessageCount != 3 {
		t.Fatalf("message count = %d, want 3", got.MessageCount)
	}

	// Further turns are blocked until the visitor answers or skips.
	if _, err := svc.Send(ctx, "v1", sess.ID, "hello?"); !errors.Is(err, ErrAwaitingContact) {
		t.Fatalf("err = %v, want ErrAwaitingContact", err)
	}
}

func TestSend_OffTopic_LogsOnlyStaysIdle(t *testing.T) {
	db := newServicesDB(t)
	g := seedGuidebook(t, db)
	gen := &fakeGen{reply: &assistant.Reply{Text: "That is outside the scope of this guidebook."}}
	svc := newConvSvc(db, gen)
	ctx := context.Background()

	sess, _ := svc.Start(ctx, g.ID, "v1")
	res, err := svc.Send(ctx, "v1", sess.ID, "Who won the world cup?")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.SessionState != domain.SessionStateIdle || res.AwaitingContact {
		t.Fatalf("off-topic should not collect contact: %+v", res)
	}

	var esc domain.Escalation
	if err := db.First(&esc, "session_id = ?", sess.ID).Error; err != nil {
		t.Fatalf("off-topic still logs an escalation: %v", err)
	}
	if esc.PropertyRelated {
		t.Fatalf("off-topic escalation must not be property-related")
	}

	var got domain.ChatSession
	db.First(&got, "id = ?", sess.ID)
	if got.MessageCount != 2 {
		t.Fatalf("no extra note expected, message count = %d", got.MessageCount)
	}
}

func TestSend_ModelFailure_ApologyKeepsSessionAlive(t *testing.T) {
	db := newServicesDB(t)
	g := seedGuidebook(t, db)
	gen := &fakeGen{err: errors.New("deadline exceeded")}
	svc := newConvSvc(db, gen)
	ctx := context.Background()

	sess, _ := svc.Start(ctx, g.ID, "v1")
	res, err := svc.Send(ctx, "v1", sess.ID, "What time is check-in?")
	if err != nil {
		t.Fatalf("model failure must not fail the turn: %v", err)
	}
	if res.AssistantMessage.Content != msgModelFailure || !res.AssistantMessage.WasAnswered {
		t.Fatalf("expected persisted apology, got %+v", res.AssistantMessage)
	}
	if res.SessionState != domain.SessionStateIdle {
		t.Fatalf("session should stay idle after apology")
	}
	var escs int64
	db.Model(&domain.Escalation{}).Count(&escs)
	if escs != 0 {
		t.Fatalf("apology must not escalate")
	}

	// Next turn works once the model recovers.
	gen.err = nil
	gen.reply = &assistant.Reply{Text: "Check-in is at 3pm."}
	if _, err := svc.Send(ctx, "v1", sess.ID, "Again: check-in?"); err != nil {
		t.Fatalf("recovered turn failed: %v", err)
	}
}

func TestSend_InputValidation(t *testing.T) {
	db := newServicesDB(t)
	g := seedGuidebook(t, db)
	svc := newConvSvc(db, &fakeGen{reply: &assistant.Reply{Text: "ok"}})
	svc.MaxPromptRunes = 10
	ctx := context.Background()

	sess, _ := svc.Start(ctx, g.ID, "v1")

	if _, err := svc.Send(ctx, "v1", sess.ID, "   "); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("err = %v, want ErrEmptyPrompt", err)
	}
	if _, err := svc.Send(ctx, "v1", sess.ID, strings.Repeat("x", 11)); !errors.Is(err, ErrTooLong) {
		t.Fatalf("err = %v, want ErrTooLong", err)
	}
}

func TestSend_OwnershipHidesForeignSessions(t *testing.T) {
	db := newServicesDB(t)
	g := seedGuidebook(t, db)
	svc := newConvSvc(db, &fakeGen{reply: &assistant.Reply{Text: "ok"}})
	ctx := context.Background()

	sess, _ := svc.Start(ctx, g.ID, "v1")
	if _, err := svc.Send(ctx, "someone-else", sess.ID, "hi"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSubmitContact_EnrichesEscalationOnceAndIdles(t *testing.T) {
	db := newServicesDB(t)
	g := seedGuidebook(t, db)
	gen := &fakeGen{reply: &assistant.Reply{Text: "I'll pass this to the property manager and they will follow up with you."}}
	svc := newConvSvc(db, gen)
	nf := &fakeNotifier{}
	svc.Notifier = nf
	ctx := context.Background()

	sess, _ := svc.Start(ctx, g.ID, "v1")
	if _, err := svc.Send(ctx, "v1", sess.ID, "Is there a gym nearby?"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// Invalid input leaves the state machine untouched.
	if _, err := svc.SubmitContact(ctx, "v1", sess.ID, "12345", ""); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("err = %v, want ErrInvalidPhone", err)
	}
	var mid domain.ChatSession
	db.First(&mid, "id = ?", sess.ID)
	if mid.State != domain.SessionStateAwaitingContact {
		t.Fatalf("failed validation must not change state, got %q", mid.State)
	}

	note, err := svc.SubmitContact(ctx, "v1", sess.ID, "123-456-7890", "guest@example.com")
	if err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if note.Content != msgContactSaved {
		t.Fatalf("note = %q", note.Content)
	}

	var esc domain.Escalation
	db.First(&esc, "session_id = ?", sess.ID)
	if !esc.ContactProvided || esc.Phone != "1234567890" || esc.Email != "guest@example.com" {
		t.Fatalf("escalation not enriched: %+v", esc)
	}
	if nf.calls != 1 || nf.last == nil || !nf.last.ContactProvided {
		t.Fatalf("notifier not fired: %+v", nf)
	}

	var got domain.ChatSession
	db.First(&got, "id = ?", sess.ID)
	if got.State != domain.SessionStateIdle || !got.ContactOnFile {
		t.Fatalf("post-contact session wrong: %+v", got)
	}

	// Not awaiting anymore: a second submission is rejected.
	if _, err := svc.SubmitContact(ctx, "v1", sess.ID, "123-456-7890", ""); !errors.Is(err, ErrNotAwaitingContact) {
		t.Fatalf("err = %v, want ErrNotAwaitingContact", err)
	}
}

func TestSend_ContactOnFile_SecondHandoffStaysIdle(t *testing.T) {
	db := newServicesDB(t)
	g := seedGuidebook(t, db)
	gen := &fakeGen{reply: &assistant.Reply{Text: "I'll pass this to the property manager and they will follow up with you."}}
	svc := newConvSvc(db, gen)
	ctx := context.Background()

	sess, _ := svc.Start(ctx, g.ID, "v1")
	if _, err := svc.Send(ctx, "v1", sess.ID, "Is there a gym nearby?"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := svc.SubmitContact(ctx, "v1", sess.ID, "123-456-7890", ""); err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}

	// Another unanswered property question: no second contact prompt.
	res, err := svc.Send(ctx, "v1", sess.ID, "Is there a sauna?")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.AwaitingContact || res.SessionState != domain.SessionStateIdle {
		t.Fatalf("contact already on file, should stay idle: %+v", res)
	}

	var escs int64
	db.Model(&domain.Escalation{}).Where("session_id = ?", sess.ID).Count(&escs)
	if escs != 2 {
		t.Fatalf("each unanswered question escalates, got %d", escs)
	}

	// The second escalation carries no contact; enrichment is per-row, one-shot.
	var last domain.Escalation
	db.Where("session_id = ?", sess.ID).Order("created_at DESC, id DESC").First(&last)
	if last.ContactProvided {
		t.Fatalf("new escalation must start without contact: %+v", last)
	}

	// The visitor sees the already-have-contact note.
	var lastMsg domain.ChatMessage
	db.Where("session_id = ?", sess.ID).Order("created_at DESC, id DESC").First(&lastMsg)
	if lastMsg.Content != msgAlreadyHaveContact {
		t.Fatalf("last message = %q", lastMsg.Content)
	}
}

func TestSkipContact_ReturnsToIdleWithoutContact(t *testing.T) {
	db := newServicesDB(t)
	g := seedGuidebook(t, db)
	gen := &fakeGen{reply: &assistant.Reply{Text: "I'll pass this to the property manager and they will follow up with you."}}
	svc := newConvSvc(db, gen)
	ctx := context.Background()

	sess, _ := svc.Start(ctx, g.ID, "v1")
	if _, err := svc.Send(ctx, "v1", sess.ID, "Is there a gym nearby?"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	note, err := svc.SkipContact(ctx, "v1", sess.ID)
	if err != nil {
		t.Fatalf("SkipContact: %v", err)
	}
	if note.Content != msgSkipContact {
		t.Fatalf("note = %q", note.Content)
	}

	var got domain.ChatSession
	db.First(&got, "id = ?", sess.ID)
	if got.State != domain.SessionStateIdle || got.ContactOnFile {
		t.Fatalf("skip must idle without contact: %+v", got)
	}

	var esc domain.Escalation
	db.First(&esc, "session_id = ?", sess.ID)
	if esc.ContactProvided {
		t.Fatalf("skipped escalation must stay unenriched")
	}

	// Skipping twice is a state error.
	if _, err := svc.SkipContact(ctx, "v1", sess.ID); !errors.Is(err, ErrNotAwaitingContact) {
		t.Fatalf("err = %v, want ErrNotAwaitingContact", err)
	}
}

func TestEnd_ClosesOnceThenConflicts(t *testing.T) {
	db := newServicesDB(t)
	g := seedGuidebook(t, db)
	svc := newConvSvc(db, &fakeGen{reply: &assistant.Reply{Text: "ok"}})
	ctx := context.Background()

	sess, _ := svc.Start(ctx, g.ID, "v1")
	if err := svc.End(ctx, "v1", sess.ID); err != nil {
		t.Fatalf("End: %v", err)
	}

	var got domain.ChatSession
	db.First(&got, "id = ?", sess.ID)
	if got.Active || got.State != domain.SessionStateEnded || got.EndedAt == nil {
		t.Fatalf("session not closed: %+v", got)
	}
	endedAt := *got.EndedAt

	if err := svc.End(ctx, "v1", sess.ID); !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("second End err = %v, want ErrSessionEnded", err)
	}
	db.First(&got, "id = ?", sess.ID)
	if got.EndedAt == nil || !got.EndedAt.Equal(endedAt) {
		t.Fatalf("EndedAt must be set at most once")
	}

	if _, err := svc.Send(ctx, "v1", sess.ID, "hi"); !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("Send after end err = %v, want ErrSessionEnded", err)
	}

	// A returning visitor gets a brand-new ledger.
	fresh, err := svc.Start(ctx, g.ID, "v1")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if fresh.ID == sess.ID || fresh.MessageCount != 0 || fresh.ContactOnFile {
		t.Fatalf("restart must be a fresh session: %+v", fresh)
	}
}

func TestListPage_PaginatesInOrder(t *testing.T) {
	db := newServicesDB(t)
	g := seedGuidebook(t, db)
	gen := &fakeGen{reply: &assistant.Reply{Text: "ok"}}
	svc := newConvSvc(db, gen)
	ctx := context.Background()

	sess, _ := svc.Start(ctx, g.ID, "v1")
	for i := 0; i < 3; i++ {
		if _, err := svc.Send(ctx, "v1", sess.ID, fmt.Sprintf("question %d", i)); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}

	items, total, err := svc.ListPage(ctx, "v1", sess.ID, 1, 4)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 6 || len(items) != 4 {
		t.Fatalf("total = %d len = %d, want 6/4", total, len(items))
	}
	if items[0].Role != domain.RoleUser || items[0].Content != "question 0" {
		t.Fatalf("transcript must be oldest-first: %+v", items[0])
	}

	items, _, err = svc.ListPage(ctx, "v1", sess.ID, 2, 4)
	if err != nil || len(items) != 2 {
		t.Fatalf("page 2: len = %d err = %v", len(items), err)
	}
}

func TestSend_HistoryRidesAlong(t *testing.T) {
	db := newServicesDB(t)
	g := seedGuidebook(t, db)
	gen := &fakeGen{reply: &assistant.Reply{Text: "ok"}}
	svc := newConvSvc(db, gen)
	svc.HistoryLimit = 4
	ctx := context.Background()

	sess, _ := svc.Start(ctx, g.ID, "v1")
	if _, err := svc.Send(ctx, "v1", sess.ID, "first"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(gen.lastHist) != 0 {
		t.Fatalf("first turn has no history, got %d", len(gen.lastHist))
	}
	if _, err := svc.Send(ctx, "v1", sess.ID, "second"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(gen.lastHist) != 2 {
		t.Fatalf("second turn history = %d, want 2", len(gen.lastHist))
	}
	if gen.lastHist[0].Content != "first" || gen.lastHist[1].Content != "ok" {
		t.Fatalf("history order wrong: %+v", gen.lastHist)
	}
	if gen.lastUser != "second" {
		t.Fatalf("user msg = %q", gen.lastUser)
	}
}
