package repo

import (
	"context"
	"testing"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
)

func statsSchema() []any {
	return append(chatSchema(), &domain.Property{}, &domain.PropertyManager{})
}

func TestSessionsStats_EmptyAndPopulated(t *testing.T) {
	db := newRepoDB(t, statsSchema()...)
	ctx := context.Background()

	count, maxAt, err := SessionsStats(ctx, db, SessionFilter{})
	if err != nil || count != 0 || maxAt != nil {
		t.Fatalf("empty: count=%d maxAt=%v err=%v", count, maxAt, err)
	}

	g := seedSessionGuidebook(t, db)
	s1, _ := CreateSession(ctx, db, g.ID, "v1")
	s2, _ := CreateSession(ctx, db, g.ID, "v2")

	count, maxAt, err = SessionsStats(ctx, db, SessionFilter{})
	if err != nil || count != 2 || maxAt == nil {
		t.Fatalf("populated: count=%d maxAt=%v err=%v", count, maxAt, err)
	}
	// The freshness signal is the latest session start.
	latest := s1.StartedAt
	if s2.StartedAt.After(latest) {
		latest = s2.StartedAt
	}
	if !maxAt.Equal(latest) {
		t.Fatalf("maxAt = %v, want %v", maxAt, latest)
	}
}

func TestSessionMessagesStats(t *testing.T) {
	db := newRepoDB(t, statsSchema()...)
	ctx := context.Background()
	g := seedSessionGuidebook(t, db)
	s, _ := CreateSession(ctx, db, g.ID, "v1")

	count, maxAt, err := SessionMessagesStats(ctx, db, s.ID)
	if err != nil || count != 0 || maxAt != nil {
		t.Fatalf("empty: count=%d maxAt=%v err=%v", count, maxAt, err)
	}

	seedMessages(t, db, s.ID, g.ID, 3)
	count, maxAt, err = SessionMessagesStats(ctx, db, s.ID)
	if err != nil || count != 3 || maxAt == nil {
		t.Fatalf("populated: count=%d maxAt=%v err=%v", count, maxAt, err)
	}
}

func TestUsageByGuidebook_IncludesZeroTrafficRows(t *testing.T) {
	db := newRepoDB(t, statsSchema()...)
	ctx := context.Background()

	busy := seedSessionGuidebook(t, db)
	quiet := seedSessionGuidebook(t, db)

	s, _ := CreateSession(ctx, db, busy.ID, "v1")
	if err := BumpSessionCounters(db, s.ID, 4, 100, 50); err != nil {
		t.Fatalf("bump: %v", err)
	}
	seedEscalation(t, db, s.ID, busy.ID, true)

	rows, err := UsageByGuidebook(ctx, db)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	byID := map[string]GuidebookUsage{}
	for _, r := range rows {
		byID[r.GuidebookID] = r
	}
	b := byID[busy.ID]
	if b.Sessions != 1 || b.ActiveSessions != 1 || b.Messages != 4 || b.InputTokens != 100 || b.OutputTokens != 50 || b.Escalations != 1 {
		t.Fatalf("busy row = %+v", b)
	}
	q := byID[quiet.ID]
	if q.Sessions != 0 || q.Messages != 0 || q.Escalations != 0 {
		t.Fatalf("quiet row = %+v", q)
	}
}

func TestTotals(t *testing.T) {
	db := newRepoDB(t, statsSchema()...)
	ctx := context.Background()

	g := seedSessionGuidebook(t, db)
	s, _ := CreateSession(ctx, db, g.ID, "v1")
	_ = BumpSessionCounters(db, s.ID, 2, 10, 5)

	// One answered exchange and one unanswered assistant reply.
	seedMessages(t, db, s.ID, g.ID, 2)
	if _, err := CreateChatMessage(db, &domain.ChatMessage{
		SessionID:   s.ID,
		GuidebookID: g.ID,
		Role:        domain.RoleAssistant,
		Content:     "I'm sorry, this information is not available in the guide.",
		WasAnswered: false,
	}); err != nil {
		t.Fatalf("seed unanswered: %v", err)
	}
	seedEscalation(t, db, s.ID, g.ID, false)

	if err := db.Create(&domain.Property{ID: "p1", Address: "14 Harbour Lane"}).Error; err != nil {
		t.Fatalf("seed property: %v", err)
	}

	got, err := Totals(ctx, db)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	want := OverallUsage{
		Guidebooks:   1,
		Properties:   1,
		Sessions:     1,
		Messages:     3,
		InputTokens:  10,
		OutputTokens: 5,
		Escalations:  1,
		Unanswered:   1,
	}
	if got != want {
		t.Fatalf("totals = %+v, want %+v", got, want)
	}
}
