package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(Guidebook{}).TableName():       "guidebooks",
		(Property{}).TableName():        "properties",
		(PropertyManager{}).TableName(): "property_managers",
		(StaffUser{}).TableName():       "staff_users",
		(PropertyMapping{}).TableName(): "property_mappings",
		(ChatSession{}).TableName():     "chat_sessions",
		(ChatMessage{}).TableName():     "chat_messages",
		(Escalation{}).TableName():      "escalations",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_Indexes_AndCascades(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(
		&Guidebook{}, &Property{}, &PropertyManager{}, &StaffUser{},
		&PropertyMapping{}, &ChatSession{}, &ChatMessage{}, &Escalation{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	// Tables exist
	for _, tbl := range []any{
		&Guidebook{}, &Property{}, &PropertyManager{}, &StaffUser{},
		&PropertyMapping{}, &ChatSession{}, &ChatMessage{}, &Escalation{},
	} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}

	// Indexes from tags exist
	if !m.HasIndex(&Guidebook{}, "ux_guidebook_slug") {
		t.Fatalf("expected unique index ux_guidebook_slug on guidebooks")
	}
	if !m.HasIndex(&PropertyManager{}, "ux_manager_email") {
		t.Fatalf("expected unique index ux_manager_email on property_managers")
	}
	if !m.HasIndex(&StaffUser{}, "ux_staff_username") {
		t.Fatalf("expected unique index ux_staff_username on staff_users")
	}
	if !m.HasIndex(&PropertyMapping{}, "ux_mapping_property") {
		t.Fatalf("expected unique index ux_mapping_property on property_mappings")
	}
	if !m.HasIndex(&ChatMessage{}, "idx_session_msgs") {
		t.Fatalf("expected index idx_session_msgs on chat_messages")
	}
	if !m.HasIndex(&Escalation{}, "idx_escalation_session") {
		t.Fatalf("expected index idx_escalation_session on escalations")
	}

	// Seed a guidebook, a session, two messages, and an escalation.
	now := time.Now().UTC()

	g := &Guidebook{ID: "g1", Title: "T", Body: "b", ChatSlug: "t", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("insert guidebook: %v", err)
	}

	s := &ChatSession{ID: "s1", GuidebookID: "g1", VisitorID: "v1", State: SessionStateIdle, Active: true, StartedAt: now}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("insert session: %v", err)
	}

	m1 := &ChatMessage{ID: "m1", SessionID: "s1", GuidebookID: "g1", Role: RoleUser, Content: "hello", WasAnswered: true, CreatedAt: now}
	m2 := &ChatMessage{ID: "m2", SessionID: "s1", GuidebookID: "g1", Role: RoleAssistant, Content: "world", WasAnswered: true, CreatedAt: now.Add(time.Second)}
	for _, msg := range []*ChatMessage{m1, m2} {
		if err := db.Create(msg).Error; err != nil {
			t.Fatalf("insert %s: %v", msg.ID, err)
		}
	}

	esc := &Escalation{ID: "e1", SessionID: "s1", GuidebookID: "g1", Question: "hello", PropertyRelated: true, CreatedAt: now, UpdatedAt: now}
	if err := db.Create(esc).Error; err != nil {
		t.Fatalf("insert escalation: %v", err)
	}

	// Role check constraint rejects anything but user/assistant.
	bad := &ChatMessage{ID: "m3", SessionID: "s1", GuidebookID: "g1", Role: "system", Content: "x", CreatedAt: now}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected check constraint violation for role=system")
	}

	// CASCADE: deleting the session should delete its messages and escalations.
	if err := db.Unscoped().Delete(&ChatSession{}, "id = ?", "s1").Error; err != nil {
		t.Fatalf("delete session: %v", err)
	}
	var cnt int64
	if err := db.Model(&ChatMessage{}).Where("session_id = ?", "s1").Count(&cnt).Error; err != nil {
		t.Fatalf("count messages after session delete: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected messages to cascade-delete with the session, got count=%d", cnt)
	}
	if err := db.Model(&Escalation{}).Where("session_id = ?", "s1").Count(&cnt).Error; err != nil {
		t.Fatalf("count escalations after session delete: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected escalations to cascade-delete with the session, got count=%d", cnt)
	}
}

func TestPropertyMapping_OnePerProperty(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Guidebook{}, &Property{}, &PropertyMapping{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	now := time.Now().UTC()

	g := &Guidebook{ID: "g1", Title: "T", Body: "b", ChatSlug: "t", CreatedAt: now, UpdatedAt: now}
	p := &Property{ID: "p1", Address: "14 Harbour Lane", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("insert guidebook: %v", err)
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("insert property: %v", err)
	}

	first := &PropertyMapping{ID: "map1", PropertyID: "p1", GuidebookID: "g1", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(first).Error; err != nil {
		t.Fatalf("insert mapping: %v", err)
	}
	dup := &PropertyMapping{ID: "map2", PropertyID: "p1", GuidebookID: "g1", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected UNIQUE violation for second mapping on the same property")
	}
}
