// Package domain defines the persistence models for guidebooks, properties,
// chat sessions, messages, and escalations. These types are mapped with GORM
// and form the core data layer of the guidebook chatbot application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Session states used by the conversation controller. "Generating" is a
// transient in-request condition and is never persisted.
const (
	SessionStateIdle            = "idle"
	SessionStateAwaitingContact = "awaiting_contact"
	SessionStateEnded           = "ended"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Guidebook is a property's free-text information document exposed through
// the public chatbot. The chat slug is derived deterministically from the
// title on create and update; the QR code encodes the public chat URL.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Title: human-readable guidebook title.
//   - Body: the full guide text pasted into every chatbot prompt.
//   - OriginalURL: the source document the staff authored the guide from.
//   - ChatSlug: URL-safe identifier used in the public chatbot link; unique.
//   - QRCodePNG: PNG image of a QR code pointing at the chatbot URL.
//   - CreatedBy / UpdatedBy: staff usernames for the audit trail.
type Guidebook struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	Title       string         `json:"title"        gorm:"type:varchar(255);not null"`
	Body        string         `json:"body"         gorm:"type:text;not null"`
	OriginalURL string         `json:"original_url" gorm:"type:varchar(512)"`
	ChatSlug    string         `json:"chat_slug"    gorm:"type:varchar(255);not null;uniqueIndex:ux_guidebook_slug"`
	Description string         `json:"description"  gorm:"type:text"`
	QRCodePNG   []byte         `json:"-"            gorm:"type:blob"`
	CreatedBy   string         `json:"created_by"   gorm:"type:varchar(64)"`
	UpdatedBy   string         `json:"updated_by"   gorm:"type:varchar(64)"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for Guidebook.
func (Guidebook) TableName() string { return "guidebooks" }

// Property represents a managed rental property.
type Property struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Address   string         `json:"address"    gorm:"type:varchar(512);not null"`
	ManagerID *string        `json:"manager_id,omitempty" gorm:"type:char(36);index"`
	CreatedBy string         `json:"created_by" gorm:"type:varchar(64)"`
	UpdatedBy string         `json:"updated_by" gorm:"type:varchar(64)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Property.
func (Property) TableName() string { return "properties" }

// PropertyManager is a staff member responsible for one or more properties.
// Passwords are bcrypt hashes; the hash never leaves the service layer.
type PropertyManager struct {
	ID           string         `json:"id"      gorm:"type:char(36);primaryKey"`
	Name         string         `json:"name"    gorm:"type:varchar(255);not null"`
	Email        string         `json:"email"   gorm:"type:varchar(255);not null;uniqueIndex:ux_manager_email"`
	Phone        string         `json:"phone"   gorm:"type:varchar(32)"`
	PasswordHash string         `json:"-"       gorm:"type:varchar(255);not null"`
	// Same default:true hazard as ChatMessage.WasAnswered: keep the column
	// default-free so Active:false survives Create.
	Active       bool           `json:"active"  gorm:"not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"       gorm:"index"`
}

// TableName returns the database table name for PropertyManager.
func (PropertyManager) TableName() string { return "property_managers" }

// StaffUser is an admin console login. Role is either "admin" or "manager";
// manager logins carry the PropertyManager they belong to.
type StaffUser struct {
	ID           string         `json:"id"       gorm:"type:char(36);primaryKey"`
	Username     string         `json:"username" gorm:"type:varchar(64);not null;uniqueIndex:ux_staff_username"`
	PasswordHash string         `json:"-"        gorm:"type:varchar(255);not null"`
	Role         string         `json:"role"     gorm:"type:varchar(16);not null;check:role IN ('admin','manager')"`
	ManagerID    *string        `json:"manager_id,omitempty" gorm:"type:char(36)"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"        gorm:"index"`
}

// TableName returns the database table name for StaffUser.
func (StaffUser) TableName() string { return "staff_users" }

// PropertyMapping links a property to the guidebook served by its chatbot.
// A property has at most one mapping; replacing it runs as a single
// transaction (delete + insert) so readers never observe a property with two
// guidebooks.
type PropertyMapping struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	PropertyID  string    `json:"property_id"  gorm:"type:char(36);not null;uniqueIndex:ux_mapping_property"`
	GuidebookID string    `json:"guidebook_id" gorm:"type:char(36);not null;index"`
	CreatedBy   string    `json:"created_by"   gorm:"type:varchar(64)"`
	ModifiedBy  string    `json:"modified_by"  gorm:"type:varchar(64)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Property  Property  `json:"-" gorm:"foreignKey:PropertyID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Guidebook Guidebook `json:"-" gorm:"foreignKey:GuidebookID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for PropertyMapping.
func (PropertyMapping) TableName() string { return "property_mappings" }

// ChatSession is the per-visit ledger for one guidebook chat. Counters are
// monotonically non-decreasing while the session is active; EndedAt is set
// once, at most once. ContactOnFile flips to true the first time the visitor
// leaves a phone or email and stays true for the life of the session.
type ChatSession struct {
	ID            string     `json:"id"              gorm:"type:char(36);primaryKey"`
	GuidebookID   string     `json:"guidebook_id"    gorm:"type:char(36);not null;index:idx_session_guidebook"`
	VisitorID     string     `json:"visitor_id"      gorm:"type:varchar(64);not null;index"`
	State         string     `json:"state"           gorm:"type:varchar(24);not null;default:'idle';check:state IN ('idle','awaiting_contact','ended')"`
	MessageCount  int        `json:"message_count"   gorm:"not null;default:0"`
	InputTokens   int64      `json:"input_tokens"    gorm:"not null;default:0"`
	OutputTokens  int64      `json:"output_tokens"   gorm:"not null;default:0"`
	ContactOnFile bool       `json:"contact_on_file" gorm:"not null;default:false"`
	Active        bool       `json:"active"          gorm:"not null;index"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`

	Guidebook Guidebook `json:"-" gorm:"foreignKey:GuidebookID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ChatSession.
func (ChatSession) TableName() string { return "chat_sessions" }

// ChatMessage is one utterance in a session. Rows are immutable once written
// and ordered by (CreatedAt, ID). WasAnswered is meaningful only for
// assistant messages; user rows always carry true.
type ChatMessage struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	SessionID    string    `json:"session_id"    gorm:"type:char(36);not null;index:idx_session_msgs,priority:1"`
	GuidebookID  string    `json:"guidebook_id"  gorm:"type:char(36);not null;index"`
	Role         string    `json:"role"          gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content      string    `json:"content"       gorm:"type:text;not null"`
	InputTokens  int64     `json:"input_tokens"  gorm:"not null;default:0"`
	OutputTokens int64     `json:"output_tokens" gorm:"not null;default:0"`
	// No column default here: gorm drops zero-valued fields from INSERT when
	// a default is declared, which would flip persisted false to true.
	WasAnswered  bool      `json:"was_answered"  gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"    gorm:"index:idx_session_msgs,priority:2"`

	Session ChatSession `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string { return "chat_messages" }

// Escalation records a question the assistant could not answer. Rows for
// property-related questions may later be enriched (at most once) with the
// visitor's phone and/or email; ContactProvided is true iff at least one of
// Phone/Email is non-empty.
type Escalation struct {
	ID              string    `json:"id"               gorm:"type:char(36);primaryKey"`
	SessionID       string    `json:"session_id"       gorm:"type:char(36);not null;index:idx_escalation_session"`
	GuidebookID     string    `json:"guidebook_id"     gorm:"type:char(36);not null;index"`
	Question        string    `json:"question"         gorm:"type:text;not null"`
	AIResponse      string    `json:"ai_response"      gorm:"type:text"`
	Reason          string    `json:"reason"           gorm:"type:varchar(255)"`
	PropertyRelated bool      `json:"property_related" gorm:"not null;default:false"`
	Phone           string    `json:"phone"            gorm:"type:varchar(32)"`
	Email           string    `json:"email"            gorm:"type:varchar(255)"`
	ContactProvided bool      `json:"contact_provided" gorm:"not null;default:false"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Session ChatSession `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Escalation.
func (Escalation) TableName() string { return "escalations" }
