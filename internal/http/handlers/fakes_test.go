package handlers

import (
	"context"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
	"github.com/propdesk/go-guidebook-backend/internal/services"
)

// Function-field fakes so each test overrides only what it needs. Unset
// fields panic loudly, which catches handlers calling the wrong method.

type fakeConvSvc struct {
	startFn         func(ctx context.Context, guidebookID, visitorID string) (*domain.ChatSession, error)
	sendFn          func(ctx context.Context, visitorID, sessionID, text string) (*services.TurnResult, error)
	submitContactFn func(ctx context.Context, visitorID, sessionID, phone, email string) (*domain.ChatMessage, error)
	skipContactFn   func(ctx context.Context, visitorID, sessionID string) (*domain.ChatMessage, error)
	endFn           func(ctx context.Context, visitorID, sessionID string) error
	listPageFn      func(ctx context.Context, visitorID, sessionID string, page, pageSize int) ([]domain.ChatMessage, int64, error)
	getSessionFn    func(ctx context.Context, visitorID, sessionID string) (*domain.ChatSession, error)
}

func (f *fakeConvSvc) Start(ctx context.Context, guidebookID, visitorID string) (*domain.ChatSession, error) {
	return f.startFn(ctx, guidebookID, visitorID)
}

func (f *fakeConvSvc) Send(ctx context.Context, visitorID, sessionID, text string) (*services.TurnResult, error) {
	return f.sendFn(ctx, visitorID, sessionID, text)
}

func (f *fakeConvSvc) SubmitContact(ctx context.Context, visitorID, sessionID, phone, email string) (*domain.ChatMessage, error) {
	return f.submitContactFn(ctx, visitorID, sessionID, phone, email)
}

func (f *fakeConvSvc) SkipContact(ctx context.Context, visitorID, sessionID string) (*domain.ChatMessage, error) {
	return f.skipContactFn(ctx, visitorID, sessionID)
}

func (f *fakeConvSvc) End(ctx context.Context, visitorID, sessionID string) error {
	return f.endFn(ctx, visitorID, sessionID)
}

func (f *fakeConvSvc) ListPage(ctx context.Context, visitorID, sessionID string, page, pageSize int) ([]domain.ChatMessage, int64, error) {
	return f.listPageFn(ctx, visitorID, sessionID, page, pageSize)
}

func (f *fakeConvSvc) GetSession(ctx context.Context, visitorID, sessionID string) (*domain.ChatSession, error) {
	return f.getSessionFn(ctx, visitorID, sessionID)
}

type fakeGBSvc struct {
	createFn   func(ctx context.Context, in services.GuidebookInput, staff string) (*domain.Guidebook, error)
	updateFn   func(ctx context.Context, id string, in services.GuidebookInput, staff string) (*domain.Guidebook, error)
	getFn      func(ctx context.Context, id string) (*domain.Guidebook, error)
	listPageFn func(ctx context.Context, page, pageSize int) ([]domain.Guidebook, int64, error)
	resolveFn  func(ctx context.Context, slug, id string) (*domain.Guidebook, error)
	qrCodeFn   func(ctx context.Context, id string) ([]byte, error)
}

func (f *fakeGBSvc) Create(ctx context.Context, in services.GuidebookInput, staff string) (*domain.Guidebook, error) {
	return f.createFn(ctx, in, staff)
}

func (f *fakeGBSvc) Update(ctx context.Context, id string, in services.GuidebookInput, staff string) (*domain.Guidebook, error) {
	return f.updateFn(ctx, id, in, staff)
}

func (f *fakeGBSvc) Get(ctx context.Context, id string) (*domain.Guidebook, error) {
	return f.getFn(ctx, id)
}

func (f *fakeGBSvc) ListPage(ctx context.Context, page, pageSize int) ([]domain.Guidebook, int64, error) {
	return f.listPageFn(ctx, page, pageSize)
}

func (f *fakeGBSvc) Resolve(ctx context.Context, slug, id string) (*domain.Guidebook, error) {
	return f.resolveFn(ctx, slug, id)
}

func (f *fakeGBSvc) QRCode(ctx context.Context, id string) ([]byte, error) {
	return f.qrCodeFn(ctx, id)
}

func (f *fakeGBSvc) ChatURL(slug string) string {
	return "https://stay.example.com/chat?guidebook=" + slug
}

type fakePropSvc struct {
	createPropertyFn  func(ctx context.Context, address string, managerID *string, staff string) (*domain.Property, error)
	getPropertyFn     func(ctx context.Context, id string) (*domain.Property, error)
	listPropertiesFn  func(ctx context.Context) ([]domain.Property, error)
	updatePropertyFn  func(ctx context.Context, id, address string, managerID *string, staff string) (*domain.Property, error)
	registerManagerFn func(ctx context.Context, in services.ManagerInput) (*domain.PropertyManager, error)
	getManagerFn      func(ctx context.Context, id string) (*domain.PropertyManager, error)
	listManagersFn    func(ctx context.Context) ([]domain.PropertyManager, error)
	assignGuidebookFn func(ctx context.Context, propertyID, guidebookID, staff string) (*domain.PropertyMapping, error)
	getMappingFn      func(ctx context.Context, propertyID string) (*domain.PropertyMapping, error)
	listMappingsFn    func(ctx context.Context) ([]domain.PropertyMapping, error)
}

func (f *fakePropSvc) CreateProperty(ctx context.Context, address string, managerID *string, staff string) (*domain.Property, error) {
	return f.createPropertyFn(ctx, address, managerID, staff)
}

func (f *fakePropSvc) GetProperty(ctx context.Context, id string) (*domain.Property, error) {
	return f.getPropertyFn(ctx, id)
}

func (f *fakePropSvc) ListProperties(ctx context.Context) ([]domain.Property, error) {
	return f.listPropertiesFn(ctx)
}

func (f *fakePropSvc) UpdateProperty(ctx context.Context, id, address string, managerID *string, staff string) (*domain.Property, error) {
	return f.updatePropertyFn(ctx, id, address, managerID, staff)
}

func (f *fakePropSvc) RegisterManager(ctx context.Context, in services.ManagerInput) (*domain.PropertyManager, error) {
	return f.registerManagerFn(ctx, in)
}

func (f *fakePropSvc) GetManager(ctx context.Context, id string) (*domain.PropertyManager, error) {
	return f.getManagerFn(ctx, id)
}

func (f *fakePropSvc) ListManagers(ctx context.Context) ([]domain.PropertyManager, error) {
	return f.listManagersFn(ctx)
}

func (f *fakePropSvc) AssignGuidebook(ctx context.Context, propertyID, guidebookID, staff string) (*domain.PropertyMapping, error) {
	return f.assignGuidebookFn(ctx, propertyID, guidebookID, staff)
}

func (f *fakePropSvc) GetMapping(ctx context.Context, propertyID string) (*domain.PropertyMapping, error) {
	return f.getMappingFn(ctx, propertyID)
}

func (f *fakePropSvc) ListMappings(ctx context.Context) ([]domain.PropertyMapping, error) {
	return f.listMappingsFn(ctx)
}

type fakeAuthSvc struct {
	loginFn func(ctx context.Context, username, password string) (string, *domain.StaffUser, error)
}

func (f *fakeAuthSvc) Login(ctx context.Context, username, password string) (string, *domain.StaffUser, error) {
	return f.loginFn(ctx, username, password)
}
