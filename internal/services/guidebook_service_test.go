package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
)

func newGBSvc(t *testing.T) *GuidebookService {
	t.Helper()
	return &GuidebookService{
		DB:            newServicesDB(t),
		PublicBaseURL: "https://stay.example.com",
		Cache:         NewResolutionCache(),
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Seaside Cottage", "seaside-cottage"},
		{"  Flat #12, 3rd Floor!  ", "flat-12-3rd-floor"},
		{"Café Müller — Straße", "cafe-muller-stra-e"}, // ß is not a combining mark; it separates like punctuation
		{"ALL CAPS", "all-caps"},
		{"---", ""},
		{"château d'Été", "chateau-d-ete"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCreate_DerivesSlugAndQR(t *testing.T) {
	svc := newGBSvc(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, GuidebookInput{Title: "Seaside Cottage", Body: "Check-in at 3pm."}, "ops@propdesk")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if g.ChatSlug != "seaside-cottage" {
		t.Fatalf("slug = %q", g.ChatSlug)
	}
	if g.CreatedBy != "ops@propdesk" || g.UpdatedBy != "ops@propdesk" {
		t.Fatalf("audit fields: %+v", g)
	}
	// PNG magic bytes
	if !bytes.HasPrefix(g.QRCodePNG, []byte("\x89PNG")) {
		t.Fatalf("QR code not rendered as PNG")
	}
}

func TestCreate_SlugCollisionGetsSuffix(t *testing.T) {
	svc := newGBSvc(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, GuidebookInput{Title: "Seaside Cottage", Body: "x"}, "s")
	if err != nil {
		t.Fatalf("Create a: %v", err)
	}
	b, err := svc.Create(ctx, GuidebookInput{Title: "Seaside Cottage", Body: "y"}, "s")
	if err != nil {
		t.Fatalf("Create b: %v", err)
	}
	if a.ChatSlug == b.ChatSlug {
		t.Fatalf("slugs must be unique, both %q", a.ChatSlug)
	}
	if !strings.HasPrefix(b.ChatSlug, "seaside-cottage-") {
		t.Fatalf("collision slug = %q", b.ChatSlug)
	}
}

func TestCreate_RejectsBlankTitleOrBody(t *testing.T) {
	svc := newGBSvc(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, GuidebookInput{Title: "  ", Body: "x"}, "s"); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("blank title err = %v", err)
	}
	if _, err := svc.Create(ctx, GuidebookInput{Title: "t", Body: "\n"}, "s"); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("blank body err = %v", err)
	}
}

func TestUpdate_TitleChangeReslugsAndInvalidatesCache(t *testing.T) {
	svc := newGBSvc(t)
	ctx := context.Background()

	g, _ := svc.Create(ctx, GuidebookInput{Title: "Old Name", Body: "x"}, "s")

	// Warm the cache under the old slug.
	if _, err := svc.Resolve(ctx, g.ChatSlug, ""); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	upd, err := svc.Update(ctx, g.ID, GuidebookInput{Title: "New Name", Body: "y"}, "editor")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if upd.ChatSlug != "new-name" {
		t.Fatalf("slug after rename = %q", upd.ChatSlug)
	}
	if upd.UpdatedBy != "editor" {
		t.Fatalf("UpdatedBy = %q", upd.UpdatedBy)
	}

	// The stale slug no longer resolves.
	if _, err := svc.Resolve(ctx, "old-name", ""); !errors.Is(err, ErrGuidebookNotFound) {
		t.Fatalf("stale slug err = %v", err)
	}
	got, err := svc.Resolve(ctx, "new-name", "")
	if err != nil || got.ID != g.ID {
		t.Fatalf("new slug resolve: %v", err)
	}
}

func TestUpdate_SameTitleKeepsSlug(t *testing.T) {
	svc := newGBSvc(t)
	ctx := context.Background()

	g, _ := svc.Create(ctx, GuidebookInput{Title: "Stable", Body: "x"}, "s")
	upd, err := svc.Update(ctx, g.ID, GuidebookInput{Title: "Stable", Body: "new body"}, "s")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if upd.ChatSlug != g.ChatSlug {
		t.Fatalf("slug changed without title change: %q -> %q", g.ChatSlug, upd.ChatSlug)
	}
	if upd.Body != "new body" {
		t.Fatalf("body not updated")
	}
}

func TestResolve_SlugTakesPrecedenceAndCaches(t *testing.T) {
	svc := newGBSvc(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, GuidebookInput{Title: "Alpha", Body: "x"}, "s")
	b, _ := svc.Create(ctx, GuidebookInput{Title: "Beta", Body: "y"}, "s")

	// Both parameters present: the slug wins.
	got, err := svc.Resolve(ctx, a.ChatSlug, b.ID)
	if err != nil || got.ID != a.ID {
		t.Fatalf("slug precedence broken: got %v err %v", got, err)
	}

	// ID-only lookups work too.
	got, err = svc.Resolve(ctx, "", b.ID)
	if err != nil || got.ID != b.ID {
		t.Fatalf("id resolve: %v", err)
	}

	// Second hit is served from cache even if the row is deleted underneath.
	svc.DB.Delete(&domain.Guidebook{}, "id = ?", a.ID)
	if got, err := svc.Resolve(ctx, a.ChatSlug, ""); err != nil || got.ID != a.ID {
		t.Fatalf("cache miss after delete: %v", err)
	}

	// Neither parameter: terminal miss.
	if _, err := svc.Resolve(ctx, "", ""); !errors.Is(err, ErrGuidebookNotFound) {
		t.Fatalf("empty resolve err = %v", err)
	}
}

func TestChatURL(t *testing.T) {
	svc := &GuidebookService{PublicBaseURL: "https://stay.example.com/"}
	if got := svc.ChatURL("seaside-cottage"); got != "https://stay.example.com/chat?guidebook=seaside-cottage" {
		t.Fatalf("ChatURL = %q", got)
	}
}

func TestQRCode_LazyRenderForLegacyRows(t *testing.T) {
	svc := newGBSvc(t)
	ctx := context.Background()

	g, _ := svc.Create(ctx, GuidebookInput{Title: "Legacy", Body: "x"}, "s")
	// Simulate a row written before QR support.
	svc.DB.Model(&domain.Guidebook{}).Where("id = ?", g.ID).Update("qr_code_png", nil)

	png, err := svc.QRCode(ctx, g.ID)
	if err != nil {
		t.Fatalf("QRCode: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("lazy render did not produce a PNG")
	}

	// Now stored for next time.
	var got domain.Guidebook
	svc.DB.First(&got, "id = ?", g.ID)
	if len(got.QRCodePNG) == 0 {
		t.Fatalf("lazy render not persisted")
	}
}

func TestListPage_NewestFirst(t *testing.T) {
	svc := newGBSvc(t)
	ctx := context.Background()

	svc.Create(ctx, GuidebookInput{Title: "One", Body: "x"}, "s")
	svc.Create(ctx, GuidebookInput{Title: "Two", Body: "x"}, "s")
	svc.Create(ctx, GuidebookInput{Title: "Three", Body: "x"}, "s")

	items, total, err := svc.ListPage(ctx, 1, 2)
	if err != nil || total != 3 || len(items) != 2 {
		t.Fatalf("page 1: total=%d len=%d err=%v", total, len(items), err)
	}
	if items[0].Title != "Three" {
		t.Fatalf("expected newest first, got %q", items[0].Title)
	}
}
