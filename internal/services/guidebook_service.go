// Package services – GuidebookService
//
// This file implements GuidebookService, which owns the guidebook lifecycle:
// authoring CRUD, deterministic chat-slug derivation from the title, QR code
// generation for the public chat URL, and the public resolution path used by
// the chatbot (lookup by slug or raw ID, cached).
package services

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
	"github.com/propdesk/go-guidebook-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// GuidebookInput carries the staff-editable fields of a guidebook.
type GuidebookInput struct {
	Title       string
	Body        string
	OriginalURL string
	Description string
}

// GuidebookService coordinates guidebook persistence, slugs, and QR codes.
type GuidebookService struct {
	DB *gorm.DB

	// PublicBaseURL is the origin encoded into QR codes,
	// e.g. "https://stay.example.com".
	PublicBaseURL string

	// Cache holds public slug/ID resolutions. Optional; nil disables caching.
	Cache *cache.Cache
}

// NewResolutionCache returns the cache used for public guidebook lookups.
func NewResolutionCache() *cache.Cache {
	return cache.New(1*time.Hour, 10*time.Minute)
}

// Create authors a new guidebook: derives a unique chat slug from the title
// and renders the QR code for the public chat URL.
func (s *GuidebookService) Create(ctx context.Context, in GuidebookInput, staff string) (*domain.Guidebook, error) {
	tr := otel.Tracer("services/GuidebookService")
	ctx, span := tr.Start(ctx, "Create")
	defer span.End()

	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	if in.Title == "" || in.Body == "" {
		return nil, ErrEmptyPrompt
	}

	g := &domain.Guidebook{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Body:        in.Body,
		OriginalURL: strings.TrimSpace(in.OriginalURL),
		Description: strings.TrimSpace(in.Description),
		CreatedBy:   staff,
		UpdatedBy:   staff,
	}

	slug, err := s.uniqueSlug(ctx, in.Title, g.ID)
	if err != nil {
		return nil, err
	}
	g.ChatSlug = slug

	if png, err := s.renderQR(slug); err == nil {
		g.QRCodePNG = png
	}

	if err := repo.CreateGuidebook(ctx, s.DB, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Update rewrites a guidebook's editable fields. A title change re-derives
// the slug and re-renders the QR code, invalidating cached resolutions.
func (s *GuidebookService) Update(ctx context.Context, id string, in GuidebookInput, staff string) (*domain.Guidebook, error) {
	tr := otel.Tracer("services/GuidebookService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(attribute.String("guidebook.id", id)),
	)
	defer span.End()

	g, err := repo.GetGuidebook(ctx, s.DB, id)
	if err != nil {
		return nil, ErrGuidebookNotFound
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	if in.Title == "" || in.Body == "" {
		return nil, ErrEmptyPrompt
	}

	oldSlug := g.ChatSlug
	if in.Title != g.Title {
		slug, err := s.uniqueSlug(ctx, in.Title, g.ID)
		if err != nil {
			return nil, err
		}
		g.ChatSlug = slug
		if png, err := s.renderQR(slug); err == nil {
			g.QRCodePNG = png
		}
	}

	g.Title = in.Title
	g.Body = in.Body
	g.OriginalURL = strings.TrimSpace(in.OriginalURL)
	g.Description = strings.TrimSpace(in.Description)
	g.UpdatedBy = staff

	if err := repo.UpdateGuidebook(ctx, s.DB, g); err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrGuidebookNotFound
		}
		return nil, err
	}

	if s.Cache != nil {
		s.Cache.Delete("slug:" + oldSlug)
		s.Cache.Delete("id:" + g.ID)
	}
	return g, nil
}

// Get fetches a guidebook by ID.
func (s *GuidebookService) Get(ctx context.Context, id string) (*domain.Guidebook, error) {
	g, err := repo.GetGuidebook(ctx, s.DB, id)
	if err != nil {
		return nil, ErrGuidebookNotFound
	}
	return g, nil
}

// ListPage returns paginated guidebooks, newest first.
func (s *GuidebookService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Guidebook, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := repo.CountGuidebooks(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Guidebook{}, 0, nil
	}
	items, err := repo.ListGuidebooksPage(ctx, s.DB, (page-1)*pageSize, pageSize)
	return items, total, err
}

// Resolve maps the public chat entry parameters to exactly one guidebook:
// either a chat slug or a raw ID, slug taking precedence. A miss is terminal
// for that page load. Hits are cached for an hour.
func (s *GuidebookService) Resolve(ctx context.Context, slug, id string) (*domain.Guidebook, error) {
	tr := otel.Tracer("services/GuidebookService")
	ctx, span := tr.Start(ctx, "Resolve")
	defer span.End()

	slug = strings.TrimSpace(slug)
	id = strings.TrimSpace(id)

	var key string
	switch {
	case slug != "":
		key = "slug:" + slug
	case id != "":
		key = "id:" + id
	default:
		return nil, ErrGuidebookNotFound
	}

	if s.Cache != nil {
		if v, ok := s.Cache.Get(key); ok {
			return v.(*domain.Guidebook), nil
		}
	}

	var (
		g   *domain.Guidebook
		err error
	)
	if slug != "" {
		g, err = repo.GetGuidebookBySlug(ctx, s.DB, slug)
	} else {
		g, err = repo.GetGuidebook(ctx, s.DB, id)
	}
	if err != nil {
		return nil, ErrGuidebookNotFound
	}

	if s.Cache != nil {
		s.Cache.SetDefault(key, g)
	}
	return g, nil
}

// ChatURL returns the public chat entry URL for a slug.
func (s *GuidebookService) ChatURL(slug string) string {
	return strings.TrimRight(s.PublicBaseURL, "/") + "/chat?guidebook=" + slug
}

// QRCode returns the stored QR PNG for a guidebook, rendering and storing it
// lazily when a row predates QR support.
func (s *GuidebookService) QRCode(ctx context.Context, id string) ([]byte, error) {
	g, err := repo.GetGuidebook(ctx, s.DB, id)
	if err != nil {
		return nil, ErrGuidebookNotFound
	}
	if len(g.QRCodePNG) > 0 {
		return g.QRCodePNG, nil
	}
	png, err := s.renderQR(g.ChatSlug)
	if err != nil {
		return nil, err
	}
	g.QRCodePNG = png
	if err := repo.UpdateGuidebook(ctx, s.DB, g); err != nil {
		return nil, err
	}
	return png, nil
}

func (s *GuidebookService) renderQR(slug string) ([]byte, error) {
	return qrcode.Encode(s.ChatURL(slug), qrcode.Medium, 256)
}

// uniqueSlug slugifies the title and, on collision with another guidebook,
// appends a short suffix from the owning row's ID so the result stays
// deterministic.
func (s *GuidebookService) uniqueSlug(ctx context.Context, title, ownID string) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = "guidebook"
	}
	taken, err := repo.SlugExists(ctx, s.DB, base, ownID)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}
	suffix := strings.ReplaceAll(ownID, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return base + "-" + suffix, nil
}

// slugFolder strips diacritics: NFD decompose, drop combining marks, recompose.
var slugFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases a title, folds diacritics, and collapses every run of
// non-alphanumerics into a single hyphen.
func Slugify(title string) string {
	folded, _, err := transform.String(slugFolder, title)
	if err != nil {
		folded = title
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	lastHyphen := true
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
