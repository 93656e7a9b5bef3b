package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

const (
	homepageAnnouncements = 3
	homepageGalleryImages = 6
	homepageEvents        = 6
)

type websiteRepository interface {
	GetSiteConfig(ctx context.Context) (*models.SiteConfig, error)
	UpdateSettings(ctx context.Context, settings models.SiteSettings) (*models.SiteConfig, error)
	ActiveTheme(ctx context.Context) (*models.Theme, error)
	ListThemes(ctx context.Context) ([]models.Theme, error)
	CreateThemeVersion(ctx context.Context, theme *models.Theme) error
	ActivateTheme(ctx context.Context, themeID string) error
	ListSections(ctx context.Context, visibleOnly bool) ([]models.HomepageSection, error)
	UpdateSections(ctx context.Context, sections []models.HomepageSection) error
	ListLinks(ctx context.Context, linkType *models.LinkType) ([]models.CustomLink, error)
	CreateLink(ctx context.Context, link *models.CustomLink) error
	DeleteLink(ctx context.Context, id string) error
	ListButtons(ctx context.Context) ([]models.CustomButton, error)
	CreateButton(ctx context.Context, button *models.CustomButton) error
	DeleteButton(ctx context.Context, id string) error
	ListEvents(ctx context.Context, from *models.Date, limit int) ([]models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id string) error
}

type homepageAnnouncementLister interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, error)
}

type homepageGalleryLister interface {
	List(ctx context.Context, limit int) ([]models.GalleryImage, error)
}

// ThemeRequest either activates an existing version (ThemeID) or saves the
// colours as a new version.
type ThemeRequest struct {
	ThemeID         string `json:"theme_id" validate:"omitempty,uuid"`
	Name            string `json:"name" validate:"max=100"`
	PrimaryColor    string `json:"primary_color" validate:"omitempty,hexcolor"`
	SecondaryColor  string `json:"secondary_color" validate:"omitempty,hexcolor"`
	AccentColor     string `json:"accent_color" validate:"omitempty,hexcolor"`
	BackgroundColor string `json:"background_color" validate:"omitempty,hexcolor"`
	TextColor       string `json:"text_color" validate:"omitempty,hexcolor"`
	HeaderBgColor   string `json:"header_bg_color" validate:"omitempty,hexcolor"`
	FooterBgColor   string `json:"footer_bg_color" validate:"omitempty,hexcolor"`
	FontFamily      string `json:"font_family" validate:"max=100"`
}

func (r ThemeRequest) missingField() string {
	fields := []struct{ name, value string }{
		{"name", r.Name},
		{"primary_color", r.PrimaryColor},
		{"secondary_color", r.SecondaryColor},
		{"accent_color", r.AccentColor},
		{"background_color", r.BackgroundColor},
		{"text_color", r.TextColor},
		{"header_bg_color", r.HeaderBgColor},
		{"footer_bg_color", r.FooterBgColor},
		{"font_family", r.FontFamily},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return f.name
		}
	}
	return ""
}

// SectionUpdate changes one homepage section, addressed by key.
type SectionUpdate struct {
	SectionKey      string `json:"section_key" validate:"required"`
	SectionTitle    string `json:"section_title" validate:"max=200"`
	SectionSubtitle string `json:"section_subtitle" validate:"max=500"`
	IsVisible       bool   `json:"is_visible"`
	DisplayOrder    int    `json:"display_order" validate:"min=0"`
}

// UpdateSectionsRequest batches section changes.
type UpdateSectionsRequest struct {
	Sections []SectionUpdate `json:"sections" validate:"required,min=1,dive"`
}

// LinkRequest creates a custom link.
type LinkRequest struct {
	Title        string `json:"title" validate:"required,max=100"`
	URL          string `json:"url" validate:"required,max=1000"`
	LinkType     string `json:"link_type" validate:"required,link_type"`
	DisplayOrder int    `json:"display_order" validate:"min=0"`
}

// ButtonRequest creates a custom button.
type ButtonRequest struct {
	ButtonText   string `json:"button_text" validate:"required,max=100"`
	ButtonURL    string `json:"button_url" validate:"required,max=1000"`
	ButtonStyle  string `json:"button_style" validate:"omitempty,button_style"`
	Section      string `json:"section" validate:"required,max=50"`
	DisplayOrder int    `json:"display_order" validate:"min=0"`
}

// EventRequest creates an event.
type EventRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	EventDate   string `json:"event_date" validate:"required,isodate"`
	EventTime   string `json:"event_time" validate:"max=50"`
	Location    string `json:"location" validate:"max=200"`
	EventType   string `json:"event_type" validate:"omitempty,event_type"`
}

// WebsiteService manages the public site: its typed configuration, theme
// versions, homepage blocks, and the cached homepage payload.
type WebsiteService struct {
	repo          websiteRepository
	announcements homepageAnnouncementLister
	gallery       homepageGalleryLister
	validator     *Validator
	cache         *CacheService
	cacheTTL      time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewWebsiteService constructs the service.
func NewWebsiteService(repo websiteRepository, announcements homepageAnnouncementLister, gallery homepageGalleryLister, validate *Validator, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *WebsiteService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebsiteService{
		repo:          repo,
		announcements: announcements,
		gallery:       gallery,
		validator:     validate,
		cache:         cache,
		cacheTTL:      cacheTTL,
		logger:        logger,
		now:           time.Now,
	}
}

// Homepage returns the public homepage payload, served from cache when possible.
func (s *WebsiteService) Homepage(ctx context.Context) (*dto.HomepageResponse, bool, error) {
	var cached dto.HomepageResponse
	if s.cache.Get(ctx, cacheKeyHomepage, &cached) {
		return &cached, true, nil
	}

	cfg, err := s.repo.GetSiteConfig(ctx)
	if err != nil {
		return nil, false, s.internal("load site config", err)
	}
	theme, err := s.activeTheme(ctx)
	if err != nil {
		return nil, false, err
	}
	sections, err := s.repo.ListSections(ctx, true)
	if err != nil {
		return nil, false, s.internal("load sections", err)
	}
	announcements, err := s.announcements.List(ctx, models.AnnouncementFilter{PublishedOnly: true, Limit: homepageAnnouncements})
	if err != nil {
		return nil, false, s.internal("load announcements", err)
	}
	gallery, err := s.gallery.List(ctx, homepageGalleryImages)
	if err != nil {
		return nil, false, s.internal("load gallery", err)
	}
	links, err := s.repo.ListLinks(ctx, nil)
	if err != nil {
		return nil, false, s.internal("load links", err)
	}
	buttons, err := s.repo.ListButtons(ctx)
	if err != nil {
		return nil, false, s.internal("load buttons", err)
	}
	today := models.NewDate(s.now())
	events, err := s.repo.ListEvents(ctx, &today, homepageEvents)
	if err != nil {
		return nil, false, s.internal("load events", err)
	}

	page := &dto.HomepageResponse{
		Settings:        cfg.SiteSettings,
		Theme:           *theme,
		Sections:        orEmpty(sections),
		Announcements:   orEmpty(announcements),
		Gallery:         orEmpty(gallery),
		NavigationLinks: []models.CustomLink{},
		FooterLinks:     []models.CustomLink{},
		QuickLinks:      []models.CustomLink{},
		Buttons:         orEmpty(buttons),
		Events:          orEmpty(events),
	}
	for _, l := range links {
		switch l.LinkType {
		case models.LinkTypeNavigation:
			page.NavigationLinks = append(page.NavigationLinks, l)
		case models.LinkTypeFooter:
			page.FooterLinks = append(page.FooterLinks, l)
		case models.LinkTypeQuickLink:
			page.QuickLinks = append(page.QuickLinks, l)
		}
	}
	s.cache.Set(ctx, cacheKeyHomepage, page, s.cacheTTL)
	return page, false, nil
}

// Builder returns the full admin website builder state.
func (s *WebsiteService) Builder(ctx context.Context) (*dto.WebsiteBuilderResponse, error) {
	cfg, err := s.repo.GetSiteConfig(ctx)
	if err != nil {
		return nil, s.internal("load site config", err)
	}
	theme, err := s.activeTheme(ctx)
	if err != nil {
		return nil, err
	}
	themes, err := s.repo.ListThemes(ctx)
	if err != nil {
		return nil, s.internal("load themes", err)
	}
	sections, err := s.repo.ListSections(ctx, false)
	if err != nil {
		return nil, s.internal("load sections", err)
	}
	links, err := s.repo.ListLinks(ctx, nil)
	if err != nil {
		return nil, s.internal("load links", err)
	}
	buttons, err := s.repo.ListButtons(ctx)
	if err != nil {
		return nil, s.internal("load buttons", err)
	}
	events, err := s.repo.ListEvents(ctx, nil, 0)
	if err != nil {
		return nil, s.internal("load events", err)
	}
	return &dto.WebsiteBuilderResponse{
		Config:   *cfg,
		Theme:    *theme,
		Themes:   orEmpty(themes),
		Sections: orEmpty(sections),
		Links:    orEmpty(links),
		Buttons:  orEmpty(buttons),
		Events:   orEmpty(events),
	}, nil
}

// SaveTheme activates an existing version or stores a new immutable version
// and points the site at it. It returns the now active theme.
func (s *WebsiteService) SaveTheme(ctx context.Context, req ThemeRequest, userID string) (*models.Theme, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if req.ThemeID != "" {
		if err := s.repo.ActivateTheme(ctx, req.ThemeID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "Theme not found")
			}
			return nil, s.internal("activate theme", err)
		}
		s.invalidateHomepage(ctx)
		return s.activeTheme(ctx)
	}

	if missing := req.missingField(); missing != "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, missing+" is a required field")
	}
	theme := &models.Theme{
		Name:            strings.TrimSpace(req.Name),
		PrimaryColor:    req.PrimaryColor,
		SecondaryColor:  req.SecondaryColor,
		AccentColor:     req.AccentColor,
		BackgroundColor: req.BackgroundColor,
		TextColor:       req.TextColor,
		HeaderBgColor:   req.HeaderBgColor,
		FooterBgColor:   req.FooterBgColor,
		FontFamily:      strings.TrimSpace(req.FontFamily),
		CreatedBy:       optionalString(userID),
	}
	if err := s.repo.CreateThemeVersion(ctx, theme); err != nil {
		return nil, s.internal("save theme", err)
	}
	s.logger.Info("theme version saved", zap.String("theme_id", theme.ID), zap.Int("version", theme.Version))
	s.invalidateHomepage(ctx)
	return theme, nil
}

// UpdateSettings replaces the school information on the site configuration.
func (s *WebsiteService) UpdateSettings(ctx context.Context, settings models.SiteSettings) (*models.SiteConfig, error) {
	if err := s.validator.Struct(settings); err != nil {
		return nil, err
	}
	settings.SchoolName = strings.TrimSpace(settings.SchoolName)
	cfg, err := s.repo.UpdateSettings(ctx, settings)
	if err != nil {
		return nil, s.internal("update settings", err)
	}
	s.invalidateHomepage(ctx)
	return cfg, nil
}

// UpdateSections applies all section changes or none.
func (s *WebsiteService) UpdateSections(ctx context.Context, req UpdateSectionsRequest) ([]models.HomepageSection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(req.Sections))
	sections := make([]models.HomepageSection, 0, len(req.Sections))
	for _, u := range req.Sections {
		if _, dup := seen[u.SectionKey]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Duplicate section: "+u.SectionKey)
		}
		seen[u.SectionKey] = struct{}{}
		sections = append(sections, models.HomepageSection{
			SectionKey:      u.SectionKey,
			SectionTitle:    u.SectionTitle,
			SectionSubtitle: u.SectionSubtitle,
			IsVisible:       u.IsVisible,
			DisplayOrder:    u.DisplayOrder,
		})
	}
	if err := s.repo.UpdateSections(ctx, sections); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Unknown homepage section")
		}
		return nil, s.internal("update sections", err)
	}
	s.invalidateHomepage(ctx)
	updated, err := s.repo.ListSections(ctx, false)
	if err != nil {
		return nil, s.internal("load sections", err)
	}
	return orEmpty(updated), nil
}

// CreateLink adds a custom link.
func (s *WebsiteService) CreateLink(ctx context.Context, req LinkRequest) (*models.CustomLink, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	link := &models.CustomLink{Title: strings.TrimSpace(req.Title), URL: req.URL, LinkType: models.LinkType(req.LinkType), DisplayOrder: req.DisplayOrder}
	if err := s.repo.CreateLink(ctx, link); err != nil {
		return nil, s.internal("create link", err)
	}
	s.invalidateHomepage(ctx)
	return link, nil
}

// DeleteLink removes a custom link.
func (s *WebsiteService) DeleteLink(ctx context.Context, id string) error {
	return s.remove(ctx, "Link", id, s.repo.DeleteLink)
}

// CreateButton adds a custom button; the style defaults to primary.
func (s *WebsiteService) CreateButton(ctx context.Context, req ButtonRequest) (*models.CustomButton, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	style := models.ButtonStyle(req.ButtonStyle)
	if style == "" {
		style = models.ButtonStylePrimary
	}
	button := &models.CustomButton{ButtonText: strings.TrimSpace(req.ButtonText), ButtonURL: req.ButtonURL, ButtonStyle: style, Section: req.Section, DisplayOrder: req.DisplayOrder}
	if err := s.repo.CreateButton(ctx, button); err != nil {
		return nil, s.internal("create button", err)
	}
	s.invalidateHomepage(ctx)
	return button, nil
}

// DeleteButton removes a custom button.
func (s *WebsiteService) DeleteButton(ctx context.Context, id string) error {
	return s.remove(ctx, "Button", id, s.repo.DeleteButton)
}

// CreateEvent adds an event; the type defaults to general.
func (s *WebsiteService) CreateEvent(ctx context.Context, req EventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	date, _ := models.ParseDate(req.EventDate)
	eventType := models.EventType(req.EventType)
	if eventType == "" {
		eventType = models.EventTypeGeneral
	}
	event := &models.Event{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		EventDate:   date,
		EventTime:   req.EventTime,
		Location:    req.Location,
		EventType:   eventType,
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, s.internal("create event", err)
	}
	s.invalidateHomepage(ctx)
	return event, nil
}

// DeleteEvent removes an event.
func (s *WebsiteService) DeleteEvent(ctx context.Context, id string) error {
	return s.remove(ctx, "Event", id, s.repo.DeleteEvent)
}

func (s *WebsiteService) remove(ctx context.Context, kind, id string, del func(context.Context, string) error) error {
	if err := del(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, kind+" not found")
		}
		return s.internal("delete "+strings.ToLower(kind), err)
	}
	s.invalidateHomepage(ctx)
	return nil
}

// activeTheme falls back to the built-in theme until one has been saved.
func (s *WebsiteService) activeTheme(ctx context.Context) (*models.Theme, error) {
	theme, err := s.repo.ActiveTheme(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			def := models.DefaultTheme()
			return &def, nil
		}
		return nil, s.internal("load active theme", err)
	}
	return theme, nil
}

func (s *WebsiteService) invalidateHomepage(ctx context.Context) {
	s.cache.Invalidate(ctx, cacheKeyHomepage)
}

func (s *WebsiteService) internal(op string, err error) error {
	s.logger.Error("website operation failed", zap.String("op", op), zap.Error(err))
	return appErrors.Internal(err, "failed to "+op)
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
