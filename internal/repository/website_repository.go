package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-portal-api/internal/models"
)

const (
	siteConfigColumns = `school_name, school_tagline, about_us, contact_email, contact_phone, contact_address, logo_url, active_theme_id, updated_at`
	themeColumns      = `id, version, name, primary_color, secondary_color, accent_color, background_color, text_color, header_bg_color, footer_bg_color, font_family, created_by, created_at`
	sectionColumns    = `id, section_key, section_title, section_subtitle, is_visible, display_order, updated_at`
	linkColumns       = `id, title, url, link_type, display_order, created_at`
	buttonColumns     = `id, button_text, button_url, button_style, section, display_order, created_at`
	eventColumns      = `id, title, description, event_date, event_time, location, event_type, created_at`
)

// WebsiteRepository persists the public site configuration, its theme
// versions and its content blocks.
type WebsiteRepository struct {
	db *sqlx.DB
}

// NewWebsiteRepository constructs the repository.
func NewWebsiteRepository(db *sqlx.DB) *WebsiteRepository {
	return &WebsiteRepository{db: db}
}

// GetSiteConfig returns the singleton configuration record.
func (r *WebsiteRepository) GetSiteConfig(ctx context.Context) (*models.SiteConfig, error) {
	var cfg models.SiteConfig
	if err := r.db.GetContext(ctx, &cfg, `SELECT `+siteConfigColumns+` FROM site_config WHERE id = 1`); err != nil {
		return nil, fmt.Errorf("get site config: %w", err)
	}
	return &cfg, nil
}

// UpdateSettings overwrites the school information and returns the stored record.
func (r *WebsiteRepository) UpdateSettings(ctx context.Context, settings models.SiteSettings) (*models.SiteConfig, error) {
	const query = `UPDATE site_config SET school_name = $1, school_tagline = $2, about_us = $3, contact_email = $4,
contact_phone = $5, contact_address = $6, logo_url = $7, updated_at = $8 WHERE id = 1
RETURNING ` + siteConfigColumns
	var cfg models.SiteConfig
	err := r.db.GetContext(ctx, &cfg, query,
		settings.SchoolName, settings.SchoolTagline, settings.AboutUs, settings.ContactEmail,
		settings.ContactPhone, settings.ContactAddress, settings.LogoURL, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update site settings: %w", err)
	}
	return &cfg, nil
}

// ActiveTheme returns the theme the configuration points at, or sql.ErrNoRows
// when no theme has been saved yet.
func (r *WebsiteRepository) ActiveTheme(ctx context.Context) (*models.Theme, error) {
	query := `SELECT ` + prefixed("t", themeColumns) + ` FROM site_config c JOIN website_themes t ON t.id = c.active_theme_id WHERE c.id = 1`
	var theme models.Theme
	if err := r.db.GetContext(ctx, &theme, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("active theme: %w", err)
	}
	return &theme, nil
}

// ListThemes returns every saved theme version, newest first.
func (r *WebsiteRepository) ListThemes(ctx context.Context) ([]models.Theme, error) {
	var themes []models.Theme
	if err := r.db.SelectContext(ctx, &themes, `SELECT `+themeColumns+` FROM website_themes ORDER BY version DESC`); err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	return themes, nil
}

// CreateThemeVersion stores theme as the next version and points the site
// configuration at it. The singleton config row is locked so concurrent saves
// receive distinct versions.
func (r *WebsiteRepository) CreateThemeVersion(ctx context.Context, theme *models.Theme) error {
	return inTx(ctx, r.db, "create theme version", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT id FROM site_config WHERE id = 1 FOR UPDATE`); err != nil {
			return fmt.Errorf("lock site config: %w", err)
		}
		if err := tx.GetContext(ctx, &theme.Version, `SELECT COALESCE(MAX(version), 0) + 1 FROM website_themes`); err != nil {
			return fmt.Errorf("next theme version: %w", err)
		}
		if theme.ID == "" {
			theme.ID = uuid.NewString()
		}
		theme.CreatedAt = time.Now().UTC()
		insert := `INSERT INTO website_themes (` + themeColumns + `) VALUES (:id, :version, :name, :primary_color, :secondary_color,
:accent_color, :background_color, :text_color, :header_bg_color, :footer_bg_color, :font_family, :created_by, :created_at)`
		if _, err := tx.NamedExecContext(ctx, insert, theme); err != nil {
			return fmt.Errorf("insert theme: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE site_config SET active_theme_id = $1, updated_at = $2 WHERE id = 1`, theme.ID, theme.CreatedAt); err != nil {
			return fmt.Errorf("activate theme: %w", err)
		}
		return nil
	})
}

// ActivateTheme moves the active pointer to an existing version. It returns
// sql.ErrNoRows when the theme does not exist.
func (r *WebsiteRepository) ActivateTheme(ctx context.Context, themeID string) error {
	const query = `UPDATE site_config SET active_theme_id = t.id, updated_at = $2
FROM website_themes t WHERE site_config.id = 1 AND t.id = $1`
	res, err := r.db.ExecContext(ctx, query, themeID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("activate theme: %w", err)
	}
	return expectAffected(res, "activate theme")
}

// ListSections returns homepage sections in display order.
func (r *WebsiteRepository) ListSections(ctx context.Context, visibleOnly bool) ([]models.HomepageSection, error) {
	query := `SELECT ` + sectionColumns + ` FROM homepage_sections`
	if visibleOnly {
		query += ` WHERE is_visible = TRUE`
	}
	query += ` ORDER BY display_order ASC`
	var sections []models.HomepageSection
	if err := r.db.SelectContext(ctx, &sections, query); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// UpdateSections applies every section change in one transaction. An unknown
// section key aborts the batch with sql.ErrNoRows.
func (r *WebsiteRepository) UpdateSections(ctx context.Context, sections []models.HomepageSection) error {
	if len(sections) == 0 {
		return nil
	}
	const query = `UPDATE homepage_sections SET section_title = $2, section_subtitle = $3, is_visible = $4, display_order = $5, updated_at = $6
WHERE section_key = $1`
	now := time.Now().UTC()
	return inTx(ctx, r.db, "update sections", func(tx *sqlx.Tx) error {
		for _, s := range sections {
			res, err := tx.ExecContext(ctx, query, s.SectionKey, s.SectionTitle, s.SectionSubtitle, s.IsVisible, s.DisplayOrder, now)
			if err != nil {
				return fmt.Errorf("update section %s: %w", s.SectionKey, err)
			}
			if err := expectAffected(res, "update section"); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListLinks returns custom links, optionally of one type.
func (r *WebsiteRepository) ListLinks(ctx context.Context, linkType *models.LinkType) ([]models.CustomLink, error) {
	query := `SELECT ` + linkColumns + ` FROM custom_links`
	var args []interface{}
	if linkType != nil {
		query += ` WHERE link_type = $1`
		args = append(args, *linkType)
	}
	query += ` ORDER BY link_type, display_order ASC`
	var links []models.CustomLink
	if err := r.db.SelectContext(ctx, &links, query, args...); err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

// CreateLink inserts a custom link.
func (r *WebsiteRepository) CreateLink(ctx context.Context, link *models.CustomLink) error {
	link.ID = uuid.NewString()
	link.CreatedAt = time.Now().UTC()
	query := `INSERT INTO custom_links (` + linkColumns + `) VALUES (:id, :title, :url, :link_type, :display_order, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		return fmt.Errorf("create link: %w", err)
	}
	return nil
}

// DeleteLink removes a custom link.
func (r *WebsiteRepository) DeleteLink(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "custom_links", id)
}

// ListButtons returns custom buttons in display order.
func (r *WebsiteRepository) ListButtons(ctx context.Context) ([]models.CustomButton, error) {
	var buttons []models.CustomButton
	if err := r.db.SelectContext(ctx, &buttons, `SELECT `+buttonColumns+` FROM custom_buttons ORDER BY section, display_order ASC`); err != nil {
		return nil, fmt.Errorf("list buttons: %w", err)
	}
	return buttons, nil
}

// CreateButton inserts a custom button.
func (r *WebsiteRepository) CreateButton(ctx context.Context, button *models.CustomButton) error {
	button.ID = uuid.NewString()
	button.CreatedAt = time.Now().UTC()
	query := `INSERT INTO custom_buttons (` + buttonColumns + `) VALUES (:id, :button_text, :button_url, :button_style, :section, :display_order, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, button); err != nil {
		return fmt.Errorf("create button: %w", err)
	}
	return nil
}

// DeleteButton removes a custom button.
func (r *WebsiteRepository) DeleteButton(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "custom_buttons", id)
}

// ListEvents returns events ordered by date. A non-nil from restricts the
// list to events on or after that day; limit <= 0 means no limit.
func (r *WebsiteRepository) ListEvents(ctx context.Context, from *models.Date, limit int) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	var args []interface{}
	if from != nil {
		args = append(args, *from)
		query += ` WHERE event_date >= $1`
	}
	query += ` ORDER BY event_date ASC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// CreateEvent inserts an event.
func (r *WebsiteRepository) CreateEvent(ctx context.Context, event *models.Event) error {
	event.ID = uuid.NewString()
	event.CreatedAt = time.Now().UTC()
	query := `INSERT INTO events (` + eventColumns + `) VALUES (:id, :title, :description, :event_date, :event_time, :location, :event_type, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// DeleteEvent removes an event.
func (r *WebsiteRepository) DeleteEvent(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "events", id)
}

func (r *WebsiteRepository) deleteByID(ctx context.Context, table, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return expectAffected(res, "delete from "+table)
}
