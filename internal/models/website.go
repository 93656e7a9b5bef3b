package models

import "time"

// Theme is an immutable version of the public site's look. The active one is
// selected by SiteConfig.ActiveThemeID.
type Theme struct {
	ID              string    `db:"id" json:"id"`
	Version         int       `db:"version" json:"version"`
	Name            string    `db:"name" json:"name"`
	PrimaryColor    string    `db:"primary_color" json:"primary_color"`
	SecondaryColor  string    `db:"secondary_color" json:"secondary_color"`
	AccentColor     string    `db:"accent_color" json:"accent_color"`
	BackgroundColor string    `db:"background_color" json:"background_color"`
	TextColor       string    `db:"text_color" json:"text_color"`
	HeaderBgColor   string    `db:"header_bg_color" json:"header_bg_color"`
	FooterBgColor   string    `db:"footer_bg_color" json:"footer_bg_color"`
	FontFamily      string    `db:"font_family" json:"font_family"`
	CreatedBy       *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// DefaultTheme is served until an admin saves a theme.
func DefaultTheme() Theme {
	return Theme{
		Name:            "Ocean Blue",
		PrimaryColor:    "#1e40af",
		SecondaryColor:  "#3b82f6",
		AccentColor:     "#f59e0b",
		BackgroundColor: "#ffffff",
		TextColor:       "#1f2937",
		HeaderBgColor:   "#1e40af",
		FooterBgColor:   "#1f2937",
		FontFamily:      "Inter",
	}
}

// SiteSettings is the typed school information shown on the homepage.
type SiteSettings struct {
	SchoolName     string `db:"school_name" json:"school_name" validate:"max=200"`
	SchoolTagline  string `db:"school_tagline" json:"school_tagline" validate:"max=300"`
	AboutUs        string `db:"about_us" json:"about_us" validate:"max=10000"`
	ContactEmail   string `db:"contact_email" json:"contact_email" validate:"omitempty,email"`
	ContactPhone   string `db:"contact_phone" json:"contact_phone" validate:"max=40"`
	ContactAddress string `db:"contact_address" json:"contact_address" validate:"max=500"`
	LogoURL        string `db:"logo_url" json:"logo_url" validate:"max=1000"`
}

// SiteConfig is the single configuration record for the public site.
type SiteConfig struct {
	SiteSettings
	ActiveThemeID *string   `db:"active_theme_id" json:"active_theme_id,omitempty"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// HomepageSection is a toggleable, orderable homepage block.
type HomepageSection struct {
	ID              string    `db:"id" json:"id"`
	SectionKey      string    `db:"section_key" json:"section_key"`
	SectionTitle    string    `db:"section_title" json:"section_title"`
	SectionSubtitle string    `db:"section_subtitle" json:"section_subtitle"`
	IsVisible       bool      `db:"is_visible" json:"is_visible"`
	DisplayOrder    int       `db:"display_order" json:"display_order"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// LinkType places a custom link on the site.
type LinkType string

const (
	LinkTypeNavigation LinkType = "navigation"
	LinkTypeFooter     LinkType = "footer"
	LinkTypeQuickLink  LinkType = "quick_link"
)

// CustomLink is an admin-defined link.
type CustomLink struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	URL          string    `db:"url" json:"url"`
	LinkType     LinkType  `db:"link_type" json:"link_type"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ButtonStyle is the visual variant of a custom button.
type ButtonStyle string

const (
	ButtonStylePrimary   ButtonStyle = "primary"
	ButtonStyleSecondary ButtonStyle = "secondary"
	ButtonStyleOutline   ButtonStyle = "outline"
)

// CustomButton is an admin-defined call-to-action.
type CustomButton struct {
	ID           string      `db:"id" json:"id"`
	ButtonText   string      `db:"button_text" json:"button_text"`
	ButtonURL    string      `db:"button_url" json:"button_url"`
	ButtonStyle  ButtonStyle `db:"button_style" json:"button_style"`
	Section      string      `db:"section" json:"section"`
	DisplayOrder int         `db:"display_order" json:"display_order"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// EventType categorises school events.
type EventType string

const (
	EventTypeGeneral  EventType = "general"
	EventTypeAcademic EventType = "academic"
	EventTypeSports   EventType = "sports"
	EventTypeCultural EventType = "cultural"
	EventTypeHoliday  EventType = "holiday"
)

// Event is a dated school event shown on the homepage.
type Event struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	EventDate   Date      `db:"event_date" json:"event_date"`
	EventTime   string    `db:"event_time" json:"event_time"`
	Location    string    `db:"location" json:"location"`
	EventType   EventType `db:"event_type" json:"event_type"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// GalleryImage is an uploaded picture shown in the public gallery.
type GalleryImage struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	ImageURL     string    `db:"image_url" json:"image_url"`
	StorageKey   string    `db:"storage_key" json:"-"`
	Category     string    `db:"category" json:"category"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	UploadedBy   *string   `db:"uploaded_by" json:"uploaded_by,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
