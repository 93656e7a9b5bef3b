package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

// Validator wraps the shared validator with English messages keyed by JSON
// field names.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

var customTagMessages = map[string]string{
	"role":                  "{0} must be one of admin, teacher, parent, student",
	"attendance_status":     "{0} must be one of present, absent, late, excused",
	"payment_status":        "{0} must be one of pending, overdue, paid, partial",
	"announcement_audience": "{0} must contain only all, students, parents, teachers",
	"announcement_priority": "{0} must be one of low, medium, high, urgent",
	"link_type":             "{0} must be one of navigation, footer, quick_link",
	"button_style":          "{0} must be one of primary, secondary, outline",
	"event_type":            "{0} must be one of general, academic, sports, cultural, holiday",
	"isodate":               "{0} must be a date in YYYY-MM-DD format",
	"uuid_rfc4122":          "{0} must be a valid UUID",
}

// NewValidator builds the validator with every custom tag the portal uses.
func NewValidator() *Validator {
	v := validator.New()
	english := en.New()
	translator, _ := ut.New(english, english).GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(v, translator)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, err := models.ParseRole(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("payment_status", func(fl validator.FieldLevel) bool {
		return models.PaymentStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("announcement_audience", func(fl validator.FieldLevel) bool {
		return models.Audience(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("announcement_priority", func(fl validator.FieldLevel) bool {
		switch models.AnnouncementPriority(fl.Field().String()) {
		case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent:
			return true
		}
		return false
	})
	_ = v.RegisterValidation("link_type", func(fl validator.FieldLevel) bool {
		switch models.LinkType(fl.Field().String()) {
		case models.LinkTypeNavigation, models.LinkTypeFooter, models.LinkTypeQuickLink:
			return true
		}
		return false
	})
	_ = v.RegisterValidation("button_style", func(fl validator.FieldLevel) bool {
		switch models.ButtonStyle(fl.Field().String()) {
		case models.ButtonStylePrimary, models.ButtonStyleSecondary, models.ButtonStyleOutline:
			return true
		}
		return false
	})
	_ = v.RegisterValidation("event_type", func(fl validator.FieldLevel) bool {
		switch models.EventType(fl.Field().String()) {
		case models.EventTypeGeneral, models.EventTypeAcademic, models.EventTypeSports, models.EventTypeCultural, models.EventTypeHoliday:
			return true
		}
		return false
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := models.ParseDate(fl.Field().String())
		return err == nil
	})

	for tag, message := range customTagMessages {
		message := message
		_ = v.RegisterTranslation(tag, translator, func(t ut.Translator) error {
			return t.Add(tag, message, true)
		}, func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(fe.Tag(), fe.Field())
			return msg
		})
	}

	return &Validator{validate: v, translator: translator}
}

// Struct validates s and returns an ErrValidation carrying the first failure
// as its message.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fieldErrs[0].Translate(v.translator))
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
}
