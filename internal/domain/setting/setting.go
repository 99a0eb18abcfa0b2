package setting

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/installments/backend/internal/domain/shared"
)

// Well-known setting keys
const (
	KeyCompanyName                 = "companyName"
	KeyCurrency                    = "currency"
	KeyCurrencySymbol              = "currencySymbol"
	KeyDateFormat                  = "dateFormat"
	KeyReminderDaysBefore          = "reminderDaysBefore"
	KeyOverdueGraceDays            = "overdueGraceDays"
	KeyEnableEmailNotifications    = "enableEmailNotifications"
	KeyEnableWhatsAppNotifications = "enableWhatsAppNotifications"
	KeyInstallmentFrequency        = "installmentFrequency"
	KeyDefaultPaymentMethod        = "defaultPaymentMethod"
)

const maxKeyLength = 100

// Setting is one stored override
type Setting struct {
	Key       string
	Value     any
	UpdatedAt time.Time
}

// Defaults returns a fresh copy of the built-in settings
func Defaults() map[string]any {
	return map[string]any{
		KeyCompanyName:                 "Installment Management System",
		KeyCurrency:                    "USD",
		KeyCurrencySymbol:              "$",
		KeyDateFormat:                  "YYYY-MM-DD",
		KeyReminderDaysBefore:          7,
		KeyOverdueGraceDays:            0,
		KeyEnableEmailNotifications:    true,
		KeyEnableWhatsAppNotifications: true,
		KeyInstallmentFrequency:        "monthly",
		KeyDefaultPaymentMethod:        "cash",
	}
}

// Settings is the effective configuration: defaults with stored overrides on top
type Settings map[string]any

// Merge lays the stored overrides over the defaults
func Merge(stored []Setting) Settings {
	s := Settings(Defaults())
	for _, st := range stored {
		s[st.Key] = st.Value
	}
	return s
}

// Get returns the value for key and whether it is known
func (s Settings) Get(key string) (any, bool) {
	v, ok := s[key]
	return v, ok
}

// String returns a string setting or the fallback
func (s Settings) String(key, fallback string) string {
	if v, ok := s[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Int returns a numeric setting or the fallback
func (s Settings) Int(key string, fallback int) int {
	switch v := s[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return fallback
}

// Bool returns a boolean setting or the fallback
func (s Settings) Bool(key string, fallback bool) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return fallback
}

// ReminderDaysBefore is the window for upcoming installment reminders
func (s Settings) ReminderDaysBefore() int {
	return s.Int(KeyReminderDaysBefore, 7)
}

// CurrencySymbol is prefixed to amounts in messages
func (s Settings) CurrencySymbol() string {
	return s.String(KeyCurrencySymbol, "$")
}

// ChannelEnabled reports whether customer notifications may use the channel
func (s Settings) ChannelEnabled(channel string) bool {
	switch channel {
	case "email":
		return s.Bool(KeyEnableEmailNotifications, true)
	case "whatsapp":
		return s.Bool(KeyEnableWhatsAppNotifications, true)
	}
	return true
}

// Validate checks a batch of updates. Well-known keys must carry values of
// the right kind; unknown keys are stored as given.
func Validate(updates map[string]any) error {
	if len(updates) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "No settings to update")
	}
	defaults := Defaults()
	for key, value := range updates {
		if strings.TrimSpace(key) == "" || len(key) > maxKeyLength {
			return shared.NewDomainError("INVALID_SETTING_KEY", fmt.Sprintf("Invalid setting key %q", key))
		}
		def, known := defaults[key]
		if !known {
			continue
		}
		if !sameKind(def, value) {
			return shared.NewDomainError("INVALID_SETTING_VALUE",
				fmt.Sprintf("Setting %s must be a %s", key, kindName(def)))
		}
	}
	if n, ok := updates[KeyReminderDaysBefore]; ok && Settings(updates).Int(KeyReminderDaysBefore, 0) < 0 {
		return shared.NewDomainError("INVALID_SETTING_VALUE", fmt.Sprintf("reminderDaysBefore cannot be negative: %v", n))
	}
	return nil
}

func sameKind(def, value any) bool {
	switch def.(type) {
	case string:
		_, ok := value.(string)
		return ok
	case bool:
		_, ok := value.(bool)
		return ok
	case int:
		switch value.(type) {
		case int, int64, float64, json.Number:
			return true
		}
	}
	return false
}

func kindName(def any) string {
	switch def.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}

// Repository defines the interface for settings persistence
type Repository interface {
	// FindAll returns every stored override
	FindAll(ctx context.Context) ([]Setting, error)

	// Upsert stores the given values, replacing existing keys
	Upsert(ctx context.Context, values map[string]any, now time.Time) error

	// Reset removes all overrides and stores the defaults
	Reset(ctx context.Context, now time.Time) error
}

// Cache holds the effective settings between reads. A miss returns ok=false.
type Cache interface {
	Get(ctx context.Context) (s Settings, ok bool, err error)
	Set(ctx context.Context, s Settings) error
	Invalidate(ctx context.Context) error
}
