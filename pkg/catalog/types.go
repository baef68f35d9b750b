package catalog

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Locale is a language/region target for translation values
type Locale struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TranslationKey is a dot-delimited hierarchical identifier shared across locales
type TranslationKey struct {
	ID  int64  `json:"id"`
	Key string `json:"key"`
}

// Tag labels translations for filtering
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Translation is the value of one key in one locale
type Translation struct {
	ID               int64     `json:"id"`
	TranslationKeyID int64     `json:"translation_key_id"`
	LocaleID         int64     `json:"locale_id"`
	Value            string    `json:"value"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Eager-loaded relations
	TranslationKey *TranslationKey `json:"translation_key,omitempty"`
	Locale         *Locale         `json:"locale,omitempty"`
	Tags           []*Tag          `json:"tags"`
}

// NormalizeCode lowercases and trims a locale code
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// NormalizeTagName lowercases and trims a tag name
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ParseID reports whether token is a numeric identifier and returns it.
// Surrounding whitespace is ignored.
func ParseID(token string) (int64, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Invalidator orphans cached exports. *cache.Versioner satisfies it.
type Invalidator interface {
	Bump(ctx context.Context) (int64, error)
}
