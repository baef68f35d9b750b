package translations

// MaxKeyLength bounds a translation key string
const MaxKeyLength = 255

// CreateRequest is the body of a translation create. Either
// TranslationKeyID or Key identifies the key; TranslationKeyID wins when
// both are set. A nil TagIDs leaves tags untouched, an empty list detaches
// all of them.
type CreateRequest struct {
	TranslationKeyID *int64   `json:"translation_key_id,omitempty"`
	Key              *string  `json:"key,omitempty"`
	LocaleID         *int64   `json:"locale_id,omitempty"`
	Value            *string  `json:"value,omitempty"`
	TagIDs           *[]int64 `json:"tag_ids,omitempty"`
}

// UpdateRequest is the body of a translation update. Absent fields are
// unchanged; at least one must be present.
type UpdateRequest struct {
	TranslationKeyID *int64   `json:"translation_key_id,omitempty"`
	Key              *string  `json:"key,omitempty"`
	LocaleID         *int64   `json:"locale_id,omitempty"`
	Value            *string  `json:"value,omitempty"`
	TagIDs           *[]int64 `json:"tag_ids,omitempty"`
}

func (r UpdateRequest) empty() bool {
	return r.TranslationKeyID == nil && r.Key == nil && r.LocaleID == nil && r.Value == nil && r.TagIDs == nil
}

func (r UpdateRequest) rekeys() bool {
	return r.TranslationKeyID != nil || r.Key != nil
}
