package translations

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/platinummonkey/lexicon/pkg/catalog"
	"github.com/platinummonkey/lexicon/pkg/storage"
)

// Validation messages
const (
	MsgKeyRequired    = "Either key or translation_key_id is required."
	MsgFieldsRequired = "At least one field is required."
	MsgDuplicatePair  = "A translation for this key and locale already exists."
	msgRequired       = "The %s field is required."
	msgInvalid        = "The selected %s is invalid."
	msgKeyTooLong     = "The key must not be greater than %d characters."
)

// keyInput is the normalized key reference of a request
type keyInput struct {
	id  int64
	key string
}

func newKeyInput(id *int64, key *string) keyInput {
	var in keyInput
	if id != nil {
		in.id = *id
	}
	if key != nil {
		in.key = strings.TrimSpace(*key)
	}
	return in
}

func (k keyInput) usable() bool {
	return k.id != 0 || k.key != ""
}

// validator collects field errors, checking references against q
type validator struct {
	q    storage.Querier
	d    storage.Dialect
	errs *catalog.ValidationError
}

func newValidator(q storage.Querier, d storage.Dialect) *validator {
	return &validator{q: q, d: d, errs: &catalog.ValidationError{}}
}

func (v *validator) key(ctx context.Context, in keyInput) error {
	switch {
	case in.id != 0:
		ok, err := v.exists(ctx, "translation_keys", in.id)
		if err != nil {
			return err
		}
		if !ok {
			v.errs.Add("translation_key_id", fmt.Sprintf(msgInvalid, "translation key id"))
		}
	case in.key == "":
		v.errs.Add("key", MsgKeyRequired)
	case utf8.RuneCountInString(in.key) > MaxKeyLength:
		v.errs.Add("key", fmt.Sprintf(msgKeyTooLong, MaxKeyLength))
	}
	return nil
}

func (v *validator) locale(ctx context.Context, id *int64) error {
	if id == nil || *id == 0 {
		v.errs.Add("locale_id", fmt.Sprintf(msgRequired, "locale id"))
		return nil
	}
	ok, err := v.exists(ctx, "locales", *id)
	if err != nil {
		return err
	}
	if !ok {
		v.errs.Add("locale_id", fmt.Sprintf(msgInvalid, "locale id"))
	}
	return nil
}

func (v *validator) value(value *string) {
	if value == nil || *value == "" {
		v.errs.Add("value", fmt.Sprintf(msgRequired, "value"))
	}
}

func (v *validator) tags(ctx context.Context, ids *[]int64) error {
	if ids == nil {
		return nil
	}
	for i, id := range *ids {
		ok, err := v.exists(ctx, "tags", id)
		if err != nil {
			return err
		}
		if !ok {
			field := fmt.Sprintf("tag_ids.%d", i)
			v.errs.Add(field, fmt.Sprintf(msgInvalid, field))
		}
	}
	return nil
}

func (v *validator) exists(ctx context.Context, table string, id int64) (bool, error) {
	var n int
	query := v.d.Rebind("SELECT COUNT(*) FROM " + table + " WHERE id = ?")
	if err := v.q.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check %s reference: %w", table, err)
	}
	return n > 0, nil
}

func (v *validator) err() error {
	return v.errs.OrNil()
}
