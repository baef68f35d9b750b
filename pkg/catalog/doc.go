// Package catalog defines the translation catalog entities shared by every
// service in lexicon: locales, translation keys, translations and tags.
//
// # Entities
//
//   - Locale: a language/region target, identified by a unique lowercase code
//   - TranslationKey: a unique dot-delimited path such as "auth.login"
//   - Translation: one value per (translation key, locale) pair
//   - Tag: a unique lowercase label attached to translations
//
// # Errors
//
// Services report caller mistakes as *ValidationError, which carries
// field-level messages, and missing rows as ErrNotFound:
//
//	t, err := svc.Create(ctx, input)
//	var verr *catalog.ValidationError
//	if errors.As(err, &verr) {
//		httputil.WriteValidationErrors(w, verr.Fields)
//	}
//
// # Row helpers
//
// TranslationSelect, ScanTranslation and LoadTags are used by the search
// pipeline and the mutation coordinator so that both return translations
// with the same eager-loaded relations.
package catalog
