package translations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/lexicon/pkg/catalog"
	"github.com/platinummonkey/lexicon/pkg/storage"
	"github.com/platinummonkey/lexicon/pkg/storage/storagetest"
)

// recordingInvalidator counts bumps
type recordingInvalidator struct {
	mu    sync.Mutex
	bumps int
	err   error
}

func (r *recordingInvalidator) Bump(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bumps++
	return int64(r.bumps + 1), r.err
}

func (r *recordingInvalidator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bumps
}

type fixture struct {
	cm      *storage.ConnectionManager
	seed    *storagetest.Seeder
	service *Service
	inv     *recordingInvalidator
	en, fr  int64
	mobile  int64
	web     int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cm := storagetest.New(t)
	seed := storagetest.NewSeeder(t, cm)
	inv := &recordingInvalidator{}

	f := &fixture{
		cm:      cm,
		seed:    seed,
		service: NewService(cm, inv, nil),
		inv:     inv,
		en:      seed.Locale("en", "English"),
		fr:      seed.Locale("fr", "French"),
		mobile:  seed.Tag("mobile"),
		web:     seed.Tag("web"),
	}
	f.service.now = func() time.Time { return time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC) }
	return f
}

func strp(s string) *string      { return &s }
func idp(n int64) *int64         { return &n }
func idList(n ...int64) *[]int64 { return &n }

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.cm.Primary().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func tagNames(tr *catalog.Translation) []string {
	names := make([]string, 0, len(tr.Tags))
	for _, tag := range tr.Tags {
		names = append(names, tag.Name)
	}
	return names
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *catalog.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr.Fields
}

func TestCreate_CreatesKeyAndTags(t *testing.T) {
	f := newFixture(t)

	tr, err := f.service.Create(context.Background(), CreateRequest{
		Key:      strp("  auth.login "),
		LocaleID: idp(f.en),
		Value:    strp("Login"),
		TagIDs:   idList(f.web, f.mobile),
	})
	require.NoError(t, err)
	assert.Equal(t, "auth.login", tr.TranslationKey.Key)
	assert.Equal(t, "en", tr.Locale.Code)
	assert.Equal(t, "Login", tr.Value)
	assert.Equal(t, []string{"mobile", "web"}, tagNames(tr))
	assert.Equal(t, 1, f.inv.count())
}

func TestCreate_IsIdempotentUpsert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := CreateRequest{Key: strp("auth.login"), LocaleID: idp(f.en), Value: strp("Login")}

	first, err := f.service.Create(ctx, req)
	require.NoError(t, err)
	second, err := f.service.Create(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.count(t, "translations"))
	assert.Equal(t, 1, f.count(t, "translation_keys"))

	req.Value = strp("Sign in")
	third, err := f.service.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)
	assert.Equal(t, "Sign in", third.Value)
	assert.Equal(t, 1, f.count(t, "translations"))
}

func TestCreate_ByKeyIDAndTagSync(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keyID := f.seed.Key("home.title")

	tr, err := f.service.Create(ctx, CreateRequest{
		TranslationKeyID: idp(keyID),
		Key:              strp("ignored.when.id.given"),
		LocaleID:         idp(f.fr),
		Value:            strp("Accueil"),
		TagIDs:           idList(f.mobile),
	})
	require.NoError(t, err)
	assert.Equal(t, keyID, tr.TranslationKeyID)
	assert.Equal(t, 1, f.count(t, "translation_keys"))

	// Omitted tag_ids keep the current set
	tr, err = f.service.Create(ctx, CreateRequest{TranslationKeyID: idp(keyID), LocaleID: idp(f.fr), Value: strp("Accueil")})
	require.NoError(t, err)
	assert.Equal(t, []string{"mobile"}, tagNames(tr))

	// An empty list detaches everything
	tr, err = f.service.Create(ctx, CreateRequest{TranslationKeyID: idp(keyID), LocaleID: idp(f.fr), Value: strp("Accueil"), TagIDs: idList()})
	require.NoError(t, err)
	assert.Empty(t, tagNames(tr))
	assert.Equal(t, 0, f.count(t, "translation_tag"))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   CreateRequest
		field string
		msg   string
	}{
		{"no key", CreateRequest{LocaleID: idp(f.en), Value: strp("x")}, "key", MsgKeyRequired},
		{"blank key", CreateRequest{Key: strp("   "), LocaleID: idp(f.en), Value: strp("x")}, "key", MsgKeyRequired},
		{"unknown key id", CreateRequest{TranslationKeyID: idp(99), LocaleID: idp(f.en), Value: strp("x")}, "translation_key_id", "The selected translation key id is invalid."},
		{"no locale", CreateRequest{Key: strp("a"), Value: strp("x")}, "locale_id", "The locale id field is required."},
		{"unknown locale", CreateRequest{Key: strp("a"), LocaleID: idp(99), Value: strp("x")}, "locale_id", "The selected locale id is invalid."},
		{"no value", CreateRequest{Key: strp("a"), LocaleID: idp(f.en)}, "value", "The value field is required."},
		{"unknown tag", CreateRequest{Key: strp("a"), LocaleID: idp(f.en), Value: strp("x"), TagIDs: idList(f.mobile, 99)}, "tag_ids.1", "The selected tag_ids.1 is invalid."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Create(ctx, tt.req)
			assert.Equal(t, []string{tt.msg}, fieldErrors(t, err)[tt.field])
		})
	}

	assert.Equal(t, 0, f.count(t, "translations"))
	assert.Equal(t, 0, f.count(t, "translation_keys"))
	assert.Equal(t, 0, f.inv.count())
}

func TestUpdate_LocaleChangeInvalidatesBothLocales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr, err := f.service.Create(ctx, CreateRequest{Key: strp("auth.login"), LocaleID: idp(f.en), Value: strp("Login")})
	require.NoError(t, err)
	require.Equal(t, 1, f.inv.count())

	updated, err := f.service.Update(ctx, tr.ID, UpdateRequest{LocaleID: idp(f.fr), Value: strp("Connexion")})
	require.NoError(t, err)
	assert.Equal(t, "fr", updated.Locale.Code)
	assert.Equal(t, "Connexion", updated.Value)
	assert.Equal(t, 3, f.inv.count())

	_, err = f.service.Update(ctx, tr.ID, UpdateRequest{Value: strp("Se connecter")})
	require.NoError(t, err)
	assert.Equal(t, 4, f.inv.count())
}

func TestUpdate_RekeyAndTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr, err := f.service.Create(ctx, CreateRequest{Key: strp("auth.login"), LocaleID: idp(f.en), Value: strp("Login"), TagIDs: idList(f.mobile)})
	require.NoError(t, err)

	updated, err := f.service.Update(ctx, tr.ID, UpdateRequest{Key: strp("auth.sign_in"), TagIDs: idList(f.web)})
	require.NoError(t, err)
	assert.Equal(t, "auth.sign_in", updated.TranslationKey.Key)
	assert.Equal(t, "Login", updated.Value)
	assert.Equal(t, []string{"web"}, tagNames(updated))
	assert.True(t, updated.UpdatedAt.Equal(time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)))

	// The old key is never deleted
	assert.Equal(t, 2, f.count(t, "translation_keys"))
}

func TestUpdate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr, err := f.service.Create(ctx, CreateRequest{Key: strp("auth.login"), LocaleID: idp(f.en), Value: strp("Login")})
	require.NoError(t, err)
	_, err = f.service.Create(ctx, CreateRequest{Key: strp("auth.logout"), LocaleID: idp(f.en), Value: strp("Logout")})
	require.NoError(t, err)
	bumps := f.inv.count()

	_, err = f.service.Update(ctx, tr.ID, UpdateRequest{})
	assert.Equal(t, []string{MsgFieldsRequired}, fieldErrors(t, err)["base"])

	_, err = f.service.Update(ctx, tr.ID, UpdateRequest{Key: strp("")})
	assert.Equal(t, []string{MsgKeyRequired}, fieldErrors(t, err)["key"])

	_, err = f.service.Update(ctx, tr.ID, UpdateRequest{Value: strp("")})
	assert.Equal(t, []string{"The value field is required."}, fieldErrors(t, err)["value"])

	_, err = f.service.Update(ctx, tr.ID, UpdateRequest{Key: strp("auth.logout")})
	assert.Equal(t, []string{MsgDuplicatePair}, fieldErrors(t, err)["key"])

	_, err = f.service.Update(ctx, 999, UpdateRequest{Value: strp("x")})
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	unchanged, err := f.service.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "auth.login", unchanged.TranslationKey.Key)
	assert.Equal(t, bumps, f.inv.count())
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr, err := f.service.Create(ctx, CreateRequest{Key: strp("auth.login"), LocaleID: idp(f.en), Value: strp("Login"), TagIDs: idList(f.mobile)})
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, tr.ID))
	assert.Equal(t, 2, f.inv.count())
	assert.Equal(t, 0, f.count(t, "translations"))
	assert.Equal(t, 0, f.count(t, "translation_tag"))
	assert.Equal(t, 1, f.count(t, "translation_keys"))

	assert.ErrorIs(t, f.service.Delete(ctx, tr.ID), catalog.ErrNotFound)
	_, err = f.service.Get(ctx, tr.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestBumpFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.inv.err = errors.New("cache down")

	tr, err := f.service.Create(context.Background(), CreateRequest{Key: strp("a"), LocaleID: idp(f.en), Value: strp("A")})
	require.NoError(t, err)
	assert.Equal(t, "A", tr.Value)
	assert.Equal(t, 1, f.inv.count())
}
