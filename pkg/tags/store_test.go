package tags

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/lexicon/pkg/catalog"
	"github.com/platinummonkey/lexicon/pkg/storage/storagetest"
)

func name(s string) Request { return Request{Name: &s} }

func TestStore_ResolveID(t *testing.T) {
	cm := storagetest.New(t)
	mobile := storagetest.NewSeeder(t, cm).Tag("mobile")
	store := NewStore(cm, nil)
	ctx := context.Background()

	tests := []struct {
		token  string
		wantID int64
		wantOK bool
	}{
		{"mobile", mobile, true},
		{" Mobile ", mobile, true},
		{strconv.FormatInt(mobile, 10), mobile, true},
		{"777", 777, true}, // ids are not looked up
		{"0", 0, false},
		{"doesnotexist", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		id, ok, err := store.ResolveID(ctx, tt.token)
		require.NoError(t, err, tt.token)
		assert.Equal(t, tt.wantOK, ok, tt.token)
		assert.Equal(t, tt.wantID, id, tt.token)
	}
}

func TestStore_CRUD(t *testing.T) {
	store := NewStore(storagetest.New(t), nil)
	ctx := context.Background()

	tag, err := store.Create(ctx, name("  Mobile "))
	require.NoError(t, err)
	assert.Equal(t, "mobile", tag.Name)

	_, err = store.Create(ctx, name("web"))
	require.NoError(t, err)

	page, err := store.List(ctx, 1, 50)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "mobile", page.Data[0].Name)
	assert.Equal(t, "web", page.Data[1].Name)
	assert.Equal(t, int64(2), page.Meta.Total)

	updated, err := store.Update(ctx, tag.ID, name("Desktop"))
	require.NoError(t, err)
	assert.Equal(t, "desktop", updated.Name)

	unchanged, err := store.Update(ctx, tag.ID, Request{})
	require.NoError(t, err)
	assert.Equal(t, "desktop", unchanged.Name)

	got, err := store.Get(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "desktop", got.Name)

	require.NoError(t, store.Delete(ctx, tag.ID))
	_, err = store.Get(ctx, tag.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, tag.ID), catalog.ErrNotFound)
}

func TestStore_Validation(t *testing.T) {
	cm := storagetest.New(t)
	seed := storagetest.NewSeeder(t, cm)
	seed.Tag("mobile")
	web := seed.Tag("web")
	store := NewStore(cm, nil)
	ctx := context.Background()

	tests := []struct {
		desc string
		run  func() error
		msg  string
	}{
		{"missing", func() error { _, err := store.Create(ctx, Request{}); return err }, "The name field is required."},
		{"blank", func() error { _, err := store.Create(ctx, name("   ")); return err }, "The name field is required."},
		{"long", func() error { _, err := store.Create(ctx, name(strings.Repeat("t", 51))); return err }, "The name must not be greater than 50 characters."},
		{"duplicate", func() error { _, err := store.Create(ctx, name("MOBILE")); return err }, "The name has already been taken."},
		{"rename onto existing", func() error { _, err := store.Update(ctx, web, name("mobile")); return err }, "The name has already been taken."},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var verr *catalog.ValidationError
			require.True(t, errors.As(tt.run(), &verr))
			assert.Equal(t, []string{tt.msg}, verr.Fields["name"])
		})
	}
}

func TestStore_DeleteDetachesTranslations(t *testing.T) {
	cm := storagetest.New(t)
	seed := storagetest.NewSeeder(t, cm)
	tag := seed.Tag("mobile")
	tr := seed.Translation(seed.Key("auth.login"), seed.Locale("en", "English"), "Login", time.Now().UTC())
	seed.TagTranslation(tr, tag)

	require.NoError(t, NewStore(cm, nil).Delete(context.Background(), tag))

	var n int
	require.NoError(t, cm.Primary().QueryRow("SELECT COUNT(*) FROM translation_tag").Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, cm.Primary().QueryRow("SELECT COUNT(*) FROM translations").Scan(&n))
	assert.Equal(t, 1, n)
}
