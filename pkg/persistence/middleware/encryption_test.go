package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/blade/pkg/adapters/memory"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func record(name, phrase string, params domain.Params) domain.EnrichedRecord {
	return domain.EnrichedRecord{
		Name:      name,
		Phrase:    phrase,
		Operator:  "context.object.active_material.diffuse_color",
		Params:    params,
		Type:      domain.KindState,
		Mode:      domain.ModeVoice,
		Timestamp: time.Now().UTC(),
	}
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewHistoryStore(10)
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	require.NoError(t, secureStore.Record(ctx, record("color_red", "mets en rouge", domain.Params{"value": []any{1, 0, 0}})))

	// The underlying store only sees the envelope.
	stored, err := underlyingStore.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, strings.HasPrefix(stored[0].Phrase, middleware.EnvelopePrefix))
	assert.NotContains(t, stored[0].Phrase, "rouge")
	assert.Nil(t, stored[0].Params)
	assert.Equal(t, "color_red", stored[0].Name, "name stays readable")

	loaded, err := secureStore.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "mets en rouge", loaded[0].Phrase)
	assert.Equal(t, []any{1.0, 0.0, 0.0}, loaded[0].Params["value"])
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewHistoryStore(10)
	ctx := context.Background()
	oldKey, newKey := generateKey(t), generateKey(t)

	oldMW, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, err)
	require.NoError(t, oldMW(underlyingStore).Record(ctx, record("a", "ajoute un cube", nil)))

	rotated, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	require.NoError(t, err)
	store := rotated(underlyingStore)
	require.NoError(t, store.Record(ctx, record("b", "lisse l'objet", nil)))

	recs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "ajoute un cube", recs[0].Phrase)
	assert.Equal(t, "lisse l'objet", recs[1].Phrase)

	// Without the old key the first record cannot be opened.
	strict, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})
	require.NoError(t, err)
	_, err = strict(underlyingStore).Recent(ctx, 10)
	assert.Error(t, err)
}

func TestEncryptionMiddleware_PlainRecordsPassThrough(t *testing.T) {
	underlyingStore := memory.NewHistoryStore(10)
	ctx := context.Background()
	require.NoError(t, underlyingStore.Record(ctx, record("legacy", "ajoute un cube", nil)))

	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	recs, err := mw(underlyingStore).Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "ajoute un cube", recs[0].Phrase)
}

func TestEncryptionMiddleware_BadKeys(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.Error(t, err)

	key := generateKey(t)
	parsed, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	_, err = middleware.ParseKey("not base64!")
	assert.Error(t, err)
	_, err = middleware.ParseKey(base64.StdEncoding.EncodeToString([]byte("sixteen byte key")))
	assert.Error(t, err)
}
