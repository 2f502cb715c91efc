package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
)

func newTestStateStore(kv *memoryKV) *WizardStateStore {
	identity := NewIdentityService(IdentityConfig{ReturnBaseURL: "https://app.example.com/enrollment"})
	return NewWizardStateStore(kv, 10*time.Minute, identity.ReturnURL, nil)
}

func TestStateStoreRoundTripIsReadOnce(t *testing.T) {
	kv := newMemoryKV()
	store := newTestStateStore(kv)
	payload := janeDoePayload()
	payload.Signature = sp("data:image/png;base64,AAAA")

	ticket, err := store.Save(context.Background(), "T1", payload)
	require.NoError(t, err)
	assert.NotEmpty(t, ticket)
	assert.Equal(t, 10*time.Minute, kv.ttls["enrollment:wizard:resume:"+ticket+":payload"])

	restored, err := store.Restore(context.Background(), ticket)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, "T1", restored.TenantID)
	assert.Equal(t, payload, restored.Payload)

	again, err := store.Restore(context.Background(), ticket)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestStateStoreRestoreUnknownTicket(t *testing.T) {
	store := newTestStateStore(newMemoryKV())

	restored, err := store.Restore(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, restored)

	restored, err = store.Restore(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, restored)
}

func TestStateStoreDiscardsUnreadablePayload(t *testing.T) {
	kv := newMemoryKV()
	store := newTestStateStore(kv)
	kv.values["enrollment:wizard:resume:bad:payload"] = []byte("{not json")

	restored, err := store.Restore(context.Background(), "bad")
	require.NoError(t, err)
	assert.Nil(t, restored)
	assert.False(t, kv.has("enrollment:wizard:resume:bad:payload"))
}

func TestStateStorePendingRedirect(t *testing.T) {
	kv := newMemoryKV()
	store := newTestStateStore(kv)

	ticket, err := store.Save(context.Background(), "T1", janeDoePayload())
	require.NoError(t, err)

	markers, err := store.PendingRedirect(context.Background(), ticket)
	require.NoError(t, err)
	assert.Equal(t, "T1", markers.TenantPending)
	assert.Equal(t, "https://app.example.com/enrollment/T1?resume="+ticket, markers.ReturnTo)

	_, err = store.Restore(context.Background(), ticket)
	require.NoError(t, err)
	markers, err = store.PendingRedirect(context.Background(), ticket)
	require.NoError(t, err)
	assert.Equal(t, "T1", markers.TenantPending)

	_, err = store.PendingRedirect(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestStateStoreSaveFailure(t *testing.T) {
	kv := newMemoryKV()
	kv.setErr = errors.New("redis down")
	store := newTestStateStore(kv)

	_, err := store.Save(context.Background(), "T1", janeDoePayload())
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}
