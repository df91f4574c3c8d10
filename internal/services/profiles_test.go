package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musui/musui-server/internal/model"
)

func TestNormalizeDisplayName(t *testing.T) {
	assert.Nil(t, NormalizeDisplayName(nil))
	assert.Nil(t, NormalizeDisplayName(strptr("   ")))
	assert.Equal(t, "leaf", *NormalizeDisplayName(strptr("  leaf ")))
}

func TestProfileService_SetDisplayName(t *testing.T) {
	fs := newFakeStore()
	svc := NewProfileService(fs)
	ctx := context.Background()

	p, err := svc.Get(ctx, alice)
	require.NoError(t, err)
	assert.Nil(t, p, "missing profile is null")

	require.NoError(t, svc.SetDisplayName(ctx, alice, strptr(" leaf ")))
	p, err = svc.Get(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, p.DisplayName)
	assert.Equal(t, "leaf", *p.DisplayName)
	assert.Equal(t, "alice@example.test", *p.Email)

	// same user may resubmit their own name
	require.NoError(t, svc.SetDisplayName(ctx, alice, strptr("leaf")))
	assert.ErrorIs(t, svc.SetDisplayName(ctx, bob, strptr("leaf")), model.ErrConflict)

	require.NoError(t, svc.SetDisplayName(ctx, alice, strptr("")))
	p, _ = svc.Get(ctx, alice)
	assert.Nil(t, p.DisplayName)

	assert.ErrorIs(t, svc.SetDisplayName(ctx, nil, strptr("x")), model.ErrUnauthenticated)
	assert.ErrorIs(t, NewProfileService(nil).SetDisplayName(ctx, alice, nil), model.ErrNotConfigured)
}
