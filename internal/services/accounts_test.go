package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musui/musui-server/internal/model"
)

func TestEmailAvailable(t *testing.T) {
	svc := NewAccountService(fakeDirectory{emails: map[string]bool{"taken@example.test": true}}, newFakeStore())
	ctx := context.Background()

	ok, err := svc.EmailAvailable(ctx, " Taken@Example.TEST ")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.EmailAvailable(ctx, "free@example.test")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.EmailAvailable(ctx, " ")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = NewAccountService(nil, nil).EmailAvailable(ctx, "a@b.c")
	assert.ErrorIs(t, err, model.ErrNotConfigured)

	_, err = NewAccountService(fakeDirectory{err: errBackend}, nil).EmailAvailable(ctx, "a@b.c")
	assert.ErrorIs(t, err, model.ErrStorage)
}

func TestNicknameAvailable(t *testing.T) {
	fs := newFakeStore()
	fs.profiles["alice"] = &model.Profile{ID: "alice", DisplayName: strptr("leaf")}
	svc := NewAccountService(fakeDirectory{}, fs)
	ctx := context.Background()

	ok, err := svc.NicknameAvailable(ctx, " leaf ")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.NicknameAvailable(ctx, "stem")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.NicknameAvailable(ctx, "")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = NewAccountService(nil, fs).NicknameAvailable(ctx, "leaf")
	assert.ErrorIs(t, err, model.ErrNotConfigured)
}
