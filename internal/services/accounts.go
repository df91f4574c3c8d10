package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/musui/musui-server/internal/identity"
	"github.com/musui/musui-server/internal/model"
	"github.com/musui/musui-server/internal/store"
)

// AccountService answers sign-up availability questions. Both checks need the
// service-role key; without it they report model.ErrNotConfigured.
type AccountService struct {
	dir   identity.Directory
	store store.Store
}

func NewAccountService(dir identity.Directory, s store.Store) *AccountService {
	return &AccountService{dir: dir, store: s}
}

// EmailAvailable reports whether no account uses email (case-insensitive).
func (s *AccountService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, fmt.Errorf("%w: email required", model.ErrValidation)
	}
	if s.dir == nil {
		return false, model.ErrNotConfigured
	}
	taken, err := s.dir.EmailRegistered(ctx, email)
	if err != nil {
		return false, storageErr("accounts.check_email", err)
	}
	return !taken, nil
}

// NicknameAvailable reports whether no profile uses nickname as display name.
func (s *AccountService) NicknameAvailable(ctx context.Context, nickname string) (bool, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return false, fmt.Errorf("%w: nickname required", model.ErrValidation)
	}
	if s.dir == nil || s.store == nil {
		return false, model.ErrNotConfigured
	}
	owner, err := s.store.Profiles().DisplayNameOwner(ctx, nickname)
	if err != nil {
		return false, storageErr("accounts.check_nickname", err)
	}
	return owner == "", nil
}
