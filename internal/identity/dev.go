package identity

import (
	"context"
	"fmt"

	"github.com/musui/musui-server/internal/model"
)

const (
	// LocalDevToken is the hardcoded token accepted when MUSUI_DEV_AUTH is on.
	LocalDevToken = "musui_local_dev_token"
	LocalDevUser  = "musui-dev"
)

// DevProvider only recognizes LocalDevToken and resolves it to the dev user.
type DevProvider struct{}

func NewDevProvider() *DevProvider { return &DevProvider{} }

func (DevProvider) CurrentUser(_ context.Context, token string) (*model.User, error) {
	if token != LocalDevToken {
		return nil, fmt.Errorf("%w: invalid token for local development", model.ErrUnauthenticated)
	}
	return &model.User{ID: LocalDevUser, Email: "dev@musui.local"}, nil
}

func (DevProvider) SignOut(context.Context, string) error { return nil }
