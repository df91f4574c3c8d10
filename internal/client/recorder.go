package client

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/musui/musui-server/internal/feed"
	"github.com/musui/musui-server/internal/localstore"
	"github.com/musui/musui-server/internal/model"
)

// Remote is the part of Client the Recorder writes through.
type Remote interface {
	CreateManual(ctx context.Context, in model.ManualInput) (string, error)
	CreateSession(ctx context.Context, items model.Items) (string, error)
	ListMine(ctx context.Context) ([]*model.Archive, error)
	ListPublic(ctx context.Context) ([]*model.PublicArchive, error)
	SetVisibility(ctx context.Context, id string, isPublic bool) error
}

// Result reports where a write ended up.
type Result struct {
	ID    string
	Local bool
}

// Recorder writes remote-first and keeps the archive in the process-local
// store when the remote side is down, unconfigured or refuses the caller.
// Validation failures are returned as is.
type Recorder struct {
	remote Remote
	local  *localstore.Store
	log    zerolog.Logger
}

// NewRecorder builds a Recorder. A nil remote keeps everything local.
func NewRecorder(remote Remote, local *localstore.Store, log zerolog.Logger) *Recorder {
	if local == nil {
		local = localstore.New()
	}
	return &Recorder{remote: remote, local: local, log: log}
}

func (r *Recorder) Local() *localstore.Store { return r.local }

func (r *Recorder) fallback(op string, err error) bool {
	if err == nil || !ShouldFallback(err) {
		return false
	}
	localFallbacksTotal.WithLabelValues(op).Inc()
	r.log.Warn().Err(err).Str("op", op).Msg("remote write failed; keeping archive locally")
	return true
}

// SaveManual records a manual entry.
func (r *Recorder) SaveManual(ctx context.Context, in model.ManualInput) (Result, error) {
	if err := model.ValidateManualInput(in); err != nil {
		return Result{}, err
	}
	if r.remote != nil {
		id, err := r.remote.CreateManual(ctx, in)
		if err == nil {
			return Result{ID: id}, nil
		}
		if !r.fallback("create_manual", err) {
			return Result{}, err
		}
	}
	id, err := r.local.AddManual(in)
	if err != nil {
		return Result{}, err
	}
	return Result{ID: id, Local: true}, nil
}

// SaveSession records the archive produced by a finished guided session.
// The remote side assigns its own id; the local copy keeps the session's.
func (r *Recorder) SaveSession(ctx context.Context, a *model.Archive) (Result, error) {
	if a == nil {
		return Result{}, errors.New("no archive to save")
	}
	if err := model.ValidateItems(a.Items); err != nil {
		return Result{}, err
	}
	if r.remote != nil {
		id, err := r.remote.CreateSession(ctx, a.Items)
		if err == nil {
			return Result{ID: id}, nil
		}
		if !r.fallback("create_session", err) {
			return Result{}, err
		}
	}
	r.local.Add(a)
	return Result{ID: a.ID, Local: true}, nil
}

// SetVisibility toggles a local archive when id is held locally, otherwise
// the remote one.
func (r *Recorder) SetVisibility(ctx context.Context, id string, isPublic bool) error {
	if _, ok := r.local.Get(id); ok || r.remote == nil {
		r.local.TogglePublic(id, isPublic)
		return nil
	}
	return r.remote.SetVisibility(ctx, id, isPublic)
}

// List returns remote archives followed by local ones. A remote read failure
// that would have triggered a write fallback yields the local list only.
func (r *Recorder) List(ctx context.Context) ([]*model.Archive, error) {
	var out []*model.Archive
	if r.remote != nil {
		remote, err := r.remote.ListMine(ctx)
		if err != nil && !ShouldFallback(err) {
			return nil, err
		}
		if err != nil {
			r.log.Warn().Err(err).Msg("remote archives unavailable")
		}
		out = append(out, remote...)
	}
	return append(out, r.local.List()...), nil
}

// Feed assembles remote public archives, the local public ones and the
// placeholders. Remote failures degrade to local entries.
func (r *Recorder) Feed(ctx context.Context, a *feed.Assembler) []feed.Entry {
	var remote []*model.PublicArchive
	if r.remote != nil {
		var err error
		if remote, err = r.remote.ListPublic(ctx); err != nil {
			r.log.Warn().Err(err).Msg("remote feed unavailable")
			remote = nil
		}
	}
	return a.Assemble(remote, r.local.ListPublic())
}
