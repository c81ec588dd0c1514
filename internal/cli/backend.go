package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"restaurant_reviews/internal/adapters/apiclient"
	"restaurant_reviews/internal/adapters/observability"
	"restaurant_reviews/internal/app"
	"restaurant_reviews/internal/domain"
	"restaurant_reviews/internal/shared"
	"restaurant_reviews/internal/storage"
)

// backend is what the commands drive: either a local manager or the API.
type backend interface {
	List(ctx context.Context) ([]domain.Review, error)
	Get(ctx context.Context, id int64) (domain.Review, error)
	Add(ctx context.Context, in domain.ReviewInput) (domain.Review, error)
	Update(ctx context.Context, id int64, in domain.ReviewInput) (domain.Review, error)
	Delete(ctx context.Context, id int64) error
}

type localBackend struct{ m *app.ReviewManager }

func (l localBackend) List(ctx context.Context) ([]domain.Review, error) {
	return l.m.GetReviews(), nil
}

func (l localBackend) Get(ctx context.Context, id int64) (domain.Review, error) {
	r, ok := l.m.GetReview(id)
	if !ok {
		return domain.Review{}, domain.ErrNotFound
	}
	return r, nil
}

func (l localBackend) Add(ctx context.Context, in domain.ReviewInput) (domain.Review, error) {
	return l.m.AddReview(ctx, in)
}

func (l localBackend) Update(ctx context.Context, id int64, in domain.ReviewInput) (domain.Review, error) {
	found, err := l.m.UpdateReview(ctx, id, in)
	if err != nil {
		return domain.Review{}, err
	}
	if !found {
		return domain.Review{}, domain.ErrNotFound
	}
	r, _ := l.m.GetReview(id)
	return r, nil
}

func (l localBackend) Delete(ctx context.Context, id int64) error {
	n, err := l.m.DeleteReview(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, apiclient.ErrNotFound)
}

// session bundles an opened backend with what must be released afterwards.
type session struct {
	b      backend
	m      *app.ReviewManager // nil when remote
	cfg    shared.Config
	closer io.Closer
}

func (s *session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func openSession(ctx context.Context, o *options) (*session, error) {
	cfg := shared.Load()
	if o.file != "" {
		cfg.StoreDriver = shared.DriverFile
		cfg.ReviewsFile = o.file
	}
	if o.policy != "" {
		p := strings.ToLower(strings.TrimSpace(o.policy))
		switch p {
		case shared.PolicyBestEffort, shared.PolicyFailFast:
		default:
			return nil, usageErr("invalid --policy %q: want %s or %s", o.policy, shared.PolicyBestEffort, shared.PolicyFailFast)
		}
		cfg.ErrorPolicy = p
	}
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	if o.server != "" {
		cl, err := apiclient.New(o.server, cfg.APIRPS)
		if err != nil {
			return nil, err
		}
		return &session{b: cl, cfg: cfg}, nil
	}

	st, closer, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	m, err := app.NewReviewManager(ctx, st, app.WithPolicy(app.ParsePolicy(cfg.ErrorPolicy)))
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	return &session{b: localBackend{m: m}, m: m, cfg: cfg, closer: closer}, nil
}
