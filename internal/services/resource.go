package services

import (
	"context"
	"log/slog"

	"github.com/celerix-dev/celerix-gestao/internal/database"
	"github.com/celerix-dev/celerix-gestao/internal/validation"
)

// ResourceOptions customizes a Resource. Every hook is optional.
type ResourceOptions[T, V any] struct {
	// Normalize runs before validation on create and update.
	Normalize func(rec *T)
	// Checks run against the loaded database inside the write.
	Checks []database.Check[T]
	// Search returns the text a query is matched against.
	Search func(rec T) []string
	// Fields returns the values exact filters are compared to.
	Fields func(rec T) map[string]string
	// View enriches a record for output.
	View func(res *Resolver, rec T) V
}

// Resource is validated CRUD over one collection, returning records as V.
type Resource[T, V any] struct {
	repo *database.Repository
	coll database.Collection[T]
	v    *validation.Validator
	log  *slog.Logger
	opts ResourceOptions[T, V]
}

func NewResource[T, V any](repo *database.Repository, coll database.Collection[T], v *validation.Validator, log *slog.Logger, opts ResourceOptions[T, V]) *Resource[T, V] {
	if log == nil {
		log = slog.Default()
	}
	return &Resource[T, V]{
		repo: repo,
		coll: coll,
		v:    v,
		log:  log.With(slog.String("collection", coll.Name)),
		opts: opts,
	}
}

// Name is the collection name.
func (s *Resource[T, V]) Name() string { return s.coll.Name }

func (s *Resource[T, V]) view(res *Resolver, rec T) V {
	if s.opts.View != nil {
		return s.opts.View(res, rec)
	}
	// V is T when no view is configured.
	return any(rec).(V)
}

func (s *Resource[T, V]) List(ctx context.Context, p ListParams) (Page[V], error) {
	db, err := s.repo.Load(ctx)
	if err != nil {
		return Page[V]{}, err
	}
	items := s.coll.Items(db)
	items = Match(items, p.Filters, s.opts.Fields)
	items = Filter(items, p.Query, s.opts.Search)

	page := Paginate(items, p.Page, p.PageSize)
	res := NewResolver(db)
	out := Page[V]{
		Items:    make([]V, 0, len(page.Items)),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
		Pages:    page.Pages,
	}
	for _, rec := range page.Items {
		out.Items = append(out.Items, s.view(res, rec))
	}
	return out, nil
}

func (s *Resource[T, V]) Get(ctx context.Context, id string) (V, error) {
	db, err := s.repo.Load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	rec, ok := s.coll.Lookup(db, id)
	if !ok {
		var zero V
		return zero, notFound(s.coll.Name, id)
	}
	return s.view(NewResolver(db), rec), nil
}

func (s *Resource[T, V]) Create(ctx context.Context, rec T) (V, error) {
	rec = s.coll.WithID(rec, "")
	if err := s.prepare(&rec); err != nil {
		var zero V
		return zero, err
	}
	created, err := database.Add(ctx, s.repo, s.coll, rec, s.opts.Checks...)
	if err != nil {
		var zero V
		return zero, err
	}
	s.log.Info("record created", slog.String("id", s.coll.ID(created)), slog.String("user", database.ActorFrom(ctx)))
	return s.reload(ctx, created)
}

func (s *Resource[T, V]) Update(ctx context.Context, id string, rec T) (V, error) {
	rec = s.coll.WithID(rec, id)
	if err := s.prepare(&rec); err != nil {
		var zero V
		return zero, err
	}
	updated, err := database.Put(ctx, s.repo, s.coll, rec, s.opts.Checks...)
	if err != nil {
		var zero V
		return zero, err
	}
	s.log.Info("record updated", slog.String("id", id), slog.String("user", database.ActorFrom(ctx)))
	return s.reload(ctx, updated)
}

func (s *Resource[T, V]) Delete(ctx context.Context, id string) error {
	if err := database.Delete(ctx, s.repo, s.coll, id); err != nil {
		return err
	}
	s.log.Info("record deleted", slog.String("id", id), slog.String("user", database.ActorFrom(ctx)))
	return nil
}

func (s *Resource[T, V]) prepare(rec *T) error {
	if s.opts.Normalize != nil {
		s.opts.Normalize(rec)
	}
	return s.v.Struct(*rec)
}

// reload renders rec with lookups resolved against the stored state.
func (s *Resource[T, V]) reload(ctx context.Context, rec T) (V, error) {
	if s.opts.View == nil {
		return s.view(nil, rec), nil
	}
	db, err := s.repo.Load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	return s.view(NewResolver(db), rec), nil
}
