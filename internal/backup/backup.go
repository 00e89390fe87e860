// Package backup snapshots the gestao database into a sink (a directory or
// an S3 bucket) and restores it from one.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/celerix-dev/celerix-gestao/internal/database"
)

var (
	ErrNotFound    = errors.New("backup not found")
	ErrInvalidName = errors.New("invalid backup name")
)

var nameRe = regexp.MustCompile(`^[0-9]{8}T[0-9]{6}Z-[0-9a-f-]{36}\.json$`)

// Info describes one stored backup.
type Info struct {
	Name      string    `json:"nome"`
	Size      int64     `json:"tamanho"`
	CreatedAt time.Time `json:"criadoEm"`
}

// Sink stores backup documents by name.
type Sink interface {
	Put(ctx context.Context, name string, body []byte) error
	Get(ctx context.Context, name string) (io.ReadCloser, error)
	List(ctx context.Context) ([]Info, error)
}

// Service writes and reads backups of one repository.
type Service struct {
	repo *database.Repository
	sink Sink
	log  *slog.Logger
	now  func() time.Time

	// OnResult, when set, observes every Create.
	OnResult func(err error)
}

func NewService(repo *database.Repository, sink Sink, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo: repo,
		sink: sink,
		log:  log.With(slog.String("component", "backup")),
		now:  time.Now,
	}
}

// Create writes the current database, counters included, as a new backup.
func (s *Service) Create(ctx context.Context) (info Info, err error) {
	defer func() {
		if s.OnResult != nil {
			s.OnResult(err)
		}
	}()

	db, err := s.repo.Load(ctx)
	if err != nil {
		return Info{}, err
	}
	body, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return Info{}, fmt.Errorf("encode backup: %w", err)
	}

	created := s.now().UTC()
	name := fmt.Sprintf("%s-%s.json", created.Format("20060102T150405Z"), uuid.NewString())
	if err := s.sink.Put(ctx, name, body); err != nil {
		return Info{}, fmt.Errorf("store backup %s: %w", name, err)
	}
	s.log.Info("backup written", slog.String("name", name), slog.Int("bytes", len(body)))
	return Info{Name: name, Size: int64(len(body)), CreatedAt: created}, nil
}

// List returns the stored backups, newest first.
func (s *Service) List(ctx context.Context) ([]Info, error) {
	infos, err := s.sink.List(ctx)
	if err != nil {
		return nil, err
	}
	out := infos[:0]
	for _, info := range infos {
		if nameRe.MatchString(info.Name) {
			if t, err := time.Parse("20060102T150405Z", info.Name[:16]); err == nil {
				info.CreatedAt = t
			}
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

// Restore replaces the database with the named backup.
func (s *Service) Restore(ctx context.Context, name string) error {
	if !nameRe.MatchString(name) {
		return ErrInvalidName
	}
	rc, err := s.sink.Get(ctx, name)
	if err != nil {
		return err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read backup %s: %w", name, err)
	}
	db := &database.StoredDatabase{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(db); err != nil {
		return fmt.Errorf("decode backup %s: %w", name, err)
	}
	err = s.repo.Replace(ctx, db, func(db *database.StoredDatabase) {
		s.repo.AppendLog(ctx, db, "backup.restore", "Restauração do backup "+name)
	})
	if err != nil {
		return err
	}
	s.log.Info("backup restored", slog.String("name", name), slog.String("user", database.ActorFrom(ctx)))
	return nil
}
