package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/celerix-dev/celerix-gestao/internal/database"
	"github.com/celerix-dev/celerix-gestao/internal/validation"
	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

const MinPasswordLen = 6

// UserInput is what callers send to create or edit an admin user. An empty
// Password on update keeps the current one.
type UserInput struct {
	Name     string `json:"nome"`
	Login    string `json:"usuario"`
	Email    string `json:"email"`
	Role     string `json:"perfil"`
	Active   *bool  `json:"ativo"`
	Password string `json:"senha"`
}

// UserView is an admin user without its password hash.
type UserView struct {
	ID        string `json:"id"`
	Name      string `json:"nome"`
	Login     string `json:"usuario"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"perfil"`
	Active    bool   `json:"ativo"`
	CreatedAt string `json:"criadoEm,omitempty"`
}

func userView(u schema.AdminUser) UserView {
	return UserView{
		ID:        u.ID,
		Name:      u.Name,
		Login:     u.Login,
		Email:     u.Email,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// UserService manages the admin user registry.
type UserService struct {
	repo *database.Repository
	v    *validation.Validator
	log  *slog.Logger
	now  func() time.Time
	cost int
}

func NewUserService(repo *database.Repository, v *validation.Validator, log *slog.Logger, now func() time.Time) *UserService {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		repo: repo,
		v:    v,
		log:  log.With(slog.String("collection", database.CollUsers)),
		now:  now,
		cost: bcrypt.DefaultCost,
	}
}

// SetHashCost overrides the bcrypt cost.
func (s *UserService) SetHashCost(cost int) { s.cost = cost }

func (s *UserService) List(ctx context.Context, p ListParams) (Page[UserView], error) {
	users, err := database.List(ctx, s.repo, database.Users)
	if err != nil {
		return Page[UserView]{}, err
	}
	users = Match(users, p.Filters, func(u schema.AdminUser) map[string]string {
		return map[string]string{"perfil": u.Role, "ativo": fmt.Sprint(u.Active)}
	})
	users = Filter(users, p.Query, func(u schema.AdminUser) []string {
		return []string{u.Name, u.Login, u.Email}
	})
	page := Paginate(users, p.Page, p.PageSize)
	out := Page[UserView]{Items: make([]UserView, 0, len(page.Items)), Total: page.Total, Page: page.Page, PageSize: page.PageSize, Pages: page.Pages}
	for _, u := range page.Items {
		out.Items = append(out.Items, userView(u))
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, id string) (UserView, error) {
	u, err := database.Find(ctx, s.repo, database.Users, id)
	if err != nil {
		return UserView{}, err
	}
	return userView(u), nil
}

// FindByLogin returns the full record, hash included, for authentication.
func (s *UserService) FindByLogin(ctx context.Context, login string) (schema.AdminUser, error) {
	users, err := database.List(ctx, s.repo, database.Users)
	if err != nil {
		return schema.AdminUser{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Login, strings.TrimSpace(login)) {
			return u, nil
		}
	}
	return schema.AdminUser{}, notFound(database.CollUsers, login)
}

func (s *UserService) Create(ctx context.Context, in UserInput) (UserView, error) {
	if len(in.Password) < MinPasswordLen {
		return UserView{}, validation.Field("senha", fmt.Sprintf("mínimo de %d caracteres", MinPasswordLen))
	}
	u := schema.AdminUser{
		Name:      strings.TrimSpace(in.Name),
		Login:     strings.ToLower(strings.TrimSpace(in.Login)),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Role:      in.Role,
		Active:    in.Active == nil || *in.Active,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}
	if u.Role == "" {
		u.Role = schema.RoleOperator
	}
	if err := s.v.Struct(u); err != nil {
		return UserView{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return UserView{}, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)

	created, err := database.Add(ctx, s.repo, database.Users, u, uniqueLogin)
	if err != nil {
		return UserView{}, err
	}
	s.log.Info("user created", slog.String("login", created.Login), slog.String("user", database.ActorFrom(ctx)))
	return userView(created), nil
}

func (s *UserService) Update(ctx context.Context, id string, in UserInput) (UserView, error) {
	if in.Password != "" && len(in.Password) < MinPasswordLen {
		return UserView{}, validation.Field("senha", fmt.Sprintf("mínimo de %d caracteres", MinPasswordLen))
	}
	current, err := database.Find(ctx, s.repo, database.Users, id)
	if err != nil {
		return UserView{}, err
	}

	u := current
	u.Name = strings.TrimSpace(in.Name)
	u.Login = strings.ToLower(strings.TrimSpace(in.Login))
	u.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role != "" {
		u.Role = in.Role
	}
	if in.Active != nil {
		u.Active = *in.Active
	}
	if err := s.v.Struct(u); err != nil {
		return UserView{}, err
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
		if err != nil {
			return UserView{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}

	updated, err := database.Put(ctx, s.repo, database.Users, u, uniqueLogin, keepAnAdmin)
	if err != nil {
		return UserView{}, err
	}
	return userView(updated), nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.repo.Update(ctx, func(db *database.StoredDatabase) error {
		target, ok := database.Users.Lookup(db, id)
		if !ok {
			return notFound(database.CollUsers, id)
		}
		if isActiveAdmin(target) && activeAdmins(db, id) == 0 {
			return ErrLastAdmin
		}
		if _, err := database.Users.Remove(db, id); err != nil {
			return err
		}
		s.repo.AppendLog(ctx, db, database.CollUsers+".delete", "Exclusão de usuário "+target.Login+" (id "+id+")")
		return nil
	})
}

func uniqueLogin(db *database.StoredDatabase, u schema.AdminUser) error {
	for _, other := range db.Users {
		if other.ID != u.ID && strings.EqualFold(other.Login, u.Login) {
			return validation.Field("usuario", "usuário já cadastrado")
		}
	}
	return nil
}

// keepAnAdmin rejects demoting or deactivating the last active admin.
func keepAnAdmin(db *database.StoredDatabase, u schema.AdminUser) error {
	current, ok := database.Users.Lookup(db, u.ID)
	if !ok || !isActiveAdmin(current) || isActiveAdmin(u) {
		return nil
	}
	if activeAdmins(db, u.ID) == 0 {
		return ErrLastAdmin
	}
	return nil
}

func isActiveAdmin(u schema.AdminUser) bool {
	return u.Active && u.Role == schema.RoleAdmin
}

func activeAdmins(db *database.StoredDatabase, exceptID string) int {
	n := 0
	for _, u := range db.Users {
		if u.ID != exceptID && isActiveAdmin(u) {
			n++
		}
	}
	return n
}
