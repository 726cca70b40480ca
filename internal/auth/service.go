// Package auth はパスワード認証、ベアラートークンの発行・検証、外部IdPログインを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/complementai/internal/model"
	"github.com/hitoshi/complementai/internal/repository"
	"github.com/hitoshi/complementai/internal/security"
)

// maxNameLength はfirst_name/last_nameカラムの長さ。
const maxNameLength = 100

// Session はログイン成功時に返すユーザーとベアラートークンの組。
type Session struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// RegisterInput は新規登録の入力。
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth     OAuthProvider // Googleログインが無効な場合はnil
	userRepo  repository.UserRepository
	identRepo repository.IdentityRepository
	tokens    *TokenManager
	sanitizer security.TextSanitizer
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	userRepo repository.UserRepository,
	identRepo repository.IdentityRepository,
	tokens *TokenManager,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		oauth:     oauth,
		userRepo:  userRepo,
		identRepo: identRepo,
		tokens:    tokens,
		sanitizer: sanitizer,
	}
}

// Register はメールアドレスとパスワードでユーザーを作成し、トークンを発行する。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < MinPasswordLength {
		return nil, model.NewValidationError("Password must be at least %d characters.", MinPasswordLength)
	}
	if len(in.Password) > MaxPasswordBytes {
		return nil, model.NewValidationError("Password must be at most %d bytes.", MaxPasswordBytes)
	}
	firstName := s.sanitizer.Clean(in.FirstName)
	lastName := s.sanitizer.Clean(in.LastName)
	if utf8.RuneCountInString(firstName) > maxNameLength || utf8.RuneCountInString(lastName) > maxNameLength {
		return nil, model.NewValidationError("Names must be at most %d characters.", maxNameLength)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Theme:        model.ThemeSystem,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", slog.Int64("user_id", user.ID))
	return s.issue(user)
}

// Login はメールアドレスとパスワードを検証してトークンを発行する。
// メールアドレスの存在有無にかかわらず同じエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	hash := ""
	if user != nil {
		hash = user.PasswordHash
	}
	ok, err := CheckPassword(hash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.Info("login failed", slog.Bool("user_exists", user != nil))
		return nil, model.NewInvalidCredentialsError()
	}

	return s.issue(user)
}

// OAuthEnabled は外部IdPログインが構成されているかを返す。
func (s *Service) OAuthEnabled() bool {
	return s.oauth != nil
}

// GetLoginURL は外部IdPの認可URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理し、トークンを発行する。
// identityが登録済みならそのユーザー、未登録で検証済みメールが既存ユーザーと一致すれば紐付け、
// どちらでもなければユーザーとidentityを同時に作成する。
func (s *Service) HandleCallback(ctx context.Context, code string) (*Session, error) {
	info, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	identity, err := s.identRepo.FindByProviderAndProviderUserID(ctx, info.Provider, info.ProviderUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}

	if identity != nil {
		user, err := s.userRepo.FindByID(ctx, identity.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		if user == nil {
			return nil, model.NewUserNotFoundError()
		}
		slog.Info("existing user logged in",
			slog.Int64("user_id", user.ID),
			slog.String("provider", info.Provider),
		)
		return s.issue(user)
	}

	if info.EmailVerified && info.Email != "" {
		existing, err := s.userRepo.FindByEmail(ctx, info.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to find user by email: %w", err)
		}
		if existing != nil {
			link := &model.Identity{UserID: existing.ID, Provider: info.Provider, ProviderUserID: info.ProviderUserID}
			if err := s.identRepo.Create(ctx, link); err != nil {
				return nil, fmt.Errorf("failed to link identity: %w", err)
			}
			slog.Info("identity linked to existing user",
				slog.Int64("user_id", existing.ID),
				slog.String("provider", info.Provider),
			)
			return s.issue(existing)
		}
	}

	user := &model.User{
		Email:     info.Email,
		FirstName: s.sanitizer.Clean(info.GivenName),
		LastName:  s.sanitizer.Clean(info.FamilyName),
		Theme:     model.ThemeSystem,
	}
	identity = &model.Identity{Provider: info.Provider, ProviderUserID: info.ProviderUserID}
	if err := s.userRepo.CreateWithIdentity(ctx, user, identity); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create user and identity: %w", err)
	}

	slog.Info("new user created",
		slog.Int64("user_id", user.ID),
		slog.String("provider", info.Provider),
	)
	return s.issue(user)
}

func (s *Service) issue(user *model.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// normalizeEmail はメールアドレスを検証し、前後の空白を除いたアドレス部分を返す。
func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", model.NewValidationError("Email is required.")
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw || len(raw) > 255 {
		return "", model.NewValidationError("Email %q is not a valid address.", raw)
	}
	return addr.Address, nil
}
