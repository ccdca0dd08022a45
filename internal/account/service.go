// Package account はユーザー登録とログインを提供する。
//
// パスワードはSHA-256で固定長に縮めてからbcryptでハッシュ化して保存し、
// 平文は保持しない。bcryptの72バイト制限は利用者から見えない。
// ログインに成功するとTokenServiceで1時間有効なトークンを発行する。
package account

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/todo/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost はパスワードハッシュのコスト。
const bcryptCost = 10

var (
	// ErrValidation は必須項目が欠けていることを表す。
	ErrValidation = errors.New("email and password are required")
	// ErrInvalidPassword はパスワードが一致しないことを表す。
	ErrInvalidPassword = errors.New("invalid password")
)

// TokenIssuer はユーザーのトークンを発行する。
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

// Service はユーザー登録とログインを扱う。
type Service struct {
	users  store.UserStore
	tokens TokenIssuer
	cost   int
	now    func() time.Time
}

// Option はServiceの設定を変更する。
type Option func(*Service)

// WithBcryptCost はbcryptのコストを変更する。テストで処理時間を短縮するために使う。
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService は新しいServiceを生成する。
func NewService(users store.UserStore, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		users:  users,
		tokens: tokens,
		cost:   bcryptCost,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register はユーザーを登録し、新しいユーザーIDを返す。
// メールアドレスかパスワードが空の場合は ErrValidation、
// 既に登録済みの場合は store.ErrDuplicateEmail を返す。いずれも何も書き込まない。
func (s *Service) Register(ctx context.Context, email, password string) (string, error) {
	if missingCredentials(email, password) {
		return "", ErrValidation
	}

	hash, err := bcrypt.GenerateFromPassword(passwordKey(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}

	user := store.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return "", err
	}
	return user.ID, nil
}

// FindByEmail はメールアドレスでユーザーを取得する。存在しない場合は store.ErrNotFound を返す。
func (s *Service) FindByEmail(ctx context.Context, email string) (store.User, error) {
	return s.users.GetUserByEmail(ctx, email)
}

// Login はメールアドレスとパスワードを照合し、トークンを返す。
// ユーザーが存在しない場合は store.ErrNotFound、パスワードが一致しない場合は ErrInvalidPassword を返す。
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if missingCredentials(email, password) {
		return "", ErrValidation
	}

	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), passwordKey(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", ErrInvalidPassword
		}
		return "", fmt.Errorf("パスワードの照合に失敗: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", err
	}
	return token, nil
}

// missingCredentials は登録とログインで共通の必須項目チェック。
func missingCredentials(email, password string) bool {
	return strings.TrimSpace(email) == "" || password == ""
}

// passwordKey はbcryptに渡す鍵を返す。
// SHA-256のbase64表現は44バイトなので、どの長さのパスワードも72バイト制限に収まる。
// 生のダイジェストはNULバイトを含み得るためbase64にする。
func passwordKey(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
