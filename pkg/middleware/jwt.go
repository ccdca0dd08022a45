package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL は発行するトークンの有効期間。
const TokenTTL = time.Hour

// HeaderAuthorization はトークンを運ぶHTTPヘッダー。
// 値は署名済みトークンそのもの。"Bearer " 接頭辞付きも受け付ける。
const HeaderAuthorization = "Authorization"

// contextKeyIdentity はGinコンテキストに検証済みIDを格納するキー。
const contextKeyIdentity = "identity"

// ErrInvalidToken はトークンの形式・署名・有効期限のいずれかが不正であることを表す。
var ErrInvalidToken = errors.New("invalid token")

// Identity はトークンから取り出した呼び出し元ユーザー。
type Identity struct {
	// UserID はユーザーの一意識別子。
	UserID string `json:"user_id"`
	// Email はユーザーのメールアドレス。
	Email string `json:"email"`
}

// Claims はトークンのクレーム（ペイロード）を表す。
type Claims struct {
	jwt.RegisteredClaims
	// UserID は認証済みユーザーの一意識別子。
	UserID string `json:"user_id"`
	// Email はユーザーのメールアドレス。
	Email string `json:"email"`
}

// TokenService はHS256で署名した有効期限付きトークンを発行・検証する。
// 秘密鍵は起動時に設定から渡される。
type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// TokenOption はTokenServiceの設定を変更する。
type TokenOption func(*TokenService)

// WithClock は現在時刻の取得関数を差し替える。テストで有効期限を検証するために使う。
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// WithIssuer はissクレームの値を設定する。
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) { s.issuer = issuer }
}

// NewTokenService は新しいTokenServiceを生成する。
func NewTokenService(secret string, opts ...TokenOption) *TokenService {
	s := &TokenService{
		secret: []byte(secret),
		issuer: "todo-api",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue はユーザーIDとメールアドレスを埋め込んだトークンを発行する。
// 有効期限は発行時刻のちょうど1時間後。
func (s *TokenService) Issue(userID, email string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
		UserID: userID,
		Email:  email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、埋め込まれたIDを返す。
// 署名不一致・形式不正・有効期限到達（現在時刻 >= exp）の場合は ErrInvalidToken を返す。
func (s *TokenService) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(_ *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return Identity{}, fmt.Errorf("%w: user_idがありません", ErrInvalidToken)
	}
	return Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

// Verifier はトークンを検証する。TokenServiceが実装する。
type Verifier interface {
	Verify(tokenString string) (Identity, error)
}

// Auth はトークンを検証するGinミドルウェアを返す。
// トークンがない場合は401、検証に失敗した場合は400で処理を打ち切る。
// 成功した場合は検証済みIdentityをコンテキストに設定する。
// ユーザーストアは参照せず、トークンの検証結果のみを信頼する。
func Auth(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromHeader(c.GetHeader(HeaderAuthorization))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Access Denied. No token provided.",
			})
			return
		}

		identity, err := v.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Invalid token.",
			})
			return
		}

		SetIdentity(c, identity)
		c.Next()
	}
}

// tokenFromHeader はヘッダー値からトークン部分を取り出す。
func tokenFromHeader(value string) string {
	value = strings.TrimSpace(value)
	if rest, ok := strings.CutPrefix(value, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}
	return value
}

// GetIdentity はGinコンテキストから検証済みIdentityを取得する。
// Authミドルウェアが事前に適用されていない場合はfalseを返す。
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(contextKeyIdentity)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}

// SetIdentity はGinコンテキストにIdentityを設定する。
func SetIdentity(c *gin.Context, identity Identity) {
	c.Set(contextKeyIdentity, identity)
}
