// Package auth 负责注册、登录与 JWT 签发校验。
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/zhouzirui/mental-buddy/backend/internal/model/user"
	"github.com/zhouzirui/mental-buddy/backend/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// DefaultTokenTTL 与原有前端约定的 30 天登录有效期一致。
const DefaultTokenTTL = 30 * 24 * time.Hour

// FieldError 表示注册请求缺少或非法的字段。
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return e.Field + " is required"
}

// SignupRequest carries the registration form.
type SignupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
}

// Validate checks the required fields in form order.
func (r SignupRequest) Validate() error {
	checks := []struct {
		field string
		ok    bool
	}{
		{"username", strings.TrimSpace(r.Username) != ""},
		{"email", strings.Contains(r.Email, "@")},
		{"password", r.Password != ""},
		{"firstName", strings.TrimSpace(r.FirstName) != ""},
		{"lastName", strings.TrimSpace(r.LastName) != ""},
		{"age", r.Age > 0},
	}
	for _, c := range checks {
		if !c.ok {
			return &FieldError{Field: c.field}
		}
	}
	return nil
}

// Session 是登录成功后返回给客户端的令牌与用户资料。
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      user.User `json:"user"`
}

// Claims are the identity fields carried by a token.
type Claims struct {
	Username string
	Email    string
}

// Service issues and verifies HS256 tokens over a UserStore.
type Service struct {
	users  store.UserStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates the service. ttl <= 0 uses DefaultTokenTTL.
func NewService(users store.UserStore, secret []byte, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{users: users, secret: secret, ttl: ttl, now: time.Now}
}

// GenerateSecret returns 32 random bytes for a process-local signing key.
func GenerateSecret() ([]byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate jwt secret: %w", err)
	}
	return secret, nil
}

// Signup registers a user and signs them in.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (Session, error) {
	if err := req.Validate(); err != nil {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	u := &user.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Age:          req.Age,
		Gender:       strings.TrimSpace(req.Gender),
		PasswordHash: string(hash),
		CreatedAt:    now,
		LastLogin:    &now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return Session{}, err
	}

	return s.newSession(*u)
}

// Signin 校验邮箱与密码。邮箱不存在与密码错误返回同一错误。
func (s *Service) Signin(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.users.RecordLogin(ctx, u.Username, now); err != nil {
		return Session{}, err
	}
	u.LastLogin = &now

	return s.newSession(u)
}

// Verify parses token and loads its user.
func (s *Service) Verify(ctx context.Context, token string) (user.User, error) {
	claims, err := s.ParseToken(token)
	if err != nil {
		return user.User{}, err
	}
	u, err := s.users.UserByUsername(ctx, claims.Username)
	if errors.Is(err, store.ErrUserNotFound) {
		return user.User{}, ErrInvalidToken
	}
	return u, err
}

// IssueToken signs a token for u.
func (s *Service) IssueToken(u user.User) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":      u.ID,
		"username": u.Username,
		"email":    u.Email,
		"iat":      now.Unix(),
		"exp":      expires.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expires.UTC(), nil
}

// ParseToken validates signature, algorithm and expiry.
func (s *Service) ParseToken(tokenStr string) (Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	username, _ := mapClaims["username"].(string)
	if username == "" {
		return Claims{}, ErrInvalidToken
	}
	email, _ := mapClaims["email"].(string)
	return Claims{Username: username, Email: email}, nil
}

func (s *Service) newSession(u user.User) (Session, error) {
	token, expires, err := s.IssueToken(u)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expires, User: u}, nil
}
