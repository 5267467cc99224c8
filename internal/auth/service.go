package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/inamate/rig/internal/typeid"
)

var (
	ErrInvalidAccessKey = errors.New("invalid access key")
	ErrInvalidToken     = errors.New("invalid token")
)

// Session identifies one editor connected to the process.
type Session struct {
	ID        string    `json:"id"`
	EditorID  string    `json:"editorId"`
	Editor    string    `json:"editor"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Service struct {
	secret    []byte
	ttl       time.Duration
	accessKey string
	now       func() time.Time
}

// NewService signs sessions with secret. An empty accessKey lets anyone open
// a session.
func NewService(secret string, ttl time.Duration, accessKey string) *Service {
	return &Service{
		secret:    []byte(secret),
		ttl:       ttl,
		accessKey: accessKey,
		now:       time.Now,
	}
}

// OpenSession checks the access key and issues a token for editor.
func (s *Service) OpenSession(editor, accessKey string) (string, Session, error) {
	if s.accessKey != "" && subtle.ConstantTimeCompare([]byte(accessKey), []byte(s.accessKey)) != 1 {
		return "", Session{}, ErrInvalidAccessKey
	}
	return s.IssueToken(editor)
}

func (s *Service) IssueToken(editor string) (string, Session, error) {
	now := s.now()
	session := Session{
		ID:        typeid.NewSessionID(),
		EditorID:  uuid.New().String(),
		Editor:    editor,
		ExpiresAt: now.Add(s.ttl).UTC().Truncate(time.Second),
	}
	claims := jwt.MapClaims{
		"jti":  session.ID,
		"sub":  session.EditorID,
		"name": editor,
		"iat":  now.Unix(),
		"exp":  session.ExpiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, session, nil
}

func (s *Service) ValidateToken(tokenString string) (Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Session{}, ErrInvalidToken
	}

	id, _ := claims["jti"].(string)
	if err := typeid.Validate(id, typeid.PrefixSession); err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	editorID, ok := claims["sub"].(string)
	if !ok {
		return Session{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	name, _ := claims["name"].(string)
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return Session{}, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}

	return Session{
		ID:        id,
		EditorID:  editorID,
		Editor:    name,
		ExpiresAt: exp.UTC(),
	}, nil
}
