package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/inamate/geoshape/internal/typeid"
)

// AnonymousViewer is the viewer ID used when API keys are not configured.
const AnonymousViewer = "anonymous"

const DefaultTokenTTL = 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAuthDisabled       = errors.New("api key authentication not configured")
)

// Service exchanges API keys for signed bearer tokens. With no API key
// hash configured every request is treated as the anonymous viewer.
type Service struct {
	apiKeyHash []byte
	jwtSecret  []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewService(apiKeyHash, jwtSecret string) *Service {
	return &Service{
		apiKeyHash: []byte(apiKeyHash),
		jwtSecret:  []byte(jwtSecret),
		ttl:        DefaultTokenTTL,
		now:        time.Now,
	}
}

type TokenResult struct {
	Token     string    `json:"token"`
	ViewerID  string    `json:"viewerId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Viewer is the identity carried by a validated token.
type Viewer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Service) Enabled() bool { return len(s.apiKeyHash) > 0 }

// IssueToken checks apiKey against the configured hash and returns a token
// for a new viewer identity named name.
func (s *Service) IssueToken(name, apiKey string) (*TokenResult, error) {
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}
	if err := bcrypt.CompareHashAndPassword(s.apiKeyHash, []byte(apiKey)); err != nil {
		return nil, ErrInvalidCredentials
	}

	viewerID := typeid.NewViewerID()
	now := s.now()
	exp := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":  viewerID,
		"name": name,
		"jti":  typeid.NewTokenID(),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &TokenResult{Token: signed, ViewerID: viewerID, ExpiresAt: exp.UTC().Truncate(time.Second)}, nil
}

func (s *Service) ValidateToken(tokenString string) (*Viewer, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	viewerID, ok := claims["sub"].(string)
	if !ok {
		return nil, errors.New("invalid token subject")
	}
	if err := typeid.Validate(viewerID, typeid.PrefixViewer); err != nil {
		return nil, fmt.Errorf("invalid token subject: %w", err)
	}
	name, _ := claims["name"].(string)

	return &Viewer{ID: viewerID, Name: name}, nil
}
