package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ScopeExport = "export"

	ExportPath = "/api/v1/export/transactions"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// TokenManager выпускает и проверяет короткоживущие ссылки на выгрузку.
type TokenManager struct {
	secret    []byte
	issuer    string
	ttl       time.Duration
	publicURL string
	now       func() time.Time
}

// NewTokenManager инициализирует менеджер JWT токенов выгрузки.
func NewTokenManager(secret, issuer string, ttl time.Duration, publicURL string) *TokenManager {
	return &TokenManager{
		secret:    []byte(secret),
		issuer:    issuer,
		ttl:       ttl,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// NewExportToken создает токен выгрузки для владельца.
func (m *TokenManager) NewExportToken(userID int64) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		Scope: ScopeExport,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// ParseExportToken валидирует токен и возвращает идентификатор владельца.
func (m *TokenManager) ParseExportToken(tokenString string) (int64, error) {
	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Scope != ScopeExport {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	return userID, nil
}

// ExportLink возвращает ссылку на выгрузку и срок ее действия.
func (m *TokenManager) ExportLink(userID int64) (string, time.Duration, error) {
	token, _, err := m.NewExportToken(userID)
	if err != nil {
		return "", 0, err
	}

	query := url.Values{"token": []string{token}}
	return m.publicURL + ExportPath + "?" + query.Encode(), m.ttl, nil
}
