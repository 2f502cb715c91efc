package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/sma-admission-api/internal/models"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
)

// IdentityConfig describes the external identity provider.
type IdentityConfig struct {
	AccessTokenSecret string
	Issuer            string
	Audience          []string
	SignInURL         string
	ReturnBaseURL     string
}

// IdentityService validates tokens minted by the identity provider and builds the
// redirect URLs used when an anonymous caller confirms the wizard.
type IdentityService struct {
	config IdentityConfig
}

// NewIdentityService constructs an IdentityService.
func NewIdentityService(config IdentityConfig) *IdentityService {
	return &IdentityService{config: config}
}

// ValidateToken parses and verifies a bearer token.
func (s *IdentityService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	for _, aud := range s.config.Audience {
		opts = append(opts, jwt.WithAudience(aud))
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// ReturnURL is where the identity provider sends the user after sign-in.
func (s *IdentityService) ReturnURL(tenantID, ticket string) string {
	base := strings.TrimRight(s.config.ReturnBaseURL, "/")
	return fmt.Sprintf("%s/%s?resume=%s", base, url.PathEscape(tenantID), url.QueryEscape(ticket))
}

// SignInURL builds the redirect to the identity provider carrying the return destination.
func (s *IdentityService) SignInURL(returnTo string) string {
	target := s.config.SignInURL
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + "return_to=" + url.QueryEscape(returnTo)
}
