package service

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admission-api/internal/models"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
)

func signToken(t *testing.T, secret string, claims *models.JWTClaims, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestIdentityServiceValidateToken(t *testing.T) {
	svc := NewIdentityService(IdentityConfig{AccessTokenSecret: "secret", Issuer: "idp"})
	token := signToken(t, "secret", &models.JWTClaims{
		UserID: "user-1", TenantID: "t1", Role: models.RoleGuardian,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "idp", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}, jwt.SigningMethodHS256)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "t1", claims.TenantID)
}

func TestIdentityServiceRejectsBadTokens(t *testing.T) {
	svc := NewIdentityService(IdentityConfig{AccessTokenSecret: "secret", Issuer: "idp"})

	cases := map[string]string{
		"wrong secret": signToken(t, "other", &models.JWTClaims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{Issuer: "idp"}}, jwt.SigningMethodHS256),
		"wrong issuer": signToken(t, "secret", &models.JWTClaims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{Issuer: "evil"}}, jwt.SigningMethodHS256),
		"expired": signToken(t, "secret", &models.JWTClaims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "idp", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}, jwt.SigningMethodHS256),
		"no subject": signToken(t, "secret", &models.JWTClaims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "idp"}}, jwt.SigningMethodHS256),
		"garbage":    "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
		})
	}
}

func TestIdentityServiceRedirectURLs(t *testing.T) {
	svc := NewIdentityService(IdentityConfig{SignInURL: "https://idp.example.com/sign-in?app=admission", ReturnBaseURL: "https://school.example.com/enroll/"})

	returnTo := svc.ReturnURL("t1", "ticket-1")
	assert.Equal(t, "https://school.example.com/enroll/t1?resume=ticket-1", returnTo)

	signIn, err := url.Parse(svc.SignInURL(returnTo))
	require.NoError(t, err)
	assert.Equal(t, "admission", signIn.Query().Get("app"))
	assert.Equal(t, returnTo, signIn.Query().Get("return_to"))
}
