package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func mustToken(t *testing.T, subject string, scopes ...string) string {
	t.Helper()
	token, err := IssueToken(testSecret, subject, scopes, time.Hour)
	require.NoError(t, err)
	return token
}

func TestIssueAndParseToken(t *testing.T) {
	token := mustToken(t, "operator-1", "read:batteries", "write:batteries")

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "operator-1", claims.Subject)
	assert.Equal(t, []string{"read:batteries", "write:batteries"}, claims.AllScopes())
	assert.True(t, claims.HasScope("write:batteries"))
	assert.False(t, claims.HasScope(ScopeAdmin))
}

func TestParseToken_Rejections(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "late",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, err := expired.SignedString(testSecret)
	require.NoError(t, err)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "forever"},
	})
	noExpiryToken, err := noExpiry.SignedString(testSecret)
	require.NoError(t, err)

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	noSubjectToken, err := noSubject.SignedString(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret []byte
	}{
		{name: "empty token", token: "", secret: testSecret},
		{name: "empty secret", token: mustToken(t, "x"), secret: nil},
		{name: "wrong secret", token: mustToken(t, "x"), secret: []byte("other")},
		{name: "garbage", token: "not.a.jwt", secret: testSecret},
		{name: "expired", token: expiredToken, secret: testSecret},
		{name: "missing expiry", token: noExpiryToken, secret: testSecret},
		{name: "missing subject", token: noSubjectToken, secret: testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}

func TestClaims_ScopeUnionAndAdmin(t *testing.T) {
	claims := &Claims{Scope: "read:batteries  read:batteries", Scopes: []string{"write:batteries", " "}}
	assert.Equal(t, []string{"read:batteries", "write:batteries"}, claims.AllScopes())

	admin := &Claims{Scopes: []string{ScopeAdmin}}
	assert.True(t, admin.HasScope("anything"))

	var none *Claims
	assert.False(t, none.HasScope("read:batteries"))
}

func TestParseBearerToken(t *testing.T) {
	assert.Equal(t, "abc", ParseBearerToken("Bearer abc"))
	assert.Equal(t, "abc", ParseBearerToken("  bearer   abc "))
	assert.Empty(t, ParseBearerToken("Basic abc"))
	assert.Empty(t, ParseBearerToken("Bearer"))
	assert.Empty(t, ParseBearerToken(""))
}

func TestJWTMiddleware(t *testing.T) {
	var gotSubject string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		cfg         MiddlewareConfig
		header      string
		wantStatus  int
		wantSubject string
	}{
		{name: "dev mode bypasses", cfg: MiddlewareConfig{DevMode: true}, wantStatus: http.StatusOK, wantSubject: DevSubject},
		{name: "missing token", cfg: MiddlewareConfig{Secret: testSecret}, wantStatus: http.StatusUnauthorized},
		{name: "invalid token", cfg: MiddlewareConfig{Secret: testSecret}, header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{
			name:        "internal token",
			cfg:         MiddlewareConfig{InternalToken: "shared"},
			header:      "Bearer shared",
			wantStatus:  http.StatusOK,
			wantSubject: InternalSubject,
		},
		{
			name:        "valid jwt",
			cfg:         MiddlewareConfig{Secret: testSecret, InternalToken: "shared"},
			header:      "Bearer " + mustToken(t, "operator-1", "read:batteries"),
			wantStatus:  http.StatusOK,
			wantSubject: "operator-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSubject = ""
			req := httptest.NewRequest(http.MethodGet, "/vpp/v1/batteries", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp := httptest.NewRecorder()
			JWTMiddleware(tt.cfg)(next).ServeHTTP(resp, req)

			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, tt.wantSubject, gotSubject)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.NotEmpty(t, resp.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
