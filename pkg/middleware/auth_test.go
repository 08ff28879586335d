package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeValidator(token string) (*Claims, error) {
	switch token {
	case "customer-token":
		return &Claims{UserID: "u1", SessionID: "s1", Role: "customer"}, nil
	case "admin-token":
		return &Claims{UserID: "a1", SessionID: "s2", Role: "admin"}, nil
	}
	return nil, errors.New("invalid token")
}

func withAuthHeader(value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if value != "" {
		req.Header.Set("Authorization", value)
	}
	return req
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer   ", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		token, ok := BearerToken(withAuthHeader(tc.header))
		assert.Equal(t, tc.ok, ok, tc.header)
		assert.Equal(t, tc.token, token, tc.header)
	}
}

func TestAuth(t *testing.T) {
	var got *Claims
	handler := Auth(fakeValidator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClaimsFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withAuthHeader(""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withAuthHeader("Bearer forged"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withAuthHeader("Bearer customer-token"))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
}

func TestOptionalAuth_PassesAnonymousThrough(t *testing.T) {
	var got *Claims
	calls := 0
	handler := OptionalAuth(fakeValidator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		got = ClaimsFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), withAuthHeader("Bearer forged"))
	assert.Nil(t, got)

	handler.ServeHTTP(httptest.NewRecorder(), withAuthHeader("Bearer customer-token"))
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, 2, calls)
}

func TestRequireRole(t *testing.T) {
	handler := OptionalAuth(fakeValidator)(RequireRole("admin")(okHandler()))

	tests := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer customer-token", http.StatusForbidden},
		{"Bearer admin-token", http.StatusOK},
	}

	for _, tc := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, withAuthHeader(tc.header))
		assert.Equal(t, tc.want, rec.Code, tc.header)
	}
}
