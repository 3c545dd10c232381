package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterThenProfile(t *testing.T) {
	env := newEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "Carol@Example.com", "password": "Str0ng-Pass!", "name": "Carol",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	assert.True(t, body.Status)
	assert.Equal(t, http.StatusCreated, body.StatusCode)
	assert.Equal(t, "User registered successfully", body.Message)

	var d struct {
		User struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
		Token string `json:"token"`
	}
	body.into(t, &d)
	assert.Equal(t, "carol@example.com", d.User.Email)
	require.NotEmpty(t, d.Token)

	resp, body = env.do(t, http.MethodGet, "/api/auth/profile", nil, withToken(d.Token))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var prof struct {
		Email     string           `json:"email"`
		Addresses []map[string]any `json:"addresses"`
	}
	body.into(t, &prof)
	assert.Equal(t, "carol@example.com", prof.Email)
	assert.NotNil(t, prof.Addresses)
}

func TestRegisterDuplicateAndWeakPassword(t *testing.T) {
	env := newEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "alice@bikeshop.test", "password": "Str0ng-Pass!",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, body.Status)
	assert.Equal(t, "Registration failed", body.Message)
	assert.Contains(t, body.errors(t)["email"], "A user with this email already exists.")

	resp, body = env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "dave@example.com", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body.errors(t)["password"])
}

func TestLoginFailureIsGenericAndLogged(t *testing.T) {
	env := newEnv(t)
	buf := captureLogs(t)

	for _, creds := range []map[string]string{
		{"email": "alice@bikeshop.test", "password": "wrong"},
		{"email": "nobody@bikeshop.test", "password": demoPassword},
	} {
		resp, body := env.do(t, http.MethodPost, "/api/auth/login", creds)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid credentials", body.Message)
		assert.Equal(t, []string{"Invalid email or password."}, body.errors(t)["non_field_errors"])
	}

	l, found := findLog(buf, "auth.login.fail")
	require.True(t, found, "expected auth.login.fail in logs")
	assert.Equal(t, "warn", l.Level)
}

func TestMalformedBodyIsValidationError(t *testing.T) {
	env := newEnv(t)
	resp, body := env.do(t, http.MethodPost, "/api/auth/login", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", body.Message)
	assert.NotEmpty(t, body.errors(t)["non_field_errors"])
}

func TestProfileNeedsValidToken(t *testing.T) {
	env := newEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/auth/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Authentication credentials were not provided.", body.Message)

	buf := captureLogs(t)
	resp, body = env.do(t, http.MethodGet, "/api/auth/profile", nil, withToken("not.a.jwt"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid or expired token", body.Message)
	_, found := findLog(buf, "auth.token.reject")
	assert.True(t, found)
}

func TestUpdateProfileAndChangePassword(t *testing.T) {
	env := newEnv(t)
	tok := env.login(t, "alice@bikeshop.test")

	resp, body := env.do(t, http.MethodPatch, "/api/auth/profile", map[string]string{"name": "Alice Cooper"}, withToken(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	var u struct {
		Name string `json:"name"`
	}
	body.into(t, &u)
	assert.Equal(t, "Alice Cooper", u.Name)

	resp, body = env.do(t, http.MethodPost, "/api/auth/change-password",
		map[string]string{"old_password": "nope", "new_password": "An0ther-Pass!"}, withToken(tok))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Password change failed", body.Message)
	assert.Contains(t, body.errors(t)["old_password"], "Old password is incorrect")

	resp, _ = env.do(t, http.MethodPost, "/api/auth/change-password",
		map[string]string{"old_password": demoPassword, "new_password": "An0ther-Pass!"}, withToken(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "alice@bikeshop.test", "password": "An0ther-Pass!"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// resetToken pulls the token query parameter out of the emailed link.
func resetToken(t *testing.T, html string) string {
	t.Helper()
	i := strings.Index(html, "token=")
	require.GreaterOrEqual(t, i, 0)
	rest := html[i+len("token="):]
	end := strings.IndexAny(rest, `"<& `)
	require.Greater(t, end, 0)
	tok, err := url.QueryUnescape(rest[:end])
	require.NoError(t, err)
	return tok
}

func TestPasswordResetFlow(t *testing.T) {
	env := newEnv(t)
	const safe = "If an account exists with this email, you will receive a password reset link shortly."

	resp, body := env.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "ghost@bikeshop.test"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, safe, body.Message)
	_, sent := env.sender.last()
	assert.False(t, sent)

	resp, body = env.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "bob@bikeshop.test"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, safe, body.Message)
	msg, sent := env.sender.last()
	require.True(t, sent)
	assert.Equal(t, "bob@bikeshop.test", msg.To)
	tok := resetToken(t, msg.HTML)

	resp, body = env.do(t, http.MethodPost, "/api/auth/verify-reset-token", map[string]string{"token": tok})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Token is valid", body.Message)
	var v struct {
		Email string `json:"email"`
	}
	body.into(t, &v)
	assert.Equal(t, "bob@bikeshop.test", v.Email)

	resp, body = env.do(t, http.MethodPost, "/api/auth/reset-password", map[string]string{
		"token": tok, "new_password": "Fresh-Pa55!", "confirm_password": "Different-1!",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body.errors(t)["confirm_password"], "Passwords do not match")

	resp, _ = env.do(t, http.MethodPost, "/api/auth/reset-password", map[string]string{
		"token": tok, "new_password": "Fresh-Pa55!", "confirm_password": "Fresh-Pa55!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.do(t, http.MethodPost, "/api/auth/verify-reset-token", map[string]string{"token": tok})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid or expired token", body.Message)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "bob@bikeshop.test", "password": "Fresh-Pa55!"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAddressCRUD(t *testing.T) {
	env := newEnv(t)
	tok := env.login(t, "bob@bikeshop.test")

	resp, body := env.do(t, http.MethodPost, "/api/auth/addresses/", map[string]any{
		"address_type": "shipping", "phone": "01711111111", "street": "7 Hill Rd",
		"city": "Sylhet", "state": "Sylhet", "postal_code": "3100", "is_default_shipping": true,
	}, withToken(tok))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var a struct {
		ID        int64 `json:"id"`
		IsDefault bool  `json:"is_default_shipping"`
	}
	body.into(t, &a)
	assert.True(t, a.IsDefault)

	resp, body = env.do(t, http.MethodPost, "/api/auth/addresses/", map[string]any{"address_type": "shipping"}, withToken(tok))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Address creation failed", body.Message)
	assert.NotEmpty(t, body.errors(t)["street"])

	other := env.login(t, "alice@bikeshop.test")
	resp, body = env.do(t, http.MethodGet, "/api/auth/addresses/"+itoa(a.ID), nil, withToken(other))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Address not found", body.Message)

	resp, _ = env.do(t, http.MethodDelete, "/api/auth/addresses/"+itoa(a.ID), nil, withToken(tok))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
