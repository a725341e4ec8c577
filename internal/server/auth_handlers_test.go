package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	_, app := newTestServer(t)

	t.Run("creates account and returns token", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "correct-horse",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var body map[string]string
		decodeBody(t, resp, &body)
		require.NotEmpty(t, body["token"])
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "alice2",
			"email":    "alice@example.com",
			"password": "correct-horse",
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("rejects duplicate username", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "alice",
			"email":    "other@example.com",
			"password": "correct-horse",
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("validates input", func(t *testing.T) {
		cases := []map[string]string{
			{"username": "", "email": "x@example.com", "password": "longenough"},
			{"username": "ab", "email": "x@example.com", "password": "longenough"},
			{"username": "admin", "email": "x@example.com", "password": "longenough"},
			{"username": "valid_user", "email": "not-an-email", "password": "longenough"},
			{"username": "valid_user", "email": "x@example.com", "password": "short"},
		}
		for _, body := range cases {
			resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, "body: %v", body)
			_ = resp.Body.Close()
		}
	})
}

func TestLogin(t *testing.T) {
	s, app := newTestServer(t)
	createUser(t, s, "bob", "hunter2hunter2")

	t.Run("returns token and username", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "bob@example.com",
			"password": "hunter2hunter2",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		decodeBody(t, resp, &body)
		require.NotEmpty(t, body["token"])
		require.Equal(t, "bob", body["username"])
	})

	t.Run("wrong password and unknown email answer identically", func(t *testing.T) {
		for _, creds := range []map[string]string{
			{"email": "bob@example.com", "password": "wrong-password"},
			{"email": "nobody@example.com", "password": "hunter2hunter2"},
		} {
			resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", creds)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			var body map[string]string
			decodeBody(t, resp, &body)
			require.Equal(t, "Invalid credentials", body["error"])
		}
	})
}

func TestMe(t *testing.T) {
	s, app := newTestServer(t)
	user := createUser(t, s, "carol", "password123")

	resp := doJSON(t, app, http.MethodGet, "/api/auth/me", authHeader(t, s, user.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	require.Equal(t, float64(user.ID), body["id"])
	require.Equal(t, "carol", body["username"])
	require.Equal(t, "carol@example.com", body["email"])
}
