package probe

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artasyaskar/puzzleverse-mern/internal/apiclient"
	"github.com/artasyaskar/puzzleverse-mern/internal/dto"
)

const loginAttemptLimit = 5

func corsSuite() Suite {
	requireAllowOrigin := func(t *T, resp *apiclient.Response) {
		assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"), "missing Access-Control-Allow-Origin")
	}

	return Suite{
		ID:     "cors",
		Title:  "CORS and security headers",
		Target: TargetGateway,
		Checks: []Check{
			{
				Name:        "cors-on-health",
				Description: "GET /api/health carries Access-Control-Allow-Origin",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.Health(ctx)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)
					requireAllowOrigin(t, resp)
				},
			},
			{
				Name:        "cors-on-register",
				Description: "POST /api/auth/register carries Access-Control-Allow-Origin",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.Register(ctx, dto.RegisterRequest{Email: "u@example.com", Password: validPassword})
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK, http.StatusCreated, http.StatusBadRequest)
					requireAllowOrigin(t, resp)
				},
			},
			{
				Name:        "preflight-register",
				Description: "OPTIONS preflight allows POST and common headers",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.Preflight(ctx, "/api/auth/register", "", "")
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK, http.StatusNoContent)

					methods := strings.ToUpper(resp.Header.Get("Access-Control-Allow-Methods"))
					headers := strings.ToUpper(resp.Header.Get("Access-Control-Allow-Headers"))
					assert.Contains(t, methods, "POST")
					assert.True(t, strings.Contains(headers, "CONTENT-TYPE") || strings.Contains(headers, "AUTHORIZATION"),
						"Access-Control-Allow-Headers %q lists neither Content-Type nor Authorization", headers)
				},
			},
			{
				Name:        "vary-origin",
				Description: "Vary names Origin when the origin is echoed",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.Health(ctx)
					require.NoError(t, err)
					vary := resp.Header.Get("Vary")
					assert.True(t, vary == "" || strings.Contains(vary, "Origin"), "unexpected Vary %q", vary)

					const origin = "http://probe.example.com"
					resp, err = env.Client.Do(ctx, apiclient.Request{
						Method: http.MethodGet,
						Path:   "/api/health",
						Header: http.Header{"Origin": []string{origin}},
					})
					require.NoError(t, err)
					if allow := resp.Header.Get("Access-Control-Allow-Origin"); allow == origin {
						assert.Contains(t, resp.Header.Values("Vary"), "Origin")
					}
				},
			},
			{
				Name:        "security-headers",
				Description: "nosniff, SAMEORIGIN and disabled XSS auditor",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.Health(ctx)
					require.NoError(t, err)
					assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
					assert.Equal(t, "SAMEORIGIN", resp.Header.Get("X-Frame-Options"))
					assert.Equal(t, "0", resp.Header.Get("X-XSS-Protection"))
				},
			},
			{
				Name:        "no-credentials-required",
				Description: "health answers without credentials",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.Health(ctx)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)
				},
			},
		},
	}
}

func authSuite() Suite {
	return Suite{
		ID:     "auth",
		Title:  "Authentication",
		Target: TargetGateway,
		Checks: []Check{
			{
				Name:        "register",
				Description: "registration answers 201 with the new user",
				Run: func(ctx context.Context, t *T, env *Env) {
					email := uniqueEmail()
					resp, err := env.Client.Register(ctx, dto.RegisterRequest{Email: email, Password: validPassword})
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusCreated)

					var user dto.UserInfo
					require.NoError(t, resp.JSON(&user))
					assert.NotEmpty(t, user.ID)
					assert.Equal(t, email, user.Email)
					assert.NotContains(t, strings.ToLower(resp.Text()), "password")
				},
			},
			{
				Name:        "duplicate-email",
				Description: "registering the same email twice, in any case, answers 400",
				Run: func(ctx context.Context, t *T, env *Env) {
					email := registerUser(ctx, t, env)

					resp, err := env.Client.Register(ctx, dto.RegisterRequest{Email: strings.ToUpper(email), Password: validPassword})
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusBadRequest)
					requireErrorKey(t, resp, "error")
				},
			},
			{
				Name:        "login-issues-tokens",
				Description: "login answers 200 with an access token whose sub is the user id",
				Run: func(ctx context.Context, t *T, env *Env) {
					email := registerUser(ctx, t, env)
					auth := mustLogin(ctx, t, env, email)
					assert.Equal(t, email, auth.User.Email)

					claims, err := apiclient.DecodeAccessToken(auth.AccessToken)
					require.NoError(t, err)
					assert.Equal(t, auth.User.ID, claims.Subject)
					assert.Equal(t, email, claims.Email)
					if assert.NotNil(t, claims.ExpiresAt) {
						assert.True(t, claims.ExpiresAt.After(time.Now()))
					}
				},
			},
			{
				Name:        "login-case-insensitive-email",
				Description: "emails match regardless of case",
				Run: func(ctx context.Context, t *T, env *Env) {
					email := registerUser(ctx, t, env)
					requireStatus(t, login(ctx, t, env, strings.ToUpper(email), validPassword), http.StatusOK)
				},
			},
			{
				Name:        "login-wrong-password",
				Description: "bad credentials answer 401 with an error",
				Run: func(ctx context.Context, t *T, env *Env) {
					email := registerUser(ctx, t, env)
					resp := login(ctx, t, env, email, "wrongpass1")
					requireStatus(t, resp, http.StatusUnauthorized)
					requireErrorKey(t, resp, "error")

					requireStatus(t, login(ctx, t, env, uniqueEmail(), validPassword), http.StatusUnauthorized)
				},
			},
			{
				Name:        "me-with-bearer",
				Description: "GET /api/me returns the current user",
				Run: func(ctx context.Context, t *T, env *Env) {
					email := registerUser(ctx, t, env)
					auth := mustLogin(ctx, t, env, email)

					resp, err := env.Client.Me(ctx, auth.AccessToken)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)

					var user dto.UserInfo
					require.NoError(t, resp.JSON(&user))
					assert.Equal(t, auth.User.ID, user.ID)
					assert.Equal(t, email, user.Email)
				},
			},
			{
				Name:        "me-rejects-missing-or-bad-token",
				Description: "GET /api/me answers 401 without a valid bearer token",
				Run: func(ctx context.Context, t *T, env *Env) {
					for _, token := range []string{"", "not.a.jwt"} {
						resp, err := env.Client.Me(ctx, token)
						require.NoError(t, err)
						requireStatus(t, resp, http.StatusUnauthorized)
						requireErrorKey(t, resp, "error")
					}
				},
			},
			{
				Name:        "refresh-rotates",
				Description: "refresh issues new tokens and invalidates the old refresh token",
				Run: func(ctx context.Context, t *T, env *Env) {
					email := registerUser(ctx, t, env)
					auth := mustLogin(ctx, t, env, email)

					resp, err := env.Client.Refresh(ctx, auth.RefreshToken)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)

					var rotated dto.RefreshResponse
					require.NoError(t, resp.JSON(&rotated))
					assert.NotEmpty(t, rotated.AccessToken)
					assert.NotEqual(t, auth.RefreshToken, rotated.RefreshToken)
					assert.Equal(t, auth.User.ID, rotated.UserID)

					resp, err = env.Client.Refresh(ctx, auth.RefreshToken)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusBadRequest, http.StatusUnauthorized)
				},
			},
		},
	}
}

func authValidationSuite() Suite {
	// noPasswordFields mirrors the leak check of the registration contract:
	// the field name may be mentioned, but never as a JSON key or hash.
	noPasswordFields := func(t *T, resp *apiclient.Response) {
		text := strings.ToLower(resp.Text())
		assert.NotContains(t, text, `password"`)
		assert.NotContains(t, text, `'password'`)
		assert.NotContains(t, text, "passwordhash")
	}
	rejects := func(call func(context.Context, *Env) (*apiclient.Response, error), mentions ...string) func(context.Context, *T, *Env) {
		return func(ctx context.Context, t *T, env *Env) {
			resp, err := call(ctx, env)
			require.NoError(t, err)
			requireStatus(t, resp, http.StatusBadRequest)

			text := strings.ToLower(resp.Text())
			for _, word := range mentions {
				assert.Contains(t, text, word)
			}
			noPasswordFields(t, resp)
		}
	}
	register := func(body any) func(context.Context, *Env) (*apiclient.Response, error) {
		return func(ctx context.Context, env *Env) (*apiclient.Response, error) {
			return env.Client.Register(ctx, body)
		}
	}
	loginWith := func(body any) func(context.Context, *Env) (*apiclient.Response, error) {
		return func(ctx context.Context, env *Env) (*apiclient.Response, error) {
			return env.Client.Login(ctx, body)
		}
	}

	return Suite{
		ID:     "auth-validation",
		Title:  "Auth input validation",
		Target: TargetGateway,
		Checks: []Check{
			{
				Name:        "register-missing-email",
				Description: "registration without email names the field",
				Run:         rejects(register(map[string]any{"password": validPassword}), "email"),
			},
			{
				Name:        "register-missing-password",
				Description: "registration without password names the field",
				Run:         rejects(register(map[string]any{"email": "user@example.com"}), "password"),
			},
			{
				Name:        "register-invalid-email",
				Description: "a malformed email is rejected",
				Run:         rejects(register(dto.RegisterRequest{Email: "not-an-email", Password: validPassword}), "email"),
			},
			{
				Name:        "register-short-password",
				Description: "a short password is rejected with a length hint",
				Run: func(ctx context.Context, t *T, env *Env) {
					resp, err := env.Client.Register(ctx, dto.RegisterRequest{Email: "user@example.com", Password: "short"})
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusBadRequest)

					text := strings.ToLower(resp.Text())
					assert.Contains(t, text, "password")
					assert.True(t, strings.Contains(text, "8") || strings.Contains(text, "length"), "no length hint in %q", text)
					noPasswordFields(t, resp)
				},
			},
			{
				Name:        "register-password-complexity",
				Description: "letters-only and digits-only passwords are rejected",
				Run: func(ctx context.Context, t *T, env *Env) {
					for _, password := range []string{"aaaaaaaa", "12345678"} {
						resp, err := env.Client.Register(ctx, dto.RegisterRequest{Email: uniqueEmail(), Password: password})
						require.NoError(t, err)
						requireStatus(t, resp, http.StatusBadRequest)

						text := strings.ToLower(resp.Text())
						assert.Contains(t, text, "password")
						assert.True(t,
							strings.Contains(text, "letter") || strings.Contains(text, "number") || strings.Contains(text, "alphanumeric"),
							"no complexity hint in %q", text)
						noPasswordFields(t, resp)
					}
				},
			},
			{
				Name:        "login-missing-email",
				Description: "login without email answers 400 naming the field",
				Run:         rejects(loginWith(map[string]any{"password": validPassword}), "email"),
			},
			{
				Name:        "login-missing-password",
				Description: "login without password answers 400 naming the field",
				Run:         rejects(loginWith(map[string]any{"email": "user@example.com"}), "password"),
			},
		},
	}
}

func loginRateLimitSuite() Suite {
	requireRetryAfter := func(t *T, resp *apiclient.Response) {
		raw := resp.Header.Get("Retry-After")
		require.NotEmpty(t, raw, "429 without Retry-After")
		seconds, err := strconv.Atoi(raw)
		require.NoError(t, err, "Retry-After %q is not a whole number of seconds", raw)
		assert.GreaterOrEqual(t, seconds, 1)
	}
	// exhaust fails a login until the limiter trips and returns the 429.
	exhaust := func(ctx context.Context, t *T, env *Env, email string) *apiclient.Response {
		var resp *apiclient.Response
		for range loginAttemptLimit + 1 {
			resp = login(ctx, t, env, email, "wrongpass")
			requireStatus(t, resp, http.StatusUnauthorized, http.StatusTooManyRequests)
		}
		return resp
	}

	return Suite{
		ID:     "login-rate-limit",
		Title:  "Login rate limiting",
		Target: TargetGateway,
		Checks: []Check{
			{
				Name:        "locks-after-five-failures",
				Description: "the sixth failed attempt answers 429 with a numeric Retry-After",
				Run: func(ctx context.Context, t *T, env *Env) {
					email := registerUser(ctx, t, env)
					resp := exhaust(ctx, t, env, email)
					requireStatus(t, resp, http.StatusTooManyRequests)
					requireRetryAfter(t, resp)
				},
			},
			{
				Name:        "success-resets-failures",
				Description: "a successful login grants a fresh set of attempts",
				Run: func(ctx context.Context, t *T, env *Env) {
					email := registerUser(ctx, t, env)
					for range loginAttemptLimit - 1 {
						requireStatus(t, login(ctx, t, env, email, "badbadbad"), http.StatusUnauthorized)
					}
					requireStatus(t, login(ctx, t, env, email, validPassword), http.StatusOK)

					for range loginAttemptLimit - 1 {
						requireStatus(t, login(ctx, t, env, email, "badbadbad"), http.StatusUnauthorized)
					}
				},
			},
			{
				Name:        "interleaved-success",
				Description: "alternating failures and successes never lock the account",
				Run: func(ctx context.Context, t *T, env *Env) {
					email := registerUser(ctx, t, env)
					for range 3 {
						requireStatus(t, login(ctx, t, env, email, "nope"), http.StatusUnauthorized)
						requireStatus(t, login(ctx, t, env, email, validPassword), http.StatusOK)
					}
					requireStatus(t, login(ctx, t, env, email, "nope"), http.StatusUnauthorized)
				},
			},
			{
				Name:        "per-email-isolation",
				Description: "locking one account does not affect another",
				Run: func(ctx context.Context, t *T, env *Env) {
					locked := registerUser(ctx, t, env)
					other := registerUser(ctx, t, env)
					exhaust(ctx, t, env, locked)

					requireStatus(t, login(ctx, t, env, other, validPassword), http.StatusOK)
				},
			},
			{
				Name:        "friendly-message",
				Description: "the 429 body says too many attempts",
				Run: func(ctx context.Context, t *T, env *Env) {
					email := registerUser(ctx, t, env)
					resp := exhaust(ctx, t, env, email)
					requireStatus(t, resp, http.StatusTooManyRequests)
					assert.Contains(t, strings.ToLower(resp.Text()), "too many")
				},
			},
		},
	}
}

func sessionSuite() Suite {
	logout := func(ctx context.Context, t *T, env *Env, token string) {
		resp, err := env.Client.Logout(ctx, token)
		require.NoError(t, err)
		requireStatus(t, resp, http.StatusNoContent)
		assert.Empty(t, strings.TrimSpace(resp.Text()))
	}

	return Suite{
		ID:     "session",
		Title:  "Session lifecycle",
		Target: TargetGateway,
		Checks: []Check{
			{
				Name:        "logout-no-content",
				Description: "logout answers 204 with an empty body",
				Run: func(ctx context.Context, t *T, env *Env) {
					auth := mustLogin(ctx, t, env, registerUser(ctx, t, env))
					logout(ctx, t, env, auth.RefreshToken)
				},
			},
			{
				Name:        "logout-idempotent",
				Description: "logging out twice with the same token answers 204 both times",
				Run: func(ctx context.Context, t *T, env *Env) {
					auth := mustLogin(ctx, t, env, registerUser(ctx, t, env))
					logout(ctx, t, env, auth.RefreshToken)
					logout(ctx, t, env, auth.RefreshToken)
				},
			},
			{
				Name:        "refresh-after-logout",
				Description: "a revoked refresh token can no longer be used",
				Run: func(ctx context.Context, t *T, env *Env) {
					auth := mustLogin(ctx, t, env, registerUser(ctx, t, env))
					logout(ctx, t, env, auth.RefreshToken)

					resp, err := env.Client.Refresh(ctx, auth.RefreshToken)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusBadRequest, http.StatusUnauthorized)
				},
			},
			{
				Name:        "other-sessions-survive",
				Description: "revoking one refresh token leaves the others valid",
				Run: func(ctx context.Context, t *T, env *Env) {
					email := registerUser(ctx, t, env)
					first := mustLogin(ctx, t, env, email)
					second := mustLogin(ctx, t, env, email)
					logout(ctx, t, env, first.RefreshToken)

					resp, err := env.Client.Refresh(ctx, second.RefreshToken)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)
				},
			},
			{
				Name:        "access-token-outlives-logout",
				Description: "an access token keeps working until it expires",
				Run: func(ctx context.Context, t *T, env *Env) {
					auth := mustLogin(ctx, t, env, registerUser(ctx, t, env))

					resp, err := env.Client.Me(ctx, auth.AccessToken)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)

					logout(ctx, t, env, auth.RefreshToken)

					resp, err = env.Client.Me(ctx, auth.AccessToken)
					require.NoError(t, err)
					requireStatus(t, resp, http.StatusOK)
				},
			},
			{
				Name:        "malformed-token-logout",
				Description: "logging out an unknown token is a 204 no-op",
				Run: func(ctx context.Context, t *T, env *Env) {
					logout(ctx, t, env, "this-is-not-a-real-token")
				},
			},
		},
	}
}
