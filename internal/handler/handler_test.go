package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"customerhub/internal/auth"
	"customerhub/internal/config"
	"customerhub/internal/handler"
	"customerhub/internal/logger"
	"customerhub/internal/model"
	"customerhub/internal/repository"
	"customerhub/internal/router"
	"customerhub/internal/service"
	"customerhub/internal/testutil"
)

type testServer struct {
	e     *echo.Echo
	repo  repository.CustomerRepository
	codes *testutil.CodeRecorder
	hash  auth.PasswordHasher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Token: config.TokenConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		},
	}
	log := logger.Discard()
	repo := repository.NewCustomerRepository(testutil.NewSQLiteDB(t))
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	tokens := auth.NewTokenCodec(cfg.Token)
	codes := testutil.NewCodeRecorder()

	authService := service.NewAuthService(repo, hasher, tokens, codes, nil, log)
	customerService := service.NewCustomerService(repo, hasher, nil, log)

	e := echo.New()
	router.Register(e, cfg, log, auth.NewAccessGuard(tokens, log),
		handler.NewAuthHandler(authService),
		handler.NewCustomerHandler(customerService),
	)

	return &testServer{e: e, repo: repo, codes: codes, hash: hasher}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// seedCustomer stores an activated customer with the given role and password "pw".
func (s *testServer) seedCustomer(t *testing.T, email string, role model.Role) *model.Customer {
	t.Helper()
	hashed, err := s.hash.Hash("pw")
	require.NoError(t, err)
	c := &model.Customer{Email: email, Password: hashed, Role: role, Active: model.ActiveTrue}
	require.NoError(t, s.repo.Create(context.Background(), c))
	return c
}

func (s *testServer) login(t *testing.T, email string) service.TokenPair {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/customer/login", map[string]string{"email": email, "password": "pw"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pair service.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	return pair
}

// signExpired signs an access token that expired a minute ago.
func signExpired(t *testing.T, customerID string, role model.Role) string {
	t.Helper()
	past := time.Now().Add(-time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		CustomerID: customerID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := token.SignedString([]byte("access-secret"))
	require.NoError(t, err)
	return signed
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	assert.Equal(t, status, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"statusCode":%d,"message":%q}`, status, message), rec.Body.String())
}

func TestSignupActivationLoginFlow(t *testing.T) {
	s := newTestServer(t)
	creds := map[string]string{"email": "a@b.com", "password": "pw"}

	rec := s.do(t, http.MethodPost, "/customer/signup", creds, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "a@b.com", body["email"])
	assert.Equal(t, "CUSTOMER", body["role"])
	assert.NotEmpty(t, body["id"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "active")

	code := s.codes.Code("a@b.com")
	require.Regexp(t, `^[0-9]{4}$`, code)

	stored, err := s.repo.FindByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, code, stored.Active)

	rec = s.do(t, http.MethodPost, "/customer/login", creds, "")
	assertError(t, rec, http.StatusForbidden, "You need to activate your account.")

	wrongCode := "1000"
	if code == wrongCode {
		wrongCode = "9999"
	}
	rec = s.do(t, http.MethodPost, "/customer/verify", map[string]string{"email": "a@b.com", "password": "pw", "code": wrongCode}, "")
	assertError(t, rec, http.StatusNotFound, "Wrong activation code")

	rec = s.do(t, http.MethodPost, "/customer/verify", map[string]string{"email": "a@b.com", "password": "nope", "code": code}, "")
	assertError(t, rec, http.StatusNotFound, "Invalid password")

	rec = s.do(t, http.MethodPost, "/customer/verify", map[string]string{"email": "a@b.com", "password": "pw", "code": code}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "a@b.com", decode(t, rec)["email"])

	stored, err = s.repo.FindByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, model.ActiveTrue, stored.Active)

	rec = s.do(t, http.MethodPost, "/customer/verify", map[string]string{"email": "a@b.com", "password": "pw", "code": code}, "")
	assertError(t, rec, http.StatusNotFound, "Account already active")

	rec = s.do(t, http.MethodPost, "/customer/login", map[string]string{"email": "a@b.com", "password": "nope"}, "")
	assertError(t, rec, http.StatusUnauthorized, "Invalid password")

	pair := s.login(t, "a@b.com")
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.EqualValues(t, 900, pair.TTL)

	rec = s.do(t, http.MethodGet, "/customer/info", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	info := decode(t, rec)
	assert.Equal(t, "a@b.com", info["email"])
	assert.Equal(t, true, info["activated"])
	assert.NotEmpty(t, info["createdAt"])
}

func TestSignup_Errors(t *testing.T) {
	s := newTestServer(t)
	s.seedCustomer(t, "a@b.com", model.RoleCustomer)

	rec := s.do(t, http.MethodPost, "/customer/signup", map[string]string{"email": "a@b.com", "password": "pw"}, "")
	assertError(t, rec, http.StatusConflict, "Email already exists")

	rec = s.do(t, http.MethodPost, "/customer/signup", map[string]string{"email": "not-an-email", "password": "pw"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.EqualValues(t, http.StatusBadRequest, decode(t, rec)["statusCode"])

	rec = s.do(t, http.MethodPost, "/customer/signup", "{not json", "")
	assertError(t, rec, http.StatusBadRequest, "invalid request body")
}

func TestLogin_UnknownCustomer(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/customer/login", map[string]string{"email": "ghost@b.com", "password": "pw"}, "")
	assertError(t, rec, http.StatusNotFound, "Customer not found")
}

func TestRefreshToken(t *testing.T) {
	s := newTestServer(t)
	customer := s.seedCustomer(t, "a@b.com", model.RoleCustomer)
	pair := s.login(t, "a@b.com")

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, "/customer/refresh-token", map[string]string{"refreshToken": pair.RefreshToken}, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var refreshed service.TokenPair
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
		assert.Equal(t, pair.RefreshToken, refreshed.RefreshToken)
		assert.EqualValues(t, 900, refreshed.TTL)

		rec = s.do(t, http.MethodGet, "/customer/info", nil, refreshed.AccessToken)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := s.do(t, http.MethodPost, "/customer/refresh-token", map[string]string{"refreshToken": pair.AccessToken}, "")
	assertError(t, rec, http.StatusUnauthorized, "Unauthorized")

	rec = s.do(t, http.MethodPost, "/customer/refresh-token", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.NoError(t, s.repo.Delete(context.Background(), customer))
	rec = s.do(t, http.MethodPost, "/customer/refresh-token", map[string]string{"refreshToken": pair.RefreshToken}, "")
	assertError(t, rec, http.StatusUnauthorized, "Unauthorized")
}

func TestAccessControl(t *testing.T) {
	s := newTestServer(t)
	s.seedCustomer(t, "admin@b.com", model.RoleAdmin)
	s.seedCustomer(t, "a@b.com", model.RoleCustomer)
	admin := s.login(t, "admin@b.com")
	customer := s.login(t, "a@b.com")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"list without token", http.MethodGet, "/customer", "", http.StatusUnauthorized},
		{"list with garbage token", http.MethodGet, "/customer", "garbage", http.StatusUnauthorized},
		{"list with refresh token", http.MethodGet, "/customer", customer.RefreshToken, http.StatusUnauthorized},
		{"list as customer", http.MethodGet, "/customer", customer.AccessToken, http.StatusForbidden},
		{"list as admin", http.MethodGet, "/customer", admin.AccessToken, http.StatusOK},
		{"get as customer", http.MethodGet, "/customer/a@b.com", customer.AccessToken, http.StatusForbidden},
		{"delete as customer", http.MethodDelete, "/customer/a@b.com", customer.AccessToken, http.StatusForbidden},
		{"info without token", http.MethodGet, "/customer/info", "", http.StatusUnauthorized},
		{"info as customer", http.MethodGet, "/customer/info", customer.AccessToken, http.StatusOK},
		{"info as admin", http.MethodGet, "/customer/info", admin.AccessToken, http.StatusOK},
		{"public list without token", http.MethodGet, "/customer/public-route", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, nil, tt.token)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := s.do(t, http.MethodGet, "/customer", nil, "")
	assert.JSONEq(t, `{"statusCode":401,"message":"Unauthorized"}`, rec.Body.String())

	expiredAdmin := signExpired(t, "admin", model.RoleAdmin)
	for _, path := range []string{"/customer", "/customer/info"} {
		rec = s.do(t, http.MethodGet, path, nil, expiredAdmin)
		assertError(t, rec, http.StatusUnauthorized, "Unauthorized")
	}

	rec = s.do(t, http.MethodGet, "/customer", nil, customer.AccessToken)
	assertError(t, rec, http.StatusForbidden, "Forbidden resource")
}

func TestListCustomers_Pagination(t *testing.T) {
	s := newTestServer(t)
	s.seedCustomer(t, "admin@b.com", model.RoleAdmin)
	for i := 1; i < 9; i++ {
		s.seedCustomer(t, fmt.Sprintf("c%d@b.com", i), model.RoleCustomer)
	}
	admin := s.login(t, "admin@b.com")

	for _, path := range []string{"/customer?offset=0&size=2", "/customer/public-route?offset=0&size=2"} {
		rec := s.do(t, http.MethodGet, path, nil, admin.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var list model.CustomerList
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.EqualValues(t, 9, list.Count)
		assert.Len(t, list.Customers, 2)
		assert.NotContains(t, rec.Body.String(), "password")
	}

	rec := s.do(t, http.MethodGet, "/customer?offset=8", nil, admin.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var list model.CustomerList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.EqualValues(t, 9, list.Count)
	assert.Len(t, list.Customers, 1)

	for _, query := range []string{"offset=-1", "size=-1", "size=101", "offset=abc", "size=1.5"} {
		rec := s.do(t, http.MethodGet, "/customer?"+query, nil, admin.AccessToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestUpdateCustomer_RoleNormalization(t *testing.T) {
	tests := []struct {
		name string
		body string
		want model.Role
	}{
		{"exact ADMIN", `{"role":"ADMIN"}`, model.RoleAdmin},
		{"lowercase admin", `{"role":"admin"}`, model.RoleCustomer},
		{"unknown role", `{"role":"SUPERUSER"}`, model.RoleCustomer},
		{"empty role", `{"role":""}`, model.RoleCustomer},
		{"absent role", `{}`, model.RoleCustomer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.seedCustomer(t, "admin@b.com", model.RoleAdmin)
			s.seedCustomer(t, "a@b.com", model.RoleAdmin)
			admin := s.login(t, "admin@b.com")

			rec := s.do(t, http.MethodPatch, "/customer/a@b.com", tt.body, admin.AccessToken)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, string(tt.want), decode(t, rec)["role"])

			stored, err := s.repo.FindByEmail(context.Background(), "a@b.com")
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.Role)
		})
	}
}

func TestUpdateCustomer_EmailAndPassword(t *testing.T) {
	s := newTestServer(t)
	s.seedCustomer(t, "admin@b.com", model.RoleAdmin)
	s.seedCustomer(t, "a@b.com", model.RoleCustomer)
	s.seedCustomer(t, "taken@b.com", model.RoleCustomer)
	admin := s.login(t, "admin@b.com")

	rec := s.do(t, http.MethodPatch, "/customer/a@b.com", map[string]string{"email": "taken@b.com"}, admin.AccessToken)
	assertError(t, rec, http.StatusConflict, "Email already exists")

	rec = s.do(t, http.MethodPatch, "/customer/a@b.com", map[string]string{"email": "bad"}, admin.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/customer/ghost@b.com", map[string]string{"role": "ADMIN"}, admin.AccessToken)
	assertError(t, rec, http.StatusNotFound, "Customer not found")

	rec = s.do(t, http.MethodPatch, "/customer/a@b.com", map[string]string{"email": "new@b.com", "password": "new-pw"}, admin.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "new@b.com", decode(t, rec)["email"])

	rec = s.do(t, http.MethodPost, "/customer/login", map[string]string{"email": "new@b.com", "password": "new-pw"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/customer/a@b.com", nil, admin.AccessToken)
	assertError(t, rec, http.StatusNotFound, "Customer not found")
}

func TestGetAndDeleteCustomer(t *testing.T) {
	s := newTestServer(t)
	s.seedCustomer(t, "admin@b.com", model.RoleAdmin)
	target := s.seedCustomer(t, "a@b.com", model.RoleCustomer)
	admin := s.login(t, "admin@b.com")
	targetTokens := s.login(t, "a@b.com")

	rec := s.do(t, http.MethodGet, "/customer/a@b.com", nil, admin.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, target.ID.String(), body["id"])
	assert.Equal(t, "CUSTOMER", body["role"])

	rec = s.do(t, http.MethodDelete, "/customer/a@b.com", nil, admin.AccessToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/customer/a@b.com", nil, admin.AccessToken)
	assertError(t, rec, http.StatusNotFound, "Customer not found")

	rec = s.do(t, http.MethodDelete, "/customer/a@b.com", nil, admin.AccessToken)
	assertError(t, rec, http.StatusNotFound, "Customer not found")

	// A still-valid access token outlives its customer; info reports not found.
	rec = s.do(t, http.MethodGet, "/customer/info", nil, targetTokens.AccessToken)
	assertError(t, rec, http.StatusNotFound, "Customer not found")
}

func TestHealthzAndUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"statusCode":404`))
}

func TestCustomerByEmail_EscapedPath(t *testing.T) {
	s := newTestServer(t)
	s.seedCustomer(t, "admin@b.com", model.RoleAdmin)
	target := s.seedCustomer(t, "a@b.com", model.RoleCustomer)
	plus := s.seedCustomer(t, "a+b+c@b.com", model.RoleCustomer)
	admin := s.login(t, "admin@b.com")

	rec := s.do(t, http.MethodGet, "/customer/a%40b.com", nil, admin.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, target.ID.String(), decode(t, rec)["id"])

	rec = s.do(t, http.MethodGet, "/customer/a+b%2Bc@b.com", nil, admin.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, plus.ID.String(), decode(t, rec)["id"])

	rec = s.do(t, http.MethodPatch, "/customer/a%2Bb%2Bc%40b.com", map[string]string{"role": "ADMIN"}, admin.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ADMIN", decode(t, rec)["role"])

	rec = s.do(t, http.MethodDelete, "/customer/a%40b.com", nil, admin.AccessToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := s.repo.FindByEmail(context.Background(), "a@b.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
