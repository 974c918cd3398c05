package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "tradebook/internal/errors"
	"tradebook/internal/middleware"
	"tradebook/internal/models"
	"tradebook/internal/services"
)

const testSecret = "test-secret"

// --- mock user service ---

type mockUserService struct {
	createUserFn   func(email, password, firstName, lastName string) (*models.User, error)
	getUserByIDFn  func(id string) (*models.User, error)
	attemptLoginFn func(email, password string) (*models.User, error)
}

func (m *mockUserService) CreateUser(_ context.Context, email, password, firstName, lastName string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(email, password, firstName, lastName)
	}
	return &models.User{Base: models.Base{ID: testUserID}, Email: email}, nil
}

func (m *mockUserService) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return &models.User{Base: models.Base{ID: testUserID}, Email: email}, nil
}

func (m *mockUserService) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) VerifyPassword(_ *models.User, _ string) bool { return true }

func (m *mockUserService) AttemptLogin(_ context.Context, email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password)
	}
	return &models.User{Base: models.Base{ID: testUserID}, Email: email}, nil
}

var _ services.UserServicer = (*mockUserService)(nil)

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.GET("/profile", injectUserID(testUserID), handler.GetProfile)
	return r
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 with a usable token", func(t *testing.T) {
		audit := &mockAuditService{}
		svc := &mockUserService{
			createUserFn: func(email, _, firstName, lastName string) (*models.User, error) {
				return &models.User{
					Base:      models.Base{ID: testUserID},
					Email:     email,
					FirstName: firstName,
					LastName:  lastName,
				}, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(svc, audit, testSecret, time.Hour))

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"trader@example.com","password":"password123","first_name":"Asha","last_name":"Rao"}`)

		assertStatus(t, rec, http.StatusCreated)
		result := parseJSON(t, rec)
		user := result["user"].(map[string]interface{})
		if user["email"] != "trader@example.com" || user["id"] != testUserID {
			t.Errorf("unexpected user %v", user)
		}
		if result["expires_in"].(float64) != 3600 {
			t.Errorf("expected expires_in 3600, got %v", result["expires_in"])
		}

		claims, err := middleware.ParseAccessToken(result["access_token"].(string), testSecret)
		if err != nil {
			t.Fatalf("token did not parse: %v", err)
		}
		if claims.UserID != testUserID {
			t.Errorf("expected user id claim %s, got %s", testUserID, claims.UserID)
		}
		if got := audit.actions(); len(got) != 1 || got[0] != "REGISTER" {
			t.Errorf("expected REGISTER audit entry, got %v", got)
		}
	})

	t.Run("returns 400 on short password", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockAuditService{}, testSecret, time.Hour))

		rec := doRequest(r, "POST", "/auth/register", `{"email":"trader@example.com","password":"short"}`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 409 on duplicate email", func(t *testing.T) {
		svc := &mockUserService{
			createUserFn: func(_, _, _, _ string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateEmail
			},
		}
		r := setupAuthRouter(NewAuthHandler(svc, &mockAuditService{}, testSecret, time.Hour))

		rec := doRequest(r, "POST", "/auth/register", `{"email":"trader@example.com","password":"password123"}`)

		assertStatus(t, rec, http.StatusConflict)
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_EMAIL")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns 200 on valid credentials", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, audit, testSecret, time.Hour))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"trader@example.com","password":"password123"}`)

		assertStatus(t, rec, http.StatusOK)
		if parseJSON(t, rec)["access_token"] == "" {
			t.Error("expected access token")
		}
		if got := audit.actions(); len(got) != 1 || got[0] != "LOGIN" {
			t.Errorf("expected LOGIN audit entry, got %v", got)
		}
	})

	t.Run("returns 401 on invalid credentials", func(t *testing.T) {
		svc := &mockUserService{
			attemptLoginFn: func(_, _ string) (*models.User, error) {
				return nil, apperrors.ErrInvalidCredentials
			},
		}
		r := setupAuthRouter(NewAuthHandler(svc, &mockAuditService{}, testSecret, time.Hour))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"trader@example.com","password":"wrong"}`)

		assertStatus(t, rec, http.StatusUnauthorized)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 400 on malformed body", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockAuditService{}, testSecret, time.Hour))

		rec := doRequest(r, "POST", "/auth/login", `{"email":`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestAuthHandler_GetProfile(t *testing.T) {
	t.Run("returns the current user", func(t *testing.T) {
		svc := &mockUserService{
			getUserByIDFn: func(id string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: id}, Email: "trader@example.com"}, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(svc, &mockAuditService{}, testSecret, time.Hour))

		rec := doRequest(r, "GET", "/profile", "")

		assertStatus(t, rec, http.StatusOK)
		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["id"] != testUserID {
			t.Errorf("expected id %s, got %v", testUserID, user["id"])
		}
	})

	t.Run("returns 404 when the user is gone", func(t *testing.T) {
		svc := &mockUserService{
			getUserByIDFn: func(string) (*models.User, error) { return nil, apperrors.ErrUserNotFound },
		}
		r := setupAuthRouter(NewAuthHandler(svc, &mockAuditService{}, testSecret, time.Hour))

		rec := doRequest(r, "GET", "/profile", "")

		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "USER_NOT_FOUND")
	})
}
