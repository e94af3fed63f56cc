package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"invito/internal/model"
	"invito/internal/service"
	"invito/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := logger.Initialize("error"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) Register(ctx context.Context, userName, email string, refCode *string) (*model.User, error) {
	args := m.Called(ctx, userName, email, refCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserService) ListUsers(ctx context.Context, page, limit int) ([]*model.User, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *mockUserService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserService) UpdateUser(ctx context.Context, id uuid.UUID, userName, email *string) (*model.User, error) {
	args := m.Called(ctx, id, userName, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestRouter(us service.UserServiceI) *gin.Engine {
	router := gin.New()
	NewUserRoutes(router.Group("/api"), us)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthChecker(t *testing.T) {
	router := newTestRouter(&mockUserService{})

	w := doJSON(t, router, http.MethodGet, "/api/healthchecker", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Invito is running...", body["message"])
}

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]any
		mockSetup      func(us *mockUserService)
		expectedCode   int
		expectedStatus string
	}{
		{
			name: "Created",
			body: map[string]any{"user_name": "ann", "email": "a@x.com"},
			mockSetup: func(us *mockUserService) {
				us.On("Register", mock.Anything, "ann", "a@x.com", (*string)(nil)).
					Return(&model.User{ID: uuid.New(), UserName: "ann", Email: "a@x.com", RefCode: "ann1f2a"}, nil)
			},
			expectedCode:   http.StatusCreated,
			expectedStatus: "success",
		},
		{
			name: "Unknown referral code",
			body: map[string]any{"user_name": "bob", "email": "b@x.com", "ref_code": "doesnotexist"},
			mockSetup: func(us *mockUserService) {
				us.On("Register", mock.Anything, "bob", "b@x.com", mock.Anything).
					Return(nil, service.ErrRefCodeNotFound)
			},
			expectedCode:   http.StatusNotFound,
			expectedStatus: "fail",
		},
		{
			name: "Duplicate email",
			body: map[string]any{"user_name": "ann", "email": "a@x.com"},
			mockSetup: func(us *mockUserService) {
				us.On("Register", mock.Anything, "ann", "a@x.com", (*string)(nil)).
					Return(nil, service.ErrAlreadyExists)
			},
			expectedCode:   http.StatusConflict,
			expectedStatus: "fail",
		},
		{
			name: "Name too short",
			body: map[string]any{"user_name": "ab", "email": "a@x.com"},
			mockSetup: func(us *mockUserService) {
				us.On("Register", mock.Anything, "ab", "a@x.com", (*string)(nil)).
					Return(nil, service.ErrUserNameTooShort)
			},
			expectedCode:   http.StatusBadRequest,
			expectedStatus: "fail",
		},
		{
			name: "Store failure",
			body: map[string]any{"user_name": "ann", "email": "a@x.com"},
			mockSetup: func(us *mockUserService) {
				us.On("Register", mock.Anything, "ann", "a@x.com", (*string)(nil)).
					Return(nil, assert.AnError)
			},
			expectedCode:   http.StatusInternalServerError,
			expectedStatus: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			us := &mockUserService{}
			tt.mockSetup(us)
			router := newTestRouter(us)

			w := doJSON(t, router, http.MethodPost, "/api/users", tt.body)

			assert.Equal(t, tt.expectedCode, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tt.expectedStatus, body["status"])
			us.AssertExpectations(t)
		})
	}
}

func TestListUsers(t *testing.T) {
	us := &mockUserService{}
	us.On("ListUsers", mock.Anything, 2, 5).
		Return([]*model.User{{UserName: "f"}, {UserName: "g"}}, nil)
	router := newTestRouter(us)

	w := doJSON(t, router, http.MethodGet, "/api/users?page=2&limit=5", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(2), body["results"])
	us.AssertExpectations(t)
}

func TestListUsers_Defaults(t *testing.T) {
	us := &mockUserService{}
	us.On("ListUsers", mock.Anything, 1, 10).Return([]*model.User{}, nil)
	router := newTestRouter(us)

	w := doJSON(t, router, http.MethodGet, "/api/users", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	us.AssertExpectations(t)
}

func TestGetUserByID(t *testing.T) {
	id := uuid.New()

	t.Run("Found", func(t *testing.T) {
		us := &mockUserService{}
		us.On("GetUserByID", mock.Anything, id).
			Return(&model.User{ID: id, UserName: "ann"}, nil)
		router := newTestRouter(us)

		w := doJSON(t, router, http.MethodGet, "/api/user/"+id.String(), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Not found", func(t *testing.T) {
		us := &mockUserService{}
		us.On("GetUserByID", mock.Anything, id).Return(nil, service.ErrUserNotFound)
		router := newTestRouter(us)

		w := doJSON(t, router, http.MethodGet, "/api/user/"+id.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "fail", decodeBody(t, w)["status"])
	})

	t.Run("Bad id", func(t *testing.T) {
		router := newTestRouter(&mockUserService{})

		w := doJSON(t, router, http.MethodGet, "/api/user/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteUser(t *testing.T) {
	id := uuid.New()

	t.Run("Deleted", func(t *testing.T) {
		us := &mockUserService{}
		us.On("DeleteUser", mock.Anything, id).Return(nil)
		router := newTestRouter(us)

		w := doJSON(t, router, http.MethodDelete, "/api/user/"+id.String(), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Missing", func(t *testing.T) {
		us := &mockUserService{}
		us.On("DeleteUser", mock.Anything, id).Return(service.ErrUserNotFound)
		router := newTestRouter(us)

		w := doJSON(t, router, http.MethodDelete, "/api/user/"+id.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUpdateUser(t *testing.T) {
	id := uuid.New()

	us := &mockUserService{}
	us.On("UpdateUser", mock.Anything, id,
		mock.MatchedBy(func(n *string) bool { return n != nil && *n == "anna" }),
		(*string)(nil),
	).Return(&model.User{ID: id, UserName: "anna"}, nil)
	router := newTestRouter(us)

	w := doJSON(t, router, http.MethodPatch, "/api/user/"+id.String(),
		map[string]any{"user_name": "anna"})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "success", body["status"])
	us.AssertExpectations(t)
}
