package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/go-context-propagation/internal/adapters/http/dto"
	"github.com/jsamuelsen/go-context-propagation/internal/domain"
)

func newContextRouter(svc ContextService) *gin.Engine {
	router := gin.New()
	NewContextHandler(svc).RegisterRoutes(router.Group("/api/v1"))

	return router
}

func serve(router http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	return resp
}

func TestContextHandler_GetContext(t *testing.T) {
	svc := &mockContextService{}
	svc.On("Snapshot", mock.Anything).
		Return(domain.NewSnapshot("edge", map[string]any{"user_id": "42"})).
		Once()

	w := serve(newContextRouter(svc), "/api/v1/context")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"service":"edge","values":{"user_id":"42"}}`, w.Body.String())
	svc.AssertExpectations(t)
}

func TestContextHandler_GetContext_Empty(t *testing.T) {
	svc := &mockContextService{}
	svc.On("Snapshot", mock.Anything).Return(domain.NewSnapshot("edge", nil))

	w := serve(newContextRouter(svc), "/api/v1/context")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"service":"edge","values":{}}`, w.Body.String())
}

func TestContextHandler_GetGreeting(t *testing.T) {
	svc := &mockContextService{}
	svc.On("Greet", mock.Anything, "welcome").
		Return(&domain.Greeting{UserID: "42", Tenant: "acme", Message: "welcome, 42 of acme"}, nil).
		Once()

	w := serve(newContextRouter(svc), "/api/v1/greeting?salutation=welcome")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":"42","tenant":"acme","message":"welcome, 42 of acme"}`, w.Body.String())
	svc.AssertExpectations(t)
}

func TestContextHandler_GetGreeting_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		greetErr   error
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{
			name:       "invalid salutation",
			target:     "/api/v1/greeting?salutation=h3llo",
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrorCodeValidation,
			wantField:  "salutation",
		},
		{
			name:       "missing identity",
			target:     "/api/v1/greeting",
			greetErr:   domain.NewValidationError("user_id", "missing from request context"),
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrorCodeValidation,
			wantField:  "user_id",
		},
		{
			name:       "internal",
			target:     "/api/v1/greeting",
			greetErr:   errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrorCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockContextService{}
			if tt.greetErr != nil {
				svc.On("Greet", mock.Anything, "").Return(nil, tt.greetErr).Once()
			}

			w := serve(newContextRouter(svc), tt.target)

			require.Equal(t, tt.wantStatus, w.Code)

			resp := decodeError(t, w)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.wantField != "" {
				assert.Contains(t, resp.Error.Details, tt.wantField)
			}
			assert.NotContains(t, w.Body.String(), "boom")
			svc.AssertExpectations(t)
		})
	}
}

func TestContextHandler_GetRelay(t *testing.T) {
	svc := &mockContextService{}
	remote := domain.NewSnapshot("billing", map[string]any{"user_id": "42"})
	svc.On("Relay", mock.Anything).Return(&remote, nil).Once()
	svc.On("Snapshot", mock.Anything).Return(domain.NewSnapshot("edge", map[string]any{"user_id": "42"})).Once()

	w := serve(newContextRouter(svc), "/api/v1/relay")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"local": {"service":"edge","values":{"user_id":"42"}},
		"downstream": {"service":"billing","values":{"user_id":"42"}}
	}`, w.Body.String())
	svc.AssertExpectations(t)
}

func TestContextHandler_GetRelay_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "downstream unavailable",
			err:        domain.NewUnavailableError("billing", "connection refused", nil),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   dto.ErrorCodeUnavailable,
		},
		{
			name:       "deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   dto.ErrorCodeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockContextService{}
			svc.On("Relay", mock.Anything).Return(nil, tt.err).Once()

			w := serve(newContextRouter(svc), "/api/v1/relay")

			require.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Error.Code)
			svc.AssertNotCalled(t, "Snapshot", mock.Anything)
		})
	}
}
