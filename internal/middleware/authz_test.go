package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"task-matrix/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser struct {
	tokens map[string]uuid.UUID
}

func (p stubParser) ParseAccessToken(token string) (uuid.UUID, error) {
	id, ok := p.tokens[token]
	if !ok {
		return uuid.Nil, errors.New("unknown token")
	}
	return id, nil
}

func setupProtected(parser middleware.TokenParser) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.AuthMiddleware(parser))
	router.GET("/protected", func(c *gin.Context) {
		id, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": id.(uuid.UUID).String()})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	router := setupProtected(stubParser{tokens: map[string]uuid.UUID{"good": owner}})

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"no token", "", http.StatusUnauthorized, "missing_token"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "invalid_token_format"},
		{"invalid token", "Bearer bad", http.StatusUnauthorized, "invalid_token"},
		{"valid token", "Bearer good", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Contains(t, w.Body.String(), `"error":"`+tt.code+`"`)
				return
			}
			assert.Contains(t, w.Body.String(), owner.String())
		})
	}
}
