package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/court-booking/pkg/auth"
)

func buildTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	t.Setenv("JWT_SECRET", "testsecret")
	gin.SetMode(gin.TestMode)

	r := gin.New()
	v1 := r.Group("/v1", JWTAuth())
	v1.GET("/me", func(c *gin.Context) {
		sub, _ := c.Get("sub")
		c.JSON(http.StatusOK, gin.H{"sub": sub})
	})
	staff := v1.Group("", RequireRole("STAFF", "ADMIN"))
	staff.POST("/occurrences/:id/checkin", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "checked_in"})
	})
	return r
}

func signTestToken(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := auth.CreateAccessToken(sub, role, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestJWTAuth(t *testing.T) {
	r := buildTestRouter(t)

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("valid token sets sub", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, "cust-1", "CUSTOMER"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	})
}

func TestRequireRole(t *testing.T) {
	r := buildTestRouter(t)

	hit := func(role string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/occurrences/occ-1/checkin", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, "u1", role))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if got := hit("CUSTOMER"); got != http.StatusForbidden {
		t.Errorf("customer got %d, want 403", got)
	}
	if got := hit("STAFF"); got != http.StatusOK {
		t.Errorf("staff got %d, want 200", got)
	}
	if got := hit("ADMIN"); got != http.StatusOK {
		t.Errorf("admin got %d, want 200", got)
	}
}
