package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/tablephysics/internal/admin"
	"github.com/playmatatu/tablephysics/internal/auth"
	"github.com/playmatatu/tablephysics/internal/config"
)

func serve(r *gin.Engine, req *http.Request) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestTableAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: "secret"}
	r := gin.New()
	r.POST("/tables/:id/shoot", TableAuth(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxTableID))
	})

	good, _ := auth.IssueTableToken("secret", "TBL_A", "pool", time.Minute)
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"ok", "Bearer " + good, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/tables/TBL_A/shoot", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := serve(r, req); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/tables/TBL_B/shoot", nil)
	req.Header.Set("Authorization", "Bearer "+good)
	if got := serve(r, req); got != http.StatusForbidden {
		t.Errorf("other table status = %d", got)
	}
}

func TestAdminKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hash, err := admin.HashAdminKey("letmein")
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{AdminKeyHash: hash}
	r := gin.New()
	r.GET("/admin", AdminKey(cfg), func(c *gin.Context) { c.Status(http.StatusOK) })

	for key, want := range map[string]int{
		"":        http.StatusUnauthorized,
		"wrong":   http.StatusForbidden,
		"letmein": http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if key != "" {
			req.Header.Set("X-Admin-Key", key)
		}
		if got := serve(r, req); got != want {
			t.Errorf("key %q: status = %d, want %d", key, got, want)
		}
	}
}

func TestWebSocketCORSCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Environment: "production", FrontendURL: "https://tables.example.com"}
	r := gin.New()
	r.GET("/ws", WebSocketCORSCheck(cfg), func(c *gin.Context) { c.Status(http.StatusOK) })

	for origin, want := range map[string]int{
		"https://tables.example.com": http.StatusOK,
		"https://evil.example.com":   http.StatusForbidden,
		"http://localhost:5173":      http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		req.Header.Set("Origin", origin)
		if got := serve(r, req); got != want {
			t.Errorf("origin %s: status = %d, want %d", origin, got, want)
		}
	}
}
