package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestFail_EnvelopeAndRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Header("X-Request-ID", "rid-7"); c.Next() })
	r.GET("/nope", func(c *gin.Context) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "resource not found")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID != "rid-7" || resp.Code != ErrCodeNotFound || resp.Message != "resource not found" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestSanitizeContent(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  hello  ", "hello"},
		{"a\r\nb", "a\nb"},
		{"a\rb", "a\nb"},
		{"a\n\n\n\n\nb", "a\n\nb"},
		{"a\n\nb", "a\n\nb"},
		{"\n\n\n", ""},
	}
	for _, tc := range cases {
		if got := sanitizeContent(tc.in); got != tc.want {
			t.Errorf("sanitizeContent(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	page := func(url string) (int, int) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, url, nil)
		return clampPagination(c)
	}

	if p, s := page("/?page=3&page_size=50"); p != 3 || s != 50 {
		t.Fatalf("explicit: %d %d", p, s)
	}
	if p, s := page("/"); p != 1 || s != 20 {
		t.Fatalf("defaults: %d %d", p, s)
	}
	if p, s := page("/?page=-1&page_size=0"); p != 1 || s != 1 {
		t.Fatalf("lower bounds: %d %d", p, s)
	}
	if _, s := page("/?page_size=9999"); s != 100 {
		t.Fatalf("upper bound: %d", s)
	}
	if p, s := page("/?page=abc&page_size=xyz"); p != 1 || s != 20 {
		t.Fatalf("garbage: %d %d", p, s)
	}
}
