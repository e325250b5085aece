package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMiddlewarePutsUserInContext(t *testing.T) {
	var got string
	var ok bool
	h := Middleware("42")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = ForContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, ok)
	assert.Equal(t, "42", got)
}

func TestForContextWithoutUser(t *testing.T) {
	_, ok := ForContext(context.Background())
	assert.False(t, ok)

	_, ok = ForContext(WithUser(context.Background(), ""))
	assert.False(t, ok)
}
