package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeout_SetsDeadline(t *testing.T) {
	var hadDeadline bool
	handler := Timeout(5*time.Second)(func(w http.ResponseWriter, r *http.Request) {
		_, hadDeadline = r.Context().Deadline()
	})

	handler(httptest.NewRecorder(), httptest.NewRequest("POST", "/chat", nil))
	assert.True(t, hadDeadline)
}

func TestTimeout_DisabledWhenNonPositive(t *testing.T) {
	var hadDeadline bool
	handler := Timeout(0)(func(w http.ResponseWriter, r *http.Request) {
		_, hadDeadline = r.Context().Deadline()
	})

	handler(httptest.NewRecorder(), httptest.NewRequest("POST", "/chat", nil))
	assert.False(t, hadDeadline)
}

func TestTimeout_ExpiresDuringHandler(t *testing.T) {
	done := make(chan error, 1)
	handler := Timeout(10*time.Millisecond)(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			done <- r.Context().Err()
		case <-time.After(2 * time.Second):
			done <- nil
		}
	})

	handler(httptest.NewRecorder(), httptest.NewRequest("POST", "/chat", nil))
	assert.ErrorIs(t, <-done, context.DeadlineExceeded)
}
