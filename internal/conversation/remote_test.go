package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteReplyService_SubmitQuery(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:   "ok",
			status: http.StatusOK,
			body:   `{"reply":"Try these","products":[{"id":"9","name":"Oak Bench","price":"180","category":"Seating","style":"Rustic","image":"/bench.jpg"}]}`,
		},
		{name: "server error is a network failure", status: http.StatusServiceUnavailable, body: `{}`, wantErr: ErrNetworkFailure},
		{name: "throttled is a network failure", status: http.StatusTooManyRequests, body: `{}`, wantErr: ErrNetworkFailure},
		{name: "bad request is invalid", status: http.StatusBadRequest, body: `{}`, wantErr: ErrInvalidResponse},
		{name: "malformed body is invalid", status: http.StatusOK, body: `{"reply":`, wantErr: ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got remoteQuery
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				_ = json.NewDecoder(r.Body).Decode(&got)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			svc := NewRemoteReplyService(srv.URL, srv.Client())
			reply, err := svc.SubmitQuery(context.Background(), "rustic dining room")

			assert.Equal(t, "rustic dining room", got.Query)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "Try these", reply.Content)
			require.Len(t, reply.Products, 1)
			assert.Equal(t, "Oak Bench", reply.Products[0].Name)
			assert.Equal(t, "180", reply.Products[0].Price.String())
			assert.Equal(t, "/bench.jpg", reply.Products[0].ImageRef)
		})
	}
}

func TestRemoteReplyService_UnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	svc := NewRemoteReplyService(url, &http.Client{Timeout: time.Second})
	_, err := svc.SubmitQuery(context.Background(), "desk")
	assert.ErrorIs(t, err, ErrNetworkFailure)
}

func TestRemoteReplyService_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	svc := NewRemoteReplyService(srv.URL, srv.Client())
	_, err := svc.SubmitQuery(ctx, "desk")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrNetworkFailure)
}
