package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"furniture-assistant/internal/domain"
)

// RemoteReplyService forwards queries to a recommendation backend over HTTP
type RemoteReplyService struct {
	endpoint string
	client   *http.Client
}

type remoteQuery struct {
	Query string `json:"query"`
}

// NewRemoteReplyService creates a client for the backend at endpoint
func NewRemoteReplyService(endpoint string, client *http.Client) *RemoteReplyService {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &RemoteReplyService{
		endpoint: endpoint,
		client:   client,
	}
}

// SubmitQuery posts the query and decodes the reply. Transport errors and 5xx
// responses are reported as ErrNetworkFailure; anything else the backend gets
// wrong is ErrInvalidResponse.
func (s *RemoteReplyService) SubmitQuery(ctx context.Context, query string) (domain.Reply, error) {
	body, err := json.Marshal(remoteQuery{Query: query})
	if err != nil {
		return domain.Reply{}, fmt.Errorf("marshaling query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Reply{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Reply{}, ctx.Err()
		}
		return domain.Reply{}, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError, resp.StatusCode == http.StatusTooManyRequests:
		return domain.Reply{}, fmt.Errorf("%w: backend returned status %d", ErrNetworkFailure, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return domain.Reply{}, fmt.Errorf("%w: backend returned status %d", ErrInvalidResponse, resp.StatusCode)
	}

	var reply domain.Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return domain.Reply{}, fmt.Errorf("%w: decoding reply: %v", ErrInvalidResponse, err)
	}

	return reply, nil
}
