package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	commandCreate     = "createEvent"
	commandExtend     = "extendEvent"
	commandEnd        = "endEvent"
	commandCheckIn    = "checkInEvent"
	commandRoomSearch = "roomSearch"
)

// commandEnvelope is the wire form of one bridge command. The ID correlates
// the acknowledgement with the request in the bridge logs.
type commandEnvelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type commandResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HTTPClient talks to the panel bridge over HTTP. Each command POST carries
// its own deadline so a stalled bridge cannot wedge a user action.
type HTTPClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

func (c *HTTPClient) CreateEvent(ctx context.Context, req CreateEventRequest) error {
	return c.send(ctx, commandCreate, req)
}

func (c *HTTPClient) ExtendEvent(ctx context.Context, ref EventRef, minutes int) error {
	payload := struct {
		EventRef
		Minutes int `json:"minutes"`
	}{ref, minutes}
	return c.send(ctx, commandExtend, payload)
}

func (c *HTTPClient) EndEvent(ctx context.Context, ref EventRef) error {
	return c.send(ctx, commandEnd, ref)
}

func (c *HTTPClient) CheckInEvent(ctx context.Context, ref EventRef) error {
	return c.send(ctx, commandCheckIn, ref)
}

func (c *HTTPClient) RoomSearch(ctx context.Context, req SearchRequest) error {
	return c.send(ctx, commandRoomSearch, req)
}

func (c *HTTPClient) send(ctx context.Context, commandType string, payload any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	envelope := commandEnvelope{
		ID:      uuid.NewString(),
		Type:    commandType,
		Payload: payload,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to encode %s command: %w", commandType, err)
	}
	log.Debugf("Sending bridge command %s (%s)", commandType, envelope.ID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/command", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s command request: %w", commandType, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s command: %w", commandType, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", ErrCommandFailed, commandType, resp.StatusCode)
	}

	var result commandResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode %s command result: %w", commandType, err)
	}
	if !result.Success {
		log.Warnf("Bridge rejected command %s (%s): %s", commandType, envelope.ID, result.Message)
		return fmt.Errorf("%w: %s", ErrCommandFailed, result.Message)
	}
	return nil
}
