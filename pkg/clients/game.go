// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

// Package clients holds the outbound HTTP clients for the game and
// users services. Both translate transport failures into typed
// fallback results instead of surfacing raw errors.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/xeipuuv/gojsonschema"

	"github.com/thetranscendence/matchmaking/pkg/constants"
	"github.com/thetranscendence/matchmaking/pkg/envelope"
	"github.com/thetranscendence/matchmaking/pkg/models"
)

const createGameResponseSchema = `{
	"type": "object",
	"required": ["success"],
	"properties": {
		"success": {"type": "boolean"},
		"gameId": {"type": "string"},
		"error": {"type": "string", "enum": ["GAME_ALREADY_EXISTS", "PLAYER_ALREADY_IN_GAME", "INVALID_PLAYERS"]},
		"message": {"type": "string"}
	}
}`

// GameClient talks to the game service. CreateGame never returns a
// transport error: anything outside the contract resolves to a
// fallback result carrying a "fallback" marker in its message.
type GameClient struct {
	baseURL        string
	timeout        time.Duration
	client         *fasthttp.Client
	responseSchema *gojsonschema.Schema
	onFallback     func()
}

func NewGameClient(baseURL string, timeout time.Duration) *GameClient {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(createGameResponseSchema))
	if err != nil {
		// the schema is a compile-time constant
		panic(fmt.Sprintf("invalid create game response schema: %v", err))
	}

	return &GameClient{
		baseURL: baseURL,
		timeout: timeout,
		client: &fasthttp.Client{
			MaxConnsPerHost: 64,
			ReadTimeout:     timeout,
			WriteTimeout:    timeout,
		},
		responseSchema: schema,
	}
}

// SetFallbackHook registers a callback fired whenever a call resolves
// to the fallback result. Used to feed metrics.
func (c *GameClient) SetFallbackHook(hook func()) {
	c.onFallback = hook
}

// CreateGame asks the game service to create a game instance for a
// confirmed match. Business errors from the service pass through
// unchanged; transport, status and schema failures all map onto the
// fallback result.
func (c *GameClient) CreateGame(scope *envelope.Scope, request models.CreateGameRequest) models.CreateGameResult {
	if request.GameID == "" || request.Player1ID == "" || request.Player2ID == "" {
		return c.fallback(scope, "invalid create game request")
	}

	body, err := json.Marshal(request)
	if err != nil {
		return c.fallback(scope, fmt.Sprintf("marshal request: %v", err))
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/games")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
		return c.fallback(scope, fmt.Sprintf("game service unreachable: %v", err))
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return c.fallback(scope, fmt.Sprintf("game service returned status %d", status))
	}

	payload := resp.Body()
	validation, err := c.responseSchema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil || !validation.Valid() {
		return c.fallback(scope, "game service response failed schema validation")
	}

	var result models.CreateGameResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return c.fallback(scope, fmt.Sprintf("decode response: %v", err))
	}

	return result
}

// Health probes GET /health with a short timeout.
func (c *GameClient) Health(ctx context.Context) bool {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/health")
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := c.client.DoTimeout(req, resp, constants.HealthProbeTimeout); err != nil {
		return false
	}

	return resp.StatusCode() == fasthttp.StatusOK
}

func (c *GameClient) fallback(scope *envelope.Scope, detail string) models.CreateGameResult {
	scope.Log.WithField("detail", detail).Warn("game client falling back")
	if c.onFallback != nil {
		c.onFallback()
	}

	return models.CreateGameResult{
		Success: false,
		Error:   models.GameErrAlreadyExists,
		Message: fmt.Sprintf("game creation fallback: %s", detail),
	}
}
