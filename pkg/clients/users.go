// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package clients

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/xeipuuv/gojsonschema"

	"github.com/thetranscendence/matchmaking/pkg/constants"
	"github.com/thetranscendence/matchmaking/pkg/envelope"
)

const eloResponseSchema = `{
	"type": "object",
	"required": ["elo"],
	"properties": {
		"elo": {"type": "integer", "minimum": 0}
	}
}`

// UsersClient snapshots a player's skill rating at connection time.
// Any transport or validation failure degrades to the default rating.
type UsersClient struct {
	baseURL        string
	timeout        time.Duration
	client         *fasthttp.Client
	responseSchema *gojsonschema.Schema
}

func NewUsersClient(baseURL string, timeout time.Duration) *UsersClient {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(eloResponseSchema))
	if err != nil {
		panic(fmt.Sprintf("invalid elo response schema: %v", err))
	}

	return &UsersClient{
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

// GetUserElo returns the user's rating, or the default rating when the
// users service cannot produce a well-formed answer.
func (c *UsersClient) GetUserElo(scope *envelope.Scope, userID string) int {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/users/%s/elo", c.baseURL, userID))
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
		scope.Log.WithField("userID", userID).Warnf("users service unreachable, using default elo: %v", err)
		return constants.DefaultElo
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		scope.Log.WithField("userID", userID).WithField("status", resp.StatusCode()).
			Warn("users service returned non-200, using default elo")
		return constants.DefaultElo
	}

	payload := resp.Body()
	validation, err := c.responseSchema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil || !validation.Valid() {
		scope.Log.WithField("userID", userID).Warn("elo response failed schema validation, using default elo")
		return constants.DefaultElo
	}

	var body struct {
		Elo int `json:"elo"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return constants.DefaultElo
	}

	return body.Elo
}
