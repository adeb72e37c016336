// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package ws

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/thetranscendence/matchmaking/pkg/constants"
	"github.com/thetranscendence/matchmaking/pkg/models"
)

// Inbound payload schemas, validated before any handler runs.
var inboundSchemaSources = map[string]string{
	constants.EventJoinQueue: `{
		"type": "object",
		"properties": {
			"elo": {"type": "integer", "minimum": 0}
		},
		"additionalProperties": false
	}`,
	constants.EventLeaveQueue: `{
		"type": "object",
		"additionalProperties": false
	}`,
	constants.EventAcceptMatch: `{
		"type": "object",
		"required": ["matchId"],
		"properties": {
			"matchId": {"type": "string", "format": "uuid"}
		},
		"additionalProperties": false
	}`,
	constants.EventDeclineMatch: `{
		"type": "object",
		"required": ["matchId"],
		"properties": {
			"matchId": {"type": "string", "format": "uuid"}
		},
		"additionalProperties": false
	}`,
}

type schemaRegistry struct {
	schemas map[string]*gojsonschema.Schema
}

func newSchemaRegistry() *schemaRegistry {
	registry := &schemaRegistry{schemas: make(map[string]*gojsonschema.Schema, len(inboundSchemaSources))}
	for event, source := range inboundSchemaSources {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
		if err != nil {
			panic(fmt.Sprintf("invalid inbound schema for %s: %v", event, err))
		}
		registry.schemas[event] = schema
	}
	return registry
}

// validate checks raw payload bytes against the event's schema. An
// unknown event or a schema violation yields ErrInvalidPayload with
// the validator details attached.
func (r *schemaRegistry) validate(event string, payload []byte) error {
	schema, ok := r.schemas[event]
	if !ok {
		return fmt.Errorf("%w: unknown event %q", models.ErrInvalidPayload, event)
	}

	if len(payload) == 0 {
		payload = []byte(`{}`)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidPayload, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return fmt.Errorf("%w: %s", models.ErrInvalidPayload, strings.Join(details, "; "))
	}

	return nil
}
