// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorCode_KnownAndWrappedErrors(t *testing.T) {
	require.Equal(t, 420101, ErrorCode(ErrBanned))
	require.Equal(t, 420104, ErrorCode(ErrMatchNotFound))

	wrapped := fmt.Errorf("join rejected: %w", ErrAlreadyQueued)
	require.Equal(t, 420102, ErrorCode(wrapped))
}

func TestErrorCode_UnknownErrorFallsBack(t *testing.T) {
	require.Equal(t, 20002, ErrorCode(errors.New("mystery")))
}
