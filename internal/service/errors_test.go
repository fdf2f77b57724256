package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"kanban/internal/service"
)

func TestKind(t *testing.T) {
	rejected := fmt.Errorf("create task: %w", &service.RemoteError{Op: "create task", Status: 500})
	transport := &service.TransportError{Op: "delete task", Err: context.DeadlineExceeded}
	malformed := fmt.Errorf("%w: missing id", service.ErrMalformed)

	assert.Equal(t, "none", service.Kind(nil))
	assert.Equal(t, "rejected", service.Kind(rejected))
	assert.Equal(t, "transport", service.Kind(transport))
	assert.Equal(t, "malformed", service.Kind(malformed))
	assert.Equal(t, "unknown", service.Kind(errors.New("boom")))

	assert.ErrorIs(t, transport, context.DeadlineExceeded)
	assert.Equal(t, "create task: 500 Internal Server Error", (&service.RemoteError{Op: "create task", Status: 500}).Error())
}
