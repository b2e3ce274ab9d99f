package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	headers := ParseHeaders(" api-key = secret ,broken, =x,tenant=nut")
	require.Equal(t, map[string]string{"api-key": "secret", "tenant": "nut"}, headers)
}

func TestNewConfigDisabledWithoutEndpoint(t *testing.T) {
	cfg := NewConfig("vestd", "dev", "  ", false, "")
	require.False(t, cfg.Enabled())

	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitRequiresServiceName(t *testing.T) {
	_, err := Init(context.Background(), Config{})
	require.Error(t, err)
}

func TestInitRequiresServiceNameSentinel(t *testing.T) {
	_, err := Init(context.Background(), NewConfig(" ", "dev", "collector:4318", true, ""))
	require.ErrorIs(t, err, ErrServiceNameRequired)
}
