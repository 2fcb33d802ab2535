package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	req := require.New(t)
	t.Setenv("PORT", "9000")
	t.Setenv("WS_PING_INTERVAL", "2s")
	t.Setenv("WS_SEND_QUEUE_SIZE", "16")

	cfg, err := Load()
	req.NoError(err)
	req.Equal(":9000", cfg.Addr())
	req.Equal(2*time.Second, cfg.PingInterval)
	req.Equal(16, cfg.SendQueueSize)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("PORT", "3000 extra")

	_, err := Load()
	require.Error(t, err)
}

func TestAddrNormalization(t *testing.T) {
	req := require.New(t)

	req.Equal(":3000", (&Config{Port: "3000"}).Addr())
	req.Equal(":3000", (&Config{Port: ":3000"}).Addr())
	req.Equal("127.0.0.1:8080", (&Config{Port: "127.0.0.1:8080"}).Addr())
}
