package proxy

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient(t *testing.T) {
	direct, err := NewHTTPClient("", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, direct.Timeout)

	socks, err := NewHTTPClient("127.0.0.1:1080", time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, socks.Timeout)

	tr, ok := socks.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, tr.DialContext)
	assert.Nil(t, tr.Proxy)
}
