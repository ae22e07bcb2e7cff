package middleware

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{
		"Content-Type": {"application/json"},
		"X-Custom":     {"a", "b"},
	}
	body := []byte(`{"events":[]}`)

	payload, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, gotHdr)
	assert.Equal(t, body, gotBody)
}

func TestCachePayloadEmptyBody(t *testing.T) {
	payload, err := encodePayload(http.StatusOK, http.Header{}, nil)
	require.NoError(t, err)

	status, _, body, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body)
}

func TestDecodePayloadRejectsCorruptData(t *testing.T) {
	_, _, _, ok := decodePayload([]byte("short"))
	assert.False(t, ok)

	// Header length claims more bytes than the payload holds.
	payload, err := encodePayload(http.StatusOK, http.Header{"A": {"b"}}, []byte("body"))
	require.NoError(t, err)
	_, _, _, ok = decodePayload(payload[:10])
	assert.False(t, ok)
}
