package bridge

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestEndpointURL(t *testing.T) {
	var testCases = []struct {
		description string
		URL         string
		token       string
		expect      string
		hasError    bool
	}{
		{description: "no token", URL: "wss://api.example.com/mcp/", expect: "wss://api.example.com/mcp/"},
		{description: "token appended", URL: "wss://api.example.com/mcp/", token: "abc", expect: "wss://api.example.com/mcp/?token=abc"},
		{description: "existing token kept", URL: "wss://api.example.com/mcp/?token=xyz", token: "abc", expect: "wss://api.example.com/mcp/?token=xyz"},
		{description: "http scheme", URL: "https://api.example.com/mcp/", hasError: true},
	}
	for _, testCase := range testCases {
		actual, err := endpointURL(testCase.URL, testCase.token)
		if testCase.hasError {
			assert.Error(t, err, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		assert.EqualValues(t, testCase.expect, actual, testCase.description)
	}
}

func TestInspectToken(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	valid := signedToken(t, jwt.MapClaims{"agentId": 42, "sub": "device-1", "exp": now.Add(time.Hour).Unix()})
	expired := signedToken(t, jwt.MapClaims{"agentId": 42, "exp": now.Add(-time.Minute).Unix()})

	info, err := inspectToken("wss://host/mcp/?token="+valid, now)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.EqualValues(t, "42", info.agentID)
	assert.EqualValues(t, "device-1", info.subject)
	assert.EqualValues(t, now.Add(time.Hour).Unix(), info.token.Expiry.Unix())
	assert.EqualValues(t, valid, info.token.AccessToken)

	_, err = inspectToken("wss://host/mcp/?token="+expired, now)
	assert.ErrorContains(t, err, "expired")

	info, err = inspectToken("wss://host/mcp/?token=opaque", now)
	require.NoError(t, err)
	assert.True(t, info.token.Expiry.IsZero())

	info, err = inspectToken("wss://host/mcp/", now)
	require.NoError(t, err)
	assert.Nil(t, info)
}
