package bridge

import (
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// endpointURL returns URL carrying token as its token query parameter, unless one is already present.
func endpointURL(URL, token string) (string, error) {
	parsed, err := url.Parse(URL)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint url: %w", err)
	}
	switch parsed.Scheme {
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported endpoint scheme: %q", parsed.Scheme)
	}
	if token == "" {
		return URL, nil
	}
	query := parsed.Query()
	if query.Get("token") != "" {
		return URL, nil
	}
	query.Set("token", token)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// tokenInfo describes the endpoint token.
type tokenInfo struct {
	token   *oauth2.Token
	agentID string
	subject string
}

// inspectToken reads the token query parameter without verifying its signature.
// Opaque tokens are accepted with no expiry; expired JWTs are rejected.
func inspectToken(URL string, now time.Time) (*tokenInfo, error) {
	parsed, err := url.Parse(URL)
	if err != nil {
		return nil, err
	}
	raw := parsed.Query().Get("token")
	if raw == "" {
		return nil, nil
	}
	ret := &tokenInfo{token: &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}}
	claims := jwt.MapClaims{}
	if _, _, err = jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return ret, nil
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("invalid token expiry: %w", err)
	}
	if expiry != nil {
		if !expiry.After(now) {
			return nil, fmt.Errorf("endpoint token expired at %v", expiry.Time.Format(time.RFC3339))
		}
		ret.token.Expiry = expiry.Time
	}
	ret.subject, _ = claims.GetSubject()
	if agentID, ok := claims["agentId"]; ok {
		ret.agentID = fmt.Sprint(agentID)
	}
	return ret, nil
}
