package supervisor

import "net/url"

// redactURL masks credentials carried in the endpoint URL.
func redactURL(URL string) string {
	parsed, err := url.Parse(URL)
	if err != nil {
		return "<invalid url>"
	}
	query := parsed.Query()
	if query.Has("token") {
		query.Set("token", "***")
		parsed.RawQuery = query.Encode()
	}
	return parsed.Redacted()
}
