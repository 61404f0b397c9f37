package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/viant/mcpws/tool"
)

const maxSearchResults = 10

// SearchInput represents search_web arguments.
type SearchInput struct {
	Query string `json:"query" description:"search query"`
	Count int    `json:"count,omitempty" description:"number of results, up to 10"`
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (s *Service) registerSearch(registry *tool.Registry) error {
	return tool.Register[SearchInput](registry, "search_web", "Search the web", s.searchWeb)
}

func (s *Service) searchWeb(ctx context.Context, input *SearchInput) (string, error) {
	if s.config.Search.APIKey == "" {
		return fmt.Sprintf("web search is not configured; set a Brave API key to search for %q", input.Query), nil
	}
	count := input.Count
	if count <= 0 || count > maxSearchResults {
		count = 5
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	query := url.Values{}
	query.Set("q", input.Query)
	query.Set("count", strconv.Itoa(count))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.Search.APIURL+"?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("X-Subscription-Token", s.config.Search.APIKey)
	response, err := s.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search returned %v", response.Status)
	}
	body, err := io.ReadAll(io.LimitReader(response.Body, 1024*1024))
	if err != nil {
		return "", err
	}
	reply := &braveResponse{}
	if err = json.Unmarshal(body, reply); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}
	if len(reply.Web.Results) == 0 {
		return fmt.Sprintf("no results for %q", input.Query), nil
	}
	var builder strings.Builder
	for i, result := range reply.Web.Results {
		if i == count {
			break
		}
		builder.WriteString(fmt.Sprintf("%d. %v\n   %v\n   %v\n", i+1, result.Title, result.URL, result.Description))
	}
	return strings.TrimRight(builder.String(), "\n"), nil
}
