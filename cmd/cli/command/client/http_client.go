package client

// http_client.go = talks to the ratings HTTP API on behalf of ratingsctl.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ratings/cmd/cli/dto"
)

// defines the HTTP client structure and methods
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// ListOptions mirrors the list endpoint's query parameters.
type ListOptions struct {
	Module string
	SortBy string
	Order  string
	Limit  int
}

// constructor for HTTP client
func NewHTTPClient(apiURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// set token for HTTP client
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// RateItem submits one vote.
func (c *HTTPClient) RateItem(module, itemID string, rating int) (*dto.RateResponse, error) {
	body, err := json.Marshal(dto.RateRequest{Rating: rating})
	if err != nil {
		return nil, err
	}

	var result dto.RateResponse
	if err := c.do(http.MethodPost, itemPath(module, itemID), bytes.NewReader(body), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetItemRating returns nil when the item has not been rated.
func (c *HTTPClient) GetItemRating(module, itemID string) (*dto.RatingResponse, error) {
	var result dto.RatingEnvelope
	if err := c.do(http.MethodGet, itemPath(module, itemID), nil, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

func (c *HTTPClient) GetRatingByID(id int64) (*dto.RatingResponse, error) {
	var result dto.RatingEnvelope
	if err := c.do(http.MethodGet, "/api/ratings/"+strconv.FormatInt(id, 10), nil, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

func (c *HTTPClient) ListRatings(opts ListOptions) (*dto.RatingListResponse, error) {
	q := url.Values{}
	if opts.Module != "" {
		q.Set("module", opts.Module)
	}
	if opts.SortBy != "" {
		q.Set("sortby", opts.SortBy)
	}
	if opts.Order != "" {
		q.Set("order", opts.Order)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	path := "/api/ratings"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result dto.RatingListResponse
	if err := c.do(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) CountRatings() (int64, error) {
	var result dto.CountResponse
	if err := c.do(http.MethodGet, "/api/ratings/count", nil, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

func itemPath(module, itemID string) string {
	return "/api/ratings/items/" + url.PathEscape(module) + "/" + url.PathEscape(itemID)
}

// do sends the request and decodes a 200 response into out.
func (c *HTTPClient) do(method, path string, body io.Reader, out any) error {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // Ensure the response body is closed

	if resp.StatusCode != http.StatusOK {
		var apiErr dto.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("request failed with status %s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("request failed with status: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
