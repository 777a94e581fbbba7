// Package githubfs mirrors the ledger's CSV tables to a file in a GitHub
// repository through the contents API.
package githubfs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotFound is returned when the mirrored file does not exist yet.
var ErrNotFound = errors.New("file not found in repository")

const defaultBaseURL = "https://api.github.com"

// Client talks to the GitHub contents API for a single repository.
type Client struct {
	baseURL    string
	token      string
	repo       string // "owner/name"
	branch     string
	httpClient *http.Client
}

// NewClient creates a contents API client. baseURL is overridable for tests;
// pass "" for api.github.com.
func NewClient(baseURL, token, repo, branch string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		repo:       repo,
		branch:     branch,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

// GetFile fetches the decoded contents and blob SHA of a file.
func (c *Client) GetFile(ctx context.Context, path string) ([]byte, string, error) {
	url := fmt.Sprintf("%s/repos/%s/contents/%s?ref=%s", c.baseURL, c.repo, path, c.branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("contents API returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("failed to decode response: %w", err)
	}

	// The API wraps base64 content at 60 columns; the std decoder rejects
	// embedded newlines unless they are stripped first.
	cleaned := bytes.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, []byte(payload.Content))

	content, err := base64.StdEncoding.DecodeString(string(cleaned))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode file content: %w", err)
	}
	return content, payload.SHA, nil
}

// PutFile creates or updates a file. The current blob SHA is looked up
// first: the contents API requires it when replacing an existing file.
func (c *Client) PutFile(ctx context.Context, path string, content []byte, message string) error {
	_, sha, err := c.GetFile(ctx, path)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to look up current sha: %w", err)
	}

	body := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
		"branch":  c.branch,
	}
	if sha != "" {
		body["sha"] = sha
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, c.repo, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("contents API returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
}
