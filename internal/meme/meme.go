// Package meme generates MVP congratulation memes through the imgflip
// caption_image API.
package meme

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const DefaultBaseURL = "https://api.imgflip.com"

// templateID is imgflip's "You Da Real MVP" template.
const (
	templateID = "15878567"
	bottomText = "You Da Real MVP"
)

type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

func NewClient(baseURL, username, password string) *Client {
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

type captionResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	ErrorMessage string `json:"error_message"`
}

// Caption renders the template with caption as the top text and returns
// the generated image URL.
func (c *Client) Caption(ctx context.Context, caption string) (string, error) {
	q := url.Values{}
	q.Set("template_id", templateID)
	q.Set("username", c.username)
	q.Set("password", c.password)
	q.Set("text0", caption)
	q.Set("text1", bottomText)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/caption_image?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	rsp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("caption request: %w", err)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("caption request: unexpected status %s", rsp.Status)
	}

	var body captionResponse
	if err := json.NewDecoder(rsp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode caption response: %w", err)
	}
	if !body.Success {
		return "", fmt.Errorf("imgflip rejected caption: %s", body.ErrorMessage)
	}

	return body.Data.URL, nil
}
