package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// NewConversation starts a conversation and makes it the active one.
func (c *Client) NewConversation(ctx context.Context) (int64, error) {
	var out struct {
		ConversationID int64 `json:"conversation_id"`
	}
	if err := c.postJSON(ctx, "/chat/new/", nil, &out); err != nil {
		return 0, err
	}
	return out.ConversationID, nil
}

// OpenConversation makes id the active conversation. The backend redirects
// to the chat index for unknown ids, which is reported as ErrNotFound.
func (c *Client) OpenConversation(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/chat/%d/", id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request to %s: %w", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Path: path}
	}
	if !strings.HasSuffix(resp.Request.URL.Path, path) {
		return &APIError{StatusCode: http.StatusNotFound, Path: path, Message: "conversation does not exist"}
	}

	return nil
}

// RenameConversation sets the title of conversation id and returns the title
// the backend stored, which may be shortened.
func (c *Client) RenameConversation(ctx context.Context, id int64, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("empty title")
	}

	var out struct {
		Title string `json:"title"`
	}
	in := struct {
		Title string `json:"title"`
	}{Title: title}

	if err := c.postJSON(ctx, fmt.Sprintf("/chat/api/rename/%d/", id), in, &out); err != nil {
		return "", err
	}
	return out.Title, nil
}

// DeleteConversation removes conversation id.
func (c *Client) DeleteConversation(ctx context.Context, id int64) error {
	return c.postJSON(ctx, fmt.Sprintf("/chat/api/delete/%d/", id), nil, nil)
}
