// Package backend talks to the hosted chat API: the durable store for
// messages, reactions, and profiles, and the websocket push channel for
// message-insert events.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/adamavenir/parley/internal/types"
)

// Constraint codes surfaced by the durable store. The numeric variants are
// what the underlying database emits; the named variants are what newer API
// versions return.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	nameUniqueViolation     = "unique_violation"
	nameForeignKeyViolation = "foreign_key_violation"
	nameNotAuthorized       = "not_authorized"
)

// APIError represents a non-2xx response from the chat API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("chat api error: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("chat api error: %s (%d)", e.Code, e.Status)
	}
	if e.Message != "" {
		return fmt.Sprintf("chat api error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("chat api error (%d)", e.Status)
}

type apiErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// IsUniqueViolation reports whether err is a uniqueness-constraint rejection.
// A concurrent writer already created the row; callers treat this as benign.
func IsUniqueViolation(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == codeUniqueViolation ||
		apiErr.Code == nameUniqueViolation ||
		apiErr.Status == http.StatusConflict
}

// IsForeignKeyViolation reports whether err is a foreign-key rejection: a
// referenced row genuinely does not exist.
func IsForeignKeyViolation(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == codeForeignKeyViolation || apiErr.Code == nameForeignKeyViolation
}

// IsNotAuthorized reports whether err is an authorization rejection.
func IsNotAuthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == nameNotAuthorized ||
		apiErr.Status == http.StatusUnauthorized ||
		apiErr.Status == http.StatusForbidden
}

// Client talks to the chat API over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a chat API client.
func NewClient(baseURL, token string) (*Client, error) {
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: normalized,
		token:   token,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}, nil
}

// NormalizeBaseURL normalizes a backend base URL and ensures it has a scheme.
func NormalizeBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("backend url cannot be empty")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid backend url: %w", err)
	}
	if parsed.Scheme == "" {
		return "", fmt.Errorf("backend url must include scheme (https://)")
	}
	return strings.TrimRight(value, "/"), nil
}

// NewMessage is the payload for a durable message insert.
type NewMessage struct {
	Content       string  `json:"content"`
	AuthorID      string  `json:"user_id"`
	AuthorLabel   string  `json:"user_email,omitempty"`
	AttachmentURL string  `json:"attachment_url,omitempty"`
	ReplyToID     *string `json:"reply_to_id,omitempty"`
}

// ListMessages fetches the most recent messages in ascending timestamp order.
func (c *Client) ListMessages(ctx context.Context, limit int) ([]types.Message, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	query.Set("order", "created_at.asc")
	var messages []types.Message
	if err := c.doJSON(ctx, http.MethodGet, "/v1/messages", query, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// InsertMessage writes a message to the durable store and returns the
// server-issued row.
func (c *Client) InsertMessage(ctx context.Context, msg NewMessage) (types.Message, error) {
	var created types.Message
	if err := c.doJSON(ctx, http.MethodPost, "/v1/messages", nil, msg, &created); err != nil {
		return types.Message{}, err
	}
	return created, nil
}

// UpdateMessageContent edits a message's content, constrained by both the
// message id and the author id so a stale or forged id cannot touch another
// user's message.
func (c *Client) UpdateMessageContent(ctx context.Context, messageID, authorID, content string) error {
	query := url.Values{}
	query.Set("user_id", authorID)
	body := map[string]string{"content": content}
	return c.doJSON(ctx, http.MethodPatch, "/v1/messages/"+url.PathEscape(messageID), query, body, nil)
}

// DeleteMessage removes a message, constrained by id and author id.
func (c *Client) DeleteMessage(ctx context.Context, messageID, authorID string) error {
	query := url.Values{}
	query.Set("user_id", authorID)
	return c.doJSON(ctx, http.MethodDelete, "/v1/messages/"+url.PathEscape(messageID), query, nil, nil)
}

// ListReactions fetches the reactions for exactly the given message ids.
func (c *Client) ListReactions(ctx context.Context, messageIDs []string) ([]types.Reaction, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	query := url.Values{}
	query.Set("message_ids", strings.Join(messageIDs, ","))
	var reactions []types.Reaction
	if err := c.doJSON(ctx, http.MethodGet, "/v1/reactions", query, nil, &reactions); err != nil {
		return nil, err
	}
	return reactions, nil
}

// ReactionsForMessage fetches the authoritative reaction set for one message.
func (c *Client) ReactionsForMessage(ctx context.Context, messageID string) ([]types.Reaction, error) {
	reactions, err := c.ListReactions(ctx, []string{messageID})
	if err != nil {
		return nil, err
	}
	return reactions, nil
}

// InsertReaction writes a reaction row. The store enforces at most one
// reaction per (message, user); violations come back as a uniqueness error.
func (c *Client) InsertReaction(ctx context.Context, messageID, userID, emoji string) (types.Reaction, error) {
	body := map[string]string{
		"message_id": messageID,
		"user_id":    userID,
		"emoji":      emoji,
	}
	var created types.Reaction
	if err := c.doJSON(ctx, http.MethodPost, "/v1/reactions", nil, body, &created); err != nil {
		return types.Reaction{}, err
	}
	return created, nil
}

// DeleteReaction removes any reaction row for (message, user). Deleting a
// row that does not exist is not an error.
func (c *Client) DeleteReaction(ctx context.Context, messageID, userID string) error {
	query := url.Values{}
	query.Set("message_id", messageID)
	query.Set("user_id", userID)
	return c.doJSON(ctx, http.MethodDelete, "/v1/reactions", query, nil, nil)
}

// GetProfile looks up a user profile by id.
func (c *Client) GetProfile(ctx context.Context, userID string) (types.Profile, error) {
	var profile types.Profile
	if err := c.doJSON(ctx, http.MethodGet, "/v1/profiles/"+url.PathEscape(userID), nil, nil, &profile); err != nil {
		return types.Profile{}, err
	}
	return profile, nil
}

// UpsertProfile creates or refreshes the caller's profile row.
func (c *Client) UpsertProfile(ctx context.Context, profile types.Profile) error {
	return c.doJSON(ctx, http.MethodPut, "/v1/profiles/"+url.PathEscape(profile.ID), nil, profile, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, reqBody any, respBody any) error {
	endpoint, err := c.buildURL(path, query)
	if err != nil {
		return err
	}

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload apiErrorPayload
		if err := json.Unmarshal(respData, &payload); err == nil {
			apiErr.Code = payload.Error
			apiErr.Message = payload.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(respData))
		}
		return apiErr
	}

	if respBody == nil || len(respData) == 0 {
		return nil
	}
	return json.Unmarshal(respData, respBody)
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	endpoint := base.ResolveReference(ref)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	return endpoint.String(), nil
}
