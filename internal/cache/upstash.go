// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const upstashTimeout = 3 * time.Second

// Upstash is a shared cache on Upstash Redis, spoken to over its REST API.
type Upstash struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

type upstashReply struct {
	Result *string `json:"result"`
	Error  string  `json:"error"`
}

// NewUpstash returns a client for the REST endpoint at baseURL.
func NewUpstash(baseURL, token string, logger *slog.Logger) (*Upstash, error) {
	if baseURL == "" || token == "" {
		return nil, errors.New("upstash cache: url and token are required")
	}
	return &Upstash{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: upstashTimeout},
		logger:  orDiscard(logger),
	}, nil
}

// Get issues GET /get/<key>.
func (u *Upstash) Get(ctx context.Context, key string) ([]byte, bool) {
	reply, err := u.call(ctx, http.MethodGet, "/get/"+url.PathEscape(key), nil)
	if err != nil {
		u.logger.Debug("upstash cache get failed", "key", key, "error", err)
		return nil, false
	}
	if reply.Result == nil {
		return nil, false
	}
	return []byte(*reply.Result), true
}

// Set issues POST /set/<key> with the value as body and EX for the TTL.
func (u *Upstash) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	path := "/set/" + url.PathEscape(key)
	if secs := int64(ttl / time.Second); secs > 0 {
		path += "?EX=" + strconv.FormatInt(secs, 10)
	}
	if _, err := u.call(ctx, http.MethodPost, path, value); err != nil {
		u.logger.Debug("upstash cache set failed", "key", key, "error", err)
	}
}

// Close is a no-op; the REST client holds no connections of its own.
func (u *Upstash) Close() error { return nil }

func (u *Upstash) call(ctx context.Context, method, path string, body []byte) (*upstashReply, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+u.token)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reply upstashReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decoding reply (HTTP %d): %w", resp.StatusCode, err)
	}
	if reply.Error != "" {
		return nil, errors.New(reply.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return &reply, nil
}
