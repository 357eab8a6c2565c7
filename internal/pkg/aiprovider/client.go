// Package aiprovider is the HTTP client for the OpenAI-compatible gateway that
// fronts the chat, image, speech and video models.
package aiprovider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"
)

const defaultTimeout = 120 * time.Second

var (
	ErrNotConfigured = errors.New("aiprovider: base url is empty")
	ErrEmptyResult   = errors.New("aiprovider: provider returned no result")
)

// Config configures the provider client.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	UserAgent  string
	ChatModel  string
	ImageModel string
	VoiceModel string
	VideoModel string
}

// Client represents the AI provider HTTP client.
type Client struct {
	cfg  Config
	http *http.Client
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Video is a rendered clip hosted by the provider.
type Video struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Seconds int    `json:"seconds"`
}

// NewClient creates a new provider client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// Chat returns the assistant reply for a conversation.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	var out struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
	}
	err := c.postJSON(ctx, "chat", "/v1/chat/completions", map[string]interface{}{
		"model":    c.cfg.ChatModel,
		"messages": messages,
	}, &out)
	if err != nil {
		return "", err
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResult
	}
	return out.Choices[0].Message.Content, nil
}

// GenerateImage renders one image and returns its encoded bytes.
func (c *Client) GenerateImage(ctx context.Context, prompt, size string) ([]byte, error) {
	var out struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	err := c.postJSON(ctx, "image", "/v1/images/generations", map[string]interface{}{
		"model":           c.cfg.ImageModel,
		"prompt":          prompt,
		"size":            size,
		"n":               1,
		"response_format": "b64_json",
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Data) == 0 || out.Data[0].B64JSON == "" {
		return nil, ErrEmptyResult
	}
	img, err := base64.StdEncoding.DecodeString(out.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("aiprovider image decode error: %w", err)
	}
	return img, nil
}

// Speak synthesises text and returns the audio body and its content type.
func (c *Client) Speak(ctx context.Context, text, voice string) ([]byte, string, error) {
	resp, err := c.do(ctx, "voice", "/v1/audio/speech", map[string]interface{}{
		"model": c.cfg.VoiceModel,
		"input": text,
		"voice": voice,
	})
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("aiprovider voice read error: %w", err)
	}
	if len(audio) == 0 {
		return nil, "", ErrEmptyResult
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return audio, contentType, nil
}

// GenerateVideo renders a clip; the provider hosts the result.
func (c *Client) GenerateVideo(ctx context.Context, prompt string, seconds int) (*Video, error) {
	var out Video
	err := c.postJSON(ctx, "video", "/v1/videos", map[string]interface{}{
		"model":   c.cfg.VideoModel,
		"prompt":  prompt,
		"seconds": seconds,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.URL == "" {
		return nil, ErrEmptyResult
	}
	if out.Seconds == 0 {
		out.Seconds = seconds
	}
	return &out, nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, payload interface{}, out interface{}) error {
	resp, err := c.do(ctx, op, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("aiprovider %s decode error: %w", op, err)
	}
	return nil
}

// do sends the request; the caller owns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op, path string, payload interface{}) (*http.Response, error) {
	if c == nil || c.http == nil {
		return nil, fmt.Errorf("aiprovider %s request error: client is nil", op)
	}
	if c.cfg.BaseURL == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("aiprovider %s request error: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("aiprovider %s request error: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyRequestError(ctx, op, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	msg, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if readErr != nil {
		return nil, fmt.Errorf("aiprovider %s http error: status=%d body=<failed to read body: %v>", op, resp.StatusCode, readErr)
	}
	return nil, fmt.Errorf("aiprovider %s http error: status=%d body=%s", op, resp.StatusCode, string(msg))
}

func classifyRequestError(ctx context.Context, op string, err error) error {
	if isTimeoutError(ctx, err) {
		return fmt.Errorf("aiprovider %s timeout: %w", op, err)
	}
	if isNetworkError(err) {
		return fmt.Errorf("aiprovider %s network error: %w", op, err)
	}
	return fmt.Errorf("aiprovider %s request error: %w", op, err)
}

func isTimeoutError(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH)
}
