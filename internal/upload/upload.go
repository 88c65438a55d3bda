// Package upload persists step logs on the reviews server and
// returns their reference URLs.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bgee/sympy-bot/internal/review"
)

// payload is the wire form of one uploaded report.
type payload struct {
	Number      int    `json:"number"`
	Result      string `json:"result"`
	Interpreter string `json:"interpreter"`
	Log         string `json:"log"`
	TestCommand string `json:"testcommand,omitempty"`
}

type response struct {
	URL string `json:"url"`
}

// Client uploads reports to a reviews server.
type Client struct {
	base string
	hc   *http.Client
}

// New creates a client for the server at base (e.g.
// "https://reviews.sympy.org").
func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   http.DefaultClient,
	}
}

// Upload stores one log/result tuple and returns its report URL.
func (c *Client) Upload(ctx context.Context, data review.UploadData) (string, error) {
	body, err := json.Marshal(payload{
		Number:      data.Number,
		Result:      data.Result,
		Interpreter: data.Interpreter,
		Log:         data.Log,
		TestCommand: data.Command,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/report", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("upload report: server returned %s: %s",
			resp.Status, strings.TrimSpace(string(b)))
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if r.URL == "" {
		return "", fmt.Errorf("upload response carried no url")
	}
	return r.URL, nil
}
