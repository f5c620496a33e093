package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	fastshot "github.com/opus-domini/fast-shot"
)

const retryAttempts = 3

// Options tune the HTTP template source.
type Options struct {
	Timeout       time.Duration
	RetryInterval time.Duration
}

func client(baseURL string, opts Options) fastshot.ClientHttpMethods {
	c := fastshot.NewClient(strings.TrimSuffix(baseURL, "/"))

	return c.Config().SetTimeout(opts.Timeout).
		Config().SetFollowRedirects(true).
		Header().Add("Accept", "text/plain").
		Build()
}

// FetchTemplate downloads {baseURL}/{name}.
func FetchTemplate(ctx context.Context, baseURL, name string, opts Options) (string, error) {
	if name == "" {
		return "", fmt.Errorf("template name cannot be empty")
	}

	resp, err := client(baseURL, opts).
		GET("/" + strings.TrimPrefix(name, "/")).
		Context().Set(ctx).
		Retry().SetExponentialBackoff(opts.RetryInterval, retryAttempts, 2.0).
		Send()
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body().Close()

	return parseHTTPResponse(*resp)
}

func parseHTTPResponse(resp fastshot.Response) (string, error) {
	if resp.Status().IsError() {
		msg, err := resp.Body().AsString()
		if err != nil {
			return "", fmt.Errorf("failed to read error response: %w", err)
		}
		msg = strings.TrimSpace(msg)
		if msg == "" {
			msg = "template request failed"
		}
		return "", errors.New(msg)
	}

	body, err := resp.Body().AsString()
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
