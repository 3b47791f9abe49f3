package testutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserConfig configures the Chrome instance used by end-to-end tests.
type BrowserConfig struct {
	Headless bool
	Timeout  time.Duration
	// Bin is the Chrome binary. Empty lets rod find or download one.
	Bin string
}

// DefaultBrowserConfig returns a headless browser with a 30s timeout.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless: true,
		Timeout:  30 * time.Second,
	}
}

// BrowserClient drives a Chrome instance that can send fake microphone audio
// over WebRTC without user interaction.
type BrowserClient struct {
	browser *rod.Browser
	page    *rod.Page
	timeout time.Duration
}

// NewBrowserClient launches Chrome with a fake audio device and
// auto-granted media permissions.
func NewBrowserClient(cfg BrowserConfig) (*BrowserClient, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("use-fake-device-for-media-stream").
		Set("use-fake-ui-for-media-stream").
		Set("autoplay-policy", "no-user-gesture-required")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BrowserClient{browser: browser, timeout: timeout}, nil
}

// Navigate opens url in a new page and makes it the current page.
func (c *BrowserClient) Navigate(url string) (*rod.Page, error) {
	page, err := c.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	c.page = page

	if err := page.Timeout(c.timeout).Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}
	return page, nil
}

// WaitStable waits until the current page stops changing for a second.
func (c *BrowserClient) WaitStable() error {
	if c.page == nil {
		return errors.New("no page open, call Navigate first")
	}
	return c.page.Timeout(c.timeout).WaitStable(time.Second)
}

// Eval runs js on the current page and returns its value.
func (c *BrowserClient) Eval(js string) (any, error) {
	if c.page == nil {
		return nil, errors.New("no page open, call Navigate first")
	}
	res, err := c.page.Eval(js)
	if err != nil {
		return nil, fmt.Errorf("eval: %w", err)
	}
	return res.Value.Val(), nil
}

// WaitFor polls js every 100ms until it returns true or the client timeout
// expires.
func (c *BrowserClient) WaitFor(js string) error {
	deadline := time.Now().Add(c.timeout)
	for time.Now().Before(deadline) {
		v, err := c.Eval(js)
		if err != nil {
			return err
		}
		if ok, _ := v.(bool); ok {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("timed out after %v waiting for %q", c.timeout, js)
}

// Close shuts the browser down. Always defer it, or Chrome processes leak.
func (c *BrowserClient) Close() error {
	if c.browser == nil {
		return nil
	}
	return c.browser.Close()
}
