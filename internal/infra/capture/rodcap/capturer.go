// Package rodcap captures full-page webpage screenshots with headless Chrome.
package rodcap

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	viewportWidth     = 1920
	viewportHeight    = 1080
	deviceScaleFactor = 2.0
)

// DefaultNavigationTimeout bounds page navigation and load.
const DefaultNavigationTimeout = 30 * time.Second

// Capturer launches an ephemeral browser per capture. Nothing is shared
// across calls; the browser and its page are closed on every exit path.
type Capturer struct {
	NavigationTimeout time.Duration
}

func New(navTimeout time.Duration) *Capturer {
	if navTimeout <= 0 {
		navTimeout = DefaultNavigationTimeout
	}
	return &Capturer{NavigationTimeout: navTimeout}
}

// Capture navigates to url and returns a full-page PNG at 1920x1080 logical
// pixels with a 2x device scale factor.
func (c *Capturer) Capture(ctx context.Context, url string) ([]byte, error) {
	l := launcher.New().Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	defer func() {
		// Close is a CDP call and fails without effect once ctx is
		// cancelled; Kill is pid-based, so Chrome is guaranteed dead
		// before Cleanup waits on the launcher's exit.
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer func() { _ = page.Close() }()

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: deviceScaleFactor,
		Mobile:            false,
	}).Call(page); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	page = page.Timeout(c.NavigationTimeout)
	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load %s: %w", url, err)
	}

	buf, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot %s: %w", url, err)
	}
	return buf, nil
}
