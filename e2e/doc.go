//go:build e2e

// Package e2e provides end-to-end tests running real WebRTC media through the
// interceptor chain.
//
// These tests are isolated from the standard test suite via build tags.
// The browser tests require Chrome (auto-downloaded by Rod if not present);
// the Pion client tests need only loopback networking.
//
// Running E2E tests:
//
//	go test -tags=e2e ./e2e/...
//
// Running all tests except E2E:
//
//	go test ./...
//
// E2E tests use:
//   - Rod for browser automation (Chrome DevTools Protocol)
//   - the interop server for WebRTC signaling and /stats
//   - BrowserClient from pkg/rtpchain/testutil for Chrome helpers
//
// Each test starts its own server on a random port and, where needed,
// its own browser instance.
package e2e
