package widget

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid loader config")

type LoaderConfig struct {
	// ContainerID is the id of the host page element the frame is appended
	// to.
	ContainerID string

	// EmbedURL is the URL of the inner frame page.
	EmbedURL string

	// ScriptURL is the URL the loader script was served from. If TrustedOrigin
	// is unset its origin is trusted.
	ScriptURL string

	// TrustedOrigin is the only origin resize messages are accepted from. If
	// unset it is derived from ScriptURL, or from EmbedURL if ScriptURL is
	// also unset.
	TrustedOrigin string

	// FallbackHeight is the frame height in pixels before the first resize
	// message arrives.
	FallbackHeight int
}

// trustedOrigin resolves the origin resize messages are accepted from.
func (c *LoaderConfig) trustedOrigin() (string, error) {
	if c.TrustedOrigin != "" {
		return OriginOf(c.TrustedOrigin)
	}
	if c.ScriptURL != "" {
		return OriginOf(c.ScriptURL)
	}
	return OriginOf(c.EmbedURL)
}

func (c *LoaderConfig) validate() error {
	if c.ContainerID == "" {
		return fmt.Errorf("%w: container id is required", ErrInvalidConfig)
	}
	if c.EmbedURL == "" {
		return fmt.Errorf("%w: embed url is required", ErrInvalidConfig)
	}
	if c.FallbackHeight < 0 {
		return fmt.Errorf("%w: fallback height cannot be negative", ErrInvalidConfig)
	}
	if _, err := c.trustedOrigin(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
