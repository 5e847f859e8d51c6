package widget

import (
	"strings"
)

// Variant describes one of the embeddable widgets.
type Variant struct {
	// Name identifies the variant, such as "map".
	Name string

	// ContainerID is the element id integrators give the host page
	// container.
	ContainerID string

	// EmbedPath is the path of the inner frame page.
	EmbedPath string

	// ScriptPath is the path the loader script is served from.
	ScriptPath string

	// FallbackHeight is the frame height in pixels until the first resize
	// message arrives.
	FallbackHeight int

	// SameOrigin is true if the frame is served from the same origin as the
	// loader script, so the trusted origin is derived from the script URL.
	SameOrigin bool
}

var (
	MapVariant = Variant{
		Name:           "map",
		ContainerID:    "platapay-agent-map-container",
		EmbedPath:      "/embed/map",
		ScriptPath:     "/embed/map-loader.js",
		FallbackHeight: 500,
		SameOrigin:     true,
	}

	FormVariant = Variant{
		Name:           "form",
		ContainerID:    "platapay-agent-form-container",
		EmbedPath:      "/embed",
		ScriptPath:     "/embed/form-loader.js",
		FallbackHeight: 600,
		SameOrigin:     false,
	}
)

// Variants lists the supported variants.
func Variants() []Variant {
	return []Variant{MapVariant, FormVariant}
}

// LookupVariant returns the variant with the given name.
func LookupVariant(name string) (Variant, bool) {
	for _, v := range Variants() {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// LoaderConfig returns the loader configuration for the variant served from
// scriptOrigin with its frame served from embedOrigin. For same origin
// variants embedOrigin is ignored.
func (v Variant) LoaderConfig(scriptOrigin string, embedOrigin string) LoaderConfig {
	scriptOrigin = strings.TrimSuffix(scriptOrigin, "/")
	embedOrigin = strings.TrimSuffix(embedOrigin, "/")
	if v.SameOrigin || embedOrigin == "" {
		embedOrigin = scriptOrigin
	}

	return LoaderConfig{
		ContainerID:    v.ContainerID,
		EmbedURL:       embedOrigin + v.EmbedPath,
		ScriptURL:      scriptOrigin + v.ScriptPath,
		TrustedOrigin:  embedOrigin,
		FallbackHeight: v.FallbackHeight,
	}
}
