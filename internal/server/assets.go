package server

import (
	"bytes"
	"embed"
	"encoding/json"
	htmltemplate "html/template"
	"strings"
	"text/template"

	"github.com/platapay/widget"
)

//go:embed assets/*.tmpl
var assetsFS embed.FS

var (
	loaderTemplate = template.Must(
		template.New("loader.js.tmpl").
			Funcs(template.FuncMap{"json": jsonValue}).
			ParseFS(assetsFS, "assets/loader.js.tmpl"),
	)
	frameTemplate = htmltemplate.Must(
		htmltemplate.ParseFS(assetsFS, "assets/frame.html.tmpl"),
	)
)

// jsonValue renders v as a JavaScript literal.
func jsonValue(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type loaderParams struct {
	widget.Variant
	EmbedOrigin string
}

// RenderLoaderScript renders the standalone loader script for the variant.
// embedOrigin is the origin of the frame for variants not served from the
// same origin as the script.
func RenderLoaderScript(v widget.Variant, embedOrigin string) ([]byte, error) {
	var buf bytes.Buffer
	err := loaderTemplate.Execute(&buf, loaderParams{
		Variant:     v,
		EmbedOrigin: strings.TrimSuffix(embedOrigin, "/"),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type frameParams struct {
	Name  string
	Title string
}

// RenderFramePage renders the inner frame page for the variant.
func RenderFramePage(v widget.Variant) ([]byte, error) {
	title := "PlataPay agent map"
	if v.Name == widget.FormVariant.Name {
		title = "PlataPay agent application"
	}

	var buf bytes.Buffer
	err := frameTemplate.Execute(&buf, frameParams{
		Name:  v.Name,
		Title: title,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
