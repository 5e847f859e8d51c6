package server

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/platapay/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// hostPageEnv is a minimal host page for running the loader script: a
// document with registered elements, a window collecting message listeners,
// and a console collecting errors.
const hostPageEnv = `
var diagnostics = [];
var console = {
  error: function () {
    diagnostics.push(Array.prototype.join.call(arguments, " "));
  }
};

function URL(href) {
  var m = /^([a-z][a-z0-9+.-]*:)\/\/([^\/?#]*)/i.exec(href);
  if (!m) {
    throw new TypeError("Invalid URL: " + href);
  }
  this.href = href;
  this.origin = m[1].toLowerCase() + "//" + m[2].toLowerCase();
}

var messageListeners = [];
var window = {
  location: { origin: "https://host.example" },
  addEventListener: function (type, fn) {
    if (type === "message") {
      messageListeners.push(fn);
    }
  }
};

function dispatchMessage(origin, data) {
  for (var i = 0; i < messageListeners.length; i++) {
    messageListeners[i]({ origin: origin, data: data });
  }
}

var created = [];
function newElement(tag) {
  var el = {
    tagName: tag.toUpperCase(),
    style: {},
    attributes: {},
    children: [],
    setAttribute: function (k, v) { this.attributes[k] = String(v); },
    appendChild: function (c) { this.children.push(c); return c; }
  };
  created.push(el);
  return el;
}

var elements = {};
var document = {
  currentScript: scriptSrc ? { src: scriptSrc } : null,
  getElementById: function (id) {
    return Object.prototype.hasOwnProperty.call(elements, id) ? elements[id] : null;
  },
  createElement: newElement
};
`

// framePageEnv is a minimal frame document for running the frame script: a
// content root with a settable scroll height, a MutationObserver driven by
// mutate, and a parent window collecting posted messages.
const framePageEnv = `
var posted = [];
var pageListeners = {};
var root = { scrollHeight: initialHeight };
var document = {
  getElementById: function (id) {
    return id === "platapay-embed-root" ? root : null;
  }
};
var window = {
  parent: {
    postMessage: function (data, targetOrigin) {
      posted.push({ data: data, targetOrigin: targetOrigin });
    }
  },
  addEventListener: function (type, fn) {
    (pageListeners[type] = pageListeners[type] || []).push(fn);
  }
};

var observers = [];
function MutationObserver(callback) {
  this.callback = callback;
  this.connected = false;
  observers.push(this);
}
MutationObserver.prototype.observe = function (target, options) {
  this.target = target;
  this.options = options;
  this.connected = true;
};
MutationObserver.prototype.disconnect = function () {
  this.connected = false;
};

function mutate(height) {
  root.scrollHeight = height;
  for (var i = 0; i < observers.length; i++) {
    if (observers[i].connected) {
      observers[i].callback([], observers[i]);
    }
  }
}

function firePageEvent(type) {
  (pageListeners[type] || []).forEach(function (fn) { fn({}); });
}
`

type jsPage struct {
	t  *testing.T
	vm *goja.Runtime
}

func newJSPage(t *testing.T, env string, globals map[string]any) *jsPage {
	t.Helper()

	vm := goja.New()
	for k, v := range globals {
		require.NoError(t, vm.Set(k, v))
	}
	p := &jsPage{t: t, vm: vm}
	p.run(env)
	return p
}

func (p *jsPage) run(src string) goja.Value {
	p.t.Helper()

	v, err := p.vm.RunString(src)
	require.NoError(p.t, err)
	return v
}

func (p *jsPage) str(expr string) string {
	p.t.Helper()
	return p.run(expr).String()
}

func (p *jsPage) num(expr string) int64 {
	p.t.Helper()
	return p.run(expr).ToInteger()
}

func loadHostPage(t *testing.T, v widget.Variant, embedOrigin string, scriptSrc string, containerIDs ...string) *jsPage {
	t.Helper()

	script, err := RenderLoaderScript(v, embedOrigin)
	require.NoError(t, err)

	p := newJSPage(t, hostPageEnv, map[string]any{"scriptSrc": scriptSrc})
	for _, id := range containerIDs {
		p.run(fmt.Sprintf(`elements[%q] = newElement("div");`, id))
	}
	p.run(string(script))
	return p
}

func frameHeight(p *jsPage, containerID string) string {
	return p.str(fmt.Sprintf(`elements[%q].children[0].style.height`, containerID))
}

func TestLoaderScript_FormScenario(t *testing.T) {
	id := widget.FormVariant.ContainerID
	p := loadHostPage(t, widget.FormVariant, "https://forms.platapay.ph", "https://platapay.ph/embed/form-loader.js", id)

	assert.Equal(t, int64(1), p.num(fmt.Sprintf(`elements[%q].children.length`, id)))
	assert.Equal(t, "IFRAME", p.str(fmt.Sprintf(`elements[%q].children[0].tagName`, id)))
	assert.Equal(t, "https://forms.platapay.ph/embed", p.str(fmt.Sprintf(`elements[%q].children[0].src`, id)))
	assert.Equal(t, "no", p.str(fmt.Sprintf(`elements[%q].children[0].attributes.scrolling`, id)))
	assert.Equal(t, "100%", p.str(fmt.Sprintf(`elements[%q].children[0].style.width`, id)))
	assert.Equal(t, "600px", frameHeight(p, id))
	assert.Equal(t, int64(1), p.num(`messageListeners.length`))

	p.run(`dispatchMessage("https://forms.platapay.ph", { type: "resize", height: 850 })`)
	assert.Equal(t, "850px", frameHeight(p, id))

	p.run(`dispatchMessage("https://attacker.example", { type: "resize", height: 1 })`)
	assert.Equal(t, "850px", frameHeight(p, id))

	assert.Equal(t, int64(0), p.num(`diagnostics.length`))
}

func TestLoaderScript_IgnoresInvalidMessages(t *testing.T) {
	id := widget.FormVariant.ContainerID
	p := loadHostPage(t, widget.FormVariant, "https://forms.platapay.ph", "https://platapay.ph/embed/form-loader.js", id)

	invalid := []string{
		`{ type: "scroll", height: 10 }`,
		`{ type: "resize" }`,
		`{ type: "resize", height: "10" }`,
		`{ type: "resize", height: -10 }`,
		`{ type: "resize", height: Infinity }`,
		`{ type: "resize", height: NaN }`,
		`{ height: 10 }`,
		`null`,
		`"not json"`,
		`'{"type":"resize","height":-1}'`,
	}
	for _, data := range invalid {
		p.run(fmt.Sprintf(`dispatchMessage("https://forms.platapay.ph", %s)`, data))
		assert.Equal(t, "600px", frameHeight(p, id), data)
	}

	// Serialised messages are accepted too.
	p.run(`dispatchMessage("https://forms.platapay.ph", '{"type":"resize","height":700}')`)
	assert.Equal(t, "700px", frameHeight(p, id))

	// Duplicate keys resolve to the last, as in the Go loader.
	p.run(`dispatchMessage("https://forms.platapay.ph", '{"type":"scroll","type":"resize","height":720}')`)
	assert.Equal(t, "720px", frameHeight(p, id))
}

func TestLoaderScript_MissingContainer(t *testing.T) {
	p := loadHostPage(t, widget.FormVariant, "https://forms.platapay.ph", "https://platapay.ph/embed/form-loader.js", "some-other-container")

	assert.Equal(t, int64(1), p.num(`diagnostics.length`))
	assert.Contains(t, p.str(`diagnostics[0]`), widget.FormVariant.ContainerID)
	assert.Equal(t, int64(0), p.num(`messageListeners.length`))
	assert.Equal(t, int64(0), p.num(`elements["some-other-container"].children.length`))
	// Only the container created by the test.
	assert.Equal(t, int64(1), p.num(`created.length`))
}

func TestLoaderScript_MapTrustsScriptOrigin(t *testing.T) {
	id := widget.MapVariant.ContainerID
	p := loadHostPage(t, widget.MapVariant, "https://forms.platapay.ph", "https://platapay.ph/embed/map-loader.js", id)

	assert.Equal(t, "https://platapay.ph/embed/map", p.str(fmt.Sprintf(`elements[%q].children[0].src`, id)))
	assert.Equal(t, "500px", frameHeight(p, id))

	p.run(`dispatchMessage("https://forms.platapay.ph", { type: "resize", height: 900 })`)
	assert.Equal(t, "500px", frameHeight(p, id))

	p.run(`dispatchMessage("https://platapay.ph", { type: "resize", height: 640 })`)
	assert.Equal(t, "640px", frameHeight(p, id))
}

func TestLoaderScript_InlinedFallsBackToPageOrigin(t *testing.T) {
	id := widget.MapVariant.ContainerID
	p := loadHostPage(t, widget.MapVariant, "", "", id)

	assert.Equal(t, "https://host.example/embed/map", p.str(fmt.Sprintf(`elements[%q].children[0].src`, id)))
}

func frameScript(t *testing.T, v widget.Variant) string {
	t.Helper()

	page, err := RenderFramePage(v)
	require.NoError(t, err)
	doc, err := html.Parse(strings.NewReader(string(page)))
	require.NoError(t, err)

	var script string
	var find func(n *html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script && n.FirstChild != nil {
			script = n.FirstChild.Data
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)
	require.NotEmpty(t, script)
	return script
}

func TestFrameScript_ReportsHeights(t *testing.T) {
	for _, v := range widget.Variants() {
		t.Run(v.Name, func(t *testing.T) {
			p := newJSPage(t, framePageEnv, map[string]any{"initialHeight": 420})
			p.run(frameScript(t, v))

			// The initial height is posted before any mutation.
			assert.Equal(t, int64(1), p.num(`posted.length`))
			assert.Equal(t, "resize", p.str(`posted[0].data.type`))
			assert.Equal(t, int64(420), p.num(`posted[0].data.height`))
			assert.Equal(t, "*", p.str(`posted[0].targetOrigin`))

			assert.True(t, p.run(`observers[0].target === root`).ToBoolean())
			assert.True(t, p.run(`observers[0].options.childList`).ToBoolean())
			assert.True(t, p.run(`observers[0].options.subtree`).ToBoolean())
			assert.True(t, p.run(`observers[0].options.attributes`).ToBoolean())

			// One message per mutation batch, repeated heights included.
			p.run(`mutate(850); mutate(850); mutate(700);`)
			assert.Equal(t, int64(4), p.num(`posted.length`))
			assert.Equal(t, int64(700), p.num(`posted[3].data.height`))

			p.run(`firePageEvent("pagehide"); mutate(900);`)
			assert.Equal(t, int64(4), p.num(`posted.length`))
		})
	}
}
