package widget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func measure(t *testing.T, src string) int {
	t.Helper()

	doc, err := html.Parse(strings.NewReader(src))
	require.Nil(t, err)
	return MeasureHeight(findContentRoot(doc, ""))
}

func TestMeasureHeight(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		height int
	}{
		{"empty", `<body></body>`, 0},
		{"text block", `<body><p>Register as an agent</p></body>`, LineHeight},
		{"explicit style height", `<body><div style="height: 480px"><p>ignored</p></div></body>`, 480},
		{"data height", `<body><div data-height="300"></div></body>`, 300},
		{"hidden", `<body><p hidden>a</p><div style="display:none"><p>b</p></div></body>`, 0},
		{"controls", `<body><form><input name="a"><input type="hidden" name="b"><select></select><textarea></textarea><button>Go</button></form></body>`, ControlHeight*3 + TextareaHeight},
		{"nested sum", `<body><div><h1>Title</h1><div><p>a</p><p>b</p></div></div></body>`, LineHeight * 3},
		{"scripts ignored", `<body><script>var a = 1;</script><p>x</p></body>`, LineHeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.height, measure(t, tt.src))
		})
	}
}
