package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanPlaceholders_None(t *testing.T) {
	for _, s := range []string{
		"This is some text without any template links",
		"Some random text with [[#height...",
		"Some random text with [[#image ferris.png...",
		`Some random text with \[[#title...`,
		"Some random text with [[]] [[#]]...",
		"A wiki link [[Some Page]] and [[# spaced]]",
		"Split [[#name\n]] over lines",
	} {
		assert.Empty(t, ScanPlaceholders(s), "text: %q", s)
	}
}

func TestScanPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Placeholder
	}{
		{
			name: "plain",
			text: "This is some random text with [[#path]] and then some more random text",
			want: Placeholder{Start: 30, End: 39, Name: "path"},
		},
		{
			name: "spaces around name",
			text: "This is some random text with [[     #path       ]]",
			want: Placeholder{Start: 30, End: 51, Name: "path"},
		},
		{
			name: "default",
			text: "This is some random text with [[#path 200px]] and more",
			want: Placeholder{Start: 30, End: 45, Name: "path", Default: "200px", HasDefault: true},
		},
		{
			name: "default with spaces",
			text: "This is some random text with [[   #path   400px  ]] and more",
			want: Placeholder{Start: 30, End: 52, Name: "path", Default: "400px", HasDefault: true},
		},
		{
			name: "multi-word default",
			text: "[[#title An Amazing Title]]",
			want: Placeholder{Start: 0, End: 27, Name: "title", Default: "An Amazing Title", HasDefault: true},
		},
		{
			name: "escaped",
			text: `x \[[#height 200px]]`,
			want: Placeholder{
				Start: 3, End: 20, Name: "height",
				Default: "200px", HasDefault: true, Escaped: true,
			},
		},
		{
			name: "extra open bracket",
			text: "[[[#x]]",
			want: Placeholder{Start: 1, End: 7, Name: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := ScanPlaceholders(tt.text)
			require.Len(t, ps, 1)
			assert.Equal(t, tt.want, ps[0])
		})
	}
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name string
		body string
		args Args
		want string
	}{
		{
			name: "bound",
			body: "Example Text\n[[#height]] << an argument!\n",
			args: NewArgs(Binding{"height", "200px"}),
			want: "Example Text\n200px << an argument!\n",
		},
		{
			name: "default",
			body: "Example Text\n[[#height 300px]] << an argument!\n",
			want: "Example Text\n300px << an argument!\n",
		},
		{
			name: "bound overrides default",
			body: "[[#height 300px]]",
			args: NewArgs(Binding{"height", "200px"}),
			want: "200px",
		},
		{
			name: "escaped, unbound",
			body: "Example Text\n\\[[#height 200px]] << an escaped argument!\n",
			want: "Example Text\n[[#height 200px]] << an escaped argument!\n",
		},
		{
			name: "escaped, bound",
			body: `\[[#x]] and [[#x]]`,
			args: NewArgs(Binding{"x", "1"}),
			want: "[[#x]] and 1",
		},
		{
			name: "value holding placeholder syntax is not rescanned",
			body: "[[#a]]",
			args: NewArgs(Binding{"a", "[[#b]]"}),
			want: "[[#b]]",
		},
		{
			name: "round trip of comma value",
			body: "by [[#authors]].",
			args: NewArgs(Binding{"authors", "Goudham, Hazel"}),
			want: "by Goudham, Hazel.",
		},
		{
			name: "empty bound value",
			body: "<[[#a default]]>",
			args: NewArgs(Binding{"a", ""}),
			want: "<>",
		},
		{
			name: "non placeholders untouched",
			body: "[[Page]] [[#]] [[#unterminated",
			want: "[[Page]] [[#]] [[#unterminated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Substitute("tmpl.md", tt.body, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubstitute_Unresolved(t *testing.T) {
	_, err := Substitute("tmpl.md", "line one\n  [[#missing]]\n",
		NewArgs(Binding{"other", "x"}))
	require.ErrorIs(t, err, ErrUnresolvedPlaceholder)

	var xe *Error
	require.ErrorAs(t, err, &xe)
	assert.Equal(t, "tmpl.md", xe.File)
	assert.Equal(t, 2, xe.Line)
	assert.Equal(t, 3, xe.Column)
	assert.Contains(t, xe.Message, `"missing"`)
}

// the default law: a default is used only when the name is unbound
func TestSubstitute_DefaultLaw(t *testing.T) {
	for _, v := range []string{"", "x", "a b", "../images", "1,2", "=="} {
		got, err := Substitute("t.md", "[[#x fallback]]", NewArgs(Binding{"x", v}))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	got, err := Substitute("t.md", "[[#x fallback]]", Args{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)
}
