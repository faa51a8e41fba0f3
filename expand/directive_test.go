package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanDirectives_None(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "plain text", text: "This is some text without any template links"},
		{name: "empty markers", text: "Some random text with {{}} {{#}}..."},
		{
			name: "other directives",
			text: "Some random text with {{#templatee file.rs}} and {{#include x}}" +
				" {{#playground}} {{#tempate}}...",
		},
		{name: "escaped unterminated", text: `Some random text with \{{#template...`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ScanDirectives("page.md", tt.text)
			require.NoError(t, err)
			assert.Empty(t, ds)
		})
	}
}

func TestScanDirectives(t *testing.T) {
	s := "Some random text with {{#template file.rs}} and " +
		"{{#template test.rs lang=rust}}..."

	ds, err := ScanDirectives("page.md", s)
	require.NoError(t, err)
	require.Len(t, ds, 2)

	assert.Equal(t, 22, ds[0].Start)
	assert.Equal(t, 43, ds[0].End)
	assert.Equal(t, " file.rs", ds[0].Body)
	assert.False(t, ds[0].Escaped)

	assert.Equal(t, 48, ds[1].Start)
	assert.Equal(t, 79, ds[1].End)
	assert.Equal(t, "{{#template test.rs lang=rust}}", s[ds[1].Start:ds[1].End])
}

func TestScanDirectives_Escaped(t *testing.T) {
	s := `before \{{#template a.md x=1}} after`

	ds, err := ScanDirectives("page.md", s)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.True(t, ds[0].Escaped)
	assert.Equal(t, 8, ds[0].Start)
}

func TestScanDirectives_Whitespace(t *testing.T) {
	s := "{{   #template\n    test.rs\nlang=rust\n        authors=Goudham & Hazel\nyear=2022\n}}"

	ds, err := ScanDirectives("page.md", s)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, 0, ds[0].Start)
	assert.Equal(t, len(s), ds[0].End)
}

func TestScanDirectives_EscapedClose(t *testing.T) {
	s := `{{#template a.md code=\}} more=x}}`

	ds, err := ScanDirectives("page.md", s)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, len(s), ds[0].End)
}

func TestScanDirectives_Unterminated(t *testing.T) {
	tests := []struct {
		name string
		text string
		line int
		col  int
	}{
		{
			name: "no close",
			text: "line one\nSome random text with {{#template footer.md path=../images...",
			line: 2,
			col:  23,
		},
		{
			name: "second open before close",
			text: "{{#template a.md x=1 {{#template b.md y=2}}",
			line: 1,
			col:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ScanDirectives("page.md", tt.text)
			require.ErrorIs(t, err, ErrMalformedDirective)

			var xe *Error
			require.ErrorAs(t, err, &xe)
			assert.Equal(t, "page.md", xe.File)
			assert.Equal(t, tt.line, xe.Line)
			assert.Equal(t, tt.col, xe.Column)
		})
	}
}

func TestParseCall(t *testing.T) {
	tests := []struct {
		name string
		text string
		path string
		want []Binding
	}{
		{
			name: "simple",
			text: "{{#template test.rs lang=rust}}",
			path: "test.rs",
			want: []Binding{{"lang", "rust"}},
		},
		{
			name: "extra spaces",
			text: "{{#template      test.rs      lang=rust authors=Goudham & Hazel}}",
			path: "test.rs",
			want: []Binding{{"lang", "rust"}, {"authors", "Goudham & Hazel"}},
		},
		{
			name: "special characters in path",
			text: `{{#template foo-bar\-baz/_c++.'.rs path=images}}`,
			path: `foo-bar\-baz/_c++.'.rs`,
			want: []Binding{{"path", "images"}},
		},
		{
			name: "multi-line",
			text: "{{#template test.rs \n        lang=rust\n        year=2022}}",
			path: "test.rs",
			want: []Binding{{"lang", "rust"}, {"year", "2022"}},
		},
		{
			name: "path on its own line",
			text: "{{#template\n    test.rs\nlang=rust\n}}",
			path: "test.rs",
			want: []Binding{{"lang", "rust"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ScanDirectives("page.md", tt.text)
			require.NoError(t, err)
			require.Len(t, ds, 1)

			cs, err := ParseCall("page.md", tt.text, ds[0])
			require.NoError(t, err)
			assert.Equal(t, tt.path, cs.Path)
			assert.Equal(t, tt.want, cs.Args.Bindings())
			assert.Equal(t, 0, cs.Start)
			assert.Equal(t, len(tt.text), cs.End)
		})
	}
}

func TestParseCall_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind Kind
		line int
		col  int
	}{
		{
			name: "no path",
			text: "{{#template}}",
			kind: KindMalformedDirective,
			line: 1, col: 1,
		},
		{
			name: "blank path",
			text: "x\n{{#template   }}",
			kind: KindMalformedDirective,
			line: 2, col: 1,
		},
		{
			name: "argument instead of path",
			text: "{{#template path=images}}",
			kind: KindMalformedDirective,
			line: 1, col: 13,
		},
		{
			name: "absolute path",
			text: "{{#template /etc/footer.md a=b}}",
			kind: KindMalformedDirective,
			line: 1, col: 13,
		},
		{
			name: "control character in path",
			text: "{{#template foo\x01.md a=b}}",
			kind: KindMalformedDirective,
			line: 1, col: 13,
		},
		{
			name: "no arguments",
			text: "{{#template footer.md}}",
			kind: KindEmptyArguments,
			line: 1, col: 1,
		},
		{
			name: "no arguments, trailing space",
			text: "{{#template footer.md   }}",
			kind: KindEmptyArguments,
			line: 1, col: 1,
		},
		{
			name: "stray argument text",
			text: "{{#template footer.md\n  oops a=b}}",
			kind: KindMalformedDirective,
			line: 2, col: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ScanDirectives("page.md", tt.text)
			require.NoError(t, err)
			require.Len(t, ds, 1)

			_, err = ParseCall("page.md", tt.text, ds[0])
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))

			var xe *Error
			require.ErrorAs(t, err, &xe)
			assert.Equal(t, "page.md", xe.File)
			assert.Equal(t, tt.line, xe.Line, "line")
			assert.Equal(t, tt.col, xe.Column, "column")
		})
	}
}
