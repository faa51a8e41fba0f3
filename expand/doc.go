/*

The expand package can be used to replace template directives in the pages
of a documentation tree with the contents of template files. You construct
the Expander object and then call the Expand method on the text of each
page. This will find every directive of the form

	{{#template <relative-path> key1=value1 key2=value2 ...}}

read the named template, relative to the directory of the file holding the
directive, and replace the directive with the template's text after
substituting the arguments into it. A template refers to its arguments
with placeholders:

	[[#name]]                 the value of name; an error if name is unset
	[[#name default value]]   the value of name or, if unset, the default
	\[[#name]]                the literal text [[#name]]

An argument value runs up to the next "key=" preceded by whitespace so it
may contain spaces, commas and further '=' characters. If the same key is
given twice the last value is used. A directive with no arguments is
reported as an error; use the host's plain inclusion directive instead.

Templates may themselves contain directives. These are expanded in
further passes over the text until no directives remain. A template that
includes itself, directly or through other templates, is reported as an
error as is any chain of templates nested more deeply than the maximum
depth.

A directive preceded by a backslash is not expanded; the backslash is
removed once expansion is complete.

*/
package expand
