package main

// Command descriptions
const (
	MsgRootShort = "Expand template directives in mdbook pages"
	MsgRootLong  = `mdtemplate expands {{#template path key=value ...}} directives in
markdown pages, replacing each with the named template file after
substituting its [[#name]] and [[#name default]] placeholders.

Run with no command it acts as an mdbook preprocessor, reading the book
from standard input and writing the expanded book to standard output. Add
it to book.toml with:

  [preprocessor.template]
  command = "mdtemplate"`

	MsgSupportsShort = "Report whether a renderer is supported"
	MsgExpandShort   = "Expand every page below a source directory"
	MsgRenderShort   = "Print a single expanded page"
	MsgConfigShort   = "Print the effective configuration"
	MsgVersionShort  = "Print version information"

	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagRoot    = "The book root, holding book.toml"
	MsgFlagSrc     = "The directory holding the pages (default: the book's src)"
	MsgFlagOut     = "The directory the expanded pages are written to"
	MsgFlagCheck   = "Only check that every page expands, writing nothing"
	MsgFlagJobs    = "The number of pages expanded at once (0: one per CPU)"
	MsgFlagPretty  = "Render the page for the terminal when writing to one"

	MsgExpandSummary = "expanded %d pages, %d changed\n"
	MsgCheckSummary  = "checked %d pages, %d with templates\n"
)
