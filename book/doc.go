/*
Package book applies template expansion to a whole book.

A Processor expands pages one at a time, a tree of pages on a filesystem
(see ExpandTree) or the chapters of a book handed over by mdbook when the
program runs as an mdbook preprocessor (see RunPreprocessor). Each page
is expanded in its own trace span and counted using the global
OpenTelemetry providers; nothing is recorded unless the program installs
them.
*/
package book
