// Package tools holds the worker tools the analytics pipeline and the
// specialist agents call out to: grounded web search, warehouse queries,
// chart rendering via a Python interpreter, and blob uploads for the
// rendered images. Each tool is defined as a small interface so callers
// can be tested against fakes.
package tools

import "context"

// WebSearcher performs grounded web research and returns a synthesized
// text summary of what it found.
type WebSearcher interface {
	Search(ctx context.Context, instruction string) (string, error)
}

// TabularQuerier runs a SQL query against the data warehouse and returns
// the result set rendered as CSV, header row first.
type TabularQuerier interface {
	QueryCSV(ctx context.Context, sqlQuery string) (string, error)
}

// CodeRunner executes a source snippet and returns its stdout.
type CodeRunner interface {
	Run(ctx context.Context, code string) (string, error)
}

// BlobStore uploads a local file under the given object name and returns
// a publicly reachable URL for it.
type BlobStore interface {
	Upload(ctx context.Context, localPath, objectName string) (string, error)
}
