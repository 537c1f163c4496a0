package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/fileurl/internal/batch"
	"github.com/Sumatoshi-tech/fileurl/pkg/fileurl"
)

// Tool name constants.
const (
	ToolNameResolve     = "fileurl_resolve"
	ToolNameResolveMany = "fileurl_resolve_many"
)

// MaxPaths bounds a single fileurl_resolve_many call.
const MaxPaths = 256

// Sentinel errors for tool input validation.
var (
	// ErrEmptyPath indicates the path parameter is empty.
	ErrEmptyPath = errors.New("path parameter is required and must not be empty")
	// ErrPathNotAbsolute indicates the path is relative.
	ErrPathNotAbsolute = errors.New("path must be an absolute path")
	// ErrEndWithoutStart indicates end_line was given without start_line.
	ErrEndWithoutStart = errors.New("end_line requires start_line")
	// ErrTooManyPaths indicates the paths list exceeds MaxPaths.
	ErrTooManyPaths = errors.New("too many paths")
)

// Input types (auto-generate JSON schemas via struct tags).

// ResolveInput is the input schema for the fileurl_resolve tool.
type ResolveInput struct {
	Path      string `json:"path"                 jsonschema:"absolute path of a file inside a git checkout"`
	StartLine *int   `json:"start_line,omitempty" jsonschema:"optional first line of the selection (1-based)"`
	EndLine   *int   `json:"end_line,omitempty"   jsonschema:"optional last line of the selection (1-based, inclusive)"`
	Simple    bool   `json:"simple,omitempty"     jsonschema:"return the bare url instead of a markdown link"`
}

// ResolveManyInput is the input schema for the fileurl_resolve_many tool.
type ResolveManyInput struct {
	Paths  []string `json:"paths"            jsonschema:"absolute paths of files inside git checkouts"`
	Simple bool     `json:"simple,omitempty" jsonschema:"return bare urls instead of markdown links"`
}

// ResolveOutput is the payload of a successful fileurl_resolve call.
type ResolveOutput struct {
	fileurl.Result

	Link string `json:"link"`
}

// ResolveManyOutput is the payload of a fileurl_resolve_many call.
type ResolveManyOutput struct {
	Links    []string `json:"links"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any    `json:"data"`
	Kind string `json:"kind,omitempty"`
}

func (s *Server) handleResolve(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input ResolveInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	validateErr := validatePath(input.Path)
	if validateErr != nil {
		return errorResult(validateErr)
	}

	lines, linesErr := lineRange(input.StartLine, input.EndLine)
	if linesErr != nil {
		return errorResult(linesErr)
	}

	res, err := s.composer.Compose(ctx, input.Path, lines)
	if err != nil {
		s.logger.DebugContext(ctx, "resolve failed", "path", input.Path, "error", err)

		return errorResult(err)
	}

	return jsonResult(ResolveOutput{Result: res, Link: res.Link(input.Simple)})
}

func (s *Server) handleResolveMany(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input ResolveManyInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if len(input.Paths) > MaxPaths {
		return errorResult(fmt.Errorf("%w: %d (max %d)", ErrTooManyPaths, len(input.Paths), MaxPaths))
	}

	for _, p := range input.Paths {
		validateErr := validatePath(p)
		if validateErr != nil {
			return errorResult(fmt.Errorf("%s: %w", p, validateErr))
		}
	}

	report, err := batch.Run(ctx, s.composer, input.Paths, fileurl.NoLines, batch.Options{Fs: s.fs})
	if err != nil {
		return errorResult(err)
	}

	out := ResolveManyOutput{
		Links:    report.Links(input.Simple),
		Warnings: report.Warnings,
	}

	for _, e := range report.Errors() {
		out.Errors = append(out.Errors, e.Error())
	}

	if report.Failed() {
		summary := report.ErrorSummary()
		if summary == "" {
			summary = report.WarningSummary()
		}

		if summary == "" {
			summary = batch.ErrNothingResolved.Error()
		}

		return errorResult(errors.New(summary))
	}

	return jsonResult(out)
}

func validatePath(p string) error {
	if p == "" {
		return ErrEmptyPath
	}

	if !filepath.IsAbs(p) {
		return fmt.Errorf("%w: %s", ErrPathNotAbsolute, p)
	}

	return nil
}

func lineRange(start, end *int) (fileurl.LineRange, error) {
	switch {
	case start == nil && end == nil:
		return fileurl.NoLines, nil
	case start == nil:
		return fileurl.NoLines, ErrEndWithoutStart
	case end == nil:
		return fileurl.Lines(*start, *start), nil
	default:
		return fileurl.Lines(*start, *end), nil
	}
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	kind := ""
	if errors.As(err, new(*fileurl.Error)) {
		kind = fileurl.KindName(fileurl.KindOf(err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{Kind: kind}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
