package model

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// ConfigErrorDetail is one schema violation found in a config file.
type ConfigErrorDetail struct {
	Path    string // worker.capture
	Code    string // unknown_field | conflicting_values | invalid_value | validation_error
	Message string
	Line    int
	Column  int
}

func (c ConfigErrorDetail) Attr(name string) slog.Attr {
	return slog.GroupAttrs(
		name,
		slog.String("code", c.Code),
		slog.String("path", c.Path),
		slog.String("message", c.Message),
		slog.Int("line", c.Line),
		slog.Int("column", c.Column),
	)
}

var (
	reNotAllowed = regexp.MustCompile(`(?i)not allowed|unknown field`)
	reConflict   = regexp.MustCompile(`(?i)conflicting values|empty disjunction`)
	reOutOfBound = regexp.MustCompile(`(?i)out of bound|invalid value`)
)

// ConfigErrDetails splits a LoadConfig schema error into one detail per
// offending position in the config file. Other errors yield nil.
func ConfigErrDetails(err error) []ConfigErrorDetail {
	if err == nil {
		return nil
	}

	type pos struct{ line, column int }
	seen := make(map[pos]struct{})

	var out []ConfigErrorDetail
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		raw := fmt.Sprintf(format, args...)
		path := normalizePath(e.Path())

		var p pos
		for _, r := range cueerrors.Positions(e) {
			if r.Filename() == configFileName {
				p = pos{line: r.Line(), column: r.Column()}
				break
			}
		}
		if p.line == 0 {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}

		code, msg := classify(raw, path)
		out = append(out, ConfigErrorDetail{
			Path:    path,
			Code:    code,
			Message: msg,
			Line:    p.line,
			Column:  p.column,
		})
	}
	return out
}

func classify(raw, path string) (code, msg string) {
	switch {
	case reNotAllowed.MatchString(raw):
		return "unknown_field", fmt.Sprintf("Field %s is not allowed", last(path))
	case reConflict.MatchString(raw):
		return "conflicting_values", fmt.Sprintf("Field %s has unsupported value", last(path))
	case reOutOfBound.MatchString(raw):
		return "invalid_value", fmt.Sprintf("Field %s has invalid value", last(path))
	default:
		return "validation_error", raw
	}
}

func normalizePath(p []string) string {
	if len(p) == 0 {
		return ""
	}
	// drop the leading definition (#Config)
	if strings.HasPrefix(p[0], "#") {
		p = p[1:]
	}
	return strings.Join(p, ".")
}

func last(p string) string {
	if i := strings.LastIndexByte(p, '.'); i >= 0 {
		return p[i+1:]
	}
	return p
}
