// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"strings"

	"github.com/srcload/srcload/pkg/sourcemap"
)

// Result is transformed code ready for the host.
type Result struct {
	Code string
	// Map maps Code to the original source, or nil.
	Map      *sourcemap.Map
	Warnings []string
	// Cached is set when the result came from the cache.
	Cached bool
}

// CodeWithInlineMap returns Code with the map appended as a
// sourceMappingURL data URL comment.
func (r *Result) CodeWithInlineMap() (string, error) {
	if r.Map == nil {
		return r.Code, nil
	}
	url, err := r.Map.DataURL()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.Grow(len(r.Code) + len(url) + 32)
	sb.WriteString(r.Code)
	if !strings.HasSuffix(r.Code, "\n") {
		sb.WriteByte('\n')
	}
	sb.WriteString("//# sourceMappingURL=")
	sb.WriteString(url)
	sb.WriteByte('\n')
	return sb.String(), nil
}
