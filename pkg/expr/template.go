// Copyright 2025 The Atakora Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package expr parses ${...} reference placeholders out of resource bodies
// and inspects them for the resource identifiers they reference.
package expr

import (
	"fmt"
	"strings"
)

// Segment is one piece of a parsed string field: either a literal or a
// placeholder expression (without its ${ } wrapper).
type Segment struct {
	Literal    string
	Expression string
}

// IsExpression reports whether the segment is a placeholder expression.
func (s Segment) IsExpression() bool { return s.Expression != "" }

// ParseTemplate splits a string into literal and expression segments.
// Nested braces inside an expression are balanced, so map and index syntax
// like ${flags["enabled"]} survives intact. An unterminated ${ is an error.
func ParseTemplate(s string) ([]Segment, error) {
	var segments []Segment
	var literal strings.Builder

	for i := 0; i < len(s); {
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '{' {
			end, err := matchBrace(s, i+2)
			if err != nil {
				return nil, err
			}
			if literal.Len() > 0 {
				segments = append(segments, Segment{Literal: literal.String()})
				literal.Reset()
			}
			inner := strings.TrimSpace(s[i+2 : end])
			if inner == "" {
				return nil, fmt.Errorf("empty expression in %q", s)
			}
			segments = append(segments, Segment{Expression: inner})
			i = end + 1
			continue
		}
		literal.WriteByte(s[i])
		i++
	}
	if literal.Len() > 0 {
		segments = append(segments, Segment{Literal: literal.String()})
	}
	return segments, nil
}

// matchBrace returns the index of the brace closing the expression opened
// just before start.
func matchBrace(s string, start int) (int, error) {
	depth := 1
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated expression in %q", s)
}

// Expressions returns just the expression segments of s.
func Expressions(s string) ([]string, error) {
	segments, err := ParseTemplate(s)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, seg := range segments {
		if seg.IsExpression() {
			out = append(out, seg.Expression)
		}
	}
	return out, nil
}
