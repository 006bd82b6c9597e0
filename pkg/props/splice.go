// Copyright 2026 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package props

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/vmware-labs/go-yaml-edit/splice"
	yptr "github.com/vmware-labs/yaml-jsonpointer"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	"dbtpatch.io/pkg/atomicfile"
)

// applySplice is the fast path for Apply: when every requested edit replaces
// the value of an existing description scalar, the new values are spliced
// into the original file bytes, so comments, quoting and layout everywhere
// else stay byte-identical. It reports ok=false when any edit needs
// structural work, in which case the caller falls back to mutating the node
// tree and re-encoding.
func (p *Patcher) applySplice(d *Doc, updates []ModelUpdate) (map[string][]string, bool, error) {
	if len(d.src) == 0 {
		return nil, false, nil
	}
	src := []rune(string(d.src))

	results := map[string][]string{}
	var ops []splice.Op
	// Two edits hitting the same scalar would make the splice ops overlap;
	// the sequential structural path has to handle those.
	seen := map[string]bool{}
	for _, u := range updates {
		if u.isNoop() {
			continue
		}

		modelPtr, ok := namePtr("/models", u.Model)
		if !ok {
			return nil, false, nil
		}
		model, err := yptr.Find(d.root, modelPtr)
		if err != nil {
			return nil, false, nil
		}
		// A malformed `columns` is a structural error even for a
		// description-only edit; the sequential path raises it.
		if cols := mapGet(model, "columns"); !isNull(cols) && cols.Kind != yaml.SequenceNode {
			return nil, false, nil
		}

		if u.HasDescription {
			if u.Description == nil || seen[modelPtr] {
				return nil, false, nil
			}
			seen[modelPtr] = true
			op, changed, ok := descOp(src, mapGet(model, "description"), *u.Description)
			if !ok {
				return nil, false, nil
			}
			if changed {
				ops = append(ops, op)
			}
		}

		var updated []string
		for _, c := range u.Columns {
			if c.Column == "" {
				continue
			}
			if c.Description == nil {
				return nil, false, nil
			}
			colPtr, ok := namePtr(modelPtr+"/columns", c.Column)
			if !ok || seen[colPtr] {
				return nil, false, nil
			}
			seen[colPtr] = true
			col, err := yptr.Find(d.root, colPtr)
			if err != nil {
				return nil, false, nil
			}
			op, changed, ok := descOp(src, mapGet(col, "description"), *c.Description)
			if !ok {
				return nil, false, nil
			}
			if changed {
				ops = append(ops, op)
				updated = append(updated, c.Column)
			}
		}
		if len(updated) > 0 {
			results[u.Model] = updated
		}
	}

	if len(ops) == 0 {
		p.Log.Debug().Str("path", d.Path).Msg("write skipped, no changes")
		return results, true, nil
	}

	b, _, err := transform.Bytes(splice.T(ops...), d.src)
	if err != nil {
		// Splicing is best-effort; let the re-encoding path deal with it.
		p.Log.Debug().Str("path", d.Path).Err(err).Msg("splice failed, re-encoding")
		return nil, false, nil
	}
	if p.DryRun {
		p.Log.Debug().Str("path", d.Path).Msg("write skipped, dry run")
		return results, true, nil
	}
	if err := atomicfile.WriteFile(d.Path, b, 0644); err != nil {
		return nil, false, err
	}
	p.Log.Debug().Str("path", d.Path).Int("bytes", len(b)).Msg("file spliced")
	return results, true, nil
}

// descOp builds the op that replaces the source extent of an existing
// description scalar with value, re-quoted to match the scalar's style.
// ok=false means the edit can't be expressed as a splice; changed=false with
// ok=true means the scalar already holds value.
func descOp(src []rune, node *yaml.Node, value string) (op splice.Op, changed, ok bool) {
	if !spliceable(node) {
		return splice.Op{}, false, false
	}
	if node.Value == value {
		return splice.Op{}, false, true
	}
	start, end, ok := scalarExtent(src, node)
	if !ok {
		return splice.Op{}, false, false
	}
	repl, ok := requote(value, node.Style)
	if !ok {
		return splice.Op{}, false, false
	}
	return splice.Span(start, end).With(repl), true, true
}

// scalarExtent locates the source extent (in rune offsets) of a single-line
// scalar token, including any surrounding quotes. It reports ok=false when
// the token spans lines or the node position doesn't line up with the source,
// in which case the caller must not splice.
func scalarExtent(src []rune, n *yaml.Node) (start, end int, ok bool) {
	start = runeOffset(src, n.Line, n.Column)
	if start < 0 || start >= len(src) {
		return 0, 0, false
	}
	switch n.Style {
	case yaml.SingleQuotedStyle:
		if src[start] != '\'' {
			return 0, 0, false
		}
		for i := start + 1; i < len(src); i++ {
			switch src[i] {
			case '\n':
				return 0, 0, false
			case '\'':
				// '' is an escaped quote inside the token.
				if i+1 < len(src) && src[i+1] == '\'' {
					i++
					continue
				}
				return start, i + 1, true
			}
		}
		return 0, 0, false
	case yaml.DoubleQuotedStyle:
		if src[start] != '"' {
			return 0, 0, false
		}
		for i := start + 1; i < len(src); i++ {
			switch src[i] {
			case '\\':
				i++
			case '\n':
				return 0, 0, false
			case '"':
				return start, i + 1, true
			}
		}
		return 0, 0, false
	default:
		// A single-line plain scalar appears verbatim in the source.
		end = start + len([]rune(n.Value))
		if end > len(src) || string(src[start:end]) != n.Value {
			return 0, 0, false
		}
		return start, end, true
	}
}

// runeOffset converts a 1-based line:column position into a rune offset,
// or -1 if the position lies beyond the buffer.
func runeOffset(src []rune, line, col int) int {
	off := 0
	for l := 1; l < line; l++ {
		for off < len(src) && src[off] != '\n' {
			off++
		}
		if off >= len(src) {
			return -1
		}
		off++
	}
	return off + col - 1
}

// requote renders value as a single-line YAML scalar token in the same style
// as the scalar it replaces. ok=false means the value can't keep the style on
// one line (e.g. it contains a newline) and the edit needs re-encoding.
func requote(value string, style yaml.Style) (string, bool) {
	switch style {
	case yaml.DoubleQuotedStyle:
		// JSON string syntax is a subset of YAML double-quoted syntax.
		b, err := json.Marshal(value)
		if err != nil {
			return "", false
		}
		return string(b), true
	case yaml.SingleQuotedStyle:
		if strings.ContainsRune(value, '\n') || !isPrintable(value) {
			return "", false
		}
		return "'" + strings.ReplaceAll(value, "'", "''") + "'", true
	default:
		// Let the yaml encoder decide whether the value survives as a plain
		// scalar or needs quoting (e.g. "true" or "no" would change type).
		enc, err := yaml.Marshal(value)
		if err != nil {
			return "", false
		}
		s := strings.TrimSuffix(string(enc), "\n")
		if strings.Contains(s, "\n") {
			return "", false
		}
		return s, true
	}
}

func isPrintable(s string) bool {
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// namePtr builds an extended JSON pointer selecting the element of the
// sequence at base whose `name` field equals name, e.g.
// /models/~{"name":"orders"}.
func namePtr(base, name string) (string, bool) {
	// Pointer token separators inside the name would need RFC 6901 escaping,
	// which the ~{...} extension does not undergo.
	if strings.ContainsAny(name, "/~") {
		return "", false
	}
	q, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s/~%s", base, q), true
}

// spliceable reports whether a node is a plain or quoted non-empty string
// scalar, i.e. one whose extent can be safely replaced in the source bytes.
func spliceable(n *yaml.Node) bool {
	if n == nil || n.Kind != yaml.ScalarNode || n.Tag != "!!str" || n.Value == "" {
		return false
	}
	switch n.Style {
	case 0, yaml.SingleQuotedStyle, yaml.DoubleQuotedStyle:
		return true
	}
	return false
}
