package buildfile

import (
	"regexp"
	"strings"
	"sync"
)

// Attribute names edited by the minimizers
const (
	AttrName            = "name"
	AttrModuleName      = "module_name"
	AttrSources         = "srcs"
	AttrHeaders         = "headers"
	AttrExportedHeaders = "exported_headers"
	AttrDeps            = "deps"
	AttrExportedDeps    = "exported_deps"
)

// RawTargetBlock is one rule invocation kept as raw text. Accessors read and
// replace sub-regions of the text; everything else is left untouched.
type RawTargetBlock struct {
	Text string
}

// NewRawTargetBlock wraps the text of a rule invocation.
func NewRawTargetBlock(text string) *RawTargetBlock {
	return &RawTargetBlock{Text: text}
}

// Valid reports whether the block has a non-empty name.
func (b *RawTargetBlock) Valid() bool {
	return b.Name() != ""
}

func (b *RawTargetBlock) Name() string { return b.StringAttr(AttrName) }
func (b *RawTargetBlock) SetName(v string) bool { return b.SetStringAttr(AttrName, v) }
func (b *RawTargetBlock) ModuleName() string { return b.StringAttr(AttrModuleName) }
func (b *RawTargetBlock) SetModuleName(v string) bool { return b.SetStringAttr(AttrModuleName, v) }

func (b *RawTargetBlock) Sources() []string { return b.ListAttr(AttrSources) }
func (b *RawTargetBlock) SetSources(v []string) bool { return b.SetListAttr(AttrSources, v) }
func (b *RawTargetBlock) Headers() []string { return b.ListAttr(AttrHeaders) }
func (b *RawTargetBlock) SetHeaders(v []string) bool { return b.SetListAttr(AttrHeaders, v) }
func (b *RawTargetBlock) ExportedHeaders() []string { return b.ListAttr(AttrExportedHeaders) }
func (b *RawTargetBlock) Deps() []string { return b.ListAttr(AttrDeps) }
func (b *RawTargetBlock) SetDeps(v []string) bool { return b.SetListAttr(AttrDeps, v) }
func (b *RawTargetBlock) ExportedDeps() []string { return b.ListAttr(AttrExportedDeps) }

func (b *RawTargetBlock) SetExportedHeaders(v []string) bool {
	return b.SetListAttr(AttrExportedHeaders, v)
}

func (b *RawTargetBlock) SetExportedDeps(v []string) bool {
	return b.SetListAttr(AttrExportedDeps, v)
}

// StringAttr returns the value of a quoted string attribute, or "".
func (b *RawTargetBlock) StringAttr(attr string) string {
	loc := stringAttrRegex(attr).FindStringSubmatchIndex(b.Text)
	if loc == nil {
		return ""
	}
	return b.Text[loc[2]:loc[3]]
}

// SetStringAttr replaces the value of an existing string attribute.
// It returns false if the attribute is not present.
func (b *RawTargetBlock) SetStringAttr(attr, value string) bool {
	loc := stringAttrRegex(attr).FindStringSubmatchIndex(b.Text)
	if loc == nil {
		return false
	}
	b.Text = b.Text[:loc[2]] + value + b.Text[loc[3]:]
	return true
}

// ListAttr returns the items of a bracketed string list attribute. Items
// may be separated by commas, newlines or both.
func (b *RawTargetBlock) ListAttr(attr string) []string {
	loc := listAttrRegex(attr).FindStringSubmatchIndex(b.Text)
	if loc == nil {
		return nil
	}
	return splitItems(b.Text[loc[2]:loc[3]])
}

// HasAttr reports whether the block declares attr as a string or a list.
func (b *RawTargetBlock) HasAttr(attr string) bool {
	return listAttrRegex(attr).MatchString(b.Text) || stringAttrRegex(attr).MatchString(b.Text)
}

// SetListAttr replaces the items of an existing list attribute, one item per
// line, indented one level below the attribute. It returns false if the
// attribute is not present.
func (b *RawTargetBlock) SetListAttr(attr string, values []string) bool {
	loc := listAttrRegex(attr).FindStringSubmatchIndex(b.Text)
	if loc == nil {
		return false
	}
	indent := lineIndent(b.Text, loc[0])
	b.Text = b.Text[:loc[2]] + renderItems(values, indent) + b.Text[loc[3]:]
	return true
}

func splitItems(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	var items []string
	for _, f := range fields {
		f = strings.Trim(strings.TrimSpace(f), `"'`)
		if f != "" {
			items = append(items, f)
		}
	}
	return items
}

func renderItems(values []string, indent string) string {
	if len(values) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n")
	for _, v := range values {
		sb.WriteString(indent)
		sb.WriteString("    \"")
		sb.WriteString(v)
		sb.WriteString("\",\n")
	}
	sb.WriteString(indent)
	return sb.String()
}

// lineIndent returns the leading blanks of the line containing offset.
func lineIndent(text string, offset int) string {
	start := strings.LastIndexByte(text[:offset+1], '\n') + 1
	end := start
	for end < len(text) && (text[end] == ' ' || text[end] == '\t') {
		end++
	}
	return text[start:end]
}

var (
	regexMu    sync.Mutex
	stringRegs = map[string]*regexp.Regexp{}
	listRegs   = map[string]*regexp.Regexp{}
)

// The attribute must start a line or follow a blank, so "deps" never
// matches inside "exported_deps".
func stringAttrRegex(attr string) *regexp.Regexp {
	return cachedRegex(stringRegs, attr, `(?m)(?:^|[ \t])`+regexp.QuoteMeta(attr)+`\s*=\s*["']([^"'\n]*)["']`)
}

func listAttrRegex(attr string) *regexp.Regexp {
	return cachedRegex(listRegs, attr, `(?m)(?:^|[ \t])`+regexp.QuoteMeta(attr)+`\s*=\s*\[([^\]]*)\]`)
}

func cachedRegex(cache map[string]*regexp.Regexp, attr, pattern string) *regexp.Regexp {
	regexMu.Lock()
	defer regexMu.Unlock()
	if re, ok := cache[attr]; ok {
		return re
	}
	re := regexp.MustCompile(pattern)
	cache[attr] = re
	return re
}
