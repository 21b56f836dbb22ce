package buildfile

import (
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/ritzau/deps-minimizer/pkg/model"
)

var loadRegex = regexp.MustCompile(`(?s)load\([^)]*\)`)

// BuildFile is a text-preserving view of one build definition file: load
// statements, the recognized rule blocks, and everything else as an opaque
// trailer.
type BuildFile struct {
	Path     string                     // Workspace-relative path (e.g., "ios/app/BUCK")
	Preamble []string                   // load(...) statements in file order
	Blocks   map[string]*RawTargetBlock // Keyed by full target ("//ios/app:app")
	Trailer  string                     // Unrecognized text, byte for byte
}

// Parser splits build files into blocks for a fixed set of rule names.
type Parser struct {
	blockRegex *regexp.Regexp
}

// NewParser creates a parser recognizing invocations of ruleNames. A block
// starts with "<rule>(" at the end of a line and ends at the first line
// starting with ")".
func NewParser(ruleNames []string) *Parser {
	quoted := make([]string, len(ruleNames))
	for i, r := range ruleNames {
		quoted[i] = regexp.QuoteMeta(r)
	}
	// Longest first so a rule never matches as the prefix of another
	slices.SortFunc(quoted, func(a, b string) int { return len(b) - len(a) })
	return &Parser{
		blockRegex: regexp.MustCompile(`(?s)\b(?:` + strings.Join(quoted, "|") + `)\(\n[^)]*\n\)`),
	}
}

// Parse reads a build file. path is workspace-relative and determines the
// folder used in block keys. Blocks without a name, and blocks whose key was
// already taken, stay in the trailer.
func (p *Parser) Parse(filePath string, content []byte) *BuildFile {
	text := string(content)
	folder := path.Dir(filePath)
	if folder == "." {
		folder = ""
	}

	f := &BuildFile{
		Path:   filePath,
		Blocks: make(map[string]*RawTargetBlock),
	}

	f.Preamble = loadRegex.FindAllString(text, -1)
	text = loadRegex.ReplaceAllString(text, "")

	// Text between blocks is kept without its surrounding blank lines;
	// Render supplies the separators.
	var trailer []string
	keep := func(piece string) {
		if piece = strings.Trim(piece, "\n"); strings.TrimSpace(piece) != "" {
			trailer = append(trailer, piece)
		}
	}
	last := 0
	for _, loc := range p.blockRegex.FindAllStringIndex(text, -1) {
		keep(text[last:loc[0]])
		last = loc[1]

		block := NewRawTargetBlock(text[loc[0]:loc[1]])
		key := model.FormatTarget(folder, block.Name())
		if _, taken := f.Blocks[key]; !block.Valid() || taken {
			keep(block.Text)
			continue
		}
		f.Blocks[key] = block
	}
	keep(text[last:])
	f.Trailer = strings.Join(trailer, "\n\n")

	return f
}

// Block returns the block for target, if present.
func (f *BuildFile) Block(target string) (*RawTargetBlock, bool) {
	b, ok := f.Blocks[target]
	return b, ok
}

// Targets returns the block keys in render order.
func (f *BuildFile) Targets() []string {
	keys := make([]string, 0, len(f.Blocks))
	for k := range f.Blocks {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Render serializes the file: preamble, blocks sorted by target, trailer,
// separated by blank lines. Rendering a parsed rendering gives the same
// bytes.
func (f *BuildFile) Render() []byte {
	var sections []string
	if len(f.Preamble) > 0 {
		sections = append(sections, strings.Join(f.Preamble, "\n"))
	}
	for _, k := range f.Targets() {
		sections = append(sections, f.Blocks[k].Text)
	}
	if f.Trailer != "" {
		sections = append(sections, f.Trailer)
	}
	if len(sections) == 0 {
		return nil
	}
	return []byte(strings.Join(sections, "\n\n") + "\n")
}
