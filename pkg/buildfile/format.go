package buildfile

import (
	"fmt"

	"github.com/bazelbuild/buildtools/build"
)

// Formatter normalizes build file text after every write
type Formatter interface {
	Format(path string, content []byte) ([]byte, error)
}

// BuildifierFormatter formats in process with the buildifier printer. Only
// layout changes: labels are not shortened and lists keep their order, so
// an index into a dependency list stays valid across writes.
type BuildifierFormatter struct{}

func (BuildifierFormatter) Format(path string, content []byte) ([]byte, error) {
	f, err := build.ParseBuild(path, content)
	if err != nil {
		return nil, fmt.Errorf("buildifier: %w", err)
	}
	return build.FormatWithoutRewriting(f), nil
}

// NopFormatter returns content unchanged
type NopFormatter struct{}

func (NopFormatter) Format(path string, content []byte) ([]byte, error) {
	return content, nil
}
