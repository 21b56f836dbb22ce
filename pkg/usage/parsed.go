package usage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ritzau/deps-minimizer/pkg/model"
)

// parserOutput is the document written by the external type parser
type parserOutput struct {
	Files []model.ParsedFile `json:"files"`
}

// LoadParsedFiles reads parser results from path. An empty path yields no
// files, which leaves every import removable.
func LoadParsedFiles(path string) ([]model.ParsedFile, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parser results: %w", err)
	}

	var out parserOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse parser results %s: %w", path, err)
	}
	return out.Files, nil
}
