package buck

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ritzau/deps-minimizer/pkg/logging"
	"github.com/ritzau/deps-minimizer/pkg/model"
)

// ErrMalformedQuery is returned when the dependency query output is not a
// JSON object mapping targets to attribute objects. It is fatal to the run.
var ErrMalformedQuery = errors.New("malformed dependency query output")

// QueryAttributes are the attributes requested from the dependency query
var QueryAttributes = []string{
	"frameworks",
	"module_name",
	"name",
	"headers",
	"exported_headers",
	"srcs",
	"deps",
}

// ParseQueryOutput parses JSON query output into modules keyed by target.
// File and dependency attributes may be a flat list, a path to path map, or a
// list of pairs; all are flattened to a list of strings.
func ParseQueryOutput(data []byte) (map[string]*model.Module, error) {
	var raw map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedQuery, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedQuery)
	}

	logger := logging.New("buck.parser")
	modules := make(map[string]*model.Module, len(raw))
	for target, attrs := range raw {
		m := &model.Module{
			Target:     target,
			Name:       stringAttr(attrs["name"]),
			ModuleName: stringAttr(attrs["module_name"]),
		}
		m.Frameworks = listAttr(logger, target, "frameworks", attrs["frameworks"])
		m.Sources = listAttr(logger, target, "srcs", attrs["srcs"])
		m.Headers = listAttr(logger, target, "headers", attrs["headers"])
		m.ExportedHeaders = listAttr(logger, target, "exported_headers", attrs["exported_headers"])

		// Dependencies in the same build file may use the ":name" shorthand
		folder := model.TargetFolder(target)
		for _, dep := range listAttr(logger, target, "deps", attrs["deps"]) {
			m.Deps = append(m.Deps, model.NormalizeDependency(dep, folder))
		}

		modules[target] = m
	}

	return modules, nil
}

func stringAttr(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func listAttr(logger *slog.Logger, target, key string, raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var fileMap map[string]string
	if err := json.Unmarshal(raw, &fileMap); err == nil {
		keys := make([]string, 0, len(fileMap))
		for k := range fileMap {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		values := make([]string, 0, len(keys))
		for _, k := range keys {
			values = append(values, fileMap[k])
		}
		return values
	}

	var pairs [][]json.RawMessage
	if err := json.Unmarshal(raw, &pairs); err == nil {
		var values []string
		for _, p := range pairs {
			if len(p) == 0 {
				continue
			}
			if s := stringAttr(p[0]); s != "" {
				values = append(values, s)
			}
		}
		return values
	}

	logger.Debug("Unrecognized attribute shape", "target", target, "attr", key, "value", string(raw))
	return nil
}
