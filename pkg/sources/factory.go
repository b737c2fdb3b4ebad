package sources

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// New creates a source based on kind and a generic configuration map.
// This is the central extension point for adding new source types.
//
// Supported kinds:
//   - "prometheus": instant PromQL query source
//   - "http": generic HTTP/JSON source
//   - "static": fixed values, for tests and dry runs
//
// Returns error if kind is unknown or required fields are missing.
func New(kind string, config map[string]string) (Source, error) {
	switch kind {
	case "prometheus":
		return newPrometheus(config)
	case "http":
		return newHTTP(config)
	case "static":
		return newStatic(config)
	default:
		return nil, fmt.Errorf("unknown source kind: %s (must be prometheus, http, or static)", kind)
	}
}

func parseScale(config map[string]string) (float64, error) {
	s := config["scale"]
	if s == "" {
		return 1, nil
	}
	scale, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid 'scale' %q: %w", s, err)
	}
	if scale == 0 {
		return 0, fmt.Errorf("'scale' must be non-zero")
	}
	return scale, nil
}

// newPrometheus creates a Prometheus source from generic config.
func newPrometheus(config map[string]string) (Source, error) {
	query := config["query"]
	if query == "" {
		return nil, fmt.Errorf("prometheus source requires 'query' config")
	}

	url := config["url"]
	if url == "" {
		url = "http://localhost:9090"
	}

	scale, err := parseScale(config)
	if err != nil {
		return nil, err
	}

	return &PrometheusSource{
		ServerURL: url,
		Query:     query,
		Scale:     scale,
	}, nil
}

// newHTTP creates a generic HTTP source from generic config.
func newHTTP(config map[string]string) (Source, error) {
	url := config["url"]
	if url == "" {
		return nil, fmt.Errorf("http source requires 'url' config")
	}

	valuePath := config["valuePath"]
	timestampPath := config["timestampPath"]
	if valuePath == "" || timestampPath == "" {
		return nil, fmt.Errorf("http source requires 'valuePath' and 'timestampPath' config")
	}

	method := config["method"]
	if method == "" {
		method = "GET"
	}

	timestampFormat := config["timestampFormat"]
	if timestampFormat == "" {
		timestampFormat = "rfc3339"
	}

	scale, err := parseScale(config)
	if err != nil {
		return nil, err
	}

	var headers map[string]string
	if headersJSON := config["headers"]; headersJSON != "" {
		if err := json.Unmarshal([]byte(headersJSON), &headers); err != nil {
			return nil, fmt.Errorf("invalid 'headers' JSON: %w", err)
		}
	}

	var templateVars map[string]string
	if varsJSON := config["templateVars"]; varsJSON != "" {
		if err := json.Unmarshal([]byte(varsJSON), &templateVars); err != nil {
			return nil, fmt.Errorf("invalid 'templateVars' JSON: %w", err)
		}
	}

	src := &HTTPSource{
		URL:             url,
		Method:          method,
		Headers:         headers,
		Body:            config["body"],
		ValuePath:       valuePath,
		TimestampPath:   timestampPath,
		TimestampFormat: timestampFormat,
		Scale:           scale,
		TemplateVars:    templateVars,
	}
	if err := src.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("http source: %w", err)
	}
	return src, nil
}

// newStatic creates a static source from a comma-separated 'values' list.
func newStatic(config map[string]string) (Source, error) {
	raw := config["values"]
	if raw == "" {
		return nil, fmt.Errorf("static source requires 'values' config")
	}

	parts := strings.Split(raw, ",")
	values := make([]int64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid static value %q: %w", part, err)
		}
		values = append(values, v)
	}

	return &StaticSource{Values: values}, nil
}
