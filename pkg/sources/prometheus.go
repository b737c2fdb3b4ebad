package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// PrometheusSource evaluates an instant PromQL query against the Prometheus
// HTTP API and emits one observation per collect. If the query returns
// multiple series, their values are SUMMED.
type PrometheusSource struct {
	// ServerURL is the base URL to Prometheus, e.g. http://prometheus.monitoring.svc:9090
	ServerURL string
	// Query is the PromQL expression to evaluate.
	Query string
	// Scale multiplies the query result before rounding it into the
	// integer measurement domain. Defaults to 1.
	Scale float64
	// HTTPClient is optional; if nil a default client with timeout is used.
	HTTPClient *http.Client
}

func (p *PrometheusSource) Name() string { return "prometheus" }

// Collect implements Source. It issues a /api/v1/query call and returns the
// summed vector result as a single point stamped with the evaluation time.
// The window parameter is unused; an instant query observes the present.
func (p *PrometheusSource) Collect(ctx context.Context, window time.Duration) ([]Point, error) {
	if p.ServerURL == "" || p.Query == "" {
		return nil, errors.New("prometheus source: ServerURL and Query are required")
	}

	u, err := url.Parse(p.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ServerURL: %w", err)
	}
	u.Path = "/api/v1/query"

	q := u.Query()
	q.Set("query", p.Query)
	u.RawQuery = q.Encode()

	cli := p.HTTPClient
	if cli == nil {
		cli = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prometheus: status %d", resp.StatusCode)
	}

	var pr prometheusQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode prometheus response: %w", err)
	}
	if pr.Status != "success" {
		return nil, fmt.Errorf("prometheus status: %s", pr.Status)
	}
	if pr.Data.ResultType != "vector" {
		return nil, fmt.Errorf("unexpected result type %q (instant queries must yield a vector)", pr.Data.ResultType)
	}

	if len(pr.Data.Result) == 0 {
		return nil, nil
	}

	var sum float64
	var at time.Time
	for _, sample := range pr.Data.Result {
		ts, val, err := parseInstantSample(sample.Value)
		if err != nil {
			return nil, err
		}
		sum += val
		if ts.After(at) {
			at = ts
		}
	}

	v, err := scaleValue(sum, p.Scale)
	if err != nil {
		return nil, err
	}

	return []Point{{At: at, Value: v}}, nil
}

type prometheusQueryResponse struct {
	Status string              `json:"status"`
	Data   prometheusQueryData `json:"data"`
}

type prometheusQueryData struct {
	ResultType string                  `json:"resultType"`
	Result     []prometheusInstantItem `json:"result"`
}

type prometheusInstantItem struct {
	Metric map[string]string `json:"metric"`
	// Value is [ <unix_time_float>, "<value_string>" ]
	Value []any `json:"value"`
}

// parseInstantSample decodes a [timestamp, "value"] pair from an instant
// vector result.
func parseInstantSample(pair []any) (time.Time, float64, error) {
	if len(pair) != 2 {
		return time.Time{}, 0, fmt.Errorf("invalid value pair length: %d", len(pair))
	}

	var tsSec float64
	switch v := pair[0].(type) {
	case float64:
		tsSec = v
	case json.Number:
		tsSec, _ = v.Float64()
	default:
		return time.Time{}, 0, fmt.Errorf("unexpected timestamp type %T", v)
	}

	var val float64
	switch vv := pair[1].(type) {
	case string:
		f, err := strconv.ParseFloat(vv, 64)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("parse value: %w", err)
		}
		val = f
	case float64:
		val = vv
	case json.Number:
		val, _ = vv.Float64()
	default:
		return time.Time{}, 0, fmt.Errorf("unexpected value type %T", vv)
	}

	return time.Unix(int64(tsSec), 0).UTC(), val, nil
}
