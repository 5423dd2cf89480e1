package core

import (
	"context"
	"strings"
)

const metricNamespace = "assets"

// NopMetricsRecorder drops every measurement. It stands in whenever a
// host installs no recorder so the observe paths stay nil-safe.
type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

// operationMetricName builds "assets.<operation>.<suffix>", the naming
// every ledger operation reports under.
func operationMetricName(operation, suffix string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	if operation == "" {
		operation = "unknown"
	}
	return metricNamespace + "." + operation + "." + suffix
}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

var _ MetricsRecorder = NopMetricsRecorder{}
