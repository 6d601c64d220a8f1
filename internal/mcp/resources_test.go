package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/cjdocs-bridge/internal/telemetry"
)

func TestMakeQueryMetricsHandler_NilMetrics_ReturnsInvalidParams(t *testing.T) {
	srv := newTestServer(t)

	handler := srv.makeQueryMetricsHandler()
	_, err := handler(context.Background(), &mcp.ReadResourceRequest{})

	require.Error(t, err)
	var mcpErr *MCPError
	if assert.ErrorAs(t, err, &mcpErr) {
		assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
	}
}

func TestMakeQueryMetricsHandler_ReturnsSnapshotJSON(t *testing.T) {
	srv := newTestServer(t)
	metrics := telemetry.NewQueryMetrics(nil)
	srv.SetMetrics(metrics)

	handler := srv.makeQueryMetricsHandler()
	result, err := handler(context.Background(), &mcp.ReadResourceRequest{})

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "cjdocs://query_metrics", result.Contents[0].URI)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var out QueryMetricsOutput
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &out))
	assert.Equal(t, int64(0), out.Summary.TotalQueries)
}

func TestSetMetrics_RegistersQueryMetricsResource(t *testing.T) {
	srv := newTestServer(t)
	metrics := telemetry.NewQueryMetrics(nil)

	assert.NotPanics(t, func() {
		srv.SetMetrics(metrics)
	})
}

func TestTopicURI_RoundTripsThroughParseTopicURI(t *testing.T) {
	uri := topicURI("syntax", "closures")

	category, topic, ok := parseTopicURI(uri)

	require.True(t, ok)
	assert.Equal(t, "syntax", category)
	assert.Equal(t, "closures", topic)
}

func TestParseTopicURI_RejectsMalformedURI(t *testing.T) {
	_, _, ok := parseTopicURI("not-a-uri")

	assert.False(t, ok)
}

func TestServer_ListResources_TopicURIsAreParseable(t *testing.T) {
	srv := newTestServer(t)

	resources, _, err := srv.ListResources(context.Background(), "")
	require.NoError(t, err)
	require.NotEmpty(t, resources)

	for _, res := range resources {
		_, _, ok := parseTopicURI(res.URI)
		assert.True(t, ok, "resource URI %q should be a parseable topic:// URI", res.URI)
	}
}
