package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for Retriva resources.
	uriScheme = "retriva://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Health of the embedding provider, generation provider, and vector index",
		MIMEType:    "application/json",
	}, s.handleStatusResource)
}

// handleStatusResource returns the system status as JSON.
func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Status == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	status, err := s.ports.Status.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting status: %w", err)
	}

	// Build a stable wire shape instead of marshalling the port type.
	type statusInfo struct {
		EmbeddingConfigured bool   `json:"embedding_configured"`
		EmbeddingReachable  bool   `json:"embedding_reachable"`
		EmbeddingModel      string `json:"embedding_model,omitempty"`
		LLMConfigured       bool   `json:"llm_configured"`
		LLMReachable        bool   `json:"llm_reachable"`
		LLMModel            string `json:"llm_model,omitempty"`
		IndexEntries        int    `json:"index_entries"`
		IndexVersion        uint64 `json:"index_version"`
		IndexDimensions     int    `json:"index_dimensions"`
		IndexMetric         string `json:"index_metric"`
		IndexModelTag       string `json:"index_model_tag,omitempty"`
		Documents           int    `json:"documents"`
	}

	info := statusInfo{
		EmbeddingConfigured: status.EmbeddingConfigured,
		EmbeddingReachable:  status.EmbeddingReachable,
		EmbeddingModel:      status.EmbeddingModel,
		LLMConfigured:       status.LLMConfigured,
		LLMReachable:        status.LLMReachable,
		LLMModel:            status.LLMModel,
		IndexEntries:        status.IndexEntries,
		IndexVersion:        uint64(status.IndexVersion),
		IndexDimensions:     status.IndexDimensions,
		IndexMetric:         string(status.IndexMetric),
		IndexModelTag:       status.IndexModelTag,
		Documents:           status.Documents,
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling status: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
