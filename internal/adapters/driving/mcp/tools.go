package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driving"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	K        int    `json:"k,omitempty" jsonschema:"number of chunks to ground the answer on (default from settings)"`
	Rerank   bool   `json:"rerank,omitempty" jsonschema:"apply a secondary lexical re-ranking pass"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer       string   `json:"answer"`
	Citations    []string `json:"citations,omitempty"`
	Model        string   `json:"model"`
	IndexVersion uint64   `json:"index_version"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"the search query to find relevant chunks"`
	K           int      `json:"k,omitempty" jsonschema:"maximum number of chunks to return (default from settings)"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"restrict results to these document IDs"`
	Rerank      bool     `json:"rerank,omitempty" jsonschema:"apply a secondary lexical re-ranking pass"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results      []SearchResultOutput `json:"results"`
	Count        int                  `json:"count"`
	IndexVersion uint64               `json:"index_version"`
}

// SearchResultOutput represents a single retrieved chunk.
type SearchResultOutput struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Position   int     `json:"position"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// QuizInput is the input schema for the quiz tool.
type QuizInput struct {
	Topic     string `json:"topic" jsonschema:"the topic to generate quiz questions about"`
	Questions int    `json:"questions,omitempty" jsonschema:"number of questions to generate (default 5)"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Title     string `json:"title" jsonschema:"human-readable document title"`
	Content   string `json:"content" jsonschema:"plain-text content to index"`
	SourceURI string `json:"source_uri,omitempty" jsonschema:"original location of the content"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID    string `json:"document_id"`
	Skipped       bool   `json:"skipped"`
	ChunksCreated int    `json:"chunks_created"`
	IndexVersion  uint64 `json:"index_version"`
}

// RemoveInput is the input schema for the remove_document tool.
type RemoveInput struct {
	DocumentID string `json:"document_id" jsonschema:"ID of the document to remove from the index"`
}

// RemoveOutput is the output schema for the remove_document tool.
type RemoveOutput struct {
	Removed bool `json:"removed"`
}

// SubmitAnswerInput is the input schema for the submit_answer tool.
type SubmitAnswerInput struct {
	Topic         string `json:"topic" jsonschema:"the quiz topic the question belonged to"`
	UserAnswer    string `json:"user_answer" jsonschema:"the answer as given by the user"`
	CorrectAnswer string `json:"correct_answer" jsonschema:"the expected answer from the quiz answer key"`
}

// ProgressOutput is the output schema for the progress tool.
type ProgressOutput struct {
	Topics map[string]domain.TopicProgress `json:"topics"`
}

// RecommendOutput is the output schema for the recommend tool.
type RecommendOutput struct {
	Recommendation string `json:"recommendation"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question grounded in the indexed documents, with citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Retrieve the most relevant chunks for a query without generation",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "quiz",
		Description: "Generate a multiple-choice quiz about a topic from the indexed documents",
	}, s.handleQuiz)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Chunk, embed, and index a plain-text document",
		}, s.handleIngest)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "remove_document",
			Description: "Remove a document and its chunks from the index",
		}, s.handleRemove)
	}

	if s.ports.Progress != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "submit_answer",
			Description: "Grade a quiz answer and record it in the per-topic study progress",
		}, s.handleSubmitAnswer)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "progress",
			Description: "Report accumulated quiz performance per topic",
		}, s.handleProgress)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "recommend",
			Description: "Recommend what to study next based on quiz history",
		}, s.handleRecommend)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Query.Ask(ctx, driving.AskRequest{
		Text:     input.Question,
		K:        input.K,
		Rerank:   input.Rerank,
		UseCache: true,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:       answer.Text,
		Citations:    answer.Citations,
		Model:        answer.Model,
		IndexVersion: uint64(answer.IndexVersion),
	}, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	result, err := s.ports.Query.Search(ctx, domain.Query{
		Text:    input.Query,
		K:       input.K,
		Rerank:  input.Rerank,
		Filters: domain.SearchFilters{DocumentIDs: input.DocumentIDs},
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results:      make([]SearchResultOutput, len(result.Chunks)),
		Count:        len(result.Chunks),
		IndexVersion: uint64(result.IndexVersion),
	}

	for i := range result.Chunks {
		output.Results[i] = SearchResultOutput{
			ChunkID:    result.Chunks[i].Chunk.ID,
			DocumentID: result.Chunks[i].Chunk.DocumentID,
			Position:   result.Chunks[i].Chunk.Position,
			Score:      result.Chunks[i].Score,
			Content:    result.Chunks[i].Chunk.Content,
		}
	}

	return nil, output, nil
}

// handleQuiz handles the quiz tool invocation.
func (s *Server) handleQuiz(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QuizInput,
) (*mcp.CallToolResult, domain.Quiz, error) {
	quiz, err := s.ports.Query.Quiz(ctx, input.Topic, input.Questions)
	if err != nil {
		return nil, domain.Quiz{}, err
	}
	return nil, *quiz, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	sourceURI := input.SourceURI
	if sourceURI == "" {
		sourceURI = "mcp://" + domain.HashContent(input.Content)[:16]
	}

	report, err := s.ports.Ingest.Ingest(ctx, domain.Document{
		ID:        domain.HashContent(sourceURI)[:16],
		SourceURI: sourceURI,
		Title:     input.Title,
		Content:   input.Content,
	})
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		DocumentID:    report.DocumentID,
		Skipped:       report.Skipped,
		ChunksCreated: report.ChunksCreated,
		IndexVersion:  uint64(report.IndexVersion),
	}, nil
}

// handleRemove handles the remove_document tool invocation.
func (s *Server) handleRemove(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RemoveInput,
) (*mcp.CallToolResult, RemoveOutput, error) {
	if err := s.ports.Ingest.Remove(ctx, input.DocumentID); err != nil {
		return nil, RemoveOutput{}, err
	}
	return nil, RemoveOutput{Removed: true}, nil
}

// handleSubmitAnswer handles the submit_answer tool invocation.
func (s *Server) handleSubmitAnswer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SubmitAnswerInput,
) (*mcp.CallToolResult, domain.AnswerEvaluation, error) {
	eval, err := s.ports.Progress.SubmitAnswer(ctx, driving.AnswerSubmission{
		Topic:         input.Topic,
		UserAnswer:    input.UserAnswer,
		CorrectAnswer: input.CorrectAnswer,
	})
	if err != nil {
		return nil, domain.AnswerEvaluation{}, err
	}
	return nil, *eval, nil
}

// handleProgress handles the progress tool invocation.
func (s *Server) handleProgress(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ProgressOutput, error) {
	progress, err := s.ports.Progress.Progress(ctx)
	if err != nil {
		return nil, ProgressOutput{}, err
	}
	return nil, ProgressOutput{Topics: progress}, nil
}

// handleRecommend handles the recommend tool invocation.
func (s *Server) handleRecommend(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, RecommendOutput, error) {
	recommendation, err := s.ports.Progress.Recommend(ctx)
	if err != nil {
		return nil, RecommendOutput{}, err
	}
	return nil, RecommendOutput{Recommendation: recommendation}, nil
}
