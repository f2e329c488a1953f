package mcp

import (
	"context"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer  *domain.GeneratedAnswer
	result  *domain.RetrievalResult
	quiz    *domain.Quiz
	err     error
	lastAsk driving.AskRequest
	lastQry domain.Query
}

func (m *mockQueryService) Ask(_ context.Context, req driving.AskRequest) (*domain.GeneratedAnswer, error) {
	m.lastAsk = req
	return m.answer, m.err
}

func (m *mockQueryService) Search(_ context.Context, query domain.Query) (*domain.RetrievalResult, error) {
	m.lastQry = query
	return m.result, m.err
}

func (m *mockQueryService) Quiz(_ context.Context, _ string, _ int) (*domain.Quiz, error) {
	return m.quiz, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	report  *domain.IngestionReport
	err     error
	lastDoc domain.Document
	removed string
}

func (m *mockIngestService) Ingest(_ context.Context, doc domain.Document) (*domain.IngestionReport, error) {
	m.lastDoc = doc
	return m.report, m.err
}

func (m *mockIngestService) IngestAll(_ context.Context, docs []domain.Document) ([]domain.IngestionReport, error) {
	reports := make([]domain.IngestionReport, 0, len(docs))
	for range docs {
		if m.report != nil {
			reports = append(reports, *m.report)
		}
	}
	return reports, m.err
}

func (m *mockIngestService) Remove(_ context.Context, documentID string) error {
	m.removed = documentID
	return m.err
}

// mockProgressService is a mock implementation of driving.ProgressService.
type mockProgressService struct {
	eval           *domain.AnswerEvaluation
	progress       domain.StudyProgress
	recommendation string
	err            error
	lastSubmission driving.AnswerSubmission
}

func (m *mockProgressService) SubmitAnswer(_ context.Context, sub driving.AnswerSubmission) (*domain.AnswerEvaluation, error) {
	m.lastSubmission = sub
	return m.eval, m.err
}

func (m *mockProgressService) Progress(_ context.Context) (domain.StudyProgress, error) {
	return m.progress, m.err
}

func (m *mockProgressService) Recommend(_ context.Context) (string, error) {
	return m.recommendation, m.err
}

// mockStatusService is a mock implementation of driving.StatusService.
type mockStatusService struct {
	status *driving.SystemStatus
	err    error
}

func (m *mockStatusService) Status(_ context.Context) (*driving.SystemStatus, error) {
	return m.status, m.err
}
