// Package mocks provides testify mocks for the complaint persistence and
// assistant boundaries.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/capalabs/capaflow/internal/domain/complaint"
)

// ComplaintRepository is a mock for complaint.Repository.
type ComplaintRepository struct {
	mock.Mock
}

func (m *ComplaintRepository) Create(ctx context.Context, c *complaint.Complaint) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *ComplaintRepository) Get(ctx context.Context, id string) (*complaint.Complaint, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*complaint.Complaint); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ComplaintRepository) Update(ctx context.Context, c *complaint.Complaint) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *ComplaintRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ComplaintRepository) List(ctx context.Context, opts complaint.ListOptions) ([]complaint.Ref, error) {
	args := m.Called(ctx, opts)
	if refs, ok := args.Get(0).([]complaint.Ref); ok {
		return refs, args.Error(1)
	}
	return nil, args.Error(1)
}

// AuditRepository is a mock for complaint.AuditRepository.
type AuditRepository struct {
	mock.Mock
}

func (m *AuditRepository) Log(ctx context.Context, entry *complaint.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *AuditRepository) ListForComplaint(ctx context.Context, complaintID string, limit int) ([]complaint.AuditEntry, error) {
	args := m.Called(ctx, complaintID, limit)
	if entries, ok := args.Get(0).([]complaint.AuditEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

// SearchRepository is a mock for complaint.SearchRepository.
type SearchRepository struct {
	mock.Mock
}

func (m *SearchRepository) Search(ctx context.Context, query string, opts complaint.SearchOptions) ([]complaint.SearchResult, error) {
	args := m.Called(ctx, query, opts)
	if results, ok := args.Get(0).([]complaint.SearchResult); ok {
		return results, args.Error(1)
	}
	return nil, args.Error(1)
}

// Assistant is a mock for complaint.Assistant.
type Assistant struct {
	mock.Mock
}

func (m *Assistant) StartIntake(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *Assistant) SendTurn(ctx context.Context, history complaint.History, doc complaint.Document, userText string) (string, error) {
	args := m.Called(ctx, history, doc, userText)
	return args.String(0), args.Error(1)
}
