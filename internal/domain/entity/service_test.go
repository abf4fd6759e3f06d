package entity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context, scope Scope, typ Type) ([]*Record, error) {
	args := m.Called(ctx, scope, typ)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Record), args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, scope Scope, typ Type, id string) (*Record, error) {
	args := m.Called(ctx, scope, typ, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *MockRepository) Insert(ctx context.Context, rec *Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRepository) Update(ctx context.Context, rec *Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

var testScope = Scope{TenantID: "tenant-1", FarmerID: "farmer-1"}

func scopedRecord(id string, lastModified int64) *Record {
	return &Record{
		ID:           id,
		TenantID:     testScope.TenantID,
		FarmerID:     testScope.FarmerID,
		Type:         TypeLandParcel,
		Payload:      []byte(`{"name":"south field"}`),
		LastModified: lastModified,
		SyncStatus:   StatusPending,
	}
}

func TestService_Insert_StampsSynced(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	rec := scopedRecord("rec-1", 1000)
	mockRepo.On("Insert", mock.Anything, rec).Return(nil)

	err := service.Insert(context.Background(), testScope, rec)
	assert.NoError(t, err)
	assert.Equal(t, StatusSynced, rec.SyncStatus)

	mockRepo.AssertExpectations(t)
}

func TestService_Insert_ScopeMismatch(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	rec := scopedRecord("rec-1", 1000)
	rec.TenantID = "other-tenant"

	err := service.Insert(context.Background(), testScope, rec)
	assert.ErrorIs(t, err, ErrScopeMismatch)

	mockRepo.AssertNotCalled(t, "Insert")
}

func TestService_Update_LastWriteWins(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	stored := scopedRecord("rec-1", 1000)
	incoming := scopedRecord("rec-1", 2000)

	mockRepo.On("Get", mock.Anything, testScope, TypeLandParcel, "rec-1").Return(stored, nil)
	mockRepo.On("Update", mock.Anything, incoming).Return(nil)

	err := service.Update(context.Background(), testScope, incoming)
	assert.NoError(t, err)
	assert.Equal(t, StatusSynced, incoming.SyncStatus)

	mockRepo.AssertExpectations(t)
}

func TestService_Update_RejectsStale(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	stored := scopedRecord("rec-1", 3000)
	incoming := scopedRecord("rec-1", 2000)

	mockRepo.On("Get", mock.Anything, testScope, TypeLandParcel, "rec-1").Return(stored, nil)

	err := service.Update(context.Background(), testScope, incoming)
	assert.ErrorIs(t, err, ErrStaleUpdate)

	mockRepo.AssertNotCalled(t, "Update")
}

func TestService_Update_EqualTimestampWins(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	stored := scopedRecord("rec-1", 2000)
	incoming := scopedRecord("rec-1", 2000)

	mockRepo.On("Get", mock.Anything, testScope, TypeLandParcel, "rec-1").Return(stored, nil)
	mockRepo.On("Update", mock.Anything, incoming).Return(nil)

	err := service.Update(context.Background(), testScope, incoming)
	assert.NoError(t, err)
}

func TestService_Update_NotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	incoming := scopedRecord("rec-404", 2000)
	mockRepo.On("Get", mock.Anything, testScope, TypeLandParcel, "rec-404").Return(nil, ErrNotFound)

	err := service.Update(context.Background(), testScope, incoming)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_List_EmptyScope(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	_, err := service.List(context.Background(), Scope{}, TypeLandParcel)
	assert.Error(t, err)

	mockRepo.AssertNotCalled(t, "List")
}
