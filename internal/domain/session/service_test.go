package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, id Identity, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, id, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockRepository) Validate(ctx context.Context, tokenHash string) (Identity, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(Identity), args.Error(1)
}

func TestService_Create(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	id := Identity{TenantID: "tenant-1", FarmerID: "farmer-1"}

	mockRepo.On("Create", mock.Anything, id, mock.MatchedBy(func(hash string) bool {
		return len(hash) == 64 // sha256 hex
	}), mock.MatchedBy(func(expiresAt time.Time) bool {
		return expiresAt.After(time.Now())
	})).Return(nil)

	token, err := service.Create(context.Background(), id)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	// base64 encoded 32 bytes is 44 characters with padding
	assert.Len(t, token, 44)

	mockRepo.AssertExpectations(t)
}

func TestService_Create_RepositoryError(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	mockRepo.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("string"),
		mock.AnythingOfType("time.Time")).Return(errors.New("database error"))

	_, err := service.Create(context.Background(), Identity{TenantID: "t", FarmerID: "f"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
}

func TestService_Validate(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	want := Identity{TenantID: "tenant-1", FarmerID: "farmer-1"}
	mockRepo.On("Validate", mock.Anything, mock.MatchedBy(func(hash string) bool {
		return len(hash) == 64
	})).Return(want, nil)

	got, err := service.Validate(context.Background(), "some-token")
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestService_Validate_Invalid(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default())

	mockRepo.On("Validate", mock.Anything, mock.AnythingOfType("string")).
		Return(Identity{}, ErrInvalidSession)

	_, err := service.Validate(context.Background(), "bad-token")
	assert.ErrorIs(t, err, ErrInvalidSession)
}
