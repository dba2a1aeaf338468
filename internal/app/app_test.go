package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/sitepulse/internal/app"
	"github.com/JakeFAU/sitepulse/internal/config"
	publisherMemory "github.com/JakeFAU/sitepulse/internal/publisher/memory"
)

// MockPublisher mocks app.ClosablePublisher.
type MockPublisher struct {
	mock.Mock
}

// Publish satisfies audit.Publisher for the mock.
func (m *MockPublisher) Publish(ctx context.Context, topic string, payload any) (string, error) {
	args := m.Called(ctx, topic, payload)
	return args.String(0), args.Error(1)
}

// Close satisfies app.ClosablePublisher for the mock.
func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func baseConfig(backend string) config.Config {
	return config.Config{
		Server:    config.ServerConfig{Port: 8080, RequestTimeout: 30 * time.Second},
		Audit:     config.AuditConfig{UserAgent: "test", Timeout: time.Second, MaxHTMLBytes: 1000},
		Store:     config.StoreConfig{TTL: time.Minute, Capacity: 5},
		RateLimit: config.RateLimitConfig{Capacity: 2, RefillPerSecond: 1},
		Publisher: config.PublisherConfig{Backend: backend, ProjectID: "proj", Topic: "audits"},
		Telemetry: config.TelemetryConfig{ServiceName: "sitepulse-test"},
	}
}

// withFactory swaps the Pub/Sub factory for the duration of a test.
func withFactory(t *testing.T, f func(context.Context, string, string) (app.ClosablePublisher, error)) {
	t.Helper()
	orig := app.PubSubFactory
	app.PubSubFactory = f
	t.Cleanup(func() { app.PubSubFactory = orig })
}

func TestNew_NoPublisher(t *testing.T) {
	a, err := app.New(context.Background(), baseConfig(config.PublisherNone), zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, a)

	assert.Nil(t, a.Publisher())
	assert.NotNil(t, a.Auditor())
	assert.NotNil(t, a.Store())
	assert.NotNil(t, a.Logger())
	assert.Equal(t, "audits", a.Config().Publisher.Topic)
	assert.NotNil(t, a.Server().Handler())
	require.NoError(t, a.Close(context.Background()))
}

func TestNew_MemoryPublisher(t *testing.T) {
	a, err := app.New(context.Background(), baseConfig(config.PublisherMemory), nil)
	require.NoError(t, err)
	assert.IsType(t, &publisherMemory.Publisher{}, a.Publisher())
	require.NoError(t, a.Close(context.Background()))
}

func TestNew_PubSubPublisher(t *testing.T) {
	mockPub := new(MockPublisher)
	mockPub.On("Close").Return(nil).Once()

	var gotProject, gotTopic string
	withFactory(t, func(_ context.Context, projectID, topic string) (app.ClosablePublisher, error) {
		gotProject, gotTopic = projectID, topic
		return mockPub, nil
	})

	a, err := app.New(context.Background(), baseConfig(config.PublisherPubSub), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "proj", gotProject)
	assert.Equal(t, "audits", gotTopic)
	assert.Same(t, mockPub, a.Publisher())

	require.NoError(t, a.Close(context.Background()))
	mockPub.AssertExpectations(t)
}

func TestNew_PubSubFactoryError(t *testing.T) {
	withFactory(t, func(context.Context, string, string) (app.ClosablePublisher, error) {
		return nil, errors.New("no credentials")
	})

	a, err := app.New(context.Background(), baseConfig(config.PublisherPubSub), zap.NewNop())
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "no credentials")
}

func TestNew_UnknownPublisher(t *testing.T) {
	_, err := app.New(context.Background(), baseConfig("kafka"), zap.NewNop())
	require.ErrorContains(t, err, "unknown publisher backend")
}

func TestClose_ReportsPublisherError(t *testing.T) {
	mockPub := new(MockPublisher)
	mockPub.On("Close").Return(errors.New("flush failed")).Once()
	withFactory(t, func(context.Context, string, string) (app.ClosablePublisher, error) {
		return mockPub, nil
	})

	a, err := app.New(context.Background(), baseConfig(config.PublisherPubSub), zap.NewNop())
	require.NoError(t, err)

	err = a.Close(context.Background())
	require.ErrorContains(t, err, "flush failed")
	mockPub.AssertExpectations(t)
}
