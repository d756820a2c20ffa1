package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/kbukum/transcriber/component"
	"github.com/kbukum/transcriber/logger"
)

type memStorage struct {
	objects map[string]string
}

func (m *memStorage) Upload(_ context.Context, key string, r io.Reader) (int64, error) {
	b, err := io.ReadAll(r)
	m.objects[key] = string(b)
	return int64(len(b)), err
}
func (m *memStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	v, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(strings.NewReader(v)), nil
}
func (m *memStorage) Delete(_ context.Context, key string) error { delete(m.objects, key); return nil }
func (m *memStorage) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.objects[key]
	return ok, nil
}
func (m *memStorage) Path(string) (string, error) { return "", ErrNoLocalPath }
func (m *memStorage) List(context.Context, string) ([]FileInfo, error) { return nil, nil }

func init() {
	RegisterFactory("memory", func(Config, *logger.Logger) (Storage, error) {
		return &memStorage{objects: map[string]string{}}, nil
	})
}

func TestComponentLifecycle(t *testing.T) {
	c := NewComponent(Config{Provider: "memory", BasePath: "unused"}, logger.Nop())
	ctx := context.Background()

	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %+v", h)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.Storage() == nil {
		t.Fatal("expected storage after start")
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy || h.Message != "0 uploads held" {
		t.Errorf("expected healthy and empty, got %+v", h)
	}
	if err := c.Stop(ctx); err != nil || c.Storage() != nil {
		t.Errorf("expected storage released, err=%v", err)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New(Config{Provider: "gcs", BasePath: "x"}, nil); err == nil {
		t.Error("expected error for unregistered provider")
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Provider != ProviderLocal || cfg.BasePath != DefaultBasePath() {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if err := (&Config{}).Validate(); err == nil {
		t.Error("expected error for empty provider")
	}
}

func TestProvidersListsRegistered(t *testing.T) {
	found := false
	for _, p := range Providers() {
		if p == "memory" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected memory provider in %v", Providers())
	}
}
