package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/kbukum/transcriber/component"
	"github.com/kbukum/transcriber/config"
	"github.com/kbukum/transcriber/logger"
)

// testConfig is a minimal config for testing that satisfies the Config interface.
type testConfig struct {
	config.ServiceConfig
	failValidate bool
}

func (c *testConfig) Validate() error {
	if c.failValidate {
		return fmt.Errorf("broken")
	}
	return c.ServiceConfig.Validate()
}

type mockComponent struct {
	name    string
	health  component.Health
	started bool
	stopped bool
	order   *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	m.started = true
	return nil
}
func (m *mockComponent) Stop(ctx context.Context) error {
	m.stopped = true
	if m.order != nil {
		*m.order = append(*m.order, "component:"+m.name)
	}
	return nil
}
func (m *mockComponent) Health(ctx context.Context) component.Health {
	return m.health
}

func newTestConfig() *testConfig {
	return &testConfig{ServiceConfig: config.ServiceConfig{Name: "transcriber", Version: "1.0.0"}}
}

func TestNewAppAppliesDefaults(t *testing.T) {
	app, err := NewApp(newTestConfig(), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Name != "transcriber" || app.Version != "1.0.0" {
		t.Errorf("unexpected app identity %s/%s", app.Name, app.Version)
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("expected defaults to be applied, got %q", app.Cfg.Environment)
	}
	if app.gracefulTimeout != 30*time.Second {
		t.Errorf("expected shutdown timeout from config defaults, got %v", app.gracefulTimeout)
	}
}

func TestGracefulTimeoutOverride(t *testing.T) {
	cfg := newTestConfig()
	cfg.ShutdownTimeout = 5 * time.Second
	app, err := NewApp(cfg, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	if app.gracefulTimeout != 5*time.Second {
		t.Errorf("expected configured timeout, got %v", app.gracefulTimeout)
	}
	app, _ = NewApp(newTestConfig(), WithLogger(logger.Nop()), WithGracefulTimeout(time.Second))
	if app.gracefulTimeout != time.Second {
		t.Errorf("expected option to win, got %v", app.gracefulTimeout)
	}
}

func TestNewAppValidationError(t *testing.T) {
	cfg := newTestConfig()
	cfg.failValidate = true
	if _, err := NewApp(cfg, WithLogger(logger.Nop())); err == nil || !strings.Contains(err.Error(), "config validation") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunStopsOnSignal(t *testing.T) {
	var order []string
	sig := make(chan os.Signal, 1)
	app, err := NewApp(newTestConfig(), WithLogger(logger.Nop()), WithSignals(sig), WithGracefulTimeout(time.Second))
	if err != nil {
		t.Fatal(err)
	}

	c := &mockComponent{name: "server", health: component.Health{Name: "server", Status: component.StatusHealthy}, order: &order}
	app.RegisterComponent(c)

	hookRan := false
	app.OnStart(func(ctx context.Context) error { hookRan = true; return nil })
	app.OnStop(func(ctx context.Context) error {
		order = append(order, "hook:drain")
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	sig <- syscall.SIGTERM
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after signal")
	}

	if !c.started || !c.stopped || !hookRan {
		t.Errorf("lifecycle incomplete: started=%v stopped=%v hook=%v", c.started, c.stopped, hookRan)
	}
	if len(order) != 2 || order[0] != "hook:drain" || order[1] != "component:server" {
		t.Errorf("expected OnStop hooks before components, got %v", order)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	app, _ := NewApp(newTestConfig(), WithLogger(logger.Nop()), WithSignals(make(chan os.Signal)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.Run(ctx); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
}

func TestReadyCheck(t *testing.T) {
	app, _ := NewApp(newTestConfig(), WithLogger(logger.Nop()))
	app.RegisterComponent(&mockComponent{name: "ok", health: component.Health{Name: "ok", Status: component.StatusHealthy}})
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Errorf("expected ready, got %v", err)
	}

	app.RegisterComponent(&mockComponent{name: "bus", health: component.Health{Name: "bus", Status: component.StatusUnhealthy, Message: "disconnected"}})
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "bus=unhealthy(disconnected)") {
		t.Errorf("expected unhealthy detail, got %v", err)
	}
}
