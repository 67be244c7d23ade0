package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/blogd/go-blog-backend/internal/config"
)

// Tests swap the global provider/propagator; restore them afterwards so
// other packages see the defaults.
func preserveOTelGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func otelCfg(name string, insecure bool) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    insecure,
		Endpoint:    "localhost:4317",
		ServiceName: name,
		SampleRatio: 1.0,
	}
}

func TestSetupOTel_DisabledIsNoOp(t *testing.T) {
	preserveOTelGlobals(t)

	cfg := otelCfg("blog-backend", true)
	cfg.Enabled = false
	shutdown, err := SetupOTel(context.Background(), cfg, "v0.0.0")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if shutdown == nil {
		t.Fatalf("expected non-nil shutdown func")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned error: %v", err)
	}
}

func TestSetupOTel_InstallsProviderAndPropagator(t *testing.T) {
	for _, insecure := range []bool{true, false} {
		t.Run(map[bool]string{true: "insecure", false: "tls"}[insecure], func(t *testing.T) {
			preserveOTelGlobals(t)

			shutdown, err := SetupOTel(context.Background(), otelCfg("blog-backend", insecure), "v1.2.3")
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			defer func() { _ = shutdown(context.Background()) }()

			if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
				t.Fatalf("expected *sdktrace.TracerProvider")
			}

			// Propagator round-trip: the carrier must pick up trace context.
			prop := otel.GetTextMapPropagator()
			carrier := propagation.MapCarrier{}
			ctx, span := otel.Tracer("test").Start(context.Background(), "list-posts")
			span.End()
			prop.Inject(ctx, carrier)
			_ = prop.Extract(context.Background(), carrier)
		})
	}
}

func TestSetupOTel_CanceledContextStillSucceeds(t *testing.T) {
	preserveOTelGlobals(t)

	// Exporter creation is lazy; a dead context must not fail setup.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	shutdown, err := SetupOTel(ctx, otelCfg("blog-backend", true), "v0")
	if err != nil {
		t.Fatalf("unexpected err with canceled ctx: %v", err)
	}
	if shutdown == nil {
		t.Fatalf("expected non-nil shutdown func")
	}
	_ = shutdown(context.Background())
}

func TestSetupOTel_PipelineErrorsLeaveGlobalsIntact(t *testing.T) {
	cases := []struct {
		name  string
		sabotage func(t *testing.T)
	}{
		{"exporter", func(t *testing.T) {
			orig := newOTLPExporterFn
			t.Cleanup(func() { newOTLPExporterFn = orig })
			newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
				return nil, errors.New("exporter down")
			}
		}},
		{"resource", func(t *testing.T) {
			orig := newServiceResourceFn
			t.Cleanup(func() { newServiceResourceFn = orig })
			newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
				return nil, errors.New("resource build failed")
			}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			preserveOTelGlobals(t)
			tc.sabotage(t)

			prevTP := otel.GetTracerProvider()
			prevProp := otel.GetTextMapPropagator()

			if _, err := SetupOTel(context.Background(), otelCfg("blog-backend", true), "v0"); err == nil {
				t.Fatalf("expected error, got nil")
			}
			if otel.GetTracerProvider() != prevTP {
				t.Fatalf("tracer provider changed on failure")
			}
			if otel.GetTextMapPropagator() != prevProp {
				t.Fatalf("propagator changed on failure")
			}
		})
	}
}

func TestSetupOTel_ShutdownAndSpanSmoke(t *testing.T) {
	preserveOTelGlobals(t)

	shutdown, err := SetupOTel(context.Background(), otelCfg("blog-backend", true), "v1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	_, span := otel.Tracer("smoke").Start(context.Background(), "create-post", trace.WithSpanKind(trace.SpanKindInternal))
	span.End()

	ct, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	if err := shutdown(ct); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
}
