package instrument_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/x-research-team/udal"
	"github.com/x-research-team/udal/instrument"
	"github.com/x-research-team/udal/udaltest"
)

var errBoom = errors.New("boom")

func newFake() *udaltest.Fake {
	return udaltest.NewFake("mem://", nil,
		udaltest.Query{
			Info:    udal.MustNamedQueryInfo("ping", nil),
			Handler: udaltest.Static("pong", udal.Metadata{"source": "fake"}),
		},
		udaltest.Query{
			Info:    udal.MustNamedQueryInfo("fail", nil),
			Handler: udaltest.Fail(errBoom),
		},
	)
}

// Тест назначения идентификатора выполнения.
func TestExecutionIDMiddleware(t *testing.T) {
	t.Parallel()

	var seen string
	probe := instrument.MiddlewareFunc(func(next udal.UDAL) udal.UDAL {
		return probeUDAL{UDAL: next, probe: func(ctx context.Context) {
			seen, _ = instrument.ExecutionID(ctx)
		}}
	})
	u := instrument.Chain(newFake(), instrument.NewExecutionIDMiddleware(), probe)

	result, err := u.Execute(context.Background(), "ping", nil)
	require.NoError(t, err)

	md := result.Metadata()
	require.Contains(t, md, instrument.MetadataExecutionID)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, md[instrument.MetadataExecutionID])
	assert.Equal(t, "fake", md["source"], "метаданные обработчика должны сохраняться")

	second, err := u.Execute(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.NotEqual(t, md[instrument.MetadataExecutionID], second.Metadata()[instrument.MetadataExecutionID])

	_, err = u.Execute(context.Background(), "fail", nil)
	assert.True(t, errors.Is(err, errBoom))
}

// probeUDAL вызывает probe перед выполнением запроса.
type probeUDAL struct {
	udal.UDAL
	probe func(ctx context.Context)
}

func (p probeUDAL) Execute(ctx context.Context, name string, args udal.Args) (udal.Result, error) {
	p.probe(ctx)
	return p.UDAL.Execute(ctx, name, args)
}

// Тест порядка применения цепочки middleware.
func TestChain_Order(t *testing.T) {
	t.Parallel()

	var order []string
	named := func(name string) instrument.Middleware {
		return instrument.MiddlewareFunc(func(next udal.UDAL) udal.UDAL {
			return probeUDAL{UDAL: next, probe: func(context.Context) {
				order = append(order, name)
			}}
		})
	}

	u := instrument.Chain(newFake(), named("first"), named("second"), named("third"))
	_, err := u.Execute(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

// Тест логирования успешных и ошибочных вызовов.
func TestLoggingMiddleware(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	u := instrument.Chain(newFake(), instrument.NewLoggingMiddleware(logger))

	_, err := u.Execute(context.Background(), "ping", udal.Args{"a": 1})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "выполнение запроса")
	assert.Contains(t, buf.String(), "query_name=ping")
	assert.Contains(t, buf.String(), "запрос выполнен")

	buf.Reset()
	_, err = u.Execute(context.Background(), "fail", nil)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "ошибка выполнения запроса")
	assert.Contains(t, buf.String(), "boom")
}

// Тест того, что middleware без провайдеров ничего не оборачивают.
func TestNoopMiddlewares(t *testing.T) {
	t.Parallel()

	fake := newFake()
	assert.Same(t, fake, instrument.NewLoggingMiddleware(nil).Wrap(fake))
	assert.Same(t, fake, instrument.NewMetricsMiddleware(nil).Wrap(fake))
	assert.Same(t, fake, instrument.NewTracingMiddleware(nil, nil).Wrap(fake))
}

// Тест сбора метрик выполнения.
func TestMetricsMiddleware(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	u := instrument.Chain(newFake(), instrument.NewMetricsMiddleware(provider))

	for i := 0; i < 3; i++ {
		_, err := u.Execute(context.Background(), "ping", nil)
		require.NoError(t, err)
	}
	_, err := u.Execute(context.Background(), "fail", nil)
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	var histogramSeen bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "udal.execute.count":
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				for _, dp := range sum.DataPoints {
					status, _ := dp.Attributes.Value(attribute.Key("status"))
					counts[status.AsString()] += dp.Value
				}
			case "udal.execute.duration":
				_, histogramSeen = m.Data.(metricdata.Histogram[float64])
			}
		}
	}

	assert.Equal(t, map[string]int64{"success": 3, "error": 1}, counts)
	assert.True(t, histogramSeen, "гистограмма длительности должна быть записана")
}

// Тест создания спанов и внедрения контекста трассировки в метаданные.
func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	u := instrument.Chain(newFake(), instrument.NewTracingMiddleware(provider, nil))

	result, err := u.Execute(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.Contains(t, result.Metadata(), "traceparent")

	_, err = u.Execute(context.Background(), "fail", nil)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "ping execute", spans[0].Name())
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
	assert.Contains(t, spans[0].Attributes(), attribute.String("udal.query.name", "ping"))
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)

	assert.Equal(t, "fail execute", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	require.NotEmpty(t, spans[1].Events(), "ошибка должна записываться в спан")
}

// Тест полной цепочки и сохранения контракта инструментированной реализацией.
func TestInstrument(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	custom := 0
	u := instrument.Instrument(newFake(),
		instrument.WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))),
		instrument.WithMeterProvider(sdkmetric.NewMeterProvider()),
		instrument.WithTracerProvider(sdktrace.NewTracerProvider()),
		instrument.WithMiddleware(instrument.MiddlewareFunc(func(next udal.UDAL) udal.UDAL {
			return probeUDAL{UDAL: next, probe: func(context.Context) { custom++ }}
		})),
	)

	result, err := u.Execute(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", result.Data())
	assert.Contains(t, result.Metadata(), instrument.MetadataExecutionID)
	assert.Contains(t, result.Metadata(), "traceparent")
	assert.Equal(t, 1, custom)
	assert.Contains(t, buf.String(), "выполнение запроса")

	assert.Equal(t, []string{"fail", "ping"}, udal.QueryNames(u))
	udaltest.Conformance(t, u)
}
