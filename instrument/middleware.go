package instrument

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/x-research-team/udal"
)

const (
	instrumentationName    = "github.com/x-research-team/udal"
	instrumentationVersion = "0.1.0"
	metricKeyPrefix        = "udal."
)

// MetadataExecutionID — ключ метаданных результата с идентификатором выполнения.
const MetadataExecutionID = "execution_id"

// Middleware определяет интерфейс для middleware слоя доступа к данным.
type Middleware interface {
	Wrap(next udal.UDAL) udal.UDAL
}

// MiddlewareFunc является адаптером, позволяющим использовать обычные функции как middleware.
type MiddlewareFunc func(next udal.UDAL) udal.UDAL

// Wrap реализует интерфейс Middleware.
func (f MiddlewareFunc) Wrap(next udal.UDAL) udal.UDAL {
	return f(next)
}

// Chain применяет цепочку middleware к реализации. Первый middleware
// оказывается внешним и первым получает вызов.
func Chain(u udal.UDAL, middlewares ...Middleware) udal.UDAL {
	for i := len(middlewares) - 1; i >= 0; i-- {
		u = middlewares[i].Wrap(u)
	}
	return u
}

// passthrough делегирует Queries следующей реализации в цепочке.
type passthrough struct {
	next udal.UDAL
}

func (p passthrough) Queries() map[string]*udal.NamedQueryInfo {
	return p.next.Queries()
}

type executionIDKey struct{}

// ExecutionID возвращает идентификатор текущего выполнения, если он был назначен.
func ExecutionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(executionIDKey{}).(string)
	return id, ok
}

// executionIDMiddleware назначает каждому вызову уникальный идентификатор.
type executionIDMiddleware struct{}

// NewExecutionIDMiddleware создает middleware, которое помещает UUID выполнения
// в контекст и в метаданные результата.
func NewExecutionIDMiddleware() Middleware {
	return executionIDMiddleware{}
}

// Wrap оборачивает реализацию для назначения идентификаторов.
func (executionIDMiddleware) Wrap(next udal.UDAL) udal.UDAL {
	return &executionIDProvider{passthrough{next}}
}

type executionIDProvider struct {
	passthrough
}

// Execute назначает идентификатор и выполняет запрос.
func (p *executionIDProvider) Execute(ctx context.Context, name string, args udal.Args) (udal.Result, error) {
	id, ok := ExecutionID(ctx)
	if !ok {
		id = uuid.NewString()
		ctx = context.WithValue(ctx, executionIDKey{}, id)
	}

	result, err := p.next.Execute(ctx, name, args)
	if err != nil {
		return nil, err
	}
	return udal.WithMetadata(result, udal.Metadata{MetadataExecutionID: id}), nil
}

// loggingMiddleware реализует Middleware для логирования выполнения запросов.
type loggingMiddleware struct {
	logger *slog.Logger
}

// NewLoggingMiddleware создает новое middleware для логирования.
// Если логгер не предоставлен (nil), возвращается no-op middleware.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		return noopMiddleware{}
	}
	return &loggingMiddleware{
		logger: logger,
	}
}

// Wrap оборачивает реализацию для добавления логирования.
func (m *loggingMiddleware) Wrap(next udal.UDAL) udal.UDAL {
	return &loggingProvider{
		passthrough: passthrough{next},
		logger:      m.logger,
	}
}

// loggingProvider - это обертка над реализацией, которая добавляет логирование.
type loggingProvider struct {
	passthrough
	logger *slog.Logger
}

// Execute логирует и выполняет запрос.
func (p *loggingProvider) Execute(ctx context.Context, name string, args udal.Args) (result udal.Result, err error) {
	executionID, _ := ExecutionID(ctx)
	p.logger.InfoContext(ctx, "выполнение запроса",
		slog.String("query_name", name),
		slog.String("execution_id", executionID),
		slog.Int("args", len(args)),
	)

	startTime := time.Now()
	defer func() {
		duration := time.Since(startTime)
		if err != nil {
			p.logger.ErrorContext(ctx, "ошибка выполнения запроса",
				slog.String("query_name", name),
				slog.String("execution_id", executionID),
				slog.Any("error", err),
				slog.Duration("duration", duration),
			)
			return
		}
		p.logger.DebugContext(ctx, "запрос выполнен",
			slog.String("query_name", name),
			slog.String("execution_id", executionID),
			slog.Duration("duration", duration),
		)
	}()

	return p.next.Execute(ctx, name, args)
}

// metricsMiddleware реализует Middleware для сбора метрик OpenTelemetry.
type metricsMiddleware struct {
	executeCounter metric.Int64Counter
	durationHist   metric.Float64Histogram
}

// NewMetricsMiddleware создает новое middleware для сбора метрик.
func NewMetricsMiddleware(provider metric.MeterProvider) Middleware {
	if provider == nil {
		return noopMiddleware{}
	}

	meter := provider.Meter(instrumentationName, metric.WithInstrumentationVersion(instrumentationVersion))

	executeCounter, err := meter.Int64Counter(
		metricKeyPrefix+"execute.count",
		metric.WithDescription("Количество выполненных запросов"),
		metric.WithUnit("{queries}"),
	)
	if err != nil {
		panic(fmt.Sprintf("не удалось создать счетчик execute.count: %v", err))
	}

	durationHist, err := meter.Float64Histogram(
		metricKeyPrefix+"execute.duration",
		metric.WithDescription("Длительность выполнения запроса"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		panic(fmt.Sprintf("не удалось создать гистограмму execute.duration: %v", err))
	}

	return &metricsMiddleware{
		executeCounter: executeCounter,
		durationHist:   durationHist,
	}
}

// Wrap оборачивает реализацию для добавления сбора метрик.
func (m *metricsMiddleware) Wrap(next udal.UDAL) udal.UDAL {
	return &metricsProvider{
		passthrough:    passthrough{next},
		executeCounter: m.executeCounter,
		durationHist:   m.durationHist,
	}
}

// metricsProvider - это обертка над реализацией, которая собирает метрики.
type metricsProvider struct {
	passthrough
	executeCounter metric.Int64Counter
	durationHist   metric.Float64Histogram
}

// Execute собирает метрики и выполняет запрос.
func (p *metricsProvider) Execute(ctx context.Context, name string, args udal.Args) (udal.Result, error) {
	startTime := time.Now()
	result, err := p.next.Execute(ctx, name, args)
	duration := float64(time.Since(startTime).Microseconds()) / 1000

	status := "success"
	if err != nil {
		status = "error"
	}

	attrs := metric.WithAttributes(
		attribute.String("query.name", name),
		attribute.String("status", status),
	)
	p.executeCounter.Add(ctx, 1, attrs)
	p.durationHist.Record(ctx, duration, attrs)

	return result, err
}

// tracingMiddleware реализует Middleware для распределенной трассировки OpenTelemetry.
type tracingMiddleware struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// NewTracingMiddleware создает новое middleware для трассировки.
// Контекст трассировки внедряется в метаданные результата пропагатором p.
func NewTracingMiddleware(tp trace.TracerProvider, p propagation.TextMapPropagator) Middleware {
	if tp == nil {
		return noopMiddleware{}
	}

	if p == nil {
		p = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	}

	return &tracingMiddleware{
		tracer: tp.Tracer(
			instrumentationName,
			trace.WithInstrumentationVersion(instrumentationVersion),
		),
		propagator: p,
	}
}

// Wrap оборачивает реализацию для добавления логики трассировки.
func (m *tracingMiddleware) Wrap(next udal.UDAL) udal.UDAL {
	return &tracingProvider{
		passthrough: passthrough{next},
		tracer:      m.tracer,
		propagator:  m.propagator,
	}
}

// tracingProvider - это обертка над реализацией, которая управляет спанами трассировки.
type tracingProvider struct {
	passthrough
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// Execute создает спан выполнения и внедряет контекст трассировки в метаданные результата.
func (p *tracingProvider) Execute(ctx context.Context, name string, args udal.Args) (result udal.Result, err error) {
	spanName := fmt.Sprintf("%s execute", name)

	ctx, span := p.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("udal.query.name", name)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	result, err = p.next.Execute(ctx, name, args)
	if err != nil {
		return nil, err
	}

	carrier := propagation.MapCarrier{}
	p.propagator.Inject(ctx, carrier)
	extra := make(udal.Metadata, len(carrier))
	for k, v := range carrier {
		extra[k] = v
	}
	return udal.WithMetadata(result, extra), nil
}

// noopMiddleware представляет собой пустое middleware.
type noopMiddleware struct{}

// Wrap просто возвращает следующую реализацию без изменений.
func (noopMiddleware) Wrap(next udal.UDAL) udal.UDAL {
	return next
}
