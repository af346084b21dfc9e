// Package instrument добавляет наблюдаемость к реализациям UDAL: идентификаторы
// выполнения, структурированное логирование, метрики и трассировку
// OpenTelemetry. Все обертки прозрачно передают Queries, поэтому перечень
// запросов инструментированной реализации совпадает с исходным.
package instrument

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/x-research-team/udal"
)

// config содержит неэкспортируемую конфигурацию инструментирования.
type config struct {
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	propagator     propagation.TextMapPropagator
	middlewares    []Middleware
}

// Option определяет тип для функциональных опций, которые изменяют конфигурацию инструментирования.
type Option func(*config)

// WithLogger возвращает опцию, которая устанавливает логгер.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithTracerProvider возвращает опцию, которая устанавливает провайдер трассировки.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *config) {
		c.tracerProvider = provider
	}
}

// WithMeterProvider возвращает опцию, которая устанавливает провайдер метрик.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(c *config) {
		c.meterProvider = provider
	}
}

// WithPropagator возвращает опцию, которая устанавливает механизм распространения контекста.
func WithPropagator(propagator propagation.TextMapPropagator) Option {
	return func(c *config) {
		c.propagator = propagator
	}
}

// WithMiddleware возвращает опцию, которая добавляет один или несколько middleware в цепочку.
// Пользовательские middleware выполняются после стандартных в порядке добавления.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *config) {
		c.middlewares = append(c.middlewares, mw...)
	}
}

// Instrument оборачивает реализацию стандартной цепочкой middleware:
// идентификатор выполнения, логирование, метрики и трассировка, затем
// пользовательские middleware. Компоненты без настроенного провайдера
// не добавляют накладных расходов.
func Instrument(u udal.UDAL, opts ...Option) udal.UDAL {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	all := []Middleware{
		NewExecutionIDMiddleware(),
		NewLoggingMiddleware(cfg.logger),
		NewMetricsMiddleware(cfg.meterProvider),
		NewTracingMiddleware(cfg.tracerProvider, cfg.propagator),
	}
	all = append(all, cfg.middlewares...)

	return Chain(u, all...)
}
