// Package udaltest содержит средства для тестирования реализаций UDAL и кода,
// который их использует: фейковую реализацию в памяти и набор проверок
// соответствия контракту.
package udaltest

import (
	"context"
	"sync"

	"github.com/x-research-team/udal"
)

// Call — запись об одном вызове Execute фейковой реализации.
type Call struct {
	Name string
	Args udal.Args
}

// Query связывает описание запроса с обработчиком для NewFake.
// Если Handler равен nil, используется Echo.
type Query struct {
	Info    *udal.NamedQueryInfo
	Handler udal.Handler
}

// Fake — реализация UDAL в памяти, построенная на udal.Catalog.
type Fake struct {
	*udal.Catalog

	connectionString string
	config           *udal.Config

	mu    sync.Mutex
	calls []Call
}

// NewFake создает фейковую реализацию с указанными запросами.
// Паникует, если имена запросов повторяются.
func NewFake(connectionString string, cfg *udal.Config, queries ...Query) *Fake {
	if cfg == nil {
		cfg = udal.NewConfig()
	}
	f := &Fake{
		Catalog:          udal.NewCatalog(),
		connectionString: connectionString,
		config:           cfg,
	}
	for _, q := range queries {
		f.Handle(q.Info, q.Handler)
	}
	return f
}

// Factory возвращает udal.Factory, создающую пустую фейковую реализацию.
func Factory(queries ...Query) udal.Factory {
	return func(connectionString string, cfg *udal.Config) (udal.UDAL, error) {
		return NewFake(connectionString, cfg, queries...), nil
	}
}

// Handle регистрирует запрос. Паникует при повторной регистрации.
func (f *Fake) Handle(info *udal.NamedQueryInfo, handler udal.Handler) {
	if handler == nil {
		handler = Echo
	}
	f.MustRegister(info, handler)
}

// Execute записывает вызов и выполняет запрос через каталог.
func (f *Fake) Execute(ctx context.Context, name string, args udal.Args) (udal.Result, error) {
	recorded := make(udal.Args, len(args))
	for k, v := range args {
		recorded[k] = v
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: name, Args: recorded})
	f.mu.Unlock()

	return f.Catalog.Execute(ctx, name, args)
}

// Calls возвращает копию журнала вызовов.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// ConnectionString возвращает строку подключения, переданную при создании.
func (f *Fake) ConnectionString() string {
	return f.connectionString
}

// Config возвращает конфигурацию, переданную при создании.
func (f *Fake) Config() *udal.Config {
	return f.config
}

// Echo — обработчик, возвращающий аргументы вызова в качестве данных.
func Echo(_ context.Context, info *udal.NamedQueryInfo, args udal.Args) (udal.Result, error) {
	data := make(map[string]any, len(args))
	for k, v := range args {
		data[k] = v
	}
	return udal.NewValueResult(info, data, nil), nil
}

// Static возвращает обработчик, всегда отдающий data с метаданными metadata.
func Static(data any, metadata udal.Metadata) udal.Handler {
	return func(_ context.Context, info *udal.NamedQueryInfo, _ udal.Args) (udal.Result, error) {
		return udal.NewValueResult(info, data, metadata), nil
	}
}

// Fail возвращает обработчик, всегда завершающийся ошибкой err.
func Fail(err error) udal.Handler {
	return func(context.Context, *udal.NamedQueryInfo, udal.Args) (udal.Result, error) {
		return nil, err
	}
}
