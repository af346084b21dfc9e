package udal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Handler выполняет один именованный запрос. info — описание запроса из каталога.
type Handler func(ctx context.Context, info *NamedQueryInfo, args Args) (Result, error)

// catalogEntry связывает описание запроса с его обработчиком.
type catalogEntry struct {
	info    *NamedQueryInfo
	handler Handler
}

// Catalog — потокобезопасный реестр именованных запросов, реализующий UDAL.
// Адаптеры встраивают Catalog и регистрируют свои запросы при создании.
type Catalog struct {
	entries   map[string]*catalogEntry
	validator ParamValidator
	logger    *slog.Logger
	mu        sync.RWMutex
}

// CatalogOption определяет функциональную опцию каталога.
type CatalogOption func(*Catalog)

// WithLogger устанавливает логгер каталога. Логгер используется для записи
// регистрации запросов и отклоненных вызовов.
func WithLogger(logger *slog.Logger) CatalogOption {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// WithValidator включает проверку аргументов перед вызовом обработчика.
// По умолчанию аргументы не проверяются.
func WithValidator(v ParamValidator) CatalogOption {
	return func(c *Catalog) {
		c.validator = v
	}
}

// NewCatalog создает пустой каталог.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		entries: make(map[string]*catalogEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register добавляет запрос в каталог.
// Возвращает ошибку, если запрос с таким именем уже зарегистрирован.
func (c *Catalog) Register(info *NamedQueryInfo, handler Handler) error {
	if info == nil {
		return fmt.Errorf("регистрация запроса: %w", ErrNilQueryInfo)
	}
	if handler == nil {
		return fmt.Errorf("%w: запрос '%s'", ErrNilHandler, info.Name())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[info.Name()]; exists {
		return fmt.Errorf("%w: '%s'", ErrQueryExists, info.Name())
	}
	c.entries[info.Name()] = &catalogEntry{info: info, handler: handler}

	if c.logger != nil {
		c.logger.Debug("регистрация запроса", slog.String("query_name", info.Name()))
	}
	return nil
}

// MustRegister работает как Register, но паникует при ошибке.
func (c *Catalog) MustRegister(info *NamedQueryInfo, handler Handler) {
	if err := c.Register(info, handler); err != nil {
		panic(err)
	}
}

// Queries возвращает копию реестра описаний.
func (c *Catalog) Queries() map[string]*NamedQueryInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]*NamedQueryInfo, len(c.entries))
	for name, e := range c.entries {
		out[name] = e.info
	}
	return out
}

// QueryNames возвращает отсортированные имена зарегистрированных запросов.
func (c *Catalog) QueryNames() []string {
	return QueryNames(c)
}

// Lookup возвращает описание запроса по имени.
func (c *Catalog) Lookup(name string) (*NamedQueryInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[name]
	if !ok {
		return nil, false
	}
	return e.info, true
}

// Execute находит и выполняет обработчик запроса.
// Возвращает ошибку, если запрос не найден, аргументы не прошли проверку
// или обработчик не вернул результата.
func (c *Catalog) Execute(ctx context.Context, name string, args Args) (Result, error) {
	c.mu.RLock()
	e, ok := c.entries[name]
	validator := c.validator
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownQuery, name)
	}

	if args == nil {
		args = Args{}
	}
	if validator != nil {
		if err := validator.ValidateArgs(e.info, args); err != nil {
			if c.logger != nil {
				c.logger.Warn("аргументы запроса отклонены",
					slog.String("query_name", name),
					slog.Any("error", err),
				)
			}
			return nil, err
		}
	}

	result, err := e.handler(ctx, e.info, args)
	if err != nil {
		return nil, fmt.Errorf("запрос '%s': %w", name, err)
	}
	if result == nil {
		return nil, fmt.Errorf("запрос '%s': %w", name, ErrNilResult)
	}
	return result, nil
}
