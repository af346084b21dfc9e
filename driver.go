package udal

import (
	"fmt"
	"sort"
	"sync"
)

// Registry — потокобезопасный реестр фабрик реализаций UDAL по имени драйвера.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry создает пустой реестр драйверов.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register связывает имя драйвера с фабрикой.
// Повторная регистрация того же имени возвращает ошибку.
func (r *Registry) Register(driver string, factory Factory) error {
	if driver == "" {
		return fmt.Errorf("драйвер: %w", ErrEmptyName)
	}
	if factory == nil {
		return fmt.Errorf("%w: фабрика драйвера '%s'", ErrNilHandler, driver)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[driver]; exists {
		return fmt.Errorf("%w: '%s'", ErrDriverExists, driver)
	}
	r.factories[driver] = factory
	return nil
}

// Drivers возвращает отсортированные имена зарегистрированных драйверов.
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open создает реализацию драйвера driver для строки подключения.
// Если cfg равен nil, реализация получает новую конфигурацию по умолчанию.
func (r *Registry) Open(driver, connectionString string, cfg *Config) (UDAL, error) {
	r.mu.RLock()
	factory, ok := r.factories[driver]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: '%s', доступные драйверы: %v", ErrUnknownDriver, driver, r.Drivers())
	}

	if cfg == nil {
		cfg = NewConfig()
	}

	u, err := factory(connectionString, cfg)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть драйвер '%s': %w", driver, err)
	}
	if u == nil {
		return nil, fmt.Errorf("драйвер '%s' вернул пустую реализацию", driver)
	}
	return u, nil
}

var defaultRegistry = NewRegistry()

// Register регистрирует драйвер в реестре по умолчанию.
// Обычно вызывается из init пакета адаптера.
func Register(driver string, factory Factory) error {
	return defaultRegistry.Register(driver, factory)
}

// Open открывает драйвер из реестра по умолчанию.
func Open(driver, connectionString string, cfg *Config) (UDAL, error) {
	return defaultRegistry.Open(driver, connectionString, cfg)
}

// Drivers возвращает имена драйверов из реестра по умолчанию.
func Drivers() []string {
	return defaultRegistry.Drivers()
}
