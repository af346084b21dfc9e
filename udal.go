// Package udal определяет контракт единого слоя доступа к данным (Uniform Data
// Access Layer). Адаптеры источников данных реализуют интерфейс UDAL, чтобы
// вызывающий код мог выполнять именованные параметризованные запросы к
// разнородным источникам через одну и ту же форму: перечень запросов,
// их описание и единственная точка входа Execute.
//
// Пакет не содержит ни одного конкретного адаптера. Он предоставляет описания
// запросов и результатов, конфигурацию, реестр запросов Catalog, на котором
// удобно строить адаптеры, реестр драйверов и middleware для наблюдаемости.
package udal

import (
	"context"
	"sort"
)

// Args — аргументы вызова именованного запроса.
type Args map[string]any

// UDAL — интерфейс единого слоя доступа к данным.
type UDAL interface {
	// Queries возвращает описания всех поддерживаемых запросов по их именам.
	// Каждое описание хранится под своим собственным именем.
	Queries() map[string]*NamedQueryInfo

	// Execute выполняет запрос name с аргументами args.
	// Для имени, отсутствующего в Queries, возвращается ошибка, оборачивающая
	// ErrUnknownQuery; результат nil с ошибкой nil не допускается.
	Execute(ctx context.Context, name string, args Args) (Result, error)
}

// Factory создает реализацию по строке подключения и конфигурации.
// Смысл строки подключения (URL, путь к файлу, идентификатор) определяет реализация.
type Factory func(connectionString string, cfg *Config) (UDAL, error)

// QueryNames возвращает отсортированные имена запросов, поддерживаемых u.
// Имена выводятся из Queries, поэтому оба представления всегда согласованы.
func QueryNames(u UDAL) []string {
	queries := u.Queries()
	names := make([]string, 0, len(queries))
	for name := range queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasQuery сообщает, поддерживает ли u запрос с именем name.
func HasQuery(u UDAL, name string) bool {
	_, ok := u.Queries()[name]
	return ok
}
