package udal

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ParamValidator проверяет аргументы вызова по описанию запроса.
type ParamValidator interface {
	ValidateArgs(info *NamedQueryInfo, args Args) error
}

// ParamValidatorFunc позволяет использовать функцию как ParamValidator.
type ParamValidatorFunc func(info *NamedQueryInfo, args Args) error

// ValidateArgs реализует ParamValidator.
func (f ParamValidatorFunc) ValidateArgs(info *NamedQueryInfo, args Args) error {
	return f(info, args)
}

// ReflectValidator проверяет аргументы рефлексией по грамматике типов.
// Подходит для аргументов в виде произвольных значений Go: []int,
// map[string]string, указателей и т.п.
type ReflectValidator struct{}

// ValidateArgs реализует ParamValidator.
func (ReflectValidator) ValidateArgs(info *NamedQueryInfo, args Args) error {
	return info.ValidateArgs(args)
}

// SchemaValidator проверяет аргументы по JSON Schema, полученной из InputSchema.
// Рассчитан на аргументы в JSON-форме: map[string]any, []any, float64, string, bool.
type SchemaValidator struct{}

// ValidateArgs реализует ParamValidator.
func (SchemaValidator) ValidateArgs(info *NamedQueryInfo, args Args) error {
	schemaLoader := gojsonschema.NewGoLoader(info.InputSchema())
	argsLoader := gojsonschema.NewGoLoader(map[string]any(args))

	result, err := gojsonschema.Validate(schemaLoader, argsLoader)
	if err != nil {
		return fmt.Errorf("%w: запрос '%s': ошибка проверки схемы: %w", ErrInvalidParams, info.Name(), err)
	}

	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, e := range result.Errors() {
			msgs[i] = e.String()
		}
		return fmt.Errorf("%w: запрос '%s': %s", ErrInvalidParams, info.Name(), strings.Join(msgs, "; "))
	}

	return nil
}
