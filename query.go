package udal

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/x-research-team/udal/paramtype"
)

// Params сопоставляет имя параметра с набором допустимых описаний его типа.
type Params map[string]paramtype.Alternatives

// Clone возвращает глубокую копию параметров. Для nil возвращается пустая карта.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for name, alts := range p {
		out[name] = alts.Clone()
	}
	return out
}

// Names возвращает отсортированные имена параметров.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NamedQueryInfo описывает именованный запрос: его имя и принимаемые параметры.
// Значение неизменяемо после создания и разделяется между результатами.
type NamedQueryInfo struct {
	name   string
	params Params
}

// NewNamedQueryInfo создает описание запроса. Параметры копируются, поэтому
// последующие изменения карты вызывающей стороной не влияют на описание.
func NewNamedQueryInfo(name string, params Params) (*NamedQueryInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("описание запроса: %w", ErrEmptyName)
	}
	return &NamedQueryInfo{
		name:   name,
		params: params.Clone(),
	}, nil
}

// MustNamedQueryInfo работает как NewNamedQueryInfo, но паникует при ошибке.
// Предназначен для статических каталогов, объявляемых на уровне пакета.
func MustNamedQueryInfo(name string, params Params) *NamedQueryInfo {
	info, err := NewNamedQueryInfo(name, params)
	if err != nil {
		panic(err)
	}
	return info
}

// Name возвращает имя запроса.
func (q *NamedQueryInfo) Name() string {
	return q.name
}

// Params возвращает копию параметров запроса.
func (q *NamedQueryInfo) Params() Params {
	return q.params.Clone()
}

// Param возвращает допустимые типы параметра с указанным именем.
func (q *NamedQueryInfo) Param(name string) (paramtype.Alternatives, bool) {
	alts, ok := q.params[name]
	if !ok {
		return nil, false
	}
	return alts.Clone(), true
}

// AsMap возвращает представление {"name": ..., "params": {...}}, пригодное для сериализации.
func (q *NamedQueryInfo) AsMap() map[string]any {
	params := make(map[string]any, len(q.params))
	for name, alts := range q.params {
		params[name] = alts.Clone()
	}
	return map[string]any{
		"name":   q.name,
		"params": params,
	}
}

// InputSchema возвращает JSON Schema для карты аргументов запроса.
// Необъявленные аргументы схемой запрещены; обязательны параметры,
// не допускающие null, как и в ValidateArgs.
func (q *NamedQueryInfo) InputSchema() map[string]any {
	props := make(map[string]any, len(q.params))
	var required []string
	for _, name := range q.params.Names() {
		alts := q.params[name]
		props[name] = alts.Schema()
		if alts.Validate(nil) != nil {
			required = append(required, name)
		}
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ValidateArgs проверяет аргументы по объявленным параметрам. Необъявленные
// аргументы отклоняются, отсутствующий объявленный аргумент считается null.
func (q *NamedQueryInfo) ValidateArgs(args Args) error {
	for _, name := range sortedKeys(args) {
		if _, ok := q.params[name]; !ok {
			return fmt.Errorf("%w: запрос '%s' не принимает параметр '%s'", ErrInvalidParams, q.name, name)
		}
	}
	for _, name := range q.params.Names() {
		if err := q.params[name].Validate(args[name]); err != nil {
			return fmt.Errorf("%w: запрос '%s', параметр '%s': %w", ErrInvalidParams, q.name, name, err)
		}
	}
	return nil
}

// String возвращает запись вида name(a: str, b: list[number]).
func (q *NamedQueryInfo) String() string {
	s := q.name + "("
	for i, name := range q.params.Names() {
		if i > 0 {
			s += ", "
		}
		s += name + ": " + q.params[name].String()
	}
	return s + ")"
}

type namedQueryInfoJSON struct {
	Name   string `json:"name"`
	Params Params `json:"params"`
}

// MarshalJSON кодирует описание в форме AsMap.
func (q *NamedQueryInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(namedQueryInfoJSON{Name: q.name, Params: q.params})
}

// UnmarshalJSON восстанавливает описание, например из каталога удаленного источника.
func (q *NamedQueryInfo) UnmarshalJSON(data []byte) error {
	var raw namedQueryInfoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	info, err := NewNamedQueryInfo(raw.Name, raw.Params)
	if err != nil {
		return err
	}
	*q = *info
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
