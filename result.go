package udal

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/goccy/go-reflect"
)

// Metadata — произвольные метаданные результата со строковыми ключами.
type Metadata map[string]any

// Clone возвращает поверхностную копию метаданных. Для nil возвращается пустая карта.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Result — результат выполнения одного именованного запроса.
// Реализации неизменяемы после создания.
type Result interface {
	// Query возвращает описание запроса, породившего результат.
	Query() *NamedQueryInfo

	// Metadata возвращает копию метаданных результата.
	Metadata() Metadata

	// Data возвращает копию данных в том виде, в котором они хранятся в
	// результате. Изменение копии не влияет на результат.
	Data() any

	// Decode приводит данные к типу, на который указывает target.
	// target должен быть ненулевым указателем.
	Decode(target any) error
}

// DataAs возвращает данные результата, приведенные к типу T.
func DataAs[T any](r Result) (T, error) {
	var out T
	if err := r.Decode(&out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// baseResult хранит общие для всех результатов поля.
type baseResult struct {
	query    *NamedQueryInfo
	metadata Metadata
}

func (r *baseResult) Query() *NamedQueryInfo {
	return r.query
}

func (r *baseResult) Metadata() Metadata {
	return r.metadata.Clone()
}

// ValueResult хранит данные как произвольное значение Go.
type ValueResult struct {
	baseResult
	data any
}

// NewValueResult создает результат со значением data. Данные и метаданные
// копируются: карты, срезы, массивы, указатели и экспортируемые поля структур
// копируются глубоко, функции и каналы разделяются.
func NewValueResult(query *NamedQueryInfo, data any, metadata Metadata) *ValueResult {
	return &ValueResult{
		baseResult: baseResult{query: query, metadata: metadata.Clone()},
		data:       copyData(data),
	}
}

// Data возвращает копию хранимого значения того же типа.
func (r *ValueResult) Data() any {
	return copyData(r.data)
}

// Decode присваивает копию значения, если типы совместимы, преобразует
// числовые типы между собой без потери точности, а в остальных случаях
// выполняет преобразование через JSON. Поэтому 3.7 в int, -1 в uint и
// 300 в int8 дают ErrDataType, как и у JSONResult.
func (r *ValueResult) Decode(target any) error {
	dst, err := decodeTarget(target)
	if err != nil {
		return err
	}

	src := reflect.ValueOf(r.data)
	if src.IsValid() {
		if src.Type().AssignableTo(dst.Type()) {
			dst.Set(deepCopy(src, make(map[visit]reflect.Value)))
			return nil
		}
		if isNumeric(src.Kind()) && isNumeric(dst.Kind()) {
			if out, ok := convertExact(src, dst.Type()); ok {
				dst.Set(out)
				return nil
			}
		}
	}

	raw, err := json.Marshal(r.data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDataType, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %w", ErrDataType, err)
	}
	return nil
}

// JSONResult хранит данные в виде сырого JSON, как их обычно возвращают удаленные API.
type JSONResult struct {
	baseResult
	raw json.RawMessage
}

// NewJSONResult создает результат с JSON-данными. Некорректный JSON отклоняется.
func NewJSONResult(query *NamedQueryInfo, raw []byte, metadata Metadata) (*JSONResult, error) {
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: данные не являются корректным JSON", ErrDataType)
	}
	return &JSONResult{
		baseResult: baseResult{query: query, metadata: metadata.Clone()},
		raw:        bytes.Clone(raw),
	}, nil
}

// Data возвращает копию сырого JSON.
func (r *JSONResult) Data() any {
	return json.RawMessage(bytes.Clone(r.raw))
}

// Decode декодирует JSON в target.
func (r *JSONResult) Decode(target any) error {
	if _, err := decodeTarget(target); err != nil {
		return err
	}
	if err := json.Unmarshal(r.raw, target); err != nil {
		return fmt.Errorf("%w: %w", ErrDataType, err)
	}
	return nil
}

// WithMetadata возвращает представление результата r с метаданными,
// дополненными extra. Сам r не изменяется.
func WithMetadata(r Result, extra Metadata) Result {
	if len(extra) == 0 {
		return r
	}
	merged := r.Metadata()
	for k, v := range extra {
		merged[k] = v
	}
	return &metadataResult{Result: r, metadata: merged}
}

type metadataResult struct {
	Result
	metadata Metadata
}

func (r *metadataResult) Metadata() Metadata {
	return r.metadata.Clone()
}

func decodeTarget(target any) (reflect.Value, error) {
	v := reflect.ValueOf(target)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: ожидался ненулевой указатель, получен %T", ErrDataType, target)
	}
	return v.Elem(), nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// convertExact преобразует число к типу t, только если значение
// представимо в t точно: без потери дробной части, переполнения и смены знака.
func convertExact(src reflect.Value, t reflect.Type) (reflect.Value, bool) {
	out := src.Convert(t)
	if sign(src) != sign(out) {
		return reflect.Value{}, false
	}
	if out.Convert(src.Type()).Interface() != src.Interface() {
		return reflect.Value{}, false
	}
	return out, true
}

func sign(v reflect.Value) int {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch n := v.Int(); {
		case n < 0:
			return -1
		case n > 0:
			return 1
		}
	case reflect.Float32, reflect.Float64:
		switch f := v.Float(); {
		case f < 0:
			return -1
		case f > 0:
			return 1
		}
	default:
		if v.Uint() > 0 {
			return 1
		}
	}
	return 0
}

// visit идентифицирует уже скопированную карту или указатель,
// чтобы циклические данные копировались без бесконечной рекурсии.
type visit struct {
	ptr uintptr
	typ reflect.Type
}

func copyData(data any) any {
	if data == nil {
		return nil
	}
	return deepCopy(reflect.ValueOf(data), make(map[visit]reflect.Value)).Interface()
}

// deepCopy возвращает копию v того же типа. Неэкспортируемые поля структур
// копируются поверхностно.
func deepCopy(v reflect.Value, seen map[visit]reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if out, ok := seen[key]; ok {
			return out
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		seen[key] = out
		for _, k := range v.MapKeys() {
			out.SetMapIndex(deepCopy(k, seen), deepCopy(v.MapIndex(k), seen))
		}
		return out
	case reflect.Ptr:
		if v.IsNil() {
			return v
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if out, ok := seen[key]; ok {
			return out
		}
		out := reflect.New(v.Type().Elem())
		seen[key] = out
		out.Elem().Set(deepCopy(v.Elem(), seen))
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i), seen))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i), seen))
		}
		return out
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(deepCopy(v.Elem(), seen))
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if f := out.Field(i); f.CanSet() {
				f.Set(deepCopy(v.Field(i), seen))
			}
		}
		return out
	default:
		return v
	}
}
