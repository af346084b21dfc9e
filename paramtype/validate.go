package paramtype

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-reflect"
)

// ErrMismatch оборачивается всеми ошибками несоответствия значения описанию.
var ErrMismatch = errors.New("значение не соответствует типу параметра")

// ValidationError описывает место и причину несоответствия.
type ValidationError struct {
	// Path — путь к значению в нотации $, $[2], $["key"].
	Path string
	// Expected — описание, которому значение не удовлетворяет.
	Expected string
	// Reason — краткое описание расхождения.
	Reason string
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: ожидался %s: %s", e.Path, e.Expected, e.Reason)
}

// Unwrap позволяет сопоставлять ошибку с ErrMismatch через errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrMismatch
}

// Validate проверяет, что значение value соответствует описанию t.
func Validate(t ParamType, value any) error {
	return validate(t, reflect.ValueOf(value), "$")
}

// Validate проверяет значение по набору альтернатив.
// Пустой набор не накладывает ограничений.
func (a Alternatives) Validate(value any) error {
	return a.validate(reflect.ValueOf(value), "$")
}

func (a Alternatives) validate(v reflect.Value, path string) error {
	switch len(a) {
	case 0:
		return nil
	case 1:
		return validate(a[0], v, path)
	}

	var errs []error
	for _, t := range a {
		err := validate(t, v, path)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrInvalidKind) {
			return err
		}
		errs = append(errs, err)
	}
	return &ValidationError{
		Path:     path,
		Expected: a.String(),
		Reason:   fmt.Sprintf("ни одна из альтернатив не подошла (%d)", len(errs)),
	}
}

// validate сопоставляет значение с описанием. Листовые виды терминальны,
// составные рекурсивно проверяют вложенные значения.
func validate(t ParamType, v reflect.Value, path string) error {
	v = indirect(v)

	switch t.kind {
	case KindNull:
		if isNull(v) {
			return nil
		}
		return mismatch(t, v, path)
	case KindStr:
		if v.IsValid() && v.Kind() == reflect.String {
			return nil
		}
		return mismatch(t, v, path)
	case KindNumber:
		if _, ok := number(v); ok {
			return nil
		}
		return mismatch(t, v, path)
	case KindBoolean:
		if v.IsValid() && v.Kind() == reflect.Bool {
			return nil
		}
		return mismatch(t, v, path)
	case KindLiteral:
		if v.IsValid() && literalEqual(t.literal, v.Interface()) {
			return nil
		}
		return mismatch(t, v, path)
	case KindList, KindTuple:
		if !v.IsValid() || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) {
			return mismatch(t, v, path)
		}
		for i := 0; i < v.Len(); i++ {
			if err := validate(*t.elem, v.Index(i), path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}
		return nil
	case KindDict:
		if !v.IsValid() || v.Kind() != reflect.Map {
			return mismatch(t, v, path)
		}
		for _, key := range v.MapKeys() {
			if key.Kind() != reflect.String {
				return &ValidationError{
					Path:     path,
					Expected: t.String(),
					Reason:   fmt.Sprintf("ключ %v не является строкой", key.Interface()),
				}
			}
			if err := validate(*t.elem, v.MapIndex(key), path+"["+strconv.Quote(key.String())+"]"); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%s: %w: %s", path, ErrInvalidKind, t.kind)
	}
}

// indirect снимает интерфейсы и ненулевые указатели.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr) {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

func isNull(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// number приводит числовое значение к float64.
func number(v reflect.Value) (float64, bool) {
	if !v.IsValid() {
		return 0, false
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

// literalEqual сравнивает константу литерала со значением. Числа сравниваются
// по величине независимо от конкретного целого или вещественного типа.
func literalEqual(lit, value any) bool {
	lv := indirect(reflect.ValueOf(lit))
	vv := indirect(reflect.ValueOf(value))
	if !lv.IsValid() || !vv.IsValid() {
		return !lv.IsValid() && !vv.IsValid()
	}
	if ln, ok := number(lv); ok {
		vn, ok := number(vv)
		return ok && ln == vn
	}
	if lv.Kind() == reflect.String {
		return vv.Kind() == reflect.String && lv.String() == vv.String()
	}
	return false
}

func mismatch(t ParamType, v reflect.Value, path string) error {
	return &ValidationError{
		Path:     path,
		Expected: t.String(),
		Reason:   "получено " + describe(v),
	}
}

// describe возвращает краткое описание фактического значения для сообщений об ошибках.
func describe(v reflect.Value) string {
	if isNull(v) {
		return "null"
	}
	kind := v.Kind().String()
	if v.Kind() == reflect.String {
		s := v.String()
		if len(s) > 32 {
			s = s[:32] + "..."
		}
		return kind + " " + strconv.Quote(s)
	}
	return kind
}
