package paramtype

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON кодирует описание в компактную кортежную форму:
// листья — строкой-тегом, составные виды — массивом
// ["literal", v], ["list", t], ["tuple", t], ["dict", "str", t].
func (t ParamType) MarshalJSON() ([]byte, error) {
	switch t.kind {
	case KindNull, KindStr, KindNumber, KindBoolean:
		return json.Marshal(t.kind.String())
	case KindLiteral:
		return json.Marshal([]any{t.kind.String(), t.literal})
	case KindList, KindTuple:
		return json.Marshal([]any{t.kind.String(), *t.elem})
	case KindDict:
		return json.Marshal([]any{t.kind.String(), KindStr.String(), *t.elem})
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidKind, t.kind)
	}
}

// UnmarshalJSON разбирает кортежную форму, созданную MarshalJSON.
func (t *ParamType) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: пустое описание", ErrInvalidKind)
	}

	if data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return err
		}
		kind, ok := parseKind(tag)
		if !ok || !kind.IsLeaf() {
			return fmt.Errorf("%w: '%s' не является листовым видом", ErrInvalidKind, tag)
		}
		*t = ParamType{kind: kind}
		return nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("описание типа должно быть строкой или массивом: %w", err)
	}
	if len(parts) == 0 {
		return fmt.Errorf("%w: пустой массив", ErrInvalidKind)
	}

	var tag string
	if err := json.Unmarshal(parts[0], &tag); err != nil {
		return fmt.Errorf("%w: тег должен быть строкой", ErrInvalidKind)
	}
	kind, ok := parseKind(tag)
	if !ok || !kind.valid() || kind.IsLeaf() {
		return fmt.Errorf("%w: '%s' не является составным видом", ErrInvalidKind, tag)
	}

	switch kind {
	case KindLiteral:
		if len(parts) != 2 {
			return fmt.Errorf("literal ожидает 1 значение, получено %d", len(parts)-1)
		}
		v, err := decodeLiteral(parts[1])
		if err != nil {
			return err
		}
		*t = ParamType{kind: KindLiteral, literal: v}
	case KindList, KindTuple:
		if len(parts) != 2 {
			return fmt.Errorf("%s ожидает 1 вложенный тип, получено %d", kind, len(parts)-1)
		}
		var elem ParamType
		if err := json.Unmarshal(parts[1], &elem); err != nil {
			return err
		}
		*t = wrap(kind, elem)
	case KindDict:
		if len(parts) != 3 {
			return fmt.Errorf("dict ожидает ключ и вложенный тип, получено %d элементов", len(parts)-1)
		}
		var key string
		if err := json.Unmarshal(parts[1], &key); err != nil || key != KindStr.String() {
			return fmt.Errorf("%w: ключи dict должны иметь вид str", ErrInvalidKind)
		}
		var elem ParamType
		if err := json.Unmarshal(parts[2], &elem); err != nil {
			return err
		}
		*t = wrap(KindDict, elem)
	}
	return nil
}

// decodeLiteral восстанавливает значение литерала: строку, int64 для целых
// чисел и float64 для остальных.
func decodeLiteral(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		return x.Float64()
	default:
		return nil, fmt.Errorf("значение литерала должно быть строкой или числом, получено %T", v)
	}
}

// MarshalJSON кодирует набор из одного элемента как сам элемент,
// иначе как массив описаний (пустой набор — как []).
func (a Alternatives) MarshalJSON() ([]byte, error) {
	switch len(a) {
	case 0:
		return []byte("[]"), nil
	case 1:
		return a[0].MarshalJSON()
	}
	return json.Marshal([]ParamType(a))
}

// UnmarshalJSON различает одиночное описание и массив альтернатив по первому
// элементу: строка с тегом составного вида означает одиночное описание.
func (a *Alternatives) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' && !isCompoundTuple(data) {
		var types []ParamType
		if err := json.Unmarshal(data, &types); err != nil {
			return err
		}
		*a = types
		return nil
	}

	var t ParamType
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	*a = Alternatives{t}
	return nil
}

func isCompoundTuple(data []byte) bool {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil || len(parts) == 0 {
		return false
	}
	var tag string
	if err := json.Unmarshal(parts[0], &tag); err != nil {
		return false
	}
	kind, ok := parseKind(tag)
	return ok && (kind == KindLiteral || kind.IsCompound())
}
