package paramtype

// Schema возвращает фрагмент JSON Schema, описывающий значения типа t.
// Результат — обычные map и slice, пригодные для json.Marshal и
// загрузчиков схем.
func Schema(t ParamType) map[string]any {
	switch t.kind {
	case KindNull:
		return map[string]any{"type": "null"}
	case KindStr:
		return map[string]any{"type": "string"}
	case KindNumber:
		return map[string]any{"type": "number"}
	case KindBoolean:
		return map[string]any{"type": "boolean"}
	case KindLiteral:
		return map[string]any{"const": t.literal}
	case KindList, KindTuple:
		return map[string]any{
			"type":  "array",
			"items": Schema(*t.elem),
		}
	case KindDict:
		return map[string]any{
			"type":                 "object",
			"additionalProperties": Schema(*t.elem),
		}
	default:
		// Нулевое описание не пропускает ни одного значения.
		return map[string]any{"not": map[string]any{}}
	}
}

// Schema возвращает фрагмент JSON Schema для набора альтернатив.
// Пустой набор допускает любое значение.
func (a Alternatives) Schema() map[string]any {
	switch len(a) {
	case 0:
		return map[string]any{}
	case 1:
		return Schema(a[0])
	}
	anyOf := make([]any, len(a))
	for i, t := range a {
		anyOf[i] = Schema(t)
	}
	return map[string]any{"anyOf": anyOf}
}
