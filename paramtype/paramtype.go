// Package paramtype описывает грамматику типов параметров именованных запросов.
// Описание типа — это рекурсивное размеченное значение: четыре скалярных листа
// (null, str, number, boolean), литерал с фиксированным значением, а также
// составные list, tuple и dict, оборачивающие вложенное описание.
package paramtype

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKind возвращается при работе с нулевым или неизвестным описанием типа.
var ErrInvalidKind = errors.New("неизвестный вид типа параметра")

// Kind — тег варианта описания типа.
type Kind uint8

const (
	kindInvalid Kind = iota
	// KindNull — отсутствие значения.
	KindNull
	// KindStr — строка.
	KindStr
	// KindNumber — любое целое или вещественное число.
	KindNumber
	// KindBoolean — логическое значение.
	KindBoolean
	// KindLiteral — фиксированная константа.
	KindLiteral
	// KindList — однородная последовательность.
	KindList
	// KindTuple — группа фиксированной формы, на этом уровне описывается как list.
	KindTuple
	// KindDict — отображение со строковыми ключами.
	KindDict
)

var kindNames = [...]string{
	kindInvalid: "invalid",
	KindNull:    "null",
	KindStr:     "str",
	KindNumber:  "number",
	KindBoolean: "boolean",
	KindLiteral: "literal",
	KindList:    "list",
	KindTuple:   "tuple",
	KindDict:    "dict",
}

// String возвращает тег, под которым вид передается в JSON-представлении.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsLeaf сообщает, является ли вид скалярным листом.
func (k Kind) IsLeaf() bool {
	return k >= KindNull && k <= KindBoolean
}

// IsCompound сообщает, оборачивает ли вид вложенное описание.
func (k Kind) IsCompound() bool {
	return k == KindList || k == KindTuple || k == KindDict
}

func (k Kind) valid() bool {
	return k > kindInvalid && k <= KindDict
}

// parseKind разбирает тег вида.
func parseKind(tag string) (Kind, bool) {
	for k := KindNull; k <= KindDict; k++ {
		if kindNames[k] == tag {
			return k, true
		}
	}
	return kindInvalid, false
}

// LiteralValue перечисляет типы, допустимые для значения литерала.
type LiteralValue interface {
	~string | ~int | ~int64 | ~float64
}

// ParamType — неизменяемое описание формы параметра.
// Нулевое значение невалидно; описания создаются листами пакета и
// конструкторами Literal, List, Tuple и Dict.
type ParamType struct {
	kind    Kind
	literal any
	elem    *ParamType
}

// Листовые описания.
var (
	Null    = ParamType{kind: KindNull}
	Str     = ParamType{kind: KindStr}
	Number  = ParamType{kind: KindNumber}
	Boolean = ParamType{kind: KindBoolean}
)

// Literal создает описание литерала, хранящее v без изменений.
func Literal[V LiteralValue](v V) ParamType {
	return ParamType{kind: KindLiteral, literal: v}
}

// List оборачивает описание элемента в однородный список.
func List(elem ParamType) ParamType {
	return wrap(KindList, elem)
}

// Tuple оборачивает описание элемента в кортеж.
func Tuple(elem ParamType) ParamType {
	return wrap(KindTuple, elem)
}

// Dict создает описание отображения со строковыми ключами и значениями вида value.
func Dict(value ParamType) ParamType {
	return wrap(KindDict, value)
}

func wrap(kind Kind, elem ParamType) ParamType {
	e := elem
	return ParamType{kind: kind, elem: &e}
}

// Kind возвращает тег варианта.
func (t ParamType) Kind() Kind {
	return t.kind
}

// IsLeaf сообщает, является ли описание скалярным листом.
func (t ParamType) IsLeaf() bool {
	return t.kind.IsLeaf()
}

// LiteralValue возвращает значение литерала. Второй результат ложен для
// всех остальных вариантов.
func (t ParamType) LiteralValue() (any, bool) {
	if t.kind != KindLiteral {
		return nil, false
	}
	return t.literal, true
}

// Elem возвращает вложенное описание для list, tuple и dict.
func (t ParamType) Elem() (ParamType, bool) {
	if !t.kind.IsCompound() || t.elem == nil {
		return ParamType{}, false
	}
	return *t.elem, true
}

// KeyKind возвращает вид ключей словаря. Для dict это всегда KindStr.
func (t ParamType) KeyKind() (Kind, bool) {
	if t.kind != KindDict {
		return kindInvalid, false
	}
	return KindStr, true
}

// Equal сравнивает описания структурно.
func (t ParamType) Equal(other ParamType) bool {
	if t.kind != other.kind {
		return false
	}
	switch t.kind {
	case KindLiteral:
		return literalEqual(t.literal, other.literal)
	case KindList, KindTuple, KindDict:
		a, _ := t.Elem()
		b, _ := other.Elem()
		return a.Equal(b)
	default:
		return true
	}
}

// String возвращает читаемую запись описания, например dict[str, list[number]].
func (t ParamType) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t ParamType) write(b *strings.Builder) {
	switch t.kind {
	case KindNull, KindStr, KindNumber, KindBoolean:
		b.WriteString(t.kind.String())
	case KindLiteral:
		if s, ok := t.literal.(string); ok {
			fmt.Fprintf(b, "literal[%q]", s)
		} else {
			fmt.Fprintf(b, "literal[%v]", t.literal)
		}
	case KindList, KindTuple:
		b.WriteString(t.kind.String())
		b.WriteByte('[')
		t.elem.write(b)
		b.WriteByte(']')
	case KindDict:
		b.WriteString("dict[str, ")
		t.elem.write(b)
		b.WriteByte(']')
	default:
		b.WriteString(kindInvalid.String())
	}
}

// Alternatives — набор допустимых описаний одного параметра.
// Значение подходит, если оно соответствует хотя бы одному из них.
type Alternatives []ParamType

// OneOf собирает набор альтернатив, копируя аргументы.
func OneOf(types ...ParamType) Alternatives {
	out := make(Alternatives, len(types))
	copy(out, types)
	return out
}

// Clone возвращает независимую копию набора.
func (a Alternatives) Clone() Alternatives {
	if a == nil {
		return nil
	}
	return OneOf(a...)
}

// Equal сравнивает наборы поэлементно с учетом порядка.
func (a Alternatives) Equal(other Alternatives) bool {
	if len(a) != len(other) {
		return false
	}
	for i := range a {
		if !a[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// String возвращает запись вида str | null.
func (a Alternatives) String() string {
	parts := make([]string, len(a))
	for i, t := range a {
		parts[i] = t.String()
	}
	return strings.Join(parts, " | ")
}
