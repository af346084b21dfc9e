package udal_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x-research-team/udal"
)

type station struct {
	ID   string  `json:"id"`
	Temp float64 `json:"temp"`
}

// Тест доступа к данным результата в исходном виде и с приведением типа.
func TestValueResult_Data(t *testing.T) {
	t.Parallel()

	info := udal.MustNamedQueryInfo("stations", nil)
	data := []station{{ID: "a", Temp: 1.5}}
	r := udal.NewValueResult(info, data, udal.Metadata{"source": "test"})

	assert.Same(t, info, r.Query(), "результат должен разделять описание запроса")
	assert.Equal(t, data, r.Data())
	assert.Equal(t, "test", r.Metadata()["source"])

	got, err := udal.DataAs[[]station](r)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	generic, err := udal.DataAs[[]map[string]any](r)
	require.NoError(t, err, "несовместимые типы должны приводиться через JSON")
	assert.Equal(t, []map[string]any{{"id": "a", "temp": 1.5}}, generic)

	_, err = udal.DataAs[string](r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, udal.ErrDataType))
}

// Тест приведения числовых данных.
func TestValueResult_NumericConversion(t *testing.T) {
	t.Parallel()

	r := udal.NewValueResult(udal.MustNamedQueryInfo("count", nil), 42, nil)

	f, err := udal.DataAs[float64](r)
	require.NoError(t, err)
	assert.Equal(t, 42.0, f)

	i, err := udal.DataAs[int64](r)
	require.NoError(t, err)
	assert.Equal(t, int64(42), i)

	v, err := udal.DataAs[any](r)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	small, err := udal.DataAs[int8](r)
	require.NoError(t, err)
	assert.Equal(t, int8(42), small)

	whole, err := udal.DataAs[int](udal.NewValueResult(r.Query(), 3.0, nil))
	require.NoError(t, err)
	assert.Equal(t, 3, whole)
}

// Тест отказа от преобразований с потерей значения.
func TestValueResult_NumericConversion_Lossy(t *testing.T) {
	t.Parallel()

	info := udal.MustNamedQueryInfo("count", nil)

	tests := []struct {
		name   string
		data   any
		decode func(udal.Result) error
	}{
		{name: "дробная часть", data: 3.7, decode: func(r udal.Result) error { _, err := udal.DataAs[int](r); return err }},
		{name: "отрицательное в беззнаковое", data: -1, decode: func(r udal.Result) error { _, err := udal.DataAs[uint](r); return err }},
		{name: "переполнение int8", data: 300, decode: func(r udal.Result) error { _, err := udal.DataAs[int8](r); return err }},
		{name: "переполнение uint8", data: uint64(256), decode: func(r udal.Result) error { _, err := udal.DataAs[uint8](r); return err }},
		{name: "большое беззнаковое в int64", data: uint64(1 << 63), decode: func(r udal.Result) error { _, err := udal.DataAs[int64](r); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.decode(udal.NewValueResult(info, tt.data, nil))
			require.Error(t, err)
			assert.True(t, errors.Is(err, udal.ErrDataType))
		})
	}

	jsonResult, err := udal.NewJSONResult(info, []byte(`3.7`), nil)
	require.NoError(t, err)
	_, err = udal.DataAs[int](jsonResult)
	assert.True(t, errors.Is(err, udal.ErrDataType), "JSON-результат должен отвергать то же преобразование")
}

// Тест того, что данные результата нельзя изменить через Data, Decode или исходное значение.
func TestValueResult_DataIsolation(t *testing.T) {
	t.Parallel()

	info := udal.MustNamedQueryInfo("stations", nil)
	source := map[string]any{"k": "v", "list": []any{1, 2}}
	r := udal.NewValueResult(info, source, nil)

	source["k"] = "changed"
	assert.Equal(t, "v", r.Data().(map[string]any)["k"], "изменение исходного значения не должно влиять на результат")

	decoded, err := udal.DataAs[map[string]any](r)
	require.NoError(t, err)
	decoded["k"] = "mutated"
	decoded["list"].([]any)[0] = 100

	data := r.Data().(map[string]any)
	data["extra"] = true

	assert.Equal(t, map[string]any{"k": "v", "list": []any{1, 2}}, r.Data())

	type node struct {
		Next *node
		Tags []string
	}
	loop := &node{Tags: []string{"a"}}
	loop.Next = loop
	cyclic := udal.NewValueResult(info, loop, nil)
	got, err := udal.DataAs[*node](cyclic)
	require.NoError(t, err)
	assert.Same(t, got, got.Next, "цикл должен сохраняться в копии")
	got.Tags[0] = "b"
	assert.Equal(t, "a", loop.Tags[0])
}

// Тест требований к приемнику Decode.
func TestValueResult_DecodeTarget(t *testing.T) {
	t.Parallel()

	r := udal.NewValueResult(udal.MustNamedQueryInfo("x", nil), "v", nil)

	var s string
	assert.Error(t, r.Decode(s), "приемник не указатель")
	assert.Error(t, r.Decode(nil), "приемник nil")
	var nilPtr *string
	assert.Error(t, r.Decode(nilPtr), "нулевой указатель")
	require.NoError(t, r.Decode(&s))
	assert.Equal(t, "v", s)
}

// Тест неизменяемости метаданных результата.
func TestResult_MetadataIsolation(t *testing.T) {
	t.Parallel()

	md := udal.Metadata{"k": "v"}
	r := udal.NewValueResult(udal.MustNamedQueryInfo("x", nil), nil, md)

	md["k"] = "changed"
	assert.Equal(t, "v", r.Metadata()["k"], "изменение исходной карты не должно влиять на результат")

	got := r.Metadata()
	got["k"] = "changed"
	assert.Equal(t, "v", r.Metadata()["k"], "изменение копии не должно влиять на результат")

	assert.NotNil(t, udal.NewValueResult(udal.MustNamedQueryInfo("y", nil), nil, nil).Metadata())
}

// Тест результата с JSON-данными.
func TestJSONResult(t *testing.T) {
	t.Parallel()

	info := udal.MustNamedQueryInfo("stations", nil)
	raw := []byte(`[{"id":"a","temp":1.5}]`)
	r, err := udal.NewJSONResult(info, raw, nil)
	require.NoError(t, err)

	raw[0] = '{'
	assert.JSONEq(t, `[{"id":"a","temp":1.5}]`, string(r.Data().(json.RawMessage)), "данные должны копироваться")

	got, err := udal.DataAs[[]station](r)
	require.NoError(t, err)
	assert.Equal(t, []station{{ID: "a", Temp: 1.5}}, got)

	_, err = udal.DataAs[map[string]any](r)
	assert.True(t, errors.Is(err, udal.ErrDataType))

	_, err = udal.NewJSONResult(info, []byte(`{`), nil)
	assert.True(t, errors.Is(err, udal.ErrDataType))
}

// Тест дополнения метаданных без изменения исходного результата.
func TestWithMetadata(t *testing.T) {
	t.Parallel()

	r := udal.NewValueResult(udal.MustNamedQueryInfo("x", nil), 1, udal.Metadata{"a": 1})
	wrapped := udal.WithMetadata(r, udal.Metadata{"b": 2, "a": 3})

	assert.Equal(t, udal.Metadata{"a": 3, "b": 2}, wrapped.Metadata())
	assert.Equal(t, udal.Metadata{"a": 1}, r.Metadata())
	assert.Equal(t, 1, wrapped.Data())
	assert.Same(t, r.Query(), wrapped.Query())

	assert.Same(t, r, udal.WithMetadata(r, nil), "пустое дополнение возвращает исходный результат")
}
