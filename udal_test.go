package udal_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x-research-team/udal"
	"github.com/x-research-team/udal/paramtype"
	"github.com/x-research-team/udal/udaltest"
)

// Тест минимальной реализации: один запрос без параметров.
func TestUDAL_SingleQuery(t *testing.T) {
	t.Parallel()

	var u udal.UDAL = udaltest.NewFake("", nil, udaltest.Query{
		Info:    udal.MustNamedQueryInfo("ping", nil),
		Handler: pingHandler,
	})

	assert.Equal(t, []string{"ping"}, udal.QueryNames(u))
	assert.True(t, udal.HasQuery(u, "ping"))
	assert.False(t, udal.HasQuery(u, "pong"))

	result, err := u.Execute(context.Background(), "ping", udal.Args{})
	require.NoError(t, err)
	assert.Equal(t, "ping", result.Query().Name())
	assert.Same(t, u.Queries()["ping"], result.Query(), "результат должен ссылаться на описание из реестра")

	_, err = u.Execute(context.Background(), "missing", udal.Args{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, udal.ErrUnknownQuery))

	udaltest.Conformance(t, u)
}

// Тест того, что каждое описание хранится под своим именем.
func TestUDAL_QueriesKeyedByName(t *testing.T) {
	t.Parallel()

	u := udaltest.NewFake("", nil,
		udaltest.Query{Info: udal.MustNamedQueryInfo("stations", udal.Params{
			"country": paramtype.OneOf(paramtype.Str),
		})},
		udaltest.Query{Info: udal.MustNamedQueryInfo("observations", udal.Params{
			"station": paramtype.OneOf(paramtype.Str),
			"period":  paramtype.OneOf(paramtype.Literal("day"), paramtype.Literal("month")),
		})},
	)

	for name, info := range u.Queries() {
		assert.Equal(t, name, info.Name())
	}
	assert.Equal(t, []string{"observations", "stations"}, udal.QueryNames(u))
}

// Тест неизменности результата при изменении аргументов после вызова.
func TestUDAL_ArgsNotRetained(t *testing.T) {
	t.Parallel()

	u := udaltest.NewFake("", nil, udaltest.Query{Info: udal.MustNamedQueryInfo("echo", nil)})

	args := udal.Args{"term": "go"}
	result, err := u.Execute(context.Background(), "echo", args)
	require.NoError(t, err)
	args["term"] = "rust"

	data, err := udal.DataAs[map[string]any](result)
	require.NoError(t, err)
	assert.Equal(t, "go", data["term"])
	assert.Equal(t, "go", u.Calls()[0].Args["term"])
}
