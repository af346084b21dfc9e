package udaltest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x-research-team/udal"
)

// missingQueryName — имя, которое не должна поддерживать ни одна реализация.
const missingQueryName = "udaltest.missing-query"

// Conformance проверяет, что реализация соблюдает контракт UDAL:
// имена запросов и реестр описаний согласованы, описания хранятся под
// своими именами, а выполнение неизвестного запроса завершается ошибкой.
func Conformance(t testing.TB, u udal.UDAL) {
	t.Helper()

	queries := u.Queries()
	names := udal.QueryNames(u)

	require.Len(t, names, len(queries), "число имен должно совпадать с размером реестра")

	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		_, dup := seen[name]
		assert.False(t, dup, "имя '%s' повторяется", name)
		seen[name] = struct{}{}

		info, ok := queries[name]
		if assert.True(t, ok, "имя '%s' отсутствует в реестре", name) {
			require.NotNil(t, info, "описание запроса '%s' не должно быть nil", name)
			assert.Equal(t, name, info.Name(), "описание должно храниться под своим именем")
		}
	}
	for name := range queries {
		assert.Contains(t, seen, name, "запрос '%s' отсутствует среди имен", name)
	}

	require.NotContains(t, queries, missingQueryName)
	result, err := u.Execute(context.Background(), missingQueryName, udal.Args{})
	require.Error(t, err, "выполнение неизвестного запроса должно завершаться ошибкой")
	assert.ErrorIs(t, err, udal.ErrUnknownQuery)
	assert.Nil(t, result, "при ошибке результат должен быть nil")
}
