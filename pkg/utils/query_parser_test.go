package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilterFromQuery_Pagination(t *testing.T) {
	q, err := url.ParseQuery("limit=25&offset=50")
	require.NoError(t, err)

	filter := ParseFilterFromQuery(q)
	assert.Equal(t, 25, filter.Limit)
	assert.Equal(t, 50, filter.Offset)
	assert.Equal(t, 3, filter.Page)
}

func TestParseFilterFromQuery_Defaults(t *testing.T) {
	filter := ParseFilterFromQuery(url.Values{})
	assert.Equal(t, DefaultLimit, filter.Limit)
	assert.Equal(t, 0, filter.Offset)
	assert.Equal(t, 1, filter.Page)
}

// Отрицательные значения не проходят: limit/offset остаются
// неотрицательными и их можно безопасно приводить к uint64.
func TestParseFilterFromQuery_RejectsNegative(t *testing.T) {
	q, err := url.ParseQuery("limit=-5&offset=-10&page=-2")
	require.NoError(t, err)

	filter := ParseFilterFromQuery(q)
	assert.Equal(t, DefaultLimit, filter.Limit)
	assert.GreaterOrEqual(t, filter.Offset, 0)
	assert.Equal(t, 1, filter.Page)
}

func TestParseFilterFromQuery_ClampsLimit(t *testing.T) {
	q, err := url.ParseQuery("limit=9999")
	require.NoError(t, err)

	filter := ParseFilterFromQuery(q)
	assert.Equal(t, MaxLimit, filter.Limit)
}

func TestParseFilterFromQuery_SortAndFilter(t *testing.T) {
	q, err := url.ParseQuery("sort[krisha_date]=desc&filter[stats_object_status]=Перезвонить&search=алматы")
	require.NoError(t, err)

	filter := ParseFilterFromQuery(q)
	assert.Equal(t, "desc", filter.Sort["krisha_date"])
	assert.Equal(t, "Перезвонить", filter.Filter["stats_object_status"])
	assert.Equal(t, "алматы", filter.Search)
}
