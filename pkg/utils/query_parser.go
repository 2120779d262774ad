package utils

import (
	"net/url"
	"strconv"
	"strings"

	"vitrina-crm/pkg/types"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// ParseFilterFromQuery разбирает limit/offset/page, search,
// sort[col]=asc|desc и filter[col]=v из query string.
func ParseFilterFromQuery(query url.Values) types.Filter {
	filter := types.Filter{
		Filter:         make(map[string]interface{}),
		Sort:           make(map[string]string),
		Limit:          DefaultLimit,
		Page:           1,
		WithPagination: true,
	}

	for key, values := range query {
		if len(values) == 0 {
			continue
		}
		if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") {
			filter.Filter[key[7:len(key)-1]] = values[0]
		}
		if strings.HasPrefix(key, "sort[") && strings.HasSuffix(key, "]") {
			filter.Sort[key[5:len(key)-1]] = values[0]
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			if l > MaxLimit {
				l = MaxLimit
			}
			filter.Limit = l
		}
	}

	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			filter.Page = p
		}
	}
	filter.Offset = (filter.Page - 1) * filter.Limit

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filter.Offset = o
			if filter.Limit > 0 {
				filter.Page = o/filter.Limit + 1
			}
		}
	}

	filter.Search = query.Get("search")

	return filter
}
