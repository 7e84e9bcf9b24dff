package store

import (
	"strings"

	"github.com/lireddit/apiserver/types"
)

func selectList[T any](fields []types.Field[T]) string {
	return strings.Join(types.Columns(fields), ", ")
}

// scanTargets returns pointers into entity in the same order as selectList.
func scanTargets[T any](fields []types.Field[T], entity *T) []any {
	targets := make([]any, 0, len(fields))
	for _, f := range fields {
		if f.Column != "" {
			targets = append(targets, f.Ref(entity))
		}
	}
	return targets
}
