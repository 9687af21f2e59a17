// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"strconv"
	"strings"
)

// UpdateBuilder assembles a single-row UPDATE from the fields that are
// present in a partial update request. Column names must come from code,
// never from request input.
type UpdateBuilder struct {
	table string
	sets  []string
	args  []any
}

func NewUpdate(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

// Set adds column = value unconditionally.
func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.args = append(b.args, value)
	b.sets = append(b.sets, column+" = $"+strconv.Itoa(len(b.args)))
	return b
}

// SetIf adds column = *value when value is non-nil.
func SetIf[T any](b *UpdateBuilder, column string, value *T) *UpdateBuilder {
	if value != nil {
		b.Set(column, *value)
	}
	return b
}

// Empty reports whether no column has been set.
func (b *UpdateBuilder) Empty() bool {
	return len(b.sets) == 0
}

// Build returns the UPDATE statement and its arguments, restricted to the
// row where idColumn = id.
func (b *UpdateBuilder) Build(idColumn string, id any) (string, []any) {
	args := append(append([]any{}, b.args...), id)

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(b.table)
	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(b.sets, ", "))
	sb.WriteString(" WHERE ")
	sb.WriteString(idColumn)
	sb.WriteString(" = $")
	sb.WriteString(strconv.Itoa(len(args)))

	return sb.String(), args
}
