package types

import (
	"fmt"
	"strings"

	"gorm.io/gorm/clause"
)

type CommonFilterOperator string

const (
	CommonFilterOperatorEq    CommonFilterOperator = "eq"
	CommonFilterOperatorNotEq CommonFilterOperator = "not_eq"
	CommonFilterOperatorLt    CommonFilterOperator = "lt"
	CommonFilterOperatorLte   CommonFilterOperator = "lte"
	CommonFilterOperatorGt    CommonFilterOperator = "gt"
	CommonFilterOperatorGte   CommonFilterOperator = "gte"
	CommonFilterOperatorRange CommonFilterOperator = "range"
	CommonFilterOperatorIn    CommonFilterOperator = "in"
	// CommonFilterOperatorSearch matches any of Fields case-insensitively.
	CommonFilterOperatorSearch CommonFilterOperator = "search"
)

// CommonFilter is a single WHERE condition used by the store's list queries.
type CommonFilter struct {
	Field    string               `json:"field"`
	Fields   []string             `json:"fields,omitempty"`
	Operator CommonFilterOperator `json:"operator"`
	Values   []any                `json:"values"`
}

// Build constructs a GORM expression.
func (f *CommonFilter) Build(builder clause.Builder) {
	if len(f.Values) == 0 {
		return
	}

	value := f.Values[0]

	switch f.Operator {
	case CommonFilterOperatorEq:
		clause.Eq{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorNotEq:
		clause.Neq{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorLt:
		clause.Lt{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorLte:
		clause.Lte{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorGt:
		clause.Gt{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorGte:
		clause.Gte{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorRange:
		if len(f.Values) < 2 {
			return
		}
		clause.And(
			clause.Gte{Column: clause.Column{Name: f.Field}, Value: f.Values[0]},
			clause.Lte{Column: clause.Column{Name: f.Field}, Value: f.Values[1]},
		).Build(builder)
	case CommonFilterOperatorIn:
		clause.IN{Column: clause.Column{Name: f.Field}, Values: f.Values}.Build(builder)
	case CommonFilterOperatorSearch:
		if len(f.Fields) == 0 {
			return
		}
		term := "%" + strings.ToLower(fmt.Sprint(value)) + "%"
		exprs := make([]clause.Expression, 0, len(f.Fields))
		for _, field := range f.Fields {
			exprs = append(exprs, clause.Expr{SQL: "LOWER(?) LIKE ?", Vars: []interface{}{clause.Column{Name: field}, term}})
		}
		clause.Or(exprs...).Build(builder)
	}
}

// FiltersAnd combines filters into a single clause.Expression.
type FiltersAnd []*CommonFilter

func (w FiltersAnd) Build(builder clause.Builder) {
	if len(w) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w))
	for _, f := range w {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}
