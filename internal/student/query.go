package student

import (
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

// Filter narrows a query. Zero fields are ignored; set fields are ANDed.
type Filter struct {
	NameEquals   string
	NameContains string
	Grade        *int
}

// GradeIs is a helper for building a Filter on grade.
func GradeIs(grade int) *int {
	return &grade
}

func (f Filter) IsZero() bool {
	return f.NameEquals == "" && f.NameContains == "" && f.Grade == nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// apply adds the filter's predicates. Column names stay unqualified because
// UPDATE and DELETE may render the table without its alias.
func (f Filter) apply(q bun.QueryBuilder) bun.QueryBuilder {
	if f.IsZero() {
		// bun refuses UPDATE and DELETE without a WHERE clause.
		return q.Where("1 = 1")
	}
	if f.NameEquals != "" {
		q = q.Where("? = ?", bun.Ident("name"), f.NameEquals)
	}
	if f.NameContains != "" {
		q = q.Where(`? LIKE ? ESCAPE '\'`, bun.Ident("name"), "%"+likeEscaper.Replace(f.NameContains)+"%")
	}
	if f.Grade != nil {
		q = q.Where("? = ?", bun.Ident("grade"), *f.Grade)
	}
	return q
}

// Order sorts by one column. The zero value sorts by id ascending.
type Order struct {
	Column string
	Desc   bool
}

var (
	ByID        = Order{Column: "id"}
	ByName      = Order{Column: "name"}
	ByGradeDesc = Order{Column: "grade", Desc: true}
)

var orderable = map[string]bool{"id": true, "name": true, "grade": true}

func (o Order) validate() error {
	if o.Column != "" && !orderable[o.Column] {
		return fmt.Errorf("%w: cannot order by %q", ErrInvalidInput, o.Column)
	}
	return nil
}

func (o Order) apply(q *bun.SelectQuery) *bun.SelectQuery {
	column := o.Column
	if column == "" {
		column = "id"
	}
	if o.Desc {
		return q.OrderExpr("? DESC", bun.Ident(column))
	}
	return q.OrderExpr("? ASC", bun.Ident(column))
}
