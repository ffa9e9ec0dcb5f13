package student

import (
	"fmt"
	"time"

	"student-sandbox/internal/db"
)

// EnrolledDefault selects how a missing enrolled_date is filled in.
type EnrolledDefault string

const (
	// EnrolledAtSchema stamps every student with the moment the Schema was built.
	EnrolledAtSchema EnrolledDefault = "schema"
	// EnrolledAtInsert stamps each student with the moment it is inserted.
	EnrolledAtInsert EnrolledDefault = "insert"
)

// Schema is the students table definition handed to the migrator and the
// repository. Nothing is registered globally.
type Schema struct {
	policy  EnrolledDefault
	now     func() time.Time
	builtAt time.Time
}

// NewSchema returns the students schema. A nil now uses time.Now.
func NewSchema(policy EnrolledDefault, now func() time.Time) (*Schema, error) {
	switch policy {
	case EnrolledAtSchema, EnrolledAtInsert:
	default:
		return nil, fmt.Errorf("%w: unknown enrolled_date default %q", ErrInvalidInput, policy)
	}
	if now == nil {
		now = time.Now
	}
	return &Schema{
		policy:  policy,
		now:     now,
		builtAt: now(),
	}, nil
}

func (s *Schema) Models() []any {
	return []any{(*Student)(nil)}
}

func (s *Schema) Indexes() []db.Index {
	return []db.Index{
		{Name: "index_name", Model: (*Student)(nil), Columns: []string{"name"}},
	}
}

func (s *Schema) Policy() EnrolledDefault {
	return s.policy
}

// EnrolledDate is the value used for students inserted without one.
func (s *Schema) EnrolledDate() time.Time {
	if s.policy == EnrolledAtInsert {
		return s.now()
	}
	return s.builtAt
}
