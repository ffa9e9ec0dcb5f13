package student

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	Name         string    `bun:"name" json:"name" validate:"required"`
	Email        string    `bun:"email,type:varchar(55)" json:"email" validate:"omitempty,email,max=55"`
	Grade        int       `bun:"grade" json:"grade" validate:"min=0"`
	Birthday     time.Time `bun:"birthday" json:"birthday"`
	EnrolledDate time.Time `bun:"enrolled_date" json:"enrolledDate"`
}

func (s Student) String() string {
	return fmt.Sprintf("Student %d: %s, Grade %d", s.ID, s.Name, s.Grade)
}

// NameGrade is the (name, grade) projection of a student.
type NameGrade struct {
	Name  string `bun:"name"`
	Grade int    `bun:"grade"`
}

func (p NameGrade) String() string {
	return fmt.Sprintf("(%s, %d)", p.Name, p.Grade)
}

// NameBirthday is the (name, birthday) projection of a student.
type NameBirthday struct {
	Name     string    `bun:"name"`
	Birthday time.Time `bun:"birthday"`
}

func (p NameBirthday) String() string {
	return fmt.Sprintf("(%s, %s)", p.Name, p.Birthday.Format(time.DateTime))
}
