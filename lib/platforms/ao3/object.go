package ao3

import "fmt"

type Kind int

const (
	KindObject Kind = iota
	KindWork
	KindSeries
	KindUser
)

func (k Kind) String() string {
	switch k {
	case KindWork:
		return "Work"
	case KindSeries:
		return "Series"
	case KindUser:
		return "User"
	}
	return "Object"
}

// Object stands in for an entity that hasn't been fetched, like an
// author link on a listing. Objects are comparable and can be used as
// map keys. Works and series are identified by ID, users by Name.
type Object struct {
	ID   int
	Name string
	Kind Kind
}

func (o Object) String() string {
	if o.Name != "" {
		return fmt.Sprintf("%s(%s)", o.Kind, o.Name)
	}
	return fmt.Sprintf("%s(%d)", o.Kind, o.ID)
}
