package regio

import (
	"fmt"
	"reflect"

	"github.com/zeebo/xxh3"
)

// TypeID is the 128-bit root type identity stored in every region header and
// compared on every open. It prevents a persistent region written for one
// root schema from being reinterpreted as another.
type TypeID struct {
	Hi uint64
	Lo uint64
}

// IsZero reports whether the identity is unset.
func (id TypeID) IsZero() bool {
	return id.Hi == 0 && id.Lo == 0
}

func (id TypeID) String() string {
	return fmt.Sprintf("%016x%016x", id.Hi, id.Lo)
}

// NamedTypeID derives a type identity from an explicit schema name.
// Use this when the identity must stay stable across refactors that move or
// rename the Go root type.
func NamedTypeID(name string) TypeID {
	h := xxh3.HashString128(name)
	return TypeID{Hi: h.Hi, Lo: h.Lo}
}

// TypeOf derives the default type identity for a root type R from its fully
// qualified Go name. Renaming or moving R changes the identity, which is the
// conservative choice: a moved type is a changed schema until proven
// otherwise.
func TypeOf[R any]() TypeID {
	t := reflect.TypeFor[R]()
	return NamedTypeID(t.String())
}
