package regio_test

import (
	"fmt"
	"log"

	"github.com/hupe1980/regio"
)

type Employee struct {
	ID uint64
}

type Directory struct {
	Employees regio.OrderedMap[regio.StringRef, regio.Off[Employee]]
}

func Example() {
	rg, err := regio.Create[Directory](1 << 16)
	if err != nil {
		log.Fatal(err)
	}
	defer rg.Close()

	root, err := regio.Root[Directory](rg)
	if err != nil {
		log.Fatal(err)
	}

	hasher := regio.StringHasher{}
	for i, name := range []string{"ada", "grace"} {
		ref, err := regio.NewStringRef(rg, name)
		if err != nil {
			log.Fatal(err)
		}
		id := uint64(i + 1)
		emp, err := regio.AllocWith(rg, func(e *Employee) error {
			e.ID = id
			return nil
		})
		if err != nil {
			log.Fatal(err)
		}
		if err := root.Get().Employees.Put(rg, hasher, ref, emp.Off()); err != nil {
			log.Fatal(err)
		}
	}

	// The byte image is the whole graph. Re-adopting it at a new address
	// needs no pointer fixups.
	img := append([]byte(nil), rg.Image()...)
	r2, err := regio.FromBytes[Directory](img)
	if err != nil {
		log.Fatal(err)
	}
	defer r2.Close()

	root2, err := regio.Root[Directory](r2)
	if err != nil {
		log.Fatal(err)
	}
	if emp, ok := regio.Lookup(&root2.Get().Employees, r2, regio.StringProbe{}, "grace"); ok {
		fmt.Println(emp.In(r2).ID)
	}
	// Output: 2
}

func ExampleVector() {
	type Samples struct {
		Values regio.Vector[float64]
	}

	rg, err := regio.Create[Samples](1 << 12)
	if err != nil {
		log.Fatal(err)
	}
	defer rg.Close()

	root, err := regio.Root[Samples](rg)
	if err != nil {
		log.Fatal(err)
	}

	v := &root.Get().Values
	for i := 0; i < 3; i++ {
		if err := v.PushBack(rg, float64(i)*1.5); err != nil {
			log.Fatal(err)
		}
	}

	for i, p := range v.All() {
		fmt.Println(i, *p)
	}
	// Output:
	// 0 0
	// 1 1.5
	// 2 3
}
