package diff

import (
	odiff "github.com/r3labs/diff/v3"
)

// GetCustomDiffer compares structs by their `diff` tags. Fields tagged
// `diff:"-"` (ids) are ignored.
func GetCustomDiffer() *odiff.Differ {
	ret, err := odiff.NewDiffer(odiff.TagName("diff"))
	if err != nil {
		panic(err)
	}
	return ret
}

// Change is one top-level field whose value differs.
type Change struct {
	Field string
	From  interface{}
	To    interface{}
}

// Changes lists the top-level fields that differ between before and after,
// in the order the differ reports them.
func Changes(before, after interface{}) ([]Change, error) {
	changelog, err := GetCustomDiffer().Diff(before, after)
	if err != nil {
		return nil, err
	}
	changes := make([]Change, 0, len(changelog))
	seen := make(map[string]bool, len(changelog))
	for _, c := range changelog {
		if len(c.Path) == 0 {
			continue
		}
		field := c.Path[0]
		if seen[field] {
			continue
		}
		seen[field] = true
		changes = append(changes, Change{Field: field, From: c.From, To: c.To})
	}
	return changes, nil
}

// ChangedFields is Changes reduced to field names.
func ChangedFields(before, after interface{}) ([]string, error) {
	changes, err := Changes(before, after)
	if err != nil {
		return nil, err
	}
	fields := make([]string, len(changes))
	for i, c := range changes {
		fields[i] = c.Field
	}
	return fields, nil
}
