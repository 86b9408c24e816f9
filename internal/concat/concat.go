// Package concat assembles ordered fragments into a single generated file.
package concat

import (
	"bytes"
	"sort"

	"github.com/donaldgifford/puppetenv/internal/resource"
)

// Sort orders fragments by numeric order, then by ID. The input is not modified.
func Sort(fragments []*resource.Resource) []*resource.Resource {
	sorted := make([]*resource.Resource, len(fragments))
	copy(sorted, fragments)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}

		return sorted[i].ID < sorted[j].ID
	})

	return sorted
}

// Assemble concatenates fragment contents in sorted order.
func Assemble(fragments []*resource.Resource) []byte {
	var buf bytes.Buffer

	for _, f := range Sort(fragments) {
		buf.WriteString(f.Content)
	}

	return buf.Bytes()
}

// Target returns the assembled content of every fragment merged into target.
func Target(set *resource.Set, target string) []byte {
	return Assemble(set.Fragments(target))
}
