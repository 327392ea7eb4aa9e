package protoreg

import (
	"hash/fnv"
	"sort"

	"github.com/jhump/protoreflect/v2/protobuilder"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// allocateFieldNumbers assigns tag numbers derived from field names, so a
// field keeps its number when other fields are added or removed.
func allocateFieldNumbers(fieldBuilders []*protobuilder.FieldBuilder) {
	fieldNames := make([]string, len(fieldBuilders))
	for i, fb := range fieldBuilders {
		fieldNames[i] = string(fb.Name())
	}
	for i, n := range fieldNumbersFor(fieldNames) {
		fieldBuilders[i].SetNumber(protoreflect.FieldNumber(n))
	}
}

const (
	maxFieldNumber    = 31767
	reservedRangeFrom = 19000
	reservedRangeTo   = 19999
)

// fieldNumbersFor hashes each name with FNV-32a into 1..31767, skipping
// the range reserved by protobuf and probing linearly on collision. Names
// are processed sorted so collisions resolve the same way every time.
func fieldNumbersFor(names []string) []int {
	if len(names) == 0 {
		return nil
	}
	idx := make([]int, len(names))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return names[idx[a]] < names[idx[b]] })

	out := make([]int, len(names))
	used := make(map[int]struct{}, len(names))
	for _, i := range idx {
		cand := int(fnv32(names[i])%maxFieldNumber) + 1
		for {
			if cand >= reservedRangeFrom && cand <= reservedRangeTo {
				cand = reservedRangeTo + 1
			}
			if _, ok := used[cand]; !ok {
				break
			}
			cand++
			if cand > maxFieldNumber {
				cand = 1
			}
		}
		used[cand] = struct{}{}
		out[i] = cand
	}
	return out
}

func fnv32(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
