package protoreg

import (
	"strings"

	"github.com/jhump/protoreflect/v2/protobuilder"
)

// comment turns a GraphQL description into a leading proto comment, one
// "// " line per description line.
func comment(desc string) protobuilder.Comments {
	if desc == "" {
		return protobuilder.Comments{}
	}
	var b strings.Builder
	for _, line := range strings.Split(desc, "\n") {
		b.WriteString(" ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return protobuilder.Comments{LeadingComment: b.String()}
}
