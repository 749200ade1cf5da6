package curl

import (
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/hitflow/packages/core/request"
)

// Format renders a descriptor back into a curl command that Parse accepts.
// Headers are written in sorted order.
func Format(desc *request.Descriptor) string {
	var sb strings.Builder
	sb.WriteString("curl")

	if desc.Method != request.DefaultMethod || desc.HasBody() {
		sb.WriteString(" -X ")
		sb.WriteString(desc.Method)
	}

	sb.WriteString(" ")
	sb.WriteString(quote(desc.URL))

	keys := make([]string, 0, len(desc.Headers))
	for k := range desc.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(" -H ")
		sb.WriteString(quote(k + ": " + desc.Headers[k]))
	}

	if desc.HasBody() {
		sb.WriteString(" --data-raw ")
		sb.WriteString(quote(*desc.Body))
	}

	if !desc.TLSVerify {
		sb.WriteString(" -k")
	}

	return sb.String()
}

// Join quotes each word and joins them into one command line that Tokenize
// splits back into the same words.
func Join(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = quote(a)
	}
	return strings.Join(quoted, " ")
}

// quote wraps s in single quotes, closing and reopening around embedded ones.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
