package prompt

import (
	"fmt"
	"strings"

	"flowchat/internal/retrieval"
)

// blockSeparator joins passage blocks. Chosen to be distinct from ordinary
// document content so the model can tell passages apart.
const blockSeparator = "\n\n---\n\n"

// FormatContext renders retrieved passages into a single delimited context
// block plus the ordered list of their source labels. Empty input yields an
// empty context, which callers must treat as "no augmentation available".
func FormatContext(passages []retrieval.Passage) (string, []string) {
	if len(passages) == 0 {
		return "", nil
	}

	blocks := make([]string, 0, len(passages))
	sources := make([]string, 0, len(passages))
	for _, p := range passages {
		blocks = append(blocks, fmt.Sprintf("[Source: %s]\n%s", p.Source, p.Document))
		sources = append(sources, p.Source)
	}
	return strings.Join(blocks, blockSeparator), sources
}
