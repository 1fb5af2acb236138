package extract

import (
	"fmt"
	"os"

	"orderdesk/internal"
)

// FromInput extracts lines from a single input named by kind. Text kinds
// take the input itself; file kinds take a path.
func FromInput(kind, input string) ([]internal.ExtractedLine, error) {
	switch kind {
	case "text", "paste":
		return FromText(input, internal.SourcePaste), nil
	case "email_text":
		return FromText(input, internal.SourceEmailText), nil
	case "email_table", "html":
		return FromHTML(input), nil
	case "xlsx":
		blob, err := os.ReadFile(input)
		if err != nil {
			return nil, err
		}
		return FromXLSX(blob)
	case "pdf":
		blob, err := os.ReadFile(input)
		if err != nil {
			return nil, err
		}
		return FromPDF(blob)
	case "eml":
		blob, err := os.ReadFile(input)
		if err != nil {
			return nil, err
		}
		res, err := FromEmail(blob)
		return res.Lines, err
	default:
		return nil, fmt.Errorf("unsupported input type: %s", kind)
	}
}
