package continuity

import "strings"

// ParagraphBreak separates paragraphs in cleaned model output.
const ParagraphBreak = "\n\n"

// ExtractCarryOver returns the last paragraph of a cleaned chunk, or the whole
// text when it has no paragraph break. The result is fed to the next chunk's
// cleaning call so a sentence cut at the boundary can be completed.
func ExtractCarryOver(cleaned string) string {
	i := strings.LastIndex(cleaned, ParagraphBreak)
	if i < 0 {
		return cleaned
	}
	return cleaned[i+len(ParagraphBreak):]
}
