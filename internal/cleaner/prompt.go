package cleaner

import (
	"fmt"
	"strings"
)

const (
	transcriptOpen  = "Transcript: ```"
	transcriptClose = "```\n\nImportant Notes:"
)

const cleanPrompt = `Process the partial video transcript below. First clean the transcript, then reformat it into a dialogue with speaker labels.

Cleaning Instructions:
1. Add punctuation.
2. Remove ums, uhs, stuttering and stammering.
3. Remove extra whitespace.
4. Fix typos, especially those caused by accent misinterpretations.
5. Add capitalisation.
6. Keep the grammar correct while retaining the naturalness of spoken dialogue.

Reformatting Instructions:
Format the cleaned transcript as a dialogue using the speaker labels provided. If the transcript starts mid-sentence, use the previous conversation to keep continuity.

About the speakers: ` + "```%s```" + `

Previous Conversation: ` + "```%s```" + `

` + transcriptOpen + `%s` + transcriptClose + `
- Retain the original intent and meaning of the sentences.
- Only make minor changes to sentences. Do not substitute words unless fixing accent misinterpretations.
- If grammar and natural speech contradict, prefer grammar.
`

// BuildPrompt fills the cleaning template. An absent carry-over is the empty string.
func BuildPrompt(speakerInfo, carryOver, chunkText string) string {
	return fmt.Sprintf(cleanPrompt, speakerInfo, carryOver, chunkText)
}

// transcriptSection recovers the chunk text embedded by BuildPrompt.
func transcriptSection(prompt string) string {
	start := strings.Index(prompt, transcriptOpen)
	end := strings.LastIndex(prompt, transcriptClose)
	if start < 0 || end < start+len(transcriptOpen) {
		return ""
	}
	return prompt[start+len(transcriptOpen) : end]
}
