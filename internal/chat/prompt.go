package chat

// Instruction template markers. Sanitize never emits '[', so user text
// cannot open or close an instruction block.
const (
	BOS       = "<s>"
	EOS       = "</s>"
	InstOpen  = "[INST]"
	InstClose = "[/INST]"
	SysOpen   = "<<SYS>>"
	SysClose  = "<</SYS>>"
)

// SystemPrompt is prepended to every request.
const SystemPrompt = "You are a helpful, honest AI assistant. Provide concise answers and always maintain a professional tone. If unsure, say you don't know."

// FormatPrompt embeds text into the instruction template.
func FormatPrompt(text string) string {
	return BOS + InstOpen + " " + SysOpen + "\n" + SystemPrompt + "\n" + SysClose + "\n\n" + text + " " + InstClose
}
