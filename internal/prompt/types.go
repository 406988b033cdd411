package prompt

// Action is the classifier's reading of what the user wants done to the reply.
type Action string

const (
	ActionCreate   Action = "create"   // write a fresh reply
	ActionAppend   Action = "append"   // add content to the current reply
	ActionEdit     Action = "edit"     // structured or style edit
	ActionModify   Action = "modify"   // legacy "fix it" phrasing
	ActionRemove   Action = "remove"   // drop part of the reply
	ActionResearch Action = "research" // look something up, then propose a reply
	ActionChat     Action = "chat"     // plain consultation, reply untouched
)

// Actions lists every action in classification precedence order, chat last.
var Actions = []Action{
	ActionCreate,
	ActionAppend,
	ActionEdit,
	ActionModify,
	ActionRemove,
	ActionResearch,
	ActionChat,
}

// EditKind separates edits that can be stated precisely from ones that need a human look.
type EditKind string

const (
	EditSpecific EditKind = "specific"
	EditGeneral  EditKind = "general"
)

// EditOperation is the shape of an edit instruction.
type EditOperation string

const (
	OpReplace EditOperation = "replace"
	OpDelete  EditOperation = "delete"
	OpStyle   EditOperation = "style"
	OpGeneral EditOperation = "general"
)

// EditInstruction is a structured edit pulled out of an utterance.
// Original and Replacement are only set for specific edits.
type EditInstruction struct {
	Kind        EditKind
	Operation   EditOperation
	Original    string
	Replacement string
}

// Command is the classified form of one utterance.
type Command struct {
	IsCommand         bool
	Action            Action
	Content           string
	Edit              *EditInstruction
	NeedsConfirmation bool
}

// UpdatesDocument reports whether a successful reply to this command replaces the draft.
func (c Command) UpdatesDocument() bool {
	return c.IsCommand && c.Action != ActionChat
}
