package prompt

import "strings"

// Rule is one row of the classification table. The edit rule carries no triggers;
// it matches when ExtractEdit finds an instruction.
type Rule struct {
	Action   Action
	Triggers []string
}

// Rules is evaluated in order and the first matching rule wins. Phrases overlap
// (an append request can also read as a replace), so the order is part of the contract.
var Rules = []Rule{
	{Action: ActionCreate, Triggers: []string{
		"返信を作って", "返事を作って", "返信作って", "返事作って",
		"返信作成", "返事作成", "返信をください", "返事をください",
	}},
	{Action: ActionAppend, Triggers: []string{
		"追加して", "付け加えて", "含めて", "入れて", "を返信に", "を返事に",
	}},
	{Action: ActionEdit},
	{Action: ActionModify, Triggers: []string{
		"修正して", "変更して", "直して",
	}},
	{Action: ActionRemove, Triggers: []string{
		"削除して", "消して", "取り除いて", "除いて", "なくして", "省いて",
	}},
	{Action: ActionResearch, Triggers: []string{
		"調べて", "検索して", "情報を", "について教えて", "について調査",
	}},
}

// Normalize lower-cases and trims an utterance. No other folding is applied.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Classify maps an utterance to a command. It never fails: anything unmatched is chat.
// The current document does not influence the result today but is part of the
// signature so rules may consult it.
func Classify(utterance string, document string) Command {
	_ = document
	text := Normalize(utterance)

	for _, r := range Rules {
		if r.Action == ActionEdit {
			if inst := ExtractEdit(utterance); inst != nil {
				return Command{
					IsCommand:         true,
					Action:            ActionEdit,
					Content:           utterance,
					Edit:              inst,
					NeedsConfirmation: inst.Kind == EditGeneral,
				}
			}
			continue
		}
		if containsAny(text, r.Triggers) {
			return Command{IsCommand: true, Action: r.Action, Content: utterance}
		}
	}

	return Command{IsCommand: false, Action: ActionChat, Content: utterance}
}

// LooksLikePrompt reports whether a submission carries anything to classify.
func LooksLikePrompt(userText string) bool {
	return strings.TrimSpace(userText) != ""
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
