package prompt

import (
	"strings"

	"github.com/Chan-con/chat-assistant/internal/sys"
)

const basePrompt = "あなたは日本語でチャットの返事を書くのを手伝うアシスタントです。"

const readabilityBlock = "【重要な書式指定】\n" +
	"- 返信は読みやすさを重視し、適度に改行を入れてください\n" +
	"- 長い文章は意味の区切りで改行し、チャット画面で見やすくしてください\n" +
	"- 1つの段落が長すぎる場合は、複数の段落に分けてください\n" +
	"- 箇条書きや番号付きリストも積極的に活用してください"

// System turns a classified command into the instruction text sent to the model.
// Its layers are: role framing, project instructions, readability block, task.
type System struct {
	Readability         bool
	ProjectInstructions string
}

// DefaultSystem has the readability block on and no project instructions.
func DefaultSystem() *System {
	return &System{Readability: true}
}

// NewSystem builds a System from the prompt section of the config. A nil config yields the default.
func NewSystem(cfg *sys.Config) *System {
	if cfg == nil {
		return DefaultSystem()
	}
	return &System{
		Readability:         cfg.Prompt.Readability,
		ProjectInstructions: cfg.Prompt.ProjectInstructions,
	}
}

// Synthesize renders cmd against the current document with the default System.
func Synthesize(cmd Command, document string) string {
	return DefaultSystem().Synthesize(cmd, document)
}

// Synthesize renders cmd against the current document. It never fails and never returns "".
func (s *System) Synthesize(cmd Command, document string) string {
	utterance := cmd.Content

	switch cmd.Action {
	case ActionCreate:
		task := "ユーザーからの要求に基づいて、適切で丁寧な返信を作成してください。作成した返信のみを出力してください。\n\n" +
			"要求: " + utterance
		if document != "" {
			task += "\n\n参考情報: " + document
		}
		return s.compose(true, task)

	case ActionAppend:
		return s.compose(true, quoted(document)+
			"ユーザーの要求に基づいて、上記の返信に内容を追加してください。追加後の完全な返信を出力してください。\n\n"+
			"要求: "+utterance)

	case ActionEdit:
		if inst := cmd.Edit; inst != nil {
			switch {
			case inst.Kind == EditSpecific && inst.Operation == OpReplace:
				return s.compose(false, quoted(document)+
					"上記の返信で"+dq(inst.Original)+"を"+dq(inst.Replacement)+"に置き換えてください。置き換え後の完全な返信のみを出力してください。\n\n"+
					"要求: "+utterance)
			case inst.Kind == EditSpecific && inst.Operation == OpDelete:
				return s.compose(false, quoted(document)+
					"上記の返信から"+dq(inst.Original)+"を削除してください。削除後の完全な返信のみを出力してください。\n\n"+
					"要求: "+utterance)
			case inst.Kind == EditGeneral:
				return s.compose(true, quoted(document)+
					"ユーザーの要求: "+dq(utterance)+"\n\n"+
					"上記の要求に基づいて返信を編集してください。編集後の完全な返信のみを出力してください。")
			}
		}
		return s.modify(document, utterance)

	case ActionModify:
		return s.modify(document, utterance)

	case ActionRemove:
		return s.compose(false, quoted(document)+
			"ユーザーの要求に基づいて、上記の返信から指定された部分を削除してください。削除後の完全な返信を出力してください。\n\n"+
			"要求: "+utterance)

	case ActionResearch:
		return s.compose(true,
			"ユーザーの要求について調査し、情報を提供してください。その後、その情報を基に返信を作成することを提案してください。\n\n"+
				"要求: "+utterance)

	default:
		task := "ユーザーと会話をして、最適な返信を作成するための相談に乗ってください。必要に応じて質問をしたり、提案をしたりしてください。\n\n" +
			"ユーザーのメッセージ: " + utterance
		if document != "" {
			task += "\n\n現在の返信: " + dq(document)
		}
		return s.compose(false, task)
	}
}

func (s *System) modify(document, utterance string) string {
	return s.compose(true, quoted(document)+
		"ユーザーの要求に基づいて、上記の返信を修正してください。修正後の完全な返信を出力してください。\n\n"+
		"要求: "+utterance)
}

// compose layers the role framing, optional project instructions and the optional
// readability block in front of the task text.
func (s *System) compose(readable bool, task string) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	if pi := strings.TrimSpace(s.ProjectInstructions); pi != "" {
		b.WriteString("\n")
		b.WriteString(pi)
	}
	if readable && s.Readability {
		b.WriteString("\n\n")
		b.WriteString(readabilityBlock)
	}
	b.WriteString("\n\n")
	b.WriteString(task)
	return b.String()
}

// quoted renders the document the way every edit branch shows it to the model.
func quoted(document string) string {
	return "現在の返信: " + dq(document) + "\n\n"
}

// dq wraps text in double quotes without escaping, so Japanese and
// newlines reach the model verbatim.
func dq(text string) string {
	return `"` + text + `"`
}
