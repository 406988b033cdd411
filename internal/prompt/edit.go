package prompt

import (
	"regexp"
	"strings"
)

// EditPattern is one row of the extraction table.
type EditPattern struct {
	Operation EditOperation
	Re        *regexp.Regexp
	// Insert marks "put B after A" forms: group 1 is the anchor, group 2 the inserted text.
	Insert bool
}

// Kind derives the edit kind from the operation.
func (p EditPattern) Kind() EditKind {
	switch p.Operation {
	case OpReplace, OpDelete:
		return EditSpecific
	default:
		return EditGeneral
	}
}

// EditPatterns is evaluated top to bottom and the first match wins. Later rows are written
// on the assumption that earlier, more specific rows did not fire, so the order is fixed.
var EditPatterns = []EditPattern{
	{Operation: OpReplace, Insert: true, Re: regexp.MustCompile(`(.+?)の(?:後|あと)に(.+?)を(挿入|追加|入れ|付け加え|足し)て`)},

	{Operation: OpReplace, Re: regexp.MustCompile(`(.+?)を(.+?)に(変更|修正|置き換え|替え|直し)て`)},
	{Operation: OpReplace, Re: regexp.MustCompile(`(.+?)から(.+?)に(変更|修正|置き換え|替え|直し)て`)},
	{Operation: OpReplace, Re: regexp.MustCompile(`(.+?)を(.+?)にして`)},
	{Operation: OpReplace, Re: regexp.MustCompile(`(.+?)の部分を(.+?)にして`)},

	{Operation: OpDelete, Re: regexp.MustCompile(`(.+?)を(削除|消去|取り除い|除い|なくし)て`)},
	{Operation: OpDelete, Re: regexp.MustCompile(`(.+?)は(いらない|不要|削除)$`)},
	{Operation: OpDelete, Re: regexp.MustCompile(`(.+?)の部分を(削除|消し)て`)},

	{Operation: OpStyle, Re: regexp.MustCompile(`(もっと|より)(丁寧|カジュアル|フォーマル|親しみやすく|礼儀正しく)`)},
	{Operation: OpStyle, Re: regexp.MustCompile(`(短く|長く|簡潔に|詳しく)`)},
	{Operation: OpStyle, Re: regexp.MustCompile(`(優しく|厳しく|明るく|落ち着い)`)},

	{Operation: OpGeneral, Re: regexp.MustCompile(`(編集|修正|直し|改善|良く|ブラッシュアップ)して`)},
	{Operation: OpGeneral, Re: regexp.MustCompile(`(書き直し|リライト)て`)},
	{Operation: OpGeneral, Re: regexp.MustCompile(`文章を(整え|調整)て`)},
}

// desireMarkers flag "I want this" phrasing. They do not change the kind of a generic
// edit; whether to confirm is decided upstream from the kind alone.
var desireMarkers = []string{"したい", "してほしい", "して欲しい", "欲しい"}

// ExtractEdit returns the first structured edit found in the utterance, or nil.
func ExtractEdit(utterance string) *EditInstruction {
	raw := strings.TrimSpace(utterance)
	normalized := Normalize(utterance)

	for _, p := range EditPatterns {
		kind := p.Kind()

		// Spans are captured from the raw text so the original casing survives.
		text := raw
		if kind == EditGeneral {
			text = normalized
		}

		m := p.Re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		inst := &EditInstruction{Kind: kind, Operation: p.Operation}
		switch {
		case p.Insert:
			anchor := strings.TrimSpace(m[1])
			inst.Original = anchor
			inst.Replacement = anchor + "\n" + strings.TrimSpace(m[2])
		case p.Operation == OpReplace:
			inst.Original = strings.TrimSpace(m[1])
			inst.Replacement = strings.TrimSpace(m[2])
		case p.Operation == OpDelete:
			inst.Original = strings.TrimSpace(m[1])
		}
		return inst
	}
	return nil
}

// HasDesireMarker reports whether the utterance is phrased as an explicit wish.
func HasDesireMarker(utterance string) bool {
	text := Normalize(utterance)
	for _, m := range desireMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
