package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEdit(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		want      *EditInstruction
	}{
		{
			name:      "insertion",
			utterance: "よろしくの後にありがとうを追加して",
			want:      &EditInstruction{Kind: EditSpecific, Operation: OpReplace, Original: "よろしく", Replacement: "よろしく\nありがとう"},
		},
		{
			name:      "replace with を",
			utterance: "こんにちはをこんばんはに変更して",
			want:      &EditInstruction{Kind: EditSpecific, Operation: OpReplace, Original: "こんにちは", Replacement: "こんばんは"},
		},
		{
			name:      "replace with から",
			utterance: "明日から明後日に変更して",
			want:      &EditInstruction{Kind: EditSpecific, Operation: OpReplace, Original: "明日", Replacement: "明後日"},
		},
		{
			name:      "replace keeps case",
			utterance: "  ABCをXyzに置き換えて ",
			want:      &EditInstruction{Kind: EditSpecific, Operation: OpReplace, Original: "ABC", Replacement: "Xyz"},
		},
		{
			name:      "delete",
			utterance: "署名を削除して",
			want:      &EditInstruction{Kind: EditSpecific, Operation: OpDelete, Original: "署名"},
		},
		{
			name:      "delete not needed",
			utterance: "最後の一文はいらない",
			want:      &EditInstruction{Kind: EditSpecific, Operation: OpDelete, Original: "最後の一文"},
		},
		{
			name:      "style",
			utterance: "もっと丁寧に",
			want:      &EditInstruction{Kind: EditGeneral, Operation: OpStyle},
		},
		{
			name:      "style length",
			utterance: "簡潔にまとめて",
			want:      &EditInstruction{Kind: EditGeneral, Operation: OpStyle},
		},
		{
			name:      "general rewrite",
			utterance: "書き直して",
			want:      &EditInstruction{Kind: EditGeneral, Operation: OpGeneral},
		},
		{
			name:      "general improve",
			utterance: "改善して",
			want:      &EditInstruction{Kind: EditGeneral, Operation: OpGeneral},
		},
		{
			name:      "structural row wins over style",
			utterance: "文章をもっと丁寧にして",
			want:      &EditInstruction{Kind: EditSpecific, Operation: OpReplace, Original: "文章", Replacement: "もっと丁寧"},
		},
		{name: "no edit", utterance: "ありがとう", want: nil},
		{name: "empty", utterance: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractEdit(tt.utterance))
		})
	}
}

func TestExtractEdit_DesireMarkerStaysGeneral(t *testing.T) {
	u := "もっとフォーマルにしてほしい"
	require.True(t, HasDesireMarker(u))

	inst := ExtractEdit(u)
	require.NotNil(t, inst)
	assert.Equal(t, EditGeneral, inst.Kind)
}

func TestEditPatterns_KindFollowsOperation(t *testing.T) {
	for i, p := range EditPatterns {
		switch p.Operation {
		case OpReplace, OpDelete:
			assert.Equal(t, EditSpecific, p.Kind(), "row %d", i)
		default:
			assert.Equal(t, EditGeneral, p.Kind(), "row %d", i)
		}
	}
	assert.True(t, EditPatterns[0].Insert)
}
