package brain

import (
	"time"

	"github.com/Chan-con/chat-assistant/internal/prompt"
)

// Thresholds at which the waiting message changes.
const (
	SlowAfter     = 10 * time.Second
	VerySlowAfter = 30 * time.Second
)

// Progress is the status line shown while cmd has been outstanding for elapsed.
func Progress(cmd prompt.Command, elapsed time.Duration) string {
	switch {
	case cmd.NeedsConfirmation:
		if elapsed >= SlowAfter {
			return "編集処理に時間がかかっています。しばらくお待ちください..."
		}
		return "編集プレビューを生成しています..."

	case cmd.Action == prompt.ActionResearch:
		switch {
		case elapsed >= VerySlowAfter:
			return "詳細な情報を調査中です..."
		case elapsed >= SlowAfter:
			return "情報を検索中です。しばらくお待ちください..."
		default:
			return "検索しています..."
		}

	default:
		switch {
		case elapsed >= VerySlowAfter:
			return "もうしばらくお待ちください。複雑な処理を実行中です..."
		case elapsed >= SlowAfter:
			return "処理に時間がかかっています。しばらくお待ちください..."
		default:
			return "AIが考えています..."
		}
	}
}
