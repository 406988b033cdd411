package brain

import (
	"context"
	"errors"
	"fmt"

	"github.com/Chan-con/chat-assistant/internal/confirm"
	"github.com/Chan-con/chat-assistant/internal/model"
)

var (
	ErrEmptyInput        = errors.New("empty input")
	ErrBusy              = errors.New("a message is already being processed")
	ErrEditPending       = errors.New("an edit is awaiting confirmation")
	ErrNoPendingEdit     = errors.New("no edit is awaiting confirmation")
	ErrGenerationTimeout = errors.New("generation timed out")
	ErrSessionReset      = errors.New("session was reset while the message was processed")
)

// Operations reported in BackendError.
const (
	OpCreateThread = "create_thread"
	OpSend         = "send"
	OpPreview      = "preview"
	OpRefresh      = "refresh"
)

// BackendError is any failure of the generation backend, timeouts included.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Describe returns the one-line Japanese message shown to the user for err.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var be *BackendError
	preview := errors.As(err, &be) && be.Op == OpPreview

	switch {
	case errors.Is(err, ErrEmptyInput):
		return "メッセージを入力してください。"
	case errors.Is(err, ErrBusy):
		return "処理中です。しばらくお待ちください。"
	case errors.Is(err, ErrEditPending):
		return "編集の確認待ちです。適用するかキャンセルしてください。"
	case errors.Is(err, ErrNoPendingEdit), errors.Is(err, confirm.ErrNoPreview):
		return "確認待ちの編集はありません。"
	case errors.Is(err, ErrSessionReset):
		return "セッションがリセットされたため、応答は破棄されました。"
	case errors.Is(err, ErrGenerationTimeout) && preview:
		return "編集プレビューの生成がタイムアウトしました。再度お試しください。"
	case errors.Is(err, ErrGenerationTimeout):
		return "リクエストがタイムアウトしました。再度お試しください。"
	case errors.Is(err, model.ErrMissingCredentials):
		return "APIキーが設定されていません。chatassist auth で設定してください。"
	case errors.Is(err, context.Canceled):
		return "処理がキャンセルされました。"
	case preview:
		return "編集プレビューの生成に失敗しました: " + be.Err.Error()
	case be != nil && be.Op == OpCreateThread:
		return "スレッドの作成に失敗しました: " + be.Err.Error()
	case be != nil && be.Op == OpRefresh:
		return "メッセージの読み込みに失敗しました: " + be.Err.Error()
	case be != nil:
		return "メッセージの送信に失敗しました: " + be.Err.Error()
	default:
		return err.Error()
	}
}
