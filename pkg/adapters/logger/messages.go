package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Step lifecycle (info)
		"Step %s configured":                   "ステップ %s を設定しました",
		"Step %s is not configured":            "ステップ %s は未設定です",
		"Executing step %s":                    "ステップ %s を実行中",
		"Step %s executed":                     "ステップ %s の実行が完了しました",
		"Releasing previous frame source":      "以前のフレームソースを解放しています",
		"Configuration merged: %d keys":        "設定をマージしました: %d 個のキー",
		"Playing %s: %d fps, %d frames, %dx%d": "%s を再生中: %d fps, %d フレーム, %dx%d",
		"Playback finished at frame %d":        "フレーム %d で再生を終了しました",
		"Serving metrics on %s":                "%s でメトリクスを公開しています",

		// Frame source
		"Opening %s":                                    "%s を開いています",
		"Opened %s: %dx%d, %d fps, %d frames":           "%s を開きました: %dx%d, %d fps, %d フレーム",
		"Frame rate unavailable, using fallback %d fps": "フレームレートが不明なため %d fps を使用します",
		"End of stream, rewinding (attempt %d)":         "ストリーム終端に達しました。先頭に戻ります (試行 %d)",
		"Playback started at %v interval":               "%v 間隔で再生を開始しました",
		"Playback stopped after %d frames":              "%d フレーム再生後に停止しました",
		"Pushed frame %d":                               "フレーム %d を送信しました",
		"Released render target %s":                     "レンダーターゲット %s を解放しました",
		"Frame source closed":                           "フレームソースを閉じました",

		// Frame sink
		"Created render target %dx%d (%s)": "レンダーターゲット %dx%d (%s) を作成しました",

		// Decoder
		"Starting ffmpeg: %s":                           "ffmpeg を起動中: %s",
		"Probing %s with ffprobe":                       "ffprobe で %s を解析中",
		"%s probe failed, trying next: %s":              "%s による解析に失敗したため次を試します: %s",
		"%s probe failed: %s":                           "%s による解析に失敗しました: %s",
		"MP4 probe failed, falling back to ffprobe: %s": "MP4 解析に失敗したため ffprobe を使用します: %s",

		// Warnings
		"Failed to save snapshot %d: %s":   "スナップショット %d の保存に失敗しました: %s",
		"Failed to render snapshot %d: %s": "スナップショット %d の描画に失敗しました: %s",
		"Failed to close decoder: %s":      "デコーダーのクローズに失敗しました: %s",

		// Errors
		"Failed to open %s: %s":     "%s を開けませんでした: %s",
		"Playback failed: %s":       "再生に失敗しました: %s",
		"Metrics server failed: %s": "メトリクスサーバーが失敗しました: %s",
	})
}
