// Package main provides localization for the videostream CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Play video files into a rendering context as a workflow step": "ワークフローステップとして動画をレンダリングコンテキストへ再生",
		"YAML configuration file":                                      "YAML設定ファイル",
		"Log level (debug, info, warn, error)":                         "ログレベル (debug, info, warn, error)",
		"Suppress all log output":                                      "ログ出力をすべて抑制",
		"A video file argument is required":                            "動画ファイルを指定してください",

		// Probe command
		"Show frame rate, frame count and size of a video": "動画のフレームレート、フレーム数、サイズを表示",
		"Print metadata as JSON":                           "メタデータをJSONで出力",
		"File":                                             "ファイル",
		"Codec":                                            "コーデック",
		"Frame Rate":                                       "フレームレート",
		"Frame Count":                                      "フレーム数",
		"Size":                                             "サイズ",

		// Play command
		"Play a video into a software rendering context": "ソフトウェアレンダリングコンテキストへ動画を再生",
		"Step identifier":                                "ステップ識別子",
		"Decoder backend (auto, ffmpeg, gocv)":           "デコーダーバックエンド (auto, ffmpeg, gocv)",
		"Path to the ffmpeg binary":                      "ffmpegバイナリのパス",
		"Stop playback after this duration":              "指定時間で再生を停止",
		"Stop playback after this many frames":           "指定フレーム数で再生を停止",
		"Write the descriptor and surface snapshots":     "ディスクリプタとサーフェスのスナップショットを出力",
		"Directory for debug output":                     "デバッグ出力先ディレクトリ",
		"Serve Prometheus metrics on this address":       "指定アドレスでPrometheusメトリクスを公開",
		"Played %d frames":                               "%d フレームを再生しました",

		// Config command
		"Write or check a step configuration":                 "ステップ設定を出力または検証",
		"Write the configuration to a file instead of stdout": "標準出力の代わりにファイルへ設定を出力",
		"Check an existing step configuration file":           "既存のステップ設定ファイルを検証",
	})
}
