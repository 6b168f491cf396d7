// Package logx 构造 CLI 使用的 zap logger（只写 stderr，不污染 stdout）。
package logx

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options 控制 logger 的输出与级别；零值为 info 级、无颜色、写 stderr。
type Options struct {
	Verbose bool
	Color   bool
	Output  zapcore.WriteSyncer
}

// New 按开发模式的编码配置构造 logger：console 编码、ISO8601 时间。
func New(opts Options) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if opts.Color {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if opts.Verbose {
		level.SetLevel(zap.DebugLevel)
	}

	out := opts.Output
	if out == nil {
		out = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), out, level)
	return zap.New(core, zap.ErrorOutput(zapcore.Lock(os.Stderr)))
}

// Sync 刷新缓冲；stderr 在部分平台上 Sync 会返回 EINVAL，直接忽略。
func Sync(l *zap.Logger) {
	if l != nil {
		_ = l.Sync()
	}
}
