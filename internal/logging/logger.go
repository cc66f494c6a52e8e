package logging

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options 日志选项
type Options struct {
	Level string // debug / info / warn / error，默认 info
	File  string // 非空时同时写入文件
}

// New 创建 JSON 格式的 zap logger；配置了文件时同时输出到文件与标准输出
func New(opts Options) *zap.Logger {
	lvl := zapcore.InfoLevel
	if opts.Level != "" {
		if parsed, err := zapcore.ParseLevel(opts.Level); err == nil {
			lvl = parsed
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)
	consoleCore := zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), lvl)

	if opts.File == "" {
		return zap.New(consoleCore)
	}

	_ = os.MkdirAll(filepath.Dir(opts.File), 0o755)
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		l := zap.New(consoleCore)
		l.Warn("open log file failed, logging to stdout only", zap.String("file", opts.File), zap.Error(err))
		return l
	}
	fileCore := zapcore.NewCore(enc, zapcore.AddSync(f), lvl)
	return zap.New(zapcore.NewTee(fileCore, consoleCore))
}

// GinLogger 使用 zap 记录请求日志
func GinLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Error("request", fields...)
		case c.Writer.Status() >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// GinRecovery panic 恢复并记录日志
func GinRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.Any("error", recovered),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(500, gin.H{"error": "internal server error"})
	})
}
