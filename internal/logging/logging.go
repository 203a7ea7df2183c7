package logging

import (
	"fmt"
	"io"
	"log/syslog"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	lsyslog "github.com/sirupsen/logrus/hooks/syslog"
)

// 出力先
const (
	TargetStdio  = "stdio"
	TargetSyslog = "syslog"
)

// Config はロガーの設定
type Config struct {
	Level  string
	Target string
	// Tag はsyslogの識別子
	Tag string
	// Verbose は -v の回数。1回ごとに1段階詳しくする
	Verbose int
	// Quiet は警告以上のみを出力する
	Quiet bool
}

var newSyslogHook = func(tag string) (logrus.Hook, error) {
	return lsyslog.NewSyslogHook("", "", syslog.LOG_INFO|syslog.LOG_DAEMON, tag)
}

// New は設定からロガーを作成する
func New(cfg Config) (*logrus.Logger, error) {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg Config, out io.Writer) (*logrus.Logger, error) {
	base := logrus.InfoLevel
	if cfg.Level != "" {
		lvl, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("ログレベルが不正です: %w", err)
		}
		base = lvl
	}

	logger := logrus.New()
	logger.SetLevel(Verbosity(base, cfg.Verbose, cfg.Quiet))
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	switch cfg.Target {
	case "", TargetStdio:
		logger.SetOutput(out)
	case TargetSyslog:
		hook, err := newSyslogHook(cfg.Tag)
		if err != nil {
			return nil, fmt.Errorf("syslogへの接続に失敗しました: %w", err)
		}
		logger.AddHook(hook)
		logger.SetOutput(io.Discard)
	default:
		return nil, fmt.Errorf("unknown log target %q", cfg.Target)
	}
	return logger, nil
}

// Verbosity は基準レベルを -v の回数だけ詳しくする。quiet なら警告レベル
func Verbosity(base logrus.Level, verbose int, quiet bool) logrus.Level {
	if quiet {
		return logrus.WarnLevel
	}
	lvl := base + logrus.Level(verbose)
	if lvl > logrus.TraceLevel {
		return logrus.TraceLevel
	}
	return lvl
}

// Counter は -v のように繰り返し指定できるフラグ
type Counter int

func (c *Counter) String() string {
	if c == nil {
		return "0"
	}
	return strconv.Itoa(int(*c))
}

func (c *Counter) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if v {
		*c++
	}
	return nil
}

func (c *Counter) IsBoolFlag() bool { return true }
