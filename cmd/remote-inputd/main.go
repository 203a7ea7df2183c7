package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/char5742/remote-input/internal/api"
	"github.com/char5742/remote-input/internal/config"
	"github.com/char5742/remote-input/internal/device"
	"github.com/char5742/remote-input/internal/logging"
)

func main() {
	os.Exit(run())
}

// errUsage はコマンドライン引数の誤り
var errUsage = errors.New("引数が不正です")

func run() int {
	cfg, verbose, err := parseArgs(os.Args[1:], os.Stderr)
	switch {
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	case err != nil:
		fmt.Fprintf(os.Stderr, "起動に失敗しました: %v\n", err)
		return 1
	}

	log, err := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Target:  cfg.Log.Target,
		Tag:     "remote-inputd",
		Verbose: verbose,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ロガーの初期化に失敗しました: %v\n", err)
		return 1
	}

	var hub *api.Hub
	if cfg.API.Enabled {
		hub = api.NewHub(log)
	}
	service := api.NewInputService(cfg, log, hub)

	// デバイス作成と待ち受けの失敗は起動失敗
	if err := service.Open(); err != nil {
		log.WithError(err).Error("起動に失敗しました")
		return 1
	}
	defer service.Close()

	if err := dropPrivileges(cfg.Server.User, log); err != nil {
		log.WithError(err).Error("ユーザーの切り替えに失敗しました")
		return 1
	}

	// シグナルハンドラの設定
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var apiServer *api.Server
	if cfg.API.Enabled {
		monitor := device.NewMonitor(cfg.Server.DeviceName, log)
		monitor.RegisterCallback(hub.DeviceChanged)
		go func() {
			if err := monitor.Run(ctx); err != nil {
				log.WithError(err).Warn("デバイスの監視を開始できませんでした")
			}
		}()

		apiServer = api.NewServer(cfg, service, hub, log)
		apiServer.UseMonitor(monitor)
		go func() {
			if err := apiServer.Start(); err != nil {
				log.WithError(err).Error("APIサーバーエラー")
			}
		}()
	}

	status := 0
	if err := service.Run(ctx); err != nil {
		log.WithError(err).Error("待ち受けが終了しました")
		status = 1
	}
	log.Info("シャットダウンします...")

	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := apiServer.Stop(shutdownCtx); err != nil {
			log.WithError(err).Warn("APIサーバーの停止に失敗しました")
		}
	}
	return status
}

// parseArgs はコマンドライン引数と設定ファイルから設定を組み立てる。
// フラグは設定ファイルより優先し、最終的な設定を検証する
func parseArgs(args []string, output io.Writer) (*config.Config, int, error) {
	fs := flag.NewFlagSet("remote-inputd", flag.ContinueOnError)
	fs.SetOutput(output)
	configPath := fs.String("config", "", "設定ファイルのパス (指定しない場合はデフォルトパスを使用)")
	listen := fs.String("l", "", "待ち受けるアドレス (指定しない場合はすべてのアドレス)")
	port := fs.Int("p", 0, "待ち受けるポート番号")
	userName := fs.String("user", "", "待ち受け開始後に切り替えるユーザー")
	var verbose logging.Counter
	fs.Var(&verbose, "v", "ログを詳しくする (複数回指定可)")
	fs.Usage = func() {
		fmt.Fprintf(output, "usage: remote-inputd [-config path] [-l host] [-p port] [-v] [-user name]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(output, "余分な引数があります: %v\n", fs.Args())
		fs.Usage()
		return nil, 0, errUsage
	}

	cfg, err := config.Load(*configPath)
	if errors.Is(err, config.ErrDefaultsNotSaved) {
		fmt.Fprintf(output, "%v\nデフォルト設定を使用します\n", err)
	} else if err != nil {
		return nil, 0, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "l":
			cfg.Server.Listen = *listen
		case "p":
			cfg.Server.Port = *port
		case "user":
			cfg.Server.User = *userName
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(output, err)
		fs.Usage()
		return nil, 0, errUsage
	}
	return cfg, int(verbose), nil
}
