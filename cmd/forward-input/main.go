package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"

	"github.com/char5742/remote-input/internal/capture"
	"github.com/char5742/remote-input/internal/config"
	"github.com/char5742/remote-input/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	// コマンドライン引数の解析
	configPath := flag.String("config", "", "設定ファイルのパス (指定しない場合はデフォルトパスを使用)")
	quiet := flag.Bool("q", false, "警告以上のみを出力する")
	openStatus := flag.Bool("open-status", false, "接続先の状態ページをブラウザで開いて終了する")
	var verbose logging.Counter
	flag.Var(&verbose, "v", "ログを詳しくする (複数回指定可)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config path] [-v] [-q] [-open-status] HOSTNAME [PORT]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := loadConfig(*configPath, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "起動に失敗しました: %v\n", err)
		return 1
	}
	if err := applyArgs(cfg, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		return 2
	}

	log, err := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Target:  cfg.Log.Target,
		Tag:     "forward-input",
		Verbose: int(verbose),
		Quiet:   *quiet,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ロガーの初期化に失敗しました: %v\n", err)
		return 1
	}

	if *openStatus {
		url := statusURL(cfg)
		log.Infof("状態ページを開きます: %s", url)
		if err := browser.OpenURL(url); err != nil {
			log.WithError(err).Error("ブラウザを開けませんでした")
			return 1
		}
		return 0
	}

	// シグナルハンドラの設定
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := forward(ctx, cfg, log); err != nil {
		log.WithError(err).Error("転送を終了します")
		return 1
	}
	return 0
}

// forward はディスプレイと接続を開き、セッションが終わるまで入力を転送する
func forward(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) error {
	display, err := capture.OpenX11(cfg.Client.Display, log)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(cfg.Client.Host, strconv.Itoa(cfg.Client.Port))
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		display.Close()
		return fmt.Errorf("%s に接続できません: %w", addr, err)
	}
	log.WithField("addr", addr).Info("接続しました")

	var opts []capture.Option
	if f := capture.NewMotionFilter(cfg.Motion.SmoothingFactor, cfg.Motion.WarmUpCount); f != nil {
		opts = append(opts, capture.WithMotionFilter(f))
	}
	return capture.NewSession(display, conn, log, opts...).Run(ctx)
}

// applyArgs は HOSTNAME [PORT] を設定に反映する
func applyArgs(cfg *config.Config, args []string) error {
	switch len(args) {
	case 2:
		port, err := strconv.Atoi(args[1])
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("ポート番号が不正です: %s", args[1])
		}
		cfg.Client.Port = port
		fallthrough
	case 1:
		cfg.Client.Host = args[0]
	case 0:
		if cfg.Client.Host == "" {
			return fmt.Errorf("接続先のホスト名を指定してください")
		}
	default:
		return fmt.Errorf("引数が多すぎます")
	}
	return nil
}

func statusURL(cfg *config.Config) string {
	return "http://" + net.JoinHostPort(cfg.Client.Host, strconv.Itoa(cfg.Client.APIPort)) + "/api/status"
}

// loadConfig は設定ファイルを読み込む。ファイルがあって不正な場合はエラー
func loadConfig(path string, output io.Writer) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, config.ErrDefaultsNotSaved) {
		fmt.Fprintf(output, "%v\nデフォルト設定を使用します\n", err)
		return cfg, nil
	}
	return cfg, err
}
