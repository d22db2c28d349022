package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"rate-engine/config"
	"rate-engine/internal/container"
	"rate-engine/manager"
	"rate-engine/rate"
)

// 用法示例：
//
//	go run ./cmd/rated -config configs/config.yaml -input rates.jsonl -output calculated.jsonl
func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	inputPath := flag.String("input", "", "JSON-lines 原始报价文件，留空读 stdin")
	outputPath := flag.String("output", "", "计算结果 JSON-lines 输出文件，留空则不输出")
	watch := flag.Bool("watch", true, "监听配置文件变化并热切换计算策略")
	flag.Parse()

	c, err := container.New(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if err := c.Build(); err != nil {
		log.Fatalf("初始化失败: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := c.Start(ctx); err != nil {
		log.Fatalf("启动失败: %v", err)
	}
	lg := c.Logger()

	if *watch {
		w, err := config.NewWatcher(*cfgPath, 2*time.Second)
		if err != nil {
			lg.LogError(err, map[string]interface{}{"action": "watch_config"})
		} else {
			defer w.Close()
			go func() {
				_ = w.Run(ctx, func(cfg config.AppConfig) {
					_ = c.ApplyConfig(cfg)
				}, func(err error) {
					lg.LogError(err, map[string]interface{}{"action": "reload_config"})
				})
			}()
		}
	}

	done := make(chan struct{})
	if *outputPath != "" {
		out, err := os.OpenFile(*outputPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatalf("打开输出文件失败: %v", err)
		}
		defer out.Close()
		go writeCalculated(c.Manager().Publisher().SubscribeCalculated(), out, done)
	} else {
		close(done)
	}

	var src io.Reader = os.Stdin
	if *inputPath != "" {
		f, err := os.Open(*inputPath)
		if err != nil {
			log.Fatalf("打开输入文件失败: %v", err)
		}
		defer f.Close()
		src = f
	}

	mgr := c.Manager()
	handle := func(r rate.RawRate) error { return mgr.HandleRawRate(ctx, r) }
	onError := func(line int, err error) {
		// 丢弃事件已由 manager 记录
		if errors.Is(err, manager.ErrRateDropped) {
			return
		}
		lg.Warn("rate rejected", zap.Int("line", line), zap.Error(err))
	}

	readErr := make(chan error, 1)
	go func() { readErr <- readRates(ctx, src, time.Now, handle, onError) }()

	select {
	case <-ctx.Done():
		lg.Info("signal received, shutting down")
	case err := <-readErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			lg.LogError(err, map[string]interface{}{"action": "read_input"})
		}
		lg.Info("input exhausted, shutting down")
	}

	if err := c.Stop(); err != nil {
		log.Printf("停止时出错: %v", err)
	}
	<-done
}

// writeCalculated 把计算结果写成 JSON-lines，publisher 关闭后返回
func writeCalculated(ch <-chan rate.CalculatedRate, w io.Writer, done chan<- struct{}) {
	defer close(done)
	enc := json.NewEncoder(w)
	for r := range ch {
		_ = enc.Encode(r)
	}
}
