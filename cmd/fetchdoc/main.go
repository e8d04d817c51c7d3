package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"ragchat/internal/config"
	"ragchat/internal/fetcher"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	initLog(cfg.Log.Level)

	if len(cfg.Sources) == 0 {
		logrus.Fatal("no sources configured")
	}

	f := fetcher.New(
		time.Duration(cfg.Fetcher.TimeoutSecs)*time.Second,
		cfg.Fetcher.MinContentLen,
		time.Duration(cfg.Fetcher.DelaySecs)*time.Second,
	)

	ctx := context.Background()
	failed := 0
	for _, sc := range cfg.Sources {
		src := fetcher.Source{
			Name:       sc.Name,
			URLs:       sc.URLs,
			OutputPath: filepath.Join(cfg.Fetcher.Dir, sc.File),
		}
		logrus.Infof("fetching %s (%d urls)", src.Name, len(src.URLs))
		url, err := f.FetchSource(ctx, src)
		if err != nil {
			logrus.Errorf("fetch %s failed: %v", src.Name, err)
			failed++
			continue
		}
		info, _ := os.Stat(src.OutputPath)
		logrus.WithFields(logrus.Fields{"url": url, "file": src.OutputPath, "bytes": info.Size()}).
			Infof("saved %s", src.Name)
	}
	if failed > 0 {
		logrus.Fatalf("%d of %d sources failed", failed, len(cfg.Sources))
	}
	logrus.Info("all sources fetched")
}

func initLog(level string) {
	logrus.SetFormatter(&nested.Formatter{
		HideKeys:        false,
		TimestampFormat: "01-02 15:04:05",
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}
