package main

import (
	"flag"
	"path/filepath"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"ragchat/internal/chunker"
	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/embedding"
	"ragchat/internal/embedding/openai"
	"ragchat/internal/embedding/tfidf"
	"ragchat/internal/service"
	"ragchat/internal/summarizer"
	"ragchat/internal/vectorstore"
	"ragchat/internal/vectorstore/chromem"
	"ragchat/internal/vectorstore/memory"
	"ragchat/internal/vectorstore/qdrant"
)

// ingest loads the fetched .txt documents, chunks and embeds them, and
// persists the vectors. Run fetchdoc first. With no file args the configured
// source files under the fetch dir are ingested.
func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.Parse()
	inputs := flag.Args()

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

	if len(inputs) == 0 {
		for _, sc := range cfg.Sources {
			inputs = append(inputs, filepath.Join(cfg.Fetcher.Dir, sc.File))
		}
	}
	if len(inputs) == 0 {
		logrus.Fatal("nothing to ingest: pass .txt files or configure sources")
	}

	var emb embedding.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb = tfidf.NewEmbedder()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			logrus.Fatal("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			logrus.Fatalf("openai embedder init failed: %v", err)
		}
		emb = client
	default:
		logrus.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var ch domain.Chunker
	switch cfg.Chunker.Type {
	case "character", "":
		ch = chunker.NewCharacterChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	case "sentence":
		ch = chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	default:
		logrus.Fatalf("unknown chunker: %s", cfg.Chunker.Type)
	}

	var st vectorstore.Storage
	switch cfg.VectorStore.Type {
	case "memory", "":
		st = memory.NewStorage()
	case "chromem":
		cs, err := chromem.NewStorage(chromem.Config{
			Path:       cfg.VectorStore.Chromem.Path,
			Collection: cfg.VectorStore.Chromem.Collection,
			Compress:   cfg.VectorStore.Chromem.Compress,
		})
		if err != nil {
			logrus.Fatalf("chromem store init failed: %v", err)
		}
		st = cs
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			logrus.Fatal("qdrant config missing")
		}
		st = qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		logrus.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	var sum domain.Summarizer
	switch cfg.Summarizer.Type {
	case "frequency", "":
		sum = summarizer.NewFrequencySummarizer()
	default:
		logrus.Fatalf("unknown summarizer: %s", cfg.Summarizer.Type)
	}

	svc := service.NewRAGService(ch, emb, st, sum, cfg.Summarizer.MaxSentences)

	logrus.Infof("ingesting %d file(s) with %s embedder into %s store", len(inputs), emb.Name(), cfg.VectorStore.Type)
	start := time.Now()
	summary, err := svc.IngestDocuments(inputs)
	if err != nil {
		logrus.Fatalf("ingest failed: %v", err)
	}
	logrus.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("ingest complete")
	logrus.Infof("corpus summary: %s", summary)
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
