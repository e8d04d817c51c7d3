package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"ragchat/internal/chat"
	"ragchat/internal/chunker"
	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/embedding"
	"ragchat/internal/embedding/openai"
	"ragchat/internal/embedding/tfidf"
	"ragchat/internal/llm"
	"ragchat/internal/service"
	"ragchat/internal/summarizer"
	"ragchat/internal/tui"
	"ragchat/internal/vectorstore"
	"ragchat/internal/vectorstore/chromem"
	"ragchat/internal/vectorstore/memory"
	"ragchat/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/ragchat/config.yaml if not provided)")
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
		log.Fatalf("failed to load config: %v", err)
	}

	// Assemble components
	var emb embedding.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb = tfidf.NewEmbedder()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		emb = client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var ch domain.Chunker
	switch cfg.Chunker.Type {
	case "character", "":
		ch = chunker.NewCharacterChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	case "sentence":
		ch = chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	default:
		log.Fatalf("unknown chunker: %s", cfg.Chunker.Type)
	}

	var st vectorstore.Storage
	var persisted *chromem.Storage
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
			log.Fatalf("chromem store init failed: %v", err)
		}
		st = cs
		persisted = cs
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		st = qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	var sum domain.Summarizer
	switch cfg.Summarizer.Type {
	case "frequency", "":
		sum = summarizer.NewFrequencySummarizer()
	default:
		log.Fatalf("unknown summarizer: %s", cfg.Summarizer.Type)
	}

	completer, err := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKeyEnv:   cfg.LLM.APIKeyEnv,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("llm client init failed: %v", err)
	}

	svc := service.NewRAGService(ch, emb, st, sum, cfg.Summarizer.MaxSentences).
		WithCompleter(completer, cfg.Chat.Persona, cfg.LLM.TopK)

	var summary string
	switch {
	case len(inputs) > 0:
		summary, err = svc.IngestDocuments(inputs)
		if err != nil {
			log.Fatalf("ingest failed: %v", err)
		}
	case persisted != nil:
		// Reuse vectors persisted by a previous ingest run. The tfidf
		// embedder keeps its vocabulary in memory only, so query-only mode
		// needs a stateless embedder.
		if cfg.Embedder.Type == "tfidf" || cfg.Embedder.Type == "" {
			log.Fatalf("persisted store requires the openai embedder; tfidf vectors are not reusable across runs")
		}
		if err := persisted.Init(0); err != nil {
			log.Fatalf("open persisted store failed: %v", err)
		}
		if persisted.Count() == 0 {
			log.Fatalf("persisted store at %s is empty; run ingest first or pass .txt files", cfg.VectorStore.Chromem.Path)
		}
		summary = fmt.Sprintf("Corpus loaded from %s (%d chunks).", cfg.VectorStore.Chromem.Path, persisted.Count())
	default:
		fmt.Println("Usage: ragchat [--config=config.yaml] file1.txt [file2.txt ...]")
		log.Fatalf("no documents to load: pass .txt files or configure a populated chromem store")
	}

	session := chat.NewSession(svc,
		chat.WithInterval(time.Duration(cfg.Chat.FrameIntervalMS)*time.Millisecond),
		chat.WithTimeout(time.Duration(cfg.Chat.AnswerTimeoutSecs)*time.Second),
	)

	title := cfg.Chat.Title
	if title == "" {
		if cfg.Chat.Persona == llm.PersonaBill {
			title = "Ask The Bill Anything"
		} else {
			title = "Chat with Moby Dick"
		}
	}

	m := tui.New(session, title, summary, cfg.Chat.Presets)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
