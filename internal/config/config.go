package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SourceConfig describes one public document to scrape. URLs are tried in
// order until one yields usable content.
type SourceConfig struct {
	Name string   `yaml:"name"`
	URLs []string `yaml:"urls"`
	File string   `yaml:"file"`
}

// FetcherConfig configures the document fetcher.
type FetcherConfig struct {
	Dir           string `yaml:"dir"`
	TimeoutSecs   int    `yaml:"timeout_secs"`
	DelaySecs     int    `yaml:"delay_secs"`
	MinContentLen int    `yaml:"min_content_len"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	ChunkSize         int    `yaml:"chunk_size"`
	ChunkOverlap      int    `yaml:"chunk_overlap"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// ChromemConfig contains settings for the embedded persistent vector store.
type ChromemConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	Compress   bool   `yaml:"compress"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type    string         `yaml:"type"`
	Chromem *ChromemConfig `yaml:"chromem,omitempty"`
	Qdrant  *QdrantConfig  `yaml:"qdrant,omitempty"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// LLMConfig configures the chat-completions client used to answer questions.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	TopK        int     `yaml:"top_k"`
}

// ChatConfig configures the interactive chat session.
type ChatConfig struct {
	Persona           string   `yaml:"persona"`
	Title             string   `yaml:"title"`
	FrameIntervalMS   int      `yaml:"frame_interval_ms"`
	AnswerTimeoutSecs int      `yaml:"answer_timeout_secs"`
	Presets           []string `yaml:"presets"`
}

// LogConfig configures logging for the pipeline commands.
type LogConfig struct {
	Level string `yaml:"level"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Sources     []SourceConfig    `yaml:"sources"`
	Fetcher     FetcherConfig     `yaml:"fetcher"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	LLM         LLMConfig         `yaml:"llm"`
	Chat        ChatConfig        `yaml:"chat"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ragchat/config.yaml.
// If neither exists, it writes defaults to ~/.config/ragchat/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragchat", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Sources: []SourceConfig{
			{
				Name: "moby-dick",
				URLs: []string{"https://www.gutenberg.org/files/2701/2701-h/2701-h.htm"},
				File: "moby_dick.txt",
			},
			{
				Name: "hr1-bill",
				URLs: []string{
					"https://www.congress.gov/119/bills/hr1/BILLS-119hr1eh.htm",
					"https://www.congress.gov/119/bills/hr1/BILLS-119hr1ih.htm",
				},
				File: "one_big_beautiful_bill.txt",
			},
		},
		Fetcher:     FetcherConfig{Dir: "books"},
		Chunker:     ChunkerConfig{Type: "character"},
		Embedder:    EmbedderConfig{Type: "tfidf"},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Summarizer:  SummarizerConfig{Type: "frequency", MaxSentences: 5},
		Chat:        ChatConfig{Persona: "book"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Fetcher.Dir == "" {
		cfg.Fetcher.Dir = "books"
	}
	if cfg.Fetcher.TimeoutSecs == 0 {
		cfg.Fetcher.TimeoutSecs = 30
	}
	if cfg.Fetcher.DelaySecs == 0 {
		cfg.Fetcher.DelaySecs = 2
	}
	if cfg.Fetcher.MinContentLen == 0 {
		cfg.Fetcher.MinContentLen = 100
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if cfg.Chunker.ChunkOverlap == 0 {
		cfg.Chunker.ChunkOverlap = 200
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.VectorStore.Type == "chromem" && cfg.VectorStore.Chromem == nil {
		cfg.VectorStore.Chromem = &ChromemConfig{}
	}
	if cfg.VectorStore.Chromem != nil {
		if cfg.VectorStore.Chromem.Path == "" {
			cfg.VectorStore.Chromem.Path = "chromem_db"
		}
		if cfg.VectorStore.Chromem.Collection == "" {
			cfg.VectorStore.Chromem.Collection = "documents"
		}
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 5
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 60
	}
	if cfg.LLM.TopK == 0 {
		cfg.LLM.TopK = 4
	}
	if cfg.Chat.Persona == "" {
		cfg.Chat.Persona = "book"
	}
	if cfg.Chat.FrameIntervalMS == 0 {
		cfg.Chat.FrameIntervalMS = 400
	}
	if cfg.Chat.AnswerTimeoutSecs == 0 {
		cfg.Chat.AnswerTimeoutSecs = 90
	}
	if len(cfg.Chat.Presets) == 0 {
		cfg.Chat.Presets = defaultPresets(cfg.Chat.Persona)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func defaultPresets(persona string) []string {
	if persona == "bill" {
		return []string{
			"Can you give me an overview of what the bill accomplishes?",
			"What are the main tax changes in this bill and how will they affect ordinary taxpayers?",
			"How does this bill change healthcare policy and what does it mean for patients?",
			"What education funding changes does this bill make and who benefits?",
			"How does this bill affect Social Security and Medicare?",
		}
	}
	return []string{
		"Who is Ishmael?",
		"What is the Pequod?",
		"Describe Captain Ahab.",
		"What is the significance of the white whale?",
	}
}
