package config

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// NewsAPIConfig controls the article source client.
type NewsAPIConfig struct {
	APIKey   string   `mapstructure:"api_key"`
	BaseURL  string   `mapstructure:"base_url"`
	Keywords []string `mapstructure:"keywords"`
	Language string   `mapstructure:"language"`
	PageSize int      `mapstructure:"page_size"`
}

// OpenAIConfig controls the text-generation clients.
type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"` // optional
	ChatModel      string `mapstructure:"chat_model"`
	AnalysisModel  string `mapstructure:"analysis_model"`
	ContentContext string `mapstructure:"content_context"` // editorial goals injected into analysis prompts
	PostLanguage   string `mapstructure:"post_language"`
}

// ImageConfig controls image generation and local storage.
type ImageConfig struct {
	Model      string `mapstructure:"model"`
	Size       string `mapstructure:"size"`
	Quality    string `mapstructure:"quality"`
	StorageDir string `mapstructure:"storage_dir"`
}

// DatabaseConfig holds postgres connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ServerConfig holds review API settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config is the top-level configuration structure.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	NewsAPI  NewsAPIConfig  `mapstructure:"newsapi"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Image    ImageConfig    `mapstructure:"image"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Server   ServerConfig   `mapstructure:"server"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.NewsAPI.BaseURL == "" {
		c.NewsAPI.BaseURL = "https://newsapi.org/v2"
	}
	if c.NewsAPI.Language == "" {
		c.NewsAPI.Language = "en"
	}
	if c.NewsAPI.PageSize == 0 {
		c.NewsAPI.PageSize = 100
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o"
	}
	if c.OpenAI.AnalysisModel == "" {
		c.OpenAI.AnalysisModel = "o1"
	}
	if c.OpenAI.PostLanguage == "" {
		c.OpenAI.PostLanguage = "Farsi"
	}
	if c.Image.Model == "" {
		c.Image.Model = "dall-e-3"
	}
	if c.Image.Size == "" {
		c.Image.Size = "1024x1024"
	}
	if c.Image.Quality == "" {
		c.Image.Quality = "standard"
	}
	if c.Image.StorageDir == "" {
		c.Image.StorageDir = "./storage"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}
