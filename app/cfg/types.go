package cfg

type Cfg struct {
	// Storage
	DBPath      string
	FallbackDir string
	CatalogDir  string
	RedisAddr   string

	// LLM
	LLMProvider    string
	LLMModel       string
	LLMAPIKey      string
	LLMBaseURL     string
	LLMMaxRetries  int
	LLMRetryDelay  int // seconds
	LLMConcurrency int
	InputPrice     float64 // USD per million tokens
	OutputPrice    float64

	// Application configuration
	Port              string
	PublicURL         string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string
	CORSOrigins       []string
	NewsroomFeeds     []string
	SourcesDir        string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
