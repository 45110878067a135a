package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Inputs; exactly one of InputFile, InputDir and URLs is set.
	InputFile string
	InputDir  string
	URLs      []string

	// BaseURL resolves relative image links. For fetched pages it defaults
	// to the page URL.
	BaseURL string

	// Outputs
	OutputPath  string
	PDFPath     string
	SQLitePath  string
	SnapshotDir string

	// Fetching
	UserAgent   string
	Render      bool
	ChromePath  string
	Concurrency int
	// Rate is the request budget per second across all URLs. Zero disables.
	Rate    float64
	Timeout time.Duration
	// RespectRobots skips URLs that robots.txt disallows.
	RespectRobots bool

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	Verbose bool
}

// Defaults shared by the flag, file and env layers. A field still holding
// its default counts as unset for the lower-precedence layers.
const (
	DefaultOutputPath  = "products.json"
	DefaultConcurrency = 4
	DefaultCacheDir    = ".gocatalog-cache"
	DefaultTimeout     = 15 * time.Second
)
