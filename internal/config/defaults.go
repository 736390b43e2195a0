package config

const (
	defaultStateDir               = "~/.local/share/shelfward"
	defaultReportDir              = "~/.local/share/shelfward/reports"
	defaultLogDir                 = "~/.local/share/shelfward/logs"
	defaultMinFileSizeMB          = 100
	defaultDuplicateThreshold     = 0.85
	defaultTokenWeight            = 0.6
	defaultEditWeight             = 0.4
	defaultShortQueryLength       = 4
	defaultShortQueryFloor        = 0.30
	defaultLongQueryFloor         = 0.35
	defaultMinConfidence          = 0.7
	defaultAIAcceptConfidence     = 0.8
	defaultAIBatchSize            = 10
	defaultLookupAcceptConfidence = 0.7
	defaultWorkers                = 8
	defaultNameMatchWeight        = 0.4
	defaultOrganizationWeight     = 0.3
	defaultFreeSpaceWeight        = 0.2
	defaultProximityWeight        = 0.1
	defaultFreeSpaceBufferGB      = 1
	defaultLLMBaseURL             = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel               = "deepseek/deepseek-chat-v3.1"
	defaultLLMReferer             = "https://github.com/shelfward/shelfward"
	defaultLLMTitle               = "Shelfward Classifier"
	defaultLLMTimeoutSeconds      = 15
	defaultTMDBBaseURL            = "https://api.themoviedb.org/3"
	defaultTMDBLanguage           = "en-US"
	defaultNotifyRequestTimeout   = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

func defaultVideoExtensions() []string {
	return []string{".mkv", ".mp4", ".avi", ".m4v", ".mov", ".wmv", ".mpg", ".mpeg", ".ts", ".webm"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Library: Library{
			VideoExtensions: defaultVideoExtensions(),
			MinFileSizeMB:   defaultMinFileSizeMB,
		},
		Matching: Matching{
			DuplicateThreshold: defaultDuplicateThreshold,
			TokenWeight:        defaultTokenWeight,
			EditWeight:         defaultEditWeight,
			ShortQueryLength:   defaultShortQueryLength,
			ShortQueryFloor:    defaultShortQueryFloor,
			LongQueryFloor:     defaultLongQueryFloor,
		},
		Classification: Classification{
			MinConfidence:          defaultMinConfidence,
			AIAcceptConfidence:     defaultAIAcceptConfidence,
			AIBatchSize:            defaultAIBatchSize,
			LookupAcceptConfidence: defaultLookupAcceptConfidence,
			Workers:                defaultWorkers,
		},
		Scorer: Scorer{
			NameMatchWeight:    defaultNameMatchWeight,
			OrganizationWeight: defaultOrganizationWeight,
			FreeSpaceWeight:    defaultFreeSpaceWeight,
			ProximityWeight:    defaultProximityWeight,
			FreeSpaceBufferGB:  defaultFreeSpaceBufferGB,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Paths: Paths{
			StateDir:  defaultStateDir,
			ReportDir: defaultReportDir,
			LogDir:    defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
