package config

const (
	defaultDataDir              = "~/.local/share/breathein"
	defaultLogDir               = "~/.local/share/breathein/logs"
	defaultBackgroundDir        = "~/.local/share/breathein/bg_images"
	defaultMusicDir             = "~/.local/share/breathein/music"
	defaultIconsDir             = "~/.local/share/breathein/icons"
	defaultOutputDir            = "~/.local/share/breathein/outputVideos"
	defaultUTCOffset            = "+05:30"
	defaultZoneLabel            = "IST"
	defaultCatchupWindowMinutes = 30
	defaultHistoryDays          = 7
	defaultLLMBaseURL           = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel             = "gpt-3.5-turbo"
	defaultLLMTimeoutSeconds    = 30
	defaultLLMMaxTokens         = 100
	defaultLLMTemperature       = 0.7
	defaultVideoWidth           = 1080
	defaultVideoHeight          = 1920
	defaultVideoDuration        = 6.0
	defaultVideoFade            = 1.0
	defaultVideoFPS             = 24
	defaultVideoCodec           = "libx264"
	defaultAudioCodec           = "aac"
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultEncodeTimeout        = 300
	defaultClientSecretPath     = "~/.config/breathein/client_secret.json"
	defaultTokenPath            = "~/.config/breathein/youtube_token.json"
	defaultCategoryID           = "22"
	defaultPrivacyStatus        = "public"
	defaultComment              = "Check Channel Description 💀"
	defaultUploadTimeout        = 600
	defaultNotifyTimeout        = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
)

var (
	defaultSlots = []string{"07:30", "12:29", "19:00"}
	defaultTags  = []string{
		"Breathe-In", "Motivation", "Productivity", "Digital Detox",
		"Self Improvement", "Focus", "Success", "Mindfulness",
		"Break The Scroll", "shorts", "trending", "viral",
		"business", "creator", "youtuber", "youtubeshorts",
	}
)

// DefaultPricing returns the built-in per-1K-token price table.
func DefaultPricing() map[string]Price {
	return map[string]Price{
		"gpt-3.5-turbo": {InputPer1K: 0.0015, OutputPer1K: 0.002},
		"gpt-4o-mini":   {InputPer1K: 0.00015, OutputPer1K: 0.0006},
		"gpt-4o":        {InputPer1K: 0.0025, OutputPer1K: 0.01},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       defaultDataDir,
			LogDir:        defaultLogDir,
			BackgroundDir: defaultBackgroundDir,
			MusicDir:      defaultMusicDir,
			IconsDir:      defaultIconsDir,
			OutputDir:     defaultOutputDir,
		},
		Schedule: Schedule{
			Slots:                append([]string(nil), defaultSlots...),
			UTCOffset:            defaultUTCOffset,
			ZoneLabel:            defaultZoneLabel,
			CatchupWindowMinutes: defaultCatchupWindowMinutes,
			HistoryDays:          defaultHistoryDays,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			MaxTokens:      defaultLLMMaxTokens,
			Temperature:    defaultLLMTemperature,
		},
		Pricing: DefaultPricing(),
		Video: Video{
			Width:                defaultVideoWidth,
			Height:               defaultVideoHeight,
			DurationSeconds:      defaultVideoDuration,
			FadeSeconds:          defaultVideoFade,
			FPS:                  defaultVideoFPS,
			VideoCodec:           defaultVideoCodec,
			AudioCodec:           defaultAudioCodec,
			FFmpegBinary:         defaultFFmpegBinary,
			FFprobeBinary:        defaultFFprobeBinary,
			EncodeTimeoutSeconds: defaultEncodeTimeout,
		},
		YouTube: YouTube{
			ClientSecretPath:     defaultClientSecretPath,
			TokenPath:            defaultTokenPath,
			CategoryID:           defaultCategoryID,
			PrivacyStatus:        defaultPrivacyStatus,
			Tags:                 append([]string(nil), defaultTags...),
			Comment:              defaultComment,
			UploadTimeoutSeconds: defaultUploadTimeout,
		},
		Notifications: Notifications{
			RequestTimeout:    defaultNotifyTimeout,
			UploadSuccess:     true,
			UploadFailure:     true,
			GenerationFailure: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
