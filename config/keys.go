package config

const (
	delimiter = "."

	ConfigPrefix = "config"

	ConfigCollatzPrefix = ConfigPrefix + delimiter + "collatz"

	ConfigMemoPrefix       = ConfigCollatzPrefix + delimiter + "memo"
	ConfigMemoPath         = ConfigMemoPrefix + delimiter + "path"
	ConfigMemoBackend      = ConfigMemoPrefix + delimiter + "backend"
	ConfigMemoCacheSize    = ConfigMemoPrefix + delimiter + "cache_size"
	ConfigMemoPersistEvery = ConfigMemoPrefix + delimiter + "persist_every"

	ConfigCursorPrefix = ConfigCollatzPrefix + delimiter + "cursor"
	ConfigCursorPath   = ConfigCursorPrefix + delimiter + "path"

	ConfigSessionPrefix       = ConfigCollatzPrefix + delimiter + "session"
	ConfigSessionTickInterval = ConfigSessionPrefix + delimiter + "tick_interval"
	ConfigSessionMaxSteps     = ConfigSessionPrefix + delimiter + "max_steps"

	ConfigDisplayPrefix        = ConfigCollatzPrefix + delimiter + "display"
	ConfigDisplayShowOutput    = ConfigDisplayPrefix + delimiter + "show_output"
	ConfigDisplayColor         = ConfigDisplayPrefix + delimiter + "color"
	ConfigDisplayProgressEvery = ConfigDisplayPrefix + delimiter + "progress_every"
	ConfigDisplayHistogramBins = ConfigDisplayPrefix + delimiter + "histogram_bins"

	ConfigEffectPrefix = ConfigPrefix + delimiter + "effect"

	ConfigEffectLogPrefix            = ConfigEffectPrefix + delimiter + "log"
	ConfigEffectLogLevel             = ConfigEffectLogPrefix + delimiter + "level"
	ConfigEffectLogHandlerBufferSize = ConfigEffectLogPrefix + delimiter + "handler" + delimiter + "buffer_size"
)
