package cfg

import "cmp"

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

// StoreOptions locates the catalog database.
type StoreOptions struct {
	DBPath string `long:"db-path" env:"DB_PATH" default:"./catalog.db" description:"Path to the catalog database file"`
}

// APIKeyOptions carries the YouTube Data API key pool. Keys rotate when one
// runs out of quota.
type APIKeyOptions struct {
	APIKeys []string `long:"api-key" env:"API_KEYS" env-delim:"," description:"YouTube Data API key (repeat for a key pool)" required:"true"`
}

// ChannelsOptions locates the channel list file.
type ChannelsOptions struct {
	ChannelsFile string `long:"channels-file" env:"CHANNELS_FILE" default:"./channels.yml" description:"YAML file listing channel ids to catalog"`
}

// ShardOptions selects this worker's slice of the catalog.
type ShardOptions struct {
	ShardIndex int `long:"shard-index" env:"SHARD_INDEX" default:"0" description:"Zero-based index of this shard"`
	ShardCount int `long:"shard-count" env:"SHARD_COUNT" default:"1" description:"Total number of shards"`
}

// StorageOptions locates the sharded media trees.
type StorageOptions struct {
	AudioDir      string `long:"audio-dir" env:"AUDIO_DIR" default:"./audio" description:"Root directory for downloaded audio files"`
	TranscriptDir string `long:"transcript-dir" env:"TRANSCRIPT_DIR" default:"./transcripts" description:"Root directory for transcript files"`
}

// WorkerOptions tunes the acquisition pool.
type WorkerOptions struct {
	Workers   int  `long:"workers" env:"WORKERS" default:"4" description:"Number of concurrent workers"`
	MaxVideos int  `long:"max-videos" env:"MAX_VIDEOS" default:"0" description:"Maximum number of videos to process (0 = no limit)"`
	Overwrite bool `long:"overwrite" env:"OVERWRITE" description:"Reprocess videos whose output already exists"`
	KeepAudio bool `long:"keep-audio" env:"KEEP_AUDIO" description:"Keep audio files after transcription"`
}

// WhisperOptions configures the speech recognition subprocess.
type WhisperOptions struct {
	ModelSize   string `long:"model-size" env:"WHISPER_MODEL" default:"base" choice:"tiny" choice:"base" choice:"small" choice:"medium" choice:"large-v2" choice:"large-v3" description:"Whisper model size"`
	Device      string `long:"device" env:"WHISPER_DEVICE" default:"auto" choice:"auto" choice:"cpu" choice:"cuda" description:"Inference device"`
	ComputeType string `long:"compute-type" env:"WHISPER_COMPUTE_TYPE" default:"default" description:"ctranslate2 compute type, e.g. int8 or float16"`
	Threads     int    `long:"threads" env:"WHISPER_THREADS" default:"0" description:"CPU threads per transcription (0 = auto)"`
}
