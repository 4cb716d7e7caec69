// Package conf defines the bootstrap configuration scanned from the
// config file. Zero values fall back to the package defaults at wiring
// time, so a minimal config file only names the endpoints that differ
// per deployment.
package conf

import (
	"encoding/json"
	"time"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
)

// Duration is a time.Duration that unmarshals from strings like "30s".
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// AsDuration returns the underlying time.Duration.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// Bootstrap is the root configuration.
type Bootstrap struct {
	Server     Server     `json:"server"`
	Data       Data       `json:"data"`
	Moderation Moderation `json:"moderation"`
}

// Server holds transport configuration.
type Server struct {
	HTTP HTTPServer `json:"http"`
}

// HTTPServer configures the HTTP listener.
type HTTPServer struct {
	Network string   `json:"network"`
	Addr    string   `json:"addr"`
	Timeout Duration `json:"timeout"`
	// MaxUploadBytes bounds multipart media uploads. Zero means the
	// default of 512MB.
	MaxUploadBytes int64 `json:"max_upload_bytes"`
}

// Data holds storage configuration.
type Data struct {
	Database Database `json:"database"`
	Redis    Redis    `json:"redis"`
}

// Database configures the Postgres pool.
type Database struct {
	Source string `json:"source"`
}

// Redis configures the Redis client.
type Redis struct {
	Addr         string   `json:"addr"`
	Password     string   `json:"password"`
	DB           int      `json:"db"`
	DialTimeout  Duration `json:"dial_timeout"`
	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`
}

// Moderation holds pipeline and engine configuration.
type Moderation struct {
	FFmpeg     FFmpeg  `json:"ffmpeg"`
	Classifier Engine  `json:"classifier"`
	Whisper    Whisper `json:"whisper"`
	Visual     Visual  `json:"visual"`
	Fusion     Fusion  `json:"fusion"`
	Cache      Cache   `json:"cache"`
}

// FFmpeg configures the transcoding engine binaries.
type FFmpeg struct {
	FFmpegPath  string   `json:"ffmpeg_path"`
	FFprobePath string   `json:"ffprobe_path"`
	TempDir     string   `json:"temp_dir"`
	Timeout     Duration `json:"timeout"`
}

// Engine configures an HTTP inference engine endpoint.
type Engine struct {
	BaseURL string   `json:"base_url"`
	Timeout Duration `json:"timeout"`
}

// Whisper configures the transcription engine endpoint.
type Whisper struct {
	BaseURL   string   `json:"base_url"`
	Timeout   Duration `json:"timeout"`
	Language  string   `json:"language"`
	Translate bool     `json:"translate"`
}

// Visual configures the visual moderation stage.
type Visual struct {
	// FrameDedupDistance below zero disables frame dedup; zero falls back
	// to the default.
	FrameDedupDistance int      `json:"frame_dedup_distance"`
	Timeout            Duration `json:"timeout"`
}

// Fusion overrides the fusion policy constants. Zero values keep the
// defaults.
type Fusion struct {
	VisualWeight float64 `json:"visual_weight"`
	TextWeight   float64 `json:"text_weight"`
}

// Cache configures the result cache.
type Cache struct {
	TTL Duration `json:"ttl"`
}

// Load reads and scans the bootstrap config from path. The returned
// cleanup closes the config watcher.
func Load(path string) (*Bootstrap, func(), error) {
	c := config.New(config.WithSource(file.NewSource(path)))
	if err := c.Load(); err != nil {
		c.Close()
		return nil, nil, err
	}

	var bc Bootstrap
	if err := c.Scan(&bc); err != nil {
		c.Close()
		return nil, nil, err
	}
	return &bc, func() { _ = c.Close() }, nil
}
