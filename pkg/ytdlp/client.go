// Package ytdlp wraps the yt-dlp command line extractor.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Config controls how yt-dlp is invoked.
type Config struct {
	BinaryPath          string
	UserAgent           string
	PlayerClient        string
	SocketTimeout       time.Duration
	ForceIPv4           bool
	NoCheckCertificates bool
}

// Client runs yt-dlp as a subprocess.
type Client struct {
	binPath string
	cfg     Config
}

// New creates a client. The binary is resolved through PATH when
// BinaryPath is not absolute.
func New(cfg Config) (*Client, error) {
	binPath, err := exec.LookPath(cfg.BinaryPath)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp not found: %w", err)
	}
	return &Client{binPath: binPath, cfg: cfg}, nil
}

// Info is the subset of the yt-dlp info dict used by callers.
type Info struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Caption        string  `json:"caption"`
	Uploader       string  `json:"uploader"`
	Channel        string  `json:"channel"`
	Duration       float64 `json:"duration"`
	DurationString string  `json:"duration_string"`
	Thumbnail      string  `json:"thumbnail"`
	ExtractorKey   string  `json:"extractor_key"`
	WebpageURL     string  `json:"webpage_url"`
}

// Probe extracts metadata for url without downloading media.
func (c *Client) Probe(ctx context.Context, url string) (*Info, error) {
	args := append(c.commonArgs(),
		"--dump-single-json",
		"--flat-playlist",
		"--skip-download",
		"--",
		url,
	)

	stdout, err := c.run(ctx, args)
	if err != nil {
		return nil, err
	}

	var info Info
	if err := json.Unmarshal(stdout, &info); err != nil {
		return nil, fmt.Errorf("parse yt-dlp output: %w", err)
	}
	if info.DurationString == "" && info.Duration > 0 {
		info.DurationString = formatDuration(info.Duration)
	}
	return &info, nil
}

// Fetch downloads url using the format selector, writing to outputTemplate.
// The template must contain %(ext)s; yt-dlp substitutes the real extension.
func (c *Client) Fetch(ctx context.Context, url, selector, outputTemplate string) error {
	args := append(c.commonArgs(),
		"--format", selector,
		"--output", outputTemplate,
		"--no-part",
		"--no-mtime",
		"--",
		url,
	)

	_, err := c.run(ctx, args)
	return err
}

// Version returns the yt-dlp version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.run(ctx, []string{"--version"})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (c *Client) commonArgs() []string {
	args := []string{
		"--no-playlist",
		"--no-warnings",
		"--ignore-errors",
		"--no-color",
		"--no-progress",
	}
	if c.cfg.SocketTimeout > 0 {
		args = append(args, "--socket-timeout", strconv.Itoa(int(c.cfg.SocketTimeout.Seconds())))
	}
	if c.cfg.ForceIPv4 {
		args = append(args, "--force-ipv4")
	}
	if c.cfg.NoCheckCertificates {
		args = append(args, "--no-check-certificates")
	}
	if c.cfg.UserAgent != "" {
		args = append(args, "--user-agent", c.cfg.UserAgent)
	}
	if c.cfg.PlayerClient != "" {
		args = append(args, "--extractor-args", "youtube:player_client="+c.cfg.PlayerClient)
	}
	return args
}

func (c *Client) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.binPath, args...)
	// yt-dlp may leave ffmpeg children holding the output pipes.
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("yt-dlp: %w", ctxErr)
		}
		if msg := lastLine(stderr.String()); msg != "" {
			return nil, fmt.Errorf("yt-dlp: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}
	return stdout.Bytes(), nil
}

// lastLine returns the last non-empty line, which is where yt-dlp puts
// its ERROR: message.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

func formatDuration(seconds float64) string {
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
