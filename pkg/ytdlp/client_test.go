package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// fakeBinary writes an executable shell script standing in for yt-dlp.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	return path
}

func TestNew_MissingBinary(t *testing.T) {
	_, err := New(Config{BinaryPath: filepath.Join(t.TempDir(), "nope")})
	if err == nil {
		t.Error("New should fail for a missing binary")
	}
}

func TestClient_Probe(t *testing.T) {
	bin := fakeBinary(t, `echo '{"id":"abc","title":"Clip","uploader":"Someone","duration":75,"thumbnail":"https://img/t.jpg","extractor_key":"Youtube"}'`)
	c, err := New(Config{BinaryPath: bin})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	info, err := c.Probe(context.Background(), "https://example.com/v")
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	if info.ID != "abc" || info.Title != "Clip" || info.Uploader != "Someone" {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.DurationString != "1:15" {
		t.Errorf("DurationString = %q, want 1:15", info.DurationString)
	}
	if info.ExtractorKey != "Youtube" {
		t.Errorf("ExtractorKey = %q", info.ExtractorKey)
	}
}

func TestClient_Probe_PassesOptions(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	bin := fakeBinary(t, `echo "$@" > `+argsFile+`
echo '{}'`)
	c, err := New(Config{
		BinaryPath:          bin,
		UserAgent:           "agent",
		PlayerClient:        "android",
		SocketTimeout:       30 * time.Second,
		ForceIPv4:           true,
		NoCheckCertificates: true,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := c.Probe(context.Background(), "https://example.com/v"); err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	data, _ := os.ReadFile(argsFile)
	args := string(data)
	for _, want := range []string{"--dump-single-json", "--no-playlist", "--socket-timeout 30", "--force-ipv4", "--no-check-certificates", "youtube:player_client=android", "-- https://example.com/v"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestClient_Probe_Failure(t *testing.T) {
	bin := fakeBinary(t, `echo "WARNING: noise" >&2
echo "ERROR: Unsupported URL" >&2
exit 1`)
	c, _ := New(Config{BinaryPath: bin})

	_, err := c.Probe(context.Background(), "https://example.com/v")
	if err == nil {
		t.Fatal("Probe should fail")
	}
	if !strings.Contains(err.Error(), "ERROR: Unsupported URL") {
		t.Errorf("error should carry stderr, got %v", err)
	}
}

func TestClient_Probe_InvalidJSON(t *testing.T) {
	bin := fakeBinary(t, `echo 'not json'`)
	c, _ := New(Config{BinaryPath: bin})

	if _, err := c.Probe(context.Background(), "https://example.com/v"); err == nil {
		t.Error("Probe should fail on invalid JSON")
	}
}

func TestClient_Fetch(t *testing.T) {
	dir := t.TempDir()
	// Substitute %(ext)s the way yt-dlp does.
	bin := fakeBinary(t, `while [ $# -gt 0 ]; do
  if [ "$1" = "--output" ]; then out="$2"; fi
  shift
done
printf 'media' > "$(echo "$out" | sed 's/%(ext)s/mp4/')"`)
	c, _ := New(Config{BinaryPath: bin})

	template := filepath.Join(dir, "temp_abc.%(ext)s")
	if err := c.Fetch(context.Background(), "https://example.com/v", "best", template); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "temp_abc.mp4"))
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if string(data) != "media" {
		t.Errorf("content = %q", data)
	}
}

func TestClient_Fetch_ContextCancelled(t *testing.T) {
	bin := fakeBinary(t, `exec sleep 5`)
	c, _ := New(Config{BinaryPath: bin})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Fetch(ctx, "https://example.com/v", "best", "/tmp/x.%(ext)s")
	if err == nil {
		t.Fatal("Fetch should fail when the context expires")
	}
	if !strings.Contains(err.Error(), "deadline exceeded") {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}

func TestClient_Version(t *testing.T) {
	bin := fakeBinary(t, `echo "2024.08.06"`)
	c, _ := New(Config{BinaryPath: bin})

	v, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if v != "2024.08.06" {
		t.Errorf("Version = %q", v)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{5, "0:05"},
		{75, "1:15"},
		{3661, "1:01:01"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
