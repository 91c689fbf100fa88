// Command tryon composes a single try-on image from local files and writes
// the result to disk. It exists for smoke-testing the generation pipeline
// without the HTTP surface.
package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"vton/internal/genai"
	"vton/internal/imaging"
	"vton/internal/infra"
	"vton/internal/vton"
)

// terminalKey is a stdin-backed credential source. It doubles as the key
// source for the API client and the prompt gate for the try-on client.
type terminalKey struct {
	mu  sync.Mutex
	key string
}

func (t *terminalKey) GeminiAPIKey(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.key, nil
}

func (t *terminalKey) HasValidCredential(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.key != "", nil
}

func (t *terminalKey) PromptForCredential(ctx context.Context) error {
	fmt.Fprint(os.Stderr, "Gemini API key: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("read api key: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return fmt.Errorf("api key is required")
	}
	t.mu.Lock()
	t.key = key
	t.mu.Unlock()
	return nil
}

func main() {
	var (
		subjectFlag  string
		garmentsFlag string
		descFlag     string
		outFlag      string
		keyFlag      string
		timeoutFlag  time.Duration
	)
	flag.StringVar(&subjectFlag, "subject", "", "Path to the subject photo")
	flag.StringVar(&garmentsFlag, "garments", "", "Comma-separated paths to garment images")
	flag.StringVar(&descFlag, "desc", "", "Comma-separated garment descriptions, matching -garments order")
	flag.StringVar(&outFlag, "out", "tryon.jpg", "Output image path")
	flag.StringVar(&keyFlag, "key", "", "Gemini API key (falls back to GEMINI_API_KEY, then an interactive prompt)")
	flag.DurationVar(&timeoutFlag, "timeout", 3*time.Minute, "Overall generation timeout")
	flag.Parse()

	_ = godotenv.Load()

	if subjectFlag == "" || garmentsFlag == "" {
		fmt.Fprintln(os.Stderr, "-subject and -garments are required")
		os.Exit(1)
	}

	keys := &terminalKey{key: strings.TrimSpace(keyFlag)}
	if keys.key == "" {
		keys.key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}

	logger := infra.NewLogger("cli").With().Str("cmd", "tryon").Logger()
	codec := imaging.NewCodec(nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), timeoutFlag)
	defer cancel()

	subject, err := encodeFile(codec, subjectFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read subject: %v\n", err)
		os.Exit(1)
	}

	paths := strings.Split(garmentsFlag, ",")
	descs := strings.Split(descFlag, ",")
	garments := make([]vton.GarmentInput, 0, len(paths))
	for i, path := range paths {
		path = strings.TrimSpace(path)
		encoded, err := encodeFile(codec, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read garment %s: %v\n", path, err)
			os.Exit(1)
		}
		desc := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if i < len(descs) && strings.TrimSpace(descs[i]) != "" {
			desc = strings.TrimSpace(descs[i])
		}
		garments = append(garments, vton.GarmentInput{Image: encoded, Description: desc})
	}

	api, err := genai.NewClient(genai.Options{
		Keys:   keys,
		Model:  strings.TrimSpace(os.Getenv("GEMINI_MODEL")),
		Logger: logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build gemini client: %v\n", err)
		os.Exit(1)
	}

	client := vton.NewClient(api, keys, logger)
	result, err := client.Submit(ctx, subject, garments)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	raw, err := base64.StdEncoding.DecodeString(imaging.StripTransportPrefix(result))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to decode result: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outFlag, raw, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", outFlag, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d bytes)\n", outFlag, len(raw))
}

func encodeFile(codec *imaging.Codec, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	mediaType := mime.TypeByExtension(filepath.Ext(path))
	if mediaType == "" {
		mediaType = "image/jpeg"
	}
	return codec.EncodeFromFile(filepath.Base(path), mediaType, f)
}
