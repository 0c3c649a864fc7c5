package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultBaseURL    = "https://generativelanguage.googleapis.com"
	defaultSampleRate = 24000
	maxRetries        = 3
)

// Client synthesizes speech through the Gemini generateContent API. The
// provider returns raw 16-bit mono PCM, base64 encoded, with the sample
// rate carried in the MIME type (audio/L16;codec=pcm;rate=24000).
type Client struct {
	apiKey     string
	model      string
	voiceName  string
	baseURL    string
	backoff    time.Duration
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient(apiKey, model, voiceName string, logger zerolog.Logger) *Client {
	if model == "" {
		model = "gemini-2.5-flash-preview-tts"
	}
	if voiceName == "" {
		voiceName = "Kore"
	}

	return &Client{
		apiKey:    apiKey,
		model:     model,
		voiceName: voiceName,
		baseURL:   defaultBaseURL,
		backoff:   time.Second,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// WithBaseURL points the client at a different API host. Used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// WithBackoff overrides the initial retry delay. Used by tests.
func (c *Client) WithBackoff(d time.Duration) *Client {
	c.backoff = d
	return c
}

// Audio is one synthesized utterance.
type Audio struct {
	PCM        []byte
	SampleRate int
	MIMEType   string
}

type ttsRequest struct {
	Contents         []ttsContent        `json:"contents"`
	GenerationConfig ttsGenerationConfig `json:"generationConfig"`
}

type ttsContent struct {
	Parts []ttsPart `json:"parts"`
}

type ttsPart struct {
	Text       string         `json:"text,omitempty"`
	InlineData *ttsInlineData `json:"inlineData,omitempty"`
}

type ttsInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type ttsGenerationConfig struct {
	ResponseModalities []string        `json:"responseModalities"`
	SpeechConfig       ttsSpeechConfig `json:"speechConfig"`
}

type ttsSpeechConfig struct {
	VoiceConfig ttsVoiceConfig `json:"voiceConfig"`
}

type ttsVoiceConfig struct {
	PrebuiltVoiceConfig ttsPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type ttsPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type ttsResponse struct {
	Candidates []struct {
		Content ttsContent `json:"content"`
	} `json:"candidates"`
}

// Synthesize turns text into playable audio. Transient failures are
// retried up to three times with exponential backoff (1s, 2s, 4s); the
// last error is surfaced after exhaustion so the caller can show it.
func (c *Client) Synthesize(ctx context.Context, text string) (*Audio, error) {
	reqBody := ttsRequest{
		Contents: []ttsContent{{Parts: []ttsPart{{Text: text}}}},
		GenerationConfig: ttsGenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: ttsSpeechConfig{
				VoiceConfig: ttsVoiceConfig{
					PrebuiltVoiceConfig: ttsPrebuiltVoice{VoiceName: c.voiceName},
				},
			},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	backoff := c.backoff
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn().Err(lastErr).Int("attempt", attempt).Dur("backoff", backoff).Msg("retrying TTS request")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		audio, err := c.synthesizeOnce(ctx, endpoint, jsonBody)
		if err == nil {
			return audio, nil
		}
		if !isTransient(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("TTS request failed after %d retries: %w", maxRetries, lastErr)
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	_, ok := err.(*transientError)
	return ok
}

func (c *Client) synthesizeOnce(ctx context.Context, endpoint string, body []byte) (*Audio, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transientError{fmt.Errorf("TTS request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &transientError{fmt.Errorf("TTS error (status %d): %s", resp.StatusCode, string(respBody))}
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("TTS error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var ttsResp ttsResponse
	if err := json.NewDecoder(resp.Body).Decode(&ttsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(ttsResp.Candidates) == 0 || len(ttsResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("TTS response missing audio data")
	}

	inline := ttsResp.Candidates[0].Content.Parts[0].InlineData
	if inline == nil || inline.Data == "" {
		return nil, fmt.Errorf("TTS response missing audio data")
	}

	pcm, err := base64.StdEncoding.DecodeString(inline.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio payload: %w", err)
	}

	return &Audio{
		PCM:        pcm,
		SampleRate: sampleRateFromMIME(inline.MIMEType),
		MIMEType:   inline.MIMEType,
	}, nil
}

// sampleRateFromMIME pulls the rate parameter out of a MIME type like
// "audio/L16;codec=pcm;rate=24000", defaulting when absent.
func sampleRateFromMIME(mime string) int {
	for _, param := range strings.Split(mime, ";") {
		param = strings.TrimSpace(param)
		if rate, ok := strings.CutPrefix(param, "rate="); ok {
			if n, err := strconv.Atoi(rate); err == nil && n > 0 {
				return n
			}
		}
	}
	return defaultSampleRate
}

// WAV wraps the raw PCM samples in a 44-byte RIFF header so the result is
// playable as a standalone file. Assumes 16-bit mono little-endian, which
// is what the provider emits.
func (a *Audio) WAV() []byte {
	const (
		numChannels   = 1
		bitsPerSample = 16
	)

	byteRate := a.SampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataLen := len(a.PCM)

	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM format
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(buf, binary.LittleEndian, uint32(a.SampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(a.PCM)

	return buf.Bytes()
}
