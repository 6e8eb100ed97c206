package voice

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Transcriber turns captured audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
}

// DefaultWhisperURL is where a local whisper.cpp server listens by default.
const DefaultWhisperURL = "http://localhost:8178"

// WhisperServer transcribes by posting WAV audio to a local whisper.cpp
// server's /inference endpoint.
type WhisperServer struct {
	baseURL    string
	httpClient *http.Client
}

// NewWhisperServer creates a client for the given server URL.
func NewWhisperServer(url string, timeout time.Duration) *WhisperServer {
	if url == "" {
		url = DefaultWhisperURL
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &WhisperServer{
		baseURL:    strings.TrimRight(url, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Transcribe encodes the samples as 16-bit PCM WAV and posts them for
// transcription.
func (w *WhisperServer) Transcribe(ctx context.Context, samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "query.wav")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if err := EncodeWAV(part, samples, SampleRate); err != nil {
		return "", fmt.Errorf("encode wav: %w", err)
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("write field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("whisper status %d: %s", resp.StatusCode, string(b))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}

// EncodeWAV writes samples as a 16-bit PCM mono WAV stream.
func EncodeWAV(w io.Writer, samples []float32, sampleRate int) error {
	dataLen := len(samples) * 2

	var header bytes.Buffer
	header.WriteString("RIFF")
	binary.Write(&header, binary.LittleEndian, uint32(36+dataLen))
	header.WriteString("WAVEfmt ")
	binary.Write(&header, binary.LittleEndian, uint32(16))           // fmt chunk size
	binary.Write(&header, binary.LittleEndian, uint16(1))            // PCM
	binary.Write(&header, binary.LittleEndian, uint16(1))            // mono
	binary.Write(&header, binary.LittleEndian, uint32(sampleRate))   // sample rate
	binary.Write(&header, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(&header, binary.LittleEndian, uint16(2))            // block align
	binary.Write(&header, binary.LittleEndian, uint16(16))           // bits per sample
	header.WriteString("data")
	binary.Write(&header, binary.LittleEndian, uint32(dataLen))
	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}

	pcm := make([]byte, dataLen)
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(v*32767)))
	}
	_, err := w.Write(pcm)
	return err
}
