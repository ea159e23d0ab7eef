package intelligence

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

// SpeechTranscriber turns short WAV recordings into text with Google Cloud
// Speech. Audio is normalized to 16 kHz mono LINEAR16 with ffmpeg first.
type SpeechTranscriber struct {
	client *speech.Client
}

func NewSpeechTranscriber(ctx context.Context, credentialsFile string) (*SpeechTranscriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speech client: %w", err)
	}
	return &SpeechTranscriber{client: client}, nil
}

func (s *SpeechTranscriber) Close() error {
	return s.client.Close()
}

// Transcribe returns the concatenated best alternatives of every result.
func (s *SpeechTranscriber) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	if language == "" {
		language = "en-US"
	}
	pcm, err := convertAudio(ctx, audio)
	if err != nil {
		return "", err
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   16000,
			LanguageCode:      language,
			AudioChannelCount: 1, // Mono
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: pcm},
		},
	}
	resp, err := s.client.Recognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		transcript.WriteString(result.Alternatives[0].Transcript)
		transcript.WriteString(" ")
	}
	return strings.TrimSpace(transcript.String()), nil
}

func convertAudio(ctx context.Context, audio []byte) ([]byte, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found in system PATH: %w", err)
	}

	in, err := os.CreateTemp("", "audio-*.wav")
	if err != nil {
		return nil, err
	}
	defer os.Remove(in.Name())
	if _, err := in.Write(audio); err != nil {
		in.Close()
		return nil, err
	}
	in.Close()

	out, err := os.CreateTemp("", "converted-*.wav")
	if err != nil {
		return nil, err
	}
	out.Close()
	defer os.Remove(out.Name())

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", in.Name(),
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		out.Name(),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg conversion failed: %s", strings.TrimSpace(stderr.String()))
	}
	return os.ReadFile(out.Name())
}
