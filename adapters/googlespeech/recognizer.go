// Package googlespeech is an alternative transcription backend using Google
// Cloud Speech-to-Text with word time offsets. It serves audio already in
// Google Cloud Storage; the HTTP provider client remains the default.
package googlespeech

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/hmtran/audiolesson/domain/entities"
	"github.com/hmtran/audiolesson/domain/repositories"
)

// Recognizer implements Transcriber for gs:// audio URIs.
type Recognizer struct {
	languageCode string
	logger       *zap.Logger
}

var _ repositories.Transcriber = (*Recognizer)(nil)

func NewRecognizer(languageCode string, logger *zap.Logger) *Recognizer {
	if languageCode == "" {
		languageCode = "en-US"
	}
	return &Recognizer{languageCode: languageCode, logger: logger}
}

// Transcribe runs a blocking recognition over the audio URI and flattens
// the per-result word offsets into millisecond timestamps.
func (r *Recognizer) Transcribe(ctx context.Context, audioURL string) (*entities.Transcript, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	defer client.Close()

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               r.languageCode,
			EnableWordTimeOffsets:      true,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: audioURL},
		},
	})
	if err != nil {
		return nil, &entities.ExternalServiceError{Message: err.Error()}
	}

	var (
		texts []string
		words []entities.TranscriptWord
	)
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		best := result.Alternatives[0]
		texts = append(texts, best.Transcript)
		for _, w := range best.Words {
			words = append(words, entities.TranscriptWord{
				Text:       w.Word,
				StartMs:    int(w.StartTime.AsDuration().Milliseconds()),
				EndMs:      int(w.EndTime.AsDuration().Milliseconds()),
				Confidence: float64(best.Confidence),
			})
		}
	}

	if len(words) == 0 {
		return nil, &entities.ExternalServiceError{Message: "no speech detected in audio"}
	}

	r.logger.Info("Recognition completed",
		zap.String("audioURL", audioURL),
		zap.Int("words", len(words)))

	return &entities.Transcript{
		Text:  strings.Join(texts, " "),
		Words: words,
	}, nil
}
