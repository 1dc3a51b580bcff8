package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vigilops/vigil-backend/internal/videoai"
)

// Invoker runs the remote analysis capability against a ready asset and
// returns the complete textual result, whichever call shape produced it.
type Invoker struct {
	client videoai.Client
	logger *slog.Logger
}

func NewInvoker(client videoai.Client, logger *slog.Logger) *Invoker {
	return &Invoker{client: client, logger: logger}
}

// AnalyzeBatch issues a single call and extracts the result text.
func (v *Invoker) AnalyzeBatch(ctx context.Context, assetID, prompt string) (string, error) {
	text, err := v.client.Analyze(ctx, assetID, prompt)
	if err != nil {
		return "", fmt.Errorf("analyze asset %s: %w", assetID, err)
	}
	return text, nil
}

// AnalyzeStreaming drains the event stream to completion, concatenating
// text-generation fragments in arrival order.
func (v *Invoker) AnalyzeStreaming(ctx context.Context, assetID, prompt string) (string, error) {
	stream, err := v.client.AnalyzeStream(ctx, assetID, prompt)
	if err != nil {
		return "", fmt.Errorf("analyze asset %s: %w", assetID, err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		ev, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("analyze asset %s: %w", assetID, err)
		}
		if ev.EventType == videoai.EventTextGeneration {
			sb.WriteString(ev.Text)
		}
	}

	v.logger.Debug("streaming analysis drained", "asset_id", assetID, "text_bytes", sb.Len())
	return sb.String(), nil
}
