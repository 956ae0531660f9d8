package trainer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"mlbeam-backend/internal/models"
)

// ScriptTrainer runs the training script as a subprocess. The corpus snapshot
// is passed as JSON on stdin; the script writes a Result as JSON to stdout and
// signals failure with a non-zero exit code.
type ScriptTrainer struct {
	interpreter string
	scriptPath  string
	artifactDir string
	logger      *zap.Logger
}

type scriptRequest struct {
	ArtifactDir string                `json:"artifact_dir"`
	Samples     []*models.CorpusEntry `json:"samples"`
}

// NewScriptTrainer creates a subprocess-backed trainer.
func NewScriptTrainer(interpreter, scriptPath, artifactDir string, logger *zap.Logger) *ScriptTrainer {
	return &ScriptTrainer{
		interpreter: interpreter,
		scriptPath:  scriptPath,
		artifactDir: artifactDir,
		logger:      logger,
	}
}

// Train invokes the script and decodes its output. The context bounds the
// whole run; on expiry the subprocess is killed.
func (t *ScriptTrainer) Train(ctx context.Context, snapshot []*models.CorpusEntry) (*Result, error) {
	payload, err := json.Marshal(scriptRequest{
		ArtifactDir: t.artifactDir,
		Samples:     snapshot,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal training request: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.interpreter, t.scriptPath)
	cmd.Stdin = bytes.NewReader(payload)
	// A killed interpreter can leave child processes holding the output pipe.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	t.logger.Info("Invoking training script",
		zap.String("script", t.scriptPath),
		zap.Int("samples", len(snapshot)))

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("training script timed out: %w", ctx.Err())
		}
		diag := strings.TrimSpace(stderr.String())
		if diag != "" {
			return nil, fmt.Errorf("training script failed: %w: %s", err, diag)
		}
		return nil, fmt.Errorf("training script failed: %w", err)
	}

	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("training script produced malformed output: %w", err)
	}

	return &result, nil
}
