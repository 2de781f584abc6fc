// Package engine invokes the external pairing-generation program. The
// algorithm itself (Dutch/Burstein Swiss) lives entirely in that binary;
// this package only owns the subprocess boundary.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/volkovda/chess-arena/models"
)

var (
	// ErrEngineNotConfigured - бинарник движка отсутствует или не исполняем.
	// Фатальная ошибка конфигурации, не ретраится.
	ErrEngineNotConfigured = errors.New("pairing engine binary is missing or not executable")

	// ErrEngineExecution - движок завершился с ошибкой или не создал вывод.
	ErrEngineExecution = errors.New("pairing engine execution failed")
)

// Runner is the narrow port in front of the external engine, so an
// alternative backend (another binary, or an in-process algorithm) can be
// substituted without touching the round service.
type Runner interface {
	// Run feeds the encoded TRF to the engine for the given tournament and
	// round and returns the engine's raw TRF output.
	Run(ctx context.Context, trfInput string, system models.PairingSystem, tournamentID, roundNumber int) (string, error)
}

// ExecRunner запускает движок как подпроцесс:
//
//	<enginePath> --<dutch|burstein> <inputFile> -p <outputFile>
type ExecRunner struct {
	enginePath string
	timeout    time.Duration
	tempDir    string
}

func NewExecRunner(enginePath string, timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ExecRunner{
		enginePath: enginePath,
		timeout:    timeout,
		tempDir:    os.TempDir(),
	}
}

func (r *ExecRunner) Run(ctx context.Context, trfInput string, system models.PairingSystem, tournamentID, roundNumber int) (string, error) {
	if err := r.checkEngine(); err != nil {
		return "", err
	}

	// Имена содержат id турнира и номер тура, чтобы параллельные генерации
	// разных турниров не пересекались на диске.
	base := fmt.Sprintf("pairing_t%d_r%d_%d", tournamentID, roundNumber, time.Now().UnixNano())
	inputPath := filepath.Join(r.tempDir, base+"_input.trf")
	outputPath := filepath.Join(r.tempDir, base+"_output.trf")

	// Временные файлы удаляются на любом исходе, включая таймаут.
	defer func() {
		_ = os.Remove(inputPath)
		_ = os.Remove(outputPath)
	}()

	if err := os.WriteFile(inputPath, []byte(trfInput), 0o600); err != nil {
		return "", fmt.Errorf("failed to write engine input file: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.enginePath, "--"+string(system), inputPath, "-p", outputPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() != nil {
			return "", fmt.Errorf("%w: timed out after %v", ErrEngineExecution, r.timeout)
		}
		return "", fmt.Errorf("%w: %v (stdout: %s, stderr: %s)",
			ErrEngineExecution, err, stdout.String(), stderr.String())
	}
	if stderr.Len() > 0 {
		return "", fmt.Errorf("%w: engine reported diagnostics: %s", ErrEngineExecution, stderr.String())
	}

	output, err := os.ReadFile(outputPath)
	if err != nil {
		// Движок отчитался об успехе, но вывод отсутствует.
		return "", fmt.Errorf("%w: output file missing after successful exit: %v (stdout: %s)",
			ErrEngineExecution, err, stdout.String())
	}
	return string(output), nil
}

func (r *ExecRunner) checkEngine() error {
	info, err := os.Stat(r.enginePath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEngineNotConfigured, r.enginePath, err)
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%w: %s", ErrEngineNotConfigured, r.enginePath)
	}
	return nil
}
