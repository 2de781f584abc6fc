package storage

import (
	"context"
	"fmt"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader - порт архива партий. Текущая реализация - Cloudflare R2.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// PGNKey строит ключ объекта для архивной копии PGN партии.
func PGNKey(tournamentID, roundNumber, gameID int) string {
	return fmt.Sprintf("pgn/%d/r%d/g%d.pgn", tournamentID, roundNumber, gameID)
}
