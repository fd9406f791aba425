package handlers

import (
	"context"

	"github.com/wilsonalvesmartins/grapaz/models"
)

type StorageInterface interface {
	GetAllBids(ctx context.Context) ([]models.Bid, error)
	GetBid(ctx context.Context, id string) (*models.Bid, error)
	PutBid(ctx context.Context, bid *models.Bid) error
	PatchBid(ctx context.Context, id string, fields map[string]any) error
	DeleteBid(ctx context.Context, id string) error

	GetAllFiles(ctx context.Context, fileType models.FileType) ([]models.FileRecord, error)
	GetFile(ctx context.Context, id int) (*models.FileRecord, error)
	AddFile(ctx context.Context, file *models.FileRecord) error
	DeleteFile(ctx context.Context, id int) error
}
