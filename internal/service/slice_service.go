package service

import (
	"context"
	"log/slog"

	"github.com/superdayz/studio-api/internal/models"
)

// SliceService exposes the per-user key-value slices: brand kit, uploaded
// models, folders and campaigns. Each slice round-trips independently of
// the others.
type SliceService struct {
	log    *slog.Logger
	slices sliceStore
}

func NewSliceService(log *slog.Logger, slices sliceStore) *SliceService {
	return &SliceService{log: log, slices: slices}
}

func (s *SliceService) BrandKit(ctx context.Context, email string) (*models.BrandKit, error) {
	var kit models.BrandKit
	if _, err := s.slices.Load(ctx, email, models.SliceBrandKit, &kit); err != nil {
		return nil, err
	}
	return &kit, nil
}

func (s *SliceService) SaveBrandKit(ctx context.Context, email string, kit *models.BrandKit) error {
	return s.slices.Save(ctx, email, models.SliceBrandKit, kit)
}

func (s *SliceService) UploadedModels(ctx context.Context, email string) ([]models.UploadedModel, error) {
	list := []models.UploadedModel{}
	if _, err := s.slices.Load(ctx, email, models.SliceModels, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *SliceService) SaveUploadedModels(ctx context.Context, email string, list []models.UploadedModel) error {
	return s.slices.Save(ctx, email, models.SliceModels, list)
}

func (s *SliceService) Folders(ctx context.Context, email string) ([]models.Folder, error) {
	list := []models.Folder{}
	if _, err := s.slices.Load(ctx, email, models.SliceFolders, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *SliceService) SaveFolders(ctx context.Context, email string, list []models.Folder) error {
	return s.slices.Save(ctx, email, models.SliceFolders, list)
}

func (s *SliceService) Campaigns(ctx context.Context, email string) ([]models.Campaign, error) {
	list := []models.Campaign{}
	if _, err := s.slices.Load(ctx, email, models.SliceCampaigns, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *SliceService) SaveCampaigns(ctx context.Context, email string, list []models.Campaign) error {
	return s.slices.Save(ctx, email, models.SliceCampaigns, list)
}
