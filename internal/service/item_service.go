package service

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/re-earth/re-earth-api/internal/logging"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/repository"
	"github.com/re-earth/re-earth-api/internal/storage"
)

type ItemInput struct {
	Name        string
	Price       int64
	Detail      string
	SellStatus  string
	StockNumber int64
	Summary     string
	BrandName   string
	VendorName  string
}

type ItemService interface {
	Create(ctx context.Context, in ItemInput, files []*multipart.FileHeader) (*model.Item, error)
	Get(ctx context.Context, id uint64) (*model.Item, error)
	List(ctx context.Context, sellStatus string) ([]model.Item, error)
	Update(ctx context.Context, id uint64, in ItemInput, files []*multipart.FileHeader) (*model.Item, error)
	Delete(ctx context.Context, id uint64) error
}

type itemService struct {
	repo     repository.ItemRepository
	uploader storage.Uploader
}

func NewItemService(repo repository.ItemRepository, uploader storage.Uploader) ItemService {
	return &itemService{repo: repo, uploader: uploader}
}

func (in ItemInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return badRequest("상품명을 입력하세요.")
	}
	if in.Price < 0 {
		return badRequest("가격은 0 이상이어야 합니다.")
	}
	if in.StockNumber < 0 {
		return badRequest("재고 수량은 0 이상이어야 합니다.")
	}
	switch model.SellStatus(in.SellStatus) {
	case "", model.SellStatusSell, model.SellStatusSoldOut:
	default:
		return badRequest("판매 상태는 SELL 또는 SOLD_OUT 이어야 합니다.")
	}
	return nil
}

func (in ItemInput) apply(it *model.Item) {
	it.Name = strings.TrimSpace(in.Name)
	it.Price = in.Price
	it.Detail = in.Detail
	it.SellStatus = model.SellStatus(in.SellStatus)
	if it.SellStatus == "" {
		it.SellStatus = model.SellStatusSell
	}
	it.StockNumber = in.StockNumber
	it.Summary = in.Summary
	it.BrandName = in.BrandName
	it.VendorName = in.VendorName
}

// saveImages stores every file, marking the first as representative. On failure
// files already written are removed.
func (s *itemService) saveImages(ctx context.Context, files []*multipart.FileHeader) ([]model.ItemImage, error) {
	images := make([]model.ItemImage, 0, len(files))
	for i, fh := range files {
		stored, err := s.uploader.Save(ctx, fh)
		if err != nil {
			s.removeImages(ctx, images)
			if errors.Is(err, storage.ErrNotImage) || errors.Is(err, storage.ErrTooLarge) {
				return nil, badRequest(err.Error())
			}
			return nil, err
		}
		rep := "N"
		if i == 0 {
			rep = "Y"
		}
		images = append(images, model.ItemImage{OriginalName: stored.OriginalName, ImgURL: stored.URL, RepImgYn: rep})
	}
	return images, nil
}

func (s *itemService) removeImages(ctx context.Context, images []model.ItemImage) {
	for _, img := range images {
		if err := s.uploader.Remove(ctx, img.ImgURL); err != nil {
			logging.FromContext(ctx).WithError(err).WithField("url", img.ImgURL).Warn("[item] remove image failed")
		}
	}
}

func (s *itemService) Create(ctx context.Context, in ItemInput, files []*multipart.FileHeader) (*model.Item, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	images, err := s.saveImages(ctx, files)
	if err != nil {
		return nil, err
	}
	item := &model.Item{Images: images}
	in.apply(item)
	if err := s.repo.Create(ctx, item); err != nil {
		s.removeImages(ctx, images)
		return nil, err
	}
	return item, nil
}

func (s *itemService) Get(ctx context.Context, id uint64) (*model.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "해당 상품을 찾을 수 없습니다")
	}
	return item, nil
}

func (s *itemService) List(ctx context.Context, sellStatus string) ([]model.Item, error) {
	return s.repo.List(ctx, strings.ToUpper(strings.TrimSpace(sellStatus)))
}

func (s *itemService) Update(ctx context.Context, id uint64, in ItemInput, files []*multipart.FileHeader) (*model.Item, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "해당상품을 찾을 수 없습니다.")
	}
	in.apply(item)

	var images []model.ItemImage
	if len(files) > 0 {
		if images, err = s.saveImages(ctx, files); err != nil {
			return nil, err
		}
	}
	old, err := s.repo.Update(ctx, item, images)
	if err != nil {
		s.removeImages(ctx, images)
		return nil, err
	}
	s.removeImages(ctx, old)
	return s.repo.FindByID(ctx, id)
}

func (s *itemService) Delete(ctx context.Context, id uint64) error {
	images, err := s.repo.Delete(ctx, id)
	if err != nil {
		return notFoundAs(err, "해당 상품을 찾을 수 없습니다")
	}
	s.removeImages(ctx, images)
	return nil
}
