package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/re-earth/re-earth-api/internal/config"
	"github.com/re-earth/re-earth-api/internal/db"
	"github.com/re-earth/re-earth-api/internal/logging"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/repository"
	"github.com/re-earth/re-earth-api/internal/service"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type seedItem struct {
	Name    string
	Summary string
	Brand   string
	Price   int64
	Stock   int64
	Slug    string
}

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("seed failed")
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.LogLvl, cfg.IsProduction())

	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := seedActions(ctx, gdb); err != nil {
		return err
	}
	if err := seedAdmin(ctx, gdb); err != nil {
		return err
	}
	return seedItems(ctx, gdb)
}

func defaultActions() []model.EcoAction {
	return []model.EcoAction{
		{Code: model.EcoActionBicycle, Description: "공공자전거 주행", Unit: "KM", CarbonUnit: 0.21, PointUnit: 8, Active: true},
		{Code: model.EcoActionPet, Description: "페트병 분리수거", Unit: "EA", CarbonUnit: 0.05, PointUnit: 10, Active: true},
	}
}

// seedActions inserts the eco actions the saving flows depend on. Existing codes are left alone.
func seedActions(ctx context.Context, gdb *gorm.DB) error {
	actions := defaultActions()
	res := gdb.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&actions)
	if res.Error != nil {
		return fmt.Errorf("seed eco actions: %w", res.Error)
	}
	logrus.WithField("inserted", res.RowsAffected).Info("[seed] eco actions")
	return nil
}

func seedAdmin(ctx context.Context, gdb *gorm.DB) error {
	email := strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL"))
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		logrus.Info("[seed] SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD not set; skipping admin")
		return nil
	}
	users := repository.NewUserRepository(gdb)
	auth := service.NewAuthService(users, nil)

	u, err := auth.Join(ctx, service.JoinInput{
		Email:    email,
		Name:     "관리자",
		Address:  "-",
		Password: password,
		LoginID:  "admin",
	})
	var se *service.Error
	switch {
	case errors.As(err, &se) && se.Code == "conflict":
		if u, err = users.FindByEmail(ctx, strings.ToLower(email)); err != nil {
			return fmt.Errorf("find admin: %w", err)
		}
	case err != nil:
		return fmt.Errorf("create admin: %w", err)
	}
	if err := users.Update(ctx, u.ID, map[string]interface{}{"role": model.RoleAdmin}); err != nil {
		return fmt.Errorf("promote admin: %w", err)
	}
	logrus.WithField("id", u.ID).Info("[seed] admin ready")
	return nil
}

func seedItems(ctx context.Context, gdb *gorm.DB) error {
	canSeed, err := shouldSeed(ctx, gdb)
	if err != nil {
		return err
	}
	if !canSeed {
		logrus.Info("[seed] items already exist; skipping (set FORCE_SEED=true to override)")
		return nil
	}

	items := buildSeedItems()
	repo := repository.NewItemRepository(gdb)
	for idx, it := range items {
		item := &model.Item{
			Name:        it.Name,
			Price:       it.Price,
			Detail:      fmt.Sprintf("%s. 친환경 소재로 만든 %s 제품입니다.", it.Summary, it.Brand),
			SellStatus:  model.SellStatusSell,
			StockNumber: it.Stock,
			Summary:     it.Summary,
			BrandName:   it.Brand,
			VendorName:  "RE-Earth",
			Images: []model.ItemImage{{
				OriginalName: fmt.Sprintf("%s-%d.jpg", it.Slug, idx+1),
				ImgURL:       picsumURL(it.Slug, idx+1),
				RepImgYn:     "Y",
			}},
		}
		if err := repo.Create(ctx, item); err != nil {
			return fmt.Errorf("insert item %q: %w", it.Name, err)
		}
	}
	logrus.WithField("count", len(items)).Info("[seed] items")
	return nil
}

func buildSeedItems() []seedItem {
	type cat struct {
		Slug   string
		Brand  string
		Price  int64
		Titles []string
	}
	categories := []cat{
		{Slug: "tumbler", Brand: "GreenCup", Price: 1500, Titles: []string{"스테인리스 텀블러 500ml", "대나무 뚜껑 보온병", "접이식 실리콘 컵"}},
		{Slug: "bag", Brand: "ReBag", Price: 1200, Titles: []string{"업사이클 에코백", "폐현수막 토트백", "메쉬 장바구니"}},
		{Slug: "kitchen", Brand: "Zero", Price: 800, Titles: []string{"밀랍 랩 3종", "대나무 칫솔 세트", "천연 수세미"}},
		{Slug: "plant", Brand: "Seedling", Price: 1000, Titles: []string{"다육 식물 키트", "허브 씨앗 모음", "재생 화분"}},
	}

	var items []seedItem
	for _, c := range categories {
		for i, t := range c.Titles {
			items = append(items, seedItem{
				Name:    t,
				Summary: t + " 한정 수량",
				Brand:   c.Brand,
				Price:   c.Price + int64(i*300),
				Stock:   int64(20 + i*10),
				Slug:    c.Slug,
			})
		}
	}
	return items
}

func shouldSeed(ctx context.Context, gdb *gorm.DB) (bool, error) {
	var cnt int64
	if err := gdb.WithContext(ctx).Model(&model.Item{}).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("count items: %w", err)
	}
	if cnt == 0 {
		return true, nil
	}
	return strings.EqualFold(os.Getenv("FORCE_SEED"), "true"), nil
}

func picsumURL(slug string, itemIndex int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s-%d/600/600", slug, itemIndex)
}
