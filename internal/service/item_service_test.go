package service

import (
	"context"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/repository"
	"github.com/re-earth/re-earth-api/internal/storage"
	"github.com/re-earth/re-earth-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memUploader keeps uploads in memory and rejects names containing "bad".
type memUploader struct {
	saved   []string
	removed []string
}

func (m *memUploader) Save(_ context.Context, fh *multipart.FileHeader) (storage.Stored, error) {
	if strings.Contains(fh.Filename, "bad") {
		return storage.Stored{}, storage.ErrNotImage
	}
	url := "mem://" + fh.Filename
	m.saved = append(m.saved, url)
	return storage.Stored{OriginalName: fh.Filename, URL: url}, nil
}

func (m *memUploader) Remove(_ context.Context, url string) error {
	m.removed = append(m.removed, url)
	return nil
}

func files(names ...string) []*multipart.FileHeader {
	out := make([]*multipart.FileHeader, 0, len(names))
	for _, n := range names {
		out = append(out, &multipart.FileHeader{Filename: n})
	}
	return out
}

func newItemService(t *testing.T) (ItemService, *memUploader, *gorm.DB) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	up := &memUploader{}
	return NewItemService(repository.NewItemRepository(db), up), up, db
}

func TestItemService_CreateAndGet(t *testing.T) {
	svc, up, _ := newItemService(t)
	ctx := context.Background()

	it, err := svc.Create(ctx, ItemInput{Name: " 업사이클 에코백 ", Price: 1200, StockNumber: 4}, files("front.png", "back.png"))
	require.NoError(t, err)
	assert.Equal(t, "업사이클 에코백", it.Name)
	assert.Equal(t, model.SellStatusSell, it.SellStatus)

	got, err := svc.Get(ctx, it.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 2)
	rep := got.RepImage()
	require.NotNil(t, rep)
	assert.Equal(t, "mem://front.png", rep.ImgURL)
	assert.Len(t, up.saved, 2)

	_, err = svc.Get(ctx, 9999)
	requireStatus(t, err, http.StatusNotFound)
}

func TestItemService_CreateRejectsBadImage(t *testing.T) {
	svc, up, db := newItemService(t)

	_, err := svc.Create(context.Background(), ItemInput{Name: "텀블러", Price: 100}, files("ok.png", "bad.txt"))
	requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, []string{"mem://ok.png"}, up.removed)
	assert.Zero(t, count(t, db, &model.Item{}))
}

func TestItemService_Validation(t *testing.T) {
	svc, _, _ := newItemService(t)
	cases := map[string]ItemInput{
		"blank name":     {Name: " ", Price: 1},
		"negative price": {Name: "a", Price: -1},
		"negative stock": {Name: "a", StockNumber: -1},
		"bad status":     {Name: "a", SellStatus: "HIDDEN"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), in, nil)
			requireStatus(t, err, http.StatusBadRequest)
		})
	}
}

func TestItemService_UpdateReplacesImages(t *testing.T) {
	svc, up, _ := newItemService(t)
	ctx := context.Background()
	it, err := svc.Create(ctx, ItemInput{Name: "비누", Price: 300, StockNumber: 1}, files("old.png"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, it.ID, ItemInput{Name: "고체 비누", Price: 350, SellStatus: "SOLD_OUT"}, files("new.png"))
	require.NoError(t, err)
	assert.Equal(t, "고체 비누", updated.Name)
	assert.Equal(t, model.SellStatusSoldOut, updated.SellStatus)
	require.Len(t, updated.Images, 1)
	assert.Equal(t, "mem://new.png", updated.Images[0].ImgURL)
	assert.Equal(t, []string{"mem://old.png"}, up.removed)

	kept, err := svc.Update(ctx, it.ID, ItemInput{Name: "고체 비누", Price: 400}, nil)
	require.NoError(t, err)
	assert.Len(t, kept.Images, 1)

	_, err = svc.Update(ctx, 9999, ItemInput{Name: "x"}, nil)
	requireStatus(t, err, http.StatusNotFound)
}

func TestItemService_ListAndDelete(t *testing.T) {
	svc, up, _ := newItemService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, ItemInput{Name: "a", Price: 1, StockNumber: 1}, files("a.png"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, ItemInput{Name: "b", Price: 1, SellStatus: "SOLD_OUT"}, nil)
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	selling, err := svc.List(ctx, "sell")
	require.NoError(t, err)
	require.Len(t, selling, 1)
	assert.Equal(t, a.ID, selling[0].ID)

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.Contains(t, up.removed, "mem://a.png")
	err = svc.Delete(ctx, a.ID)
	requireStatus(t, err, http.StatusNotFound)
}
