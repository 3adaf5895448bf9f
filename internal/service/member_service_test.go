package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/repository"
	"github.com/re-earth/re-earth-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newMemberService(t *testing.T) (*memberService, *gorm.DB) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	svc := NewMemberService(repository.NewMemberRepository(db), repository.NewUserRepository(db)).(*memberService)
	return svc, db
}

func TestMemberService_List(t *testing.T) {
	svc, db := newMemberService(t)
	ctx := context.Background()

	rich := seedUser(t, db, "rich01", model.RoleUser)
	poor := seedUser(t, db, "poor01", model.RoleUser)
	seedUser(t, db, "admin01", model.RoleAdmin)
	credit(t, db, rich.ID, 500)
	credit(t, db, rich.ID, 200)
	credit(t, db, poor.ID, 50)

	page, err := svc.List(ctx, MemberQuery{Sort: "pointTotal", Order: "desc"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.EqualValues(t, 1, page.TotalPages)
	require.Len(t, page.List, 3)
	assert.Equal(t, rich.ID, page.List[0].ID)
	assert.EqualValues(t, 700, page.List[0].PointTotal)
	assert.EqualValues(t, 0, page.List[2].PointTotal)

	page, err = svc.List(ctx, MemberQuery{MinPoint: "100"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.List, 1)
	assert.Equal(t, "rich01", page.List[0].LoginID)

	page, err = svc.List(ctx, MemberQuery{LoginID: "oor", Size: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, poor.ID, page.List[0].ID)

	page, err = svc.List(ctx, MemberQuery{Size: 2, Page: 2, Sort: "id", Order: "asc"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalPages)
	require.Len(t, page.List, 1)
	assert.Equal(t, "admin01", page.List[0].LoginID)

	_, err = svc.List(ctx, MemberQuery{JoinedFrom: "2024/01/01"})
	requireStatus(t, err, http.StatusBadRequest)
	_, err = svc.List(ctx, MemberQuery{MaxPoint: "lots"})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestMemberService_Stats(t *testing.T) {
	svc, db := newMemberService(t)
	now := time.Now()
	svc.now = func() time.Time { return now }

	seedUser(t, db, "fresh01", model.RoleUser)
	seedUser(t, db, "admin01", model.RoleAdmin)
	old := seedUser(t, db, "old01", model.RoleUser)
	require.NoError(t, db.Model(old).UpdateColumn("created_at", now.AddDate(0, 0, -30)).Error)

	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, st.TotalUsers)
	assert.EqualValues(t, 1, st.ByRole[model.RoleAdmin])
	assert.EqualValues(t, 2, st.ByRole[model.RoleUser])
	assert.EqualValues(t, 2, st.NewUsers7d)
	require.Len(t, st.SignupsByDay, 7)
	assert.EqualValues(t, 2, st.SignupsByDay[6].Count)
	assert.Len(t, st.RecentMembers, 3)
}

func TestMemberService_Update(t *testing.T) {
	svc, db := newMemberService(t)
	ctx := context.Background()
	u := seedUser(t, db, "edit01", model.RoleUser)

	role, phone := "admin", "01099998888"
	got, err := svc.Update(ctx, u.ID, MemberUpdate{Role: &role, PhoneNumber: &phone})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)
	require.NotNil(t, got.PhoneNumber)
	assert.Equal(t, "010-9999-8888", *got.PhoneNumber)

	bad := "ROOT"
	_, err = svc.Update(ctx, u.ID, MemberUpdate{Role: &bad})
	requireStatus(t, err, http.StatusBadRequest)
	blank := " "
	_, err = svc.Update(ctx, u.ID, MemberUpdate{Name: &blank})
	requireStatus(t, err, http.StatusBadRequest)
	_, err = svc.Update(ctx, 9999, MemberUpdate{Role: &role})
	requireStatus(t, err, http.StatusNotFound)
}

func TestMemberService_BulkDeleteKeepsDonations(t *testing.T) {
	svc, db := newMemberService(t)
	ctx := context.Background()
	u := seedUser(t, db, "leaver01", model.RoleUser)
	stay := seedUser(t, db, "stay01", model.RoleUser)
	credit(t, db, u.ID, 100)
	credit(t, db, stay.ID, 100)
	require.NoError(t, db.Create(&model.Qna{UserID: u.ID, Title: "t", Question: "q"}).Error)
	d := &model.Donation{
		UserID:     &u.ID,
		DonorName:  "떠나는 사람",
		DonorPhone: "010-1234-5678",
		Zipcode:    "04001",
		Address1:   "서울시 마포구",
		PickupDate: time.Now().AddDate(0, 0, 3),
	}
	require.NoError(t, db.Create(d).Error)

	_, err := svc.BulkDelete(ctx, []uint64{0})
	requireStatus(t, err, http.StatusBadRequest)

	n, err := svc.BulkDelete(ctx, []uint64{u.ID, 9999})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	assert.EqualValues(t, 1, count(t, db, &model.User{}))
	assert.Zero(t, count(t, db, &model.Qna{}))
	assert.EqualValues(t, 1, count(t, db, &model.Point{}))

	var kept model.Donation
	require.NoError(t, db.First(&kept, d.ID).Error)
	assert.Nil(t, kept.UserID)
}
