package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/re-earth/re-earth-api/internal/kvstore"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/repository"
	"github.com/re-earth/re-earth-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDonationService(t *testing.T, db *gorm.DB) (*donationService, *kvstore.Memory) {
	t.Helper()
	store := kvstore.NewMemory()
	t.Cleanup(func() { _ = store.Close() })
	svc := NewDonationService(repository.NewDonationRepository(db), store, DonationOptions{OTPTTL: time.Minute}).(*donationService)
	return svc, store
}

func donationInput() DonationInput {
	return DonationInput{
		DonorName:   "홍길동",
		DonorPhone:  "010-1234-5678",
		Zipcode:     "04524",
		Address1:    "서울시 중구 세종대로 110",
		PickupDate:  "2025-03-02",
		AgreePolicy: true,
		Items: []DonationItemInput{
			{Category: "outer", Quantity: 2},
			{Category: "TOP", Condition: "good", Quantity: 3},
			{Category: "BAG", Quantity: -4},
		},
	}
}

func TestDonationCreate_CountAndExpectedPoints(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc, _ := newDonationService(t, db)
	donor := seedUser(t, db, "donor01", model.RoleUser)

	d, err := svc.Create(context.Background(), donationInput(), &donor.ID)
	require.NoError(t, err)

	// 2 outer x 3 + 3 top x 1, the negative bag line counts as zero.
	assert.Equal(t, int64(5), d.Count)
	assert.Equal(t, int64(900), d.ExpectedPoint)
	assert.Equal(t, model.DonationRequested, d.Status)
	assert.Equal(t, "01012345678", d.DonorPhone)
	require.Len(t, d.Items, 3)
	assert.Equal(t, "OUTER", d.Items[0].Category)
	assert.Equal(t, "NORMAL", d.Items[0].Condition)
	assert.Equal(t, "GOOD", d.Items[1].Condition)
	assert.Zero(t, d.Items[2].Quantity)
	assert.Equal(t, int64(3), count(t, db, &model.DonationItem{}))

	// Stored line quantities must add up to the donation count.
	var stored int64
	require.NoError(t, db.Model(&model.DonationItem{}).Where("donation_id = ?", d.ID).
		Select("COALESCE(SUM(quantity), 0)").Scan(&stored).Error)
	assert.Equal(t, d.Count, stored)
	var zeroLine model.DonationItem
	require.NoError(t, db.First(&zeroLine, d.Items[2].ID).Error)
	assert.Zero(t, zeroLine.Quantity)
}

func TestDonationCreate_Validation(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc, _ := newDonationService(t, db)
	ctx := context.Background()

	cases := map[string]func(in *DonationInput){
		"no items":      func(in *DonationInput) { in.Items = nil },
		"zero quantity": func(in *DonationInput) { in.Items = []DonationItemInput{{Category: "TOP", Quantity: 0}} },
		"no consent":    func(in *DonationInput) { in.AgreePolicy = false },
		"no address":    func(in *DonationInput) { in.Address1 = " " },
		"bad date":      func(in *DonationInput) { in.PickupDate = "03/02/2025" },
		"bad category":  func(in *DonationInput) { in.Items[0].Category = "HAT" },
		"bad condition": func(in *DonationInput) { in.Items[0].Condition = "BROKEN" },
		"missing donor": func(in *DonationInput) { in.DonorName = "" },
		"missing phone": func(in *DonationInput) { in.DonorPhone = "--" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := donationInput()
			mutate(&in)
			_, err := svc.Create(ctx, in, nil)
			requireStatus(t, err, http.StatusBadRequest)
		})
	}
	assert.Zero(t, count(t, db, &model.Donation{}))
}

func TestDonationAdminUpdate_StateMachine(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc, _ := newDonationService(t, db)
	ctx := context.Background()
	donor := seedUser(t, db, "donor02", model.RoleUser)

	d, err := svc.Create(ctx, donationInput(), &donor.ID)
	require.NoError(t, err)

	picked := "PICKED"
	_, err = svc.AdminUpdate(ctx, d.ID, DonationAdminUpdate{Status: &picked})
	se := requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "상태 전이 불가: REQUESTED → PICKED", se.Message)
	assert.Zero(t, ledgerBalance(t, db, donor.ID))

	scheduled := "scheduled"
	d, err = svc.AdminUpdate(ctx, d.ID, DonationAdminUpdate{Status: &scheduled})
	require.NoError(t, err)
	assert.Equal(t, model.DonationScheduled, d.Status)
	assert.Zero(t, ledgerBalance(t, db, donor.ID))

	receipt := "https://receipts.example.com/1"
	d, err = svc.AdminUpdate(ctx, d.ID, DonationAdminUpdate{Status: &picked, ReceiptURL: &receipt})
	require.NoError(t, err)
	assert.Equal(t, model.DonationPicked, d.Status)
	assert.Equal(t, receipt, d.ReceiptURL)
	assert.Equal(t, int64(900), ledgerBalance(t, db, donor.ID))

	var p model.Point
	require.NoError(t, db.Where("donation_id = ?", d.ID).First(&p).Error)
	assert.Equal(t, model.ReasonDonationPicked, p.Reason)

	cancelled := "CANCELLED"
	d, err = svc.AdminUpdate(ctx, d.ID, DonationAdminUpdate{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, model.DonationCancelled, d.Status)
	assert.Zero(t, ledgerBalance(t, db, donor.ID))
	assert.Equal(t, int64(2), count(t, db, &model.Point{}))

	_, err = svc.AdminUpdate(ctx, d.ID, DonationAdminUpdate{Status: &scheduled})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = svc.AdminUpdate(ctx, 9999, DonationAdminUpdate{Status: &scheduled})
	requireStatus(t, err, http.StatusNotFound)
}

func TestDonationCancel_OwnerAndState(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc, _ := newDonationService(t, db)
	ctx := context.Background()
	donor := seedUser(t, db, "donor03", model.RoleUser)
	other := seedUser(t, db, "other03", model.RoleUser)

	d, err := svc.Create(ctx, donationInput(), &donor.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, other.ID, d.ID)
	requireStatus(t, err, http.StatusNotFound)

	scheduled := "SCHEDULED"
	_, err = svc.AdminUpdate(ctx, d.ID, DonationAdminUpdate{Status: &scheduled})
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, donor.ID, d.ID)
	se := requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "현재 상태에선 취소할 수 없습니다.", se.Message)

	d2, err := svc.Create(ctx, donationInput(), &donor.ID)
	require.NoError(t, err)
	got, err := svc.Cancel(ctx, donor.ID, d2.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DonationCancelled, got.Status)
}

func TestDonationGet_Visibility(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc, _ := newDonationService(t, db)
	ctx := context.Background()
	donor := seedUser(t, db, "donor04", model.RoleUser)

	d, err := svc.Create(ctx, donationInput(), &donor.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, d.ID, Viewer{ID: donor.ID})
	require.NoError(t, err)
	_, err = svc.Get(ctx, d.ID, Viewer{ID: donor.ID + 1})
	requireStatus(t, err, http.StatusNotFound)
	_, err = svc.Get(ctx, d.ID, Viewer{ID: donor.ID + 1, Admin: true})
	require.NoError(t, err)

	page, err := svc.ListMine(ctx, donor.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 10, page.Size)
}

func TestDonationOTP(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc, _ := newDonationService(t, db)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	svc.code = func() (string, error) { return "123456", nil }

	_, err := svc.RequestOTP(ctx, "010-12")
	requireStatus(t, err, http.StatusBadRequest)

	se := requireStatus(t, svc.VerifyOTP(ctx, "01012345678", "123456"), http.StatusBadRequest)
	assert.Equal(t, "인증요청이 필요합니다.", se.Message)

	issued, err := svc.RequestOTP(ctx, "010-1234-5678")
	require.NoError(t, err)
	assert.Equal(t, 60, issued.TTL)
	assert.Equal(t, "123456", issued.DevCode)

	se = requireStatus(t, svc.VerifyOTP(ctx, "01012345678", "000000"), http.StatusBadRequest)
	assert.Equal(t, "인증번호가 올바르지 않습니다.", se.Message)

	require.NoError(t, svc.VerifyOTP(ctx, "010 1234 5678", "123456"))
	// A verified code cannot be reused.
	requireStatus(t, svc.VerifyOTP(ctx, "01012345678", "123456"), http.StatusBadRequest)

	_, err = svc.RequestOTP(ctx, "01012345678")
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	se = requireStatus(t, svc.VerifyOTP(ctx, "01012345678", "123456"), http.StatusBadRequest)
	assert.Equal(t, "인증번호가 만료되었습니다.", se.Message)
}

func TestDonationOTP_ProductionHidesCode(t *testing.T) {
	store := kvstore.NewMemory()
	t.Cleanup(func() { _ = store.Close() })
	svc := NewDonationService(nil, store, DonationOptions{Production: true})

	issued, err := svc.RequestOTP(context.Background(), "01012345678")
	require.NoError(t, err)
	assert.Empty(t, issued.DevCode)
	assert.Equal(t, 300, issued.TTL)
}

func TestDonationStats(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc, _ := newDonationService(t, db)
	ctx := context.Background()
	donor := seedUser(t, db, "donor05", model.RoleUser)

	_, err := svc.Create(ctx, donationInput(), &donor.ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, donationInput(), nil)
	require.NoError(t, err)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.DonationsThisMonth)
	assert.Equal(t, int64(1800), st.PointsThisMonth)
	require.Len(t, st.DonationsByDay, 7)
	assert.Equal(t, int64(2), st.DonationsByDay[6].Count)
	assert.Len(t, st.RecentDonations, 2)
	assert.Equal(t, int64(2), st.ByStatus[model.DonationRequested])
	assert.Zero(t, st.ByStatus[model.DonationPicked])
}

func TestBucketByDay(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	ts := []time.Time{
		start.Add(time.Hour),
		start.Add(26 * time.Hour),
		start.Add(27 * time.Hour),
		start.AddDate(0, 0, 10),
	}
	got := bucketByDay(ts, start, 3)
	assert.Equal(t, []repository.DayCount{
		{Date: "2025-03-01", Count: 1},
		{Date: "2025-03-02", Count: 2},
		{Date: "2025-03-03", Count: 0},
	}, got)
}
