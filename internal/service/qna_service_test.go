package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/repository"
	"github.com/re-earth/re-earth-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQnaService_Lifecycle(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := NewQnaService(repository.NewQnaRepository(db))
	ctx := context.Background()

	owner := seedUser(t, db, "asker01", model.RoleUser)
	other := seedUser(t, db, "other01", model.RoleUser)
	admin := seedUser(t, db, "admin01", model.RoleAdmin)

	_, err := svc.Create(ctx, owner.ID, "  ", "내용")
	requireStatus(t, err, http.StatusBadRequest)

	q, err := svc.Create(ctx, owner.ID, " 배송 문의 ", "언제 도착하나요?")
	require.NoError(t, err)
	assert.Equal(t, "배송 문의", q.Title)
	assert.Equal(t, model.QnaOpen, q.Status)

	_, err = svc.Get(ctx, q.ID, Viewer{ID: other.ID})
	requireStatus(t, err, http.StatusForbidden)
	_, err = svc.Get(ctx, 9999, Viewer{ID: owner.ID})
	se := requireStatus(t, err, http.StatusNotFound)
	assert.Equal(t, "해당 문의를 찾을 수 없습니다.", se.Message)

	_, err = svc.Answer(ctx, q.ID, admin.ID, " ")
	requireStatus(t, err, http.StatusBadRequest)
	c, err := svc.Answer(ctx, q.ID, admin.ID, "내일 도착 예정입니다.")
	require.NoError(t, err)
	assert.Equal(t, q.ID, c.QnaID)
	_, err = svc.Answer(ctx, 9999, admin.ID, "답변")
	requireStatus(t, err, http.StatusNotFound)

	got, err := svc.Get(ctx, q.ID, Viewer{ID: owner.ID})
	require.NoError(t, err)
	assert.Equal(t, model.QnaAnswered, got.Status)
	require.Len(t, got.Comments, 1)
	require.NotNil(t, got.Comments[0].Admin)
	assert.Equal(t, "admin01", got.Comments[0].Admin.LoginID)

	closed, err := svc.UpdateStatus(ctx, q.ID, "closed")
	require.NoError(t, err)
	assert.Equal(t, model.QnaClosed, closed.Status)
	_, err = svc.UpdateStatus(ctx, q.ID, "PENDING")
	requireStatus(t, err, http.StatusBadRequest)

	// A later answer does not reopen a closed question.
	_, err = svc.Answer(ctx, q.ID, admin.ID, "추가 안내")
	require.NoError(t, err)
	got, err = svc.Get(ctx, q.ID, Viewer{ID: admin.ID, Admin: true})
	require.NoError(t, err)
	assert.Equal(t, model.QnaClosed, got.Status)
	assert.Len(t, got.Comments, 2)

	err = svc.Delete(ctx, q.ID, Viewer{ID: other.ID})
	requireStatus(t, err, http.StatusForbidden)
	require.NoError(t, svc.Delete(ctx, q.ID, Viewer{ID: owner.ID}))
	err = svc.Delete(ctx, q.ID, Viewer{ID: owner.ID})
	requireStatus(t, err, http.StatusNotFound)
	assert.Zero(t, count(t, db, &model.QnaComment{}))
}

func TestQnaService_Lists(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := NewQnaService(repository.NewQnaRepository(db))
	ctx := context.Background()

	a := seedUser(t, db, "lista01", model.RoleUser)
	b := seedUser(t, db, "listb01", model.RoleUser)
	admin := seedUser(t, db, "admin02", model.RoleAdmin)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, a.ID, "질문", "내용")
		require.NoError(t, err)
	}
	qb, err := svc.Create(ctx, b.ID, "질문", "내용")
	require.NoError(t, err)
	_, err = svc.Answer(ctx, qb.ID, admin.ID, "답변")
	require.NoError(t, err)

	mine, err := svc.ListMine(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	open, err := svc.AdminList(ctx, "open", 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, open.Total)
	assert.Len(t, open.Items, 2)

	all, err := svc.AdminList(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 4, all.Total)
	assert.Equal(t, 20, all.Size)
	require.NotNil(t, all.Items[0].User)
}
