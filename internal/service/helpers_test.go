package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, loginID string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{
		Name:     loginID,
		LoginID:  loginID,
		Email:    fmt.Sprintf("%s@example.com", loginID),
		Role:     role,
		Provider: model.ProviderLocal,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func credit(t *testing.T, db *gorm.DB, userID uint64, delta int64) {
	t.Helper()
	require.NoError(t, db.Create(model.NewPoint(userID, delta, model.ReasonBicycleRide, "test credit")).Error)
}

func ledgerBalance(t *testing.T, db *gorm.DB, userID uint64) int64 {
	t.Helper()
	var sum int64
	require.NoError(t, db.Model(&model.Point{}).Where("user_id = ?", userID).Select("COALESCE(SUM(delta), 0)").Scan(&sum).Error)
	return sum
}

func count(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

func requireStatus(t *testing.T, err error, status int) *Error {
	t.Helper()
	var se *Error
	require.True(t, errors.As(err, &se), "want *service.Error, got %v", err)
	require.Equal(t, status, se.Status, se.Message)
	return se
}
