package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eteeap-portfolio-api/models"
	"eteeap-portfolio-api/utils"
)

func TestSeedServiceRun(t *testing.T) {
	db := newTestDB(t)
	svc := NewSeedService(db)
	ctx := context.Background()

	res, err := svc.Run(ctx, SeedOptions{AdminEmail: " Root@Example.com ", AdminPassword: "supersecret"})
	require.NoError(t, err)
	assert.True(t, res.AdminCreated)
	assert.Equal(t, len(defaultCategories), res.Categories)
	assert.Equal(t, len(defaultCriteria), res.Criteria)

	var admin models.User
	require.NoError(t, db.First(&admin, "email = ?", "root@example.com").Error)
	assert.Equal(t, models.RoleSuperAdmin, admin.Role)
	assert.True(t, utils.CheckPasswordHash("supersecret", admin.Password))

	again, err := svc.Run(ctx, SeedOptions{AdminEmail: "root@example.com", AdminPassword: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, SeedResult{}, again)

	var users, categories int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.DocumentCategory{}).Count(&categories).Error)
	assert.EqualValues(t, 1, users)
	assert.EqualValues(t, len(defaultCategories), categories)
}

func TestSeedServiceSkipsAdminWithoutPassword(t *testing.T) {
	db := newTestDB(t)

	res, err := NewSeedService(db).Run(context.Background(), SeedOptions{AdminEmail: "root@example.com"})
	require.NoError(t, err)
	assert.False(t, res.AdminCreated)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}
