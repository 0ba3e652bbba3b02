// Package dbtest opens migrated in-memory SQLite databases and seeds common
// fixtures for repository and service tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/db"
	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	"github.com/huellitas/huellitas-backend/pkg/migrate"
)

// Open returns a client backed by a private in-memory database with every
// embedded migration applied.
func Open(t testing.TB) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig())
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.RunEmbedded(context.Background(), sqlDB, db.DialectSQLite, "up"))
	return db.NewFromConn(conn)
}

// User inserts an active account with the given role.
func User(t testing.TB, conn *gorm.DB, role enums.UserRole) models.User {
	t.Helper()
	id := uuid.New()
	user := models.User{
		ID:           id,
		Email:        strings.ToLower(fmt.Sprintf("%s-%s@example.com", role, id.String()[:8])),
		PasswordHash: "hash",
		Name:         "Test " + string(role),
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(&user).Error)
	return user
}

// Pet inserts an available dog owned by foundationID.
func Pet(t testing.TB, conn *gorm.DB, foundationID uuid.UUID) models.Pet {
	t.Helper()
	pet := models.Pet{
		FoundationID: foundationID,
		Name:         "Luna",
		Type:         enums.PetTypeDog,
		Size:         enums.PetSizeMedium,
		Sex:          enums.PetSexFemale,
		Available:    true,
	}
	require.NoError(t, conn.Create(&pet).Error)
	return pet
}

// Adoption inserts a request for pet by userID in the given status.
func Adoption(t testing.TB, conn *gorm.DB, pet models.Pet, userID uuid.UUID, status enums.AdoptionStatus) models.AdoptionRequest {
	t.Helper()
	req := models.AdoptionRequest{
		PetID:        pet.ID,
		UserID:       userID,
		FoundationID: pet.FoundationID,
		FullName:     "Ana Gómez",
		Email:        "ana@example.com",
		Phone:        "3001234567",
		Address:      "Calle 1 # 2-3",
		HousingType:  enums.HousingTypeHouse,
		HasOtherPets: false,
		Motivation:   "Quiero darle un hogar",
		Status:       status,
	}
	require.NoError(t, conn.Create(&req).Error)
	return req
}

// Count returns the number of rows in model's table matching the optional
// where clause.
func Count(t testing.TB, conn *gorm.DB, model any, where ...any) int64 {
	t.Helper()
	q := conn.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	var n int64
	require.NoError(t, q.Count(&n).Error)
	return n
}
