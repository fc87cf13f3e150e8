package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AmyVerse/ayursutra-web-sub001/models"
	"github.com/AmyVerse/ayursutra-web-sub001/testutil"
	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

func TestGenerateAyursutraIDFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := GenerateAyursutraID(models.RolePatient)
		assert.Regexp(t, `^AS-P-[0-9A-Z]{10}$`, id)
		seen[id] = true
	}
	assert.Len(t, seen, 200)
	assert.Regexp(t, `^AS-D-[0-9A-Z]{10}$`, GenerateAyursutraID(models.RoleDoctor))
}

func TestAssignOnce(t *testing.T) {
	db := testutil.OpenDB(t)
	u := testutil.CreateUser(t, db, models.User{Role: models.RolePatient})
	svc := NewAyursutraIDService(db, zap.NewNop())

	id, created, err := svc.Assign(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Regexp(t, `^AS-P-`, id)

	again, created, err := svc.Assign(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, again)

	var stored models.User
	require.NoError(t, db.First(&stored, u.ID).Error)
	assert.Equal(t, id, stored.AyursutraIDValue())
}

func TestAssignUnknownUser(t *testing.T) {
	db := testutil.OpenDB(t)
	_, _, err := NewAyursutraIDService(db, zap.NewNop()).Assign(context.Background(), 42)
	assert.ErrorIs(t, err, xerrors.ErrUserNotFound)
}

func TestAssignRetriesOnCollision(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.CreateUser(t, db, models.User{Role: models.RolePatient, AyursutraID: testutil.Ptr("AS-P-TAKEN00000")})
	u := testutil.CreateUser(t, db, models.User{Role: models.RolePatient})

	candidates := []string{"AS-P-TAKEN00000", "AS-P-FRESH00000"}
	svc := NewAyursutraIDService(db, zap.NewNop())
	svc.generate = func(models.Role) string {
		next := candidates[0]
		candidates = candidates[1:]
		return next
	}

	id, created, err := svc.Assign(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "AS-P-FRESH00000", id)
}

func TestAssignGivesUpAfterRepeatedCollisions(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.CreateUser(t, db, models.User{Role: models.RoleDoctor, AyursutraID: testutil.Ptr("AS-D-TAKEN00000")})
	u := testutil.CreateUser(t, db, models.User{Role: models.RoleDoctor})

	calls := 0
	svc := NewAyursutraIDService(db, zap.NewNop())
	svc.generate = func(models.Role) string {
		calls++
		return "AS-D-TAKEN00000"
	}

	_, _, err := svc.Assign(context.Background(), u.ID)
	assert.Equal(t, xerrors.KindUpstream, xerrors.KindOf(err))
	assert.Equal(t, maxAssignAttempts, calls)
}

func TestAssignConcurrentCallersAgree(t *testing.T) {
	db := testutil.OpenDB(t)
	u := testutil.CreateUser(t, db, models.User{Role: models.RolePatient})
	svc := NewAyursutraIDService(db, zap.NewNop())

	const n = 8
	ids := make([]string, n)
	createdCount := 0
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, created, err := svc.Assign(context.Background(), u.ID)
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			ids[i] = id
			if created {
				createdCount++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}
