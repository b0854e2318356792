package splits

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tracklock/tracklock-backend/pkg/db/models"
	"github.com/tracklock/tracklock-backend/pkg/enums"
	pkgerrors "github.com/tracklock/tracklock-backend/pkg/errors"
)

func setupSplitsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	stmts := []string{
		`CREATE TABLE split_versions (
			id TEXT PRIMARY KEY,
			content_id TEXT NOT NULL,
			version INTEGER NOT NULL,
			creator_id TEXT,
			locked_at DATETIME,
			created_at DATETIME
		)`,
		`CREATE TABLE split_participants (
			id TEXT PRIMARY KEY,
			split_version_id TEXT NOT NULL,
			participant_id TEXT,
			participant_email TEXT,
			role TEXT NOT NULL,
			bps INTEGER NOT NULL,
			created_at DATETIME
		)`,
	}
	for _, stmt := range stmts {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func participant(id string, bps int) models.SplitParticipant {
	ref := id
	return models.SplitParticipant{
		ParticipantID: &ref,
		Role:          enums.ParticipantRoleArtist,
		Bps:           bps,
	}
}

func TestLockRequiresFullBpsTotal(t *testing.T) {
	conn := setupSplitsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	version := &models.SplitVersion{
		ContentID: uuid.New(),
		Version:   1,
		Participants: []models.SplitParticipant{
			participant("alice", 5000),
			participant("bob", 4000),
		},
	}
	require.NoError(t, repo.Create(ctx, version))

	err := repo.Lock(ctx, version.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	// Still unlocked: not settleable.
	found, err := repo.FindLockedByContentID(ctx, version.ContentID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestLockIsOneShot(t *testing.T) {
	conn := setupSplitsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	version := &models.SplitVersion{
		ContentID: uuid.New(),
		Version:   1,
		Participants: []models.SplitParticipant{
			participant("alice", 6000),
			participant("bob", 4000),
		},
	}
	require.NoError(t, repo.Create(ctx, version))
	require.NoError(t, repo.Lock(ctx, version.ID))

	err := repo.Lock(ctx, version.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestLockUnknownVersion(t *testing.T) {
	conn := setupSplitsTestDB(t)
	repo := NewRepository(conn)

	err := repo.Lock(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestFindLockedPrefersLatestVersion(t *testing.T) {
	conn := setupSplitsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	contentID := uuid.New()

	for i := 1; i <= 3; i++ {
		version := &models.SplitVersion{
			ContentID: contentID,
			Version:   i,
			Participants: []models.SplitParticipant{
				participant("alice", 10000),
			},
		}
		require.NoError(t, repo.Create(ctx, version))
		// Leave the newest as an unlocked draft.
		if i < 3 {
			require.NoError(t, repo.Lock(ctx, version.ID))
			time.Sleep(time.Millisecond)
		}
	}

	found, err := repo.FindLockedByContentID(ctx, contentID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 2, found.Version)
	require.Len(t, found.Participants, 1)
	assert.Equal(t, "alice", found.Participants[0].Ref())
}
