package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vitrina-crm/internal/entities"
	apperrors "vitrina-crm/pkg/errors"
	"vitrina-crm/pkg/utils"
)

func newParsedRepo() ParsedPropertyRepositoryInterface {
	return NewParsedPropertyRepository(testPool, zap.NewNop())
}

func TestParsedPropertyRepository_Claim(t *testing.T) {
	skipIfNoDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := newParsedRepo()

	id := seedListing(t, 1001, "kr-1", "Бизнес", time.Now())

	t.Run("первое закрепление проходит", func(t *testing.T) {
		require.NoError(t, repo.Claim(ctx, id, "77011234567"))

		got, err := repo.FindByVitrinaID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got.StatsAgentGiven)
		assert.Equal(t, "77011234567", *got.StatsAgentGiven)
		assert.NotNil(t, got.StatsTimeGiven)
	})

	t.Run("повторное закрепление проигрывает", func(t *testing.T) {
		err := repo.Claim(ctx, id, "77029999999")
		assert.ErrorIs(t, err, apperrors.ErrAlreadyClaimed)

		// агент-победитель не перезаписан
		got, err := repo.FindByVitrinaID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "77011234567", *got.StatsAgentGiven)
	})

	t.Run("несуществующее объявление", func(t *testing.T) {
		err := repo.Claim(ctx, 999999, "77011234567")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestParsedPropertyRepository_UpsertBatch(t *testing.T) {
	skipIfNoDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := newParsedRepo()

	rows := []entities.ParsedProperty{
		{RbdID: 10, KrishaID: utils.ToPtr("kr-10"), PropertyClass: utils.ToPtr("Комфорт")},
		{RbdID: 11, KrishaID: utils.ToPtr("kr-11"), PropertyClass: utils.ToPtr("Бизнес")},
	}

	inserted, err := repo.UpsertBatch(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// повторная пачка с одним новым rbd_id: дубликаты молча пропускаются
	rows = append(rows, entities.ParsedProperty{RbdID: 12, KrishaID: utils.ToPtr("kr-12")})
	inserted, err = repo.UpsertBatch(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestParsedPropertyRepository_LatestUnclaimed(t *testing.T) {
	skipIfNoDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := newParsedRepo()

	old := time.Now().Add(-48 * time.Hour)
	fresh := time.Now()

	// две перепубликации одного krisha_id: должна выйти свежая
	staleID := seedListing(t, 20, "kr-dup", "Комфорт", old)
	freshID := seedListing(t, 21, "kr-dup", "Комфорт", fresh)
	otherID := seedListing(t, 22, "kr-other", "Бизнес", fresh)
	claimedID := seedListing(t, 23, "kr-claimed", "Комфорт", fresh)
	archivedID := seedListing(t, 24, "kr-archived", "Комфорт", fresh)

	require.NoError(t, repo.Claim(ctx, claimedID, "77011234567"))
	require.NoError(t, repo.MarkArchived(ctx, archivedID))

	t.Run("без фильтра по классу", func(t *testing.T) {
		got, err := repo.LatestUnclaimed(ctx, nil, 10)
		require.NoError(t, err)

		ids := make([]int64, 0, len(got))
		for _, p := range got {
			ids = append(ids, p.VitrinaID)
		}
		assert.ElementsMatch(t, []int64{freshID, otherID}, ids)
		assert.NotContains(t, ids, staleID)
	})

	t.Run("фильтр по классу", func(t *testing.T) {
		got, err := repo.LatestUnclaimed(ctx, []string{"Бизнес"}, 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, otherID, got[0].VitrinaID)
	})
}

func TestParsedPropertyRepository_Recalls(t *testing.T) {
	skipIfNoDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := newParsedRepo()

	dueID := seedListing(t, 30, "kr-due", "Комфорт", time.Now())
	futureID := seedListing(t, 31, "kr-future", "Комфорт", time.Now())
	unclaimedID := seedListing(t, 32, "kr-unclaimed", "Комфорт", time.Now())

	require.NoError(t, repo.Claim(ctx, dueID, "77011234567"))
	require.NoError(t, repo.Claim(ctx, futureID, "77011234567"))

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	require.NoError(t, repo.UpdateStatus(ctx, dueID, entities.ObjectStatusRecall, &past, nil))
	require.NoError(t, repo.UpdateStatus(ctx, futureID, entities.ObjectStatusRecall, &future, nil))
	// незакреплённое объявление в выборку не попадает даже с прошедшим временем
	_, err := testPool.Exec(ctx, `
		UPDATE parsed_properties
		SET stats_object_status = 'Перезвонить', stats_recall_time = $1
		WHERE vitrina_id = $2`, past, unclaimedID)
	require.NoError(t, err)

	due, err := repo.DueRecalls(ctx, time.Now(), 100)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, dueID, due[0].VitrinaID)

	// после сброса перезвон одноразовый
	require.NoError(t, repo.ClearRecall(ctx, dueID))
	due, err = repo.DueRecalls(ctx, time.Now(), 100)
	require.NoError(t, err)
	assert.Empty(t, due)

	got, err := repo.FindByVitrinaID(ctx, dueID)
	require.NoError(t, err)
	assert.Nil(t, got.StatsRecallTime)
	require.NotNil(t, got.StatsObjectStatus)
	assert.Equal(t, entities.ObjectStatusRecall, *got.StatsObjectStatus)
}

func TestParsedPropertyRepository_UpdateStatus(t *testing.T) {
	skipIfNoDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := newParsedRepo()

	id := seedListing(t, 40, "kr-40", "Комфорт", time.Now())

	recall := time.Now().Add(2 * time.Hour)
	require.NoError(t, repo.UpdateStatus(ctx, id, entities.ObjectStatusRecall, &recall, utils.ToPtr("клиент думает")))

	got, err := repo.FindByVitrinaID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.StatsRecallTime)
	assert.WithinDuration(t, recall, *got.StatsRecallTime, time.Second)
	require.NotNil(t, got.StatsDescription)
	assert.Equal(t, "клиент думает", *got.StatsDescription)

	// смена статуса без времени сбрасывает напоминание, комментарий остаётся
	require.NoError(t, repo.UpdateStatus(ctx, id, "Обработано", nil, nil))
	got, err = repo.FindByVitrinaID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.StatsRecallTime)
	require.NotNil(t, got.StatsDescription)
	assert.Equal(t, "клиент думает", *got.StatsDescription)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, 999999, "Обработано", nil, nil), apperrors.ErrNotFound)
}

func TestParsedPropertyRepository_Archive(t *testing.T) {
	skipIfNoDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := newParsedRepo()

	liveID := seedListing(t, 50, "kr-live", "Комфорт", time.Now())
	goneID := seedListing(t, 51, "kr-gone", "Комфорт", time.Now())
	// без krisha_id проверять нечего
	_, err := testPool.Exec(ctx,
		`INSERT INTO parsed_properties (rbd_id, krisha_id) VALUES (52, '')`)
	require.NoError(t, err)

	candidates, err := repo.ArchiveCandidates(ctx, 100)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	require.NoError(t, repo.MarkArchived(ctx, goneID))

	candidates, err = repo.ArchiveCandidates(ctx, 100)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, liveID, candidates[0].VitrinaID)

	got, err := repo.FindByVitrinaID(ctx, goneID)
	require.NoError(t, err)
	require.NotNil(t, got.StatsObjectStatus)
	assert.Equal(t, entities.ObjectStatusArchived, *got.StatsObjectStatus)
	assert.Nil(t, got.StatsRecallTime)
}
