package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vitrina-crm/internal/dto"
	"vitrina-crm/internal/entities"
	apperrors "vitrina-crm/pkg/errors"
	"vitrina-crm/pkg/utils"
)

func newPropertyRepo() PropertyRepositoryInterface {
	return NewPropertyRepository(testPool, zap.NewNop())
}

func sheetRow(crmID, mop, client string) entities.Property {
	return entities.Property{
		CrmID:      crmID,
		Mop:        utils.ToPtr(mop),
		ClientName: utils.ToPtr(client),
		Address:    utils.ToPtr("Алматы, Абая 10"),
	}
}

func TestPropertyRepository_UpsertSheetRow(t *testing.T) {
	skipIfNoDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := newPropertyRepo()

	now := time.Now()
	inserted, err := repo.UpsertSheetRow(ctx, testPool, sheetRow("crm-1", "Иванов Иван", "Петров П."), now, false)
	require.NoError(t, err)
	assert.True(t, inserted)

	// повтор — уже обновление, реквизиты перезаписаны
	row := sheetRow("crm-1", "Иванов Иван", "Сидоров С.")
	inserted, err = repo.UpsertSheetRow(ctx, testPool, row, now.Add(time.Minute), false)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := repo.FindByCrmID(ctx, "crm-1")
	require.NoError(t, err)
	require.NotNil(t, got.ClientName)
	assert.Equal(t, "Сидоров С.", *got.ClientName)
	assert.Equal(t, entities.ModifiedBySheet, got.LastModifiedBy)
}

func TestPropertyRepository_UpsertSheetRow_KeepsMarketing(t *testing.T) {
	skipIfNoDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := newPropertyRepo()

	now := time.Now()
	_, err := repo.UpsertSheetRow(ctx, testPool, sheetRow("crm-2", "Иванов Иван", "Петров П."), now, false)
	require.NoError(t, err)

	upd := dto.UpdatePropertyDTO{Collage: utils.ToPtr(true), Shows: utils.ToPtr(3)}
	require.NoError(t, repo.UpdateMarketing(ctx, "crm-2", upd, entities.ModifiedByBot))

	// перезапись реквизитов не трогает поля бота
	_, err = repo.UpsertSheetRow(ctx, testPool, sheetRow("crm-2", "Иванов Иван", "Новый Клиент"), now.Add(time.Minute), false)
	require.NoError(t, err)

	got, err := repo.FindByCrmID(ctx, "crm-2")
	require.NoError(t, err)
	assert.True(t, got.Collage)
	assert.Equal(t, 3, got.Shows)
	assert.Equal(t, "Новый Клиент", *got.ClientName)
}

func TestPropertyRepository_UpsertSheetRow_DealOnlyKeepsProvenance(t *testing.T) {
	skipIfNoDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := newPropertyRepo()

	sheetAt := time.Now().Add(-time.Hour)
	_, err := repo.UpsertSheetRow(ctx, testPool, sheetRow("crm-5", "Иванов Иван", "Петров П."), sheetAt, false)
	require.NoError(t, err)

	// правка бота моложе отметки таблицы
	require.NoError(t, repo.UpdateMarketing(ctx, "crm-5",
		dto.UpdatePropertyDTO{Collage: utils.ToPtr(true)}, entities.ModifiedByBot))
	botEdited, err := repo.FindByCrmID(ctx, "crm-5")
	require.NoError(t, err)

	// повторный снапшот с той же старой отметкой обновляет реквизиты,
	// но не перебивает провенанс правки бота
	inserted, err := repo.UpsertSheetRow(ctx, testPool, sheetRow("crm-5", "Иванов Иван", "Новый Клиент"), sheetAt, true)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := repo.FindByCrmID(ctx, "crm-5")
	require.NoError(t, err)
	assert.Equal(t, "Новый Клиент", *got.ClientName)
	assert.Equal(t, entities.ModifiedByBot, got.LastModifiedBy)
	assert.WithinDuration(t, botEdited.LastModifiedAt, got.LastModifiedAt, time.Second)
	assert.True(t, got.Collage)
}

func TestPropertyRepository_UpdateMarketing(t *testing.T) {
	skipIfNoDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := newPropertyRepo()

	_, err := repo.UpsertSheetRow(ctx, testPool, sheetRow("crm-3", "Иванов Иван", "Петров П."), time.Now(), false)
	require.NoError(t, err)

	upd := dto.UpdatePropertyDTO{
		Analytics: utils.ToPtr(true),
		Status:    utils.ToPtr("Продано"),
	}
	require.NoError(t, repo.UpdateMarketing(ctx, "crm-3", upd, entities.ModifiedByBot))

	got, err := repo.FindByCrmID(ctx, "crm-3")
	require.NoError(t, err)
	assert.True(t, got.Analytics)
	assert.Equal(t, "Продано", got.Status)
	assert.Equal(t, entities.ModifiedByBot, got.LastModifiedBy)

	t.Run("пустой DTO отклоняется", func(t *testing.T) {
		err := repo.UpdateMarketing(ctx, "crm-3", dto.UpdatePropertyDTO{}, entities.ModifiedByBot)
		var invalid *apperrors.InvalidInputError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("несуществующий контракт", func(t *testing.T) {
		err := repo.UpdateMarketing(ctx, "crm-missing", upd, entities.ModifiedByBot)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestPropertyRepository_ApplySheetMarketing(t *testing.T) {
	skipIfNoDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := newPropertyRepo()

	_, err := repo.UpsertSheetRow(ctx, testPool, sheetRow("crm-4", "Иванов Иван", "Петров П."), time.Now(), false)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateMarketing(ctx, "crm-4",
		dto.UpdatePropertyDTO{Collage: utils.ToPtr(true)}, entities.ModifiedByBot))

	sheetAt := time.Now().Add(time.Minute)
	upd := dto.UpdatePropertyDTO{Collage: utils.ToPtr(false), Status: utils.ToPtr("Снято")}
	require.NoError(t, repo.ApplySheetMarketing(ctx, testPool, "crm-4", upd, sheetAt))

	got, err := repo.FindByCrmID(ctx, "crm-4")
	require.NoError(t, err)
	assert.False(t, got.Collage)
	assert.Equal(t, "Снято", got.Status)
	assert.Equal(t, entities.ModifiedBySheet, got.LastModifiedBy)
	assert.WithinDuration(t, sheetAt, got.LastModifiedAt, time.Second)

	// пустой DTO — no-op, не ошибка
	assert.NoError(t, repo.ApplySheetMarketing(ctx, testPool, "crm-4", dto.UpdatePropertyDTO{}, sheetAt))
}

func TestPropertyRepository_AgentVisibility(t *testing.T) {
	skipIfNoDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := newPropertyRepo()

	now := time.Now()
	mine := sheetRow("crm-10", "Иванов Иван Сергеевич", "Клиент Один")
	alsoMine := sheetRow("crm-11", "Петров Пётр", "Клиент Два")
	alsoMine.Rop = utils.ToPtr("Иванов Иван")
	foreign := sheetRow("crm-12", "Петров Пётр", "Клиент Три")

	for _, p := range []entities.Property{mine, alsoMine, foreign} {
		_, err := repo.UpsertSheetRow(ctx, testPool, p, now, false)
		require.NoError(t, err)
	}

	t.Run("контракты агента по mop и rop", func(t *testing.T) {
		contracts, total, err := repo.GetAgentContracts(ctx, "Иванов Иван", 10, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)

		ids := make([]string, 0, len(contracts))
		for _, c := range contracts {
			ids = append(ids, c.CrmID)
		}
		assert.ElementsMatch(t, []string{"crm-10", "crm-11"}, ids)
	})

	t.Run("чужой контракт не виден", func(t *testing.T) {
		_, err := repo.FindByCrmIDForAgent(ctx, "crm-12", "Иванов Иван")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		got, err := repo.FindByCrmIDForAgent(ctx, "crm-10", "Иванов Иван")
		require.NoError(t, err)
		assert.Equal(t, "crm-10", got.CrmID)
	})

	t.Run("поиск по клиенту в пределах видимости", func(t *testing.T) {
		found, total, err := repo.SearchByClientName(ctx, "клиент", "Иванов Иван", 10, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, found, 2)

		// регистр не учитывается, чужие не попадают
		found, _, err = repo.SearchByClientName(ctx, "Три", "Иванов Иван", 10, 0)
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestPropertyRepository_Stats(t *testing.T) {
	skipIfNoDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := newPropertyRepo()

	now := time.Now()
	for _, p := range []entities.Property{
		sheetRow("crm-20", "Иванов Иван", "А"),
		sheetRow("crm-21", "Иванов Иван", "Б"),
		sheetRow("crm-22", "Петров Пётр", "В"),
	} {
		_, err := repo.UpsertSheetRow(ctx, testPool, p, now, false)
		require.NoError(t, err)
	}

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalRecords)
	assert.EqualValues(t, 2, stats.AgentsStats["Иванов Иван"])
	assert.EqualValues(t, 1, stats.AgentsStats["Петров Пётр"])
}
