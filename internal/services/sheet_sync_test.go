package services

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vitrina-crm/internal/dto"
	"vitrina-crm/internal/entities"
	"vitrina-crm/internal/repositories"
	apperrors "vitrina-crm/pkg/errors"
	"vitrina-crm/pkg/utils"
)

func TestDecideMerge(t *testing.T) {
	base := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	t.Run("новая строка вставляется", func(t *testing.T) {
		assert.Equal(t, mergeInsert, decideMerge(nil, base))
	})

	t.Run("свежая правка бота переживает сверку", func(t *testing.T) {
		existing := &entities.Property{
			CrmID:          "CRM-1",
			LastModifiedBy: entities.ModifiedByBot,
			LastModifiedAt: base.Add(time.Hour),
		}
		assert.Equal(t, mergeDealOnly, decideMerge(existing, base))
	})

	t.Run("таблица свежее правки бота", func(t *testing.T) {
		existing := &entities.Property{
			CrmID:          "CRM-1",
			LastModifiedBy: entities.ModifiedByBot,
			LastModifiedAt: base.Add(-time.Hour),
		}
		assert.Equal(t, mergeFull, decideMerge(existing, base))
	})

	t.Run("последним писала таблица", func(t *testing.T) {
		existing := &entities.Property{
			CrmID:          "CRM-1",
			LastModifiedBy: entities.ModifiedBySheet,
			// Отметка в БД может быть и моложе строки снапшота,
			// но правки таблицы друг с другом не конфликтуют.
			LastModifiedAt: base.Add(time.Hour),
		}
		assert.Equal(t, mergeFull, decideMerge(existing, base))
	})
}

func TestMarketingFromSheetRow(t *testing.T) {
	row := dto.SheetRowDTO{
		CrmID:    "CRM-7",
		Mop:      utils.ToPtr("Айгерим"),
		Category: utils.ToPtr("Элит"),
		Shows:    utils.ToPtr(3),
		Collage:  utils.ToPtr(true),
	}

	upd := marketingFromSheetRow(row)

	assert.False(t, upd.Empty())
	if assert.NotNil(t, upd.Category) {
		assert.Equal(t, "Элит", *upd.Category)
	}
	if assert.NotNil(t, upd.Shows) {
		assert.Equal(t, 3, *upd.Shows)
	}
	if assert.NotNil(t, upd.Collage) {
		assert.True(t, *upd.Collage)
	}
	// Реквизиты сделки в редактируемые поля не протекают.
	assert.Nil(t, upd.Krisha)
	assert.Nil(t, upd.Status)
}

// fakePropertyStore повторяет семантику properties в памяти:
// upsert реквизитов, провенанс и перезапись маркетинговых полей.
type fakePropertyStore struct {
	rows map[string]*entities.Property
}

func (f *fakePropertyStore) FindForUpdate(_ context.Context, _ repositories.Querier, crmID string) (*entities.Property, error) {
	row, ok := f.rows[crmID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *fakePropertyStore) UpsertSheetRow(_ context.Context, _ repositories.Querier, p entities.Property, modifiedAt time.Time, dealOnly bool) (bool, error) {
	existing, ok := f.rows[p.CrmID]
	if !ok {
		p.LastModifiedBy = entities.ModifiedBySheet
		p.LastModifiedAt = modifiedAt
		f.rows[p.CrmID] = &p
		return true, nil
	}

	existing.DateSigned = p.DateSigned
	existing.ContractNumber = p.ContractNumber
	existing.Mop = p.Mop
	existing.Rop = p.Rop
	existing.Dd = p.Dd
	existing.ClientName = p.ClientName
	existing.Address = p.Address
	existing.Complex = p.Complex
	existing.ContractPrice = p.ContractPrice
	existing.Expires = p.Expires
	if !dealOnly {
		existing.LastModifiedBy = entities.ModifiedBySheet
		existing.LastModifiedAt = modifiedAt
	}
	return false, nil
}

func (f *fakePropertyStore) ApplySheetMarketing(_ context.Context, _ repositories.Querier, crmID string, upd dto.UpdatePropertyDTO, modifiedAt time.Time) error {
	if upd.Empty() {
		return nil
	}
	row, ok := f.rows[crmID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if upd.Category != nil {
		row.Category = upd.Category
	}
	if upd.Collage != nil {
		row.Collage = *upd.Collage
	}
	if upd.Stream != nil {
		row.Stream = upd.Stream
	}
	if upd.Shows != nil {
		row.Shows = *upd.Shows
	}
	if upd.Status != nil {
		row.Status = *upd.Status
	}
	row.LastModifiedBy = entities.ModifiedBySheet
	row.LastModifiedAt = modifiedAt
	return nil
}

func (f *fakePropertyStore) FindByCrmID(_ context.Context, crmID string) (*entities.Property, error) {
	return f.FindForUpdate(context.Background(), nil, crmID)
}

func (f *fakePropertyStore) FindByCrmIDForAgent(context.Context, string, string) (*entities.Property, error) {
	return nil, apperrors.ErrNotFound
}

func (f *fakePropertyStore) GetAgentContracts(context.Context, string, uint64, uint64) ([]entities.Property, uint64, error) {
	return nil, 0, nil
}

func (f *fakePropertyStore) SearchByClientName(context.Context, string, string, uint64, uint64) ([]entities.Property, uint64, error) {
	return nil, 0, nil
}

func (f *fakePropertyStore) UpdateMarketing(context.Context, string, dto.UpdatePropertyDTO, string) error {
	return nil
}

func (f *fakePropertyStore) Stats(context.Context) (*dto.PropertyStatsDTO, error) {
	return nil, nil
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

// Один и тот же снапшот приходит несколько раз подряд: правка бота,
// сделанная между сверками, не должна терять ни авторство, ни отметку
// времени, ни само значение.
func TestSheetSync_RepeatedSnapshotKeepsBotEdits(t *testing.T) {
	store := &fakePropertyStore{rows: map[string]*entities.Property{}}
	svc := NewSheetSyncService(fakeTxManager{}, store, zap.NewNop())

	base := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	snapshot := dto.SheetSyncRequestDTO{Rows: []dto.SheetRowDTO{{
		CrmID:      "CRM-100",
		ClientName: utils.ToPtr("Петров П."),
		Stream:     utils.ToPtr("сторис от марта"),
		ModifiedAt: &base,
	}}}

	res, err := svc.Sync(context.Background(), snapshot)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	// бот правит строку позже отметки таблицы
	botAt := base.Add(time.Hour)
	row := store.rows["CRM-100"]
	row.Stream = utils.ToPtr("свежие сторис")
	row.LastModifiedBy = entities.ModifiedByBot
	row.LastModifiedAt = botAt

	for i := 0; i < 2; i++ {
		res, err = svc.Sync(context.Background(), snapshot)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Updated)

		got := store.rows["CRM-100"]
		assert.Equal(t, entities.ModifiedByBot, got.LastModifiedBy)
		assert.Equal(t, botAt, got.LastModifiedAt)
		assert.Equal(t, "свежие сторис", *got.Stream)
		// реквизиты при этом берутся из таблицы
		assert.Equal(t, "Петров П.", *got.ClientName)
	}
}

func TestSheetRowModifiedAtOrNow(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	stamped := now.Add(-2 * time.Hour)

	assert.Equal(t, stamped, dto.SheetRowDTO{ModifiedAt: &stamped}.ModifiedAtOrNow(now))
	assert.Equal(t, now, dto.SheetRowDTO{}.ModifiedAtOrNow(now))
}
