package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"vitrina-crm/internal/dto"
	"vitrina-crm/internal/entities"
	apperrors "vitrina-crm/pkg/errors"
)

const propertyColumns = `crm_id, date_signed, contract_number, mop, rop, dd, client_name,
	address, complex, contract_price, expires, category, collage, prof_collage,
	krisha, instagram, tiktok, mailing, stream, shows, analytics, price_update,
	provide_analytics, push_for_price, status, last_modified_by, last_modified_at, created_at`

type PropertyRepositoryInterface interface {
	GetAgentContracts(ctx context.Context, agentName string, limit, offset uint64) ([]entities.Property, uint64, error)
	FindByCrmID(ctx context.Context, crmID string) (*entities.Property, error)
	FindByCrmIDForAgent(ctx context.Context, crmID, agentName string) (*entities.Property, error)
	SearchByClientName(ctx context.Context, clientName, agentName string, limit, offset uint64) ([]entities.Property, uint64, error)
	UpdateMarketing(ctx context.Context, crmID string, upd dto.UpdatePropertyDTO, modifiedBy string) error
	ApplySheetMarketing(ctx context.Context, q Querier, crmID string, upd dto.UpdatePropertyDTO, modifiedAt time.Time) error
	UpsertSheetRow(ctx context.Context, q Querier, p entities.Property, modifiedAt time.Time, dealOnly bool) (inserted bool, err error)
	FindForUpdate(ctx context.Context, q Querier, crmID string) (*entities.Property, error)
	Stats(ctx context.Context) (*dto.PropertyStatsDTO, error)
}

type PropertyRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewPropertyRepository(storage *pgxpool.Pool, logger *zap.Logger) PropertyRepositoryInterface {
	return &PropertyRepository{storage: storage, logger: logger}
}

// -----------------------------------------------------------
// SCAN
// -----------------------------------------------------------

func scanProperty(row pgx.Row) (*entities.Property, error) {
	var p entities.Property
	var dateSigned, contractNumber, mop, rop, dd, clientName, address, complexName,
		contractPrice, expires, category, krisha, instagram, tiktok, mailing,
		stream, priceUpdate sql.NullString

	err := row.Scan(
		&p.CrmID, &dateSigned, &contractNumber, &mop, &rop, &dd, &clientName,
		&address, &complexName, &contractPrice, &expires, &category,
		&p.Collage, &p.ProfCollage, &krisha, &instagram, &tiktok,
		&mailing, &stream, &p.Shows, &p.Analytics, &priceUpdate,
		&p.ProvideAnalytics, &p.PushForPrice, &p.Status,
		&p.LastModifiedBy, &p.LastModifiedAt, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования property: %w", err)
	}

	assign := func(dst **string, src sql.NullString) {
		if src.Valid {
			*dst = &src.String
		}
	}
	assign(&p.DateSigned, dateSigned)
	assign(&p.ContractNumber, contractNumber)
	assign(&p.Mop, mop)
	assign(&p.Rop, rop)
	assign(&p.Dd, dd)
	assign(&p.ClientName, clientName)
	assign(&p.Address, address)
	assign(&p.Complex, complexName)
	assign(&p.ContractPrice, contractPrice)
	assign(&p.Expires, expires)
	assign(&p.Category, category)
	assign(&p.Krisha, krisha)
	assign(&p.Instagram, instagram)
	assign(&p.Tiktok, tiktok)
	assign(&p.Mailing, mailing)
	assign(&p.Stream, stream)
	assign(&p.PriceUpdate, priceUpdate)

	return &p, nil
}

// -----------------------------------------------------------
// ПОИСК ПО АГЕНТУ
// -----------------------------------------------------------

// agentMatch строит условие "фамилия и имя встречаются в одной из колонок
// mop/rop/dd". ФИО агента приходит как "Фамилия Имя [Отчество]"; регистр
// не учитывается (функциональные индексы по LOWER).
func agentMatch(agentName string) sq.Sqlizer {
	parts := strings.Fields(strings.TrimSpace(agentName))
	surname := ""
	name := ""
	if len(parts) > 0 {
		surname = strings.ToLower(parts[0])
	}
	if len(parts) > 1 {
		name = strings.ToLower(parts[1])
	}
	surnameLike := "%" + surname + "%"
	nameLike := "%" + name + "%"

	match := func(col string) sq.Sqlizer {
		return sq.And{
			sq.Expr("LOWER("+col+") LIKE ?", surnameLike),
			sq.Expr("LOWER("+col+") LIKE ?", nameLike),
		}
	}
	return sq.Or{match("mop"), match("rop"), match("dd")}
}

func (r *PropertyRepository) GetAgentContracts(ctx context.Context, agentName string, limit, offset uint64) ([]entities.Property, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	match := agentMatch(agentName)

	var total uint64
	countSQL, countArgs, err := psql.Select("COUNT(*)").From("properties").Where(match).ToSql()
	if err != nil {
		return nil, 0, err
	}
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта контрактов агента: %w", err)
	}
	if total == 0 {
		return []entities.Property{}, 0, nil
	}

	query, args, err := psql.Select(propertyColumns).From("properties").
		Where(match).
		OrderBy("last_modified_at DESC").
		Limit(limit).Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения контрактов агента: %w", err)
	}
	defer rows.Close()

	contracts := make([]entities.Property, 0, limit)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, 0, err
		}
		contracts = append(contracts, *p)
	}
	return contracts, total, rows.Err()
}

func (r *PropertyRepository) FindByCrmID(ctx context.Context, crmID string) (*entities.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE crm_id = $1`
	return scanProperty(r.storage.QueryRow(ctx, query, crmID))
}

// FindByCrmIDForAgent ищет контракт по CRM ID в пределах видимости агента.
func (r *PropertyRepository) FindByCrmIDForAgent(ctx context.Context, crmID, agentName string) (*entities.Property, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Select(propertyColumns).From("properties").
		Where(sq.Eq{"crm_id": crmID}).
		Where(agentMatch(agentName)).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanProperty(r.storage.QueryRow(ctx, query, args...))
}

func (r *PropertyRepository) SearchByClientName(ctx context.Context, clientName, agentName string, limit, offset uint64) ([]entities.Property, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	match := sq.And{
		sq.Expr("LOWER(client_name) LIKE LOWER(?)", "%"+clientName+"%"),
		agentMatch(agentName),
	}

	var total uint64
	countSQL, countArgs, err := psql.Select("COUNT(*)").From("properties").Where(match).ToSql()
	if err != nil {
		return nil, 0, err
	}
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта контрактов по клиенту: %w", err)
	}
	if total == 0 {
		return []entities.Property{}, 0, nil
	}

	query, args, err := psql.Select(propertyColumns).From("properties").
		Where(match).
		OrderBy("last_modified_at DESC").
		Limit(limit).Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка поиска контрактов по клиенту: %w", err)
	}
	defer rows.Close()

	contracts := make([]entities.Property, 0, limit)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, 0, err
		}
		contracts = append(contracts, *p)
	}
	return contracts, total, rows.Err()
}

// -----------------------------------------------------------
// ЗАПИСЬ
// -----------------------------------------------------------

// UpdateMarketing обновляет редактируемые поля и штампует провенанс.
// Пустой DTO — ошибка вызывающей стороны.
func (r *PropertyRepository) UpdateMarketing(ctx context.Context, crmID string, upd dto.UpdatePropertyDTO, modifiedBy string) error {
	if upd.Empty() {
		return apperrors.NewInvalidInputError("нет полей для обновления")
	}

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	builder := psql.Update("properties").
		Set("last_modified_by", modifiedBy).
		Set("last_modified_at", sq.Expr("now()")).
		Where(sq.Eq{"crm_id": crmID})
	builder = applyMarketingSets(builder, upd)

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления контракта %s: %w", crmID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func applyMarketingSets(builder sq.UpdateBuilder, upd dto.UpdatePropertyDTO) sq.UpdateBuilder {
	setIf := func(col string, v interface{}, isNil bool) {
		if !isNil {
			builder = builder.Set(col, v)
		}
	}
	setIf("category", upd.Category, upd.Category == nil)
	setIf("collage", upd.Collage, upd.Collage == nil)
	setIf("prof_collage", upd.ProfCollage, upd.ProfCollage == nil)
	setIf("krisha", upd.Krisha, upd.Krisha == nil)
	setIf("instagram", upd.Instagram, upd.Instagram == nil)
	setIf("tiktok", upd.Tiktok, upd.Tiktok == nil)
	setIf("mailing", upd.Mailing, upd.Mailing == nil)
	setIf("stream", upd.Stream, upd.Stream == nil)
	setIf("shows", upd.Shows, upd.Shows == nil)
	setIf("analytics", upd.Analytics, upd.Analytics == nil)
	setIf("price_update", upd.PriceUpdate, upd.PriceUpdate == nil)
	setIf("provide_analytics", upd.ProvideAnalytics, upd.ProvideAnalytics == nil)
	setIf("push_for_price", upd.PushForPrice, upd.PushForPrice == nil)
	setIf("status", upd.Status, upd.Status == nil)
	return builder
}

// ApplySheetMarketing перезаписывает редактируемые ботом поля значениями
// из таблицы внутри транзакции сверки. Вызывается только когда правка
// таблицы свежее правки бота.
func (r *PropertyRepository) ApplySheetMarketing(ctx context.Context, q Querier, crmID string, upd dto.UpdatePropertyDTO, modifiedAt time.Time) error {
	if upd.Empty() {
		return nil
	}

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	builder := psql.Update("properties").
		Set("last_modified_by", entities.ModifiedBySheet).
		Set("last_modified_at", modifiedAt).
		Where(sq.Eq{"crm_id": crmID})
	builder = applyMarketingSets(builder, upd)

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка записи полей таблицы для %s: %w", crmID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpsertSheetRow вставляет или перезаписывает реквизиты сделки из таблицы.
// Редактируемые ботом поля при обновлении не трогаются: кто их пишет,
// решает SheetSyncService. При dealOnly провенанс существующей строки
// (last_modified_by/last_modified_at) тоже не трогается: свежая правка
// бота должна пережить и повторные снапшоты.
func (r *PropertyRepository) UpsertSheetRow(ctx context.Context, q Querier, p entities.Property, modifiedAt time.Time, dealOnly bool) (bool, error) {
	provenance := `,
			last_modified_by = 'SHEET',
			last_modified_at = EXCLUDED.last_modified_at`
	if dealOnly {
		provenance = ""
	}

	query := `
		INSERT INTO properties (
			crm_id, date_signed, contract_number, mop, rop, dd, client_name,
			address, complex, contract_price, expires,
			last_modified_by, last_modified_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,'SHEET',$12)
		ON CONFLICT (crm_id) DO UPDATE SET
			date_signed      = EXCLUDED.date_signed,
			contract_number  = EXCLUDED.contract_number,
			mop              = EXCLUDED.mop,
			rop              = EXCLUDED.rop,
			dd               = EXCLUDED.dd,
			client_name      = EXCLUDED.client_name,
			address          = EXCLUDED.address,
			complex          = EXCLUDED.complex,
			contract_price   = EXCLUDED.contract_price,
			expires          = EXCLUDED.expires` + provenance + `
		RETURNING (xmax = 0)`

	var inserted bool
	err := q.QueryRow(ctx, query,
		p.CrmID, p.DateSigned, p.ContractNumber, p.Mop, p.Rop, p.Dd, p.ClientName,
		p.Address, p.Complex, p.ContractPrice, p.Expires, modifiedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("ошибка upsert строки таблицы %s: %w", p.CrmID, err)
	}
	return inserted, nil
}

// FindForUpdate читает строку с блокировкой в рамках транзакции сверки.
func (r *PropertyRepository) FindForUpdate(ctx context.Context, q Querier, crmID string) (*entities.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE crm_id = $1 FOR UPDATE`
	return scanProperty(q.QueryRow(ctx, query, crmID))
}

func (r *PropertyRepository) Stats(ctx context.Context) (*dto.PropertyStatsDTO, error) {
	stats := &dto.PropertyStatsDTO{AgentsStats: make(map[string]int64)}

	if err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM properties`).Scan(&stats.TotalRecords); err != nil {
		return nil, fmt.Errorf("ошибка подсчёта записей: %w", err)
	}

	rows, err := r.storage.Query(ctx, `SELECT COALESCE(mop, ''), COUNT(*) FROM properties GROUP BY mop`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики по агентам: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mop string
		var count int64
		if err := rows.Scan(&mop, &count); err != nil {
			return nil, err
		}
		stats.AgentsStats[mop] = count
	}
	return stats, rows.Err()
}
