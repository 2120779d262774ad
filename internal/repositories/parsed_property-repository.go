package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"vitrina-crm/internal/entities"
	"vitrina-crm/internal/infrastructure/bd"
	apperrors "vitrina-crm/pkg/errors"
	"vitrina-crm/pkg/types"
)

const parsedColumns = `vitrina_id, rbd_id, krisha_id, krisha_date, object_type, address,
	complex, builder, flat_type, property_class, condition, sell_price,
	sell_price_per_m2, address_type, house_num, floor_num, floor_count,
	room_count, phones, description, ceiling_height, area, year_built, wall_type,
	stats_agent_given, stats_time_given, stats_object_status, stats_recall_time,
	stats_description, created_at, updated_at`

// Колонки, разрешённые в filter[...]/sort[...] публичного API.
var parsedListMap = map[string]string{
	"rbd_id":              "rbd_id",
	"krisha_id":           "krisha_id",
	"krisha_date":         "krisha_date",
	"property_class":      "property_class",
	"room_count":          "room_count",
	"stats_agent_given":   "stats_agent_given",
	"stats_object_status": "stats_object_status",
	"created_at":          "created_at",
}

// ArchiveCandidate — строка для проверки живости объявления.
type ArchiveCandidate struct {
	VitrinaID int64
	KrishaID  string
}

type ParsedPropertyRepositoryInterface interface {
	UpsertBatch(ctx context.Context, rows []entities.ParsedProperty) (int, error)
	ExistingRbdIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error)
	Count(ctx context.Context) (int64, error)
	FindByVitrinaID(ctx context.Context, vitrinaID int64) (*entities.ParsedProperty, error)
	LatestUnclaimed(ctx context.Context, propertyClasses []string, limit uint64) ([]entities.ParsedProperty, error)
	Claim(ctx context.Context, vitrinaID int64, agentPhone string) error
	UpdateStatus(ctx context.Context, vitrinaID int64, status string, recallTime *time.Time, description *string) error
	DueRecalls(ctx context.Context, now time.Time, limit uint64) ([]entities.ParsedProperty, error)
	ClearRecall(ctx context.Context, vitrinaID int64) error
	ArchiveCandidates(ctx context.Context, limit uint64) ([]ArchiveCandidate, error)
	MarkArchived(ctx context.Context, vitrinaID int64) error
	DistinctPropertyClasses(ctx context.Context) ([]string, error)
	List(ctx context.Context, filter types.Filter) ([]entities.ParsedProperty, uint64, error)
}

type ParsedPropertyRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewParsedPropertyRepository(storage *pgxpool.Pool, logger *zap.Logger) ParsedPropertyRepositoryInterface {
	return &ParsedPropertyRepository{storage: storage, logger: logger}
}

// -----------------------------------------------------------
// SCAN
// -----------------------------------------------------------

func scanParsedProperty(row pgx.Row) (*entities.ParsedProperty, error) {
	var p entities.ParsedProperty

	err := row.Scan(
		&p.VitrinaID, &p.RbdID, &p.KrishaID, &p.KrishaDate, &p.ObjectType, &p.Address,
		&p.Complex, &p.Builder, &p.FlatType, &p.PropertyClass, &p.Condition, &p.SellPrice,
		&p.SellPricePerM2, &p.AddressType, &p.HouseNum, &p.FloorNum, &p.FloorCount,
		&p.RoomCount, &p.Phones, &p.Description, &p.CeilingHeight, &p.Area, &p.YearBuilt, &p.WallType,
		&p.StatsAgentGiven, &p.StatsTimeGiven, &p.StatsObjectStatus, &p.StatsRecallTime,
		&p.StatsDescription, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования parsed_property: %w", err)
	}
	return &p, nil
}

func (r *ParsedPropertyRepository) collect(rows pgx.Rows) ([]entities.ParsedProperty, error) {
	defer rows.Close()
	out := make([]entities.ParsedProperty, 0)
	for rows.Next() {
		p, err := scanParsedProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------
// ЗАПИСЬ ПАРСЕРА
// -----------------------------------------------------------

// UpsertBatch вставляет пачку строк парсера одним батчем.
// Конфликт по rbd_id не ошибка: строка уже известна, пропускаем.
func (r *ParsedPropertyRepository) UpsertBatch(ctx context.Context, rows []entities.ParsedProperty) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	const insertSQL = `
		INSERT INTO parsed_properties (
			rbd_id, krisha_id, krisha_date, object_type, address, complex, builder,
			flat_type, property_class, condition, sell_price, sell_price_per_m2,
			address_type, house_num, floor_num, floor_count, room_count, phones,
			description, ceiling_height, area, year_built, wall_type,
			stats_agent_given, stats_time_given, stats_object_status,
			stats_recall_time, stats_description
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,
			$19,$20,$21,$22,$23,$24,$25,$26,$27,$28)
		ON CONFLICT (rbd_id) DO NOTHING`

	batch := &pgx.Batch{}
	for _, p := range rows {
		batch.Queue(insertSQL,
			p.RbdID, p.KrishaID, p.KrishaDate, p.ObjectType, p.Address, p.Complex, p.Builder,
			p.FlatType, p.PropertyClass, p.Condition, p.SellPrice, p.SellPricePerM2,
			p.AddressType, p.HouseNum, p.FloorNum, p.FloorCount, p.RoomCount, p.Phones,
			p.Description, p.CeilingHeight, p.Area, p.YearBuilt, p.WallType,
			p.StatsAgentGiven, p.StatsTimeGiven, p.StatsObjectStatus,
			p.StatsRecallTime, p.StatsDescription,
		)
	}

	br := r.storage.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for range rows {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("ошибка пакетной вставки parsed_properties: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (r *ParsedPropertyRepository) ExistingRbdIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	existing := make(map[int64]struct{}, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := r.storage.Query(ctx, `SELECT rbd_id FROM parsed_properties WHERE rbd_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки существующих rbd_id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = struct{}{}
	}
	return existing, rows.Err()
}

func (r *ParsedPropertyRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM parsed_properties`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта parsed_properties: %w", err)
	}
	return n, nil
}

// -----------------------------------------------------------
// ЧТЕНИЕ
// -----------------------------------------------------------

func (r *ParsedPropertyRepository) FindByVitrinaID(ctx context.Context, vitrinaID int64) (*entities.ParsedProperty, error) {
	query := `SELECT ` + parsedColumns + ` FROM parsed_properties WHERE vitrina_id = $1`
	return scanParsedProperty(r.storage.QueryRow(ctx, query, vitrinaID))
}

// LatestUnclaimed отдаёт по одной, самой свежей, незакреплённой строке
// на каждый krisha_id — "первое совпадение выигрывает". Пустой список
// классов означает без фильтра по классу.
func (r *ParsedPropertyRepository) LatestUnclaimed(ctx context.Context, propertyClasses []string, limit uint64) ([]entities.ParsedProperty, error) {
	query := `SELECT DISTINCT ON (krisha_id) ` + parsedColumns + `
		FROM parsed_properties
		WHERE stats_agent_given IS NULL
		  AND (stats_object_status IS DISTINCT FROM 'Архив')
		  AND krisha_id IS NOT NULL AND krisha_id <> ''
		  AND (cardinality($1::text[]) = 0 OR property_class = ANY($1))
		ORDER BY krisha_id, krisha_date DESC NULLS LAST
		LIMIT $2`

	if propertyClasses == nil {
		propertyClasses = []string{}
	}
	rows, err := r.storage.Query(ctx, query, propertyClasses, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки незакреплённых объявлений: %w", err)
	}
	return r.collect(rows)
}

// -----------------------------------------------------------
// ЗАКРЕПЛЕНИЕ И СТАТУСЫ
// -----------------------------------------------------------

// Claim закрепляет объявление условным UPDATE: гонку двух агентов
// разрешает БД, проигравший получает ErrAlreadyClaimed.
func (r *ParsedPropertyRepository) Claim(ctx context.Context, vitrinaID int64, agentPhone string) error {
	tag, err := r.storage.Exec(ctx, `
		UPDATE parsed_properties
		SET stats_agent_given = $1, stats_time_given = now(), updated_at = now()
		WHERE vitrina_id = $2 AND stats_agent_given IS NULL`,
		agentPhone, vitrinaID,
	)
	if err != nil {
		return fmt.Errorf("ошибка закрепления объявления %d: %w", vitrinaID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.storage.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM parsed_properties WHERE vitrina_id = $1)`, vitrinaID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return apperrors.ErrAlreadyClaimed
}

func (r *ParsedPropertyRepository) UpdateStatus(ctx context.Context, vitrinaID int64, status string, recallTime *time.Time, description *string) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	builder := psql.Update("parsed_properties").
		Set("stats_object_status", status).
		Set("stats_recall_time", recallTime).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"vitrina_id": vitrinaID})
	if description != nil {
		builder = builder.Set("stats_description", description)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса объявления %d: %w", vitrinaID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DueRecalls выбирает созревшие перезвоны. Предикат дословно повторяет
// частичный индекс idx_parsed_recall_due.
func (r *ParsedPropertyRepository) DueRecalls(ctx context.Context, now time.Time, limit uint64) ([]entities.ParsedProperty, error) {
	query := `SELECT ` + parsedColumns + ` FROM parsed_properties
		WHERE stats_object_status = 'Перезвонить'
		  AND stats_recall_time IS NOT NULL
		  AND stats_agent_given IS NOT NULL
		  AND stats_recall_time <= $1
		ORDER BY stats_recall_time
		LIMIT $2`

	rows, err := r.storage.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки перезвонов: %w", err)
	}
	return r.collect(rows)
}

// ClearRecall снимает напоминание после доставки: перезвон одноразовый.
func (r *ParsedPropertyRepository) ClearRecall(ctx context.Context, vitrinaID int64) error {
	_, err := r.storage.Exec(ctx, `
		UPDATE parsed_properties
		SET stats_recall_time = NULL, updated_at = now()
		WHERE vitrina_id = $1`, vitrinaID,
	)
	if err != nil {
		return fmt.Errorf("ошибка сброса перезвона %d: %w", vitrinaID, err)
	}
	return nil
}

// -----------------------------------------------------------
// АРХИВАЦИЯ
// -----------------------------------------------------------

func (r *ParsedPropertyRepository) ArchiveCandidates(ctx context.Context, limit uint64) ([]ArchiveCandidate, error) {
	query := `SELECT vitrina_id, krisha_id FROM parsed_properties
		WHERE stats_object_status IS DISTINCT FROM 'Архив'
		  AND krisha_id IS NOT NULL AND krisha_id <> ''
		ORDER BY vitrina_id
		LIMIT $1`

	rows, err := r.storage.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки кандидатов на архивацию: %w", err)
	}
	defer rows.Close()

	out := make([]ArchiveCandidate, 0)
	for rows.Next() {
		var c ArchiveCandidate
		if err := rows.Scan(&c.VitrinaID, &c.KrishaID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ParsedPropertyRepository) MarkArchived(ctx context.Context, vitrinaID int64) error {
	tag, err := r.storage.Exec(ctx, `
		UPDATE parsed_properties
		SET stats_object_status = 'Архив', stats_recall_time = NULL, updated_at = now()
		WHERE vitrina_id = $1`, vitrinaID,
	)
	if err != nil {
		return fmt.Errorf("ошибка архивации объявления %d: %w", vitrinaID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DistinctPropertyClasses — актуальный набор классов недвижимости из БД,
// кешируется сервисом после каждого прогона парсера.
func (r *ParsedPropertyRepository) DistinctPropertyClasses(ctx context.Context) ([]string, error) {
	rows, err := r.storage.Query(ctx, `
		SELECT DISTINCT property_class FROM parsed_properties
		WHERE property_class IS NOT NULL AND property_class <> ''
		ORDER BY property_class`)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки классов недвижимости: %w", err)
	}
	defer rows.Close()

	classes := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// -----------------------------------------------------------
// СПИСОК ДЛЯ API
// -----------------------------------------------------------

func (r *ParsedPropertyRepository) List(ctx context.Context, filter types.Filter) ([]entities.ParsedProperty, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			return b.Where(sq.Or{
				sq.ILike{"address": pat},
				sq.ILike{"complex": pat},
				sq.ILike{"description": pat},
			})
		}
		return b
	}

	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil

	countBuilder := applySearch(psql.Select("COUNT(*)").From("parsed_properties"))
	countBuilder = bd.ApplyListParams(countBuilder, countFilter, parsedListMap)

	var total uint64
	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.ParsedProperty{}, 0, nil
	}

	builder := applySearch(psql.Select(parsedColumns).From("parsed_properties"))
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("vitrina_id DESC")
	}
	builder = bd.ApplyListParams(builder, filter, parsedListMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	list, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
