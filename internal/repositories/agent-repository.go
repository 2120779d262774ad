package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"vitrina-crm/internal/entities"
	apperrors "vitrina-crm/pkg/errors"
)

const agentColumns = `agent_phone, agent_name, chat_ids, role, property_classes, created_at, updated_at`

type AgentRepositoryInterface interface {
	FindByPhone(ctx context.Context, phone string) (*entities.Agent, error)
	FindByChatID(ctx context.Context, chatID string) (*entities.Agent, error)
	ListByPropertyClass(ctx context.Context, class string) ([]entities.Agent, error)
	List(ctx context.Context) ([]entities.Agent, error)
	Create(ctx context.Context, agent entities.Agent) error
	Update(ctx context.Context, phone string, name, role *string, propertyClasses []string) error
	Delete(ctx context.Context, phone string) error
	AddChatID(ctx context.Context, phone, chatID string) error
	RemoveChatID(ctx context.Context, phone, chatID string) error
	Upsert(ctx context.Context, agent entities.Agent) error
}

type AgentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewAgentRepository(storage *pgxpool.Pool, logger *zap.Logger) AgentRepositoryInterface {
	return &AgentRepository{storage: storage, logger: logger}
}

func scanAgent(row pgx.Row) (*entities.Agent, error) {
	var a entities.Agent
	err := row.Scan(&a.Phone, &a.Name, &a.ChatIDs, &a.Role, &a.PropertyClasses, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования агента: %w", err)
	}
	return &a, nil
}

func (r *AgentRepository) FindByPhone(ctx context.Context, phone string) (*entities.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM vitrina_agents WHERE agent_phone = $1`
	return scanAgent(r.storage.QueryRow(ctx, query, phone))
}

// FindByChatID ищет агента по привязанному чату (GIN по chat_ids).
func (r *AgentRepository) FindByChatID(ctx context.Context, chatID string) (*entities.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM vitrina_agents WHERE chat_ids @> ARRAY[$1]::text[] LIMIT 1`
	return scanAgent(r.storage.QueryRow(ctx, query, chatID))
}

// ListByPropertyClass — агенты, в чей скоуп входит класс недвижимости.
func (r *AgentRepository) ListByPropertyClass(ctx context.Context, class string) ([]entities.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM vitrina_agents
		WHERE property_classes @> ARRAY[$1]::text[]
		ORDER BY agent_name`

	rows, err := r.storage.Query(ctx, query, class)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки агентов по классу: %w", err)
	}
	return r.collect(rows)
}

func (r *AgentRepository) List(ctx context.Context) ([]entities.Agent, error) {
	rows, err := r.storage.Query(ctx, `SELECT `+agentColumns+` FROM vitrina_agents ORDER BY agent_name`)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки агентов: %w", err)
	}
	return r.collect(rows)
}

func (r *AgentRepository) collect(rows pgx.Rows) ([]entities.Agent, error) {
	defer rows.Close()
	agents := make([]entities.Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

func (r *AgentRepository) Create(ctx context.Context, agent entities.Agent) error {
	if agent.ChatIDs == nil {
		agent.ChatIDs = []string{}
	}
	if agent.PropertyClasses == nil {
		agent.PropertyClasses = []string{}
	}
	_, err := r.storage.Exec(ctx, `
		INSERT INTO vitrina_agents (agent_phone, agent_name, chat_ids, role, property_classes)
		VALUES ($1, $2, $3, $4, $5)`,
		agent.Phone, agent.Name, agent.ChatIDs, agent.Role, agent.PropertyClasses,
	)
	if err != nil {
		return fmt.Errorf("ошибка создания агента %s: %w", agent.Phone, err)
	}
	return nil
}

func (r *AgentRepository) Update(ctx context.Context, phone string, name, role *string, propertyClasses []string) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	builder := psql.Update("vitrina_agents").
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"agent_phone": phone})

	if name != nil {
		builder = builder.Set("agent_name", *name)
	}
	if role != nil {
		builder = builder.Set("role", *role)
	}
	if propertyClasses != nil {
		builder = builder.Set("property_classes", propertyClasses)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления агента %s: %w", phone, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *AgentRepository) Delete(ctx context.Context, phone string) error {
	tag, err := r.storage.Exec(ctx, `DELETE FROM vitrina_agents WHERE agent_phone = $1`, phone)
	if err != nil {
		return fmt.Errorf("ошибка удаления агента %s: %w", phone, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AddChatID добавляет чат в множество, не создавая дублей.
func (r *AgentRepository) AddChatID(ctx context.Context, phone, chatID string) error {
	tag, err := r.storage.Exec(ctx, `
		UPDATE vitrina_agents
		SET chat_ids = array_append(chat_ids, $1), updated_at = now()
		WHERE agent_phone = $2 AND NOT (chat_ids @> ARRAY[$1]::text[])`,
		chatID, phone,
	)
	if err != nil {
		return fmt.Errorf("ошибка привязки чата к агенту %s: %w", phone, err)
	}
	if tag.RowsAffected() == 0 {
		// Либо агента нет, либо чат уже привязан — различаем.
		var exists bool
		if err := r.storage.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM vitrina_agents WHERE agent_phone = $1)`, phone,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return apperrors.ErrNotFound
		}
	}
	return nil
}

func (r *AgentRepository) RemoveChatID(ctx context.Context, phone, chatID string) error {
	_, err := r.storage.Exec(ctx, `
		UPDATE vitrina_agents
		SET chat_ids = array_remove(chat_ids, $1), updated_at = now()
		WHERE agent_phone = $2`,
		chatID, phone,
	)
	if err != nil {
		return fmt.Errorf("ошибка отвязки чата от агента %s: %w", phone, err)
	}
	return nil
}

// Upsert используется импортом agents.csv: имя и роль перезаписываются,
// привязанные чаты сохраняются.
func (r *AgentRepository) Upsert(ctx context.Context, agent entities.Agent) error {
	if agent.ChatIDs == nil {
		agent.ChatIDs = []string{}
	}
	if agent.PropertyClasses == nil {
		agent.PropertyClasses = []string{}
	}
	_, err := r.storage.Exec(ctx, `
		INSERT INTO vitrina_agents (agent_phone, agent_name, chat_ids, role, property_classes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (agent_phone) DO UPDATE SET
			agent_name       = EXCLUDED.agent_name,
			role             = EXCLUDED.role,
			property_classes = EXCLUDED.property_classes,
			updated_at       = now()`,
		agent.Phone, agent.Name, agent.ChatIDs, agent.Role, agent.PropertyClasses,
	)
	if err != nil {
		return fmt.Errorf("ошибка upsert агента %s: %w", agent.Phone, err)
	}
	return nil
}
