package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vitrina-crm/internal/entities"
	apperrors "vitrina-crm/pkg/errors"
)

func newAgentRepo() AgentRepositoryInterface {
	return NewAgentRepository(testPool, zap.NewNop())
}

func TestAgentRepository_ChatBinding(t *testing.T) {
	skipIfNoDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := newAgentRepo()

	seedAgent(t, "77011234567", "Иванов Иван", entities.AgentRoleAgent, []string{"Комфорт"})

	require.NoError(t, repo.AddChatID(ctx, "77011234567", "100500"))
	// повторная привязка того же чата дублей не создаёт
	require.NoError(t, repo.AddChatID(ctx, "77011234567", "100500"))
	require.NoError(t, repo.AddChatID(ctx, "77011234567", "200600"))

	agent, err := repo.FindByPhone(ctx, "77011234567")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"100500", "200600"}, agent.ChatIDs)

	t.Run("поиск по чату", func(t *testing.T) {
		agent, err := repo.FindByChatID(ctx, "200600")
		require.NoError(t, err)
		assert.Equal(t, "77011234567", agent.Phone)

		_, err = repo.FindByChatID(ctx, "999999")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("отвязка", func(t *testing.T) {
		require.NoError(t, repo.RemoveChatID(ctx, "77011234567", "100500"))

		agent, err := repo.FindByPhone(ctx, "77011234567")
		require.NoError(t, err)
		assert.Equal(t, []string{"200600"}, agent.ChatIDs)

		// отвязка несуществующего чата — no-op
		assert.NoError(t, repo.RemoveChatID(ctx, "77011234567", "100500"))
	})

	t.Run("привязка к несуществующему агенту", func(t *testing.T) {
		err := repo.AddChatID(ctx, "77000000000", "100500")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestAgentRepository_Upsert(t *testing.T) {
	skipIfNoDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := newAgentRepo()

	agent := entities.Agent{
		Phone:           "77021112233",
		Name:            "Петров Пётр",
		Role:            entities.AgentRoleAgent,
		PropertyClasses: []string{"Бизнес"},
	}
	require.NoError(t, repo.Upsert(ctx, agent))
	require.NoError(t, repo.AddChatID(ctx, agent.Phone, "300700"))

	// повторный импорт перезаписывает имя и роль, но не трогает чаты
	agent.Name = "Петров Пётр Петрович"
	agent.Role = entities.AgentRoleRop
	require.NoError(t, repo.Upsert(ctx, agent))

	got, err := repo.FindByPhone(ctx, agent.Phone)
	require.NoError(t, err)
	assert.Equal(t, "Петров Пётр Петрович", got.Name)
	assert.Equal(t, entities.AgentRoleRop, got.Role)
	assert.Equal(t, []string{"300700"}, got.ChatIDs)
}

func TestAgentRepository_ListByPropertyClass(t *testing.T) {
	skipIfNoDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := newAgentRepo()

	seedAgent(t, "77011111111", "Первый", entities.AgentRoleAgent, []string{"Комфорт", "Бизнес"})
	seedAgent(t, "77022222222", "Второй", entities.AgentRoleAgent, []string{"Бизнес"})
	seedAgent(t, "77033333333", "Третий", entities.AgentRoleAgent, []string{"Эконом"})

	agents, err := repo.ListByPropertyClass(ctx, "Бизнес")
	require.NoError(t, err)

	phones := make([]string, 0, len(agents))
	for _, a := range agents {
		phones = append(phones, a.Phone)
	}
	assert.ElementsMatch(t, []string{"77011111111", "77022222222"}, phones)
}

func TestAgentRepository_Update(t *testing.T) {
	skipIfNoDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := newAgentRepo()

	seedAgent(t, "77044444444", "Старое Имя", entities.AgentRoleAgent, nil)

	name := "Новое Имя"
	require.NoError(t, repo.Update(ctx, "77044444444", &name, nil, []string{"Комфорт"}))

	got, err := repo.FindByPhone(ctx, "77044444444")
	require.NoError(t, err)
	assert.Equal(t, "Новое Имя", got.Name)
	assert.Equal(t, entities.AgentRoleAgent, got.Role)
	assert.Equal(t, []string{"Комфорт"}, got.PropertyClasses)

	assert.ErrorIs(t, repo.Update(ctx, "77000000000", &name, nil, nil), apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "77000000000"), apperrors.ErrNotFound)
}
