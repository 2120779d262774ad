package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vitrina-crm/internal/dto"
	"vitrina-crm/internal/entities"
	apperrors "vitrina-crm/pkg/errors"
)

const (
	menuContracts = "📋 Мои объекты"
	menuSearch    = "🔍 Поиск по клиенту"
	menuListings  = "🏠 Свободные объявления"
	menuLogout    = "🚪 Выйти"
)

const recallTimeLayout = "02.01.2006 15:04"

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuContracts),
			tgbotapi.NewKeyboardButton(menuSearch),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuListings),
			tgbotapi.NewKeyboardButton(menuLogout),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func phoneRequestKeyboard() tgbotapi.ReplyKeyboardMarkup {
	btn := tgbotapi.NewKeyboardButtonContact("📱 Отправить мой номер")
	kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(btn))
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	session, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		b.logger.Error("сессия недоступна", zap.Int64("chat_id", chatID), zap.Error(err))
		b.reply(chatID, "Сервис временно недоступен, попробуйте позже.")
		return
	}

	// Контакт обрабатываем до команд: это ответ на запрос логина.
	if msg.Contact != nil {
		b.handleContact(ctx, chatID, session, msg.Contact)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, chatID, session, msg)
		return
	}

	if !session.LoggedIn() {
		b.askLogin(ctx, chatID, session)
		return
	}

	switch session.State {
	case stateAwaitClientName:
		b.handleClientSearch(ctx, chatID, session, msg.Text)
		return
	case stateAwaitRecallTime:
		b.handleRecallTimeInput(ctx, chatID, session, msg.Text)
		return
	case stateAwaitComment:
		b.handleCommentInput(ctx, chatID, session, msg.Text)
		return
	}

	switch msg.Text {
	case menuContracts:
		b.sendContractsPage(ctx, chatID, session, 0)
	case menuSearch:
		session.State = stateAwaitClientName
		b.saveSession(ctx, chatID, session)
		b.reply(chatID, "Введите имя клиента (минимум 3 символа):")
	case menuListings:
		b.sendFreshListings(ctx, chatID, session)
	case menuLogout:
		b.handleLogout(ctx, chatID, session)
	default:
		msg := tgbotapi.NewMessage(chatID, "Выберите действие в меню.")
		msg.ReplyMarkup = mainMenuKeyboard()
		b.send(msg)
	}
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, session *Session, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		args := strings.TrimSpace(msg.CommandArguments())
		// Диплинк вида t.me/<bot>?start=crm_<id> открывает карточку.
		if crmID, ok := strings.CutPrefix(args, "crm_"); ok && session.LoggedIn() {
			b.sendPropertyCard(ctx, chatID, session, crmID)
			return
		}
		if session.LoggedIn() {
			reply := tgbotapi.NewMessage(chatID, "С возвращением! Выберите действие.")
			reply.ReplyMarkup = mainMenuKeyboard()
			b.send(reply)
			return
		}
		b.askLogin(ctx, chatID, session)
	case "help":
		b.reply(chatID, "Бот витрины: сделки CRM и свободные объявления.\n"+
			"«Мои объекты» — ваши сделки с маркетинговыми отметками.\n"+
			"«Поиск по клиенту» — поиск сделки по имени.\n"+
			"«Свободные объявления» — непривязанные объявления по вашим классам жилья.")
	case "logout":
		b.handleLogout(ctx, chatID, session)
	default:
		b.reply(chatID, "Неизвестная команда. /help — список возможностей.")
	}
}

func (b *Bot) askLogin(ctx context.Context, chatID int64, session *Session) {
	session.State = stateAwaitPhone
	b.saveSession(ctx, chatID, session)

	msg := tgbotapi.NewMessage(chatID, "Для входа отправьте свой номер телефона кнопкой ниже.")
	msg.ReplyMarkup = phoneRequestKeyboard()
	b.send(msg)
}

// handleContact сверяет присланный номер со справочником агентов и
// привязывает чат. Чужой контакт не принимаем.
func (b *Bot) handleContact(ctx context.Context, chatID int64, session *Session, contact *tgbotapi.Contact) {
	if contact.UserID != 0 && contact.UserID != chatID {
		// В личном чате user_id совпадает с chat_id.
		b.reply(chatID, "Пожалуйста, отправьте свой собственный контакт.")
		return
	}

	agent, err := b.agents.BindChat(ctx, contact.PhoneNumber, fmt.Sprintf("%d", chatID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrAgentNotFound) || errors.Is(err, apperrors.ErrInvalidPhone) {
			b.reply(chatID, "Этот номер не найден среди агентов. Обратитесь к РОПу.")
			return
		}
		b.logger.Error("привязка чата не удалась", zap.Error(err))
		b.reply(chatID, "Не получилось войти, попробуйте позже.")
		return
	}

	session.Phone = agent.Phone
	session.State = ""
	b.saveSession(ctx, chatID, session)

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Здравствуйте, %s! Вы вошли в витрину.", agent.Name))
	msg.ReplyMarkup = mainMenuKeyboard()
	b.send(msg)
}

func (b *Bot) handleLogout(ctx context.Context, chatID int64, session *Session) {
	if session.LoggedIn() {
		if err := b.agents.UnbindChat(ctx, session.Phone, fmt.Sprintf("%d", chatID)); err != nil {
			b.logger.Warn("отвязка чата не удалась", zap.Error(err))
		}
	}
	if err := b.sessions.Clear(ctx, chatID); err != nil {
		b.logger.Warn("очистка сессии не удалась", zap.Error(err))
	}
	msg := tgbotapi.NewMessage(chatID, "Вы вышли. /start — войти заново.")
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	b.send(msg)
}

// agentName возвращает имя агента для поиска по mop/rop/dd.
func (b *Bot) agentName(ctx context.Context, session *Session) (string, error) {
	agent, err := b.agents.FindByPhone(ctx, session.Phone)
	if err != nil {
		return "", err
	}
	return agent.Name, nil
}

func (b *Bot) sendContractsPage(ctx context.Context, chatID int64, session *Session, page int) {
	name, err := b.agentName(ctx, session)
	if err != nil {
		b.reply(chatID, "Ваш профиль агента не найден. Попробуйте войти заново: /logout")
		return
	}

	perPage := uint64(b.cfg.ContractsPerPage)
	contracts, total, err := b.properties.GetAgentContracts(ctx, name, perPage, uint64(page)*perPage)
	if err != nil {
		b.logger.Error("сделки агента не загрузились", zap.Error(err))
		b.reply(chatID, "Не удалось загрузить сделки, попробуйте позже.")
		return
	}
	if total == 0 {
		b.reply(chatID, "За вами пока нет сделок.")
		return
	}

	b.send(contractsPageMessage(chatID, contracts, page, total, int(perPage)))
}

func contractsPageMessage(chatID int64, contracts []dto.PropertyDTO, page int, total uint64, perPage int) tgbotapi.MessageConfig {
	lastPage := int((total - 1) / uint64(perPage))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Ваши сделки (стр. %d из %d):", page+1, lastPage+1)

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(contracts)+1)
	for _, c := range contracts {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(FormatContractLine(c), "prop:"+c.CrmID),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", fmt.Sprintf("contracts:%d", page-1)))
	}
	if page < lastPage {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Вперёд ➡️", fmt.Sprintf("contracts:%d", page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	return msg
}

func (b *Bot) sendPropertyCard(ctx context.Context, chatID int64, session *Session, crmID string) {
	name, err := b.agentName(ctx, session)
	if err != nil {
		b.reply(chatID, "Ваш профиль агента не найден.")
		return
	}

	card, err := b.properties.FindByCrmIDForAgent(ctx, crmID, name)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			b.reply(chatID, "Сделка не найдена или закреплена не за вами.")
			return
		}
		b.logger.Error("карточка сделки не загрузилась", zap.Error(err))
		b.reply(chatID, "Не удалось открыть карточку, попробуйте позже.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, FormatPropertyCard(*card))
	msg.ReplyMarkup = propertyEditKeyboard(*card)
	msg.DisableWebPagePreview = true
	b.send(msg)
}

func propertyEditKeyboard(p dto.PropertyDTO) tgbotapi.InlineKeyboardMarkup {
	toggle := func(label, field string, v bool) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%s %s", checkbox(v), label),
			fmt.Sprintf("edit:%s:%s", p.CrmID, field),
		)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			toggle("Коллаж", "collage", p.Collage),
			toggle("Проф. коллаж", "prof_collage", p.ProfCollage),
		),
		tgbotapi.NewInlineKeyboardRow(
			toggle("Аналитика", "analytics", p.Analytics),
			toggle("Отправлена", "provide_analytics", p.ProvideAnalytics),
		),
		tgbotapi.NewInlineKeyboardRow(
			toggle("Дожим по цене", "push_for_price", p.PushForPrice),
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("Показ +1 (%d)", p.Shows),
				fmt.Sprintf("edit:%s:shows", p.CrmID),
			),
		),
	)
}

func (b *Bot) handleClientSearch(ctx context.Context, chatID int64, session *Session, query string) {
	session.State = ""
	b.saveSession(ctx, chatID, session)

	name, err := b.agentName(ctx, session)
	if err != nil {
		b.reply(chatID, "Ваш профиль агента не найден.")
		return
	}

	results, total, err := b.properties.SearchByClientName(ctx, strings.TrimSpace(query), name, 10, 0)
	if err != nil {
		var invalid *apperrors.InvalidInputError
		if errors.As(err, &invalid) {
			b.reply(chatID, invalid.Message)
			return
		}
		b.logger.Error("поиск по клиенту не удался", zap.Error(err))
		b.reply(chatID, "Поиск временно недоступен.")
		return
	}
	if total == 0 {
		b.reply(chatID, "Ничего не нашлось. Попробуйте другое имя.")
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(results))
	for _, c := range results {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(FormatContractLine(c), "prop:"+c.CrmID),
		))
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Найдено сделок: %d", total))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(msg)
}

// sendFreshListings показывает свободные объявления по классам агента,
// по одному сообщению-карточке с кнопкой закрепления.
func (b *Bot) sendFreshListings(ctx context.Context, chatID int64, session *Session) {
	listings, err := b.listings.LatestUnclaimedForAgent(ctx, session.Phone, 5)
	if err != nil {
		b.logger.Error("свободные объявления не загрузились", zap.Error(err))
		b.reply(chatID, "Не удалось загрузить объявления, попробуйте позже.")
		return
	}
	if len(listings) == 0 {
		b.reply(chatID, "Свободных объявлений по вашим классам жилья сейчас нет.")
		return
	}

	for _, l := range listings {
		msg := tgbotapi.NewMessage(chatID, FormatListingCard(l))
		msg.DisableWebPagePreview = true
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✋ Взять в работу", fmt.Sprintf("claim:%d", l.VitrinaID)),
			),
		)
		b.send(msg)
	}
}

func (b *Bot) handleRecallTimeInput(ctx context.Context, chatID int64, session *Session, text string) {
	recallAt, err := time.ParseInLocation(recallTimeLayout, strings.TrimSpace(text), time.Local)
	if err != nil {
		b.reply(chatID, "Не понял дату. Формат: 31.12.2026 15:00")
		return
	}

	vitrinaID := session.PendingVitrinaID
	session.State = ""
	session.PendingVitrinaID = 0
	b.saveSession(ctx, chatID, session)

	err = b.listings.UpdateStatus(ctx, vitrinaID, dto.UpdateListingStatusDTO{
		Status:     entities.ObjectStatusRecall,
		RecallTime: &recallAt,
	})
	if err != nil {
		var invalid *apperrors.InvalidInputError
		if errors.As(err, &invalid) {
			b.reply(chatID, invalid.Message)
			return
		}
		b.logger.Error("статус перезвона не сохранился", zap.Error(err))
		b.reply(chatID, "Не удалось сохранить, попробуйте ещё раз.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Напомню перезвонить %s.", recallAt.Format(recallTimeLayout)))
}

func (b *Bot) handleCommentInput(ctx context.Context, chatID int64, session *Session, text string) {
	vitrinaID := session.PendingVitrinaID
	status := session.PendingStatus
	session.State = ""
	session.PendingVitrinaID = 0
	session.PendingStatus = ""
	b.saveSession(ctx, chatID, session)

	comment := strings.TrimSpace(text)
	err := b.listings.UpdateStatus(ctx, vitrinaID, dto.UpdateListingStatusDTO{
		Status:      status,
		Description: &comment,
	})
	if err != nil {
		b.logger.Error("комментарий не сохранился", zap.Error(err))
		b.reply(chatID, "Не удалось сохранить комментарий.")
		return
	}
	b.reply(chatID, "Сохранено.")
}

func (b *Bot) saveSession(ctx context.Context, chatID int64, session *Session) {
	if err := b.sessions.Save(ctx, chatID, session); err != nil {
		b.logger.Error("сессия не сохранилась", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
