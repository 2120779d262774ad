package services

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"vitrina-crm/internal/entities"
	"vitrina-crm/internal/repositories"
	"vitrina-crm/pkg/types"
)

type ReportServiceInterface interface {
	ListingsWorkbook(ctx context.Context, filter types.Filter) (*excelize.File, uint64, error)
}

// ReportService собирает выгрузку объявлений в xlsx для РОПов.
type ReportService struct {
	parsedRepo repositories.ParsedPropertyRepositoryInterface
	agentRepo  repositories.AgentRepositoryInterface
	logger     *zap.Logger
}

func NewReportService(
	parsedRepo repositories.ParsedPropertyRepositoryInterface,
	agentRepo repositories.AgentRepositoryInterface,
	logger *zap.Logger,
) ReportServiceInterface {
	return &ReportService{
		parsedRepo: parsedRepo,
		agentRepo:  agentRepo,
		logger:     logger,
	}
}

var listingHeaders = []interface{}{
	"ID", "Krisha ID", "Дата объявления", "Тип", "Адрес", "ЖК", "Класс",
	"Комнат", "Площадь", "Цена", "Цена за м²", "Телефоны",
	"Агент", "Взято в работу", "Статус", "Перезвон", "Комментарий",
}

func listingToRow(p *entities.ParsedProperty, agentNames map[string]string) []interface{} {
	dateFmt := "02.01.2006 15:04"
	str := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	var krishaDate, timeGiven, recallTime string
	if p.KrishaDate != nil {
		krishaDate = p.KrishaDate.Format("02.01.2006")
	}
	if p.StatsTimeGiven != nil {
		timeGiven = p.StatsTimeGiven.Format(dateFmt)
	}
	if p.StatsRecallTime != nil {
		recallTime = p.StatsRecallTime.Format(dateFmt)
	}

	var rooms, area, price, pricePerM2 interface{}
	if p.RoomCount != nil {
		rooms = *p.RoomCount
	}
	if p.Area != nil {
		area = *p.Area
	}
	if p.SellPrice != nil {
		price = *p.SellPrice
	}
	if p.SellPricePerM2 != nil {
		pricePerM2 = *p.SellPricePerM2
	}

	agent := str(p.StatsAgentGiven)
	if name, ok := agentNames[agent]; ok && name != "" {
		agent = fmt.Sprintf("%s (%s)", name, agent)
	}

	return []interface{}{
		p.VitrinaID, str(p.KrishaID), krishaDate, str(p.ObjectType),
		str(p.Address), str(p.Complex), str(p.PropertyClass),
		rooms, area, price, pricePerM2, str(p.Phones),
		agent, timeGiven, str(p.StatsObjectStatus), recallTime,
		str(p.StatsDescription),
	}
}

// ListingsWorkbook выгружает объявления по фильтру списка. Телефон
// агента в колонке дополняется именем из vitrina_agents.
func (s *ReportService) ListingsWorkbook(ctx context.Context, filter types.Filter) (*excelize.File, uint64, error) {
	listings, total, err := s.parsedRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("выборка объявлений для отчёта: %w", err)
	}

	agentNames := make(map[string]string)
	agents, err := s.agentRepo.List(ctx)
	if err != nil {
		s.logger.Warn("имена агентов для отчёта недоступны", zap.Error(err))
	} else {
		for i := range agents {
			agentNames[agents[i].Phone] = agents[i].Name
		}
	}

	f := excelize.NewFile()
	sheet := "Объявления"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &listingHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "Q1", style)

	for i := range listings {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := listingToRow(&listings[i], agentNames)
		f.SetSheetRow(sheet, cell, &row)
	}
	f.SetColWidth(sheet, "E", "F", 35)
	f.SetColWidth(sheet, "L", "M", 25)
	f.SetColWidth(sheet, "Q", "Q", 50)

	return f, total, nil
}
