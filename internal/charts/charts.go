package charts

import (
	"bytes"
	"fmt"

	"github.com/ivanoskov/gastos_bot/internal/service"
	"github.com/wcharczuk/go-chart/v2"
)

// ChartGenerator рисует графики расходов
type ChartGenerator struct{}

// NewChartGenerator создает новый генератор графиков
func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{}
}

// GenerateCategoryPieChart создает круговую диаграмму расходов по категориям.
// Возвращает nil, если рисовать нечего.
func (g *ChartGenerator) GenerateCategoryPieChart(stats []service.CategoryStat) ([]byte, error) {
	var values []chart.Value
	for _, s := range stats {
		amount, _ := s.Amount.Float64()
		if amount <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %s", s.Name, service.FormatAmount(s.Amount)),
			Value: amount,
		})
	}
	if len(values) == 0 {
		return nil, nil
	}

	pie := chart.PieChart{
		Width:  800,
		Height: 800,
		Values: values,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   40,
				Right:  40,
				Bottom: 40,
			},
			FillColor: chart.ColorWhite,
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render category chart: %w", err)
	}
	return buffer.Bytes(), nil
}
