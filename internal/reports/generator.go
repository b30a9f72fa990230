package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"github.com/macroscoach/backend/internal/localtime"
	"github.com/macroscoach/backend/internal/plans"
	"github.com/macroscoach/backend/internal/storage"
)

// Generator renders PDF/CSV exports of weight logs and daily macro totals.
type Generator struct {
	mealsStorage   storage.MealsStorage
	weightsStorage storage.WeightsStorage
}

func NewGenerator(mealsStorage storage.MealsStorage, weightsStorage storage.WeightsStorage) *Generator {
	return &Generator{
		mealsStorage:   mealsStorage,
		weightsStorage: weightsStorage,
	}
}

// dayRow is one local calendar day of the export.
type dayRow struct {
	Date     string
	Kcal     float64
	Pro      float64
	Carb     float64
	Fat      float64
	Meals    int
	WeightKg *float64 // last weigh-in of the day, if any
}

// Generate renders the report for [from, to] (inclusive local dates).
func (g *Generator) Generate(ctx context.Context, userID uuid.UUID, loc *time.Location, from, to time.Time, format string) ([]byte, error) {
	rows, err := g.collectDays(ctx, userID, loc, from, to)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatPDF:
		return g.generatePDF(loc, from, to, rows)
	case FormatCSV:
		return g.generateCSV(rows)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func (g *Generator) collectDays(ctx context.Context, userID uuid.UUID, loc *time.Location, from, to time.Time) ([]dayRow, error) {
	rangeFrom, _ := localtime.DayBounds(from, loc)
	_, rangeTo := localtime.DayBounds(to, loc)

	meals, err := g.mealsStorage.ListMealsBetween(ctx, userID, rangeFrom, rangeTo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch meals: %w", err)
	}
	weights, err := g.weightsStorage.ListWeightsBetween(ctx, userID, rangeFrom, rangeTo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weight logs: %w", err)
	}

	mealsByDate := make(map[string][]storage.Meal)
	for _, meal := range meals {
		date := localtime.DateString(meal.When, loc)
		mealsByDate[date] = append(mealsByDate[date], meal)
	}
	weightByDate := make(map[string]float64)
	for _, log := range weights {
		// logs are ascending, the last one of a day wins
		weightByDate[localtime.DateString(log.When, loc)] = log.Kg
	}

	var rows []dayRow
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		date := localtime.DateString(day, loc)
		row := dayRow{Date: date, Meals: len(mealsByDate[date])}

		for _, used := range plans.UsedBySlot(mealsByDate[date]) {
			row.Pro += used.Pro
			row.Carb += used.Carb
			row.Fat += used.Fat
		}
		row.Kcal = plans.KcalOf(row.Pro, row.Carb, row.Fat)

		if kg, ok := weightByDate[date]; ok {
			row.WeightKg = &kg
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (g *Generator) generateCSV(rows []dayRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"date", "kcal", "protein_g", "carb_g", "fat_g", "meals", "weight_kg"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range rows {
		weight := ""
		if row.WeightKg != nil {
			weight = fmt.Sprintf("%.1f", *row.WeightKg)
		}
		record := []string{
			row.Date,
			fmt.Sprintf("%.0f", row.Kcal),
			fmt.Sprintf("%.1f", row.Pro),
			fmt.Sprintf("%.1f", row.Carb),
			fmt.Sprintf("%.1f", row.Fat),
			strconv.Itoa(row.Meals),
			weight,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) generatePDF(loc *time.Location, from, to time.Time, rows []dayRow) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Report nutrizionale")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Periodo: %s / %s", localtime.DateString(from, loc), localtime.DateString(to, loc)))
	pdf.Ln(12)

	summary := summarize(rows)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Riepilogo")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Giorni con pasti registrati: %d", summary.DaysWithMeals))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Kcal medie: %s", formatFloat(summary.AvgKcal, "%.0f")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Proteine medie: %s g", formatFloat(summary.AvgPro, "%.1f")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Variazione peso: %s", summary.WeightDelta))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Giorni")
	pdf.Ln(8)
	g.drawDaysTable(pdf, rows)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) drawDaysTable(pdf *gofpdf.Fpdf, rows []dayRow) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(25, 6, "Data", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Kcal", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Pro (g)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Carb (g)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Fat (g)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(15, 6, "Pasti", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Peso (kg)", "1", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, row := range rows {
		weight := ""
		if row.WeightKg != nil {
			weight = fmt.Sprintf("%.1f", *row.WeightKg)
		}
		pdf.CellFormat(25, 6, row.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%.0f", row.Kcal), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%.1f", row.Pro), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%.1f", row.Carb), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%.1f", row.Fat), "1", 0, "C", false, 0, "")
		pdf.CellFormat(15, 6, strconv.Itoa(row.Meals), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, weight, "1", 1, "C", false, 0, "")
	}
}

type summaryStats struct {
	DaysWithMeals int
	AvgKcal       *float64
	AvgPro        *float64
	WeightDelta   string
}

func summarize(rows []dayRow) summaryStats {
	var stats summaryStats
	var totalKcal, totalPro float64
	var firstWeight, lastWeight *float64

	for _, row := range rows {
		if row.Meals > 0 {
			stats.DaysWithMeals++
			totalKcal += row.Kcal
			totalPro += row.Pro
		}
		if row.WeightKg != nil {
			if firstWeight == nil {
				firstWeight = row.WeightKg
			}
			lastWeight = row.WeightKg
		}
	}

	if stats.DaysWithMeals > 0 {
		avgKcal := totalKcal / float64(stats.DaysWithMeals)
		avgPro := totalPro / float64(stats.DaysWithMeals)
		stats.AvgKcal = &avgKcal
		stats.AvgPro = &avgPro
	}

	if firstWeight != nil && lastWeight != nil {
		stats.WeightDelta = fmt.Sprintf("%+.1f kg", *lastWeight-*firstWeight)
	} else {
		stats.WeightDelta = "n/d"
	}
	return stats
}

func formatFloat(val *float64, layout string) string {
	if val == nil {
		return "n/d"
	}
	return fmt.Sprintf(layout, *val)
}
