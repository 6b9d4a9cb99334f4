package report

import (
	"log"
	"time"

	"pos-backend/internal/sales"

	"github.com/gofiber/fiber/v2"
)

type DailyReportResponse struct {
	Date             string                      `json:"date"`
	PreviousDate     string                      `json:"previous_date"`
	NextDate         string                      `json:"next_date"`
	TransactionCount int                         `json:"transaction_count"`
	Total            int64                       `json:"total"`
	Transactions     []sales.TransactionResponse `json:"transactions"`
}

// GET /api/reports/daily?date=YYYY-MM-DD
func DailyReportHandler(agg *Aggregator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date, err := agg.ParseDate(c.Query("date"), time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date formatı YYYY-MM-DD olmalı")
		}

		ctx := c.UserContext()
		list, err := agg.ListForDate(ctx, date)
		if err != nil {
			log.Printf("[ERROR] rapor: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor oluşturulamadı")
		}
		total, err := agg.TotalForDate(ctx, date)
		if err != nil {
			log.Printf("[ERROR] rapor: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor oluşturulamadı")
		}

		res := DailyReportResponse{
			Date:             date.Format(DateLayout),
			PreviousDate:     date.AddDate(0, 0, -1).Format(DateLayout),
			NextDate:         date.AddDate(0, 0, 1).Format(DateLayout),
			TransactionCount: len(list),
			Total:            total,
			Transactions:     make([]sales.TransactionResponse, 0, len(list)),
		}
		for i := range list {
			res.Transactions = append(res.Transactions, sales.ToTransactionResponse(&list[i]))
		}
		return c.JSON(res)
	}
}
