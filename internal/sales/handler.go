package sales

import (
	"errors"
	"log"
	"time"

	"pos-backend/internal/auth"
	"pos-backend/internal/calendar"
	"pos-backend/internal/models"
	"pos-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
)

type ItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CreateTransactionRequest struct {
	// RFC3339 veya YYYY-MM-DD; boşsa şimdiki zaman
	TransactionDate string        `json:"transaction_date"`
	Items           []ItemRequest `json:"items"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

type ItemResponse struct {
	ID          uint   `json:"id"`
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
	Subtotal    int64  `json:"subtotal"`
}

type TransactionResponse struct {
	ID              uint           `json:"id"`
	Reference       string         `json:"reference"`
	TransactionDate time.Time      `json:"transaction_date"`
	Total           int64          `json:"total"`
	Items           []ItemResponse `json:"items"`
}

func ToTransactionResponse(t *models.Transaction) TransactionResponse {
	items := make([]ItemResponse, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, ItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.Product.Name,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Subtotal:    it.Subtotal,
		})
	}
	return TransactionResponse{
		ID:              t.ID,
		Reference:       t.Reference,
		TransactionDate: t.TransactionDate,
		Total:           t.Total,
		Items:           items,
	}
}

// Handler satış uç noktaları; gün sınırları loc'a göre hesaplanır.
type Handler struct {
	svc *Service
	loc *time.Location
}

func NewHandler(svc *Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{svc: svc, loc: loc}
}

// toFiberError servis hatalarını HTTP durum kodlarına çevirir.
func toFiberError(err error, fallback string) error {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe
	case errors.Is(err, ErrNoItems):
		return fiber.NewError(fiber.StatusBadRequest, "En az bir kalem gerekli")
	case errors.Is(err, models.ErrAmountTooLarge):
		return fiber.NewError(fiber.StatusBadRequest, "Tutar üst sınırı aşıyor")
	case errors.Is(err, stock.ErrInvalidQuantity):
		return fiber.NewError(fiber.StatusBadRequest, "quantity 0'dan büyük olmalı")
	case errors.Is(err, stock.ErrProductNotFound):
		return fiber.NewError(fiber.StatusBadRequest, "Ürün bulunamadı veya silinmiş")
	case errors.Is(err, stock.ErrInsufficientStock):
		return fiber.NewError(fiber.StatusConflict, "Yetersiz stok")
	case errors.Is(err, ErrTransactionNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Fiş bulunamadı")
	case errors.Is(err, ErrItemNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Fiş kalemi bulunamadı")
	default:
		log.Printf("[ERROR] satış: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, fallback)
	}
}

func (h *Handler) parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(calendar.DateLayout, s, h.loc)
}

func idParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz "+name)
	}
	return uint(id), nil
}

// POST /api/transactions
func (h *Handler) Create(c *fiber.Ctx) error {
	var body CreateTransactionRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
	}

	in := CreateTransactionInput{Items: make([]ItemInput, 0, len(body.Items))}
	if body.TransactionDate != "" {
		d, err := h.parseDate(body.TransactionDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "transaction_date formatı geçersiz")
		}
		in.Date = d
	}
	for _, it := range body.Items {
		in.Items = append(in.Items, ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	t, err := h.svc.CreateTransaction(c.UserContext(), auth.ActorFromCtx(c), in)
	if err != nil {
		return toFiberError(err, "Fiş oluşturulamadı")
	}
	return c.Status(fiber.StatusCreated).JSON(ToTransactionResponse(t))
}

// GET /api/transactions?date=YYYY-MM-DD (varsayılan: bugün)
func (h *Handler) List(c *fiber.Ctx) error {
	day, err := calendar.ParseDay(c.Query("date"), time.Now(), h.loc)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "date formatı YYYY-MM-DD olmalı")
	}
	from, to := calendar.DayBounds(day, h.loc)

	list, err := h.svc.ListTransactions(c.UserContext(), from, to)
	if err != nil {
		return toFiberError(err, "Fişler listelenemedi")
	}

	res := make([]TransactionResponse, 0, len(list))
	for i := range list {
		res = append(res, ToTransactionResponse(&list[i]))
	}
	return c.JSON(res)
}

// GET /api/transactions/:id
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	t, err := h.svc.GetTransaction(c.UserContext(), id)
	if err != nil {
		return toFiberError(err, "Fiş getirilemedi")
	}
	return c.JSON(ToTransactionResponse(t))
}

// POST /api/transactions/:id/items
func (h *Handler) AddItem(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var body ItemRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
	}

	t, err := h.svc.AddItem(c.UserContext(), auth.ActorFromCtx(c), id, ItemInput{ProductID: body.ProductID, Quantity: body.Quantity})
	if err != nil {
		return toFiberError(err, "Kalem eklenemedi")
	}
	return c.Status(fiber.StatusCreated).JSON(ToTransactionResponse(t))
}

// PUT /api/transactions/:id/items/:itemId
func (h *Handler) UpdateItem(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	itemID, err := idParam(c, "itemId")
	if err != nil {
		return err
	}
	var body UpdateItemRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
	}

	t, err := h.svc.UpdateItemQuantity(c.UserContext(), auth.ActorFromCtx(c), id, itemID, body.Quantity)
	if err != nil {
		return toFiberError(err, "Kalem güncellenemedi")
	}
	return c.JSON(ToTransactionResponse(t))
}

// DELETE /api/transactions/:id/items/:itemId
func (h *Handler) RemoveItem(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	itemID, err := idParam(c, "itemId")
	if err != nil {
		return err
	}

	t, err := h.svc.RemoveItem(c.UserContext(), auth.ActorFromCtx(c), id, itemID)
	if err != nil {
		return toFiberError(err, "Kalem silinemedi")
	}
	return c.JSON(ToTransactionResponse(t))
}

// DELETE /api/transactions/:id
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteTransaction(c.UserContext(), auth.ActorFromCtx(c), id); err != nil {
		return toFiberError(err, "Fiş silinemedi")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RegisterRoutes /api/transactions altındaki uç noktaları bağlar.
func (h *Handler) RegisterRoutes(r fiber.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/:id", h.Get)
	r.Delete("/:id", h.Delete)
	r.Post("/:id/items", h.AddItem)
	r.Put("/:id/items/:itemId", h.UpdateItem)
	r.Delete("/:id/items/:itemId", h.RemoveItem)
}
