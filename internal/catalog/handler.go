package catalog

import (
	"errors"
	"fmt"
	"strings"

	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProductResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
}

type CreateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
}

type UpdateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Stock       *int    `json:"stock"` // admin düzeltmesi
}

func toProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
	}
}

// GET /api/products
func ListProductsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		products, err := NewStore(db).ListProducts(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		res := make([]ProductResponse, 0, len(products))
		for i := range products {
			res = append(res, toProductResponse(&products[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/products/:id
func GetProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		p, err := NewStore(db).FindProduct(c.UserContext(), uint(id))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün getirilemedi")
		}
		return c.JSON(toProductResponse(p))
	}
}

// POST /api/admin/products
func CreateProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name zorunlu")
		}
		if body.Price < 0 || body.Stock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "price ve stock negatif olamaz")
		}
		if body.Price > models.MaxAmount {
			return fiber.NewError(fiber.StatusBadRequest, "price üst sınırı aşıyor")
		}

		actor := auth.ActorFromCtx(c)
		p := models.Product{
			Name:        body.Name,
			Description: strings.TrimSpace(body.Description),
			Price:       body.Price,
			Stock:       body.Stock,
			AuditFields: models.AuditFields{CreatedBy: models.ActorID(actor.UserID)},
		}

		err := db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := NewStore(tx).SaveProduct(c.UserContext(), &p); err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Actor:       actor,
				EntityType:  models.EntityProduct,
				EntityID:    p.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Ürün oluşturuldu: %s (stok %d)", p.Name, p.Stock),
				After:       p,
			})
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toProductResponse(&p))
	}
}

// PUT /api/admin/products/:id
func UpdateProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		actor := auth.ActorFromCtx(c)
		var p models.Product
		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			store := NewStore(tx)
			found, err := store.FindProduct(c.UserContext(), uint(id))
			if err != nil {
				return err
			}
			before := *found
			p = *found

			if body.Name != nil {
				name := strings.TrimSpace(*body.Name)
				if name == "" {
					return fiber.NewError(fiber.StatusBadRequest, "name boş olamaz")
				}
				p.Name = name
			}
			if body.Description != nil {
				p.Description = strings.TrimSpace(*body.Description)
			}
			if body.Price != nil {
				if *body.Price < 0 {
					return fiber.NewError(fiber.StatusBadRequest, "price negatif olamaz")
				}
				if *body.Price > models.MaxAmount {
					return fiber.NewError(fiber.StatusBadRequest, "price üst sınırı aşıyor")
				}
				p.Price = *body.Price
			}
			if body.Stock != nil {
				if *body.Stock < 0 {
					return fiber.NewError(fiber.StatusBadRequest, "stock negatif olamaz")
				}
				p.Stock = *body.Stock
			}
			p.UpdatedBy = models.ActorID(actor.UserID)

			if err := store.SaveProduct(c.UserContext(), &p); err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Actor:       actor,
				EntityType:  models.EntityProduct,
				EntityID:    p.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Ürün güncellendi: %s", p.Name),
				Before:      before,
				After:       p,
			})
		})
		if err != nil {
			var fe *fiber.Error
			switch {
			case errors.As(err, &fe):
				return fe
			case errors.Is(err, ErrNotFound):
				return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
			}
		}

		return c.JSON(toProductResponse(&p))
	}
}

// DELETE /api/admin/products/:id
func DeleteProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		actor := auth.ActorFromCtx(c)
		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := NewStore(tx).DeleteProduct(c.UserContext(), uint(id), models.ActorID(actor.UserID)); err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				Actor:       actor,
				EntityType:  models.EntityProduct,
				EntityID:    uint(id),
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Ürün silindi: %d", id),
			})
		})
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
