package stock

import "errors"

var (
	ErrProductNotFound   = errors.New("ürün bulunamadı")
	ErrInvalidQuantity   = errors.New("miktar 0'dan büyük olmalı")
	ErrInsufficientStock = errors.New("yetersiz stok")
)
