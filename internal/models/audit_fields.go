package models

// AuditFields: kaydı oluşturan / güncelleyen / silen kullanıcı.
type AuditFields struct {
	CreatedBy *uint `json:"created_by"`
	UpdatedBy *uint `json:"updated_by"`
	DeletedBy *uint `json:"deleted_by"`
}

// ActorID, 0 kullanıcı ID'sini nil'e çevirir (sistem işlemleri).
func ActorID(userID uint) *uint {
	if userID == 0 {
		return nil
	}
	return &userID
}
