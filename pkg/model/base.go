package model

import (
	"time"
)

// BaseModel 基础模型，自增主键，不做软删除（删除即物理删除）
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
