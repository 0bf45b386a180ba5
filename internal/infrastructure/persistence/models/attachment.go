package models

import (
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/attachment"
	"github.com/procurement/backend/internal/domain/shared"
)

// FileModel is the persistence model for attachment metadata. The object
// itself lives in object storage under StorageKey.
type FileModel struct {
	BaseModel
	TenantID     uuid.UUID          `gorm:"type:uuid;not null;index"`
	SubjectType  shared.SubjectType `gorm:"type:varchar(30);not null;index:idx_file_subject,priority:1"`
	SubjectID    uuid.UUID          `gorm:"type:uuid;not null;index:idx_file_subject,priority:2"`
	OriginalName string             `gorm:"type:varchar(255);not null"`
	StorageKey   string             `gorm:"type:varchar(500);not null;uniqueIndex"`
	MimeType     string             `gorm:"type:varchar(100);not null"`
	Extension    string             `gorm:"type:varchar(10);not null"`
	Size         int64              `gorm:"not null"`
	UploadedBy   *uuid.UUID         `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (FileModel) TableName() string {
	return "files"
}

// ToDomain converts the persistence model to a domain File.
func (m *FileModel) ToDomain() *attachment.File {
	return &attachment.File{
		BaseEntity:   m.BaseModel.ToDomain(),
		TenantID:     m.TenantID,
		Subject:      shared.SubjectRef{Type: m.SubjectType, ID: m.SubjectID},
		OriginalName: m.OriginalName,
		StorageKey:   m.StorageKey,
		MimeType:     m.MimeType,
		Extension:    m.Extension,
		Size:         m.Size,
		UploadedBy:   m.UploadedBy,
	}
}

// FileModelFromDomain creates a new persistence model from a domain File.
func FileModelFromDomain(f *attachment.File) *FileModel {
	m := &FileModel{
		TenantID:     f.TenantID,
		SubjectType:  f.Subject.Type,
		SubjectID:    f.Subject.ID,
		OriginalName: f.OriginalName,
		StorageKey:   f.StorageKey,
		MimeType:     f.MimeType,
		Extension:    f.Extension,
		Size:         f.Size,
		UploadedBy:   f.UploadedBy,
	}
	m.FromDomainBaseEntity(f.BaseEntity)
	return m
}

// RemarkModel is the persistence model for a remark on a subject.
type RemarkModel struct {
	BaseModel
	TenantID    uuid.UUID          `gorm:"type:uuid;not null;index"`
	SubjectType shared.SubjectType `gorm:"type:varchar(30);not null;index:idx_remark_subject,priority:1"`
	SubjectID   uuid.UUID          `gorm:"type:uuid;not null;index:idx_remark_subject,priority:2"`
	Body        string             `gorm:"type:text;not null"`
	AuthorID    uuid.UUID          `gorm:"type:uuid;not null"`
	AuthorName  string             `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (RemarkModel) TableName() string {
	return "remarks"
}

// ToDomain converts the persistence model to a domain Remark.
func (m *RemarkModel) ToDomain() *attachment.Remark {
	return &attachment.Remark{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		Subject:    shared.SubjectRef{Type: m.SubjectType, ID: m.SubjectID},
		Body:       m.Body,
		AuthorID:   m.AuthorID,
		AuthorName: m.AuthorName,
	}
}

// RemarkModelFromDomain creates a new persistence model from a domain Remark.
func RemarkModelFromDomain(r *attachment.Remark) *RemarkModel {
	m := &RemarkModel{
		TenantID:    r.TenantID,
		SubjectType: r.Subject.Type,
		SubjectID:   r.Subject.ID,
		Body:        r.Body,
		AuthorID:    r.AuthorID,
		AuthorName:  r.AuthorName,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}
