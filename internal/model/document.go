package model

import (
	"time"

	"github.com/google/uuid"
)

type DocumentType string

const (
	DocumentTypePassport           DocumentType = "passport"
	DocumentTypeVisa               DocumentType = "visa"
	DocumentTypeBirthCertificate   DocumentType = "birth_certificate"
	DocumentTypeMarriageCert       DocumentType = "marriage_certificate"
	DocumentTypePoliceClearance    DocumentType = "police_clearance"
	DocumentTypeMedicalCertificate DocumentType = "medical_certificate"
	DocumentTypeBankStatement      DocumentType = "bank_statement"
	DocumentTypeEmploymentLetter   DocumentType = "employment_letter"
	DocumentTypeInvitationLetter   DocumentType = "invitation_letter"
	DocumentTypeTravelInsurance    DocumentType = "travel_insurance"
	DocumentTypeOther              DocumentType = "other"
)

type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusVerified DocumentStatus = "verified"
	DocumentStatusRejected DocumentStatus = "rejected"
	DocumentStatusExpired  DocumentStatus = "expired"
)

// Document is the metadata record for an uploaded file. The bytes live
// in the blob store; only path and checksum are kept here.
type Document struct {
	Base
	DocumentNumber    string         `db:"document_number" json:"document_number"`
	CitizenID         uuid.UUID      `db:"citizen_id" json:"citizen_id"`
	ApplicationID     *uuid.UUID     `db:"application_id" json:"application_id,omitempty"`
	DocumentType      DocumentType   `db:"document_type" json:"document_type"`
	Title             string         `db:"title" json:"title"`
	Description       *string        `db:"description" json:"description,omitempty"`
	FileName          string         `db:"file_name" json:"file_name"`
	OriginalFileName  string         `db:"original_file_name" json:"original_file_name"`
	FilePath          string         `db:"file_path" json:"-"`
	FileSize          int64          `db:"file_size" json:"file_size"`
	MimeType          string         `db:"mime_type" json:"mime_type"`
	Checksum          string         `db:"checksum" json:"checksum"`
	Status            DocumentStatus `db:"status" json:"status"`
	VerificationDate  *time.Time     `db:"verification_date" json:"verification_date,omitempty"`
	VerifiedBy        *uuid.UUID     `db:"verified_by" json:"verified_by,omitempty"`
	VerificationNotes *string        `db:"verification_notes" json:"verification_notes,omitempty"`
	ExpiryDate        *time.Time     `db:"expiry_date" json:"expiry_date,omitempty"`
	IsConfidential    bool           `db:"is_confidential" json:"is_confidential"`
}

type UploadDocumentRequest struct {
	DocumentType DocumentType `json:"document_type" binding:"required"`
	Title        string       `json:"title" binding:"required"`
	Description  *string      `json:"description"`
	ExpiryDate   *time.Time   `json:"expiry_date"`
}

type VerifyDocumentRequest struct {
	Status DocumentStatus `json:"status" binding:"required,oneof=pending verified rejected expired"`
	Notes  *string        `json:"notes"`
}

type DocumentFilters struct {
	CitizenID     uuid.UUID
	ApplicationID uuid.UUID
	DocumentType  DocumentType
	Status        DocumentStatus
	Pagination
}
