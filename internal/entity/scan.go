package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/grupoeventa/comprobantes/constants"
)

// Scan is one OCR job over one uploaded file.
type Scan struct {
	ID            uuid.UUID
	FilePath      string
	FileName      string
	Format        string // constants.PDF | constants.IMAGE
	ContentHash   string // hex sha256 of the file bytes
	Status        constants.ScanStatus
	OCREngine     string // "vision" | "tesseract", set once recognition succeeds
	OCRConfidence int    // 0..100
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
