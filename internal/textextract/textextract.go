// Package textextract picks the text-recognition engine for a file. The
// cloud vision engine goes first when configured; tesseract is the local
// fallback and the only engine that handles PDFs.
package textextract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grupoeventa/comprobantes/constants"
	"github.com/grupoeventa/comprobantes/internal/common"
	"github.com/grupoeventa/comprobantes/internal/docparse"
	"github.com/grupoeventa/comprobantes/internal/ocr"
	"github.com/grupoeventa/comprobantes/internal/vision"
)

// Recognizer is a single OCR engine.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, path string) (docparse.RawOCRResult, error)
}

// VisionRecognizer adapts the cloud vision client to the Recognizer
// interface. It only accepts images; the annotate endpoint rejects PDFs.
type VisionRecognizer struct {
	Client *vision.Client
}

func (VisionRecognizer) Name() string { return "vision" }

func (v VisionRecognizer) Recognize(ctx context.Context, path string) (docparse.RawOCRResult, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if constants.MapExtToFormat(ext) != constants.IMAGE {
		return docparse.RawOCRResult{}, fmt.Errorf("vision engine: extension %q: %w", ext, common.ErrUnsupported)
	}
	img, err := os.ReadFile(path)
	if err != nil {
		return docparse.RawOCRResult{}, fmt.Errorf("read image: %w", err)
	}
	return v.Client.Recognize(ctx, img)
}

// TesseractRecognizer adapts the local extractor to the Recognizer
// interface.
type TesseractRecognizer struct {
	Extractor *ocr.Extractor
}

func (TesseractRecognizer) Name() string { return "tesseract" }

func (t TesseractRecognizer) Recognize(ctx context.Context, path string) (docparse.RawOCRResult, error) {
	res, err := t.Extractor.Extract(ctx, path)
	if err != nil {
		return docparse.RawOCRResult{}, err
	}
	return docparse.RawOCRResult{Text: res.Text, Confidence: res.Confidence}, nil
}
