package qrcode

import (
	"strconv"

	"circulation/config"
	"circulation/internal/domain/service"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

const labelType = "copy"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type labelService struct {
	size                 int
	errorCorrectionLevel qrcode.RecoveryLevel
	baseURL              string
}

// LabelData represents the content encoded into a copy label
type LabelData struct {
	Type   string `json:"type"`
	BookID int64  `json:"bookId"`
	CopyID int64  `json:"copyId"`
	Ref    string `json:"ref,omitempty"`
}

// NewLabelService creates a new label service from the qrcode config section
func NewLabelService(cfg *config.Config) service.LabelService {
	if cfg.QRCode == nil {
		// Use default values if not configured
		return NewQRLabelService(256, "M", "")
	}

	return NewQRLabelService(cfg.QRCode.Size, cfg.QRCode.ErrorCorrectionLevel, cfg.QRCode.BaseURL)
}

// NewQRLabelService creates a new label service instance
func NewQRLabelService(size int, errorCorrectionLevel, baseURL string) service.LabelService {
	// Set error correction level
	var level qrcode.RecoveryLevel
	switch errorCorrectionLevel {
	case "L":
		level = qrcode.Low
	case "M":
		level = qrcode.Medium
	case "Q":
		level = qrcode.High
	case "H":
		level = qrcode.Highest
	default:
		level = qrcode.Medium
	}

	return &labelService{
		size:                 size,
		errorCorrectionLevel: level,
		baseURL:              baseURL,
	}
}

// GenerateCopyLabel renders the copy label as a PNG
func (s *labelService) GenerateCopyLabel(bookID, copyID int64) ([]byte, error) {
	data := LabelData{
		Type:   labelType,
		BookID: bookID,
		CopyID: copyID,
	}
	if s.baseURL != "" {
		data.Ref = s.baseURL + formatRef(bookID, copyID)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal label data")
	}

	qrCode, err := qrcode.New(string(jsonData), s.errorCorrectionLevel)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create QR code")
	}

	pngBytes, err := qrCode.PNG(s.size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate PNG")
	}

	return pngBytes, nil
}

// ParseCopyLabel parses scanned label data and returns the book and copy IDs
func (s *labelService) ParseCopyLabel(raw string) (int64, int64, error) {
	var data LabelData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return 0, 0, errors.Wrap(err, "failed to unmarshal label data")
	}

	if data.Type != labelType {
		return 0, 0, errors.Errorf("invalid label type: %s", data.Type)
	}

	if data.BookID <= 0 || data.CopyID <= 0 {
		return 0, 0, errors.New("label carries no copy reference")
	}

	return data.BookID, data.CopyID, nil
}

func formatRef(bookID, copyID int64) string {
	return strconv.FormatInt(bookID, 10) + "/" + strconv.FormatInt(copyID, 10)
}
