package service

// LabelService defines the interface for copy shelf label generation and parsing
type LabelService interface {
	// GenerateCopyLabel renders a QR code PNG identifying the copy
	GenerateCopyLabel(bookID, copyID int64) ([]byte, error)

	// ParseCopyLabel parses label data and returns the book and copy IDs
	ParseCopyLabel(data string) (bookID, copyID int64, err error)
}
