package dto

// ReserveDonationRequest records the NGO collecting a donation.
type ReserveDonationRequest struct {
	NGOName          string `json:"ngoName" validate:"required,notblank,max=200"`
	NGOContactPerson string `json:"ngoContactPerson" validate:"required,notblank,max=200"`
	NGOPhoneNumber   string `json:"ngoPhoneNumber" validate:"required,notblank,max=50"`
}

// SweepResult reports how many expired items became donations.
type SweepResult struct {
	TransferredCount int64 `json:"transferredCount"`
}

// ExportFormat enumerates donation report formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered report ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}
