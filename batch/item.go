package batch

import "github.com/google/uuid"

// Mode selects which Archive Façade operation a BatchItem runs through.
type Mode uint8

const (
	// ModeEncrypt runs archive.Encrypt for the item.
	ModeEncrypt Mode = iota
	// ModeDecrypt runs archive.Decrypt for the item.
	ModeDecrypt
)

// BatchItem is one unit of work submitted to Run.
type BatchItem struct {
	// ID identifies this item in the resulting report. Left empty, Run
	// assigns a fresh one, the same way the container header's uuid field
	// is generated.
	ID string

	Mode Mode

	// InputPath is a source file/directory (ModeEncrypt) or artifact
	// (ModeDecrypt).
	InputPath string

	// OutputPath is the destination artifact (ModeEncrypt) or output
	// directory (ModeDecrypt).
	OutputPath string
}

func (i *BatchItem) assignID() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
}
