package step

import (
	"github.com/user/videostream/pkg/ports"
)

// HeadlessDialog is a ConfigDialog without a user interface. It carries the
// dialog's validation rule and accepts whenever the configuration is valid.
type HeadlessDialog struct {
	config             Config
	previousIdentifier string
	occursCount        func(identifier string) int
}

// NewHeadlessDialog creates a dialog with an empty configuration.
func NewHeadlessDialog() *HeadlessDialog {
	return &HeadlessDialog{config: NewConfig()}
}

// SetIdentifierOccursCount installs the host lookup used by Validate.
func (d *HeadlessDialog) SetIdentifierOccursCount(fn func(identifier string) int) {
	d.occursCount = fn
}

// SetConfig loads cfg and remembers its identifier as the one being edited.
func (d *HeadlessDialog) SetConfig(cfg map[string]any) {
	d.config = Config(cfg).Clone()
	d.previousIdentifier = d.config.Identifier()
}

// GetConfig returns a copy of the edited configuration.
func (d *HeadlessDialog) GetConfig() map[string]any {
	return d.config.Clone()
}

// SetIdentifier edits the identifier as a user would in the dialog.
func (d *HeadlessDialog) SetIdentifier(identifier string) {
	d.config[IdentifierKey] = identifier
}

// Validate accepts a non-empty identifier that no other step uses. The
// identifier the dialog was opened with may occur once, since that is this step.
func (d *HeadlessDialog) Validate() bool {
	identifier := d.config.Identifier()
	if identifier == "" {
		return false
	}
	count := 0
	if d.occursCount != nil {
		count = d.occursCount(identifier)
	}
	return count == 0 || (count == 1 && identifier == d.previousIdentifier)
}

// Exec accepts when the configuration is valid. There is nothing to show.
func (d *HeadlessDialog) Exec() bool {
	return d.Validate()
}

var _ ports.ConfigDialog = (*HeadlessDialog)(nil)
