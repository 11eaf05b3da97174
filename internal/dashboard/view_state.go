package dashboard

// Dialog identifies which modal dialog the dashboard shows.
type Dialog string

const (
	DialogNone   Dialog = ""
	DialogCreate Dialog = "create"
	DialogRename Dialog = "rename"
)

// ParseDialog maps the form/JSON value to a Dialog. "none" and "" close dialogs.
func ParseDialog(s string) (Dialog, bool) {
	switch s {
	case "", "none":
		return DialogNone, true
	case string(DialogCreate):
		return DialogCreate, true
	case string(DialogRename):
		return DialogRename, true
	}
	return DialogNone, false
}

// Reveal is the one-time display of a freshly generated secret.
type Reveal struct {
	KeyID  int64  `json:"keyId"`
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

// ViewState is the dashboard's view-local state. It is never persisted.
type ViewState struct {
	Dialog       Dialog  `json:"dialog"`
	RenameTarget int64   `json:"renameTarget,omitempty"`
	RenameDraft  string  `json:"renameDraft,omitempty"`
	NewKeyDraft  string  `json:"newKeyDraft,omitempty"`
	Reveal       *Reveal `json:"-"`
}

func (s ViewState) clone() ViewState {
	if s.Reveal != nil {
		r := *s.Reveal
		s.Reveal = &r
	}
	return s
}
