package tui

import "github.com/charmbracelet/bubbles/help"

// HelpBindings returns the help.KeyMap for the given mode,
// providing context-aware help bar content.
func HelpBindings(mode Mode) help.KeyMap {
	switch mode {
	case ModeAdd, ModeEdit:
		return FormKeyMap()
	case ModeSearch, ModeExport:
		return PromptKeyMap()
	case ModeConfirmDelete:
		return ConfirmKeyMap()
	default:
		return BrowseKeyMap()
	}
}
