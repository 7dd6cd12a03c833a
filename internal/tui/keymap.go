package tui

import (
	"strings"
	"unicode"

	"charm.land/bubbles/v2/key"
)

// KeyConfig carries user key overrides from the config file. Empty fields
// keep the default binding.
type KeyConfig struct {
	Grab    string
	Cancel  string
	Refresh string
	Detail  string
	Help    string
	Quit    string
}

// keyMap represents key map data used by this package.
type keyMap struct {
	quit       key.Binding
	reload     key.Binding
	toggleHelp key.Binding
	left       key.Binding
	right      key.Binding
	up         key.Binding
	down       key.Binding
	grab       key.Binding
	drop       key.Binding
	cancel     key.Binding
	detail     key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		left:       key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		right:      key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "card up")),
		down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "card down")),
		grab:       key.NewBinding(key.WithKeys("g", "space"), key.WithHelp("g", "grab card")),
		drop:       key.NewBinding(key.WithKeys("enter", "g", "space"), key.WithHelp("enter", "drop card")),
		cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel drag")),
		detail:     key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "card detail")),
	}
}

// applyConfig overrides default bindings with configured keys.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.grab, cfg.Grab, "g", k.grab.Help().Desc)
	configureBinding(&k.cancel, cfg.Cancel, "esc", k.cancel.Help().Desc)
	configureBinding(&k.reload, cfg.Refresh, "r", k.reload.Help().Desc)
	configureBinding(&k.detail, cfg.Detail, "enter", k.detail.Help().Desc)
	configureBinding(&k.toggleHelp, cfg.Help, "?", k.toggleHelp.Help().Desc)
	configureBinding(&k.quit, cfg.Quit, "q", k.quit.Help().Desc)
}

// configureBinding replaces a binding's keys and help from one configured
// value, keeping the binding untouched when the value is blank.
func configureBinding(b *key.Binding, configured, fallback, desc string) {
	if strings.TrimSpace(configured) == "" {
		return
	}
	keys, helpKey := parseBindingKeys(configured, fallback)
	*b = key.NewBinding(key.WithKeys(keys...), key.WithHelp(helpKey, desc))
}

// parseBindingKeys expands one configured key into its matcher aliases:
// "space" also matches the literal space rune, an uppercase rune also
// matches its shift chord, and chorded names are lowercased.
func parseBindingKeys(configured, fallback string) (keys []string, helpKey string) {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		return []string{fallback}, fallback
	}
	switch {
	case configured == "space" || configured == " ":
		return []string{" ", "space"}, "space"
	case len([]rune(configured)) == 1:
		r := []rune(configured)[0]
		if unicode.IsUpper(r) {
			return []string{configured, "shift+" + strings.ToLower(configured)}, configured
		}
		return []string{configured}, configured
	default:
		return []string{strings.ToLower(configured)}, configured
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.grab, k.detail, k.reload, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.left, k.right, k.up, k.down},
		{k.grab, k.drop, k.cancel, k.detail},
		{k.reload, k.toggleHelp, k.quit},
	}
}
