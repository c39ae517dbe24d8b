package vault

import "notelens/embed"

// EmbedIndex caches each note's embed markup entries, standing in for the
// host editor's metadata cache. Entries are computed once per note per
// operation.
type EmbedIndex struct {
	vault *Vault
	cache map[string][]string
}

// NewEmbedIndex builds an empty index over v.
func NewEmbedIndex(v *Vault) *EmbedIndex {
	return &EmbedIndex{vault: v, cache: make(map[string][]string)}
}

// Embeds returns the asset embeds recorded for a note. Unreadable notes
// index as empty.
func (ix *EmbedIndex) Embeds(notePath string) []string {
	if cached, ok := ix.cache[notePath]; ok {
		return cached
	}
	var entries []string
	if text, err := ix.vault.ReadNote(notePath); err == nil {
		entries = embed.FindAll(text)
	}
	ix.cache[notePath] = entries
	return entries
}
