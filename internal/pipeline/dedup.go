package pipeline

import "github.com/chirplab/chirp/internal/xapi"

// Dedupe drops posts whose ID was already seen, keeping first
// occurrences in order. The same post often comes back under several
// queries; its content is identical each time, so first wins.
func Dedupe(posts []xapi.Post) []xapi.Post {
	seen := make(map[string]struct{}, len(posts))
	unique := make([]xapi.Post, 0, len(posts))
	for _, post := range posts {
		if _, ok := seen[post.ID]; ok {
			continue
		}
		seen[post.ID] = struct{}{}
		unique = append(unique, post)
	}
	return unique
}
