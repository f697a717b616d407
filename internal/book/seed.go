package book

// MultiSeeder merges seeders in order; later entries overwrite earlier
// ones. Any failing seeder fails the whole seed, so a broken persistent
// store surfaces at initialization instead of silently losing entries.
type MultiSeeder []Seeder

func (m MultiSeeder) Seed() (map[string]string, error) {
	merged := make(map[string]string)
	for _, s := range m {
		entries, err := s.Seed()
		if err != nil {
			return nil, err
		}
		for fen, move := range entries {
			merged[fen] = move
		}
	}
	return merged, nil
}
