package maps

// builtin lists the system maps seeded on first start, in draw order.
var builtin = []struct {
	Key  string
	Name string
}{
	{"CLASSIC_CHAOS", "Chaos Forest (Classic)"},
	{"GALTON_BOARD", "Galton Triangle"},
	{"MOVING_GUARDS", "Rubber Guards"},
	{"BUMPER_CITY", "Bumper City"},
	{"LUCKY_FUNNEL", "Lucky Funnel"},
	{"HEART_MAZE", "Heart Maze"},
	{"RAINBOW_STAIRS", "Rainbow Stairs"},
	{"SMILEY_FACE", "Smiley Park"},
	{"SPIRAL_GALAXY", "Spiral Galaxy"},
	{"DIAMOND_MINE", "Diamond Mine"},
	{"PACHINKO_FOREST", "Pachinko Forest"},
	{"BINARY_TREE", "Binary Tree"},
	{"METEOR_SHOWER", "Meteor Shower"},
	{"DOUBLE_CROSS", "Double Cross"},
	{"THE_CAGE", "The Cage"},
	{"SLALOM_RUN", "Slalom Run"},
	{"CHAOS_VORTEX", "Chaos Vortex"},
	{"SPACE_INVADERS", "Space Invaders"},
	{"PINBALL_WIZARD", "Pinball Wizard"},
	{"DNA_HELIX", "DNA Helix"},
	{"PLINKO_PYRAMID", "Plinko Pyramid"},
	{"BLACK_HOLE", "Black Hole"},
	{"TIMELINE_RIVER", "River of Time"},
	{"BONUS_COIN_FIELD", "Bonus Stage (Coin Field)"},
}

// Defaults for new map entries.
const (
	DefaultWeight   int64 = 10
	DefaultName           = "Untitled Map"
	DefaultAuthor         = "Anonymous Builder"
	customKeyPrefix       = "CUSTOM_"
)

// IsBuiltin reports whether key names a system map.
func IsBuiltin(key string) bool {
	for _, m := range builtin {
		if m.Key == key {
			return true
		}
	}
	return false
}
