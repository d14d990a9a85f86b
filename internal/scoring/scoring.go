// Package scoring computes the location value of a balcony seat at
// TD Garden. The arena's balcony ring is sections 301-330 with rows
// numbered 1-15; a seat is worth its section's base points plus a bonus
// for being close to the court.
package scoring

const (
	// MinBalconySection and MaxBalconySection bound the section range
	// this table covers. Floor and lower-bowl sections are not scored.
	MinBalconySection = 301
	MaxBalconySection = 330

	// MaxRow is the highest (farthest) row in a balcony section.
	MaxRow = 15
)

// sectionPoints maps each balcony section to a base point value.
// Sections near center court score 40, falling off to 0 directly
// behind the baskets. The pattern is symmetric around the arena.
var sectionPoints = map[int]int{
	301: 40,
	302: 40,
	303: 30,
	304: 20,
	305: 10,
	306: 0,
	307: 0,
	308: 0,
	309: 0,
	310: 0,
	311: 0,
	312: 10,
	313: 20,
	314: 30,
	315: 40,
	316: 40,
	317: 40,
	318: 30,
	319: 20,
	320: 10,
	321: 0,
	322: 0,
	323: 0,
	324: 0,
	325: 0,
	326: 0,
	327: 10,
	328: 20,
	329: 30,
	330: 40,
}

// Score returns the location points for a seat. The second return is
// false when the section has no entry in the table; callers are
// expected to filter to balcony sections before scoring.
func Score(section, row int) (int, bool) {
	base, ok := sectionPoints[section]
	if !ok {
		return 0, false
	}
	return base + (MaxRow - row), true
}

// IsBalcony reports whether the section falls in the scored balcony
// ring.
func IsBalcony(section int) bool {
	return section >= MinBalconySection && section <= MaxBalconySection
}
