package entities

// Canonical alert types. The peripheral firmware and older app builds emitted
// several spellings for the same categories; NormalizeType folds those legacy
// aliases into this closed set.
const (
	TypePresence = "présence"
	TypeCamera   = "caméra"
	TypeShortage = "manque"
	TypeSurplus  = "surplus"
	TypeGeneric  = "alerte"
)

var typeAliases = map[string]string{
	"présence": TypePresence,
	"presence": TypePresence,
	"caméra":   TypeCamera,
	"camera":   TypeCamera,
	"manque":   TypeShortage,
	"surplus":  TypeSurplus,
	"supplis":  TypeSurplus,
	"alerte":   TypeGeneric,
	"alert":    TypeGeneric,
}

// NormalizeType maps a raw type tag to its canonical value. Unknown tags fall
// back to the generic type rather than failing, since firmware revisions have
// introduced new spellings before the app caught up.
func NormalizeType(raw string) string {
	if canonical, ok := typeAliases[raw]; ok {
		return canonical
	}
	return TypeGeneric
}
