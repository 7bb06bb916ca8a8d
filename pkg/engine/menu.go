package engine

import "strings"

// MenuID is the arena handle of a Menu.
type MenuID int

// MainMenu is the handle of the root menu of every Database.
const MainMenu MenuID = 0

// Menu groups items and child menus under a shared dependency.
type Menu struct {
	ID         MenuID
	Prompt     string
	Dependency *Expr
	Entries    []ItemID
	Children   []MenuID
	Parent     MenuID
	HasParent  bool
}

// IsRoot reports whether m is the main menu.
func (m *Menu) IsRoot() bool {
	return !m.HasParent
}

// Path returns the prompts from the main menu down to id, excluding the
// main menu itself.
func (db *Database) Path(id MenuID) []string {
	var rev []string
	for m := db.Menu(id); m != nil && m.HasParent; m = db.Menu(m.Parent) {
		rev = append(rev, m.Prompt)
	}
	out := make([]string, len(rev))
	for i, p := range rev {
		out[len(rev)-1-i] = p
	}
	return out
}

// PathString joins Path with " > ".
func (db *Database) PathString(id MenuID) string {
	return strings.Join(db.Path(id), " > ")
}

// MenuVisible reports whether id and all of its ancestors have a true dependency.
func (db *Database) MenuVisible(id MenuID) bool {
	for m := db.Menu(id); m != nil; m = db.Menu(m.Parent) {
		if !db.Evaluate(m.Dependency) {
			return false
		}
		if !m.HasParent {
			break
		}
	}
	return true
}

// Active reports whether it would be rendered into the header: its own
// dependency and every enclosing menu's dependency evaluate true.
func (db *Database) Active(it *Item) bool {
	return db.MenuVisible(it.Menu) && db.Evaluate(it.Dependency)
}
