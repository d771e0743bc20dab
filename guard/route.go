// Package guard resolves navigation requests against a tree of protected routes.
// Route conditions are live predicates evaluated on every resolution.
package guard

// Condition is evaluated each time a route on the matched chain is resolved
type Condition func() bool

// Route is one node of the navigation tree. A route with children is a layout:
// it only matches through one of its children, and its condition applies to all of them.
type Route struct {
	Path      string
	View      string
	Condition Condition
	Redirect  string
	NotFound  bool
	Children  []Route
}

// Protected renders view while cond holds and redirects to redirect otherwise
func Protected(path, view string, cond Condition, redirect string, children ...Route) Route {
	return Route{
		Path:      path,
		View:      view,
		Condition: cond,
		Redirect:  redirect,
		Children:  children,
	}
}

func Public(path, view string, children ...Route) Route {
	return Route{
		Path:     path,
		View:     view,
		Children: children,
	}
}

// CatchAll matches what nothing else does and resolves as not found
func CatchAll(path, view string) Route {
	return Route{
		Path:     path,
		View:     view,
		NotFound: true,
	}
}

// All combines conditions into their conjunction
func All(conds ...Condition) Condition {
	return func() bool {
		for _, cond := range conds {
			if cond != nil && !cond() {
				return false
			}
		}
		return true
	}
}
