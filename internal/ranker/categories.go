package ranker

// Categories is the closed set of rankable content categories, in the
// order the service presents to a brand-new user.
var Categories = []string{
	"general",
	"sports",
	"technology",
	"entertainment",
	"health",
}

var categorySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Categories))
	for _, c := range Categories {
		set[c] = struct{}{}
	}
	return set
}()

func IsKnownCategory(category string) bool {
	_, ok := categorySet[category]
	return ok
}
