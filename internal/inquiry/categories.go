package inquiry

// categories is the fixed vendor category list offered by the inquiry form.
var categories = [...]string{
	"Wedding Venues", "Caterers", "Wedding Invitations", "Wedding Gifts",
	"Wedding Photographers", "Wedding Music", "Wedding Transportation", "Tent House",
	"Wedding Entertainment", "Florists", "Wedding Planners", "Wedding Videography",
	"Honeymoon", "Wedding Decorators", "Wedding Cakes", "Wedding DJ", "Pandits",
	"Photobooth", "Astrologers", "Party Places", "Wedding Choreographers",
	"Bridal Jewellery", "Bridal Makeup Artists", "Bridal Lehenga", "Mehndi Artists",
	"Makeup Salon", "Trousseau Packing", "Grooms", "Sherwani",
}

var categorySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	return set
}()

// Categories returns a copy of the vendor category labels in display order.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories[:])
	return out
}

// IsCategory reports whether label is one of the known vendor categories.
// Matching is exact.
func IsCategory(label string) bool {
	_, ok := categorySet[label]
	return ok
}
