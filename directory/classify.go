package directory

import "strings"

// Classification maps a device's hardware model to the directory group it
// belongs in and the manifest template it should inherit. Derived, never
// stored.
type Classification struct {
	Group            string
	ManifestTemplate string
}

// Classify derives a classification from the reported model name. Phones
// get a group but no template; models matching nothing known report ok
// false and the caller falls back to the default template.
func Classify(model string) (Classification, bool) {
	switch {
	case strings.Contains(model, "MacBook"):
		return Classification{Group: "Laptops", ManifestTemplate: "Laptops"}, true
	case strings.Contains(model, "Mac"):
		return Classification{Group: "Desktops", ManifestTemplate: "Desktops"}, true
	case strings.Contains(model, "iPhone"):
		return Classification{Group: "iPhones"}, true
	default:
		return Classification{}, false
	}
}
