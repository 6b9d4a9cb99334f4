package stock

import "fmt"

// Policy, stoğu sıfırın altına düşürecek bir satışta ne yapılacağını belirler.
type Policy string

const (
	// PolicyStrict satışı ErrInsufficientStock ile reddeder.
	PolicyStrict Policy = "strict"
	// PolicyClamp eski davranış: stok 0'da sabitlenir, fark kaybolur.
	PolicyClamp Policy = "clamp"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyStrict, PolicyClamp:
		return Policy(s), nil
	case "":
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("bilinmeyen stok politikası: %q", s)
	}
}
