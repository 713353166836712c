package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// Word lists for memorable passcodes
var adjectives = []string{
	"happy", "sunny", "brave", "bright", "swift", "clever", "jolly", "mighty",
	"lucky", "magic", "bouncy", "cheerful", "daring", "eager", "gentle", "lively",
	"merry", "noble", "quick", "snappy", "zippy", "bold", "cosmic", "epic",
}

var nouns = []string{
	"dragon", "tiger", "eagle", "dolphin", "panda", "lion", "wolf", "fox",
	"hawk", "phoenix", "rocket", "wizard", "robot", "comet", "thunder", "ranger",
	"captain", "explorer", "storm", "racer", "otter", "falcon", "koala", "lynx",
}

// GeneratePasscode returns an easy to type passcode such as "brave-otter-42"
func GeneratePasscode() (string, error) {
	adjective, err := randomElement(adjectives)
	if err != nil {
		return "", err
	}
	noun, err := randomElement(nouns)
	if err != nil {
		return "", err
	}
	n, err := rand.Int(rand.Reader, big.NewInt(90))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%d", adjective, noun, n.Int64()+10), nil
}

// GenerateSecret returns n random bytes hex encoded, for use as a token signing key
func GenerateSecret(n int) (string, error) {
	if n < 16 {
		n = 16
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// randomElement picks a random element from a string slice
func randomElement(slice []string) (string, error) {
	if len(slice) == 0 {
		return "", nil
	}

	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}

	return slice[num.Int64()], nil
}
