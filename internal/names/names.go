// Package names hands out display names of the form "Adjective Animal".
package names

import (
	"math/rand/v2"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxAttempts bounds how many random names Unique tries before falling back.
const MaxAttempts = 32

var adjectives = []string{
	"agile", "bold", "brave", "breezy", "bright", "calm", "clever", "cosmic",
	"daring", "dizzy", "eager", "fancy", "fearless", "fuzzy", "gentle", "giddy",
	"happy", "jolly", "lucky", "mellow", "mighty", "nimble", "plucky", "quick",
	"quirky", "rapid", "rowdy", "sleepy", "sly", "snappy", "speedy", "spry",
	"steady", "sunny", "swift", "tiny", "wacky", "wild", "wobbly", "zesty",
}

var animals = []string{
	"aardvark", "badger", "beaver", "bison", "camel", "cheetah", "coyote",
	"dingo", "dolphin", "eagle", "falcon", "ferret", "gazelle", "gecko",
	"giraffe", "hedgehog", "heron", "ibex", "jackal", "koala", "lemur", "llama",
	"lynx", "marmot", "meerkat", "moose", "narwhal", "ocelot", "otter", "panda",
	"pelican", "penguin", "puffin", "quokka", "raccoon", "sloth", "tapir",
	"toucan", "walrus", "wombat", "yak", "zebra",
}

var title = cases.Title(language.English)

// Random returns a title-cased adjective/animal pair.
func Random(rng *rand.Rand) string {
	adj := adjectives[rng.IntN(len(adjectives))]
	animal := animals[rng.IntN(len(animals))]
	return title.String(adj + " " + animal)
}

// Unique draws random names until one is not taken. After MaxAttempts
// collisions it appends a short uuid fragment, which cannot collide in practice.
func Unique(rng *rand.Rand, taken func(string) bool) string {
	for i := 0; i < MaxAttempts; i++ {
		name := Random(rng)
		if !taken(name) {
			return name
		}
	}
	return Random(rng) + " " + uuid.NewString()[:8]
}
