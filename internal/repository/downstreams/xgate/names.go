package xgate

import (
	"math/rand"
	"sync"
	"time"
)

var firstNames = []string{
	"Ana", "Beatriz", "Bruno", "Camila", "Carlos", "Daniel", "Eduardo", "Fernanda",
	"Gabriel", "Isabela", "João", "Juliana", "Larissa", "Lucas", "Mariana", "Mateus",
	"Paulo", "Rafael", "Renata", "Thiago",
}

var lastNames = []string{
	"Almeida", "Barbosa", "Cardoso", "Carvalho", "Costa", "Ferreira", "Gomes", "Lima",
	"Martins", "Melo", "Oliveira", "Pereira", "Ribeiro", "Rocha", "Rodrigues", "Santos",
	"Silva", "Souza",
}

// NameGenerator draws customer display names. Safe for concurrent use.
type NameGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewNameGenerator(src rand.Source) *NameGenerator {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &NameGenerator{rnd: rand.New(src)}
}

// RandomName returns one first name and one last name separated by a single space.
func (g *NameGenerator) RandomName() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	first := firstNames[g.rnd.Intn(len(firstNames))]
	last := lastNames[g.rnd.Intn(len(lastNames))]
	return first + " " + last
}
