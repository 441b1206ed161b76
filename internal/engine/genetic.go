package engine

import (
	"log/slog"
	"math/rand"
	"sort"

	"github.com/piwi3910/cutplan/internal/logging"
	"github.com/piwi3910/cutplan/internal/model"
)

// GeneticConfig holds parameters for the genetic algorithm optimizer.
type GeneticConfig struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	TournamentSize int
	EliteCount     int
}

// DefaultGeneticConfig returns sensible default parameters.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize: 50,
		Generations:    100,
		MutationRate:   0.15,
		TournamentSize: 3,
		EliteCount:     2,
	}
}

// scaledGeneticConfig shrinks the search for large requests so a single
// optimization stays interactive.
func scaledGeneticConfig(units int) GeneticConfig {
	config := DefaultGeneticConfig()
	switch {
	case units > 200:
		config.PopulationSize = 20
		config.Generations = 20
	case units > 50:
		config.PopulationSize = 30
		config.Generations = 50
	}
	return config
}

// objective is the mode-specific cost of a decoded packing, compared
// lexicographically. Failed decodes sort last.
type objective struct {
	feasible  bool
	primary   float64
	secondary float64
}

func (o objective) better(other objective) bool {
	if o.feasible != other.feasible {
		return o.feasible
	}
	if o.primary < other.primary-eps {
		return true
	}
	if o.primary > other.primary+eps {
		return false
	}
	return o.secondary < other.secondary-eps
}

// chromosome is a permutation of unit indices; the packer decides
// placement and rotation for each unit in that order.
type chromosome struct {
	genes []int
	score objective
}

// geneticOptimizer searches over unit orderings.
type geneticOptimizer struct {
	settings model.Settings
	config   GeneticConfig
	types    []model.SheetType
	units    []model.PieceUnit
	scorer   Scorer
	maxArea  float64
	rng      *rand.Rand
}

func newGeneticOptimizer(settings model.Settings, config GeneticConfig, types []model.SheetType, units []model.PieceUnit, scorer Scorer) *geneticOptimizer {
	maxArea := 1.0
	for _, t := range types {
		if t.Area() > maxArea {
			maxArea = t.Area()
		}
	}
	return &geneticOptimizer{
		settings: settings,
		config:   config,
		types:    types,
		units:    units,
		scorer:   scorer,
		maxArea:  maxArea,
		rng:      rand.New(rand.NewSource(settings.Seed)),
	}
}

// optimizeGenetic returns the best packing found. units must already be in
// scorer order; that order seeds the population, so the result is never
// worse than the greedy pass.
func optimizeGenetic(settings model.Settings, types []model.SheetType, units []model.PieceUnit, scorer Scorer, logger *slog.Logger) ([]*sheetInstance, error) {
	greedy, err := packUnits(settings, types, units, scorer, logging.NewNop())
	if err != nil || len(units) < 3 {
		return greedy, err
	}

	ga := newGeneticOptimizer(settings, scaledGeneticConfig(len(units)), types, units, scorer)
	best := ga.optimize()
	logger.Debug("genetic search finished",
		"generations", ga.config.Generations,
		"population", ga.config.PopulationSize,
		"primary", best.score.primary,
		"secondary", best.score.secondary)

	ordered := ga.ordered(best)
	return packUnits(settings, types, ordered, scorer, logger)
}

// optimize runs the genetic algorithm and returns the best chromosome.
func (g *geneticOptimizer) optimize() chromosome {
	population := g.initPopulation()
	for i := range population {
		population[i].score = g.evaluate(population[i])
	}

	for gen := 0; gen < g.config.Generations; gen++ {
		g.rank(population)

		newPop := make([]chromosome, 0, g.config.PopulationSize)

		// Elitism: carry over the best individuals unchanged
		eliteCount := g.config.EliteCount
		if eliteCount > len(population) {
			eliteCount = len(population)
		}
		for i := 0; i < eliteCount; i++ {
			newPop = append(newPop, g.copyChromosome(population[i]))
		}

		for len(newPop) < g.config.PopulationSize {
			parent1 := g.tournamentSelect(population)
			parent2 := g.tournamentSelect(population)

			child := g.orderCrossover(parent1, parent2)
			g.mutate(&child)

			child.score = g.evaluate(child)
			newPop = append(newPop, child)
		}

		population = newPop
	}

	g.rank(population)
	return population[0]
}

// rank sorts best first. The sort is stable so the greedy seed wins ties.
func (g *geneticOptimizer) rank(population []chromosome) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].score.better(population[j].score)
	})
}

// initPopulation seeds the greedy order followed by random permutations.
func (g *geneticOptimizer) initPopulation() []chromosome {
	n := len(g.units)
	population := make([]chromosome, g.config.PopulationSize)

	greedy := make([]int, n)
	for i := range greedy {
		greedy[i] = i
	}
	population[0] = chromosome{genes: greedy}

	for i := 1; i < len(population); i++ {
		population[i] = chromosome{genes: g.rng.Perm(n)}
	}
	return population
}

func (g *geneticOptimizer) ordered(c chromosome) []model.PieceUnit {
	units := make([]model.PieceUnit, len(c.genes))
	for i, idx := range c.genes {
		units[i] = g.units[idx]
	}
	return units
}

// evaluate decodes a chromosome with the deterministic packer and measures
// it by the active mode.
func (g *geneticOptimizer) evaluate(c chromosome) objective {
	sheets, err := packUnits(g.settings, g.types, g.ordered(c), g.scorer, logging.NewNop())
	if err != nil {
		return objective{}
	}

	var sheetArea, usedArea float64
	cuts, violations := 0, 0
	for _, s := range sheets {
		sheetArea += s.sheet.Area()
		for _, p := range s.placements {
			usedArea += p.Area()
			if p.GrainViolation {
				violations++
			}
		}
		for _, nd := range s.nodes {
			if nd.kind == nodeSplit {
				cuts++
			}
		}
	}
	waste := sheetArea - usedArea

	switch g.settings.Mode {
	case model.ModeSheets:
		return objective{feasible: true, primary: float64(len(sheets)), secondary: waste}
	case model.ModeCuts:
		return objective{feasible: true, primary: float64(cuts), secondary: waste}
	case model.ModeGrain:
		return objective{feasible: true, primary: float64(violations), secondary: waste}
	case model.ModeBalanced:
		w := g.settings.Weights
		blend := (w.Waste*waste/g.maxArea + w.Cuts*float64(cuts)/2 + w.Grain*float64(violations)) /
			(w.Waste + w.Cuts + w.Grain)
		return objective{feasible: true, primary: blend, secondary: waste}
	default:
		return objective{feasible: true, primary: waste, secondary: float64(cuts)}
	}
}

// tournamentSelect picks the best individual from a random tournament.
func (g *geneticOptimizer) tournamentSelect(population []chromosome) chromosome {
	best := population[g.rng.Intn(len(population))]
	for i := 1; i < g.config.TournamentSize; i++ {
		candidate := population[g.rng.Intn(len(population))]
		if candidate.score.better(best.score) {
			best = candidate
		}
	}
	return g.copyChromosome(best)
}

// orderCrossover implements Order Crossover (OX1) for permutation chromosomes.
// It preserves the relative order of genes from both parents.
func (g *geneticOptimizer) orderCrossover(parent1, parent2 chromosome) chromosome {
	n := len(parent1.genes)
	if n <= 2 {
		return g.copyChromosome(parent1)
	}

	point1 := g.rng.Intn(n)
	point2 := g.rng.Intn(n)
	if point1 > point2 {
		point1, point2 = point2, point1
	}

	child := chromosome{genes: make([]int, n)}
	inSegment := make([]bool, n)
	for i := point1; i <= point2; i++ {
		child.genes[i] = parent1.genes[i]
		inSegment[parent1.genes[i]] = true
	}

	// Fill remaining positions with genes from parent2 in order
	childIdx := (point2 + 1) % n
	for _, gene := range parent2.genes {
		if !inSegment[gene] {
			child.genes[childIdx] = gene
			childIdx = (childIdx + 1) % n
		}
	}
	return child
}

// mutate applies swap and inversion mutations.
func (g *geneticOptimizer) mutate(c *chromosome) {
	n := len(c.genes)
	if n < 2 {
		return
	}

	if g.rng.Float64() < g.config.MutationRate {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
	}

	// Inversion is rarer than a swap.
	if g.rng.Float64() < g.config.MutationRate*0.5 {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		if i > j {
			i, j = j, i
		}
		for i < j {
			c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
			i++
			j--
		}
	}
}

func (g *geneticOptimizer) copyChromosome(c chromosome) chromosome {
	genes := make([]int, len(c.genes))
	copy(genes, c.genes)
	return chromosome{genes: genes, score: c.score}
}
