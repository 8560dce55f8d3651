package plagiarism

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

var (
	termPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)

	ErrEmptyVocabulary = errors.New("no terms could be extracted from the batch")
)

const (
	DefaultMaxFeatures = 5000
	DefaultNGramMax    = 2
)

// VectorOptions bounds the batch term space
type VectorOptions struct {
	// MaxFeatures keeps only the most frequent terms across the batch
	MaxFeatures int
	// NGramMax is the longest run of adjacent tokens turned into a term
	NGramMax int
}

func DefaultVectorOptions() VectorOptions {
	return VectorOptions{MaxFeatures: DefaultMaxFeatures, NGramMax: DefaultNGramMax}
}

// sparseVector maps vocabulary index to weight
type sparseVector map[int]float64

// Model is a TF-IDF space fitted over one batch. It is built per analysis
// call and never shared between runs.
type Model struct {
	vocabulary map[string]int
	idf        []float64
	vectors    []sparseVector
}

// Tokenize lowercases code and returns its word-like tokens
func Tokenize(text string) []string {
	return termPattern.FindAllString(strings.ToLower(text), -1)
}

// Terms expands tokens into n-grams from 1 up to ngramMax joined by a space
func Terms(tokens []string, ngramMax int) []string {
	if ngramMax < 1 {
		ngramMax = 1
	}
	terms := make([]string, 0, len(tokens)*ngramMax)
	terms = append(terms, tokens...)
	for n := 2; n <= ngramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// BuildModel fits vocabulary and smoothed IDF weights over texts and
// returns L2-normalised TF-IDF vectors for each of them.
func BuildModel(texts []string, opts VectorOptions) (*Model, error) {
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = DefaultMaxFeatures
	}
	if opts.NGramMax <= 0 {
		opts.NGramMax = DefaultNGramMax
	}

	docTerms := make([]map[string]int, len(texts))
	corpusCount := make(map[string]int)
	docFreq := make(map[string]int)

	for i, text := range texts {
		counts := make(map[string]int)
		for _, term := range Terms(Tokenize(text), opts.NGramMax) {
			counts[term]++
		}
		for term, c := range counts {
			corpusCount[term] += c
			docFreq[term]++
		}
		docTerms[i] = counts
	}

	if len(corpusCount) == 0 {
		return nil, ErrEmptyVocabulary
	}

	vocabulary := selectVocabulary(corpusCount, opts.MaxFeatures)

	n := float64(len(texts))
	idf := make([]float64, len(vocabulary))
	for term, idx := range vocabulary {
		idf[idx] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	vectors := make([]sparseVector, len(texts))
	for i, counts := range docTerms {
		vec := make(sparseVector)
		norm := 0.0
		for term, c := range counts {
			idx, ok := vocabulary[term]
			if !ok {
				continue
			}
			w := float64(c) * idf[idx]
			vec[idx] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for idx := range vec {
				vec[idx] /= norm
			}
		}
		vectors[i] = vec
	}

	return &Model{vocabulary: vocabulary, idf: idf, vectors: vectors}, nil
}

// selectVocabulary keeps the maxFeatures most frequent terms, ties broken
// alphabetically so the vocabulary is deterministic.
func selectVocabulary(corpusCount map[string]int, maxFeatures int) map[string]int {
	terms := make([]string, 0, len(corpusCount))
	for term := range corpusCount {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		ci, cj := corpusCount[terms[i]], corpusCount[terms[j]]
		if ci != cj {
			return ci > cj
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)

	vocabulary := make(map[string]int, len(terms))
	for i, term := range terms {
		vocabulary[term] = i
	}
	return vocabulary
}

func (m *Model) VocabularySize() int { return len(m.vocabulary) }

// Cosine returns the cosine similarity of documents i and j in [0, 1]
func (m *Model) Cosine(i, j int) float64 {
	a, b := m.vectors[i], m.vectors[j]
	if len(b) < len(a) {
		a, b = b, a
	}
	dot := 0.0
	for idx, w := range a {
		if v, ok := b[idx]; ok {
			dot += w * v
		}
	}
	return clamp01(dot)
}

// Matrix computes the full symmetric similarity matrix with a unit diagonal
func (m *Model) Matrix() *mat.SymDense {
	n := len(m.vectors)
	sim := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sim.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			sim.SetSym(i, j, m.Cosine(i, j))
		}
	}
	return sim
}

// SimilarityMatrix fits one model over the whole batch. Fewer than two
// texts yield nil. A fitting failure is logged and yields a matrix that is
// zero off the diagonal, so the batch still completes.
func SimilarityMatrix(texts []string, opts VectorOptions) *mat.SymDense {
	if len(texts) < 2 {
		return nil
	}

	model, err := BuildModel(texts, opts)
	if err != nil {
		log.Warn().
			Err(err).
			Int("documents", len(texts)).
			Msg("Vectorization failed, defaulting batch similarity to zero")
		return zeroMatrix(len(texts))
	}

	log.Debug().
		Int("documents", len(texts)).
		Int("vocabulary", model.VocabularySize()).
		Msg("Fitted batch TF-IDF model")

	return model.Matrix()
}

func zeroMatrix(n int) *mat.SymDense {
	sim := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sim.SetSym(i, i, 1)
	}
	return sim
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
