// Package fuzzy ранжирует ключи объектов по похожести на произвольный запрос.
//
// Ранжирование — чистая функция: никакого состояния между вызовами,
// одинаковые аргументы дают одинаковый результат.
package fuzzy

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	sfuzzy "github.com/sahilm/fuzzy"
)

// DefaultLimit — сколько ключей возвращается, если limit не задан.
const DefaultLimit = 5

// partialScale понижает вес частичного совпадения относительно полного.
const partialScale = 0.9

// Scorer — имя метрики похожести.
type Scorer string

const (
	// ScorerWeighted — max(ratio, 0.9*partial_ratio) по нормализованным строкам.
	ScorerWeighted Scorer = "weighted"
	// ScorerRatio — нормализованная похожесть по расстоянию Левенштейна.
	ScorerRatio Scorer = "ratio"
	// ScorerSubsequence — подпоследовательность символов запроса (sahilm/fuzzy).
	ScorerSubsequence Scorer = "subsequence"
)

// ParseScorer проверяет имя метрики. Пустое имя означает ScorerWeighted.
func ParseScorer(name string) (Scorer, error) {
	switch s := Scorer(strings.ToLower(strings.TrimSpace(name))); s {
	case "":
		return ScorerWeighted, nil
	case ScorerWeighted, ScorerRatio, ScorerSubsequence:
		return s, nil
	default:
		return "", fmt.Errorf("unknown scorer %q (want weighted, ratio or subsequence)", name)
	}
}

// Match — кандидат вместе с его оценкой.
type Match struct {
	Key   string
	Score float64
	Index int // позиция в исходном списке
}

// Ranker выбирает top-K кандидатов по выбранной метрике.
type Ranker struct {
	scorer Scorer
}

// NewRanker создаёт ранжировщик. Неизвестная или пустая метрика → ScorerWeighted.
func NewRanker(scorer Scorer) *Ranker {
	if _, err := ParseScorer(string(scorer)); err != nil || scorer == "" {
		scorer = ScorerWeighted
	}
	return &Ranker{scorer: scorer}
}

// Scorer возвращает используемую метрику.
func (r *Ranker) Scorer() Scorer {
	return r.scorer
}

// Rank возвращает не более limit кандидатов по убыванию похожести на query.
//
// При равных оценках сохраняется исходный порядок. limit <= 0 → DefaultLimit.
func (r *Ranker) Rank(candidates []string, query string, limit int) []string {
	matches := r.RankScored(candidates, query, limit)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Key
	}
	return out
}

// RankScored — то же, что Rank, но вместе с оценками (для логов и отладки).
func (r *Ranker) RankScored(candidates []string, query string, limit int) []Match {
	if len(candidates) == 0 {
		return []Match{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	scores := r.scores(candidates, query)
	matches := make([]Match, len(candidates))
	for i, c := range candidates {
		matches[i] = Match{Key: c, Score: scores[i], Index: i}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit < len(matches) {
		matches = matches[:limit]
	}
	return matches
}

// Rank ранжирует метрикой по умолчанию.
func Rank(candidates []string, query string, limit int) []string {
	return NewRanker(ScorerWeighted).Rank(candidates, query, limit)
}

func (r *Ranker) scores(candidates []string, query string) []float64 {
	if r.scorer == ScorerSubsequence {
		return subsequenceScores(candidates, query)
	}

	q := normalize(query)
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		if r.scorer == ScorerRatio {
			scores[i] = ratio(q, normalize(c))
		} else {
			scores[i] = weighted(q, normalize(c))
		}
	}
	return scores
}

// normalize приводит к нижнему регистру и заменяет разделители пробелами:
// "raw/patients_2024.csv" → "raw patients 2024 csv".
func normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

func ratio(a, b string) float64 {
	if a == "" || b == "" {
		if a == b {
			return 1
		}
		return 0
	}
	return levenshtein.Similarity(a, b, nil)
}

func weighted(q, c string) float64 {
	score := ratio(q, c)
	if partial := partialRatio(q, c) * partialScale; partial > score {
		score = partial
	}
	return score
}

// partialRatio — лучшая похожесть короткой строки на окно той же длины в длинной.
func partialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	s := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		sim := levenshtein.Similarity(s, string(long[i:i+len(short)]), nil)
		if sim > best {
			best = sim
			if best == 1 {
				break
			}
		}
	}
	return best
}

// subsequenceScores: кандидаты без совпадения получают -Inf и уходят в хвост,
// сохраняя исходный порядок.
func subsequenceScores(candidates []string, query string) []float64 {
	scores := make([]float64, len(candidates))
	for i := range scores {
		scores[i] = math.Inf(-1)
	}
	for _, m := range sfuzzy.Find(query, candidates) {
		scores[m.Index] = float64(m.Score)
	}
	return scores
}
