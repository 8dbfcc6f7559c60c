package exercisegen

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"jementraine/internal/domain"
	"jementraine/internal/util"
)

// template is a fixed exercise recipe. bank bounds the number of distinct
// questions it can produce; zero means unbounded.
type template struct {
	subject     domain.Subject
	kind        string
	skill       string
	title       string
	instruction string
	bank        int
	questions   func(rng *rand.Rand, level domain.Level, n int) []domain.Question
}

type entry struct {
	prompt, answer string
}

var articleWords = []entry{
	{"chat", "le"}, {"maison", "la"}, {"école", "l'"}, {"enfants", "les"},
	{"soleil", "le"}, {"lune", "la"}, {"arbre", "l'"}, {"oiseaux", "les"},
	{"fleur", "la"}, {"livre", "le"}, {"ami", "l'"}, {"étoiles", "les"},
	{"cartable", "le"}, {"trousse", "la"}, {"horloge", "l'"}, {"crayons", "les"},
}

var seasonQuestions = []entry{
	{"En quelle saison les feuilles tombent-elles ?", "automne"},
	{"Quelle saison vient après l'hiver ?", "printemps"},
	{"En quelle saison fait-il le plus chaud ?", "été"},
	{"En quelle saison fête-t-on Noël ?", "hiver"},
	{"En quelle saison les fleurs poussent-elles ?", "printemps"},
	{"Quelle saison vient avant l'automne ?", "été"},
	{"En quelle saison neige-t-il souvent ?", "hiver"},
	{"Quand les arbres sont-ils tout verts ?", "été"},
	{"En quelle saison fait-on la rentrée des classes ?", "automne"},
	{"Quelle saison vient après l'été ?", "automne"},
	{"En quelle saison les jours sont-ils les plus courts ?", "hiver"},
	{"En quelle saison les hirondelles reviennent-elles ?", "printemps"},
	{"En quelle saison ramasse-t-on les châtaignes ?", "automne"},
	{"En quelle saison part-on souvent en grandes vacances ?", "été"},
}

var classRules = []entry{
	{"Je lève la main avant de parler.", "vrai"},
	{"Je peux courir dans les couloirs.", "faux"},
	{"Je respecte mes camarades.", "vrai"},
	{"Je peux prendre les affaires des autres sans demander.", "faux"},
	{"J'écoute quand quelqu'un parle.", "vrai"},
	{"Je peux crier en classe.", "faux"},
	{"Je range mes affaires après le travail.", "vrai"},
	{"Je peux manger en classe quand je veux.", "faux"},
	{"Je dis bonjour en arrivant le matin.", "vrai"},
	{"Je peux me moquer d'un camarade qui se trompe.", "faux"},
	{"J'aide un camarade qui a besoin de moi.", "vrai"},
	{"Je peux sortir de la classe sans prévenir.", "faux"},
	{"Je prends soin du matériel de la classe.", "vrai"},
	{"Je peux pousser pour passer devant dans le rang.", "faux"},
}

var colours = []entry{
	{"red", "rouge"}, {"blue", "bleu"}, {"green", "vert"}, {"yellow", "jaune"},
	{"black", "noir"}, {"white", "blanc"}, {"orange", "orange"}, {"pink", "rose"},
	{"purple", "violet"}, {"brown", "marron"}, {"grey", "gris"}, {"gold", "doré"},
}

var templates = []template{
	{
		subject:     "maths",
		kind:        "calcul-mental",
		skill:       "Calculer des additions",
		title:       "Additions",
		instruction: "Trouve le résultat de chaque addition.",
		questions: func(rng *rand.Rand, level domain.Level, n int) []domain.Question {
			half := arithmeticRange(level) / 2
			out := make([]domain.Question, n)
			for i := range out {
				a, b := rng.Intn(half)+1, rng.Intn(half)+1
				out[i] = domain.Question{Prompt: fmt.Sprintf("%d + %d = ?", a, b), Answer: fmt.Sprint(a + b)}
			}
			return out
		},
	},
	{
		subject:     "maths",
		kind:        "calcul-mental",
		skill:       "Calculer des soustractions",
		title:       "Soustractions",
		instruction: "Trouve le résultat de chaque soustraction.",
		questions: func(rng *rand.Rand, level domain.Level, n int) []domain.Question {
			top := arithmeticRange(level)
			out := make([]domain.Question, n)
			for i := range out {
				a := rng.Intn(top) + top/2
				b := rng.Intn(a-1) + 1
				out[i] = domain.Question{Prompt: fmt.Sprintf("%d - %d = ?", a, b), Answer: fmt.Sprint(a - b)}
			}
			return out
		},
	},
	{
		subject:     "francais",
		kind:        "phrases-a-trous",
		skill:       "Utiliser les articles définis",
		title:       "Les articles définis",
		instruction: "Complète avec le bon article : le, la, l' ou les.",
		bank:        len(articleWords),
		questions: func(rng *rand.Rand, _ domain.Level, n int) []domain.Question {
			return fromBank(shuffled(rng, articleWords), n, func(e entry) domain.Question {
				return domain.Question{Prompt: "___ " + e.prompt, Answer: e.answer, Options: []string{"le", "la", "l'", "les"}}
			})
		},
	},
	{
		subject:     "questionner-le-monde",
		kind:        "qcm",
		skill:       "Connaître les caractéristiques des saisons",
		title:       "Les saisons",
		instruction: "Réponds aux questions sur les saisons.",
		bank:        len(seasonQuestions),
		questions: func(rng *rand.Rand, _ domain.Level, n int) []domain.Question {
			return fromBank(shuffled(rng, seasonQuestions), n, func(e entry) domain.Question {
				return domain.Question{Prompt: e.prompt, Answer: e.answer, Options: []string{"printemps", "été", "automne", "hiver"}}
			})
		},
	},
	{
		subject:     "emc",
		kind:        "vrai-faux",
		skill:       "Connaître les règles de vie en classe",
		title:       "Les règles de vie",
		instruction: "Dis si chaque phrase est vraie ou fausse.",
		bank:        len(classRules),
		questions: func(rng *rand.Rand, _ domain.Level, n int) []domain.Question {
			return fromBank(shuffled(rng, classRules), n, func(e entry) domain.Question {
				return domain.Question{Prompt: e.prompt, Answer: e.answer, Options: []string{"vrai", "faux"}}
			})
		},
	},
	{
		subject:     "anglais",
		kind:        domain.MatchingType,
		skill:       "Les couleurs en anglais",
		title:       "Les couleurs en anglais",
		instruction: "Relie chaque couleur anglaise à sa traduction.",
		bank:        len(colours),
		questions: func(rng *rand.Rand, _ domain.Level, n int) []domain.Question {
			return fromBank(shuffled(rng, colours), n, func(e entry) domain.Question {
				return domain.Question{Prompt: e.prompt, Answer: e.answer, Pair: e.answer}
			})
		},
	},
}

func arithmeticRange(level domain.Level) int {
	switch level {
	case "CP":
		return 10
	case "CE1":
		return 20
	default:
		return 100
	}
}

func shuffled(rng *rand.Rand, bank []entry) []entry {
	out := make([]entry, len(bank))
	copy(out, bank)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func fromBank(bank []entry, n int, build func(entry) domain.Question) []domain.Question {
	out := make([]domain.Question, 0, n)
	for _, e := range bank[:n] {
		out = append(out, build(e))
	}
	return out
}

// TemplateGenerator builds exercises from fixed recipes without any network call.
type TemplateGenerator struct {
	rng *rand.Rand
}

// NewTemplateGenerator creates a generator; the same seed yields the same exercises.
func NewTemplateGenerator(seed int64) *TemplateGenerator {
	return &TemplateGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *TemplateGenerator) Name() string {
	return "template"
}

// Supports reports whether a recipe exists for subject.
func (g *TemplateGenerator) Supports(subject domain.Subject) bool {
	for _, t := range templates {
		if t.subject == subject {
			return true
		}
	}
	return false
}

// Generate implements domain.ExerciseGenerator. The request's type and skill
// are ignored: each recipe carries its own.
func (g *TemplateGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var candidates []template
	for _, t := range templates {
		if t.subject == req.Domain {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, domain.NewGenerationFailedError(fmt.Sprintf("no template for domain %q", req.Domain), nil)
	}
	t := candidates[g.rng.Intn(len(candidates))]

	lo, hi := req.MinQuestions, req.MaxQuestions
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	if t.bank > 0 && t.bank < hi {
		hi = t.bank
	}
	if hi < lo {
		return nil, domain.NewGenerationFailedError(
			fmt.Sprintf("template %q has %d questions, level %s needs %d", t.title, t.bank, req.Level, lo), nil)
	}
	n := lo + g.rng.Intn(hi-lo+1)

	return buildDocument(req, t, t.questions(g.rng, req.Level, n)), nil
}

// buildDocument lays the exercise out as the generic JSON value the validator
// expects, exactly as it would be read back from disk.
func buildDocument(req domain.GenerationRequest, t template, questions []domain.Question) map[string]any {
	level := string(req.Level)
	lower := strings.ToLower(level)
	title := fmt.Sprintf("%s %s", t.title, level)

	items := make([]any, len(questions))
	answers := make([]any, len(questions))
	for i, q := range questions {
		item := map[string]any{"prompt": q.Prompt, "answer": q.Answer}
		if len(q.Options) > 0 {
			options := make([]any, len(q.Options))
			for j, o := range q.Options {
				options[j] = o
			}
			item["options"] = options
		}
		if q.Pair != "" {
			item["pair"] = q.Pair
		}
		items[i] = item
		answers[i] = q.Answer
	}

	h1 := title
	if req.Theme != "" {
		h1 = fmt.Sprintf("%s - %s", title, req.Theme)
	}

	return map[string]any{
		"date":        string(req.Date),
		"level":       level,
		"domain":      string(t.subject),
		"skill":       t.skill,
		"type":        t.kind,
		"theme":       req.Theme,
		"title":       title,
		"slug":        util.Slugify(title, string(req.Date)),
		"h1":          h1,
		"instruction": t.instruction,
		"questions":   items,
		"correction": map[string]any{
			"mode": string(domain.CorrectionModeList),
			"v":    answers,
		},
		"seo": map[string]any{
			"title": fmt.Sprintf("%s - Exercices %s gratuits", title, level),
			"description": fmt.Sprintf("%s : %d questions pour le %s. %s, avec la correction complète à consulter après l'exercice.",
				title, len(questions), level, t.skill),
			"tags":            []any{string(t.subject), lower, t.kind, "cycle 2", "exercices"},
			"internalLinks":   []any{"/" + lower, "/" + lower + "/" + string(t.subject)},
			"nextSuggestions": []any{},
		},
	}
}

var (
	_ domain.ExerciseGenerator = (*TemplateGenerator)(nil)
	_ domain.SubjectRestricted = (*TemplateGenerator)(nil)
)
