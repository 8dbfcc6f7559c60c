package exercisegen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"jementraine/internal/config"
	"jementraine/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

const systemPrompt = `Tu es enseignant(e) de cycle 2 (CP, CE1, CE2) en France et tu rédiges des exercices courts, conformes aux programmes de l'Éducation nationale.

Règles :
- Une seule notion par exercice, progression du plus facile au plus difficile.
- Vocabulaire adapté à l'âge, phrases courtes, aucune ambiguïté dans les réponses.
- Chaque question a une réponse unique et vérifiable, écrite en toutes lettres ou en chiffres.
- Un indice court peut accompagner les questions difficiles.
- Pour un exercice "relier", chaque question porte un champ "pair" et les réponses sont toutes différentes.
- Pour un "qcm" ou un "vrai-faux", le champ "options" liste les choix proposés.

Réponds uniquement avec un objet JSON, sans texte autour, de la forme :
{
  "date": "YYYY-MM-DD",
  "level": "CP",
  "domain": "maths",
  "skill": "...",
  "type": "...",
  "theme": "...",
  "title": "...",
  "slug": "...",
  "h1": "...",
  "instruction": "...",
  "questions": [{"prompt": "...", "answer": "...", "hint": "...", "options": ["..."], "pair": "..."}],
  "correction": {"mode": "list", "v": ["réponse 1", "réponse 2"]},
  "seo": {"title": "...", "description": "...", "tags": ["..."], "internalLinks": ["..."], "nextSuggestions": []}
}
correction.v reprend les réponses dans l'ordre des questions.`

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// LLMGenerator asks a chat model for a complete exercise document.
type LLMGenerator struct {
	model       llms.Model
	name        string
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// NewLLMGenerator wraps an existing model.
func NewLLMGenerator(model llms.Model, name string, cfg config.LLMConfig, logger *zap.Logger) *LLMGenerator {
	return &LLMGenerator{
		model:       model,
		name:        name,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}
}

// NewFromConfig builds the generator for cfg.Provider. A missing OpenAI key is
// a configuration error.
func NewFromConfig(cfg config.LLMConfig, logger *zap.Logger) (*LLMGenerator, error) {
	switch cfg.Provider {
	case "ollama":
		httpClient := &http.Client{Timeout: 120 * time.Second}
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.Ollama.ServerURL),
			ollama.WithModel(cfg.Ollama.Model),
			ollama.WithFormat("json"),
			ollama.WithHTTPClient(httpClient),
		)
		if err != nil {
			return nil, domain.NewLLMServiceError(fmt.Errorf("failed to create ollama client: %w", err))
		}
		logger.Info("Using Ollama model", zap.String("server", cfg.Ollama.ServerURL), zap.String("model", cfg.Ollama.Model))
		return NewLLMGenerator(llm, "ollama:"+cfg.Ollama.Model, cfg, logger), nil

	case "", "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, domain.NewConfigurationError("OPENAI_API_KEY is not set")
		}
		llm, err := openai.New(
			openai.WithToken(cfg.OpenAI.APIKey),
			openai.WithModel(cfg.OpenAI.Model),
		)
		if err != nil {
			return nil, domain.NewLLMServiceError(fmt.Errorf("failed to create openai client: %w", err))
		}
		logger.Info("Using OpenAI model", zap.String("model", cfg.OpenAI.Model))
		return NewLLMGenerator(llm, "openai:"+cfg.OpenAI.Model, cfg, logger), nil

	default:
		return nil, domain.NewConfigurationError(fmt.Sprintf("unknown llm provider %q", cfg.Provider))
	}
}

func (g *LLMGenerator) Name() string {
	return g.name
}

// Generate implements domain.ExerciseGenerator
func (g *LLMGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (any, error) {
	prompt := BuildPrompt(req)
	g.logger.Debug("Calling LLM", zap.String("model", g.name), zap.String("level", string(req.Level)),
		zap.String("domain", string(req.Domain)), zap.String("skill", req.Skill))

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}
	opts := []llms.CallOption{llms.WithTemperature(g.temperature), llms.WithJSONMode()}
	if g.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.maxTokens))
	}

	resp, err := g.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, domain.NewLLMServiceError(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, domain.NewLLMServiceError(fmt.Errorf("empty response from %s", g.name))
	}

	raw := resp.Choices[0].Content
	var doc any
	if err := json.Unmarshal([]byte(CleanResponse(raw)), &doc); err != nil {
		g.logger.Warn("LLM returned undecodable JSON", zap.String("model", g.name), zap.String("response", raw), zap.Error(err))
		return nil, domain.NewLLMServiceError(fmt.Errorf("failed to parse LLM response: %w", err))
	}
	return doc, nil
}

// CleanResponse strips reasoning blocks and markdown fences around the JSON
// object returned by a model.
func CleanResponse(raw string) string {
	s := thinkBlock.ReplaceAllString(raw, "")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}

// BuildPrompt renders the user message for one exercise.
func BuildPrompt(req domain.GenerationRequest) string {
	domainName := req.DomainLabel
	if domainName == "" {
		domainName = string(req.Domain)
	}
	dateSlug := strings.ReplaceAll(string(req.Date), "-", "")

	var b strings.Builder
	fmt.Fprintf(&b, "Génère un exercice de %s pour le niveau %s.\n\n", domainName, req.Level)
	fmt.Fprintf(&b, "- date : %s\n", req.Date)
	fmt.Fprintf(&b, "- level : %s\n", req.Level)
	fmt.Fprintf(&b, "- domain : %s\n", req.Domain)
	fmt.Fprintf(&b, "- compétence (skill) : %s\n", req.Skill)
	fmt.Fprintf(&b, "- type : %s\n", req.Type)
	if req.Theme != "" {
		fmt.Fprintf(&b, "- thème : %s (à utiliser dans les énoncés quand c'est naturel)\n", req.Theme)
	}
	fmt.Fprintf(&b, "- nombre de questions : entre %d et %d\n", req.MinQuestions, req.MaxQuestions)
	if req.LevelStyle != "" {
		fmt.Fprintf(&b, "- style : %s\n", req.LevelStyle)
	}
	fmt.Fprintf(&b, "- slug : commence par %s- suivi de quelques mots du titre, en minuscules sans accents, séparés par des tirets\n", dateSlug)
	b.WriteString("- seo.title : 30 à 60 caractères ; seo.description : 100 à 160 caractères\n")
	fmt.Fprintf(&b, "- seo.internalLinks : [\"/%[1]s\", \"/%[1]s/%[2]s\"]\n", strings.ToLower(string(req.Level)), req.Domain)
	return b.String()
}

var _ domain.ExerciseGenerator = (*LLMGenerator)(nil)
