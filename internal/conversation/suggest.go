package conversation

import "github.com/tradechat-bot/server/internal/intent"

const maxSuggestions = 6

// BuildSuggestions derives the UI follow-up prompts from state, each
// conditioned on what the state does not already reflect. Order is fixed:
// granularity toggles, compare-prior-year, scale toggles, metric toggles.
func BuildSuggestions(s *State) []Choice {
	var out []Choice

	if s.Time.Granularity != "month" {
		out = append(out, Choice{Label: "Сар бүрээр", Prompt: "сар бүрээр нь"})
	}
	if s.Time.Granularity != "year" {
		out = append(out, Choice{Label: "Жилээр", Prompt: "жилээр нь"})
	}

	if s.Time.Year != nil && len(s.Time.Years) == 0 {
		out = append(out, Choice{Label: "Өмнөх онтой харьцуулах", Prompt: "өмнөх онтой харьцуул"})
	}

	if s.ScaleLabel != "сая" {
		out = append(out, Choice{Label: "Сая нэгжээр", Prompt: "сая нэгжээр"})
	}
	if s.ScaleLabel != "мянга" {
		out = append(out, Choice{Label: "Мянга нэгжээр", Prompt: "мянга нэгжээр"})
	}

	if s.Metric != intent.MetricAmountUSD {
		out = append(out, Choice{Label: "Үнийн дүн (USD)", Prompt: "үнийн дүнгээр нь"})
	}
	if s.Metric != intent.MetricQuantity {
		out = append(out, Choice{Label: "Тоо хэмжээ (тонн)", Prompt: "тоо хэмжээгээр нь"})
	}

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}
