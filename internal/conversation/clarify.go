package conversation

// NeedsClarification decides, from state alone, whether enough is known to
// build a query. Checks run in fixed order and the first failing check
// wins, so only one question is ever asked per turn.
func NeedsClarification(s *State) *Clarification {
	if s.Metric == "" {
		return &Clarification{
			Question: "Ямар үзүүлэлтээр авах вэ?",
			Choices: []Choice{
				{Label: "Үнийн дүн (ам.доллар)", Prompt: "үнийн дүнгээр нь"},
				{Label: "Тоо хэмжээ (тонн)", Prompt: "тоо хэмжээгээр нь"},
			},
		}
	}

	if s.Time.Year == nil && len(s.Time.Years) == 0 {
		return &Clarification{
			Question: "Аль оны мэдээлэл авах вэ?",
			Choices: []Choice{
				{Label: "2025", Prompt: "2025 он"},
				{Label: "2024", Prompt: "2024 он"},
				{Label: "2024 vs 2025", Prompt: "2024, 2025-ыг харьцуул"},
			},
		}
	}

	if s.Domain == "" {
		return &Clarification{
			Question: "Экспорт уу, импорт уу?",
			Choices: []Choice{
				{Label: "Экспорт", Prompt: "экспорт"},
				{Label: "Импорт", Prompt: "импорт"},
			},
		}
	}

	return nil
}
