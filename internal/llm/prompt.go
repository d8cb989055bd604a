package llm

import "fmt"

const systemPrompt = "Ты редактор новостного сайта. Отвечай только валидным JSON-объектом."

// buildPrompt asks for a unique, fact-preserving rewrite with an SEO title and
// a 2-3 sentence description, returned as a JSON object with exactly the keys
// "title" and "description".
func buildPrompt(title, description string) string {
	return fmt.Sprintf(`Перепиши эту новость уникально, сохранив смысл и факты. Сделай SEO-оптимизированный заголовок и описание.

Оригинал:
Заголовок: %s
Описание: %s

Верни JSON:
{"title": "новый заголовок", "description": "новое описание (2-3 предложения)"}`, title, description)
}
