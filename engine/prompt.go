package engine

import (
	"strings"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
)

// MissingInfoAnswer is the phrase the model is told to use when the
// context does not answer the question.
const MissingInfoAnswer = "המידע אינו מופיע במסמכים שנסרקו"

const promptTemplate = `### הוראות למערכת ה-RAG
אתה מומחה לניתוח מסמכים רגולטוריים ומשפטיים. תפקידך לספק תשובה **מקיפה, מדויקת ומובנית** בעברית, המבוססת אך ורק על הקונטקסט המצורף למטה.

### כללי עבודה מחייבים:
1. **היצמדות לקונטקסט**: ענה אך ורק על סמך המידע הניתן. אל תשתמש בידע קודם.
2. **מקיפות**: אם המידע מופיע במספר מקומות בקונטקסט, שלב את כולם לתשובה אחת שלמה ללא חזרות.
3. **מבנה**: השתמש בנקודות (bullet points) או במספור במידה ויש רשימת תנאים או דרישות.
4. **חוסר מידע**: אם הקונטקסט אינו מכיל מספיק מידע כדי לענות על השאלה במלואה, ציין זאת במפורש. השב: "{{missing}}".
5. **דיוק לשוני**: השתמש בשפה מקצועית ועניינית התואמת את אופי המסמכים (חקיקה, רגולציה).

### ציון מקורות (חובה):
בסוף התשובה, הוסף פסקה בשם "מקורות:" ופרט את מספרי העמודים והמסמכים עליהם התבססת.
דוגמה: *מקורות: עמודים 14, 15 (מתוך food_regulation).*

---
### CONTEXT (מידע מהמסמכים):
{{context}}

---
### QUESTION (השאלה):
{{query}}

### ANSWER (התשובה המקיפה):
`

// BuildContext renders chunks as citation-headed blocks separated by blank
// lines, in the given order.
func BuildContext(chunks []hebrew.Chunk) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = c.Citation() + "\n" + c.Text
	}
	return strings.Join(blocks, "\n\n")
}

// BuildPrompt embeds context and query in the answering instructions.
func BuildPrompt(context, query string) string {
	// Single pass, so placeholders inside context or query stay literal.
	return strings.NewReplacer(
		"{{missing}}", MissingInfoAnswer,
		"{{context}}", context,
		"{{query}}", query,
	).Replace(promptTemplate)
}
