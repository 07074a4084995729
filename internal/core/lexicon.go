package core

import (
	"regexp"
	"strings"
)

// tokenPattern matches word tokens: runs of letters, digits and apostrophes.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}']+`)

// tokenize lowercases text and splits it into word tokens.
func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		tok = strings.Trim(tok, "'")
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// keywords returns the distinct tokens of text longer than three runes that
// are not stop words, in first-seen order.
func keywords(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range tokenize(text) {
		if len([]rune(tok)) <= 3 || stopWords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var stopWords = wordSet(
	"the", "and", "for", "are", "but", "not", "you", "all", "can", "had",
	"her", "was", "one", "our", "out", "day", "get", "has", "him", "his",
	"how", "its", "may", "new", "now", "old", "see", "two", "who", "did",
	"she", "use", "way", "will", "with", "this", "that", "have", "from",
	"they", "know", "want", "been", "good", "much", "some", "time", "very",
	"when", "come", "here", "just", "like", "long", "make", "many", "over",
	"such", "take", "than", "them", "well", "were", "what", "your", "about",
	"would", "there", "their", "which", "could", "should", "into", "also",
	"need", "needs", "must", "please", "thanks", "then", "these", "those",
	"where", "while", "after", "before", "again", "other", "only", "being",
)

var positiveWords = wordSet(
	"good", "great", "thanks", "thank", "happy", "excellent", "success",
	"successful", "love", "awesome", "appreciate", "appreciated", "pleased",
	"resolved", "nice", "glad", "perfect", "congrats", "congratulations",
	"win", "won", "wonderful", "fantastic", "amazing", "enjoy", "enjoyed",
	"progress", "approved", "helpful", "excited", "smooth", "fine",
)

var negativeWords = wordSet(
	"problem", "problems", "issue", "issues", "late", "delay", "delayed",
	"stress", "stressed", "worried", "worry", "fail", "failed", "failure",
	"broken", "urgent", "asap", "overdue", "bad", "angry", "complaint",
	"unfortunately", "error", "errors", "bug", "bugs", "blocked", "risk",
	"difficult", "sorry", "missed", "crash", "crashed", "behind", "pressure",
	"concern", "concerned", "frustrated", "upset", "wrong", "escalation",
)

// urgencyPattern matches the fixed urgency keyword set. Multi-word phrases
// come first so they win over their parts.
var urgencyPattern = regexp.MustCompile(`(?i)\b(as soon as possible|right away|end of day|asap|urgently|urgent|deadline|immediately|critical|overdue|due|eod|priority)\b`)

// imperativeVerbs are sentence openers that mark an actionable item.
var imperativeVerbs = wordSet(
	"call", "email", "send", "submit", "review", "schedule", "book", "buy",
	"pay", "finish", "complete", "prepare", "write", "update", "fix", "check",
	"reply", "respond", "follow", "contact", "remind", "organize", "organise",
	"plan", "draft", "file", "renew", "order", "pick", "clean", "read", "sign",
	"confirm", "cancel", "arrange", "set", "create", "start", "research", "ask",
	"deliver", "ship", "test", "deploy", "meet", "attend", "register", "print",
	"upload", "share", "finalize", "finalise", "approve", "remember", "don't",
)

// obligationPattern matches modal obligation phrases anywhere in a sentence.
var obligationPattern = regexp.MustCompile(`(?i)\b(need to|needs to|have to|has to|must)\b`)

// leadingObligation strips an opening obligation phrase from a task title.
var leadingObligation = regexp.MustCompile(`(?i)^(?:(?:i|we|you|they)\s+)?(?:really\s+|still\s+)?(?:need to|needs to|have to|has to|must)\s+`)

// sentencePattern splits content into sentences on terminal punctuation and
// line breaks.
var sentencePattern = regexp.MustCompile(`[^.!?\n]+[.!?]*`)

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentencePattern.FindAllString(text, -1) {
		s = strings.TrimSpace(s)
		if strings.Trim(s, ".!? \t") == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// truncateRunes shortens s to at most n runes, marking the cut with "...".
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return strings.TrimSpace(string(r[:n-3])) + "..."
}
