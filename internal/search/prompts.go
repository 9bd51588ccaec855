package search

import (
	"fmt"
	"regexp"
	"strings"
)

const plannerSystemPrompt = `Answer the following question as best you can. You have access to one tool:

search: a web search engine. Use it to find current facts. Input is a search query.

Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: search
Action Input: the search query (you may repeat this line to run several queries at once)
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
Final Answer: the final answer to the original input question

Write only the next Thought and either an Action with its inputs or a Final Answer. Never write an Observation yourself.`

const finalizerSystemPrompt = "You write the final answer using the research transcript. If the information is insufficient, say so clearly."

const invalidFormatObservation = "Invalid Format: reply with either an Action and Action Input lines or a Final Answer."

func buildPlannerUserPrompt(question string, steps []Step) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n")
	for _, step := range steps {
		b.WriteString(step.transcript())
	}
	b.WriteString("Thought:")
	return b.String()
}

func buildFinalizerUserPrompt(question string, steps []Step) string {
	var b strings.Builder
	b.WriteString("Question:\n")
	b.WriteString(question)
	b.WriteString("\n\nResearch transcript:\n")
	if len(steps) == 0 {
		b.WriteString("(empty)\n")
	}
	for _, step := range steps {
		b.WriteString(step.transcript())
	}
	b.WriteString("\nWrite a direct answer. If the transcript is insufficient, say 'I could not find enough information yet.'")
	return b.String()
}

func formatObservation(query string, results []Result) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Results for %q:\n", query))
	if len(results) == 0 {
		b.WriteString("(no results returned)\n")
	}
	for i, r := range results {
		b.WriteString(fmt.Sprintf("%d. %s | %s | %s\n", i+1, strings.TrimSpace(r.Title), strings.TrimSpace(r.URL), strings.TrimSpace(r.Content)))
	}
	return b.String()
}

type decisionKind int

const (
	decisionInvalid decisionKind = iota
	decisionSearch
	decisionAnswer
)

type decision struct {
	kind    decisionKind
	thought string
	queries []string
	answer  string
}

var (
	thinkRegex       = regexp.MustCompile(`(?s)<think>.*?</think>`)
	finalAnswerRegex = regexp.MustCompile(`(?is)final answer\s*:\s*(.+)`)
	actionInputRegex = regexp.MustCompile(`(?im)^\s*(?:action input|query)\s*:\s*(.+?)\s*$`)
	directiveRegex   = regexp.MustCompile(`(?im)^\s*(?:action|final answer)\b`)
	thoughtPrefix    = regexp.MustCompile(`(?i)^\s*thought\s*:\s*`)
	observationRegex = regexp.MustCompile(`(?im)^\s*observation\s*:`)
)

// StripThinkBlocks removes <think>...</think> blocks emitted by reasoning models.
func StripThinkBlocks(s string) string {
	return strings.TrimSpace(thinkRegex.ReplaceAllString(s, ""))
}

func parseDecision(raw string) decision {
	text := StripThinkBlocks(raw)
	// Anything the model invents after its own Observation line is discarded.
	if location := observationRegex.FindStringIndex(text); location != nil {
		text = text[:location[0]]
	}

	parsed := decision{}
	thought := text
	if location := directiveRegex.FindStringIndex(text); location != nil {
		thought = text[:location[0]]
	}
	parsed.thought = strings.TrimSpace(thoughtPrefix.ReplaceAllString(strings.TrimSpace(thought), ""))

	seen := map[string]bool{}
	for _, match := range actionInputRegex.FindAllStringSubmatch(text, -1) {
		query := strings.Trim(match[1], "\"'` ")
		if query == "" || seen[query] {
			continue
		}
		seen[query] = true
		parsed.queries = append(parsed.queries, query)
	}
	if len(parsed.queries) > 0 {
		parsed.kind = decisionSearch
		return parsed
	}

	if match := finalAnswerRegex.FindStringSubmatch(text); match != nil && strings.TrimSpace(match[1]) != "" {
		parsed.kind = decisionAnswer
		parsed.answer = strings.TrimSpace(match[1])
	}
	return parsed
}
