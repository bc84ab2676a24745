package llm

import "fmt"

// SystemPrompt frames both generation calls
const SystemPrompt = "You analyze a Reddit user's public activity and describe them strictly from that evidence. " +
	"You never invent facts or citation IDs."

const summaryTemplate = `Based on the Reddit user activity below, write a concise EXECUTIVE SUMMARY with these sections.
Every bullet MUST end with the citation IDs of the items that support it, written exactly as they appear in the activity, e.g. [SRC3] or [SRC3, SRC7].

**CRITICAL FINDINGS**
- [Most important risk or strength inferred from the activity] [SRCn]
- [Another significant finding, positive or negative] [SRCn]

**KEY RISK FACTORS**
- [Top risk from their online behavior or content] [SRCn]
- [Second risk, if any] [SRCn]

**BEHAVIORAL OVERVIEW**
- [Key repeated behavior pattern] [SRCn]
- [Another notable behavioral characteristic] [SRCn]

**PERSONALITY HIGHLIGHTS**
- [Dominant personality trait] [SRCn]
- [Another key personality characteristic] [SRCn]

**RECOMMENDATIONS**
- [Action or advice based on the findings] [SRCn]

Rules:
1. Use exactly the section headings above.
2. Put each bullet on its own line and end it with its citation IDs.
3. Only state what the activity supports. Write "N/A" when nothing supports a point.
4. Keep bullets to one or two sentences, at most 10 bullets in total.
5. Be objective, including about risks.
6. Only cite IDs that appear in the activity.

Here is the user's activity:
%s`

const personaTemplate = `Write a COMPREHENSIVE USER PERSONA based on the Reddit activity below.
Every bullet MUST end with the citation IDs of the items that support it, written exactly as they appear in the activity, e.g. [SRC3] or [SRC3, SRC7].

# Reddit User Persona Analysis

**DEMOGRAPHICS (infer when possible, otherwise N/A)**
- AGE: [Value or N/A] [SRCn]
- OCCUPATION: [Value or N/A] [SRCn]
- STATUS (e.g., student, parent, single): [Value or N/A] [SRCn]
- LOCATION: [Value or N/A] [SRCn]
- ARCHETYPE (e.g., "The Tech Enthusiast", "The Casual Lurker"): [Value or N/A] [SRCn]

## PERSONALITY TRAITS
- [Trait, e.g., analytical, humorous, supportive] [SRCn]

## BEHAVIOR & HABITS
- [Specific online habit, e.g., answers questions, posts guides] [SRCn]

## MOTIVATIONS
- [What drives their activity] [SRCn]

## GOALS & NEEDS
- [What they are trying to achieve or find] [SRCn]

## FRUSTRATIONS
- [What annoys them or what they complain about] [SRCn]

## COMMUNICATION STYLE
- [How they communicate, e.g., concise, formal, confrontational] [SRCn]

## ONLINE ACTIVITY PATTERNS
- [When they post and which subreddits or topics they frequent] [SRCn]

Rules:
1. Use exactly the section headings above, in this order.
2. Give 2-3 distinct bullets per section; put each on its own line ending with its citation IDs.
3. Only state what the activity supports. Write "N/A" when nothing supports a point.
4. The persona should read as one coherent picture of the user.
5. Only cite IDs that appear in the activity.

Here is the user's activity:
%s`

// Fallback texts for a user with no usable activity
const (
	NoActivitySummary = "No sufficient user activity found to generate an executive summary."
	NoActivityPersona = "No sufficient user activity found to generate a comprehensive persona."
)

// SummaryPrompt builds the executive summary prompt for a corpus
func SummaryPrompt(corpusText string) string {
	return fmt.Sprintf(summaryTemplate, corpusText)
}

// PersonaPrompt builds the comprehensive persona prompt for a corpus
func PersonaPrompt(corpusText string) string {
	return fmt.Sprintf(personaTemplate, corpusText)
}
